// Package astdb persists a package import graph in DuckDB for governance queries.
//
// Tables:
//
//	packages(path, name, dir, internal)
//	files(file_id, package_path, path)
//	imports(package_path, import_path, file_path, line, internal)
//	run_meta(key, value)
//
// An import is internal when its target lies inside the indexed module.
package astdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Register DuckDB SQL driver.
	_ "github.com/duckdb/duckdb-go/v2"

	"hexarch/pkg/depgraph"
	"hexarch/pkg/pkgpath"
)

const schemaVersion = "1"

// Options controls where and how a graph is indexed.
type Options struct {
	// DuckDBPath is the database file. Empty means an in-memory database,
	// which only makes sense through IndexDB.
	DuckDBPath string
	// Reuse skips the rebuild when the stored fingerprint matches the graph.
	Reuse bool
}

// Result summarizes indexing output.
type Result struct {
	Packages    int
	Files       int
	Imports     int
	Reused      bool
	Reason      string
	Fingerprint string
}

// Open opens a DuckDB database; an empty path opens an in-memory one.
func Open(path string) (*sql.DB, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve duckdb path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("create duckdb parent directory: %w", err)
		}
		path = abs
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return db, nil
}

// Run indexes g into the database file named by opts.
func Run(ctx context.Context, g *depgraph.Graph, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.DuckDBPath) == "" {
		return nil, errors.New("duckdb path is required")
	}

	state, err := Inspect(ctx, opts.DuckDBPath)
	if err != nil {
		return nil, fmt.Errorf("inspect duckdb: %w", err)
	}
	fingerprint := Fingerprint(g)
	rebuild, reason := shouldRebuild(opts.Reuse, state, fingerprint)
	if !rebuild {
		return &Result{
			Packages:    int(state.Packages),
			Files:       int(state.Files),
			Imports:     int(state.Imports),
			Reused:      true,
			Reason:      reason,
			Fingerprint: fingerprint,
		}, nil
	}

	db, err := Open(opts.DuckDBPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	res, err := IndexDB(ctx, db, g)
	if err != nil {
		return nil, err
	}
	res.Reason = reason
	return res, nil
}

// IndexDB replaces the contents of db with g.
func IndexDB(ctx context.Context, db *sql.DB, g *depgraph.Graph) (*Result, error) {
	if err := ensureSchema(ctx, db); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := clearTables(ctx, tx); err != nil {
		return nil, err
	}

	insertPackage, err := tx.PrepareContext(ctx, `INSERT INTO packages (path, name, dir, internal) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare package insert: %w", err)
	}
	defer func() { _ = insertPackage.Close() }()

	insertFile, err := tx.PrepareContext(ctx, `INSERT INTO files (file_id, package_path, path) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare file insert: %w", err)
	}
	defer func() { _ = insertFile.Close() }()

	insertImport, err := tx.PrepareContext(ctx, `INSERT INTO imports (package_path, import_path, file_path, line, internal) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare import insert: %w", err)
	}
	defer func() { _ = insertImport.Close() }()

	res := &Result{Fingerprint: Fingerprint(g)}
	module := g.Module()
	fileID := 0
	for _, pkg := range g.Packages() {
		if _, err := insertPackage.ExecContext(ctx, pkg.Path, pkg.Name, pkg.Dir, isInternal(module, pkg.Path)); err != nil {
			return nil, fmt.Errorf("insert package %s: %w", pkg.Path, err)
		}
		res.Packages++

		for _, f := range pkg.Files {
			fileID++
			if _, err := insertFile.ExecContext(ctx, fileID, pkg.Path, f); err != nil {
				return nil, fmt.Errorf("insert file %s: %w", f, err)
			}
			res.Files++
		}

		for _, imp := range pkg.Imports {
			if _, err := insertImport.ExecContext(ctx, pkg.Path, imp.Path, imp.File, imp.Line, isInternal(module, imp.Path)); err != nil {
				return nil, fmt.Errorf("insert import %s -> %s: %w", pkg.Path, imp.Path, err)
			}
			res.Imports++
		}
	}

	meta := map[string]string{
		"schema_version":     schemaVersion,
		"module":             module,
		"source_fingerprint": res.Fingerprint,
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO run_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return nil, fmt.Errorf("write run_meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit index: %w", err)
	}
	return res, nil
}

func isInternal(module, path string) bool {
	if module == "" {
		return false
	}
	return pkgpath.Matches(path, pkgpath.Prefix(module))
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"packages", `
CREATE TABLE IF NOT EXISTS packages (
  path TEXT NOT NULL,
  name TEXT NOT NULL,
  dir TEXT,
  internal BOOLEAN NOT NULL
)`},
		{"files", `
CREATE TABLE IF NOT EXISTS files (
  file_id BIGINT NOT NULL,
  package_path TEXT NOT NULL,
  path TEXT NOT NULL
)`},
		{"imports", `
CREATE TABLE IF NOT EXISTS imports (
  package_path TEXT NOT NULL,
  import_path TEXT NOT NULL,
  file_path TEXT,
  line BIGINT,
  internal BOOLEAN NOT NULL
)`},
		{"run_meta", `
CREATE TABLE IF NOT EXISTS run_meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
)`},
	}
	for _, st := range statements {
		if _, err := db.ExecContext(ctx, st.sql); err != nil {
			return fmt.Errorf("ensure %s table: %w", st.name, err)
		}
	}
	return nil
}

func clearTables(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"imports", "files", "packages", "run_meta"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
