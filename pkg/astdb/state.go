package astdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strconv"

	"hexarch/pkg/depgraph"
)

// State describes an existing index database.
type State struct {
	Exists            bool
	SchemaVersion     string
	Module            string
	SourceFingerprint string
	Packages          int64
	Files             int64
	Imports           int64
}

// Inspect reads the metadata of the database at path without modifying it.
// A missing file or a database without the index tables is reported through
// State, not as an error.
func Inspect(ctx context.Context, path string) (State, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("stat duckdb file: %w", err)
	}

	db, err := Open(path)
	if err != nil {
		return State{}, err
	}
	defer func() { _ = db.Close() }()

	for _, t := range []string{"packages", "files", "imports", "run_meta"} {
		exists, err := tableExists(ctx, db, t)
		if err != nil {
			return State{}, err
		}
		if !exists {
			return State{Exists: true}, nil
		}
	}

	meta, err := readMeta(ctx, db)
	if err != nil {
		return State{}, err
	}
	state := State{
		Exists:            true,
		SchemaVersion:     meta["schema_version"],
		Module:            meta["module"],
		SourceFingerprint: meta["source_fingerprint"],
	}
	counts := []struct {
		table string
		dst   *int64
	}{
		{"packages", &state.Packages},
		{"files", &state.Files},
		{"imports", &state.Imports},
	}
	for _, c := range counts {
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table).Scan(c.dst); err != nil {
			return State{}, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return state, nil
}

func shouldRebuild(reuse bool, state State, fingerprint string) (bool, string) {
	if !state.Exists {
		return true, "database missing"
	}
	if state.SchemaVersion != schemaVersion {
		return true, "schema version changed"
	}
	if !reuse {
		return true, "reuse disabled"
	}
	if state.SourceFingerprint != fingerprint {
		return true, "sources changed"
	}
	return false, "fingerprint unchanged"
}

// Fingerprint hashes the module path, every package, file and import edge of
// g. Equal graphs have equal fingerprints.
func Fingerprint(g *depgraph.Graph) string {
	h := fnv.New64a()
	write := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	write(g.Module())
	for _, pkg := range g.Packages() {
		write(pkg.Path)
		write(pkg.Name)
		for _, f := range pkg.Files {
			write(f)
		}
		for _, imp := range pkg.Imports {
			write(imp.Path)
			write(imp.File)
			write(strconv.Itoa(imp.Line))
		}
	}
	return fmt.Sprintf("%x", h.Sum64())
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return count > 0, nil
}

func readMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM run_meta`)
	if err != nil {
		return nil, fmt.Errorf("read run_meta: %w", err)
	}
	defer func() { _ = rows.Close() }()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan run_meta: %w", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run_meta: %w", err)
	}
	return meta, nil
}
