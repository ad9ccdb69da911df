package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// timeLayout keeps fractional seconds at fixed width so stored timestamps
// sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("check run not found")

// Run is one recorded architecture check.
type Run struct {
	ID             string
	StartedAt      time.Time
	Module         string
	ConfigPath     string
	OK             bool
	ViolationCount int
	RuleCount      int
	PackageCount   int
	Duration       time.Duration
	Violations     []string
}

// HistoryStore persists check runs. Writes go through a single-connection
// pool; List and Get use a separate query-only pool.
type HistoryStore struct {
	write  *sql.DB
	read   *sql.DB
	logger *slog.Logger
}

// OpenHistory opens the SQLite file at path, creating it and its directory if
// needed, and applies pending migrations.
func OpenHistory(ctx context.Context, path string, logger *slog.Logger) (*HistoryStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	write, err := openPool(path, writePool)
	if err != nil {
		return nil, err
	}
	version, err := migrateHistory(ctx, write, logger)
	if err != nil {
		_ = write.Close()
		return nil, err
	}
	read, err := openPool(path, readPool)
	if err != nil {
		_ = write.Close()
		return nil, err
	}

	logger.Debug("opened run history", "path", path, "schema_version", version)
	return &HistoryStore{write: write, read: read, logger: logger}, nil
}

// Close releases both pools.
func (s *HistoryStore) Close() error {
	return errors.Join(s.read.Close(), s.write.Close())
}

// Record stores run and its violations. An empty ID is assigned a new UUID
// and a zero StartedAt becomes the current time.
func (s *HistoryStore) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()
	run.ViolationCount = len(run.Violations)

	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin record run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO check_runs (id, started_at, module, config_path, ok, violation_count, rule_count, package_count, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Format(timeLayout), run.Module, run.ConfigPath,
		boolToInt(run.OK), run.ViolationCount, run.RuleCount, run.PackageCount, run.Duration.Milliseconds(),
	); err != nil {
		return Run{}, fmt.Errorf("insert check run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO check_violations (run_id, ordinal, message) VALUES (?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("prepare violation insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck
	for i, msg := range run.Violations {
		if _, err := stmt.ExecContext(ctx, run.ID, i, msg); err != nil {
			return Run{}, fmt.Errorf("insert violation %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit check run: %w", err)
	}
	s.logger.Debug("recorded check run", "id", run.ID, "ok", run.OK, "violations", run.ViolationCount)
	return run, nil
}

// List returns up to limit runs, newest first, without their violations.
// A limit of zero or less returns every run.
func (s *HistoryStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.read.QueryContext(ctx, `
SELECT id, started_at, module, config_path, ok, violation_count, rule_count, package_count, duration_ms
FROM check_runs
ORDER BY started_at DESC, rowid DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list check runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get returns one run with its violations in recorded order.
func (s *HistoryStore) Get(ctx context.Context, id string) (Run, error) {
	row := s.read.QueryRowContext(ctx, `
SELECT id, started_at, module, config_path, ok, violation_count, rule_count, package_count, duration_ms
FROM check_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.read.QueryContext(ctx, `SELECT message FROM check_violations WHERE run_id = ? ORDER BY ordinal`, id)
	if err != nil {
		return Run{}, fmt.Errorf("list violations: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return Run{}, fmt.Errorf("scan violation: %w", err)
		}
		run.Violations = append(run.Violations, msg)
	}
	return run, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		startedAt  string
		ok         int
		durationMS int64
	)
	if err := row.Scan(&run.ID, &startedAt, &run.Module, &run.ConfigPath, &ok,
		&run.ViolationCount, &run.RuleCount, &run.PackageCount, &durationMS); err != nil {
		return Run{}, fmt.Errorf("scan check run: %w", err)
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	run.StartedAt = t
	run.OK = ok != 0
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
