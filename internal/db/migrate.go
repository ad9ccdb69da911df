package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrateHistory brings the history schema up to date and returns its
// version.
func migrateHistory(ctx context.Context, db *sql.DB, logger *slog.Logger) (int64, error) {
	fsys, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return 0, fmt.Errorf("history migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("history migrations: %w", err)
	}

	applied, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate history schema: %w", err)
	}
	for _, res := range applied {
		logger.Debug("applied history migration", "version", res.Source.Version, "duration", res.Duration)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("history schema version: %w", err)
	}
	return version, nil
}
