// Package db keeps the history of architecture check runs in SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// poolMode selects one side of the history database.
type poolMode int

const (
	// writePool holds a single connection; transactions begin IMMEDIATE.
	writePool poolMode = iota
	// readPool is query-only; List and Get run here.
	readPool
)

const (
	busyTimeout  = 5 * time.Second
	readPoolSize = 4
	pingTimeout  = 5 * time.Second
)

func (m poolMode) String() string {
	if m == writePool {
		return "write"
	}
	return "read"
}

func openPool(path string, mode poolMode) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", historyDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open history %s pool: %w", mode, err)
	}

	size := 1
	if mode == readPool {
		size = readPoolSize
	}
	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history %s pool: %w", mode, err)
	}
	return db, nil
}

// historyDSN builds the go-sqlite3 DSN for path. Both pools use WAL with
// foreign keys on.
func historyDSN(path string, mode poolMode) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
	params.Set("_synchronous", "NORMAL")
	params.Set("_foreign_keys", "on")

	switch mode {
	case writePool:
		params.Set("_txlock", "immediate")
	case readPool:
		params.Set("_query_only", "on")
	}
	return path + "?" + params.Encode()
}
