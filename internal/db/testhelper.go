package db

import (
	"context"
	"path/filepath"
	"testing"
)

// OpenTestHistory opens a migrated history store in t.TempDir() and closes
// it when the test ends.
func OpenTestHistory(t testing.TB) *HistoryStore {
	t.Helper()

	store, err := OpenHistory(context.Background(), filepath.Join(t.TempDir(), "history.sqlite"), nil)
	if err != nil {
		t.Fatalf("open test history: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
