package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStore_RecordAndGet(t *testing.T) {
	store := OpenTestHistory(t)
	ctx := context.Background()

	run, err := store.Record(ctx, Run{
		Module:       "example.com/app",
		ConfigPath:   "hexarch.yaml",
		RuleCount:    12,
		PackageCount: 7,
		Duration:     1500 * time.Millisecond,
		Violations: []string{
			"adapter a must not depend on adapter b: x imports y",
			"adapter a must not depend on adapter b: x imports y",
		},
	})
	require.NoError(t, err)
	_, err = uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.ViolationCount)

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", got.Module)
	assert.False(t, got.OK)
	assert.Equal(t, 12, got.RuleCount)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, run.Violations, got.Violations)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
}

func TestHistoryStore_ListNewestFirst(t *testing.T) {
	store := OpenTestHistory(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, ok := range []bool{true, false, true} {
		_, err := store.Record(ctx, Run{
			Module:    "example.com/app",
			OK:        ok,
			StartedAt: base.Add(time.Duration(i) * 500 * time.Millisecond),
		})
		require.NoError(t, err)
	}

	runs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, base.Add(time.Second).Equal(runs[0].StartedAt))
	assert.True(t, base.Add(500*time.Millisecond).Equal(runs[1].StartedAt))
	assert.False(t, runs[1].OK)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistoryStore_GetMissing(t *testing.T) {
	_, err := OpenTestHistory(t).Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestOpenHistory_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".hexarch", "history.sqlite")
	store, err := OpenHistory(context.Background(), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Record(context.Background(), Run{Module: "m", OK: true})
	require.NoError(t, err)
	runs, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].OK)
}
