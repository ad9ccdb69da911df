package astdb_test

import (
	"context"
	"path/filepath"
	"testing"

	"hexarch/pkg/astdb"
	"hexarch/pkg/depgraph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *depgraph.Graph {
	return depgraph.NewBuilder("example.com/app").
		ImportAt("example.com/app/domain", "time", "domain/account.go", 3).
		ImportAt("example.com/app/adapter/web", "example.com/app/domain", "adapter/web/handler.go", 4).
		ImportAt("example.com/app/adapter/web", "net/http", "adapter/web/handler.go", 5).
		Build()
}

func TestRun_IndexesGraph(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.duckdb")

	res, err := astdb.Run(ctx, sampleGraph(), astdb.Options{DuckDBPath: path})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Packages)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 3, res.Imports)
	assert.False(t, res.Reused)
	assert.Equal(t, "database missing", res.Reason)

	db, err := astdb.Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var internal int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM imports WHERE internal`).Scan(&internal))
	assert.Equal(t, 1, internal)

	var line int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT line FROM imports WHERE package_path = 'example.com/app/adapter/web' AND import_path = 'net/http'`).Scan(&line))
	assert.Equal(t, 5, line)
}

func TestRun_ReusesUnchangedIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.duckdb")
	g := sampleGraph()

	_, err := astdb.Run(ctx, g, astdb.Options{DuckDBPath: path, Reuse: true})
	require.NoError(t, err)

	again, err := astdb.Run(ctx, g, astdb.Options{DuckDBPath: path, Reuse: true})
	require.NoError(t, err)
	assert.True(t, again.Reused)
	assert.Equal(t, 3, again.Imports)

	changed := depgraph.NewBuilder("example.com/app").Import("example.com/app/domain", "fmt").Build()
	rebuilt, err := astdb.Run(ctx, changed, astdb.Options{DuckDBPath: path, Reuse: true})
	require.NoError(t, err)
	assert.False(t, rebuilt.Reused)
	assert.Equal(t, "sources changed", rebuilt.Reason)
	assert.Equal(t, 1, rebuilt.Imports)

	state, err := astdb.Inspect(ctx, path)
	require.NoError(t, err)
	assert.True(t, state.Exists)
	assert.Equal(t, "example.com/app", state.Module)
	assert.Equal(t, int64(1), state.Packages)
	assert.Equal(t, astdb.Fingerprint(changed), state.SourceFingerprint)
}

func TestInspect_MissingDatabase(t *testing.T) {
	state, err := astdb.Inspect(context.Background(), filepath.Join(t.TempDir(), "none.duckdb"))
	require.NoError(t, err)
	assert.False(t, state.Exists)
}

func TestFingerprint_IsStable(t *testing.T) {
	assert.Equal(t, astdb.Fingerprint(sampleGraph()), astdb.Fingerprint(sampleGraph()))
	assert.NotEqual(t, astdb.Fingerprint(sampleGraph()), astdb.Fingerprint(depgraph.NewBuilder("example.com/app").Build()))
}

func TestRun_RequiresPath(t *testing.T) {
	_, err := astdb.Run(context.Background(), sampleGraph(), astdb.Options{})
	require.Error(t, err)
}
