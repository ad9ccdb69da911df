package golist_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"hexarch/pkg/depgraph"
	"hexarch/pkg/depgraph/golist"
	"hexarch/pkg/depgraph/srcscan"
	"hexarch/pkg/pkgpath"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGo(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}
}

func buckpalDir() string {
	return filepath.Join("..", "..", "..", "testdata", "buckpal")
}

func TestLoader_MatchesSourceScanner(t *testing.T) {
	requireGo(t)
	ctx := context.Background()

	loaded, err := golist.New(golist.Options{Dir: buckpalDir()}).Import(ctx)
	require.NoError(t, err)

	s, err := srcscan.New(srcscan.Options{Dir: buckpalDir()})
	require.NoError(t, err)
	scanned, err := s.Import(ctx)
	require.NoError(t, err)

	assert.Equal(t, "example.com/buckpal", loaded.Module())
	require.Equal(t, scanned.Len(), loaded.Len())
	for _, want := range scanned.Packages() {
		got, ok := loaded.Package(want.Path)
		require.True(t, ok, want.Path)
		assert.Equal(t, want.Name, got.Name, want.Path)
		assert.Equal(t, want.Files, got.Files, want.Path)
		assert.Equal(t, want.Imports, got.Imports, want.Path)
	}
}

func TestLoader_ScopedRescan(t *testing.T) {
	requireGo(t)
	ctx := context.Background()

	g, err := golist.New(golist.Options{Dir: buckpalDir()}).
		Import(ctx, pkgpath.MustParse("example.com/buckpal/account/application"))
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())

	fresh, err := g.Rescan(ctx, pkgpath.MustParse("example.com/buckpal/account/adapter/out"))
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Len())

	var perr *depgraph.ProviderError
	_, err = golist.New(golist.Options{Dir: t.TempDir()}).Import(ctx)
	require.ErrorAs(t, err, &perr)
}
