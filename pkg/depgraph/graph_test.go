package depgraph_test

import (
	"context"
	"errors"
	"testing"

	"hexarch/pkg/depgraph"
	"hexarch/pkg/pkgpath"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBuilder() *depgraph.Builder {
	return depgraph.NewBuilder("example.com/app").
		ImportAt("example.com/app/domain", "fmt", "domain/account.go", 3).
		ImportAt("example.com/app/adapter/in/web", "example.com/app/domain", "adapter/in/web/handler.go", 5).
		ImportAt("example.com/app/adapter/in/web", "example.com/app/domain", "adapter/in/web/routes.go", 7).
		ImportAt("example.com/app/adapter/in/web", "example.com/app/adapter/out/db", "adapter/in/web/routes.go", 8).
		Package("example.com/app/adapter/out/db").
		Package("example.com/app/domainx")
}

func TestGraph_PackagesIn(t *testing.T) {
	g := sampleBuilder().Build()

	assert.Equal(t, "example.com/app", g.Module())
	assert.Equal(t, 4, g.Len())

	var paths []string
	for _, p := range g.PackagesIn(pkgpath.MustParse("example.com/app/domain")) {
		paths = append(paths, p.Path)
	}
	assert.Equal(t, []string{"example.com/app/domain"}, paths)

	adapters := g.PackagesIn(pkgpath.MustParse("example.com/app/adapter"))
	require.Len(t, adapters, 2)
	assert.Equal(t, "example.com/app/adapter/in/web", adapters[0].Path)
	assert.Equal(t, "example.com/app/adapter/out/db", adapters[1].Path)

	assert.Empty(t, g.PackagesIn(pkgpath.MustParse("example.com/app/missing")))
}

func TestPackage_ImportPathsAreDistinct(t *testing.T) {
	g := sampleBuilder().Build()
	web, ok := g.Package("example.com/app/adapter/in/web")
	require.True(t, ok)

	assert.Equal(t, []string{"example.com/app/domain", "example.com/app/adapter/out/db"}, web.ImportPaths())
	assert.Equal(t, []string{"adapter/in/web/handler.go", "adapter/in/web/routes.go"}, web.Files)

	under := web.ImportsUnder(pkgpath.MustParse("example.com/app/domain"))
	require.Len(t, under, 1)
	assert.Equal(t, "adapter/in/web/handler.go", under[0].File)
	assert.Equal(t, 5, under[0].Line)

	assert.Equal(t, 3, g.EdgeCount())
}

func TestGraph_ScopeKeepsOutgoingEdges(t *testing.T) {
	g := sampleBuilder().Build()
	scoped := g.Scope(pkgpath.MustParse("example.com/app/adapter/in"))

	require.Equal(t, 1, scoped.Len())
	web := scoped.Packages()[0]
	assert.Len(t, web.ImportPaths(), 2)
	assert.Equal(t, []pkgpath.Prefix{"example.com/app/adapter/in"}, scoped.Prefixes())
}

func TestGraph_RescanWithoutSourceNarrows(t *testing.T) {
	g := sampleBuilder().Build()

	fresh, err := g.Rescan(context.Background(), pkgpath.MustParse("example.com/app/domain"))
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Len())

	empty, err := g.Rescan(context.Background(), pkgpath.MustParse("example.com/app/nothing"))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestGraph_RescanSeesLaterState(t *testing.T) {
	b := sampleBuilder()
	g, err := b.Importer().Import(context.Background())
	require.NoError(t, err)

	b.Package("example.com/app/config")

	assert.Empty(t, g.PackagesIn(pkgpath.MustParse("example.com/app/config")))
	fresh, err := g.Rescan(context.Background(), pkgpath.MustParse("example.com/app/config"))
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Len())
}

func TestBuilderImporter_NoPackages(t *testing.T) {
	_, err := sampleBuilder().Importer().Import(context.Background(), pkgpath.MustParse("example.com/other"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, depgraph.ErrNoPackages))

	var perr *depgraph.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []string{"example.com/other"}, perr.Patterns)
	assert.Contains(t, perr.Error(), "graph provider import [example.com/other]")
}

func TestRescan_PropagatesProviderFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	src := depgraph.ImporterFunc(func(context.Context, ...pkgpath.Prefix) (*depgraph.Graph, error) {
		return nil, depgraph.ErrProvider("scan", nil, boom)
	})
	g := depgraph.New("example.com/app", nil, src)

	_, err := g.Rescan(context.Background(), pkgpath.MustParse("example.com/app"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
