package hexagonal_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hexarch/pkg/archrule"
	"hexarch/pkg/depgraph"
	"hexarch/pkg/hexagonal"
	"hexarch/pkg/pkgpath"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const app = "example.com/app"

func appModel(t *testing.T) *hexagonal.Model {
	t.Helper()
	m, err := hexagonal.Define(app, func(a *hexagonal.Architecture) {
		a.Domain("domain")
		a.Adapters("adapter", func(ad *hexagonal.AdaptersBuilder) {
			ad.Incoming("in/web").Outgoing("out/persistence")
		})
		a.Application("application", func(ap *hexagonal.ApplicationBuilder) {
			ap.Services("service").IncomingPorts("port/in").OutgoingPorts("port/out")
		})
		a.Configuration("configuration")
	})
	require.NoError(t, err)
	return m
}

// cleanApp is a graph that satisfies appModel.
func cleanApp() *depgraph.Builder {
	return depgraph.NewBuilder(app).
		Import(app+"/adapter/in/web", app+"/application/port/in").
		Import(app+"/adapter/in/web", app+"/domain").
		Import(app+"/adapter/out/persistence", app+"/application/port/out").
		Import(app+"/adapter/out/persistence", app+"/domain").
		Import(app+"/application/service", app+"/application/port/in").
		Import(app+"/application/service", app+"/application/port/out").
		Import(app+"/application/service", app+"/domain").
		Import(app+"/application/port/in", app+"/domain").
		Import(app+"/application/port/out", app+"/domain").
		Import(app+"/configuration", app+"/adapter/in/web").
		Import(app+"/configuration", app+"/adapter/out/persistence").
		Import(app+"/configuration", app+"/application/service").
		Package(app + "/domain")
}

func check(t *testing.T, m *hexagonal.Model, g *depgraph.Graph) archrule.Result {
	t.Helper()
	res, err := m.Check(context.Background(), g)
	require.NoError(t, err)
	return res
}

func TestCheck_CleanArchitecturePasses(t *testing.T) {
	res := check(t, appModel(t), cleanApp().Build())
	assert.True(t, res.OK(), res.String())
}

func TestCheck_CrossAdapterDependencyReportedOnce(t *testing.T) {
	g := cleanApp().
		ImportAt(app+"/adapter/in/web", app+"/adapter/out/persistence", "adapter/in/web/handler.go", 9).
		Build()

	res := check(t, appModel(t), g)
	require.Len(t, res.Violations(), 1)
	assert.Equal(t,
		"example.com/app/adapter/in/web must not depend on example.com/app/adapter/out/persistence: "+
			"example.com/app/adapter/in/web imports example.com/app/adapter/out/persistence (adapter/in/web/handler.go:9)",
		res.Violations()[0])
}

func TestCheck_ThirdIndependentAdapterAddsNothing(t *testing.T) {
	m, err := hexagonal.Define(app, func(a *hexagonal.Architecture) {
		a.Domain("domain")
		a.Adapters("adapter", func(ad *hexagonal.AdaptersBuilder) {
			ad.Incoming("in/web").Incoming("in/cli").Outgoing("out/persistence")
		})
	})
	require.NoError(t, err)

	g := cleanApp().
		Import(app+"/adapter/in/cli", app+"/domain").
		Import(app+"/adapter/in/web", app+"/adapter/out/persistence").
		Build()

	res := check(t, m, g)
	require.Len(t, res.Violations(), 1)
	assert.Contains(t, res.Violations()[0], "adapter/in/web must not depend on example.com/app/adapter/out/persistence")
}

func TestCheck_PortDirectionsAreIndependent(t *testing.T) {
	outToIn := cleanApp().Import(app+"/application/port/out", app+"/application/port/in").Build()
	res := check(t, appModel(t), outToIn)
	require.Len(t, res.Violations(), 1)
	assert.Contains(t, res.Violations()[0], "example.com/app/application/port/out must not depend on example.com/app/application/port/in")

	inToOut := cleanApp().Import(app+"/application/port/in", app+"/application/port/out").Build()
	res = check(t, appModel(t), inToOut)
	require.Len(t, res.Violations(), 1)
	assert.Contains(t, res.Violations()[0], "example.com/app/application/port/in must not depend on example.com/app/application/port/out")
}

func TestCheck_EmptyDeclaredPackage(t *testing.T) {
	m, err := hexagonal.Define(app, func(a *hexagonal.Architecture) {
		a.Adapters("adapter", func(ad *hexagonal.AdaptersBuilder) {
			ad.Incoming("in/web").Outgoing("out/messaging")
		})
	})
	require.NoError(t, err)

	res := check(t, m, cleanApp().Build())
	assert.Equal(t, []string{
		"package example.com/app/adapter/out/messaging must not be empty: no Go packages found in example.com/app/adapter/out/messaging/...",
	}, res.Violations())
}

func TestCheck_DomainOnlyModelPasses(t *testing.T) {
	m, err := hexagonal.Define(app, func(a *hexagonal.Architecture) {
		a.Domain("domain")
	})
	require.NoError(t, err)

	g := depgraph.NewBuilder(app).
		Import(app+"/domain", app+"/application").
		Import(app+"/domain", app+"/adapter/in/web").
		Import(app+"/domain", app+"/configuration").
		Build()

	res := check(t, m, g)
	assert.True(t, res.OK())
	assert.Empty(t, m.Rules())
}

func TestCheck_ViolationOrderFollowsLayers(t *testing.T) {
	g := cleanApp().
		Import(app+"/domain", app+"/configuration").
		Import(app+"/domain", app+"/application/port/in").
		Import(app+"/domain", app+"/adapter/in/web").
		Import(app+"/application/service", app+"/configuration").
		Import(app+"/application/service", app+"/adapter/out/persistence").
		Import(app+"/adapter/out/persistence", app+"/configuration").
		Build()

	res := check(t, appModel(t), g)
	heads := make([]string, 0, len(res.Violations()))
	for _, v := range res.Violations() {
		head, _, _ := strings.Cut(v, ": ")
		heads = append(heads, head)
	}
	assert.Equal(t, []string{
		"example.com/app/adapter must not depend on example.com/app/configuration",
		"example.com/app/application must not depend on example.com/app/adapter",
		"example.com/app/application must not depend on example.com/app/configuration",
		"example.com/app/domain must not depend on example.com/app/adapter",
		"example.com/app/domain must not depend on example.com/app/application",
		"example.com/app/domain must not depend on example.com/app/configuration",
	}, heads)
}

func TestCheck_IsIdempotentAndConcurrentSafe(t *testing.T) {
	m := appModel(t)
	g := cleanApp().
		Import(app+"/domain", app+"/application").
		Import(app+"/adapter/in/web", app+"/adapter/out/persistence").
		Import(app+"/adapter/out/persistence", app+"/adapter/in/web").
		Build()

	first := check(t, m, g)
	second := check(t, m, g)
	assert.Equal(t, first.Violations(), second.Violations())

	conc, err := m.CheckConcurrent(context.Background(), g, 4)
	require.NoError(t, err)
	assert.Equal(t, first.Violations(), conc.Violations())
	assert.Len(t, first.Violations(), 3)
}

func TestCheck_CustomRulesRunLast(t *testing.T) {
	m, err := hexagonal.Define(app, func(a *hexagonal.Architecture) {
		a.Domain("domain")
		a.Configuration("configuration")
		a.Rule(archrule.Deny(app+"/adapter/in/web", app+"/domain"))
	})
	require.NoError(t, err)

	res := check(t, m, cleanApp().Import(app+"/domain", app+"/configuration").Build())
	require.Len(t, res.Violations(), 2)
	assert.Contains(t, res.Violations()[0], "domain must not depend on example.com/app/configuration")
	assert.Contains(t, res.Violations()[1], "adapter/in/web must not depend on example.com/app/domain")
}

func TestCheck_ProviderErrorPropagates(t *testing.T) {
	boom := errors.New("scan failed")
	src := depgraph.ImporterFunc(func(context.Context, ...pkgpath.Prefix) (*depgraph.Graph, error) {
		return nil, depgraph.ErrProvider("scan", nil, boom)
	})
	g := depgraph.New(app, nil, src)

	_, err := appModel(t).Check(context.Background(), g)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
