package hexagonal

import (
	"testing"

	"hexarch/pkg/archrule"
	"hexarch/pkg/pkgpath"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefine_QualifiesRelativeNames(t *testing.T) {
	m, err := Define("example.com/buckpal/account", func(a *Architecture) {
		a.Domain("domain", "shared/money")
		a.Adapters("adapter", func(b *AdaptersBuilder) {
			b.Incoming("in/web").Outgoing("out/persistence")
		})
		a.Application("application", func(b *ApplicationBuilder) {
			b.Services("service").IncomingPorts("port/in").OutgoingPorts("port/out")
		})
		a.Configuration("configuration")
	})
	require.NoError(t, err)

	assert.Equal(t, pkgpath.Prefix("example.com/buckpal/account"), m.Base())
	assert.Equal(t, []pkgpath.Prefix{
		"example.com/buckpal/account/domain",
		"example.com/buckpal/account/shared/money",
	}, m.Domain())
	assert.Equal(t, pkgpath.Prefix("example.com/buckpal/account/adapter"), m.Adapters().Base())
	assert.Equal(t, []pkgpath.Prefix{"example.com/buckpal/account/adapter/in/web"}, m.Adapters().Incoming())
	assert.Equal(t, []pkgpath.Prefix{"example.com/buckpal/account/adapter/out/persistence"}, m.Adapters().Outgoing())
	assert.Equal(t, []pkgpath.Prefix{"example.com/buckpal/account/application/service"}, m.Application().Services())
	assert.Equal(t, []pkgpath.Prefix{"example.com/buckpal/account/application/port/in"}, m.Application().IncomingPorts())
	assert.Equal(t, []pkgpath.Prefix{"example.com/buckpal/account/application/port/out"}, m.Application().OutgoingPorts())

	cfg, ok := m.Configuration()
	require.True(t, ok)
	assert.Equal(t, pkgpath.Prefix("example.com/buckpal/account/configuration"), cfg)

	layers := m.Layers()
	require.Len(t, layers, 9)
	assert.Equal(t, "adapters", layers[0].Name)
	assert.Equal(t, "configuration", layers[8].Name)
}

func TestDefine_RuleCount(t *testing.T) {
	m, err := Define("example.com/app", func(a *Architecture) {
		a.Domain("domain")
		a.Adapters("adapter", func(b *AdaptersBuilder) {
			b.Incoming("in/web").Incoming("in/cli").Outgoing("out/db")
		})
		a.Application("application", func(b *ApplicationBuilder) {
			b.Services("service").IncomingPorts("port/in").OutgoingPorts("port/out", "port/events")
		})
		a.Configuration("configuration")
	})
	require.NoError(t, err)

	// adapters: 3 non-empty + independence + configuration
	// application: 4 non-empty + adapters + configuration + 2 + 2 port pairs
	// domain: adapters + application + configuration
	assert.Len(t, m.Rules(), 5+10+3)
}

func TestDefine_ConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		block func(a *Architecture)
		want  string
	}{
		{
			name:  "bad base",
			base:  "example.com/app/",
			block: func(a *Architecture) {},
			want:  "base package",
		},
		{
			name: "domain twice",
			base: "example.com/app",
			block: func(a *Architecture) {
				a.Domain("domain")
				a.Domain("more")
			},
			want: "domain layer declared more than once",
		},
		{
			name: "adapters twice",
			base: "example.com/app",
			block: func(a *Architecture) {
				a.Adapters("adapter", nil)
				a.Adapters("adapter2", nil)
			},
			want: "adapters layer declared more than once",
		},
		{
			name: "empty domain call",
			base: "example.com/app",
			block: func(a *Architecture) {
				a.Domain()
			},
			want: "at least one package",
		},
		{
			name: "duplicate adapter",
			base: "example.com/app",
			block: func(a *Architecture) {
				a.Adapters("adapter", func(b *AdaptersBuilder) {
					b.Incoming("in/web").Outgoing("in/web")
				})
			},
			want: "declared twice",
		},
		{
			name: "nested ports",
			base: "example.com/app",
			block: func(a *Architecture) {
				a.Application("application", func(b *ApplicationBuilder) {
					b.IncomingPorts("port").OutgoingPorts("port/out")
				})
			},
			want: "overlap",
		},
		{
			name: "malformed adapter",
			base: "example.com/app",
			block: func(a *Architecture) {
				a.Adapters("adapter", func(b *AdaptersBuilder) {
					b.Incoming("in web")
				})
			},
			want: `incoming adapter "in web"`,
		},
		{
			name: "missing application base",
			base: "example.com/app",
			block: func(a *Architecture) {
				a.Application("", nil)
			},
			want: "application: base name is required",
		},
		{
			name: "bad custom rule",
			base: "example.com/app",
			block: func(a *Architecture) {
				a.Rule(archrule.RequireNonEmpty("nope/"))
			},
			want: "custom rule 1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Define(tc.base, tc.block)
			require.Error(t, err)
			var cerr *archrule.ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestSpec_BuildMatchesDefine(t *testing.T) {
	fromSpec, err := Spec{
		Base:     "example.com/app",
		Domain:   []string{"domain"},
		Adapters: &AdaptersSpec{Base: "adapter", Incoming: []string{"in/web"}, Outgoing: []string{"out/db"}},
	}.Build()
	require.NoError(t, err)

	fromDSL, err := Define("example.com/app", func(a *Architecture) {
		a.Domain("domain")
		a.Adapters("adapter", func(b *AdaptersBuilder) {
			b.Incoming("in/web").Outgoing("out/db")
		})
	})
	require.NoError(t, err)

	assert.Equal(t, ruleStrings(fromSpec.Rules()), ruleStrings(fromDSL.Rules()))
	assert.Nil(t, fromSpec.Application())
	_, ok := fromSpec.Configuration()
	assert.False(t, ok)
}

func ruleStrings(rules []archrule.Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.String())
	}
	return out
}
