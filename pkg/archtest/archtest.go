// Package archtest asserts architecture models from Go tests.
package archtest

import (
	"context"
	"strings"

	"github.com/stretchr/testify/require"

	"hexarch/pkg/depgraph"
	"hexarch/pkg/hexagonal"
)

// AssertModel checks model against g and fails t once with every violation,
// one per line. Provider errors fail t as well.
func AssertModel(t require.TestingT, model *hexagonal.Model, g *depgraph.Graph) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	res, err := model.Check(context.Background(), g)
	if err != nil {
		require.NoError(t, err, "architecture check could not run")
		return
	}
	if res.OK() {
		return
	}
	t.Errorf("architecture violations (%d):\n%s", len(res.Violations()), strings.Join(res.Violations(), "\n"))
	t.FailNow()
}

// AssertImported imports the model's base prefix with imp and asserts the
// model against the result.
func AssertImported(t require.TestingT, model *hexagonal.Model, imp depgraph.Importer) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	g, err := imp.Import(context.Background(), model.Base())
	if err != nil {
		require.NoError(t, err, "import %s", model.Base().Pattern())
		return
	}
	AssertModel(t, model, g)
}
