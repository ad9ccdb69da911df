// Package hexagonal declares a hexagonal (ports and adapters) architecture and
// checks a package graph against it.
//
// A Model has a base package, domain packages, an optional adapters layer, an
// optional application layer, an optional configuration package and any
// number of named layers. Check derives the layering rules from whatever is
// declared and reports every violation in a fixed order: adapters,
// application, domain, named layers, custom rules.
package hexagonal

import (
	"context"

	"hexarch/pkg/archrule"
	"hexarch/pkg/depgraph"
	"hexarch/pkg/pkgpath"
)

// Model is a validated, immutable architecture declaration.
type Model struct {
	base          pkgpath.Prefix
	domain        []pkgpath.Prefix
	adapters      *Adapters
	application   *Application
	configuration pkgpath.Prefix
	layers        []*NamedLayer
	relations     []archrule.Rule
	custom        []archrule.Rule
}

// Base returns the root package of the architecture.
func (m *Model) Base() pkgpath.Prefix { return m.base }

// Domain returns the domain packages in declaration order.
func (m *Model) Domain() []pkgpath.Prefix { return clonePrefixes(m.domain) }

// Adapters returns the adapters layer, or nil if none was declared.
func (m *Model) Adapters() *Adapters { return m.adapters }

// Application returns the application layer, or nil if none was declared.
func (m *Model) Application() *Application { return m.application }

// Configuration returns the configuration package and whether one was
// declared.
func (m *Model) Configuration() (pkgpath.Prefix, bool) {
	return m.configuration, m.configuration != ""
}

// NamedLayers returns the named layers in declaration order.
func (m *Model) NamedLayers() []*NamedLayer {
	return append([]*NamedLayer(nil), m.layers...)
}

// CustomRules returns the extra rules evaluated after the layer rules.
func (m *Model) CustomRules() []archrule.Rule {
	return append([]archrule.Rule(nil), m.custom...)
}

// Rules returns the derived rule list in evaluation order. It is rebuilt on
// every call.
func (m *Model) Rules() []archrule.Rule {
	var rules []archrule.Rule
	if m.adapters != nil {
		rules = append(rules, m.adapters.rules(m.configuration)...)
	}
	if m.application != nil {
		var adaptersBase pkgpath.Prefix
		if m.adapters != nil {
			adaptersBase = m.adapters.base
		}
		rules = append(rules, m.application.rules(adaptersBase, m.configuration)...)
	}
	rules = append(rules, m.domainRules()...)
	rules = append(rules, m.relations...)
	rules = append(rules, m.custom...)
	return rules
}

func (m *Model) domainRules() []archrule.Rule {
	var rules []archrule.Rule
	if m.adapters != nil {
		rules = append(rules, denyEach(m.domain, m.adapters.base)...)
	}
	if m.application != nil {
		rules = append(rules, denyEach(m.domain, m.application.base)...)
	}
	if m.configuration != "" {
		rules = append(rules, denyEach(m.domain, m.configuration)...)
	}
	return rules
}

// Check validates g against the model. Violations are returned in the
// Result; the error is reserved for provider failures.
func (m *Model) Check(ctx context.Context, g *depgraph.Graph) (archrule.Result, error) {
	return archrule.Evaluate(ctx, g, m.Rules(), 1)
}

// CheckConcurrent is Check with rules evaluated on up to workers goroutines.
// The result is identical to Check.
func (m *Model) CheckConcurrent(ctx context.Context, g *depgraph.Graph, workers int) (archrule.Result, error) {
	return archrule.Evaluate(ctx, g, m.Rules(), workers)
}

// Layer is a named group of packages, used for reporting.
type Layer struct {
	Name     string
	Packages []pkgpath.Prefix
}

// Layers describes the declared layers in check order.
func (m *Model) Layers() []Layer {
	var out []Layer
	if m.adapters != nil {
		out = append(out,
			Layer{Name: "adapters", Packages: []pkgpath.Prefix{m.adapters.base}},
			Layer{Name: "adapters/incoming", Packages: m.adapters.Incoming()},
			Layer{Name: "adapters/outgoing", Packages: m.adapters.Outgoing()},
		)
	}
	if m.application != nil {
		out = append(out,
			Layer{Name: "application", Packages: []pkgpath.Prefix{m.application.base}},
			Layer{Name: "application/services", Packages: m.application.Services()},
			Layer{Name: "application/incoming-ports", Packages: m.application.IncomingPorts()},
			Layer{Name: "application/outgoing-ports", Packages: m.application.OutgoingPorts()},
		)
	}
	out = append(out, Layer{Name: "domain", Packages: m.Domain()})
	if m.configuration != "" {
		out = append(out, Layer{Name: "configuration", Packages: []pkgpath.Prefix{m.configuration}})
	}
	for _, l := range m.layers {
		out = append(out, Layer{Name: l.name, Packages: l.Packages()})
	}
	return out
}

func denyEach(froms []pkgpath.Prefix, to pkgpath.Prefix) []archrule.Rule {
	rules := make([]archrule.Rule, 0, len(froms))
	for _, from := range froms {
		rules = append(rules, archrule.DenyDependency(from, to))
	}
	return rules
}

func clonePrefixes(in []pkgpath.Prefix) []pkgpath.Prefix {
	return append([]pkgpath.Prefix(nil), in...)
}
