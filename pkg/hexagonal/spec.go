package hexagonal

import (
	"hexarch/pkg/archrule"
	"hexarch/pkg/pkgpath"
)

// Spec is the plain declaration of a hexagonal architecture. Every name other
// than Base is relative: Domain entries and Configuration are qualified
// against Base, adapter and port names against their layer's base.
type Spec struct {
	Base          string
	Domain        []string
	Adapters      *AdaptersSpec
	Application   *ApplicationSpec
	Configuration string
	Layers        []LayerSpec
	// Independent holds groups of layer names that must not depend on each
	// other.
	Independent [][]string
	Rules       []archrule.Rule
}

// AdaptersSpec declares the adapters layer.
type AdaptersSpec struct {
	Base     string
	Incoming []string
	Outgoing []string
}

// ApplicationSpec declares the application layer.
type ApplicationSpec struct {
	Base          string
	Services      []string
	IncomingPorts []string
	OutgoingPorts []string
}

// Build validates the declaration and returns the immutable model. All
// prefixes and custom rules are checked here; nothing is scanned.
func (s Spec) Build() (*Model, error) {
	base, err := pkgpath.Parse(s.Base)
	if err != nil {
		return nil, archrule.WrapConfig(err, "base package")
	}

	m := &Model{base: base}

	if m.domain, err = qualifyAll(base, s.Domain, "domain"); err != nil {
		return nil, err
	}
	if err := checkDisjoint("domain", m.domain); err != nil {
		return nil, err
	}

	if s.Adapters != nil {
		if m.adapters, err = buildAdapters(base, *s.Adapters); err != nil {
			return nil, err
		}
	}
	if s.Application != nil {
		if m.application, err = buildApplication(base, *s.Application); err != nil {
			return nil, err
		}
	}
	if s.Configuration != "" {
		cfg, err := pkgpath.Join(base, s.Configuration)
		if err != nil {
			return nil, archrule.WrapConfig(err, "configuration")
		}
		m.configuration = cfg
	}

	if m.layers, err = buildNamedLayers(base, s.Layers); err != nil {
		return nil, err
	}
	if m.relations, err = m.relationRules(s.Independent); err != nil {
		return nil, err
	}

	for i, rule := range s.Rules {
		if err := archrule.Verify(rule); err != nil {
			return nil, archrule.WrapConfig(err, "custom rule %d", i+1)
		}
	}
	m.custom = append([]archrule.Rule(nil), s.Rules...)

	return m, nil
}

func buildAdapters(base pkgpath.Prefix, s AdaptersSpec) (*Adapters, error) {
	if s.Base == "" {
		return nil, archrule.ErrConfig("adapters: base name is required")
	}
	layerBase, err := pkgpath.Join(base, s.Base)
	if err != nil {
		return nil, archrule.WrapConfig(err, "adapters")
	}
	a := &Adapters{base: layerBase}
	if a.incoming, err = qualifyAll(layerBase, s.Incoming, "incoming adapter"); err != nil {
		return nil, err
	}
	if a.outgoing, err = qualifyAll(layerBase, s.Outgoing, "outgoing adapter"); err != nil {
		return nil, err
	}
	if err := checkDisjoint("adapter", a.Packages()); err != nil {
		return nil, err
	}
	return a, nil
}

func buildApplication(base pkgpath.Prefix, s ApplicationSpec) (*Application, error) {
	if s.Base == "" {
		return nil, archrule.ErrConfig("application: base name is required")
	}
	layerBase, err := pkgpath.Join(base, s.Base)
	if err != nil {
		return nil, archrule.WrapConfig(err, "application")
	}
	app := &Application{base: layerBase}
	if app.services, err = qualifyAll(layerBase, s.Services, "service"); err != nil {
		return nil, err
	}
	if app.incomingPorts, err = qualifyAll(layerBase, s.IncomingPorts, "incoming port"); err != nil {
		return nil, err
	}
	if app.outgoingPorts, err = qualifyAll(layerBase, s.OutgoingPorts, "outgoing port"); err != nil {
		return nil, err
	}
	ports := append(append([]pkgpath.Prefix(nil), app.incomingPorts...), app.outgoingPorts...)
	if err := checkDisjoint("port", ports); err != nil {
		return nil, err
	}
	return app, nil
}

func qualifyAll(base pkgpath.Prefix, names []string, what string) ([]pkgpath.Prefix, error) {
	out := make([]pkgpath.Prefix, 0, len(names))
	for _, name := range names {
		p, err := pkgpath.Join(base, name)
		if err != nil {
			return nil, archrule.WrapConfig(err, "%s %q", what, name)
		}
		out = append(out, p)
	}
	return out, nil
}

// checkDisjoint rejects duplicated or nested prefixes within one group.
// Pairwise independence checks are meaningless between overlapping packages.
func checkDisjoint(what string, prefixes []pkgpath.Prefix) error {
	for i, a := range prefixes {
		for _, b := range prefixes[i+1:] {
			switch {
			case a == b:
				return archrule.ErrConfig("%s %s declared twice", what, a)
			case pkgpath.Contains(a, b), pkgpath.Contains(b, a):
				return archrule.ErrConfig("%s packages %s and %s overlap", what, a, b)
			}
		}
	}
	return nil
}
