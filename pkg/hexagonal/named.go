package hexagonal

import (
	"slices"
	"strings"

	"hexarch/pkg/archrule"
	"hexarch/pkg/pkgpath"
)

// Built-in layer names. Named layers may refer to them in their dependency
// lists but may not reuse them.
const (
	LayerAdapters      = "adapters"
	LayerApplication   = "application"
	LayerDomain        = "domain"
	LayerConfiguration = "configuration"
)

var builtinLayers = []string{LayerAdapters, LayerApplication, LayerDomain, LayerConfiguration}

// LayerSpec declares a named layer. Package is relative to the base and
// defaults to Name; SubPackages are relative to the layer package.
//
// CannotDependOn lists layers the layer must not import. A non-empty
// CanDependOn turns the declaration into an allow list: every other declared
// layer is denied as well.
type LayerSpec struct {
	Name           string
	Package        string
	SubPackages    []string
	CanDependOn    []string
	CannotDependOn []string
}

// NamedLayer is a validated named layer.
type NamedLayer struct {
	name           string
	base           pkgpath.Prefix
	subPackages    []pkgpath.Prefix
	canDependOn    []string
	cannotDependOn []string
}

// Name returns the layer name.
func (l *NamedLayer) Name() string { return l.name }

// Base returns the layer's root package.
func (l *NamedLayer) Base() pkgpath.Prefix { return l.base }

// SubPackages returns the sub-packages that must not be empty.
func (l *NamedLayer) SubPackages() []pkgpath.Prefix { return clonePrefixes(l.subPackages) }

// Packages returns the root package followed by the sub-packages.
func (l *NamedLayer) Packages() []pkgpath.Prefix {
	return append([]pkgpath.Prefix{l.base}, l.subPackages...)
}

// CanDependOn returns the allowed layer names.
func (l *NamedLayer) CanDependOn() []string { return slices.Clone(l.canDependOn) }

// CannotDependOn returns the forbidden layer names.
func (l *NamedLayer) CannotDependOn() []string { return slices.Clone(l.cannotDependOn) }

func buildNamedLayers(base pkgpath.Prefix, specs []LayerSpec) ([]*NamedLayer, error) {
	layers := make([]*NamedLayer, 0, len(specs))
	roots := make([]pkgpath.Prefix, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))

	for i, s := range specs {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, archrule.ErrConfig("layer %d: name is required", i+1)
		}
		if slices.Contains(builtinLayers, name) {
			return nil, archrule.ErrConfig("layer %s: name is reserved for the built-in layer", name)
		}
		if _, dup := seen[name]; dup {
			return nil, archrule.ErrConfig("layer %s declared more than once", name)
		}
		seen[name] = struct{}{}

		rel := s.Package
		if rel == "" {
			rel = name
		}
		root, err := pkgpath.Join(base, rel)
		if err != nil {
			return nil, archrule.WrapConfig(err, "layer %s", name)
		}
		subs, err := qualifyAll(root, s.SubPackages, "layer "+name+" sub-package")
		if err != nil {
			return nil, err
		}

		for _, target := range append(slices.Clone(s.CanDependOn), s.CannotDependOn...) {
			if target == name {
				return nil, archrule.ErrConfig("layer %s refers to itself", name)
			}
		}
		for _, target := range s.CannotDependOn {
			if slices.Contains(s.CanDependOn, target) {
				return nil, archrule.ErrConfig("layer %s: %s is both allowed and forbidden", name, target)
			}
		}

		layers = append(layers, &NamedLayer{
			name:           name,
			base:           root,
			subPackages:    subs,
			canDependOn:    slices.Clone(s.CanDependOn),
			cannotDependOn: slices.Clone(s.CannotDependOn),
		})
		roots = append(roots, root)
	}

	if err := checkDisjoint("layer", roots); err != nil {
		return nil, err
	}
	return layers, nil
}

// packagesOf resolves a layer name. Built-in layers resolve to their base
// package (domain to all of its packages), named layers to their root.
func (m *Model) packagesOf(name string) ([]pkgpath.Prefix, bool) {
	switch name {
	case LayerDomain:
		return m.domain, len(m.domain) > 0
	case LayerAdapters:
		if m.adapters != nil {
			return []pkgpath.Prefix{m.adapters.base}, true
		}
		return nil, false
	case LayerApplication:
		if m.application != nil {
			return []pkgpath.Prefix{m.application.base}, true
		}
		return nil, false
	case LayerConfiguration:
		if m.configuration != "" {
			return []pkgpath.Prefix{m.configuration}, true
		}
		return nil, false
	}
	for _, l := range m.layers {
		if l.name == name {
			return []pkgpath.Prefix{l.base}, true
		}
	}
	return nil, false
}

// layerNames lists every declared layer: built-in ones first, then named
// layers in declaration order.
func (m *Model) layerNames() []string {
	var names []string
	for _, name := range builtinLayers {
		if _, ok := m.packagesOf(name); ok {
			names = append(names, name)
		}
	}
	for _, l := range m.layers {
		names = append(names, l.name)
	}
	return names
}

// relationRules derives, per named layer in order, its deny rules and its
// non-empty rules, followed by one independence rule per group.
func (m *Model) relationRules(independent [][]string) ([]archrule.Rule, error) {
	var rules []archrule.Rule
	for _, l := range m.layers {
		denied := make(map[pkgpath.Prefix]struct{})
		deny := func(to pkgpath.Prefix) {
			if _, ok := denied[to]; ok {
				return
			}
			denied[to] = struct{}{}
			rules = append(rules, archrule.DenyDependency(l.base, to))
		}

		for _, target := range l.cannotDependOn {
			pkgs, ok := m.packagesOf(target)
			if !ok {
				return nil, archrule.ErrConfig("layer %s: unknown layer %s", l.name, target)
			}
			for _, p := range pkgs {
				if pkgpath.Contains(l.base, p) || pkgpath.Contains(p, l.base) {
					return nil, archrule.ErrConfig("layer %s overlaps %s and cannot be kept apart from it", l.name, p)
				}
				deny(p)
			}
		}

		if len(l.canDependOn) > 0 {
			for _, target := range l.canDependOn {
				if _, ok := m.packagesOf(target); !ok {
					return nil, archrule.ErrConfig("layer %s: unknown layer %s", l.name, target)
				}
			}
			for _, other := range m.layerNames() {
				if other == l.name || slices.Contains(l.canDependOn, other) {
					continue
				}
				pkgs, _ := m.packagesOf(other)
				for _, p := range pkgs {
					if !pkgpath.Contains(l.base, p) && !pkgpath.Contains(p, l.base) {
						deny(p)
					}
				}
			}
		}

		for _, p := range l.Packages() {
			rules = append(rules, archrule.DenyEmptyPackage(p))
		}
	}

	for i, group := range independent {
		prefixes := make([]pkgpath.Prefix, 0, len(group))
		for _, name := range group {
			pkgs, ok := m.packagesOf(name)
			if !ok {
				return nil, archrule.ErrConfig("independent group %d: unknown layer %s", i+1, name)
			}
			if len(pkgs) != 1 {
				return nil, archrule.ErrConfig("independent group %d: layer %s has %d packages, want one", i+1, name, len(pkgs))
			}
			prefixes = append(prefixes, pkgs[0])
		}
		rule := archrule.IndependentPackages(prefixes)
		if err := archrule.Verify(rule); err != nil {
			return nil, archrule.WrapConfig(err, "independent group %d", i+1)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
