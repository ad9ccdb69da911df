package depgraph

import (
	"context"
	"path"
	"slices"

	"hexarch/pkg/pkgpath"
)

// Builder assembles a graph in memory.
type Builder struct {
	module   string
	packages map[string]*Package
	order    []string
}

// NewBuilder returns a builder for a module.
func NewBuilder(module string) *Builder {
	return &Builder{module: module, packages: make(map[string]*Package)}
}

// Package declares a package, creating it if needed.
func (b *Builder) Package(pkgPath string) *Builder {
	b.ensure(pkgPath)
	return b
}

// Import records an edge from -> to. The importing package is declared if
// missing; the imported one stays external unless declared separately.
func (b *Builder) Import(from, to string) *Builder {
	return b.ImportAt(from, to, "", 0)
}

// ImportAt records an edge with a source position.
func (b *Builder) ImportAt(from, to, file string, line int) *Builder {
	p := b.ensure(from)
	p.Imports = append(p.Imports, Import{Path: to, File: file, Line: line})
	if file != "" && !slices.Contains(p.Files, file) {
		p.Files = append(p.Files, file)
	}
	return b
}

// Add inserts a fully formed package, replacing any previous declaration.
func (b *Builder) Add(p *Package) *Builder {
	if _, ok := b.packages[p.Path]; !ok {
		b.order = append(b.order, p.Path)
	}
	b.packages[p.Path] = p
	return b
}

// Build returns the graph. The builder may continue to be used; later changes
// do not affect graphs already built.
func (b *Builder) Build() *Graph {
	pkgs := make([]*Package, 0, len(b.order))
	for _, p := range b.order {
		src := b.packages[p]
		cp := *src
		cp.Files = append([]string(nil), src.Files...)
		cp.Imports = append([]Import(nil), src.Imports...)
		pkgs = append(pkgs, &cp)
	}
	return newGraph(b.module, pkgs, nil, nil)
}

// Importer returns an Importer backed by the builder's current state. Graphs
// it returns rescan through the builder, so packages added later become
// visible to Rescan.
func (b *Builder) Importer() Importer {
	var imp ImporterFunc
	imp = func(_ context.Context, prefixes ...pkgpath.Prefix) (*Graph, error) {
		g := b.Build()
		g.source = imp
		if len(prefixes) == 0 {
			return g, nil
		}
		scoped := g.Scope(prefixes...)
		if scoped.Len() == 0 {
			return nil, ErrProvider("import", pkgpath.Strings(prefixes), ErrNoPackages)
		}
		return scoped, nil
	}
	return imp
}

func (b *Builder) ensure(pkgPath string) *Package {
	if p, ok := b.packages[pkgPath]; ok {
		return p
	}
	p := &Package{Path: pkgPath, Name: path.Base(pkgPath)}
	b.packages[pkgPath] = p
	b.order = append(b.order, pkgPath)
	return p
}
