// Package depgraph models a Go module as a package-level import graph.
//
// A Graph is immutable once built. It is produced by an Importer (see the
// srcscan and golist subpackages) or assembled in memory with a Builder.
package depgraph

import (
	"context"
	"errors"
	"sort"

	"hexarch/pkg/pkgpath"
)

// Import is one import edge leaving a package.
type Import struct {
	Path string
	File string
	Line int
}

// Package is a single Go package and the packages it imports.
type Package struct {
	Path    string
	Name    string
	Dir     string
	Files   []string
	Imports []Import
}

// ImportPaths returns the distinct import paths of the package in first-seen
// order.
func (p *Package) ImportPaths() []string {
	seen := make(map[string]struct{}, len(p.Imports))
	out := make([]string, 0, len(p.Imports))
	for _, imp := range p.Imports {
		if _, ok := seen[imp.Path]; ok {
			continue
		}
		seen[imp.Path] = struct{}{}
		out = append(out, imp.Path)
	}
	return out
}

// ImportsUnder returns the first import edge of every distinct imported path
// that lies within prefix.
func (p *Package) ImportsUnder(prefix pkgpath.Prefix) []Import {
	seen := make(map[string]struct{})
	var out []Import
	for _, imp := range p.Imports {
		if !pkgpath.Matches(imp.Path, prefix) {
			continue
		}
		if _, ok := seen[imp.Path]; ok {
			continue
		}
		seen[imp.Path] = struct{}{}
		out = append(out, imp)
	}
	return out
}

// Graph is an immutable set of packages keyed by import path.
type Graph struct {
	module   string
	packages []*Package
	byPath   map[string]*Package
	source   Importer
	scoped   []pkgpath.Prefix
}

func newGraph(module string, pkgs []*Package, source Importer, scoped []pkgpath.Prefix) *Graph {
	sorted := make([]*Package, len(pkgs))
	copy(sorted, pkgs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	byPath := make(map[string]*Package, len(sorted))
	for _, p := range sorted {
		byPath[p.Path] = p
	}
	return &Graph{
		module:   module,
		packages: sorted,
		byPath:   byPath,
		source:   source,
		scoped:   scoped,
	}
}

// New returns a graph over pkgs. source, when non-nil, is used by Rescan to
// re-import narrower scopes.
func New(module string, pkgs []*Package, source Importer, prefixes ...pkgpath.Prefix) *Graph {
	return newGraph(module, pkgs, source, prefixes)
}

// Module returns the module path the graph was read from, if known.
func (g *Graph) Module() string {
	return g.module
}

// Prefixes returns the prefixes the graph was imported for. Empty means the
// whole module.
func (g *Graph) Prefixes() []pkgpath.Prefix {
	return append([]pkgpath.Prefix(nil), g.scoped...)
}

// Len returns the number of packages.
func (g *Graph) Len() int {
	return len(g.packages)
}

// Packages returns all packages sorted by import path.
func (g *Graph) Packages() []*Package {
	return append([]*Package(nil), g.packages...)
}

// Package returns the package with the given import path.
func (g *Graph) Package(path string) (*Package, bool) {
	p, ok := g.byPath[path]
	return p, ok
}

// PackagesIn returns every package matching prefix.
func (g *Graph) PackagesIn(prefix pkgpath.Prefix) []*Package {
	var out []*Package
	for _, p := range g.packages {
		if pkgpath.Matches(p.Path, prefix) {
			out = append(out, p)
		}
	}
	return out
}

// Scope returns a graph restricted to packages matching any of prefixes.
// Import edges are kept as is, including edges leaving the scope.
func (g *Graph) Scope(prefixes ...pkgpath.Prefix) *Graph {
	var kept []*Package
	for _, p := range g.packages {
		for _, prefix := range prefixes {
			if pkgpath.Matches(p.Path, prefix) {
				kept = append(kept, p)
				break
			}
		}
	}
	return newGraph(g.module, kept, g.source, prefixes)
}

// Rescan imports a fresh graph limited to prefixes. Graphs with an Importer
// ask it again, so the answer reflects what is on disk now; in-memory graphs
// narrow themselves with Scope. A provider that finds nothing yields an empty
// graph rather than an error.
func (g *Graph) Rescan(ctx context.Context, prefixes ...pkgpath.Prefix) (*Graph, error) {
	if g.source == nil {
		return g.Scope(prefixes...), nil
	}
	fresh, err := g.source.Import(ctx, prefixes...)
	if errors.Is(err, ErrNoPackages) {
		return newGraph(g.module, nil, g.source, prefixes), nil
	}
	if err != nil {
		return nil, err
	}
	return fresh, nil
}

// EdgeCount returns the number of distinct package-to-package import edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, p := range g.packages {
		n += len(p.ImportPaths())
	}
	return n
}
