package depgraph

import (
	"context"

	"hexarch/pkg/pkgpath"
)

// Importer produces a package graph for the given prefixes. With no prefixes
// it imports everything it can see.
//
// Implementations return a *ProviderError for I/O and parse failures, and
// wrap ErrNoPackages when nothing matched.
type Importer interface {
	Import(ctx context.Context, prefixes ...pkgpath.Prefix) (*Graph, error)
}

// ImporterFunc adapts a function to the Importer interface.
type ImporterFunc func(ctx context.Context, prefixes ...pkgpath.Prefix) (*Graph, error)

// Import calls f.
func (f ImporterFunc) Import(ctx context.Context, prefixes ...pkgpath.Prefix) (*Graph, error) {
	return f(ctx, prefixes...)
}
