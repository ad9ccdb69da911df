package archrule

import (
	"context"
	"errors"
	"fmt"

	"hexarch/pkg/depgraph"
	"hexarch/pkg/pkgpath"
)

// checkNoImports fails with a *ViolationError when any package under from
// imports a package under to. Every package is visited; each distinct
// (importer, imported) pair is reported once, at its first position.
func checkNoImports(g *depgraph.Graph, from, to pkgpath.Prefix) error {
	var details []string
	for _, pkg := range g.PackagesIn(from) {
		for _, imp := range pkg.ImportsUnder(to) {
			if imp.Path == pkg.Path {
				continue
			}
			details = append(details, describeEdge(pkg.Path, imp))
		}
	}
	if len(details) == 0 {
		return nil
	}
	return &ViolationError{Rule: fmt.Sprintf("no imports from %s into %s", from, to), Details: details}
}

// checkNotEmpty re-imports prefix and fails when no package is found there.
// Provider failures are returned as they are.
func checkNotEmpty(ctx context.Context, g *depgraph.Graph, prefix pkgpath.Prefix) error {
	fresh, err := g.Rescan(ctx, prefix)
	if err != nil {
		return err
	}
	if len(fresh.PackagesIn(prefix)) > 0 {
		return nil
	}
	return &ViolationError{
		Rule:    fmt.Sprintf("%s is not empty", prefix),
		Details: []string{fmt.Sprintf("no Go packages found in %s", prefix.Pattern())},
	}
}

// fromCheck converts the outcome of a check into a Result. A *ViolationError
// becomes a Failure with one message per detail, prefixed by head. Any other
// error is returned unchanged.
func fromCheck(head string, err error) (Result, error) {
	if err == nil {
		return Success(), nil
	}
	var verr *ViolationError
	if !errors.As(err, &verr) {
		return Result{}, err
	}
	out := make([]string, 0, len(verr.Details))
	for _, d := range verr.Details {
		out = append(out, head+": "+d)
	}
	return Failure(out...), nil
}

func describeEdge(from string, imp depgraph.Import) string {
	switch {
	case imp.File != "" && imp.Line > 0:
		return fmt.Sprintf("%s imports %s (%s:%d)", from, imp.Path, imp.File, imp.Line)
	case imp.File != "":
		return fmt.Sprintf("%s imports %s (%s)", from, imp.Path, imp.File)
	default:
		return fmt.Sprintf("%s imports %s", from, imp.Path)
	}
}
