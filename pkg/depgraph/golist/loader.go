// Package golist builds a depgraph.Graph through golang.org/x/tools/go/packages,
// so build tags, GOOS/GOARCH and module resolution follow the go command.
package golist

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/tools/go/packages"

	"hexarch/pkg/depgraph"
	"hexarch/pkg/depgraph/srcscan"
	"hexarch/pkg/pkgpath"
)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedImports | packages.NeedModule

// Options controls loading.
type Options struct {
	Dir          string
	IncludeTests bool
	BuildFlags   []string
	Env          []string
	Logger       *slog.Logger
}

// Loader imports packages with the go command.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// New returns a loader rooted at opts.Dir.
func New(opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{opts: opts, logger: logger}
}

// Import loads prefix/... for every prefix, or ./... when none are given.
func (l *Loader) Import(ctx context.Context, prefixes ...pkgpath.Prefix) (*depgraph.Graph, error) {
	start := time.Now()
	patterns := []string{"./..."}
	if len(prefixes) > 0 {
		patterns = patterns[:0]
		for _, p := range prefixes {
			patterns = append(patterns, p.Pattern())
		}
	}

	cfg := &packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        l.opts.Dir,
		Tests:      l.opts.IncludeTests,
		BuildFlags: l.opts.BuildFlags,
		Env:        l.opts.Env,
	}
	loaded, err := packages.Load(cfg, patterns...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, depgraph.ErrProvider("load", patterns, err)
	}

	var module string
	byPath := make(map[string]*depgraph.Package)
	var order []string
	var loadErrs []error
	for _, lp := range loaded {
		for _, e := range lp.Errors {
			// "matched no packages" is reported per pattern and is not fatal.
			if strings.Contains(e.Msg, "matched no packages") {
				continue
			}
			loadErrs = append(loadErrs, fmt.Errorf("%s: %s", lp.PkgPath, e.Msg))
		}
		if lp.PkgPath == "" || len(lp.GoFiles) == 0 || strings.HasSuffix(lp.PkgPath, ".test") {
			continue
		}
		if module == "" && lp.Module != nil {
			module = lp.Module.Path
		}
		pkg, ok := byPath[lp.PkgPath]
		if !ok {
			pkg = &depgraph.Package{
				Path: lp.PkgPath,
				Name: strings.TrimSuffix(lp.Name, "_test"),
				Dir:  l.relDir(lp),
			}
			byPath[lp.PkgPath] = pkg
			order = append(order, lp.PkgPath)
		}
		if err := l.merge(pkg, lp); err != nil {
			return nil, depgraph.ErrProvider("load", patterns, err)
		}
	}
	if len(loadErrs) > 0 {
		return nil, depgraph.ErrProvider("load", patterns, errors.Join(loadErrs...))
	}
	if len(order) == 0 {
		return nil, depgraph.ErrProvider("load", patterns, depgraph.ErrNoPackages)
	}

	pkgs := make([]*depgraph.Package, 0, len(order))
	for _, p := range order {
		pkgs = append(pkgs, byPath[p])
	}

	l.logger.Debug("loaded packages",
		"patterns", patterns,
		"packages", len(pkgs),
		"duration", time.Since(start))

	return depgraph.New(module, pkgs, l, prefixes...), nil
}

// merge adds the files of lp to pkg. go/packages reports imports per package
// without positions, so each file's import block is read again; only imports
// the go command resolved are kept.
func (l *Loader) merge(pkg *depgraph.Package, lp *packages.Package) error {
	fset := token.NewFileSet()
	files := append([]string(nil), lp.GoFiles...)
	sort.Strings(files)
	for _, f := range files {
		rel := l.relFile(f)
		if slices.Contains(pkg.Files, rel) {
			continue
		}
		_, imports, err := srcscan.ReadImports(fset, f, rel)
		if err != nil {
			return err
		}
		pkg.Files = append(pkg.Files, rel)
		for _, imp := range imports {
			if _, ok := lp.Imports[imp.Path]; ok || imp.Path == "C" {
				pkg.Imports = append(pkg.Imports, imp)
			}
		}
	}
	return nil
}

func (l *Loader) relFile(abs string) string {
	root, err := filepath.Abs(l.dir())
	if err != nil {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func (l *Loader) relDir(lp *packages.Package) string {
	if len(lp.GoFiles) == 0 {
		return ""
	}
	return filepath.ToSlash(filepath.Dir(l.relFile(lp.GoFiles[0])))
}

func (l *Loader) dir() string {
	if l.opts.Dir == "" {
		return "."
	}
	return l.opts.Dir
}
