// Package srcscan builds a depgraph.Graph by parsing the import blocks of a
// module's Go files directly, without invoking the go command.
package srcscan

import (
	"context"
	"errors"
	"fmt"
	"go/build"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"

	"hexarch/pkg/depgraph"
	"hexarch/pkg/pkgpath"
)

// Options controls scanning.
type Options struct {
	// Dir is the module root, the directory holding go.mod.
	Dir string
	// IncludeTests adds _test.go files to the graph.
	IncludeTests bool
	// Workers bounds parallel parsing. Zero means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Scanner imports packages of one module from source.
type Scanner struct {
	root    string
	module  string
	opts    Options
	logger  *slog.Logger
	context build.Context
}

// New reads the module path from Dir/go.mod.
func New(opts Options) (*Scanner, error) {
	dir := opts.Dir
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, depgraph.ErrProvider("open module", nil, err)
	}
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return nil, depgraph.ErrProvider("open module", nil, err)
	}
	module := modfile.ModulePath(data)
	if module == "" {
		return nil, depgraph.ErrProvider("open module", nil, fmt.Errorf("%s/go.mod has no module directive", root))
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		root:    root,
		module:  module,
		opts:    opts,
		logger:  logger,
		context: build.Default,
	}, nil
}

// Module returns the module path declared in go.mod.
func (s *Scanner) Module() string {
	return s.module
}

// Root returns the absolute module directory.
func (s *Scanner) Root() string {
	return s.root
}

type sourceFile struct {
	abs     string
	rel     string
	pkgPath string
}

type parsedFile struct {
	pkgName string
	imports []depgraph.Import
	skip    bool
}

// Import scans every package of the module matching prefixes. With no
// prefixes the whole module is scanned.
func (s *Scanner) Import(ctx context.Context, prefixes ...pkgpath.Prefix) (*depgraph.Graph, error) {
	start := time.Now()
	patterns := patternsOf(prefixes)

	files, err := s.collect(prefixes)
	if err != nil {
		return nil, depgraph.ErrProvider("walk", patterns, err)
	}

	parsed := make([]parsedFile, len(files))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Workers)
	for i, f := range files {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			ok, err := s.context.MatchFile(filepath.Dir(f.abs), filepath.Base(f.abs))
			if err != nil {
				return fmt.Errorf("match %s: %w", f.rel, err)
			}
			if !ok {
				parsed[i] = parsedFile{skip: true}
				return nil
			}
			name, imports, err := ReadImports(token.NewFileSet(), f.abs, f.rel)
			if err != nil {
				return err
			}
			parsed[i] = parsedFile{pkgName: name, imports: imports}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, depgraph.ErrProvider("parse", patterns, err)
	}

	byPath := make(map[string]*depgraph.Package)
	var order []string
	for i, f := range files {
		pf := parsed[i]
		if pf.skip {
			continue
		}
		pkg, ok := byPath[f.pkgPath]
		if !ok {
			pkg = &depgraph.Package{
				Path: f.pkgPath,
				Name: strings.TrimSuffix(pf.pkgName, "_test"),
				Dir:  path.Dir(f.rel),
			}
			byPath[f.pkgPath] = pkg
			order = append(order, f.pkgPath)
		}
		pkg.Files = append(pkg.Files, f.rel)
		pkg.Imports = append(pkg.Imports, pf.imports...)
	}

	if len(order) == 0 {
		return nil, depgraph.ErrProvider("import", patterns, depgraph.ErrNoPackages)
	}

	pkgs := make([]*depgraph.Package, 0, len(order))
	for _, p := range order {
		pkgs = append(pkgs, byPath[p])
	}

	s.logger.Debug("scanned module sources",
		"module", s.module,
		"patterns", patterns,
		"files", len(files),
		"packages", len(pkgs),
		"duration", time.Since(start))

	return depgraph.New(s.module, pkgs, s, prefixes...), nil
}

// collect walks the module and returns the Go files of packages matching
// prefixes, sorted by path. Nested modules, vendor, testdata and directories
// starting with "." or "_" are skipped, as the go command does.
func (s *Scanner) collect(prefixes []pkgpath.Prefix) ([]sourceFile, error) {
	var out []sourceFile
	err := filepath.WalkDir(s.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == s.root {
				return nil
			}
			name := d.Name()
			if name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".go") {
			return nil
		}
		if !s.opts.IncludeTests && strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		pkgPath := s.importPath(path.Dir(rel))
		if !matchesAny(pkgPath, prefixes) {
			return nil
		}
		out = append(out, sourceFile{abs: p, rel: rel, pkgPath: pkgPath})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rel < out[j].rel })
	return out, nil
}

func (s *Scanner) importPath(relDir string) string {
	if relDir == "." || relDir == "" {
		return s.module
	}
	return s.module + "/" + relDir
}

// ReadImports parses the package clause and imports of one file. rel is the
// name recorded on each import edge.
func ReadImports(fset *token.FileSet, filename, rel string) (string, []depgraph.Import, error) {
	f, err := parser.ParseFile(fset, filename, nil, parser.ImportsOnly)
	if err != nil {
		return "", nil, fmt.Errorf("parse %s: %w", rel, err)
	}
	imports := make([]depgraph.Import, 0, len(f.Imports))
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return "", nil, fmt.Errorf("parse %s: bad import %s: %w", rel, spec.Path.Value, err)
		}
		imports = append(imports, depgraph.Import{
			Path: p,
			File: rel,
			Line: fset.Position(spec.Pos()).Line,
		})
	}
	return f.Name.Name, imports, nil
}

func matchesAny(pkgPath string, prefixes []pkgpath.Prefix) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if pkgpath.Matches(pkgPath, p) {
			return true
		}
	}
	return false
}

func patternsOf(prefixes []pkgpath.Prefix) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, p.Pattern())
	}
	return out
}
