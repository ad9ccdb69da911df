package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hexarch/pkg/depgraph"
	"hexarch/pkg/pkgpath"
)

type importView struct {
	Path string `json:"path"`
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

type packageView struct {
	Path    string       `json:"path"`
	Name    string       `json:"name"`
	Dir     string       `json:"dir"`
	Files   []string     `json:"files"`
	Imports []importView `json:"imports"`
}

func newGraphCmd(a *app) *cobra.Command {
	var internal bool

	cmd := &cobra.Command{
		Use:   "graph [prefix...]",
		Short: "Print the module's import graph",
		Long:  "Prints every package of the module, or of the given prefixes, with its imports and their positions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			prefixes := make([]pkgpath.Prefix, 0, len(args))
			for _, arg := range args {
				p, err := pkgpath.Parse(arg)
				if err != nil {
					return err
				}
				prefixes = append(prefixes, p)
			}

			imp, err := a.importer()
			if err != nil {
				return err
			}
			g, err := imp.Import(cmd.Context(), prefixes...)
			if err != nil {
				return err
			}

			views := make([]packageView, 0, g.Len())
			for _, pkg := range g.Packages() {
				views = append(views, viewPackage(g, pkg, internal))
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				return printJSON(out, views)
			}
			for _, v := range views {
				_, _ = fmt.Fprintln(out, v.Path)
				for _, edge := range v.Imports {
					if edge.File != "" {
						_, _ = fmt.Fprintf(out, "  -> %s (%s:%d)\n", edge.Path, edge.File, edge.Line)
					} else {
						_, _ = fmt.Fprintf(out, "  -> %s\n", edge.Path)
					}
				}
			}
			_, _ = fmt.Fprintf(out, "\n%d packages, %d import edges\n", g.Len(), g.EdgeCount())
			return nil
		},
	}
	cmd.Flags().BoolVar(&internal, "internal", false, "only show imports of packages inside the module")
	return cmd
}

func viewPackage(g *depgraph.Graph, pkg *depgraph.Package, internalOnly bool) packageView {
	v := packageView{
		Path:    pkg.Path,
		Name:    pkg.Name,
		Dir:     pkg.Dir,
		Files:   nonNil(pkg.Files),
		Imports: []importView{},
	}
	module := pkgpath.Prefix(g.Module())
	for _, imp := range pkg.Imports {
		if internalOnly && !pkgpath.Matches(imp.Path, module) {
			continue
		}
		v.Imports = append(v.Imports, importView{Path: imp.Path, File: imp.File, Line: imp.Line})
	}
	return v
}
