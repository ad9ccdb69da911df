package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hexarch/pkg/astdb"
)

type indexView struct {
	Path        string `json:"path"`
	Packages    int    `json:"packages"`
	Files       int    `json:"files"`
	Imports     int    `json:"imports"`
	Reused      bool   `json:"reused"`
	Reason      string `json:"reason"`
	Fingerprint string `json:"fingerprint"`
}

func newIndexCmd(a *app) *cobra.Command {
	var reuse bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Write the import graph to a DuckDB database",
		Long: "Writes packages, files and imports to the DuckDB index (HEXARCH_INDEX_DB).\n" +
			"With --reuse an index built from identical sources is kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, res, err := a.buildIndex(cmd.Context(), reuse)
			if err != nil {
				return err
			}
			view := indexView{
				Path:        path,
				Packages:    res.Packages,
				Files:       res.Files,
				Imports:     res.Imports,
				Reused:      res.Reused,
				Reason:      res.Reason,
				Fingerprint: res.Fingerprint,
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				return printJSON(out, view)
			}
			_, _ = fmt.Fprintf(out, "index: path=%s packages=%d files=%d imports=%d reused=%t reason=%q\n",
				view.Path, view.Packages, view.Files, view.Imports, view.Reused, view.Reason)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reuse, "reuse", true, "keep an index built from unchanged sources")
	return cmd
}

// buildIndex imports the module and writes it to the configured index.
func (a *app) buildIndex(ctx context.Context, reuse bool) (string, *astdb.Result, error) {
	g, err := a.importModule(ctx)
	if err != nil {
		return "", nil, err
	}
	path := a.path(a.cfg.IndexDB)
	res, err := astdb.Run(ctx, g, astdb.Options{DuckDBPath: path, Reuse: reuse})
	if err != nil {
		return "", nil, err
	}
	a.logger.Debug("graph indexed", "path", path, "reused", res.Reused, "reason", res.Reason)
	return path, res, nil
}
