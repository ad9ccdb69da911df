package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hexarch/pkg/astdb/governance"
)

func newQueryCmd(a *app) *cobra.Command {
	var reuse bool

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a SQL query against the import graph index",
		Long: "Indexes the module (see index) and runs one query. Tables: packages,\n" +
			"files, imports, run_meta.",
		Example: `  hexarch query "SELECT import_path, COUNT(*) AS n FROM imports GROUP BY 1 ORDER BY n DESC LIMIT 5"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := a.buildIndex(cmd.Context(), reuse)
			if err != nil {
				return err
			}
			rows, err := governance.NewRunner(path, a.logger).AdhocQuery(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				return printJSON(out, rows)
			}
			for _, row := range rows {
				_, _ = fmt.Fprintln(out, formatRow(row))
			}
			_, _ = fmt.Fprintf(out, "(%d rows)\n", len(rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reuse, "reuse", true, "keep an index built from unchanged sources")
	return cmd
}
