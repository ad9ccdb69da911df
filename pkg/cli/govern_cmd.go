package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hexarch/pkg/astdb/governance"
)

type governView struct {
	OK         bool                   `json:"ok"`
	Violations []governance.Violation `json:"violations"`
}

func newGovernCmd(a *app) *cobra.Command {
	var (
		ruleIDs []string
		list    bool
		reuse   bool
	)

	cmd := &cobra.Command{
		Use:   "govern",
		Short: "Run SQL governance rules against the import graph index",
		Long: "Runs the built-in governance rules and the queries of the architecture\n" +
			"declaration, when one exists. Exits 1 when any rule reports a row.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			file, err := a.optionalConfig()
			if err != nil {
				return err
			}
			path, _, err := a.buildIndex(ctx, reuse)
			if err != nil {
				return err
			}

			runner := governance.NewRunner(path, a.logger)
			if err := runner.EnsureDefaultRules(ctx); err != nil {
				return err
			}
			if file != nil {
				if err := runner.UpsertRules(ctx, file.GovernanceRules()...); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if list {
				rules, err := runner.ListRules(ctx)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return printJSON(out, rules)
				}
				for _, r := range rules {
					state := "enabled"
					if !r.Enabled {
						state = "disabled"
					}
					_, _ = fmt.Fprintf(out, "%-32s %-10s %-8s %s\n", r.ID, r.Category, state, r.Description)
				}
				return nil
			}

			violations, err := runner.Run(ctx, governance.RunOptions{RuleIDs: ruleIDs})
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				if err := printJSON(out, governView{OK: len(violations) == 0, Violations: violations}); err != nil {
					return err
				}
			} else {
				for _, v := range violations {
					_, _ = fmt.Fprintln(out, v.String())
				}
				if len(violations) == 0 {
					status(out, true, "governance: ok (0 violations)")
				} else {
					status(out, false, "\n%d governance violation(s) found", len(violations))
				}
			}
			if len(violations) > 0 {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&ruleIDs, "rule", nil, "only run these rule ids (repeatable)")
	cmd.Flags().BoolVar(&list, "list", false, "list rules instead of running them")
	cmd.Flags().BoolVar(&reuse, "reuse", true, "keep an index built from unchanged sources")
	return cmd
}
