package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hexarch/internal/db"
	"hexarch/pkg/archrule"
	"hexarch/pkg/depgraph"
	"hexarch/pkg/hexagonal"
)

type checkReport struct {
	OK         bool     `json:"ok"`
	Violations []string `json:"violations"`
	Rules      int      `json:"rules"`
	Packages   int      `json:"packages"`
	RunID      string   `json:"run_id,omitempty"`
}

func newCheckCmd(a *app) *cobra.Command {
	var record bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the module against its declared architecture",
		Long: "Imports the module, evaluates every layer rule and custom rule of the\n" +
			"declaration and prints all violations. Exits 1 when any rule is violated.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			start := time.Now()

			_, model, err := a.loadModel()
			if err != nil {
				return err
			}
			g, err := a.importModule(ctx)
			if err != nil {
				return err
			}
			res, err := a.check(cmd, model, g)
			if err != nil {
				return err
			}

			report := checkReport{
				OK:         res.OK(),
				Violations: nonNil(res.Violations()),
				Rules:      len(model.Rules()),
				Packages:   g.Len(),
			}
			a.logger.Debug("check finished", "ok", report.OK, "violations", len(report.Violations), "duration", time.Since(start))

			if record {
				id, err := a.record(cmd, g, report, time.Since(start), start)
				if err != nil {
					return err
				}
				report.RunID = id
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				if err := printJSON(out, report); err != nil {
					return err
				}
			} else {
				for _, v := range report.Violations {
					_, _ = fmt.Fprintln(out, v)
				}
				if report.OK {
					status(out, true, "%s: ok (%d rules, %d packages)", model.Base(), report.Rules, report.Packages)
				} else {
					status(out, false, "\n%d violation(s) found (%d rules, %d packages)", len(report.Violations), report.Rules, report.Packages)
				}
			}
			if !report.OK {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&record, "record", false, "store the run in the history database")
	return cmd
}

func (a *app) check(cmd *cobra.Command, model *hexagonal.Model, g *depgraph.Graph) (archrule.Result, error) {
	if a.cfg.Workers > 1 {
		return model.CheckConcurrent(cmd.Context(), g, a.cfg.Workers)
	}
	return model.Check(cmd.Context(), g)
}

func (a *app) record(cmd *cobra.Command, g *depgraph.Graph, report checkReport, elapsed time.Duration, start time.Time) (string, error) {
	store, err := db.OpenHistory(cmd.Context(), a.path(a.cfg.HistoryDB), a.logger)
	if err != nil {
		return "", err
	}
	defer func() { _ = store.Close() }()

	run, err := store.Record(cmd.Context(), db.Run{
		StartedAt:    start,
		Module:       g.Module(),
		ConfigPath:   a.cfg.ConfigPath,
		OK:           report.OK,
		RuleCount:    report.Rules,
		PackageCount: report.Packages,
		Duration:     elapsed,
		Violations:   report.Violations,
	})
	if err != nil {
		return "", err
	}
	a.logger.Info("recorded check run", "id", run.ID)
	return run.ID, nil
}
