package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hexarch/internal/db"
)

type runView struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	Module     string    `json:"module"`
	ConfigPath string    `json:"config_path"`
	OK         bool      `json:"ok"`
	Violations int       `json:"violation_count"`
	Rules      int       `json:"rule_count"`
	Packages   int       `json:"package_count"`
	DurationMS int64     `json:"duration_ms"`
	Messages   []string  `json:"violations,omitempty"`
}

func viewRun(r db.Run) runView {
	return runView{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		Module:     r.Module,
		ConfigPath: r.ConfigPath,
		OK:         r.OK,
		Violations: r.ViolationCount,
		Rules:      r.RuleCount,
		Packages:   r.PackageCount,
		DurationMS: r.Duration.Milliseconds(),
		Messages:   r.Violations,
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded check runs",
		Long:  "Lists runs stored by check --record, newest first. With --run, prints one run and its violations.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := db.OpenHistory(cmd.Context(), a.path(a.cfg.HistoryDB), a.logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			if runID != "" {
				run, err := store.Get(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return printJSON(out, viewRun(run))
				}
				printRunLine(cmd, run)
				for _, v := range run.Violations {
					_, _ = fmt.Fprintf(out, "  %s\n", v)
				}
				return nil
			}

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				views := make([]runView, 0, len(runs))
				for _, r := range runs {
					views = append(views, viewRun(r))
				}
				return printJSON(out, views)
			}
			for _, r := range runs {
				printRunLine(cmd, r)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs (0 = all)")
	cmd.Flags().StringVar(&runID, "run", "", "show one run with its violations")
	return cmd
}

func printRunLine(cmd *cobra.Command, r db.Run) {
	state := "ok"
	if !r.OK {
		state = "FAIL"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-4s  %3d violations  %3d rules  %3d packages  %s\n",
		r.ID, r.StartedAt.Local().Format(time.DateTime), state, r.ViolationCount, r.RuleCount, r.PackageCount, r.Module)
}
