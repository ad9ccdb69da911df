package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hexarch/pkg/pkgpath"
)

type layerView struct {
	Name     string   `json:"name"`
	Packages []string `json:"packages"`
}

type rulesView struct {
	Base   string      `json:"base"`
	Layers []layerView `json:"layers"`
	Rules  []string    `json:"rules"`
}

func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the declared layers and the rules derived from them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, model, err := a.loadModel()
			if err != nil {
				return err
			}

			view := rulesView{Base: model.Base().String(), Layers: []layerView{}, Rules: []string{}}
			for _, l := range model.Layers() {
				view.Layers = append(view.Layers, layerView{Name: l.Name, Packages: pkgpath.Strings(l.Packages)})
			}
			for _, r := range model.Rules() {
				view.Rules = append(view.Rules, r.String())
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				return printJSON(out, view)
			}
			_, _ = fmt.Fprintf(out, "base %s\n\nlayers:\n", view.Base)
			for _, l := range view.Layers {
				for _, p := range l.Packages {
					_, _ = fmt.Fprintf(out, "  %-28s %s\n", l.Name, p)
				}
			}
			_, _ = fmt.Fprintf(out, "\nrules (%d):\n", len(view.Rules))
			for i, r := range view.Rules {
				_, _ = fmt.Fprintf(out, "  %3d. %s\n", i+1, r)
			}
			return nil
		},
	}
}
