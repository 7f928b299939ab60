package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/df07/go-nearfield-flow/pkg/field"
)

func newEfficiencyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "efficiency",
		Short: "Print size parameters and quasi-static efficiencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			particle, err := cfg.Particle()
			if err != nil {
				return err
			}
			qs, err := field.NewQuasiStatic(particle)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "layer\tmaterial\tx\tm\n")
			for i, l := range particle.Layers {
				fmt.Fprintf(w, "%d\t%s\t%.6g\t%.6g\n", i, cfg.Layers[i].Material, l.X, l.M)
			}
			q := qs.Efficiencies()
			fmt.Fprintf(w, "\nQext\t%.6g\n", q.Qext)
			fmt.Fprintf(w, "Qsca\t%.6g\n", q.Qsca)
			fmt.Fprintf(w, "Qabs\t%.6g\n", q.Qabs)
			fmt.Fprintf(w, "terms\t%d\n", particle.Terms())
			return w.Flush()
		},
	}
}
