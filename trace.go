package main

import (
	"fmt"
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/spf13/cobra"

	"github.com/df07/go-nearfield-flow/pkg/export"
	"github.com/df07/go-nearfield-flow/pkg/flow"
	"github.com/df07/go-nearfield-flow/pkg/scene"
)

func newTraceCmd(root *rootOptions) *cobra.Command {
	var (
		pf       plotFlags
		output   string
		vertices bool
		physical bool
	)

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Trace power-flow lines and write them as GeoJSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := root.logger()
			s, err := root.buildScene(cmd, &pf)
			if err != nil {
				return err
			}

			opts := export.Options{Points: vertices}
			if physical {
				opts.Scale = s.Scale()
			}

			var fc *geojson.FeatureCollection
			if s.Config.Plot.FixedStep {
				results, err := s.TraceFixedStep(cmd.Context(), logger)
				if err != nil {
					return err
				}
				logger.Info("fixed-step lines traced", "lines", len(scene.PlanarLines(results)), "seeds", len(results))
				fc = export.PlanarStreamlines(s.Config.PlotPlane(), results, opts)
			} else {
				results, err := s.Trace(cmd.Context(), logger)
				if err != nil {
					return err
				}
				sum := flow.Summarize(results)
				logger.Info("bundle traced",
					"lines", sum.Lines, "failed", sum.Failed, "capped", sum.Capped,
					"points", sum.Points, "refinements", sum.Refinements)
				fc = export.Streamlines(results, opts)
			}

			if output == "" || output == "-" {
				return export.Write(cmd.OutOrStdout(), fc)
			}
			return writeFile(output, fc)
		},
	}

	pf.register(cmd)
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "-", "GeoJSON file, - for stdout")
	f.BoolVar(&vertices, "vertices", false, "add a point feature per vertex")
	f.BoolVar(&physical, "physical", false, "write coordinates in physical units instead of size parameters")
	return cmd
}

// writeFile writes fc to path, reporting a failed close when the write
// itself succeeded.
func writeFile(path string, fc *geojson.FeatureCollection) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()
	return export.Write(f, fc)
}
