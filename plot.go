package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newPlotCmd(root *rootOptions) *cobra.Command {
	var (
		pf     plotFlags
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render a field map with power-flow lines to PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := root.logger()
			s, err := root.buildScene(cmd, &pf)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			start := time.Now()
			fig, err := s.Figure(cmd.Context(), logger)
			if err != nil {
				return err
			}
			filename := filepath.Join(outDir, s.FileName())
			if err := fig.Save(filename); err != nil {
				return fmt.Errorf("failed to save figure: %w", err)
			}

			logger.Info("figure rendered", "file", filename, "elapsed", time.Since(start))
			fmt.Fprintln(cmd.OutOrStdout(), filename)
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&outDir, "output", "o", "output", "output directory")
	return cmd
}
