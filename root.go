package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/df07/go-nearfield-flow/internal/logging"
	"github.com/df07/go-nearfield-flow/pkg/config"
	"github.com/df07/go-nearfield-flow/pkg/scene"
)

type rootOptions struct {
	configPath string
	preset     string
	verbose    bool
	workers    int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "nearfield",
		Short: "Near-field maps and power-flow lines of multilayered spheres",
		Long: `nearfield samples the electromagnetic near field around a layered sphere,
traces streamlines of the Poynting vector and renders both as cross-section maps.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file (overrides --preset)")
	flags.StringVar(&opts.preset, "preset", "SiAgSi", "built-in configuration: "+strings.Join(config.Presets(), ", "))
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.IntVar(&opts.workers, "workers", 0, "worker goroutines (0 = one per CPU)")

	cmd.AddCommand(newPlotCmd(opts), newTraceCmd(opts), newEfficiencyCmd(opts))
	return cmd
}

func (o *rootOptions) logger() *slog.Logger {
	return logging.New(logging.Level(o.verbose))
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	return config.Preset(o.preset)
}

// plotFlags are the plot settings shared by commands; a flag overrides the
// configuration only when set.
type plotFlags struct {
	plane    string
	quantity string
	points   int
	factor   float64
	flows    int
	extend   bool
	fixed    bool
	comment  string
}

func (p *plotFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.plane, "plane", config.DefaultPlane, "cross-section plane: XZ, YZ or XY")
	f.StringVar(&p.quantity, "quantity", config.DefaultQuantity, "plotted quantity: Pabs, Eabs, Habs, angleEx, angleHy")
	f.IntVar(&p.points, "points", config.DefaultPoints, "grid points per side")
	f.Float64Var(&p.factor, "factor", config.DefaultFactor, "window half-width in outer size parameters")
	f.IntVar(&p.flows, "flows", config.DefaultFlows, "number of streamline seeds")
	f.BoolVar(&p.extend, "extend", true, "seed across twice the window width")
	f.BoolVar(&p.fixed, "fixed-step", false, "trace fixed-step lines over the field map instead of adaptive 3D lines")
	f.StringVar(&p.comment, "comment", "", "prefix of the output file name")
}

func (p *plotFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("plane") {
		cfg.Plot.Plane = p.plane
	}
	if f.Changed("quantity") {
		cfg.Plot.Quantity = p.quantity
	}
	if f.Changed("points") {
		cfg.Plot.Points = p.points
	}
	if f.Changed("factor") {
		cfg.Plot.Factor = p.factor
	}
	if f.Changed("flows") {
		cfg.Plot.SetFlows(p.flows)
	}
	if f.Changed("extend") {
		extend := p.extend
		cfg.Plot.Extend = &extend
	}
	if f.Changed("fixed-step") {
		cfg.Plot.FixedStep = p.fixed
	}
	if f.Changed("comment") {
		cfg.Plot.Comment = p.comment
	}
	return cfg.Validate()
}

func (o *rootOptions) buildScene(cmd *cobra.Command, p *plotFlags) (*scene.Scene, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := p.apply(cmd, cfg); err != nil {
		return nil, err
	}
	s, err := scene.New(cfg)
	if err != nil {
		return nil, err
	}
	s.Workers = o.workers
	return s, nil
}
