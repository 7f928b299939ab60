package scene

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/df07/go-nearfield-flow/pkg/config"
	"github.com/df07/go-nearfield-flow/pkg/core"
	"github.com/df07/go-nearfield-flow/pkg/field"
	"github.com/df07/go-nearfield-flow/pkg/fieldmap"
	"github.com/df07/go-nearfield-flow/pkg/flow"
	"github.com/df07/go-nearfield-flow/pkg/render"
	"github.com/df07/go-nearfield-flow/pkg/streamline"
)

// Scene contains everything needed to map and trace one configuration
type Scene struct {
	Config   *config.Config
	Particle field.Particle
	Sampler  *field.QuasiStatic
	Tracer   *streamline.Tracer
	Workers  int // zero means one per CPU
}

// New builds the particle, sampler and tracer for cfg
func New(cfg *config.Config) (*Scene, error) {
	particle, err := cfg.Particle()
	if err != nil {
		return nil, err
	}
	sampler, err := field.NewQuasiStatic(particle)
	if err != nil {
		return nil, err
	}
	tracer, err := streamline.NewTracer(sampler, cfg.TraceParams(particle))
	if err != nil {
		return nil, err
	}
	return &Scene{Config: cfg, Particle: particle, Sampler: sampler, Tracer: tracer}, nil
}

// Scale converts size-parameter coordinates to the configured units
func (s *Scene) Scale() float64 { return s.Config.Scale() }

// OuterRadius is the physical outer radius
func (s *Scene) OuterRadius() float64 { return s.Particle.Outer() * s.Scale() }

// Grid samples the configured cross-section
func (s *Scene) Grid(ctx context.Context) (*fieldmap.Grid, error) {
	return fieldmap.Compute(ctx, s.Sampler, s.Particle, fieldmap.Config{
		Plane:   s.Config.PlotPlane(),
		Points:  s.Config.Plot.Points,
		Factor:  s.Config.Plot.Factor,
		Workers: s.Workers,
	})
}

// Seeds places the flow seeds for the configured plane
func (s *Scene) Seeds() ([]core.Vec3, error) {
	return flow.Seeds(s.Config.PlotPlane(), s.Particle, s.Config.Seeds())
}

// Bundle returns a bundle tracer for this scene
func (s *Scene) Bundle(logger *slog.Logger) *flow.Bundle {
	return flow.NewBundle(s.Tracer, s.Workers, logger)
}

// Trace traces every seed. XY cross-sections carry no flow lines and
// yield no results.
func (s *Scene) Trace(ctx context.Context, logger *slog.Logger) ([]flow.TraceResult, error) {
	seeds, err := s.Seeds()
	if err != nil {
		return nil, err
	}
	return s.Bundle(logger).TraceAll(ctx, seeds)
}

// Lines projects traced results onto the plot plane, skipping failures
func (s *Scene) Lines(results []flow.TraceResult) [][]streamline.Point2 {
	plane := s.Config.PlotPlane()
	lines := make([][]streamline.Point2, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			lines = append(lines, r.Trajectory.Project(plane))
		}
	}
	return lines
}

// TraceFixedStep maps the field and runs the fixed-step tracer over the
// resulting lattice.
func (s *Scene) TraceFixedStep(ctx context.Context, logger *slog.Logger) ([]flow.PlanarResult, error) {
	if plane := s.Config.PlotPlane(); plane == field.PlaneXY {
		return nil, fmt.Errorf("%w: %s", flow.ErrUnsupportedPlane, plane)
	}
	grid, err := s.Grid(ctx)
	if err != nil {
		return nil, fmt.Errorf("field map: %w", err)
	}
	return s.TracePlanar(grid, logger), nil
}

// TracePlanar seeds the lower window edge of grid and runs
// PlanarStepsPerPoint steps per grid point from each seed.
func (s *Scene) TracePlanar(grid *fieldmap.Grid, logger *slog.Logger) []flow.PlanarResult {
	lo, hi := grid.Extent()
	seeds := flow.PlanarSeeds(lo, hi, s.Config.Plot.FlowCount())
	return flow.TracePlanarAll(grid, seeds, flow.PlanarStepsPerPoint*grid.Points(), logger)
}

// PlanarLines keeps the successful fixed-step lines
func PlanarLines(results []flow.PlanarResult) [][]streamline.Point2 {
	lines := make([][]streamline.Point2, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			lines = append(lines, r.Points)
		}
	}
	return lines
}

// FlowLines returns the streamlines drawn over grid: none on XY, fixed-step
// lines over grid when plot.fixed_step is set, adaptive traces otherwise.
func (s *Scene) FlowLines(ctx context.Context, grid *fieldmap.Grid, logger *slog.Logger) ([][]streamline.Point2, error) {
	switch {
	case s.Config.PlotPlane() == field.PlaneXY:
		return nil, nil
	case s.Config.Plot.FixedStep:
		return PlanarLines(s.TracePlanar(grid, logger)), nil
	}
	results, err := s.Trace(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("streamlines: %w", err)
	}
	return s.Lines(results), nil
}

// Render draws grid with lines on top
func (s *Scene) Render(grid *fieldmap.Grid, lines [][]streamline.Point2) (*render.Figure, error) {
	return render.New(grid, s.Particle, render.Options{
		Quantity: s.Config.PlotQuantity(),
		Scale:    s.Scale(),
		Units:    s.Config.Units,
		Lines:    lines,
	})
}

// Figure maps the field, traces the flow and draws both
func (s *Scene) Figure(ctx context.Context, logger *slog.Logger) (*render.Figure, error) {
	grid, err := s.Grid(ctx)
	if err != nil {
		return nil, fmt.Errorf("field map: %w", err)
	}
	lines, err := s.FlowLines(ctx, grid, logger)
	if err != nil {
		return nil, err
	}
	return s.Render(grid, lines)
}

// FileName is the default output file for the figure
func (s *Scene) FileName() string {
	return render.FileName(s.Config.Plot.Comment, s.OuterRadius(), s.Config.PlotPlane(), s.Config.PlotQuantity())
}
