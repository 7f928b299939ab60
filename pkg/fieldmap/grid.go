// Package fieldmap samples the near field on square cross-sections through
// the particle centre and derives the scalar maps that get plotted.
package fieldmap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-nearfield-flow/pkg/core"
	"github.com/df07/go-nearfield-flow/pkg/field"
)

// ErrInvalidConfig is returned by Compute for unusable grid settings.
var ErrInvalidConfig = errors.New("invalid grid config")

// Config describes a cross-section grid.
type Config struct {
	Plane   field.Plane
	Points  int     // samples per axis
	Factor  float64 // half-width of the window in units of the outer size parameter
	Workers int     // concurrent row batches; 0 means one per CPU
}

// DefaultConfig matches the defaults of the plotting scripts.
func DefaultConfig() Config {
	return Config{
		Plane:  field.PlaneXZ,
		Points: 101,
		Factor: 2.1,
	}
}

func (c Config) validate() error {
	if c.Points < 2 {
		return fmt.Errorf("%w: need at least 2 points per axis, got %d", ErrInvalidConfig, c.Points)
	}
	if !(c.Factor > 0) || math.IsInf(c.Factor, 0) {
		return fmt.Errorf("%w: factor must be positive, got %g", ErrInvalidConfig, c.Factor)
	}
	return nil
}

// Grid is an npts×npts lattice of samples over [-L, L]² in one plane,
// stored with u varying fastest: index = npts*j + i.
type Grid struct {
	plane   field.Plane
	scan    []float64
	samples []field.Sample
	terms   int
}

// Compute samples the field over the window ±Factor·x_outer. Rows are
// requested from the sampler concurrently, so the sampler must be safe for
// concurrent use.
func Compute(ctx context.Context, sampler field.BatchSampler, particle field.Particle, cfg Config) (*Grid, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := particle.Validate(); err != nil {
		return nil, err
	}

	n := cfg.Points
	half := cfg.Factor * particle.Outer()
	scan := floats.Span(make([]float64, n), -half, half)
	samples := make([]field.Sample, n*n)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for j := 0; j < n; j++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := make([]core.Vec3, n)
			for i, u := range scan {
				row[i] = cfg.Plane.Point(u, scan[j])
			}
			out, err := sampler.SampleBatch(row)
			if err != nil {
				return fmt.Errorf("row %d: %w", j, err)
			}
			if len(out) != n {
				return fmt.Errorf("row %d: sampler returned %d samples for %d points", j, len(out), n)
			}
			copy(samples[j*n:(j+1)*n], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Grid{
		plane:   cfg.Plane,
		scan:    scan,
		samples: samples,
		terms:   particle.Terms(),
	}, nil
}

// Plane returns the cross-section plane.
func (g *Grid) Plane() field.Plane { return g.plane }

// Points returns the number of samples per axis.
func (g *Grid) Points() int { return len(g.scan) }

// Scan returns the coordinates shared by both axes.
func (g *Grid) Scan() []float64 { return g.scan }

// Terms is the solver's scattering-coefficient count for this particle.
func (g *Grid) Terms() int { return g.terms }

// Spacing is the distance between neighbouring samples.
func (g *Grid) Spacing() float64 { return g.scan[1] - g.scan[0] }

// Extent returns the first and last scan coordinate.
func (g *Grid) Extent() (float64, float64) { return g.scan[0], g.scan[len(g.scan)-1] }

// At returns the sample at column i (u) and row j (v).
func (g *Grid) At(i, j int) field.Sample {
	return g.samples[len(g.scan)*j+i]
}

// Samples returns all samples in storage order.
func (g *Grid) Samples() []field.Sample { return g.samples }

// Nearest returns the sample closest to (u, v); points outside the window
// snap to the border.
func (g *Grid) Nearest(u, v float64) field.Sample {
	return g.At(g.nearestIndex(u), g.nearestIndex(v))
}

func (g *Grid) nearestIndex(c float64) int {
	i := int(math.Round((c - g.scan[0]) / g.Spacing()))
	return max(0, min(len(g.scan)-1, i))
}

// Scalar evaluates q at every sample, in storage order.
func (g *Grid) Scalar(q Quantity) []float64 {
	out := make([]float64, len(g.samples))
	for k, s := range g.samples {
		out[k] = q.Of(s)
	}
	return out
}

// Range returns the smallest and largest finite value. ok is false when no
// value is finite.
func Range(values []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
		ok = true
	}
	return lo, hi, ok
}
