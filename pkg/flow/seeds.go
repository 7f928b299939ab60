// Package flow places seed points around a particle and traces bundles of
// power-flow lines from them concurrently.
package flow

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-nearfield-flow/pkg/core"
	"github.com/df07/go-nearfield-flow/pkg/field"
	"github.com/df07/go-nearfield-flow/pkg/streamline"
)

// ErrUnsupportedPlane is returned for cross-sections without flow lines.
// The incident wave travels along z, so only planes containing z carry them.
var ErrUnsupportedPlane = errors.New("flow lines need a plane containing z")

// MaxChange is the default curvature tolerance, π/160.
const MaxChange = math.Pi / 160

// SeedOptions controls how seeds are laid out.
type SeedOptions struct {
	Flows  int     // seeds across the window
	Factor float64 // window half-width in units of the outer size parameter
	Extend bool    // cover twice the window width with 2·Flows+1 seeds
}

// Seeds places seeds on the upstream edge of the window (v = -Factor·x),
// evenly spaced along u.
func Seeds(plane field.Plane, particle field.Particle, opts SeedOptions) ([]core.Vec3, error) {
	if plane == field.PlaneXY {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlane, plane)
	}
	if opts.Flows <= 0 {
		return nil, nil
	}
	edge := -opts.Factor * particle.Outer()
	if opts.Flows == 1 {
		return []core.Vec3{plane.Point(0, edge)}, nil
	}

	step := -2 * edge / float64(opts.Flows-1)
	count, first := opts.Flows, edge
	if opts.Extend {
		count, first = 2*opts.Flows+1, 2*edge
	}

	seeds := make([]core.Vec3, count)
	for i := range seeds {
		seeds[i] = plane.Point(first+float64(i)*step, edge)
	}
	return seeds, nil
}

// DefaultParams returns tracer settings sized to the particle: lines run for
// eight window half-widths, steps span core/2000 to outer/3.
func DefaultParams(particle field.Particle, factor float64) streamline.Params {
	minStep, maxStep := streamline.StepBounds(particle)
	return streamline.Params{
		MaxLength:    8 * factor * particle.Outer(),
		MaxChange:    MaxChange,
		MinStep:      minStep,
		MaxStep:      maxStep,
		IterationCap: streamline.DefaultIterationCap,
	}
}
