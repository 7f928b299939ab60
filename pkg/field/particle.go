package field

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrInvalidParticle is returned for geometries the samplers cannot describe.
var ErrInvalidParticle = errors.New("invalid particle")

// Layer is one concentric shell, described by its outer size parameter and
// its refractive index relative to the host medium.
type Layer struct {
	X float64
	M complex128
}

// Particle is a multilayered sphere, layers ordered from core to outermost.
type Particle struct {
	Layers []Layer
}

// NewParticle builds a particle from matching slices of outer size
// parameters and relative refractive indices.
func NewParticle(x []float64, m []complex128) (Particle, error) {
	if len(x) == 0 {
		return Particle{}, fmt.Errorf("%w: no layers", ErrInvalidParticle)
	}
	if len(x) != len(m) {
		return Particle{}, fmt.Errorf("%w: %d size parameters but %d indices", ErrInvalidParticle, len(x), len(m))
	}
	layers := make([]Layer, len(x))
	for i := range x {
		layers[i] = Layer{X: x[i], M: m[i]}
	}
	p := Particle{Layers: layers}
	if err := p.Validate(); err != nil {
		return Particle{}, err
	}
	return p, nil
}

// Validate checks that radii are positive and strictly increasing.
func (p Particle) Validate() error {
	if len(p.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidParticle)
	}
	prev := 0.0
	for i, l := range p.Layers {
		if !(l.X > prev) || math.IsInf(l.X, 0) {
			return fmt.Errorf("%w: layer %d size parameter %g must exceed %g", ErrInvalidParticle, i, l.X, prev)
		}
		if cmplx.IsNaN(l.M) || cmplx.IsInf(l.M) || l.M == 0 {
			return fmt.Errorf("%w: layer %d index %v", ErrInvalidParticle, i, l.M)
		}
		prev = l.X
	}
	return nil
}

// Core returns the size parameter of the innermost layer.
func (p Particle) Core() float64 { return p.Layers[0].X }

// Outer returns the size parameter of the outermost layer.
func (p Particle) Outer() float64 { return p.Layers[len(p.Layers)-1].X }

// Region returns the index of the layer containing radius r, or -1 when r
// lies in the host medium.
func (p Particle) Region(r float64) int {
	for i, l := range p.Layers {
		if r <= l.X {
			return i
		}
	}
	return -1
}

// Terms estimates how many multipole terms a full solver needs for this
// particle (Wiscombe's criterion). Solvers report it as a diagnostic.
func (p Particle) Terms() int {
	x := p.Outer()
	return int(math.Round(x + 4*math.Cbrt(x) + 2))
}

// SizeParameter converts a radius to 2π·n_host·r/λ. Radius and wavelength
// share units.
func SizeParameter(radius, wavelength, hostIndex float64) float64 {
	return 2 * math.Pi * hostIndex * radius / wavelength
}

// IndexFromPermittivity returns the principal square root of eps.
func IndexFromPermittivity(eps complex128) complex128 {
	return cmplx.Sqrt(eps)
}
