// Package field holds the near-field primitives shared by the tracer, the
// cross-section maps and the renderers: complex E/H samples, the Poynting
// vector, particle geometry and the samplers that produce fields.
package field

import (
	"fmt"

	"github.com/df07/go-nearfield-flow/pkg/core"
)

// NoiseFloor is the fraction of a vector's largest component modulus below
// which a component is treated as exactly zero.
const NoiseFloor = 1e-10

// Sample is the complex electric and magnetic field at one point.
type Sample struct {
	E core.CVec3
	H core.CVec3
}

// Poynting returns Re(E x conj(H)) with noise suppressed on both E and H.
func (s Sample) Poynting() core.Vec3 {
	e := SuppressNoise(s.E)
	h := SuppressNoise(s.H)
	return e.Cross(h.Conj()).Real()
}

// Finite reports whether every component of E and H is finite.
func (s Sample) Finite() bool {
	return s.E.IsFinite() && s.H.IsFinite()
}

// SuppressNoise zeroes the components of v whose modulus is below
// NoiseFloor times the largest component modulus of v.
func SuppressNoise(v core.CVec3) core.CVec3 {
	threshold := v.MaxAbs() * NoiseFloor
	a := v.Abs()
	if a.X < threshold {
		v.X = 0
	}
	if a.Y < threshold {
		v.Y = 0
	}
	if a.Z < threshold {
		v.Z = 0
	}
	return v
}

// Sampler evaluates the field at an arbitrary point given in size-parameter
// units. Implementations may return non-finite samples.
type Sampler interface {
	Sample(p core.Vec3) (Sample, error)
}

// SamplerFunc adapts an ordinary function to the Sampler interface.
type SamplerFunc func(p core.Vec3) (Sample, error)

// Sample calls f(p).
func (f SamplerFunc) Sample(p core.Vec3) (Sample, error) {
	return f(p)
}

// BatchSampler evaluates the field at a set of points in one call, which is
// how external multipole solvers are usually driven.
type BatchSampler interface {
	SampleBatch(points []core.Vec3) ([]Sample, error)
}

// Batch returns s itself when it already implements BatchSampler and a
// point-by-point adapter otherwise.
func Batch(s Sampler) BatchSampler {
	if bs, ok := s.(BatchSampler); ok {
		return bs
	}
	return pointwise{s}
}

type pointwise struct{ s Sampler }

func (p pointwise) SampleBatch(points []core.Vec3) ([]Sample, error) {
	out := make([]Sample, len(points))
	for i, pt := range points {
		smp, err := p.s.Sample(pt)
		if err != nil {
			return nil, fmt.Errorf("sample %d at %v: %w", i, pt, err)
		}
		out[i] = smp
	}
	return out, nil
}
