package field

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/df07/go-nearfield-flow/pkg/core"
)

// QuasiStatic samples the field around a layered sphere in the Rayleigh
// limit. Inside the particle each shell carries the electrostatic solution
// a·x̂ plus a dipole term b; outside, the incident plane wave is superposed
// with the full radiating dipole of polarisability α.
type QuasiStatic struct {
	particle Particle
	a, b     []complex128 // per layer, core first
	alpha    complex128
}

// NewQuasiStatic solves the interface conditions for p.
func NewQuasiStatic(p Particle) (*QuasiStatic, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := len(p.Layers)
	a := make([]complex128, n+1)
	b := make([]complex128, n+1)
	a[0], b[0] = 1, 0

	// Continuity of the potential and of the normal displacement at each
	// interface carries (a, b) outwards; the host has ε = 1.
	for j := 0; j < n; j++ {
		epsIn := p.Layers[j].M * p.Layers[j].M
		epsOut := complex(1, 0)
		if j+1 < n {
			epsOut = p.Layers[j+1].M * p.Layers[j+1].M
		}
		t := complex(math.Pow(p.Layers[j].X, 3), 0)
		u := a[j] - b[j]/t
		w := epsIn / epsOut * (a[j] + 2*b[j]/t)
		b[j+1] = t * (w - u) / 3
		a[j+1] = (2*u + w) / 3
	}

	scale := 1 / a[n]
	for j := range a {
		a[j] *= scale
		b[j] *= scale
	}

	return &QuasiStatic{
		particle: p,
		a:        a[:n],
		b:        b[:n],
		alpha:    b[n],
	}, nil
}

// Polarizability returns α such that the induced dipole is p = α x̂.
func (q *QuasiStatic) Polarizability() complex128 { return q.alpha }

// Particle returns the geometry the sampler was built for.
func (q *QuasiStatic) Particle() Particle { return q.particle }

// Sample evaluates E and H at p.
func (q *QuasiStatic) Sample(p core.Vec3) (Sample, error) {
	r := p.Length()
	region := q.particle.Region(r)
	if region >= 0 {
		return q.interior(p, r, region), nil
	}
	return q.exterior(p, r), nil
}

// SampleBatch evaluates every point in order, stopping at the first error.
func (q *QuasiStatic) SampleBatch(points []core.Vec3) ([]Sample, error) {
	out := make([]Sample, len(points))
	for i, pt := range points {
		s, err := q.Sample(pt)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// interior fields are uniform up to the b_j dipole term: no retardation
// phase inside the particle.
func (q *QuasiStatic) interior(p core.Vec3, r float64, j int) Sample {
	e := core.NewCVec3(q.a[j], 0, 0)
	if q.b[j] != 0 {
		e = e.Add(staticDipole(p.Multiply(1/r), r).Multiply(q.b[j]))
	}
	h := core.NewCVec3(0, q.particle.Layers[j].M*q.a[j], 0)
	return Sample{E: e, H: h}
}

func (q *QuasiStatic) exterior(p core.Vec3, r float64) Sample {
	inc := incident(p)
	n := p.Multiply(1 / r).Complex()
	dip := core.NewCVec3(q.alpha, 0, 0)

	rc := complex(r, 0)
	g := cmplx.Exp(complex(0, r)) / rc
	nxp := n.Cross(dip)

	near := n.Multiply(3 * n.Dot(dip)).Subtract(dip).Multiply(1/(rc*rc) - 1i/rc)
	e := nxp.Cross(n).Add(near).Multiply(g)
	h := nxp.Multiply(g * (1 + 1i/rc))

	return Sample{E: inc.E.Add(e), H: inc.H.Add(h)}
}

// staticDipole is the field shape (3n(n·x̂) − x̂)/r³ of a unit x-dipole.
func staticDipole(n core.Vec3, r float64) core.CVec3 {
	v := n.Multiply(3 * n.X).Subtract(core.NewVec3(1, 0, 0)).Multiply(1 / (r * r * r))
	return v.Complex()
}

// Efficiencies are cross sections normalised by the geometric cross section.
type Efficiencies struct {
	Qext, Qsca, Qabs float64
}

// Efficiencies returns the dipole-limit extinction, scattering and
// absorption efficiencies.
func (q *QuasiStatic) Efficiencies() Efficiencies {
	x := q.particle.Outer()
	x2 := x * x
	qabs := 4 * imag(q.alpha) / x2
	qsca := 8.0 / 3.0 * cmplx.Abs(q.alpha) * cmplx.Abs(q.alpha) / x2
	return Efficiencies{Qext: qabs + qsca, Qsca: qsca, Qabs: qabs}
}
