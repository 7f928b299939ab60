package field

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-nearfield-flow/pkg/core"
)

func TestSuppressNoise(t *testing.T) {
	tests := []struct {
		name     string
		in       core.CVec3
		expected core.CVec3
	}{
		{
			name:     "small component zeroed",
			in:       core.NewCVec3(1, 1e-12, 0.5i),
			expected: core.NewCVec3(1, 0, 0.5i),
		},
		{
			name:     "component at threshold kept",
			in:       core.NewCVec3(2, 2e-10, 0),
			expected: core.NewCVec3(2, 2e-10, 0),
		},
		{
			name:     "all zero stays zero",
			in:       core.CVec3{},
			expected: core.CVec3{},
		},
		{
			name:     "threshold uses modulus",
			in:       core.NewCVec3(3+4i, 1e-11i, 0),
			expected: core.NewCVec3(3+4i, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SuppressNoise(tt.in))
		})
	}
}

func TestSample_PoyntingOfPlaneWave(t *testing.T) {
	for _, z := range []float64{0, 0.3, 2, -5} {
		s, err := PlaneWave{}.Sample(core.NewVec3(0.1, -0.4, z))
		require.NoError(t, err)
		p := s.Poynting()
		assert.InDelta(t, 0, p.X, 1e-12)
		assert.InDelta(t, 0, p.Y, 1e-12)
		assert.InDelta(t, 1, p.Z, 1e-12)
	}
}

func TestSample_PoyntingIgnoresNoise(t *testing.T) {
	// A tiny stray Ez would otherwise tilt S towards x.
	s := Sample{
		E: core.NewCVec3(1, 0, 1e-13),
		H: core.NewCVec3(0, 1, 0),
	}
	assert.Equal(t, core.NewVec3(0, 0, 1), s.Poynting())
}

func TestNewParticle_Validation(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		m    []complex128
		ok   bool
	}{
		{"single layer", []float64{1}, []complex128{1.5}, true},
		{"three layers", []float64{0.1, 0.2, 0.3}, []complex128{2, 0.1 + 4i, 2}, true},
		{"no layers", nil, nil, false},
		{"length mismatch", []float64{0.1, 0.2}, []complex128{2}, false},
		{"not increasing", []float64{0.2, 0.2}, []complex128{2, 2}, false},
		{"negative radius", []float64{-1}, []complex128{2}, false},
		{"NaN radius", []float64{math.NaN()}, []complex128{2}, false},
		{"zero index", []float64{1}, []complex128{0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParticle(tt.x, tt.m)
			if tt.ok {
				require.NoError(t, err)
				assert.Len(t, p.Layers, len(tt.x))
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidParticle), "got %v", err)
		})
	}
}

func TestParticle_RegionAndTerms(t *testing.T) {
	p, err := NewParticle([]float64{1, 2}, []complex128{2, 3})
	require.NoError(t, err)

	assert.Equal(t, 0, p.Region(0))
	assert.Equal(t, 0, p.Region(1))
	assert.Equal(t, 1, p.Region(1.5))
	assert.Equal(t, -1, p.Region(2.1))
	assert.Equal(t, 1.0, p.Core())
	assert.Equal(t, 2.0, p.Outer())

	// 2 + 4·2^{1/3} + 2 = 9.04
	assert.Equal(t, 9, p.Terms())
}

func TestSizeParameterAndIndex(t *testing.T) {
	assert.InDelta(t, 2*math.Pi*63.0/800.0, SizeParameter(63, 800, 1), 1e-12)
	assert.InDelta(t, 2*2*math.Pi*63.0/800.0, SizeParameter(63, 800, 2), 1e-12)

	n := IndexFromPermittivity(-28.05 + 1.525i)
	assert.InDelta(t, 0, cmplx.Abs(n*n-(-28.05+1.525i)), 1e-9)
	assert.Greater(t, imag(n), 0.0)
}

func TestParsePlane(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Plane
	}{{"XZ", PlaneXZ}, {"yz", PlaneYZ}, {" xy ", PlaneXY}} {
		p, err := ParsePlane(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, p)
		assert.Equal(t, tt.want, mustParse(t, p.String()))
	}

	_, err := ParsePlane("ZX")
	assert.ErrorIs(t, err, ErrUnknownPlane)
}

func mustParse(t *testing.T, s string) Plane {
	t.Helper()
	p, err := ParsePlane(s)
	require.NoError(t, err)
	return p
}

func TestPlane_PointProjectRoundTrip(t *testing.T) {
	for _, pl := range []Plane{PlaneXZ, PlaneYZ, PlaneXY} {
		u, v := pl.Project(pl.Point(1.5, -2.5))
		assert.Equal(t, 1.5, u, pl.String())
		assert.Equal(t, -2.5, v, pl.String())
	}
	a, b := PlaneXZ.Axes()
	assert.Equal(t, "X", a)
	assert.Equal(t, "Z", b)
}

func TestBatch_AdaptsPointSampler(t *testing.T) {
	calls := 0
	s := SamplerFunc(func(p core.Vec3) (Sample, error) {
		calls++
		return Sample{E: p.Complex()}, nil
	})
	out, err := Batch(s).SampleBatch([]core.Vec3{{X: 1}, {Y: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, complex(2, 0), out[1].E.Y)

	failing := SamplerFunc(func(core.Vec3) (Sample, error) { return Sample{}, errors.New("solver down") })
	_, err = Batch(failing).SampleBatch([]core.Vec3{{}})
	assert.ErrorContains(t, err, "solver down")

	// A native batch sampler is returned unchanged
	qs, err := NewQuasiStatic(Particle{Layers: []Layer{{X: 1, M: 2}}})
	require.NoError(t, err)
	assert.Same(t, qs, Batch(qs))
}

func TestQuasiStatic_SolidSpherePolarizability(t *testing.T) {
	x := 0.3
	m := complex(1.5, 0.1)
	qs, err := NewQuasiStatic(Particle{Layers: []Layer{{X: x, M: m}}})
	require.NoError(t, err)

	eps := m * m
	want := complex(x*x*x, 0) * (eps - 1) / (eps + 2)
	assert.InDelta(t, 0, cmplx.Abs(qs.Polarizability()-want), 1e-12)

	// Uniform interior field 3/(ε+2)
	s, err := qs.Sample(core.NewVec3(0.05, 0.02, -0.1))
	require.NoError(t, err)
	assert.InDelta(t, 0, cmplx.Abs(s.E.X-3/(eps+2)), 1e-12)
	assert.Equal(t, complex(0, 0), s.E.Y)

	// H = m a ŷ with no phase along z
	for _, z := range []float64{-0.2, 0, 0.25} {
		s, err := qs.Sample(core.NewVec3(0, 0, z))
		require.NoError(t, err)
		assert.InDelta(t, 0, cmplx.Abs(s.H.Y-m*3/(eps+2)), 1e-12, "z=%g", z)
		assert.Equal(t, complex(0, 0), s.H.X)
		assert.Equal(t, complex(0, 0), s.H.Z)
	}
}

func TestQuasiStatic_ShellOfSameIndexIsSolidSphere(t *testing.T) {
	m := complex(3.7, 0.01)
	shell, err := NewQuasiStatic(Particle{Layers: []Layer{{X: 0.1, M: m}, {X: 0.4, M: m}}})
	require.NoError(t, err)
	solid, err := NewQuasiStatic(Particle{Layers: []Layer{{X: 0.4, M: m}}})
	require.NoError(t, err)

	assert.InDelta(t, 0, cmplx.Abs(shell.Polarizability()-solid.Polarizability()), 1e-12)

	p := core.NewVec3(0.3, 0.4, 0.5)
	a, _ := shell.Sample(p)
	b, _ := solid.Sample(p)
	assert.InDelta(t, 0, a.E.Subtract(b.E).Length(), 1e-12)
	assert.InDelta(t, 0, a.H.Subtract(b.H).Length(), 1e-12)
}

func TestQuasiStatic_IndexMatchedIsTransparent(t *testing.T) {
	qs, err := NewQuasiStatic(Particle{Layers: []Layer{{X: 0.2, M: 1}, {X: 0.5, M: 1}}})
	require.NoError(t, err)
	assert.Equal(t, complex(0, 0), qs.Polarizability())

	p := core.NewVec3(1, -2, 0.7)
	got, _ := qs.Sample(p)
	want, _ := PlaneWave{}.Sample(p)
	assert.InDelta(t, 0, got.E.Subtract(want.E).Length(), 1e-12)
	assert.InDelta(t, 0, got.H.Subtract(want.H).Length(), 1e-12)
}

func TestQuasiStatic_FieldsFiniteAroundParticle(t *testing.T) {
	qs, err := NewQuasiStatic(Particle{Layers: []Layer{
		{X: 0.14, M: IndexFromPermittivity(13.64 + 0.047i)},
		{X: 0.32, M: IndexFromPermittivity(-28.05 + 1.525i)},
		{X: 0.50, M: IndexFromPermittivity(13.64 + 0.047i)},
	}})
	require.NoError(t, err)

	points := []core.Vec3{{}, {X: 0.2}, {Z: 0.45}, {X: 1, Z: -1}, {Y: 3}}
	samples, err := qs.SampleBatch(points)
	require.NoError(t, err)
	require.Len(t, samples, len(points))
	for i, s := range samples {
		assert.True(t, s.Finite(), "point %v", points[i])
		single, err := qs.Sample(points[i])
		require.NoError(t, err)
		assert.Equal(t, single, s)
	}
}

func TestQuasiStatic_Efficiencies(t *testing.T) {
	x := 0.2
	m := complex(1.5, 0.05)
	qs, err := NewQuasiStatic(Particle{Layers: []Layer{{X: x, M: m}}})
	require.NoError(t, err)

	eps := m * m
	f := (eps - 1) / (eps + 2)
	eff := qs.Efficiencies()
	assert.InDelta(t, 4*x*imag(f), eff.Qabs, 1e-12)
	assert.InDelta(t, 8.0/3.0*math.Pow(x, 4)*cmplx.Abs(f)*cmplx.Abs(f), eff.Qsca, 1e-12)
	assert.InDelta(t, eff.Qabs+eff.Qsca, eff.Qext, 1e-15)
}

func TestNewQuasiStatic_RejectsInvalidParticle(t *testing.T) {
	_, err := NewQuasiStatic(Particle{})
	assert.ErrorIs(t, err, ErrInvalidParticle)
}
