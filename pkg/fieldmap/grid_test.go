package fieldmap

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-nearfield-flow/pkg/core"
	"github.com/df07/go-nearfield-flow/pkg/field"
)

func unitSphere(t *testing.T) field.Particle {
	t.Helper()
	p, err := field.NewParticle([]float64{1}, []complex128{1.5})
	require.NoError(t, err)
	return p
}

// positionSampler stores the sample point in E so tests can check layout.
type positionSampler struct{ calls atomic.Int32 }

func (s *positionSampler) SampleBatch(points []core.Vec3) ([]field.Sample, error) {
	s.calls.Add(1)
	out := make([]field.Sample, len(points))
	for i, p := range points {
		out[i] = field.Sample{E: p.Complex(), H: core.NewCVec3(0, 1, 0)}
	}
	return out, nil
}

func TestCompute_LayoutAndScan(t *testing.T) {
	sampler := &positionSampler{}
	cfg := Config{Plane: field.PlaneYZ, Points: 5, Factor: 2, Workers: 2}

	g, err := Compute(context.Background(), sampler, unitSphere(t), cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(5), sampler.calls.Load())
	assert.Equal(t, 5, g.Points())
	assert.Len(t, g.Samples(), 25)
	assert.Equal(t, []float64{-2, -1, 0, 1, 2}, g.Scan())
	assert.InDelta(t, 1, g.Spacing(), 1e-12)
	lo, hi := g.Extent()
	assert.Equal(t, -2.0, lo)
	assert.Equal(t, 2.0, hi)

	// Column i runs along u (= y), row j along v (= z); x stays zero
	s := g.At(3, 1)
	assert.Equal(t, complex(0, 0), s.E.X)
	assert.Equal(t, complex(1, 0), s.E.Y)
	assert.Equal(t, complex(-1, 0), s.E.Z)
	assert.Equal(t, g.Samples()[5*1+3], s)
	assert.Equal(t, field.PlaneYZ, g.Plane())
	assert.Equal(t, 7, g.Terms())
}

func TestGrid_Nearest(t *testing.T) {
	g, err := Compute(context.Background(), &positionSampler{}, unitSphere(t),
		Config{Plane: field.PlaneXZ, Points: 5, Factor: 2})
	require.NoError(t, err)

	tests := []struct {
		name string
		u, v float64
		x, z float64
	}{
		{"exact node", 1, -1, 1, -1},
		{"rounds to closest", 0.4, 1.6, 0, 2},
		{"clamps outside", -9, 9, -2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := g.Nearest(tt.u, tt.v)
			assert.Equal(t, tt.x, real(s.E.X))
			assert.Equal(t, tt.z, real(s.E.Z))
		})
	}
}

func TestGrid_ScalarOfPlaneWave(t *testing.T) {
	g, err := Compute(context.Background(), field.Batch(field.PlaneWave{}), unitSphere(t),
		Config{Plane: field.PlaneXZ, Points: 7, Factor: 1})
	require.NoError(t, err)

	for _, v := range g.Scalar(Eabs) {
		assert.InDelta(t, 1, v, 1e-12)
	}
	for _, v := range g.Scalar(Pabs) {
		assert.InDelta(t, 1, v, 1e-12)
	}

	// arg(Ex) = z in degrees; z spans [-1, 1] rad
	angles := g.Scalar(AngleEx)
	for j, z := range g.Scan() {
		assert.InDelta(t, z*180/math.Pi, angles[7*j], 1e-9)
	}
}

func TestCompute_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"one point", Config{Points: 1, Factor: 1}},
		{"zero factor", Config{Points: 10, Factor: 0}},
		{"NaN factor", Config{Points: 10, Factor: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(context.Background(), &positionSampler{}, unitSphere(t), tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := Compute(context.Background(), &positionSampler{}, field.Particle{}, DefaultConfig())
	assert.ErrorIs(t, err, field.ErrInvalidParticle)
}

type failingSampler struct{}

func (failingSampler) SampleBatch([]core.Vec3) ([]field.Sample, error) {
	return nil, errors.New("solver crashed")
}

func TestCompute_PropagatesSamplerError(t *testing.T) {
	_, err := Compute(context.Background(), failingSampler{}, unitSphere(t), DefaultConfig())
	assert.ErrorContains(t, err, "solver crashed")
}

func TestCompute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compute(ctx, &positionSampler{}, unitSphere(t), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuantity_ParseAndLabels(t *testing.T) {
	for _, q := range []Quantity{Pabs, Eabs, Habs, AngleEx, AngleHy} {
		parsed, err := ParseQuantity(q.String())
		require.NoError(t, err)
		assert.Equal(t, q, parsed)
		assert.NotEmpty(t, q.Label())
	}

	q, err := ParseQuantity("eabs")
	require.NoError(t, err)
	assert.Equal(t, Eabs, q)

	_, err = ParseQuantity("Sz")
	assert.ErrorIs(t, err, ErrUnknownQuantity)

	assert.True(t, AngleHy.IsPhase())
	assert.False(t, Habs.IsPhase())
}

func TestRange(t *testing.T) {
	lo, hi, ok := Range([]float64{math.NaN(), 3, -1, math.Inf(1), 2})
	assert.True(t, ok)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 3.0, hi)

	_, _, ok = Range([]float64{math.NaN()})
	assert.False(t, ok)
}
