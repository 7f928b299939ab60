package flow

import (
	"context"
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-nearfield-flow/pkg/core"
	"github.com/df07/go-nearfield-flow/pkg/field"
	"github.com/df07/go-nearfield-flow/pkg/fieldmap"
	"github.com/df07/go-nearfield-flow/pkg/streamline"
)

func sphere(t *testing.T, x float64) field.Particle {
	t.Helper()
	p, err := field.NewParticle([]float64{x}, []complex128{1.5})
	require.NoError(t, err)
	return p
}

func TestSeeds(t *testing.T) {
	p := sphere(t, 1)

	tests := []struct {
		name   string
		plane  field.Plane
		opts   SeedOptions
		count  int
		firstU float64
		lastU  float64
	}{
		{"plain XZ", field.PlaneXZ, SeedOptions{Flows: 5, Factor: 2}, 5, -2, 2},
		{"extended XZ", field.PlaneXZ, SeedOptions{Flows: 5, Factor: 2, Extend: true}, 11, -4, 6},
		{"plain YZ", field.PlaneYZ, SeedOptions{Flows: 3, Factor: 1}, 3, -1, 1},
		{"single", field.PlaneXZ, SeedOptions{Flows: 1, Factor: 2}, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeds, err := Seeds(tt.plane, p, tt.opts)
			require.NoError(t, err)
			require.Len(t, seeds, tt.count)

			u0, v0 := tt.plane.Project(seeds[0])
			un, _ := tt.plane.Project(seeds[len(seeds)-1])
			assert.InDelta(t, tt.firstU, u0, 1e-12)
			assert.InDelta(t, tt.lastU, un, 1e-12)
			assert.InDelta(t, -tt.opts.Factor, v0, 1e-12)
		})
	}

	_, err := Seeds(field.PlaneXY, p, SeedOptions{Flows: 3, Factor: 1})
	assert.ErrorIs(t, err, ErrUnsupportedPlane)

	seeds, err := Seeds(field.PlaneXZ, p, SeedOptions{})
	require.NoError(t, err)
	assert.Empty(t, seeds)
}

func TestDefaultParams(t *testing.T) {
	p, err := field.NewParticle([]float64{0.3, 0.9}, []complex128{2, 3})
	require.NoError(t, err)

	params := DefaultParams(p, 2.1)
	assert.InDelta(t, 8*2.1*0.9, params.MaxLength, 1e-12)
	assert.InDelta(t, math.Pi/160, params.MaxChange, 1e-15)
	assert.InDelta(t, 0.3/2000, params.MinStep, 1e-15)
	assert.InDelta(t, 0.3, params.MaxStep, 1e-15)
	assert.Equal(t, streamline.DefaultIterationCap, params.IterationCap)
	assert.NoError(t, params.Validate())
}

// forwardOnly has S = +z for x >= 0 and no field for x < 0.
var forwardOnly = field.SamplerFunc(func(p core.Vec3) (field.Sample, error) {
	if p.X < 0 {
		return field.Sample{}, nil
	}
	return field.Sample{E: core.NewCVec3(1, 0, 0), H: core.NewCVec3(0, 1, 0)}, nil
})

func TestBundle_TraceAllOrderedWithFailures(t *testing.T) {
	tracer, err := streamline.NewTracer(forwardOnly, streamline.Params{
		MaxLength: 1, MaxChange: 0.01, MinStep: 0.01, MaxStep: 0.1, IterationCap: 100,
	})
	require.NoError(t, err)

	seeds := []core.Vec3{{X: 0}, {X: -1}, {X: 1}, {X: 2}, {X: -2}, {X: 3}}
	results, err := NewBundle(tracer, 3, nil).TraceAll(context.Background(), seeds)
	require.NoError(t, err)
	require.Len(t, results, len(seeds))

	for i, r := range results {
		assert.Equal(t, i, r.TaskID)
		assert.Equal(t, seeds[i], r.Seed)
		if seeds[i].X < 0 {
			assert.ErrorIs(t, r.Err, streamline.ErrDegenerateField)
			assert.Nil(t, r.Trajectory)
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, seeds[i], r.Trajectory[0])
	}

	s := Summarize(results)
	assert.Equal(t, 4, s.Lines)
	assert.Equal(t, 2, s.Failed)
	assert.Zero(t, s.Capped)
	assert.GreaterOrEqual(t, s.TotalLength, 4.0)
}

func TestBundle_Cancelled(t *testing.T) {
	tracer, err := streamline.NewTracer(forwardOnly, DefaultParams(sphere(t, 1), 2))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewBundle(tracer, 2, nil).TraceAll(ctx, []core.Vec3{{X: 1}, {X: 2}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerPool_WorkerCount(t *testing.T) {
	tracer, err := streamline.NewTracer(forwardOnly, DefaultParams(sphere(t, 1), 2))
	require.NoError(t, err)
	assert.Equal(t, min(runtime.NumCPU(), 64), NewWorkerPool(tracer, 0, 64).GetNumWorkers())
	assert.Equal(t, 4, NewWorkerPool(tracer, 4, 10).GetNumWorkers())
	assert.Equal(t, 3, NewWorkerPool(tracer, 200000, 3).GetNumWorkers())
	assert.Equal(t, 1, NewWorkerPool(tracer, 8, 0).GetNumWorkers())
}

func TestPlanarSeeds(t *testing.T) {
	seeds := PlanarSeeds(-2, 2, 5)
	require.Len(t, seeds, 5)
	assert.Equal(t, streamline.Point2{U: -2, V: -2}, seeds[0])
	assert.Equal(t, streamline.Point2{U: 0, V: -2}, seeds[2])
	assert.Equal(t, streamline.Point2{U: 2, V: -2}, seeds[4])

	assert.Len(t, PlanarSeeds(-1, 1, 1), 1)
	assert.Nil(t, PlanarSeeds(-1, 1, 0))
}

func TestTracePlanarAll_OnPlaneWaveGrid(t *testing.T) {
	p := sphere(t, 1)
	g, err := fieldmap.Compute(context.Background(), field.Batch(field.PlaneWave{}), p,
		fieldmap.Config{Plane: field.PlaneXZ, Points: 21, Factor: 1})
	require.NoError(t, err)

	lo, hi := g.Extent()
	seeds := PlanarSeeds(lo, hi, 3)
	steps := 20
	results := TracePlanarAll(g, seeds, steps, nil)
	require.Len(t, results, 3)

	for i, r := range results {
		require.NoError(t, r.Err)
		require.Len(t, r.Points, steps+1)
		assert.Equal(t, seeds[i], r.Points[0])
		last := r.Points[steps]
		assert.InDelta(t, seeds[i].U, last.U, 1e-12)
		assert.InDelta(t, seeds[i].V+float64(steps)*g.Spacing()/4, last.V, 1e-9)
	}
}
