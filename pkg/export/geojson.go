// Package export writes traced streamlines as GeoJSON.
package export

import (
	"fmt"
	"io"

	geojson "github.com/paulmach/go.geojson"

	"github.com/df07/go-nearfield-flow/pkg/field"
	"github.com/df07/go-nearfield-flow/pkg/flow"
	"github.com/df07/go-nearfield-flow/pkg/streamline"
)

// Options controls the exported geometry.
type Options struct {
	// Scale multiplies every coordinate; zero means 1 (size-parameter units).
	Scale float64
	// Points adds one point feature per vertex after the line features.
	Points bool
}

func (o Options) scale() float64 {
	if o.Scale == 0 {
		return 1
	}
	return o.Scale
}

// Streamlines builds one LineString per successfully traced result, in
// result order. Failed seeds are left out.
func Streamlines(results []flow.TraceResult, opts Options) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	k := opts.scale()

	for _, r := range results {
		if r.Err != nil || len(r.Trajectory) == 0 {
			continue
		}
		coords := make([][]float64, len(r.Trajectory))
		for i, p := range r.Trajectory {
			coords[i] = []float64{k * p.X, k * p.Y, k * p.Z}
		}
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("sid", r.TaskID)
		f.SetProperty("points", len(r.Trajectory))
		f.SetProperty("length", k*r.Stats.Length)
		f.SetProperty("termination", r.Stats.Termination.String())
		fc.AddFeature(f)
	}

	if opts.Points {
		for _, r := range results {
			if r.Err != nil {
				continue
			}
			for j, p := range r.Trajectory {
				f := geojson.NewPointFeature([]float64{k * p.X, k * p.Y, k * p.Z})
				f.SetProperty("sid", r.TaskID)
				f.SetProperty("vid", j)
				fc.AddFeature(f)
			}
		}
	}
	return fc
}

// PlanarStreamlines builds 2D LineStrings in the (u, v) axes of the plane.
func PlanarStreamlines(plane field.Plane, results []flow.PlanarResult, opts Options) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	k := opts.scale()

	for i, r := range results {
		if r.Err != nil || len(r.Points) == 0 {
			continue
		}
		coords := make([][]float64, len(r.Points))
		for j, p := range r.Points {
			coords[j] = []float64{k * p.U, k * p.V}
		}
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("sid", i)
		f.SetProperty("points", len(r.Points))
		f.SetProperty("length", k*streamline.PlanarLength(r.Points))
		f.SetProperty("plane", plane.String())
		fc.AddFeature(f)
	}
	return fc
}

// Write marshals fc to w followed by a newline.
func Write(w io.Writer, fc *geojson.FeatureCollection) error {
	raw, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	if _, err := w.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("failed to write GeoJSON: %w", err)
	}
	return nil
}
