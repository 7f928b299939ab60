// Package render draws field maps with particle outlines and streamlines
// using gonum/plot.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/df07/go-nearfield-flow/pkg/field"
	"github.com/df07/go-nearfield-flow/pkg/fieldmap"
	"github.com/df07/go-nearfield-flow/pkg/streamline"
)

// ErrNoData is returned when a grid has no finite values to colour.
var ErrNoData = errors.New("no finite values to plot")

// MagnitudeClip is the fraction of the maximum added to the colour scale
// minimum of magnitude plots; values below are drawn white.
const MagnitudeClip = 1e-15

// Options controls the figure.
type Options struct {
	Quantity fieldmap.Quantity
	// Scale converts size-parameter coordinates to physical units,
	// λ/(2π·n_host). Zero keeps size-parameter units.
	Scale float64
	Units string
	// Lines are streamlines in the plane coordinates of the grid.
	Lines   [][]streamline.Point2
	Colors  int       // palette size; zero means 255
	Size    vg.Length // square image side; zero means 6 inches
	Outline float64   // outline width in points; zero means 1
}

// Figure is a rendered cross-section ready to be written out.
type Figure struct {
	plot *plot.Plot
	size vg.Length
}

// gridXYZ adapts a field map to plotter.GridXYZ. The horizontal axis is
// the second plane axis (z for XZ and YZ), the vertical axis the first.
type gridXYZ struct {
	values []float64
	scan   []float64
	scale  float64
}

func (g gridXYZ) Dims() (c, r int) { return len(g.scan), len(g.scan) }
func (g gridXYZ) X(c int) float64 { return g.scan[c] * g.scale }
func (g gridXYZ) Y(r int) float64 { return g.scan[r] * g.scale }
func (g gridXYZ) Z(c, r int) float64 { return g.values[len(g.scan)*c+r] }

// New draws grid coloured by opts.Quantity, the outer and core outlines of
// particle and every streamline in opts.Lines.
func New(grid *fieldmap.Grid, particle field.Particle, opts Options) (*Figure, error) {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	colors := opts.Colors
	if colors == 0 {
		colors = 255
	}
	size := opts.Size
	if size == 0 {
		size = 6 * vg.Inch
	}
	outline := opts.Outline
	if outline == 0 {
		outline = 1
	}

	values := grid.Scalar(opts.Quantity)
	lo, hi, ok := fieldmap.Range(values)
	if !ok {
		return nil, ErrNoData
	}

	pal := palette.Rainbow(colors, palette.Blue, palette.Red, 1, 1, 1)
	heat := plotter.NewHeatMap(gridXYZ{values: values, scan: grid.Scan(), scale: scale}, pal)
	heat.NaN = color.Transparent
	heat.Min, heat.Max = lo, hi
	if !opts.Quantity.IsPhase() {
		heat.Min = lo + hi*MagnitudeClip
		heat.Underflow = color.White
	}
	if heat.Max <= heat.Min {
		heat.Max = heat.Min + math.Max(math.Abs(heat.Min), 1)*1e-12
	}

	p := plot.New()
	p.Title.Text = opts.Quantity.Label()
	u, v := grid.Plane().Axes()
	p.X.Label.Text = axisLabel(v, opts.Units)
	p.Y.Label.Text = axisLabel(u, opts.Units)
	p.Add(heat)

	for _, x := range []float64{particle.Outer(), particle.Core()} {
		circle, err := plotter.NewLine(circleXYs(x*scale, 180))
		if err != nil {
			return nil, fmt.Errorf("outline: %w", err)
		}
		circle.LineStyle.Color = color.Black
		circle.LineStyle.Width = vg.Points(outline)
		p.Add(circle)
	}

	for i, pts := range opts.Lines {
		if len(pts) < 2 {
			continue
		}
		xys := make(plotter.XYs, len(pts))
		for j, pt := range pts {
			xys[j].X, xys[j].Y = pt.V*scale, pt.U*scale
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("streamline %d: %w", i, err)
		}
		line.LineStyle.Color = color.White
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
	}

	lo0, hi0 := grid.Extent()
	p.X.Min, p.X.Max = lo0*scale, hi0*scale
	p.Y.Min, p.Y.Max = lo0*scale, hi0*scale

	return &Figure{plot: p, size: size}, nil
}

func axisLabel(axis, units string) string {
	if units == "" {
		return axis
	}
	return axis + ", " + units
}

func circleXYs(r float64, n int) plotter.XYs {
	xys := make(plotter.XYs, n+1)
	for i := range xys {
		theta := 2 * math.Pi * float64(i) / float64(n)
		xys[i].X, xys[i].Y = r*math.Cos(theta), r*math.Sin(theta)
	}
	return xys
}

// Plot exposes the underlying plot for further decoration.
func (f *Figure) Plot() *plot.Plot { return f.plot }

// Save writes the figure; the format follows the file extension.
func (f *Figure) Save(path string) error {
	return f.plot.Save(f.size, f.size, path)
}

// WritePNG encodes the figure as PNG to w.
func (f *Figure) WritePNG(w io.Writer) error {
	wt, err := f.plot.WriterTo(f.size, f.size, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// FileName builds "<comment>-R<radius>-<plane>-<quantity>.png" with the
// outer radius rounded to whole physical units.
func FileName(comment string, radius float64, plane field.Plane, q fieldmap.Quantity) string {
	return fmt.Sprintf("%s-R%d-%s-%s.png", comment, int(math.Round(radius)), plane, q)
}
