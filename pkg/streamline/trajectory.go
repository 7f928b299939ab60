package streamline

import (
	"math"

	"github.com/df07/go-nearfield-flow/pkg/core"
	"github.com/df07/go-nearfield-flow/pkg/field"
)

// Trajectory is one traced field line, starting at the seed point.
type Trajectory []core.Vec3

// ArcLength sums the distances between consecutive points.
func (t Trajectory) ArcLength() float64 {
	total := 0.0
	for i := 1; i < len(t); i++ {
		total += t[i].Subtract(t[i-1]).Length()
	}
	return total
}

// Project returns the trajectory in the coordinates of a cross plane.
func (t Trajectory) Project(pl field.Plane) []Point2 {
	out := make([]Point2, len(t))
	for i, p := range t {
		out[i].U, out[i].V = pl.Project(p)
	}
	return out
}

// Point2 is a point in plane coordinates.
type Point2 struct {
	U, V float64
}

// PlanarLength sums the distances between consecutive plane points.
func PlanarLength(pts []Point2) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += math.Hypot(pts[i].U-pts[i-1].U, pts[i].V-pts[i-1].V)
	}
	return total
}

// Termination says why a trace stopped.
type Termination int

const (
	ReachedLength Termination = iota
	IterationCap
)

func (t Termination) String() string {
	if t == IterationCap {
		return "iteration-cap"
	}
	return "length"
}

// Stats describes one completed trace.
type Stats struct {
	Iterations  int
	Refinements int // step halvings
	NonFinite   int // trial samples absorbed as non-finite
	Length      float64
	Termination Termination
}
