package streamline

import (
	"fmt"

	"github.com/df07/go-nearfield-flow/pkg/field"
)

// Lattice is a precomputed cross-section of field samples, looked up by
// nearest neighbour.
type Lattice interface {
	Plane() field.Plane
	Spacing() float64
	Nearest(u, v float64) field.Sample
}

// TracePlanar advances n fixed steps of a quarter lattice spacing along the
// in-plane components of the normalised Poynting vector, returning n+1
// points starting at start. There is no step adaptivity; a zero or
// non-finite S anywhere on the path fails the trace.
func TracePlanar(lat Lattice, start Point2, n int) ([]Point2, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative step count %d", ErrInvalidParams, n)
	}
	plane := lat.Plane()
	ds := lat.Spacing() / 4

	out := make([]Point2, 1, n+1)
	out[0] = start
	cur := start
	for i := 0; i < n; i++ {
		s := lat.Nearest(cur.U, cur.V).Poynting()
		if reason := degenerate(s); reason != "" {
			return nil, &DegenerateFieldError{Point: plane.Point(cur.U, cur.V), Reason: reason}
		}
		du, dv := plane.Project(s.Normalize())
		cur = Point2{U: cur.U + ds*du, V: cur.V + ds*dv}
		out = append(out, cur)
	}
	return out, nil
}
