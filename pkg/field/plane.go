package field

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-nearfield-flow/pkg/core"
)

// ErrUnknownPlane is returned by ParsePlane for unrecognised names.
var ErrUnknownPlane = errors.New("unknown cross plane")

// Plane is an axis-aligned cross-section through the particle centre.
// Points in a plane are addressed by (u, v): the first and second named axis.
type Plane int

const (
	PlaneXZ Plane = iota
	PlaneYZ
	PlaneXY
)

// ParsePlane accepts "XZ", "YZ" or "XY" in any case.
func ParsePlane(s string) (Plane, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "XZ":
		return PlaneXZ, nil
	case "YZ":
		return PlaneYZ, nil
	case "XY":
		return PlaneXY, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPlane, s)
}

func (p Plane) String() string {
	switch p {
	case PlaneXZ:
		return "XZ"
	case PlaneYZ:
		return "YZ"
	case PlaneXY:
		return "XY"
	}
	return fmt.Sprintf("Plane(%d)", int(p))
}

// Axes returns the labels of the u and v axes.
func (p Plane) Axes() (string, string) {
	s := p.String()
	return s[:1], s[1:]
}

// Point lifts plane coordinates to 3D; the third coordinate is zero.
func (p Plane) Point(u, v float64) core.Vec3 {
	switch p {
	case PlaneYZ:
		return core.NewVec3(0, u, v)
	case PlaneXY:
		return core.NewVec3(u, v, 0)
	default:
		return core.NewVec3(u, 0, v)
	}
}

// Project drops the out-of-plane component of a point or vector.
func (p Plane) Project(a core.Vec3) (float64, float64) {
	switch p {
	case PlaneYZ:
		return a.Y, a.Z
	case PlaneXY:
		return a.X, a.Y
	default:
		return a.X, a.Z
	}
}
