package field

import (
	"math/cmplx"

	"github.com/df07/go-nearfield-flow/pkg/core"
)

// PlaneWave is the unit-amplitude incident wave travelling along +z with E
// polarised along x. Coordinates are in size-parameter units, so k = 1.
type PlaneWave struct{}

// Sample returns E = e^{iz} x̂ and H = e^{iz} ŷ.
func (PlaneWave) Sample(p core.Vec3) (Sample, error) {
	return incident(p), nil
}

func incident(p core.Vec3) Sample {
	ph := cmplx.Exp(complex(0, p.Z))
	return Sample{
		E: core.NewCVec3(ph, 0, 0),
		H: core.NewCVec3(0, ph, 0),
	}
}
