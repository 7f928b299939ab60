package streamline

import (
	"errors"
	"fmt"

	"github.com/df07/go-nearfield-flow/pkg/core"
)

var (
	// ErrDegenerateField means no direction could be taken from the field:
	// the Poynting vector was zero or non-finite, or the sampler failed.
	ErrDegenerateField = errors.New("degenerate field")

	// ErrInvalidParams is returned by NewTracer for unusable settings.
	ErrInvalidParams = errors.New("invalid trace parameters")
)

// DegenerateFieldError reports where a trace could not take a direction.
type DegenerateFieldError struct {
	Point  core.Vec3
	Reason string
	Err    error // sampler error, if any
}

func (e *DegenerateFieldError) Error() string {
	msg := fmt.Sprintf("degenerate field at (%g, %g, %g): %s", e.Point.X, e.Point.Y, e.Point.Z, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrDegenerateField.
func (e *DegenerateFieldError) Is(target error) bool {
	return target == ErrDegenerateField
}

func (e *DegenerateFieldError) Unwrap() error {
	return e.Err
}
