package streamline

import (
	"fmt"
	"math"

	"github.com/df07/go-nearfield-flow/pkg/field"
)

const (
	// DefaultIterationCap bounds the number of steps of one trace.
	DefaultIterationCap = 3000

	// MinStepDivisor and MaxStepDivisor derive step bounds from the core and
	// outer size parameters of the particle.
	MinStepDivisor = 2000
	MaxStepDivisor = 3
)

// Params configures the adaptive tracer.
type Params struct {
	MaxLength    float64 // arc length at which tracing stops
	MaxChange    float64 // largest accepted relative change of S per step
	MinStep      float64
	MaxStep      float64
	IterationCap int
}

// StepBounds derives step limits from the smallest and largest feature of
// the particle: core/2000 and outer/3. MaxStep is raised to MinStep when
// the particle is so thin that it would fall below it.
func StepBounds(p field.Particle) (minStep, maxStep float64) {
	minStep = p.Core() / MinStepDivisor
	maxStep = p.Outer() / MaxStepDivisor
	if maxStep < minStep {
		maxStep = minStep
	}
	return minStep, maxStep
}

// Validate reports the first unusable setting.
func (p Params) Validate() error {
	positive := func(name string, v float64) error {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %g", ErrInvalidParams, name, v)
		}
		return nil
	}
	for _, check := range []error{
		positive("max length", p.MaxLength),
		positive("max change", p.MaxChange),
		positive("min step", p.MinStep),
		positive("max step", p.MaxStep),
	} {
		if check != nil {
			return check
		}
	}
	if p.MaxStep < p.MinStep {
		return fmt.Errorf("%w: max step %g below min step %g", ErrInvalidParams, p.MaxStep, p.MinStep)
	}
	if p.IterationCap <= 0 {
		return fmt.Errorf("%w: iteration cap must be positive, got %d", ErrInvalidParams, p.IterationCap)
	}
	return nil
}
