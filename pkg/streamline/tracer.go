// Package streamline traces power-flow lines: integral curves of the
// Poynting vector S = Re(E x conj(H)) through a sampled near field.
package streamline

import (
	"fmt"

	"github.com/df07/go-nearfield-flow/pkg/core"
	"github.com/df07/go-nearfield-flow/pkg/field"
)

// Tracer follows the local Poynting vector with an adaptive step. It holds
// no per-trace state, so one Tracer may serve concurrent Trace calls when
// its sampler is safe for concurrent use.
type Tracer struct {
	sampler field.Sampler
	params  Params
}

// NewTracer validates params and binds them to a sampler.
func NewTracer(sampler field.Sampler, params Params) (*Tracer, error) {
	if sampler == nil {
		return nil, fmt.Errorf("%w: nil sampler", ErrInvalidParams)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Tracer{sampler: sampler, params: params}, nil
}

// Params returns the tracer configuration.
func (t *Tracer) Params() Params { return t.params }

// Trace follows the field line through start until the accumulated arc
// length reaches MaxLength or IterationCap steps were taken.
//
// Every iteration doubles the step (up to MaxStep) and probes the field one
// step ahead along the current direction. The probe is accepted when S
// changed by less than MaxChange relative to the previous accepted vector;
// otherwise the step is halved and the probe repeated, down to MinStep, at
// which point it is accepted regardless. A probe that lands on a zero or
// non-finite field ends refinement and the step is taken along the previous
// direction.
//
// A degenerate field at start is fatal and yields *DegenerateFieldError.
func (t *Tracer) Trace(start core.Vec3) (Trajectory, Stats, error) {
	p := t.params
	var stats Stats

	prev, err := t.poynting(start)
	if err != nil {
		return nil, stats, &DegenerateFieldError{Point: start, Reason: "sampler failed", Err: err}
	}
	if reason := degenerate(prev); reason != "" {
		return nil, stats, &DegenerateFieldError{Point: start, Reason: reason}
	}

	dir := prev.Normalize()
	pos := start
	traj := Trajectory{start}
	step := min(2*p.MinStep, p.MaxStep)

	for stats.Length < p.MaxLength {
		if stats.Iterations >= p.IterationCap {
			stats.Termination = IterationCap
			break
		}
		stats.Iterations++
		step = min(step*2, p.MaxStep)

		for {
			s, err := t.poynting(pos.Add(dir.Multiply(step)))
			if err != nil || degenerate(s) != "" {
				stats.NonFinite++
				break
			}
			if step <= p.MinStep || relativeChange(s, prev) < p.MaxChange {
				prev, dir = s, s.Normalize()
				break
			}
			stats.Refinements++
			step = max(step/2, p.MinStep)
		}

		pos = pos.Add(dir.Multiply(step))
		traj = append(traj, pos)
		stats.Length += step
	}

	return traj, stats, nil
}

func (t *Tracer) poynting(at core.Vec3) (core.Vec3, error) {
	s, err := t.sampler.Sample(at)
	if err != nil {
		return core.Vec3{}, err
	}
	return s.Poynting(), nil
}

// relativeChange is |s − prev| / max(|s|, |prev|).
func relativeChange(s, prev core.Vec3) float64 {
	return s.Subtract(prev).Length() / max(s.Length(), prev.Length())
}

func degenerate(s core.Vec3) string {
	switch {
	case !s.IsFinite():
		return "non-finite Poynting vector"
	case s.IsZero():
		return "zero Poynting vector"
	}
	return ""
}
