package flow

import (
	"log/slog"

	"github.com/df07/go-nearfield-flow/pkg/streamline"
)

// PlanarStepsPerPoint sets the fixed-step trace length relative to the
// lattice size: 12 steps per grid point.
const PlanarStepsPerPoint = 12

// PlanarSeeds spreads flows seeds along u at the lower v edge of [lo, hi]².
func PlanarSeeds(lo, hi float64, flows int) []streamline.Point2 {
	if flows <= 0 {
		return nil
	}
	if flows == 1 {
		return []streamline.Point2{{U: (lo + hi) / 2, V: lo}}
	}
	seeds := make([]streamline.Point2, flows)
	for i := range seeds {
		seeds[i] = streamline.Point2{U: lo + float64(i)*(hi-lo)/float64(flows-1), V: lo}
	}
	return seeds
}

// PlanarResult is one fixed-step line.
type PlanarResult struct {
	Seed   streamline.Point2
	Points []streamline.Point2
	Err    error
}

// TracePlanarAll runs the fixed-step tracer from every seed. Lattice
// lookups are cheap, so seeds are traced in order on the calling goroutine.
func TracePlanarAll(lat streamline.Lattice, seeds []streamline.Point2, steps int, logger *slog.Logger) []PlanarResult {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	out := make([]PlanarResult, len(seeds))
	for i, seed := range seeds {
		pts, err := streamline.TracePlanar(lat, seed, steps)
		if err != nil {
			logger.Warn("planar streamline skipped", "seed", i, "u", seed.U, "v", seed.V, "error", err)
		}
		out[i] = PlanarResult{Seed: seed, Points: pts, Err: err}
	}
	return out
}
