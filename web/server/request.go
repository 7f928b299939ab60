package server

import (
	"fmt"
	"net/url"
	"runtime"

	"github.com/mitchellh/mapstructure"
)

// Parameter limits shared by the map and flow endpoints
const (
	MinPoints = 2
	MaxPoints = 501
	MaxFactor = 20.0
	MaxFlows  = 101
)

// MaxWorkers caps the worker goroutines one request may start
var MaxWorkers = max(runtime.NumCPU(), 4)

// PlotRequest selects a scene and optionally overrides its plot settings
type PlotRequest struct {
	Scene    string   `mapstructure:"scene"`    // Preset name, "file:<name>" or empty for SiAgSi
	Plane    string   `mapstructure:"plane"`    // XZ, YZ or XY
	Quantity string   `mapstructure:"quantity"` // Pabs, Eabs, Habs, angleEx, angleHy
	Points   int      `mapstructure:"points"`   // Grid points per side
	Factor   float64  `mapstructure:"factor"`   // Window half-width in outer size parameters
	Flows    *int     `mapstructure:"flows"`    // Streamline seeds
	Extend   *bool    `mapstructure:"extend"`   // Seed across twice the window
	Fixed    *bool    `mapstructure:"fixed"`    // Fixed-step lines over the field map
	Physical bool     `mapstructure:"physical"` // Coordinates in configured units
	Workers  int      `mapstructure:"workers"`  // Worker goroutines, 0 = one per CPU
	Vertices bool     `mapstructure:"vertices"` // Add point features to GeoJSON
	Cap      int      `mapstructure:"cap"`      // Iteration cap override
	Change   *float64 `mapstructure:"change"`   // Curvature tolerance override
}

// ProbeRequest asks for the field at one point, in size-parameter units
type ProbeRequest struct {
	Scene string  `mapstructure:"scene"`
	X     float64 `mapstructure:"x"`
	Y     float64 `mapstructure:"y"`
	Z     float64 `mapstructure:"z"`
}

// decodeQuery decodes query parameters into out. Values are weakly typed so
// "101" fills an int field; unknown parameters are rejected.
func decodeQuery(values url.Values, out any) error {
	raw := make(map[string]any, len(values))
	for key := range values {
		raw[key] = values.Get(key)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func parsePlotRequest(values url.Values) (*PlotRequest, error) {
	req := &PlotRequest{}
	if err := decodeQuery(values, req); err != nil {
		return nil, err
	}
	if req.Scene == "" {
		req.Scene = "SiAgSi"
	}
	if req.Points != 0 && (req.Points < MinPoints || req.Points > MaxPoints) {
		return nil, fmt.Errorf("points must be between %d and %d, got: %d", MinPoints, MaxPoints, req.Points)
	}
	if req.Factor < 0 || req.Factor > MaxFactor {
		return nil, fmt.Errorf("factor must be between 0 and %f, got: %f", MaxFactor, req.Factor)
	}
	if req.Flows != nil && (*req.Flows < 0 || *req.Flows > MaxFlows) {
		return nil, fmt.Errorf("flows must be between 0 and %d, got: %d", MaxFlows, *req.Flows)
	}
	if req.Workers < 0 || req.Workers > MaxWorkers {
		return nil, fmt.Errorf("workers must be between 0 and %d, got: %d", MaxWorkers, req.Workers)
	}
	if req.Cap < 0 {
		return nil, fmt.Errorf("cap must not be negative, got: %d", req.Cap)
	}
	if req.Change != nil && !(*req.Change > 0) {
		return nil, fmt.Errorf("change must be positive, got: %f", *req.Change)
	}
	return req, nil
}

func parseProbeRequest(values url.Values) (*ProbeRequest, error) {
	req := &ProbeRequest{}
	if err := decodeQuery(values, req); err != nil {
		return nil, err
	}
	if req.Scene == "" {
		req.Scene = "SiAgSi"
	}
	return req, nil
}
