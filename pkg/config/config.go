// Package config loads particle, plot and tracer settings from YAML.
package config

import (
	"embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-nearfield-flow/pkg/field"
	"github.com/df07/go-nearfield-flow/pkg/fieldmap"
	"github.com/df07/go-nearfield-flow/pkg/flow"
	"github.com/df07/go-nearfield-flow/pkg/streamline"
)

var (
	// ErrUnknownPreset is returned by Preset for names without a bundled file.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

//go:embed presets/*.yaml
var presetFS embed.FS

// Defaults used when a document leaves a plot setting out.
const (
	DefaultPoints   = 101
	DefaultFactor   = 2.1
	DefaultFlows    = 11
	DefaultPlane    = "XZ"
	DefaultQuantity = "Pabs"
)

// Complex is a YAML-friendly complex number.
type Complex struct {
	Re float64 `yaml:"re" json:"re"`
	Im float64 `yaml:"im" json:"im"`
}

// Value returns c as a complex128.
func (c Complex) Value() complex128 { return complex(c.Re, c.Im) }

// Layer describes one shell. Exactly one of Width (thickness) or Radius
// (outer radius) and one of Index or Permittivity must be set.
type Layer struct {
	Material     string   `yaml:"material" json:"material"`
	Width        float64  `yaml:"width,omitempty" json:"width,omitempty"`
	Radius       float64  `yaml:"radius,omitempty" json:"radius,omitempty"`
	Index        *Complex `yaml:"index,omitempty" json:"index,omitempty"`
	Permittivity *Complex `yaml:"permittivity,omitempty" json:"permittivity,omitempty"`
}

// RefractiveIndex returns the absolute index of the layer material.
func (l Layer) RefractiveIndex() complex128 {
	if l.Index != nil {
		return l.Index.Value()
	}
	if l.Permittivity != nil {
		return field.IndexFromPermittivity(l.Permittivity.Value())
	}
	return 0
}

// Plot holds cross-section settings.
type Plot struct {
	Plane     string  `yaml:"plane" json:"plane"`
	Quantity  string  `yaml:"quantity" json:"quantity"`
	Points    int     `yaml:"points" json:"points"`
	Factor    float64 `yaml:"factor" json:"factor"`
	Flows     *int    `yaml:"flows,omitempty" json:"flows,omitempty"`
	Extend    *bool   `yaml:"extend,omitempty" json:"extend,omitempty"`
	FixedStep bool    `yaml:"fixed_step,omitempty" json:"fixed_step,omitempty"`
	Comment   string  `yaml:"comment" json:"comment"`
}

// FlowCount is the number of streamline seeds. An unset count means
// DefaultFlows; an explicit 0 disables streamlines.
func (p Plot) FlowCount() int {
	if p.Flows == nil {
		return DefaultFlows
	}
	return *p.Flows
}

// SetFlows overrides the seed count.
func (p *Plot) SetFlows(n int) {
	p.Flows = &n
}

// ExtendSeeds reports whether seeds cover twice the window; true when unset.
func (p Plot) ExtendSeeds() bool {
	return p.Extend == nil || *p.Extend
}

// Trace overrides tracer tuning. Zero values keep the defaults.
type Trace struct {
	MaxChange      float64 `yaml:"max_change,omitempty" json:"max_change,omitempty"`
	IterationCap   int     `yaml:"iteration_cap,omitempty" json:"iteration_cap,omitempty"`
	MinStepDivisor float64 `yaml:"min_step_divisor,omitempty" json:"min_step_divisor,omitempty"`
	MaxStepDivisor float64 `yaml:"max_step_divisor,omitempty" json:"max_step_divisor,omitempty"`
}

// Config is a complete simulation description.
type Config struct {
	Name       string  `yaml:"name" json:"name"`
	Wavelength float64 `yaml:"wavelength" json:"wavelength"`
	Units      string  `yaml:"units" json:"units"`
	HostIndex  float64 `yaml:"host_index" json:"host_index"`
	Layers     []Layer `yaml:"layers" json:"layers"`
	Plot       Plot    `yaml:"plot" json:"plot"`
	Trace      Trace   `yaml:"trace" json:"trace"`
}

// Load reads and validates a YAML file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Preset returns a bundled configuration by case-insensitive name.
func Preset(name string) (*Config, error) {
	for _, known := range Presets() {
		if strings.EqualFold(known, strings.TrimSpace(name)) {
			data, err := presetFS.ReadFile(path.Join("presets", known+".yaml"))
			if err != nil {
				return nil, err
			}
			return Parse(data)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Presets lists the bundled preset names in sorted order.
func Presets() []string {
	entries, _ := presetFS.ReadDir("presets")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}

func (c *Config) applyDefaults() {
	if c.HostIndex == 0 {
		c.HostIndex = 1
	}
	if c.Plot.Plane == "" {
		c.Plot.Plane = DefaultPlane
	}
	if c.Plot.Quantity == "" {
		c.Plot.Quantity = DefaultQuantity
	}
	if c.Plot.Points == 0 {
		c.Plot.Points = DefaultPoints
	}
	if c.Plot.Factor == 0 {
		c.Plot.Factor = DefaultFactor
	}
	if c.Plot.Flows == nil {
		c.Plot.SetFlows(DefaultFlows)
	}
	if c.Plot.Comment == "" {
		c.Plot.Comment = c.Name
	}
}

// Validate checks the document without building a particle.
func (c *Config) Validate() error {
	if !(c.Wavelength > 0) || math.IsInf(c.Wavelength, 0) {
		return fmt.Errorf("%w: wavelength must be positive, got %v", ErrInvalidConfig, c.Wavelength)
	}
	if !(c.HostIndex > 0) {
		return fmt.Errorf("%w: host_index must be positive, got %v", ErrInvalidConfig, c.HostIndex)
	}
	if len(c.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidConfig)
	}
	for i, l := range c.Layers {
		if (l.Width != 0) == (l.Radius != 0) {
			return fmt.Errorf("%w: layer %d: set exactly one of width or radius", ErrInvalidConfig, i)
		}
		if (l.Index != nil) == (l.Permittivity != nil) {
			return fmt.Errorf("%w: layer %d: set exactly one of index or permittivity", ErrInvalidConfig, i)
		}
	}
	if _, err := field.ParsePlane(c.Plot.Plane); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := fieldmap.ParseQuantity(c.Plot.Quantity); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Plot.Points < 2 {
		return fmt.Errorf("%w: plot.points must be at least 2, got %d", ErrInvalidConfig, c.Plot.Points)
	}
	if !(c.Plot.Factor > 0) {
		return fmt.Errorf("%w: plot.factor must be positive, got %v", ErrInvalidConfig, c.Plot.Factor)
	}
	if c.Plot.FlowCount() < 0 {
		return fmt.Errorf("%w: plot.flows must not be negative, got %d", ErrInvalidConfig, c.Plot.FlowCount())
	}
	if c.Trace.MaxChange < 0 || c.Trace.IterationCap < 0 || c.Trace.MinStepDivisor < 0 || c.Trace.MaxStepDivisor < 0 {
		return fmt.Errorf("%w: trace settings must not be negative", ErrInvalidConfig)
	}
	_, err := c.Particle()
	return err
}

// Radii returns the outer radius of every layer in wavelength units.
func (c *Config) Radii() []float64 {
	radii := make([]float64, len(c.Layers))
	r := 0.0
	for i, l := range c.Layers {
		if l.Radius != 0 {
			r = l.Radius
		} else {
			r += l.Width
		}
		radii[i] = r
	}
	return radii
}

// Particle converts radii to size parameters and indices to values relative
// to the host.
func (c *Config) Particle() (field.Particle, error) {
	radii := c.Radii()
	x := make([]float64, len(radii))
	m := make([]complex128, len(radii))
	for i, r := range radii {
		x[i] = field.SizeParameter(r, c.Wavelength, c.HostIndex)
		m[i] = c.Layers[i].RefractiveIndex() / complex(c.HostIndex, 0)
	}
	return field.NewParticle(x, m)
}

// PlotPlane returns the parsed plot plane.
func (c *Config) PlotPlane() field.Plane {
	p, _ := field.ParsePlane(c.Plot.Plane)
	return p
}

// PlotQuantity returns the parsed plot quantity.
func (c *Config) PlotQuantity() fieldmap.Quantity {
	q, _ := fieldmap.ParseQuantity(c.Plot.Quantity)
	return q
}

// Seeds returns the seed layout options for the plot settings.
func (c *Config) Seeds() flow.SeedOptions {
	return flow.SeedOptions{Flows: c.Plot.FlowCount(), Factor: c.Plot.Factor, Extend: c.Plot.ExtendSeeds()}
}

// TraceParams returns the tracer settings for particle with the trace
// overrides applied.
func (c *Config) TraceParams(particle field.Particle) streamline.Params {
	params := flow.DefaultParams(particle, c.Plot.Factor)
	if c.Trace.MaxChange > 0 {
		params.MaxChange = c.Trace.MaxChange
	}
	if c.Trace.IterationCap > 0 {
		params.IterationCap = c.Trace.IterationCap
	}
	if c.Trace.MinStepDivisor > 0 {
		params.MinStep = particle.Core() / c.Trace.MinStepDivisor
	}
	if c.Trace.MaxStepDivisor > 0 {
		params.MaxStep = particle.Outer() / c.Trace.MaxStepDivisor
	}
	if params.MaxStep < params.MinStep {
		params.MaxStep = params.MinStep
	}
	return params
}

// Scale converts a size-parameter coordinate to physical length.
func (c *Config) Scale() float64 {
	return c.Wavelength / (2 * math.Pi * c.HostIndex)
}
