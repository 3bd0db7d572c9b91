// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Seeding modes for ParticlesConfig.Mode.
const (
	ModeRandom  = "random"
	ModePerCell = "per_cell"
)

// Initial velocity fields for ParticlesConfig.Velocity.
const (
	VelocityUniform = "uniform"
	VelocityCurl    = "curl"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Particles ParticlesConfig `yaml:"particles"`
	Solver    SolverConfig    `yaml:"solver"`
	Frame     FrameConfig     `yaml:"frame"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds the domain extent and resolution.
type GridConfig struct {
	Width             float64 `yaml:"width"`
	Height            float64 `yaml:"height"`
	Columns           int     `yaml:"columns"`
	Rows              int     `yaml:"rows"`
	BoundaryThickness int     `yaml:"boundary_thickness"` // SOLID ring width in cells
}

// RegionConfig is an axis-aligned seeding rectangle in world units.
// An all-zero region means the whole non-SOLID interior.
type RegionConfig struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

// IsZero reports whether the region was left unset.
func (r RegionConfig) IsZero() bool {
	return r == RegionConfig{}
}

// ParticlesConfig holds particle pool seeding parameters.
type ParticlesConfig struct {
	Count    int          `yaml:"count"`
	Seed     uint64       `yaml:"seed"`
	MaxSpeed float64      `yaml:"max_speed"` // Initial velocity components in [-max, max]
	Mode     string       `yaml:"mode"`      // random | per_cell
	PerCell  int          `yaml:"per_cell"`  // Particles per cell in per_cell mode
	Region   RegionConfig `yaml:"region"`

	Velocity   string  `yaml:"velocity"`    // uniform | curl
	NoiseScale float64 `yaml:"noise_scale"` // Curl noise frequency per world unit
}

// SolverConfig holds the time-step and pressure-projection parameters.
type SolverConfig struct {
	Pressure      bool    `yaml:"pressure"`
	CFL           float64 `yaml:"cfl"`
	FluidDensity  float64 `yaml:"fluid_density"`
	Tolerance     float64 `yaml:"tolerance"`      // CG tolerance relative to |b|
	MaxIterations int     `yaml:"max_iterations"` // 0 = twice the unknown count
}

// FrameConfig holds frame pacing.
type FrameConfig struct {
	Rate        float64 `yaml:"rate"`         // Frames per simulated second
	MaxSubsteps int     `yaml:"max_substeps"` // Guard against a runaway CFL loop
}

// TelemetryConfig holds telemetry collection parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Frames per aggregated window
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	FrameDuration float64 // 1 / Frame.Rate
	CellWidth     float64 // Grid.Width / Grid.Columns
	CellHeight    float64 // Grid.Height / Grid.Rows
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()
	return cfg, nil
}

// Validate checks for values the simulator cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Grid.Width <= 0 || c.Grid.Height <= 0:
		return fmt.Errorf("%w: grid extent %gx%g", ErrInvalid, c.Grid.Width, c.Grid.Height)
	case c.Grid.Columns <= 0 || c.Grid.Rows <= 0:
		return fmt.Errorf("%w: grid resolution %dx%d", ErrInvalid, c.Grid.Columns, c.Grid.Rows)
	case c.Grid.BoundaryThickness < 0:
		return fmt.Errorf("%w: grid.boundary_thickness %d", ErrInvalid, c.Grid.BoundaryThickness)
	case 2*c.Grid.BoundaryThickness >= c.Grid.Columns || 2*c.Grid.BoundaryThickness >= c.Grid.Rows:
		return fmt.Errorf("%w: boundary of %d cells leaves no interior in %dx%d",
			ErrInvalid, c.Grid.BoundaryThickness, c.Grid.Columns, c.Grid.Rows)
	case c.Particles.Count < 0:
		return fmt.Errorf("%w: particles.count %d", ErrInvalid, c.Particles.Count)
	case c.Particles.MaxSpeed < 0:
		return fmt.Errorf("%w: particles.max_speed %g", ErrInvalid, c.Particles.MaxSpeed)
	case c.Particles.Mode != ModeRandom && c.Particles.Mode != ModePerCell:
		return fmt.Errorf("%w: particles.mode %q", ErrInvalid, c.Particles.Mode)
	case c.Particles.Mode == ModePerCell && c.Particles.PerCell <= 0:
		return fmt.Errorf("%w: particles.per_cell %d", ErrInvalid, c.Particles.PerCell)
	case c.Particles.Velocity != VelocityUniform && c.Particles.Velocity != VelocityCurl:
		return fmt.Errorf("%w: particles.velocity %q", ErrInvalid, c.Particles.Velocity)
	case c.Particles.Velocity == VelocityCurl && c.Particles.NoiseScale <= 0:
		return fmt.Errorf("%w: particles.noise_scale %g", ErrInvalid, c.Particles.NoiseScale)
	case !c.Particles.Region.IsZero() &&
		(c.Particles.Region.MinX >= c.Particles.Region.MaxX || c.Particles.Region.MinY >= c.Particles.Region.MaxY):
		return fmt.Errorf("%w: particles.region %+v", ErrInvalid, c.Particles.Region)
	case c.Solver.CFL <= 0:
		return fmt.Errorf("%w: solver.cfl %g", ErrInvalid, c.Solver.CFL)
	case c.Solver.FluidDensity <= 0:
		return fmt.Errorf("%w: solver.fluid_density %g", ErrInvalid, c.Solver.FluidDensity)
	case c.Solver.Tolerance <= 0:
		return fmt.Errorf("%w: solver.tolerance %g", ErrInvalid, c.Solver.Tolerance)
	case c.Solver.MaxIterations < 0:
		return fmt.Errorf("%w: solver.max_iterations %d", ErrInvalid, c.Solver.MaxIterations)
	case c.Frame.Rate <= 0:
		return fmt.Errorf("%w: frame.rate %g", ErrInvalid, c.Frame.Rate)
	case c.Frame.MaxSubsteps <= 0:
		return fmt.Errorf("%w: frame.max_substeps %d", ErrInvalid, c.Frame.MaxSubsteps)
	case c.Telemetry.StatsWindow <= 0:
		return fmt.Errorf("%w: telemetry.stats_window %d", ErrInvalid, c.Telemetry.StatsWindow)
	}
	return nil
}

// ComputeDerived recalculates values derived from the loaded config. Call it
// again after changing fields programmatically.
func (c *Config) ComputeDerived() {
	c.Derived.FrameDuration = 1 / c.Frame.Rate
	c.Derived.CellWidth = c.Grid.Width / float64(c.Grid.Columns)
	c.Derived.CellHeight = c.Grid.Height / float64(c.Grid.Rows)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
