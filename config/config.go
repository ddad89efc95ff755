// Package config loads the YAML configuration of the simulator and maps it
// onto the physics settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"

	"github.com/0x5844/minicore/physics"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root of a configuration file.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Solver     SolverConfig     `yaml:"solver"`
	Defaults   DefaultsConfig   `yaml:"defaults"`
	Simulation SimulationConfig `yaml:"simulation"`
}

type WorldConfig struct {
	MinX          float64 `yaml:"min_x"`
	MaxX          float64 `yaml:"max_x"`
	MinY          float64 `yaml:"min_y"`
	MaxY          float64 `yaml:"max_y"`
	MinZ          float64 `yaml:"min_z"`
	MaxZ          float64 `yaml:"max_z"`
	MetersPerUnit float64 `yaml:"meters_per_unit"`
	BoundaryWalls bool    `yaml:"boundary_walls"`
	GridCells     int     `yaml:"grid_cells"`
}

type SolverConfig struct {
	Iterations            int     `yaml:"iterations"`
	AngularImpulseScaling float64 `yaml:"angular_impulse_scaling"`
	FrictionThreshold     float64 `yaml:"friction_threshold"`
	FrictionGravity       float64 `yaml:"friction_gravity"`
}

// DefaultsConfig mirrors physics.Defaults field by field.
type DefaultsConfig struct {
	Mass                  float64 `yaml:"mass"`
	Restitution           float64 `yaml:"restitution"`
	LinearDamping         float64 `yaml:"linear_damping"`
	AngularDamping        float64 `yaml:"angular_damping"`
	MaxSpeed              float64 `yaml:"max_speed"`
	SleepLinearThreshold  float64 `yaml:"sleep_linear_threshold"`
	SleepAngularThreshold float64 `yaml:"sleep_angular_threshold"`
}

type SimulationConfig struct {
	// StepMS is the fixed physics step in milliseconds.
	StepMS        float64 `yaml:"step_ms"`
	FPS           int     `yaml:"fps"`
	Duration      float64 `yaml:"duration"`
	StatsInterval float64 `yaml:"stats_interval"`
	GravityX      float64 `yaml:"gravity_x"`
	GravityY      float64 `yaml:"gravity_y"`
	Friction      float64 `yaml:"friction"`
	SceneType     string  `yaml:"scene_type"`
	SceneFile     string  `yaml:"scene_file"`
	Bodies        int     `yaml:"bodies"`
	Seed          int64   `yaml:"seed"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dims := physics.DefaultDimensions()
	settings := physics.DefaultSettings()
	c := &Config{
		World: WorldConfig{
			MinX: dims.MinX, MaxX: dims.MaxX,
			MinY: dims.MinY, MaxY: dims.MaxY,
			MinZ: dims.MinZ, MaxZ: dims.MaxZ,
			MetersPerUnit: dims.MetersPerUnit,
			BoundaryWalls: true,
			GridCells:     dims.GridCells,
		},
		Solver: SolverConfig{
			Iterations:            settings.Iterations,
			AngularImpulseScaling: settings.AngularImpulseScaling,
			FrictionThreshold:     settings.FrictionThreshold,
			FrictionGravity:       settings.FrictionGravity,
		},
		Simulation: SimulationConfig{
			StepMS:        1000.0 / 60.0,
			FPS:           60,
			StatsInterval: 2.0,
			GravityY:      -9.81,
			SceneType:     "default",
			Bodies:        100,
		},
	}
	if err := copier.Copy(&c.Defaults, &settings.Defaults); err != nil {
		panic(err)
	}
	return c
}

// Load reads path on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode parses a YAML document on top of the defaults. Unknown keys are
// rejected.
func Decode(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

var sceneTypes = map[string]bool{
	"default": true, "pyramid": true, "rain": true,
	"container": true, "pendulum": true, "mixed": true,
}

func (c *Config) Validate() error {
	s := c.Simulation
	switch {
	case s.FPS < 1 || s.FPS > 1000:
		return fmt.Errorf("%w: fps must be between 1 and 1000", ErrInvalidConfig)
	case s.StepMS <= 0:
		return fmt.Errorf("%w: step must be positive", ErrInvalidConfig)
	case s.Duration < 0:
		return fmt.Errorf("%w: duration cannot be negative", ErrInvalidConfig)
	case s.StatsInterval <= 0:
		return fmt.Errorf("%w: stats interval must be positive", ErrInvalidConfig)
	case s.Bodies < 1:
		return fmt.Errorf("%w: bodies count must be at least 1", ErrInvalidConfig)
	case c.Solver.Iterations < 0:
		return fmt.Errorf("%w: iterations cannot be negative", ErrInvalidConfig)
	case !sceneTypes[s.SceneType]:
		return fmt.Errorf("%w: invalid scene type: %s", ErrInvalidConfig, s.SceneType)
	}
	if err := c.Dimensions().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Settings builds the solver settings.
func (c *Config) Settings() (physics.Settings, error) {
	s := physics.DefaultSettings()
	s.Iterations = c.Solver.Iterations
	s.AngularImpulseScaling = c.Solver.AngularImpulseScaling
	s.FrictionThreshold = c.Solver.FrictionThreshold
	s.FrictionGravity = c.Solver.FrictionGravity
	if err := copier.Copy(&s.Defaults, &c.Defaults); err != nil {
		return s, fmt.Errorf("copy body defaults: %w", err)
	}
	return s, nil
}

func (c *Config) Dimensions() physics.Dimensions {
	w := c.World
	return physics.Dimensions{
		MinX: w.MinX, MaxX: w.MaxX,
		MinY: w.MinY, MaxY: w.MaxY,
		MinZ: w.MinZ, MaxZ: w.MaxZ,
		MetersPerUnit: w.MetersPerUnit,
		BoundaryWalls: w.BoundaryWalls,
		GridCells:     w.GridCells,
	}
}
