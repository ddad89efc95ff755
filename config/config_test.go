package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0x5844/minicore/physics"
)

func TestDefaultMatchesPhysicsDefaults(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	s, err := c.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if s.Defaults != physics.DefaultBodyDefaults() {
		t.Errorf("Defaults = %+v", s.Defaults)
	}
	if s.Iterations != physics.DefaultIterations {
		t.Errorf("Iterations = %d", s.Iterations)
	}
	want := physics.DefaultDimensions()
	want.BoundaryWalls = true
	if c.Dimensions() != want {
		t.Errorf("Dimensions = %+v", c.Dimensions())
	}
}

func TestDecodeOverridesDefaults(t *testing.T) {
	src := `
world:
  min_x: -50
  max_x: 50
  boundary_walls: false
solver:
  iterations: 8
defaults:
  restitution: 0.9
  max_speed: 40
simulation:
  scene_type: pyramid
  bodies: 25
`
	c, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	d := c.Dimensions()
	if d.MinX != -50 || d.MaxX != 50 || d.BoundaryWalls {
		t.Errorf("Dimensions = %+v", d)
	}
	if d.MinY != -100 {
		t.Errorf("unset key lost its default: min_y = %v", d.MinY)
	}
	s, err := c.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if s.Iterations != 8 || s.Defaults.Restitution != 0.9 || s.Defaults.MaxSpeed != 40 {
		t.Errorf("Settings = %+v", s)
	}
	if s.Defaults.LinearDamping != 0.999 {
		t.Errorf("LinearDamping = %v, want the default", s.Defaults.LinearDamping)
	}
	if c.Simulation.SceneType != "pyramid" || c.Simulation.Bodies != 25 {
		t.Errorf("Simulation = %+v", c.Simulation)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "world:\n  size: 3\n"},
		{"bad type", "solver:\n  iterations: many\n"},
		{"bad scene", "simulation:\n  scene_type: volcano\n"},
		{"bad fps", "simulation:\n  fps: 0\n"},
		{"no bodies", "simulation:\n  bodies: 0\n"},
		{"inverted world", "world:\n  min_x: 10\n  max_x: -10\n"},
		{"negative iterations", "solver:\n  iterations: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestInvalidWorldWrapsDimensionsError(t *testing.T) {
	_, err := Decode(strings.NewReader("world:\n  meters_per_unit: -1\n"))
	if !errors.Is(err, physics.ErrInvalidDimensions) {
		t.Errorf("err = %v, want ErrInvalidDimensions in the chain", err)
	}
}

func TestEmptyDocumentIsDefault(t *testing.T) {
	c, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if c.Simulation != Default().Simulation {
		t.Errorf("Simulation = %+v", c.Simulation)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	c := Default()
	c.Simulation.Bodies = 7
	c.World.GridCells = 64
	data, err := c.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "minicore.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *c {
		t.Errorf("loaded %+v, want %+v", loaded, c)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file loaded")
	}
}
