package scene

import (
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// File is a scene description.
type File struct {
	Gravity  Vec2         `yaml:"gravity"`
	Duration float64      `yaml:"duration"`
	Bodies   []BodyConfig `yaml:"bodies"`
}

type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v Vec2) Vec() mgl64.Vec2 { return mgl64.Vec2{v.X, v.Y} }

type BodyConfig struct {
	Type        string      `yaml:"type"`
	Mass        float64     `yaml:"mass"`
	Position    Vec2        `yaml:"position"`
	Velocity    Vec2        `yaml:"velocity"`
	Angle       float64     `yaml:"angle,omitempty"`
	Restitution *float64    `yaml:"restitution,omitempty"`
	Friction    *float64    `yaml:"friction,omitempty"`
	Shape       ShapeConfig `yaml:"shape"`
}

type ShapeConfig struct {
	Radius float64 `yaml:"radius,omitempty"`
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
}

func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func Decode(r io.Reader) (*File, error) {
	var s File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return &s, nil
}

// Build adds every body of the scene. The builder's gravity generator is
// not changed; use the scene gravity when creating the builder.
func (s *File) Build(b *Builder) error {
	for i, bc := range s.Bodies {
		var opts []Option
		if bc.Restitution != nil {
			opts = append(opts, WithRestitution(*bc.Restitution))
		}
		if bc.Friction != nil {
			opts = append(opts, WithFriction(*bc.Friction))
		}
		_, err := b.Add(BodySpec{
			Type:     bc.Type,
			Mass:     bc.Mass,
			Position: bc.Position.Vec(),
			Velocity: bc.Velocity.Vec(),
			Angle:    bc.Angle,
			Radius:   bc.Shape.Radius,
			Width:    bc.Shape.Width,
			Height:   bc.Shape.Height,
		}, opts...)
		if err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
	}
	return nil
}
