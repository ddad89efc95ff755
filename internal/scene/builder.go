// Package scene populates a physics world, either from a YAML scene file or
// from one of the procedural scene generators.
package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/physics"
)

var (
	ErrUnknownBodyType = errors.New("unknown body type")
	ErrUnknownScene    = errors.New("unknown scene")
)

// BodySpec describes one body to add. A zero mass makes the body stationary.
type BodySpec struct {
	Type     string
	Mass     float64
	Position mgl64.Vec2
	Velocity mgl64.Vec2
	Angle    float64
	Radius   float64
	Width    float64
	Height   float64
}

// Option adjusts a body before it is added to the world.
type Option func(*physics.Body)

func WithRestitution(r float64) Option {
	return func(b *physics.Body) { b.Physics().SetRestitution(r) }
}

func WithFriction(f float64) Option {
	return func(b *physics.Body) { b.Physics().SetXYFriction(f) }
}

// Builder adds bodies to a world. Dynamic bodies share one gravity
// generator.
type Builder struct {
	world    *physics.World
	gravity  *physics.GravityGenerator
	friction float64
	bodies   []*physics.Body
	dynamic  int
}

func NewBuilder(w *physics.World, gravity mgl64.Vec2) *Builder {
	return &Builder{
		world:   w,
		gravity: physics.NewGravityGenerator(gravity.Vec3(0)),
	}
}

// SetFriction sets the XY friction given to dynamic bodies.
func (b *Builder) SetFriction(f float64) { b.friction = f }

func (b *Builder) World() *physics.World              { return b.world }
func (b *Builder) Gravity() *physics.GravityGenerator { return b.gravity }
func (b *Builder) Bodies() []*physics.Body            { return b.bodies }
func (b *Builder) DynamicCount() int                  { return b.dynamic }

// Add creates the body described by spec and adds it to the world.
func (b *Builder) Add(spec BodySpec, opts ...Option) (*physics.Body, error) {
	shape, err := newShape(spec)
	if err != nil {
		return nil, err
	}
	body := b.world.NewBody(strings.ToLower(spec.Type))
	body.SetShape(shape)
	body.Rotate(spec.Angle)
	body.Translate(spec.Position.Vec3(0))
	p := body.Physics()
	stationary := spec.Mass <= 0
	p.SetMass(spec.Mass, stationary)
	if !stationary {
		p.SetVelocity(spec.Velocity.Vec3(0))
		p.SetXYFriction(b.friction)
	}
	for _, opt := range opts {
		opt(body)
	}

	b.world.AddObject(body)
	b.bodies = append(b.bodies, body)
	if !stationary {
		b.dynamic++
		b.world.ForceRegistry().AddForceGenerator(b.gravity, body)
	}
	return body, nil
}

func (b *Builder) AddCircle(mass float64, pos mgl64.Vec2, radius float64, opts ...Option) *physics.Body {
	body, err := b.Add(BodySpec{Type: "circle", Mass: mass, Position: pos, Radius: radius}, opts...)
	if err != nil {
		panic(err)
	}
	return body
}

func (b *Builder) AddBox(mass float64, pos mgl64.Vec2, width, height float64, opts ...Option) *physics.Body {
	body, err := b.Add(BodySpec{Type: "box", Mass: mass, Position: pos, Width: width, Height: height}, opts...)
	if err != nil {
		panic(err)
	}
	return body
}

func newShape(spec BodySpec) (*physics.Shape, error) {
	switch strings.ToLower(spec.Type) {
	case "circle":
		if spec.Radius <= 0 {
			return nil, fmt.Errorf("circle radius must be positive, got %g", spec.Radius)
		}
		return physics.NewCircle(spec.Radius), nil
	case "box", "rect":
		if spec.Width <= 0 || spec.Height <= 0 {
			return nil, fmt.Errorf("box size must be positive, got %gx%g", spec.Width, spec.Height)
		}
		return physics.NewRect(spec.Width, spec.Height), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBodyType, spec.Type)
}
