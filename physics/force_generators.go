package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/geom"
)

// GravityGenerator pulls a body with a constant acceleration.
type GravityGenerator struct {
	ForceGeneratorBase
	gravity mgl64.Vec3
}

func NewGravityGenerator(gravity mgl64.Vec3) *GravityGenerator {
	return &GravityGenerator{gravity: gravity}
}

func (g *GravityGenerator) UpdateForce(b *Body, _ float64) {
	p := &b.physics
	if p.stationary {
		return
	}
	p.AddForce(g.gravity.Mul(p.mass))
}

// FrictionGenerator simulates friction against the XY plane. The force never
// exceeds what is needed to stop the body within one step.
type FrictionGenerator struct {
	ForceGeneratorBase
	coeffLin, coeffRot float64
	gravity            float64
}

func NewFrictionGenerator(coeffLin, coeffRot, gravity float64) *FrictionGenerator {
	return &FrictionGenerator{coeffLin: coeffLin, coeffRot: coeffRot, gravity: gravity}
}

func (g *FrictionGenerator) UpdateForce(b *Body, dt float64) {
	p := &b.physics
	if p.stationary || dt <= 0 {
		return
	}
	v := p.velocity.Vec2()
	if speed := v.Len(); speed > 0 {
		mag := math.Min(g.coeffLin*g.gravity*p.mass, speed*p.mass/dt)
		p.AddForce(geom.Normalize(v).Mul(-mag).Vec3(0))
	}
	if w := p.angularVelocity; w != 0 && b.shape != nil && p.inertia > 0 {
		mag := math.Min(g.coeffRot*g.gravity*p.inertia, math.Abs(w)*p.inertia/dt)
		p.AddTorque(-math.Copysign(mag, w))
	}
}

// DragGenerator slows a body with linear and quadratic terms of its speed.
type DragGenerator struct {
	ForceGeneratorBase
	k1, k2 float64
}

func NewDragGenerator(k1, k2 float64) *DragGenerator {
	return &DragGenerator{k1: k1, k2: k2}
}

func (g *DragGenerator) UpdateForce(b *Body, dt float64) {
	p := &b.physics
	speed := p.velocity.Len()
	if speed == 0 || p.stationary || dt <= 0 {
		return
	}
	mag := math.Min(g.k1*speed+g.k2*speed*speed, speed*p.mass/dt)
	p.AddForce(geom.Normalize3(p.velocity).Mul(-mag))
}

// SpringGenerator pulls its body towards another body. The distance is
// kept within [minLength, maxLength] when those are positive. Both ends are
// kept awake while the spring is registered.
type SpringGenerator struct {
	ForceGeneratorBase
	other                *Body
	k                    float64
	restLength           float64
	minLength, maxLength float64
}

func NewSpringGenerator(other *Body, k, restLength, minLength, maxLength float64) *SpringGenerator {
	return &SpringGenerator{
		other:      other,
		k:          k,
		restLength: restLength,
		minLength:  minLength,
		maxLength:  maxLength,
	}
}

func (g *SpringGenerator) Other() *Body { return g.other }

func (g *SpringGenerator) attach(b *Body) {
	b.physics.PreventSleeping(true)
	g.other.physics.PreventSleeping(true)
}

func (g *SpringGenerator) detach(b *Body, held func(*Body) bool) {
	for _, end := range []*Body{b, g.other} {
		if !held(end) {
			end.physics.PreventSleeping(false)
		}
	}
}

func (g *SpringGenerator) involves(b *Body) bool { return g.other == b }

func (g *SpringGenerator) UpdateForce(b *Body, _ float64) {
	diff := b.location.Vec2().Sub(g.other.location.Vec2())
	length := diff.Len()
	dir := geom.Normalize(diff)
	if dir == (mgl64.Vec2{}) {
		return
	}
	anchor := g.other.location.Vec2()
	switch {
	case g.maxLength > 0 && length > g.maxLength:
		length = g.maxLength
		b.Translate(anchor.Add(dir.Mul(length)).Vec3(b.location[2]))
	case g.minLength > 0 && length < g.minLength:
		length = g.minLength
		b.Translate(anchor.Add(dir.Mul(length)).Vec3(b.location[2]))
	}
	b.physics.AddForce(dir.Mul(-(length - g.restLength) * g.k).Vec3(0))
}
