package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/geom"
)

// NoTag disables collision tag filtering.
const NoTag = -1

// sleepSteps is how many consecutive slow steps put a body to sleep.
const sleepSteps = 2

// PhysicsComponent holds the dynamics of one body and integrates it.
type PhysicsComponent struct {
	body *Body

	mass, invMass       float64
	inertia, invInertia float64
	explicitInertia     bool

	velocity     mgl64.Vec3
	acceleration mgl64.Vec3
	forces       mgl64.Vec3
	impulse      mgl64.Vec3

	angularVelocity     float64
	angularAcceleration float64
	torque              float64
	angularImpulse      float64

	restitution    float64
	xyFriction     float64
	linearDamping  float64
	angularDamping float64
	maxSpeed       float64

	sleepLinear  float64
	sleepAngular float64
	sleepCount   int

	sleeping          bool
	sleepingPrevented bool
	stationary        bool

	collisionTag        int
	neverCollideWithTag int
}

func (p *PhysicsComponent) init(b *Body, d Defaults) {
	*p = PhysicsComponent{
		body:                b,
		restitution:         geom.Clamp(d.Restitution, 0, 1),
		linearDamping:       d.LinearDamping,
		angularDamping:      d.AngularDamping,
		maxSpeed:            d.MaxSpeed,
		sleepLinear:         d.SleepLinearThreshold,
		sleepAngular:        d.SleepAngularThreshold,
		collisionTag:        NoTag,
		neverCollideWithTag: NoTag,
	}
	mass := d.Mass
	if mass <= 0 {
		mass = 1
	}
	p.SetMass(mass, false)
}

// SetMass sets the mass. A stationary body gets infinite mass: inverse mass
// zero, all motion reset and the body put to sleep.
func (p *PhysicsComponent) SetMass(mass float64, stationary bool) {
	p.mass = mass
	if stationary || mass <= 0 {
		p.invMass = 0
		p.stationary = true
		p.Reset()
		p.putToSleep()
	} else {
		p.invMass = 1 / mass
		p.stationary = false
	}
	if !p.explicitInertia {
		p.updateDefaultInertia()
	}
}

func (p *PhysicsComponent) updateDefaultInertia() {
	p.inertia = 0
	if s := p.body.shape; s != nil && p.mass > 0 {
		p.inertia = s.MomentOfInertia(p.mass)
	}
	p.refreshInvInertia()
}

func (p *PhysicsComponent) refreshInvInertia() {
	if p.inertia > 0 && !p.stationary {
		p.invInertia = 1 / p.inertia
	} else {
		p.invInertia = 0
	}
}

func (p *PhysicsComponent) Mass() float64    { return p.mass }
func (p *PhysicsComponent) InvMass() float64 { return p.invMass }

// SetMomentOfInertia overrides the shape-derived default.
func (p *PhysicsComponent) SetMomentOfInertia(inertia float64) {
	p.inertia = math.Max(0, inertia)
	p.explicitInertia = true
	p.refreshInvInertia()
}

func (p *PhysicsComponent) MomentOfInertia() float64    { return p.inertia }
func (p *PhysicsComponent) InvMomentOfInertia() float64 { return p.invInertia }

func (p *PhysicsComponent) SetRestitution(r float64) { p.restitution = geom.Clamp(r, 0, 1) }
func (p *PhysicsComponent) Restitution() float64     { return p.restitution }

// SetXYFriction sets the friction coefficient against the XY plane. It is
// applied by a friction generator that the world attaches in AddObject.
func (p *PhysicsComponent) SetXYFriction(f float64) { p.xyFriction = math.Max(0, f) }
func (p *PhysicsComponent) XYFriction() float64     { return p.xyFriction }

// SetVelocity sets the linear velocity and wakes the body. Stationary
// bodies ignore it.
func (p *PhysicsComponent) SetVelocity(v mgl64.Vec3) {
	if p.stationary {
		return
	}
	p.velocity = v
	p.wake()
}

func (p *PhysicsComponent) Velocity() mgl64.Vec3 { return p.velocity }

func (p *PhysicsComponent) SetAngularVelocity(w float64) {
	if p.stationary {
		return
	}
	p.angularVelocity = w
	p.wake()
}

func (p *PhysicsComponent) AngularVelocity() float64 { return p.angularVelocity }

func (p *PhysicsComponent) SetAcceleration(a mgl64.Vec3) {
	p.acceleration = a
	p.wake()
}

func (p *PhysicsComponent) Acceleration() mgl64.Vec3 { return p.acceleration }

func (p *PhysicsComponent) SetAngularAcceleration(a float64) {
	p.angularAcceleration = a
	p.wake()
}

func (p *PhysicsComponent) AddForce(f mgl64.Vec3) {
	p.forces = p.forces.Add(f)
	p.wake()
}

func (p *PhysicsComponent) Forces() mgl64.Vec3 { return p.forces }

func (p *PhysicsComponent) AddTorque(t float64) {
	p.torque += t
	p.wake()
}

func (p *PhysicsComponent) Torque() float64 { return p.torque }

// AddImpulse adds an instantaneous velocity change applied on the next
// integration.
func (p *PhysicsComponent) AddImpulse(impulse mgl64.Vec3) {
	p.impulse = p.impulse.Add(impulse)
	p.wake()
}

func (p *PhysicsComponent) Impulse() mgl64.Vec3 { return p.impulse }

func (p *PhysicsComponent) AddAngularImpulse(impulse float64) {
	p.angularImpulse += impulse
	p.wake()
}

func (p *PhysicsComponent) AngularImpulse() float64 { return p.angularImpulse }

func (p *PhysicsComponent) SetLinearDamping(d float64)  { p.linearDamping = d }
func (p *PhysicsComponent) SetAngularDamping(d float64) { p.angularDamping = d }
func (p *PhysicsComponent) SetMaxSpeed(s float64)       { p.maxSpeed = s }
func (p *PhysicsComponent) MaxSpeed() float64           { return p.maxSpeed }

// SetSleepThresholds sets the linear and angular speeds below which the
// body may fall asleep.
func (p *PhysicsComponent) SetSleepThresholds(linear, angular float64) {
	p.sleepLinear, p.sleepAngular = linear, angular
}

// PreventSleeping keeps the body awake while set.
func (p *PhysicsComponent) PreventSleeping(prevent bool) {
	p.sleepingPrevented = prevent
	if prevent {
		p.sleepCount = 0
		p.wake()
	}
}

func (p *PhysicsComponent) IsSleepingPrevented() bool { return p.sleepingPrevented }
func (p *PhysicsComponent) IsSleeping() bool          { return p.sleeping }
func (p *PhysicsComponent) IsStationary() bool        { return p.stationary }

func (p *PhysicsComponent) SetCollisionTag(tag int) { p.collisionTag = tag }
func (p *PhysicsComponent) CollisionTag() int       { return p.collisionTag }

// SetNeverCollideWithTag excludes collisions with bodies carrying tag.
func (p *PhysicsComponent) SetNeverCollideWithTag(tag int) { p.neverCollideWithTag = tag }
func (p *PhysicsComponent) NeverCollideWithTag() int       { return p.neverCollideWithTag }

// Reset zeroes velocities, forces and impulses.
func (p *PhysicsComponent) Reset() {
	p.velocity = mgl64.Vec3{}
	p.angularVelocity = 0
	p.acceleration = mgl64.Vec3{}
	p.angularAcceleration = 0
	p.resetAccumulators()
	p.sleepCount = 0
}

func (p *PhysicsComponent) resetAccumulators() {
	p.forces = mgl64.Vec3{}
	p.torque = 0
	p.impulse = mgl64.Vec3{}
	p.angularImpulse = 0
}

// wake restores a sleeping body into the integration set. Stationary bodies
// stay asleep.
func (p *PhysicsComponent) wake() {
	if !p.sleeping || p.stationary {
		return
	}
	p.sleeping = false
	p.sleepCount = 0
	b := p.body
	if b.world != nil && !b.removing {
		b.world.addToIntegration(b)
	}
	for _, child := range b.children {
		child.physics.sleeping = false
		if child.world != nil && !child.removing {
			child.world.addToIntegration(child)
		}
	}
}

func (p *PhysicsComponent) putToSleep() {
	p.velocity = mgl64.Vec3{}
	p.angularVelocity = 0
	p.resetAccumulators()
	p.sleepCount = 0
	p.sleeping = true
	b := p.body
	if b.world != nil {
		b.world.removeFromIntegration(b)
	}
	for _, child := range b.children {
		child.physics.sleeping = true
		if child.world != nil {
			child.world.removeFromIntegration(child)
		}
	}
}

// trySleep counts slow steps and puts the body to sleep after sleepSteps
// of them in a row.
func (p *PhysicsComponent) trySleep() bool {
	if p.sleepingPrevented {
		p.sleepCount = 0
		return false
	}
	if p.velocity.Len() < p.sleepLinear && math.Abs(p.angularVelocity) < p.sleepAngular {
		p.sleepCount++
		if p.sleepCount >= sleepSteps {
			p.putToSleep()
			return true
		}
		return false
	}
	p.sleepCount = 0
	return false
}

// integrate advances the body by dt seconds.
func (p *PhysicsComponent) integrate(dt float64) {
	if p.sleeping || p.stationary {
		return
	}
	b := p.body

	p.velocity = p.velocity.Add(p.impulse)
	p.velocity = p.velocity.Add(p.acceleration.Add(p.forces.Mul(p.invMass)).Mul(dt)).Mul(p.linearDamping)
	p.velocity = geom.ClampLength3(p.velocity, p.maxSpeed)

	var rotation float64
	if b.shape != nil && p.inertia > 0 {
		p.angularVelocity += p.angularImpulse
		p.angularVelocity = (p.angularVelocity + (p.angularAcceleration+p.torque*p.invInertia)*dt) * p.angularDamping
		rotation = mgl64.RadToDeg(p.angularVelocity * dt)
	}

	if p.trySleep() {
		return
	}

	p.resetAccumulators()
	if rotation != 0 {
		b.Rotate(b.angle + rotation)
	}
	b.Translate(b.location.Add(p.velocity.Mul(dt)))
	b.checkBoundaries()
}
