package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/geom"
)

// ImpulseGenerator turns contacts into impulses and positional corrections.
// Only the deepest contact of each pair is used; the pair's contacts are
// released once handled.
type ImpulseGenerator struct {
	pool          *ContactPool
	metersPerUnit float64
	angularScale  float64
}

func NewImpulseGenerator(pool *ContactPool, metersPerUnit, angularScale float64) *ImpulseGenerator {
	return &ImpulseGenerator{pool: pool, metersPerUnit: metersPerUnit, angularScale: angularScale}
}

// GenerateImpulsesFromDeepestContacts applies one collision impulse per
// colliding pair and consumes the contacts of bodies.
func (g *ImpulseGenerator) GenerateImpulsesFromDeepestContacts(bodies []*Body) {
	g.forEachDeepest(bodies, g.applyImpulse)
}

// ResolvePositions moves every colliding pair apart by accuracy times the
// deepest penetration, then consumes the contacts.
func (g *ImpulseGenerator) ResolvePositions(bodies []*Body, accuracy float64) {
	g.forEachDeepest(bodies, func(a, b *Body, c *Contact) {
		g.displace(a, b, c, accuracy)
	})
}

func (g *ImpulseGenerator) forEachDeepest(bodies []*Body, fn func(a, b *Body, c *Contact)) {
	for _, a := range bodies {
		for i := 0; i < len(a.contacts); i++ {
			group := &a.contacts[i]
			b := group.Other
			if c := group.deepest(); c != nil {
				fn(a, b, c)
			}
			b.deleteContacts(a, g.pool)
		}
		a.deleteAllContacts(g.pool)
	}
}

func massShares(pa, pb *PhysicsComponent) (float64, float64, bool) {
	sum := pa.invMass + pb.invMass
	if sum == 0 {
		return 0, 0, false
	}
	return pa.invMass / sum, pb.invMass / sum, true
}

func (g *ImpulseGenerator) applyImpulse(a, b *Body, c *Contact) {
	ra, rb := a.root(), b.root()
	pa, pb := &ra.physics, &rb.physics
	shareA, shareB, ok := massShares(pa, pb)
	if !ok {
		return
	}

	n := c.normal
	projection := n.Dot(pb.velocity.Vec2().Sub(pa.velocity.Vec2()))
	if projection <= 0 {
		return
	}

	restitution := math.Min(pa.restitution, pb.restitution)
	linear := n.Mul(projection * (1 + restitution))

	inertiaSum := pa.invInertia + pb.invInertia
	if shareA > 0 {
		impulse := linear.Mul(shareA)
		pa.AddImpulse(impulse.Vec3(0))
		if inertiaSum > 0 {
			pa.AddAngularImpulse(g.rotationalImpulse(ra, c.point, impulse) * pa.invInertia / inertiaSum)
		}
	}
	if shareB > 0 {
		impulse := linear.Mul(-shareB)
		pb.AddImpulse(impulse.Vec3(0))
		if inertiaSum > 0 {
			pb.AddAngularImpulse(g.rotationalImpulse(rb, c.point, impulse) * pb.invInertia / inertiaSum)
		}
	}
}

// rotationalImpulse is the z component of arm x impulse, with the arm in
// meters.
func (g *ImpulseGenerator) rotationalImpulse(b *Body, point, impulse mgl64.Vec2) float64 {
	arm := point.Sub(b.location.Vec2()).Mul(g.metersPerUnit)
	return geom.Cross(arm, impulse) * g.angularScale
}

func (g *ImpulseGenerator) displace(a, b *Body, c *Contact, accuracy float64) {
	if c.depth <= 0 || c.normal == (mgl64.Vec2{}) {
		return
	}
	ra, rb := a.root(), b.root()
	shareA, shareB, ok := massShares(&ra.physics, &rb.physics)
	if !ok {
		return
	}
	d := c.normal.Mul(c.depth * accuracy)
	if shareA > 0 {
		ra.Translate(ra.location.Add(d.Mul(shareA).Vec3(0)))
	}
	if shareB > 0 {
		rb.Translate(rb.location.Sub(d.Mul(shareB).Vec3(0)))
	}
}
