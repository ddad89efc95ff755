package physics

import (
	"fmt"
	"hash/fnv"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/geom"
)

// DefaultLayer is the collision layer of new bodies. Layer -1 collides with
// every layer.
const (
	DefaultLayer  = 0
	WildcardLayer = -1
)

var lastBodyID atomic.Uint64

// Body is a simulated object: a transform, an optional shape and the
// physics component that moves it. A body belongs to at most one World.
type Body struct {
	id       uint64
	typeName string
	typeID   uint32

	location mgl64.Vec3
	angle    float64

	shape   *Shape
	physics PhysicsComponent

	world       *World
	index       int
	memberIndex int
	touchPass   uint64

	physicsObject    bool
	triggerObject    bool
	bypassCollisions bool
	renderable       bool
	particle         bool
	removing         bool
	collisionLayer   int

	parent      *Body
	children    []*Body
	relLocation mgl64.Vec2
	relAngle    float64

	contacts []ContactGroup
	handlers Handlers
	view     any

	inGrid    bool
	cellRange cellRange
}

// NewBody creates a body with the package default physical properties.
func NewBody(typeName string) *Body {
	return newBody(typeName, DefaultBodyDefaults())
}

func newBody(typeName string, d Defaults) *Body {
	b := &Body{
		id:             lastBodyID.Add(1),
		typeName:       typeName,
		typeID:         TypeID(typeName),
		index:          -1,
		memberIndex:    -1,
		physicsObject:  true,
		renderable:     true,
		collisionLayer: DefaultLayer,
	}
	b.physics.init(b, d)
	return b
}

// TypeID derives the numeric type id of a type tag.
func TypeID(typeName string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(typeName))
	return h.Sum32()
}

func (b *Body) ID() uint64       { return b.id }
func (b *Body) TypeName() string { return b.typeName }
func (b *Body) TypeID() uint32   { return b.typeID }
func (b *Body) World() *World    { return b.world }
func (b *Body) Shape() *Shape    { return b.shape }
func (b *Body) Location() mgl64.Vec3 {
	return b.location
}

// Angle is the rotation in degrees, in [0, 360).
func (b *Body) Angle() float64 { return b.angle }

func (b *Body) Physics() *PhysicsComponent { return &b.physics }

// Index is the position of the body in the world's integration set, or -1
// when the body is not being integrated.
func (b *Body) Index() int { return b.index }

func (b *Body) String() string {
	return fmt.Sprintf("%s#%d", b.typeName, b.id)
}

// SetShape attaches s to the body. Passing nil removes the shape.
func (b *Body) SetShape(s *Shape) {
	if b.inGrid && b.world != nil {
		b.world.grid.Remove(b)
	}
	b.shape = s
	if s != nil {
		s.place(b.location.Vec2(), b.angle)
	}
	if !b.physics.explicitInertia {
		b.physics.updateDefaultInertia()
	}
	b.updateGridMembership()
}

func (b *Body) SetView(view any) { b.view = view }

// View returns the opaque renderable attached by the application.
func (b *Body) View() any { return b.view }

func (b *Body) IsPhysicsObject() bool { return b.physicsObject }

func (b *Body) SetPhysicsObject(v bool) {
	b.physicsObject = v
	b.updateGridMembership()
}

// IsTriggerObject reports whether the body only produces collision events
// and never contacts.
func (b *Body) IsTriggerObject() bool { return b.triggerObject }

func (b *Body) SetTriggerObject(v bool) {
	b.triggerObject = v
	b.updateGridMembership()
}

func (b *Body) BypassCollisions() bool { return b.bypassCollisions }

func (b *Body) SetBypassCollisions(v bool) {
	b.bypassCollisions = v
	b.updateGridMembership()
}

func (b *Body) IsRenderable() bool      { return b.renderable }
func (b *Body) SetRenderable(v bool)    { b.renderable = v }
func (b *Body) IsParticle() bool        { return b.particle }
func (b *Body) SetParticle(v bool)      { b.particle = v }
func (b *Body) Removing() bool          { return b.removing }
func (b *Body) CollisionLayer() int     { return b.collisionLayer }
func (b *Body) SetCollisionLayer(l int) { b.collisionLayer = l }

func (b *Body) SetHandlers(h Handlers) { b.handlers = h }
func (b *Body) Handlers() Handlers     { return b.handlers }

// collidable reports whether the body takes part in the broad phase.
func (b *Body) collidable() bool {
	return (b.physicsObject || b.triggerObject) && !b.bypassCollisions
}

func (b *Body) updateGridMembership() {
	if b.world == nil {
		return
	}
	eligible := b.shape != nil && b.collidable()
	switch {
	case eligible && !b.inGrid:
		b.world.grid.Insert(b)
	case !eligible && b.inGrid:
		b.world.grid.Remove(b)
	}
}

func (b *Body) regrid() {
	if b.inGrid && b.world != nil {
		b.world.grid.Remove(b)
		b.world.grid.Insert(b)
	}
}

// Parent returns the body this one is attached to, or the body itself.
func (b *Body) Parent() *Body {
	if b.parent == nil {
		return b
	}
	return b.parent
}

func (b *Body) root() *Body {
	r := b
	for r.parent != nil {
		r = r.parent
	}
	return r
}

func (b *Body) Children() []*Body { return b.children }

// AddChild attaches child at a fixed offset and angle relative to b. The
// child then follows b and is never integrated on its own.
func (b *Body) AddChild(child *Body, relLocation mgl64.Vec2, relAngle float64) {
	if child.parent != nil {
		panic(fmt.Sprintf("physics: %s already has parent %s", child, child.parent))
	}
	if child == b {
		panic("physics: a body cannot be its own child")
	}
	child.parent = b
	child.relLocation = relLocation
	child.relAngle = relAngle
	b.children = append(b.children, child)
	child.physics.sleeping = b.physics.sleeping
	b.updateChildTransforms()
	if b.world != nil && child.world == nil {
		b.world.AddObject(child)
	}
}

// RemoveChild detaches child from b. The child keeps its current transform.
func (b *Body) RemoveChild(child *Body) {
	for i, c := range b.children {
		if c == child {
			b.children = append(b.children[:i], b.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// updateChildTransforms walks the children breadth-first and places each
// relative to its parent.
func (b *Body) updateChildTransforms() {
	if len(b.children) == 0 {
		return
	}
	queue := append([]*Body(nil), b.children...)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		p := c.parent
		offset := geom.RotateDeg(c.relLocation, p.angle)
		c.location = mgl64.Vec3{p.location[0] + offset[0], p.location[1] + offset[1], p.location[2]}
		c.angle = geom.NormalizeAngle(p.angle + c.relAngle)
		if c.shape != nil {
			c.shape.place(c.location.Vec2(), c.angle)
		}
		c.regrid()
		queue = append(queue, c.children...)
	}
}

// Translate moves the body to location.
func (b *Body) Translate(location mgl64.Vec3) {
	b.location = location
	if b.shape != nil {
		b.shape.place(location.Vec2(), b.angle)
	}
	b.regrid()
	b.updateChildTransforms()
}

// Rotate sets the rotation angle in degrees.
func (b *Body) Rotate(angle float64) {
	b.angle = geom.NormalizeAngle(angle)
	if b.shape != nil {
		b.shape.place(b.location.Vec2(), b.angle)
		if !b.shape.rotatesInPlace() {
			b.regrid()
		}
	}
	b.updateChildTransforms()
}

// BBox returns the bounding box of the shape, or a point box at the
// location for shapeless bodies.
func (b *Body) BBox() geom.BBox {
	if b.shape != nil {
		return b.shape.BBox()
	}
	return geom.NewBBox(b.location[0], b.location[1], b.location[0], b.location[1])
}

// Contacts returns the contacts of the current step grouped by other body.
// The slice must not be retained past the step.
func (b *Body) Contacts() []ContactGroup { return b.contacts }

// ContactsWith returns the contacts with other in the current step.
func (b *Body) ContactsWith(other *Body) []*Contact {
	if g := b.contactGroup(other); g != nil {
		return g.Contacts
	}
	return nil
}

func (b *Body) contactGroup(other *Body) *ContactGroup {
	for i := range b.contacts {
		if b.contacts[i].Other == other {
			return &b.contacts[i]
		}
	}
	return nil
}

func (b *Body) addContact(c *Contact) {
	if g := b.contactGroup(c.other); g != nil {
		g.Contacts = append(g.Contacts, c)
		return
	}
	b.contacts = append(b.contacts, ContactGroup{Other: c.other, Contacts: []*Contact{c}})
}

// deleteContacts releases the contacts held against other.
func (b *Body) deleteContacts(other *Body, pool *ContactPool) {
	for i := range b.contacts {
		if b.contacts[i].Other != other {
			continue
		}
		for _, c := range b.contacts[i].Contacts {
			pool.Release(c)
		}
		b.contacts = append(b.contacts[:i], b.contacts[i+1:]...)
		return
	}
}

func (b *Body) deleteAllContacts(pool *ContactPool) {
	for i := range b.contacts {
		for _, c := range b.contacts[i].Contacts {
			pool.Release(c)
		}
		b.contacts[i] = ContactGroup{}
	}
	b.contacts = b.contacts[:0]
}

// SendEvent dispatches ev to the matching hook and reports whether it was
// accepted.
func (b *Body) SendEvent(ev Event) bool {
	h := &b.handlers
	switch e := ev.(type) {
	case *CollisionEvent:
		if h.OnCollision != nil {
			return h.OnCollision(b, e)
		}
		return true
	case *SeparationEvent:
		if h.OnSeparation != nil {
			h.OnSeparation(b, e)
			return true
		}
	case *OutOfBoundariesEvent:
		if h.OnOutOfBoundaries != nil {
			h.OnOutOfBoundaries(b, e)
			return true
		}
	case *TimerEvent:
		if h.OnTimer != nil {
			h.OnTimer(b, e)
			return true
		}
	}
	if h.OnEvent != nil {
		return h.OnEvent(b, ev)
	}
	return false
}

// checkBoundaries reports edges crossed after a move. Z is clamped back
// into range.
func (b *Body) checkBoundaries() {
	w := b.world
	if w == nil {
		return
	}
	d := w.dims
	bb := b.BBox()
	if bb.Min[0] < d.MinX {
		b.SendEvent(&OutOfBoundariesEvent{Edge: West})
	}
	if bb.Max[0] > d.MaxX {
		b.SendEvent(&OutOfBoundariesEvent{Edge: East})
	}
	if bb.Min[1] < d.MinY {
		b.SendEvent(&OutOfBoundariesEvent{Edge: South})
	}
	if bb.Max[1] > d.MaxY {
		b.SendEvent(&OutOfBoundariesEvent{Edge: North})
	}
	if z := b.location[2]; z < d.MinZ {
		b.clampZ(d.MinZ)
		b.SendEvent(&OutOfBoundariesEvent{Edge: Bottom})
	} else if z > d.MaxZ {
		b.clampZ(d.MaxZ)
		b.SendEvent(&OutOfBoundariesEvent{Edge: Top})
	}
}

func (b *Body) clampZ(z float64) {
	b.location[2] = z
	b.physics.velocity[2] = 0
	b.physics.forces[2] = 0
	b.updateChildTransforms()
}
