package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Contact is a single point of interpenetration seen from one body. The
// normal points away from Other, i.e. the direction the holder is pushed.
// Contacts are pooled and only valid during the step that produced them.
type Contact struct {
	other      *Body
	point      mgl64.Vec2
	normal     mgl64.Vec2
	depth      float64
	generation uint32
	live       bool
}

func (c *Contact) Other() *Body       { return c.other }
func (c *Contact) Point() mgl64.Vec2  { return c.point }
func (c *Contact) Normal() mgl64.Vec2 { return c.normal }
func (c *Contact) Depth() float64     { return c.depth }
func (c *Contact) Generation() uint32 { return c.generation }
func (c *Contact) Live() bool         { return c.live }

// ContactGroup holds the contacts a body has with one other body, in the
// order they were found.
type ContactGroup struct {
	Other    *Body
	Contacts []*Contact
}

// deepest returns the deepest contact, the first one on ties.
func (g *ContactGroup) deepest() *Contact {
	var best *Contact
	for _, c := range g.Contacts {
		if best == nil || c.depth > best.depth {
			best = c
		}
	}
	return best
}

const contactBlockSize = 256

type contactBlock [contactBlockSize]Contact

// ContactPool recycles contacts. Storage grows in fixed blocks that never
// move, so a contact pointer stays valid until it is released.
type ContactPool struct {
	blocks []*contactBlock
	next   int
	free   []*Contact
	inUse  int
}

func NewContactPool() *ContactPool {
	return &ContactPool{}
}

func (p *ContactPool) Acquire(other *Body, point, normal mgl64.Vec2, depth float64) *Contact {
	var c *Contact
	if n := len(p.free); n > 0 {
		c = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		if p.next == len(p.blocks)*contactBlockSize {
			p.blocks = append(p.blocks, new(contactBlock))
		}
		c = &p.blocks[p.next/contactBlockSize][p.next%contactBlockSize]
		p.next++
	}
	c.other, c.point, c.normal, c.depth = other, point, normal, depth
	c.live = true
	p.inUse++
	return c
}

// Release returns c to the pool. Releasing a contact twice is a programming
// error and panics.
func (p *ContactPool) Release(c *Contact) {
	if c == nil {
		return
	}
	if !c.live {
		panic(fmt.Sprintf("physics: contact released twice (generation %d)", c.generation))
	}
	c.live = false
	c.generation++
	c.other = nil
	p.inUse--
	p.free = append(p.free, c)
}

// InUse returns the number of contacts currently handed out.
func (p *ContactPool) InUse() int { return p.inUse }

// Capacity returns the number of contacts ever allocated.
func (p *ContactPool) Capacity() int { return p.next }
