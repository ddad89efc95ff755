package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/geom"
)

type ShapeKind uint8

const (
	CircleShape ShapeKind = iota
	RectShape

	shapeKindCount
)

func (k ShapeKind) String() string {
	if k == CircleShape {
		return "circle"
	}
	return "rect"
}

// Shape is the collision geometry of a body, either a circle or an oriented
// rectangle. It is owned by exactly one body and follows its transform.
type Shape struct {
	kind        ShapeKind
	radius      float64
	obb         geom.OBBox
	localCenter mgl64.Vec2
	center      mgl64.Vec2
	angle       float64
}

func NewCircle(radius float64) *Shape {
	return &Shape{kind: CircleShape, radius: math.Abs(radius)}
}

func NewRect(width, height float64) *Shape {
	hw, hh := math.Abs(width)*0.5, math.Abs(height)*0.5
	s := &Shape{kind: RectShape, obb: geom.NewOBBox(hw, hh, mgl64.Vec2{})}
	s.radius = s.obb.Radius()
	return s
}

func (s *Shape) Kind() ShapeKind { return s.kind }

// Radius is the circle radius, or the bounding radius of a rectangle.
func (s *Shape) Radius() float64 { return s.radius }

func (s *Shape) Width() float64 {
	if s.kind == CircleShape {
		return 2 * s.radius
	}
	return 2 * s.obb.HalfWidth()
}

func (s *Shape) Height() float64 {
	if s.kind == CircleShape {
		return 2 * s.radius
	}
	return 2 * s.obb.HalfHeight()
}

func (s *Shape) Center() mgl64.Vec2 { return s.center }
func (s *Shape) Angle() float64     { return s.angle }

// OBBox returns the oriented box of a rectangle shape.
func (s *Shape) OBBox() geom.OBBox { return s.obb }

func (s *Shape) LocalCenter() mgl64.Vec2 { return s.localCenter }

// SetLocalCenter offsets the shape from the body location, in body space.
// It takes effect on the next transform update of the owner.
func (s *Shape) SetLocalCenter(c mgl64.Vec2) { s.localCenter = c }

// rotatesInPlace reports whether rotation leaves the bounding box unchanged.
func (s *Shape) rotatesInPlace() bool {
	return s.kind == CircleShape && s.localCenter == (mgl64.Vec2{})
}

func (s *Shape) place(location mgl64.Vec2, angle float64) {
	s.center = location.Add(geom.RotateDeg(s.localCenter, angle))
	if s.kind == RectShape {
		s.obb.SetCenter(s.center)
		if angle != s.angle {
			s.obb.SetAngle(angle)
		}
	}
	s.angle = angle
}

func (s *Shape) BBox() geom.BBox {
	if s.kind == CircleShape {
		return geom.NewBBox(s.center[0]-s.radius, s.center[1]-s.radius, s.center[0]+s.radius, s.center[1]+s.radius)
	}
	return s.obb.BBox()
}

// Contains reports whether p is inside or on the shape.
func (s *Shape) Contains(p mgl64.Vec2) bool {
	if s.kind == CircleShape {
		d := p.Sub(s.center)
		return d.Dot(d) <= s.radius*s.radius+geom.Epsilon
	}
	return s.obb.Contains(p)
}

// MomentOfInertia returns the default moment of inertia for the given mass.
func (s *Shape) MomentOfInertia(mass float64) float64 {
	if s.kind == CircleShape {
		return 0.5 * s.radius * s.radius * mass
	}
	w, h := s.Width(), s.Height()
	return (w*w + h*h) / 12 * mass
}

// interpenetration returns how deep p lies inside a rectangle and the outward
// normal of the edge it must leave through. The edge is the first one crossed
// by the segment from origin to p; when nothing is crossed the sector of p
// picks the edge.
func (s *Shape) interpenetration(origin, p mgl64.Vec2) (float64, mgl64.Vec2) {
	seg := geom.Segment{A: origin, B: p}
	edge := -1
	best := math.Inf(1)
	for i := 0; i < 4; i++ {
		if t, ok := seg.Crossing(s.obb.Edge(i)); ok && t < best {
			best, edge = t, i
		}
	}
	if edge < 0 {
		edge = s.obb.Sector(p)
	}
	return s.obb.Edge(edge).DistanceToLine(p), s.obb.EdgeNormal(edge)
}
