package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// OBBox is an oriented rectangle: a center, half extents and a rotation
// angle in degrees. The four corner offsets are recomputed whenever the
// angle changes and are stored counter-clockwise starting from the
// bottom-left corner of the unrotated box.
type OBBox struct {
	center  mgl64.Vec2
	hw, hh  float64
	angle   float64
	offsets [4]mgl64.Vec2
}

func NewOBBox(hw, hh float64, center mgl64.Vec2) OBBox {
	o := OBBox{center: center, hw: hw, hh: hh}
	o.SetAngle(0)
	return o
}

func (o *OBBox) SetAngle(deg float64) {
	o.angle = deg
	rot := mgl64.Rotate2D(mgl64.DegToRad(deg))
	o.offsets[0] = rot.Mul2x1(mgl64.Vec2{-o.hw, -o.hh})
	o.offsets[1] = rot.Mul2x1(mgl64.Vec2{o.hw, -o.hh})
	o.offsets[2] = rot.Mul2x1(mgl64.Vec2{o.hw, o.hh})
	o.offsets[3] = rot.Mul2x1(mgl64.Vec2{-o.hw, o.hh})
}

func (o *OBBox) SetCenter(c mgl64.Vec2) { o.center = c }

func (o OBBox) Center() mgl64.Vec2 { return o.center }
func (o OBBox) Angle() float64     { return o.angle }
func (o OBBox) HalfWidth() float64 { return o.hw }
func (o OBBox) HalfHeight() float64 {
	return o.hh
}

// Vertex returns corner i (0..3) in world coordinates.
func (o OBBox) Vertex(i int) mgl64.Vec2 {
	return o.center.Add(o.offsets[i&3])
}

// Edge returns the edge from vertex i to vertex i+1.
func (o OBBox) Edge(i int) Segment {
	return Segment{A: o.Vertex(i), B: o.Vertex(i + 1)}
}

// EdgeNormal returns the outward unit normal of edge i.
func (o OBBox) EdgeNormal(i int) mgl64.Vec2 {
	e := o.Edge(i)
	return Normalize(Perp(e.B.Sub(e.A)))
}

// Contains reports whether p lies inside or on the rectangle.
func (o OBBox) Contains(p mgl64.Vec2) bool {
	local := RotateDeg(p.Sub(o.center), -o.angle)
	return math.Abs(local[0]) <= o.hw+Epsilon && math.Abs(local[1]) <= o.hh+Epsilon
}

// Sector returns the edge whose sector contains p. Sectors are bounded by
// the half-diagonals from the center to consecutive vertices.
func (o OBBox) Sector(p mgl64.Vec2) int {
	d := p.Sub(o.center)
	for i := 0; i < 4; i++ {
		if Cross(o.offsets[i], d) >= 0 && Cross(d, o.offsets[(i+1)&3]) >= 0 {
			return i
		}
	}
	return 0
}

// BBox returns the axis-aligned box enclosing the rectangle.
func (o OBBox) BBox() BBox {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, off := range o.offsets {
		minX = math.Min(minX, off[0])
		minY = math.Min(minY, off[1])
		maxX = math.Max(maxX, off[0])
		maxY = math.Max(maxY, off[1])
	}
	return NewBBox(o.center[0]+minX, o.center[1]+minY, o.center[0]+maxX, o.center[1]+maxY)
}

// Radius returns the distance from the center to a corner.
func (o OBBox) Radius() float64 {
	return math.Sqrt(o.hw*o.hw + o.hh*o.hh)
}
