package geom

import "github.com/go-gl/mathgl/mgl64"

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min, Max mgl64.Vec2
}

func NewBBox(x1, y1, x2, y2 float64) BBox {
	return BBox{Min: mgl64.Vec2{x1, y1}, Max: mgl64.Vec2{x2, y2}}
}

// Overlaps reports whether the boxes intersect. Touching edges count.
func (b BBox) Overlaps(other BBox) bool {
	return b.Min[0] <= other.Max[0] && b.Max[0] >= other.Min[0] &&
		b.Min[1] <= other.Max[1] && b.Max[1] >= other.Min[1]
}

func (b BBox) Contains(p mgl64.Vec2) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

func (b BBox) Width() float64  { return b.Max[0] - b.Min[0] }
func (b BBox) Height() float64 { return b.Max[1] - b.Min[1] }

func (b BBox) Area() float64 {
	return b.Width() * b.Height()
}

func (b BBox) Center() mgl64.Vec2 {
	return mgl64.Vec2{(b.Min[0] + b.Max[0]) * 0.5, (b.Min[1] + b.Max[1]) * 0.5}
}

func (b BBox) Expand(margin float64) BBox {
	return BBox{
		Min: mgl64.Vec2{b.Min[0] - margin, b.Min[1] - margin},
		Max: mgl64.Vec2{b.Max[0] + margin, b.Max[1] + margin},
	}
}

// Translate returns the box moved by d.
func (b BBox) Translate(d mgl64.Vec2) BBox {
	return BBox{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}
