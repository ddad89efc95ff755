package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Segment is a line segment from A to B.
type Segment struct {
	A, B mgl64.Vec2
}

// Crossing returns the parameter t along s at which s crosses other, with
// s.A + t*(s.B-s.A) being the crossing point. Endpoints count as crossing.
// Parallel segments never cross.
func (s Segment) Crossing(other Segment) (float64, bool) {
	r := s.B.Sub(s.A)
	q := other.B.Sub(other.A)
	denom := Cross(r, q)
	if math.Abs(denom) < Epsilon {
		return 0, false
	}
	d := other.A.Sub(s.A)
	t := Cross(d, q) / denom
	u := Cross(d, r) / denom
	if t < -Epsilon || t > 1+Epsilon || u < -Epsilon || u > 1+Epsilon {
		return 0, false
	}
	return t, true
}

// DistanceToLine returns the perpendicular distance from p to the infinite
// line through s. A degenerate segment yields the distance to s.A.
func (s Segment) DistanceToLine(p mgl64.Vec2) float64 {
	e := s.B.Sub(s.A)
	l := e.Len()
	if l == 0 {
		return p.Sub(s.A).Len()
	}
	return math.Abs(Cross(e, p.Sub(s.A))) / l
}
