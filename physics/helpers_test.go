package physics

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

const tolerance = 1e-9

func testDimensions() Dimensions {
	return Dimensions{
		MinX: -10, MaxX: 10,
		MinY: -10, MaxY: 10,
		MinZ: -10, MaxZ: 10,
		MetersPerUnit: 1,
		GridCells:     16,
	}
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w := NewWorld(DefaultSettings())
	if err := w.SetDimensions(testDimensions()); err != nil {
		t.Fatalf("SetDimensions: %v", err)
	}
	return w
}

func newRect(w *World, x, y, width, height float64) *Body {
	var b *Body
	if w != nil {
		b = w.NewBody("rect")
	} else {
		b = NewBody("rect")
	}
	b.SetShape(NewRect(width, height))
	b.Translate(mgl64.Vec3{x, y, 0})
	return b
}

func newCircle(w *World, x, y, radius float64) *Body {
	var b *Body
	if w != nil {
		b = w.NewBody("circle")
	} else {
		b = NewBody("circle")
	}
	b.SetShape(NewCircle(radius))
	b.Translate(mgl64.Vec3{x, y, 0})
	return b
}

func step(w *World, n int) {
	for range n {
		w.StepTime(time.Millisecond)
	}
}
