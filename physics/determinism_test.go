package physics

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pmezard/go-difflib/difflib"
)

// traceScene runs a small mixed scene and records every body transform
// after each step.
func traceScene(steps int) string {
	w := NewWorld(DefaultSettings())
	d := testDimensions()
	d.BoundaryWalls = true
	if err := w.SetDimensions(d); err != nil {
		panic(err)
	}
	gravity := NewGravityGenerator(mgl64.Vec3{0, -9.81, 0})

	var bodies []*Body
	for i := range 12 {
		x := -6 + float64(i%4)*3.5
		y := -2 + float64(i/4)*3
		var b *Body
		if i%3 == 0 {
			b = newCircle(w, x, y, 0.6)
		} else {
			b = newRect(w, x, y, 1.2, 0.8)
			b.Rotate(float64(i) * 17)
		}
		b.Physics().SetVelocity(mgl64.Vec3{float64(i%5) - 2, float64(i%3) - 1, 0})
		w.AddObject(b)
		w.ForceRegistry().AddForceGenerator(gravity, b)
		bodies = append(bodies, b)
	}

	var sb strings.Builder
	for s := range steps {
		w.StepTime(16 * time.Millisecond)
		for i, b := range bodies {
			loc := b.Location()
			v := b.Physics().Velocity()
			fmt.Fprintf(&sb, "%04d %02d %.9f %.9f %.6f %.9f %.9f %t\n",
				s, i, loc[0], loc[1], b.Angle(), v[0], v[1], b.Physics().IsSleeping())
		}
	}
	return sb.String()
}

func TestSimulationIsDeterministic(t *testing.T) {
	first := traceScene(240)
	second := traceScene(240)
	if first == second {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(first),
		B:        difflib.SplitLines(second),
		FromFile: "first",
		ToFile:   "second",
		Context:  2,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Errorf("identical scenes diverged:\n%s", diff)
}

func TestSimulationStaysFinite(t *testing.T) {
	trace := traceScene(120)
	for _, bad := range []string{"NaN", "Inf"} {
		if strings.Contains(trace, bad) {
			t.Fatalf("trace contains %s", bad)
		}
	}
}
