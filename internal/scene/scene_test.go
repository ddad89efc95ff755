package scene

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/physics"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	w := physics.NewWorld(physics.DefaultSettings())
	d := physics.DefaultDimensions()
	d.BoundaryWalls = true
	if err := w.SetDimensions(d); err != nil {
		t.Fatal(err)
	}
	return NewBuilder(w, mgl64.Vec2{0, -9.81})
}

func TestBuilderAdd(t *testing.T) {
	b := newBuilder(t)
	ball, err := b.Add(BodySpec{Type: "Circle", Mass: 2, Position: mgl64.Vec2{1, 2}, Velocity: mgl64.Vec2{3, 0}, Radius: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if ball.TypeName() != "circle" || ball.Shape().Kind() != physics.CircleShape {
		t.Errorf("body %v has shape %v", ball, ball.Shape().Kind())
	}
	if ball.Location() != (mgl64.Vec3{1, 2, 0}) || ball.Physics().Velocity() != (mgl64.Vec3{3, 0, 0}) {
		t.Errorf("location %v velocity %v", ball.Location(), ball.Physics().Velocity())
	}
	if ball.World() != b.World() {
		t.Error("body not added")
	}

	ground := b.AddBox(0, mgl64.Vec2{0, -20}, 50, 2)
	if !ground.Physics().IsStationary() {
		t.Error("zero mass body is not stationary")
	}
	if b.DynamicCount() != 1 || len(b.Bodies()) != 2 {
		t.Errorf("dynamic=%d bodies=%d", b.DynamicCount(), len(b.Bodies()))
	}
	if !b.World().ForceRegistry().HasForceGenerators(ball) || b.World().ForceRegistry().HasForceGenerators(ground) {
		t.Error("gravity registered on the wrong bodies")
	}
}

func TestBuilderOptions(t *testing.T) {
	b := newBuilder(t)
	b.SetFriction(0.3)
	plain := b.AddCircle(1, mgl64.Vec2{}, 1)
	tuned := b.AddCircle(1, mgl64.Vec2{10, 0}, 1, WithRestitution(0.9), WithFriction(0))
	if plain.Physics().XYFriction() != 0.3 {
		t.Errorf("friction = %v", plain.Physics().XYFriction())
	}
	if tuned.Physics().Restitution() != 0.9 || tuned.Physics().XYFriction() != 0 {
		t.Errorf("options not applied: %v %v", tuned.Physics().Restitution(), tuned.Physics().XYFriction())
	}
}

func TestBuilderRejectsBadSpecs(t *testing.T) {
	b := newBuilder(t)
	if _, err := b.Add(BodySpec{Type: "triangle", Mass: 1}); !errors.Is(err, ErrUnknownBodyType) {
		t.Errorf("err = %v, want ErrUnknownBodyType", err)
	}
	if _, err := b.Add(BodySpec{Type: "circle", Mass: 1}); err == nil {
		t.Error("zero radius accepted")
	}
	if _, err := b.Add(BodySpec{Type: "box", Mass: 1, Width: 1}); err == nil {
		t.Error("zero height accepted")
	}
	if len(b.Bodies()) != 0 {
		t.Error("rejected bodies were added")
	}
}

const sceneYAML = `
gravity: {x: 0, y: -5}
duration: 3
bodies:
  - type: box
    mass: 0
    position: {x: 0, y: -40}
    shape: {width: 100, height: 4}
  - type: circle
    mass: 1
    position: {x: 0, y: 10}
    velocity: {x: 2, y: 0}
    restitution: 0.8
    shape: {radius: 1}
  - type: rect
    mass: 3
    angle: 30
    position: {x: 5, y: 10}
    shape: {width: 2, height: 1}
`

func TestDecodeAndBuild(t *testing.T) {
	s, err := Decode(strings.NewReader(sceneYAML))
	if err != nil {
		t.Fatal(err)
	}
	if s.Duration != 3 || s.Gravity.Vec() != (mgl64.Vec2{0, -5}) || len(s.Bodies) != 3 {
		t.Fatalf("decoded %+v", s)
	}
	b := newBuilder(t)
	if err := s.Build(b); err != nil {
		t.Fatal(err)
	}
	bodies := b.Bodies()
	if len(bodies) != 3 || b.DynamicCount() != 2 {
		t.Fatalf("bodies=%d dynamic=%d", len(bodies), b.DynamicCount())
	}
	if bodies[1].Physics().Restitution() != 0.8 {
		t.Errorf("restitution = %v", bodies[1].Physics().Restitution())
	}
	if bodies[2].Angle() != 30 {
		t.Errorf("angle = %v", bodies[2].Angle())
	}
}

func TestBuildUnknownBodyType(t *testing.T) {
	s, err := Decode(strings.NewReader("bodies:\n  - type: blob\n    mass: 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Build(newBuilder(t)); !errors.Is(err, ErrUnknownBodyType) {
		t.Errorf("err = %v, want ErrUnknownBodyType", err)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	if _, err := Decode(strings.NewReader("bodies:\n  - type: box\n    colour: red\n")); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(sceneYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Bodies) != 3 {
		t.Errorf("bodies = %d", len(s.Bodies))
	}
	if _, err := LoadFile(path + ".missing"); err == nil {
		t.Error("missing file loaded")
	}
}

func TestGenerate(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			b := newBuilder(t)
			if err := Generate(b, name, 30, rand.New(rand.NewSource(1))); err != nil {
				t.Fatal(err)
			}
			if b.DynamicCount() == 0 {
				t.Fatal("scene has no dynamic bodies")
			}
			w := b.World()
			for range 30 {
				w.StepTime(16 * time.Millisecond)
			}
			if w.ContactPool().InUse() != 0 {
				t.Errorf("%d contacts leaked", w.ContactPool().InUse())
			}
			for _, body := range b.Bodies() {
				loc := body.Location()
				if math.IsNaN(loc[0]) || math.IsNaN(loc[1]) {
					t.Fatalf("%v has NaN location", body)
				}
			}
		})
	}
}

func TestGenerateUnknownScene(t *testing.T) {
	err := Generate(newBuilder(t), "volcano", 10, rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrUnknownScene) {
		t.Errorf("err = %v, want ErrUnknownScene", err)
	}
}

func TestPendulumKeepsBobsAwake(t *testing.T) {
	b := newBuilder(t)
	if err := Generate(b, "pendulum", 9, rand.New(rand.NewSource(7))); err != nil {
		t.Fatal(err)
	}
	bobs := 0
	for _, body := range b.Bodies() {
		if body.Physics().IsStationary() {
			continue
		}
		bobs++
		if !body.Physics().IsSleepingPrevented() {
			t.Errorf("bob %v may fall asleep", body)
		}
	}
	if bobs != 3 {
		t.Errorf("bobs = %d, want 3", bobs)
	}
}
