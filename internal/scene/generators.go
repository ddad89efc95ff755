package scene

import (
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/physics"
)

type generator func(b *Builder, count int, rng *rand.Rand)

var generators = map[string]generator{
	"default":   generateDefault,
	"pyramid":   generatePyramid,
	"rain":      generateRain,
	"container": generateContainer,
	"pendulum":  generatePendulum,
	"mixed":     generateMixed,
}

// Names returns the available generated scenes, sorted.
func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Generate fills the builder's world with the named scene. Scenes are laid
// out for a 200x200 world and scaled to the actual dimensions.
func Generate(b *Builder, name string, count int, rng *rand.Rand) error {
	gen, ok := generators[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScene, name)
	}
	if count < 1 {
		return fmt.Errorf("bodies count must be at least 1, got %d", count)
	}
	gen(b, count, rng)
	return nil
}

// frame maps scene coordinates onto the world.
type frame struct {
	center mgl64.Vec2
	scale  float64
}

func frameOf(w *physics.World) frame {
	d := w.Dimensions()
	return frame{
		center: mgl64.Vec2{(d.MinX + d.MaxX) / 2, (d.MinY + d.MaxY) / 2},
		scale:  math.Min(d.Width(), d.Height()) / 200,
	}
}

func (f frame) at(x, y float64) mgl64.Vec2 {
	return f.center.Add(mgl64.Vec2{x, y}.Mul(f.scale))
}

func (f frame) size(v float64) float64 { return v * f.scale }

func generateDefault(b *Builder, count int, rng *rand.Rand) {
	f := frameOf(b.World())
	b.AddBox(0, f.at(0, -50), f.size(180), f.size(10))

	for range count {
		pos := f.at((rng.Float64()-0.5)*150, rng.Float64()*40+50)
		if rng.Float64() < 0.6 {
			radius := rng.Float64()*2 + 1
			b.AddCircle(radius*radius*math.Pi, pos, radius)
		} else {
			size := rng.Float64()*3 + 1
			b.AddBox(size*size, pos, size, size)
		}
	}
}

func generatePyramid(b *Builder, count int, _ *rand.Rand) {
	f := frameOf(b.World())
	b.AddBox(0, f.at(0, -10), f.size(180), f.size(5))

	levels := int(math.Sqrt(float64(count))) + 1
	boxSize := 2.0
	y := -10 + 2.5 + boxSize/2
	for level := levels; level > 0; level-- {
		for i := range level {
			x := float64(i)*boxSize - float64(level-1)*boxSize/2
			b.AddBox(1, f.at(x, y), boxSize*0.9, boxSize*0.9)
		}
		y += boxSize
	}
}

func generateRain(b *Builder, count int, rng *rand.Rand) {
	f := frameOf(b.World())
	b.AddBox(0, f.at(0, -80), f.size(180), f.size(10))
	b.AddBox(0, f.at(-90, -30), f.size(5), f.size(90))
	b.AddBox(0, f.at(90, -30), f.size(5), f.size(90))

	for range count {
		pos := f.at((rng.Float64()-0.5)*160, rng.Float64()*80+10)
		if rng.Float64() < 0.7 {
			radius := rng.Float64()*2 + 0.5
			b.AddCircle(radius*radius*math.Pi, pos, radius)
		} else {
			width := rng.Float64()*3 + 1
			height := rng.Float64()*3 + 1
			b.AddBox(width*height, pos, width, height)
		}
	}
}

func generateContainer(b *Builder, count int, rng *rand.Rand) {
	f := frameOf(b.World())
	wallThickness := 5.0
	containerWidth := 100.0
	containerHeight := 80.0

	b.AddBox(0, f.at(0, -containerHeight/2), f.size(containerWidth), f.size(wallThickness))
	b.AddBox(0, f.at(-containerWidth/2, 0), f.size(wallThickness), f.size(containerHeight))
	b.AddBox(0, f.at(containerWidth/2, 0), f.size(wallThickness), f.size(containerHeight))

	for range count {
		pos := f.at((rng.Float64()-0.5)*(containerWidth-20), rng.Float64()*60+10-containerHeight/2)
		if rng.Float64() < 0.6 {
			radius := rng.Float64()*1.5 + 0.5
			b.AddCircle(radius*radius*math.Pi*0.5, pos, radius)
		} else {
			size := rng.Float64()*2 + 1
			b.AddBox(size*size*0.5, pos, size, size)
		}
	}
}

// generatePendulum hangs bobs from stationary anchors on springs.
func generatePendulum(b *Builder, count int, rng *rand.Rand) {
	f := frameOf(b.World())
	pendulums := max(1, count/3)
	length := f.size(20)
	for i := range pendulums {
		x := float64(i-pendulums/2) * 10
		anchor := b.AddCircle(0, f.at(x, 50), 0.5)
		bob := b.AddCircle(2, f.at(x, 30), 1.5)
		spring := physics.NewSpringGenerator(anchor, 40, length, 0, length)
		b.World().ForceRegistry().AddForceGenerator(spring, bob)
		bob.Physics().AddForce(mgl64.Vec3{(rng.Float64() - 0.5) * 100, 0, 0})
	}
}

func generateMixed(b *Builder, count int, rng *rand.Rand) {
	f := frameOf(b.World())
	b.AddBox(0, f.at(-60, -70), f.size(50), f.size(10))
	b.AddBox(0, f.at(60, -70), f.size(50), f.size(10))
	for i := range 5 {
		x := (rng.Float64() - 0.5) * 120
		y := float64(i)*15 - 40
		b.AddBox(0, f.at(x, y), f.size(rng.Float64()*30+20), f.size(3))
	}

	for i := range count {
		pos := f.at((rng.Float64()-0.5)*160, rng.Float64()*40+45)
		switch rng.Intn(3) {
		case 0:
			radius := rng.Float64()*2 + 0.5
			b.AddCircle(radius*radius*math.Pi, pos, radius,
				WithRestitution(rng.Float64()*0.5+0.5),
				WithFriction(rng.Float64()*0.5+0.2))
		case 1:
			size := rng.Float64()*3 + 1
			box := b.AddBox(size*size, pos, size, size,
				WithRestitution(rng.Float64()*0.5+0.3),
				WithFriction(rng.Float64()*0.6+0.3))
			// every tenth box carries a ball on top
			if i%10 == 0 {
				ball := b.World().NewBody("circle")
				ball.SetShape(physics.NewCircle(size / 2))
				box.AddChild(ball, mgl64.Vec2{0, size}, 0)
			}
		case 2:
			width := rng.Float64()*4 + 1
			height := rng.Float64()*2 + 0.5
			b.AddBox(width*height, pos, width, height,
				WithRestitution(rng.Float64()*0.4+0.4),
				WithFriction(rng.Float64()*0.5+0.4))
		}
	}
}
