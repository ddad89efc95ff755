package physics

import (
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/geom"
)

// WallTypeName is the type tag of the boundary wall bodies.
const WallTypeName = "__WALL__"

// Stats is a snapshot of the world counters.
type Stats struct {
	Steps           uint64
	Bodies          int
	Awake           int
	Collisions      int
	ContactsInUse   int
	ContactCapacity int
	LastStep        time.Duration
}

type worldStats struct {
	steps           atomic.Uint64
	bodies          atomic.Int64
	awake           atomic.Int64
	collisions      atomic.Int64
	contactsInUse   atomic.Int64
	contactCapacity atomic.Int64
	lastStep        atomic.Int64
}

// World owns the bodies and runs the step pipeline.
type World struct {
	settings Settings
	dims     Dimensions
	log      *log.Logger

	grid     *ObjectGrid
	pool     *ContactPool
	detector *CollisionDetector
	impulses *ImpulseGenerator
	forces   *ForceRegistry

	members  []*Body
	active   []*Body
	removals []*Body
	walls    []*Body
	scratch  []*Body

	timers        []*Body
	timerInterval time.Duration
	timerElapsed  time.Duration
	timerTick     uint64

	stats worldStats
}

// NewWorld creates an empty world with DefaultDimensions.
func NewWorld(settings Settings) *World {
	settings = settings.withFallbacks()
	pool := NewContactPool()
	w := &World{
		settings: settings,
		log:      settings.Logger,
		pool:     pool,
		detector: NewCollisionDetector(pool),
		impulses: NewImpulseGenerator(pool, 1, settings.AngularImpulseScaling),
		forces:   NewForceRegistry(),
	}
	if err := w.SetDimensions(DefaultDimensions()); err != nil {
		panic(err)
	}
	return w
}

// SetDimensions resizes the world and rebuilds the broad phase. Boundary
// walls from a previous call are replaced.
func (w *World) SetDimensions(d Dimensions) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.GridCells == 0 {
		d.GridCells = DefaultGridCells
	}
	for _, wall := range w.walls {
		w.RemoveObjectNow(wall)
	}
	w.walls = w.walls[:0]

	w.dims = d
	w.impulses.metersPerUnit = d.MetersPerUnit
	leafW, leafH := d.leafSize()
	w.grid = NewObjectGrid(geom.NewBBox(d.MinX, d.MinY, d.MaxX, d.MaxY), leafW, leafH)
	for _, b := range w.members {
		b.inGrid = false
		b.updateGridMembership()
	}
	w.log.Printf("world: dimensions x[%g,%g] y[%g,%g] z[%g,%g], %dx%d grid cells",
		d.MinX, d.MaxX, d.MinY, d.MaxY, d.MinZ, d.MaxZ, w.grid.HorSize(), w.grid.VerSize())

	if d.BoundaryWalls {
		w.addBoundaryWalls()
	}
	return nil
}

func (w *World) addBoundaryWalls() {
	d := w.dims
	t := math.Max(d.Width(), d.Height()) * 0.1
	cx, cy := (d.MinX+d.MaxX)/2, (d.MinY+d.MaxY)/2
	specs := []struct {
		x, y, width, height float64
	}{
		{d.MinX - t/2, cy, t, d.Height() + 2*t},
		{d.MaxX + t/2, cy, t, d.Height() + 2*t},
		{cx, d.MinY - t/2, d.Width(), t},
		{cx, d.MaxY + t/2, d.Width(), t},
	}
	for _, s := range specs {
		wall := w.NewBody(WallTypeName)
		wall.physics.SetMass(0, true)
		wall.SetShape(NewRect(s.width, s.height))
		wall.Translate(mgl64.Vec3{s.x, s.y, 0})
		w.AddObject(wall)
		w.walls = append(w.walls, wall)
	}
	w.log.Printf("world: added %d boundary walls, thickness %g", len(specs), t)
}

// NewBody creates a body with the world's default physical properties. The
// body is not added.
func (w *World) NewBody(typeName string) *Body {
	return newBody(typeName, w.settings.Defaults)
}

// AddObject adds b and its children to the world. Adding a body scheduled
// for removal cancels the removal. It panics if b belongs to another world.
func (w *World) AddObject(b *Body) {
	if b.world != nil && b.world != w {
		panic(fmt.Sprintf("physics: %s already belongs to another world", b))
	}
	if b.world == w {
		if b.removing {
			b.removing = false
			w.dropRemoval(b)
		}
		return
	}
	b.world = w
	b.memberIndex = len(w.members)
	w.members = append(w.members, b)
	if !b.physics.sleeping && !b.physics.stationary {
		w.addToIntegration(b)
	}
	b.updateGridMembership()
	if f := b.physics.xyFriction; f > w.settings.FrictionThreshold {
		w.forces.AddForceGenerator(NewFrictionGenerator(f, f, w.settings.FrictionGravity), b)
	}
	for _, child := range b.children {
		if child.world == nil {
			w.AddObject(child)
		}
	}
}

// RemoveObject schedules b for removal at the end of the current or next
// step. It is safe to call from event handlers.
func (w *World) RemoveObject(b *Body) {
	if b.world != w || b.removing {
		return
	}
	b.removing = true
	w.removals = append(w.removals, b)
}

// RemoveObjectNow detaches b and its children immediately. Contacts other
// bodies hold against b are released first.
func (w *World) RemoveObjectNow(b *Body) {
	if b.world != w {
		return
	}
	for i := range b.contacts {
		b.contacts[i].Other.deleteContacts(b, w.pool)
	}
	b.deleteAllContacts(w.pool)
	w.detector.forget(b)
	w.grid.Remove(b)
	w.removeFromIntegration(b)
	w.forces.RemoveForceGenerators(b)
	w.UnsubscribeTimerEvent(b)
	if b.removing {
		b.removing = false
		w.dropRemoval(b)
	}

	last := len(w.members) - 1
	if i := b.memberIndex; i != last {
		w.members[i] = w.members[last]
		w.members[i].memberIndex = i
	}
	w.members[last] = nil
	w.members = w.members[:last]
	b.memberIndex = -1
	b.world = nil

	for _, child := range b.children {
		w.RemoveObjectNow(child)
	}
}

func (w *World) dropRemoval(b *Body) {
	for i, r := range w.removals {
		if r == b {
			w.removals = append(w.removals[:i], w.removals[i+1:]...)
			return
		}
	}
}

func (w *World) processRemovals() {
	if len(w.removals) == 0 {
		return
	}
	queue := append(w.scratch[:0], w.removals...)
	for _, b := range queue {
		w.RemoveObjectNow(b)
	}
	clear(queue)
	w.scratch = queue[:0]
	w.log.Printf("world: removed %d bodies", len(queue))
}

func (w *World) addToIntegration(b *Body) {
	if b.index >= 0 || b.world != w {
		return
	}
	b.index = len(w.active)
	w.active = append(w.active, b)
}

func (w *World) removeFromIntegration(b *Body) {
	i := b.index
	if i < 0 || b.world != w {
		return
	}
	last := len(w.active) - 1
	if i != last {
		w.active[i] = w.active[last]
		w.active[i].index = i
	}
	w.active[last] = nil
	w.active = w.active[:last]
	b.index = -1
}

// StepTime advances the simulation by d.
func (w *World) StepTime(d time.Duration) {
	if d <= 0 {
		return
	}
	start := time.Now()
	dt := d.Seconds()

	w.forces.Update(dt)
	w.integrate(dt)

	collisions := w.detector.DetectCollisions(w.grid)
	if collisions > 0 {
		w.impulses.GenerateImpulsesFromDeepestContacts(w.detector.Touched())
		if n := w.settings.Iterations; n > 0 {
			accuracy := 1 / float64(n)
			for range n {
				if w.detector.IterateCurrentCollisions() == 0 {
					break
				}
				w.impulses.ResolvePositions(w.detector.Touched(), accuracy)
			}
		}
	}
	for _, b := range w.detector.Touched() {
		b.deleteAllContacts(w.pool)
	}

	w.processRemovals()
	w.deliverTimers(d)
	w.updateStats(collisions, time.Since(start))
}

// integrate advances every awake root body. Children follow their parent.
func (w *World) integrate(dt float64) {
	bodies := append(w.scratch[:0], w.active...)
	for i := len(bodies) - 1; i >= 0; i-- {
		b := bodies[i]
		if b.parent != nil || b.index < 0 || b.world != w {
			continue
		}
		b.physics.integrate(dt)
	}
	clear(bodies)
	w.scratch = bodies[:0]
}

// SubscribeTimerEvent makes b receive a TimerEvent every timer interval.
func (w *World) SubscribeTimerEvent(b *Body) {
	for _, s := range w.timers {
		if s == b {
			return
		}
	}
	w.timers = append(w.timers, b)
}

// UnsubscribeTimerEvent stops timer delivery to b. Unknown bodies are ignored.
func (w *World) UnsubscribeTimerEvent(b *Body) {
	for i, s := range w.timers {
		if s == b {
			w.timers = append(w.timers[:i], w.timers[i+1:]...)
			return
		}
	}
}

// SetTimerInterval sets the timer period. Zero stops timer events.
func (w *World) SetTimerInterval(d time.Duration) {
	w.timerInterval = max(0, d)
	w.timerElapsed = 0
}

func (w *World) TimerInterval() time.Duration { return w.timerInterval }

func (w *World) deliverTimers(d time.Duration) {
	if w.timerInterval <= 0 || len(w.timers) == 0 {
		return
	}
	w.timerElapsed += d
	for w.timerElapsed >= w.timerInterval {
		w.timerElapsed -= w.timerInterval
		w.timerTick++
		ev := &TimerEvent{Tick: w.timerTick, Interval: w.timerInterval}
		subscribers := append([]*Body(nil), w.timers...)
		for _, b := range subscribers {
			if b.world == w {
				b.SendEvent(ev)
			}
		}
	}
}

func (w *World) updateStats(collisions int, elapsed time.Duration) {
	w.stats.steps.Add(1)
	w.stats.bodies.Store(int64(len(w.members)))
	w.stats.awake.Store(int64(len(w.active)))
	w.stats.collisions.Store(int64(collisions))
	w.stats.contactsInUse.Store(int64(w.pool.InUse()))
	w.stats.contactCapacity.Store(int64(w.pool.Capacity()))
	w.stats.lastStep.Store(int64(elapsed))
}

// Stats returns the counters of the last step. It may be called from any
// goroutine.
func (w *World) Stats() Stats {
	return Stats{
		Steps:           w.stats.steps.Load(),
		Bodies:          int(w.stats.bodies.Load()),
		Awake:           int(w.stats.awake.Load()),
		Collisions:      int(w.stats.collisions.Load()),
		ContactsInUse:   int(w.stats.contactsInUse.Load()),
		ContactCapacity: int(w.stats.contactCapacity.Load()),
		LastStep:        time.Duration(w.stats.lastStep.Load()),
	}
}

// Settings returns the settings the world was created with, after defaults
// were filled in.
func (w *World) Settings() Settings { return w.settings }

// Dimensions returns the current world bounds.
func (w *World) Dimensions() Dimensions { return w.dims }

// Grid returns the broad-phase grid. It is replaced by SetDimensions.
func (w *World) Grid() *ObjectGrid { return w.grid }

// CollisionDetector returns the narrow phase used by StepTime.
func (w *World) CollisionDetector() *CollisionDetector { return w.detector }

// ImpulseGenerator returns the collision resolver used by StepTime.
func (w *World) ImpulseGenerator() *ImpulseGenerator { return w.impulses }

// ForceRegistry returns the registry run at the start of every step.
func (w *World) ForceRegistry() *ForceRegistry { return w.forces }

// ContactPool returns the pool contacts are allocated from.
func (w *World) ContactPool() *ContactPool { return w.pool }

// Walls returns the boundary walls, which is empty when they are disabled.
func (w *World) Walls() []*Body { return w.walls }

// ActiveCount is the number of bodies being integrated.
func (w *World) ActiveCount() int { return len(w.active) }

// Objects returns every body in the world, including walls. The slice is
// owned by the world.
func (w *World) Objects() []*Body { return w.members }
