package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/0x5844/minicore/geom"
)

// candidate is a contact found by a narrow-phase test. It describes the
// contact held by pushed; the other body gets the mirrored normal.
type candidate struct {
	pushed, other *Body
	point         mgl64.Vec2
	normal        mgl64.Vec2
	depth         float64
}

type narrowPhaseFunc func(a, b *Body, out []candidate) []candidate

// narrowPhase is indexed by the shape kinds of the ordered pair. Circle
// against rect is covered by the reversed order.
var narrowPhase = [shapeKindCount][shapeKindCount]narrowPhaseFunc{
	RectShape: {
		RectShape:   testRectAgainstRect,
		CircleShape: testRectAgainstCircle,
	},
	CircleShape: {
		CircleShape: testCircleAgainstCircle,
	},
}

type collisionRecord struct {
	a, b        *Body
	accepted    bool
	seenPass    uint64
	countedPass uint64
}

// CollisionDetector runs the narrow phase, creates contacts and keeps track
// of ongoing collisions so that collision events fire once per collision
// and separation events when it ends.
type CollisionDetector struct {
	pool *ContactPool

	current map[pairKey]int
	records []collisionRecord

	pass      uint64
	touched   []*Body
	scratch   []candidate
	separated []collisionRecord
}

func NewCollisionDetector(pool *ContactPool) *CollisionDetector {
	return &CollisionDetector{
		pool:    pool,
		current: make(map[pairKey]int),
	}
}

// DetectCollisions tests every broad-phase candidate of grid and returns
// the number of colliding pairs. New collisions are announced to both
// bodies; contacts are only generated when both accept.
func (d *CollisionDetector) DetectCollisions(grid *ObjectGrid) int {
	d.beginPass()
	count := 0
	for _, p := range grid.PossibleCollisions() {
		if p.A.world == nil || p.B.world == nil {
			continue
		}
		if d.testPair(p.A, p.B, true) {
			count += d.countPair(p.A, p.B)
		}
	}
	d.pruneSeparated()
	return count
}

// IterateCurrentCollisions re-tests only the pairs already colliding,
// without the broad phase and without collision events. Pairs that no
// longer overlap are dropped and get a separation event.
func (d *CollisionDetector) IterateCurrentCollisions() int {
	d.beginPass()
	count := 0
	for i := 0; i < len(d.records); i++ {
		a, b := d.records[i].a, d.records[i].b
		if a.world == nil || b.world == nil {
			continue
		}
		hit := d.testPair(a, b, false)
		if d.testPair(b, a, false) {
			hit = true
		}
		if hit {
			count += d.countPair(a, b)
		}
	}
	d.pruneSeparated()
	return count
}

// AreColliding reports whether a and b are currently tracked as colliding.
func (d *CollisionDetector) AreColliding(a, b *Body) bool {
	_, ok := d.current[makePairKey(a, b)]
	return ok
}

// CurrentCollisions returns the number of tracked colliding pairs.
func (d *CollisionDetector) CurrentCollisions() int { return len(d.records) }

// Touched returns the bodies that received contacts in the last pass.
func (d *CollisionDetector) Touched() []*Body { return d.touched }

func (d *CollisionDetector) beginPass() {
	d.pass++
	for i := range d.touched {
		d.touched[i] = nil
	}
	d.touched = d.touched[:0]
}

func (d *CollisionDetector) countPair(a, b *Body) int {
	rec := &d.records[d.current[makePairKey(a, b)]]
	if rec.countedPass == d.pass {
		return 0
	}
	rec.countedPass = d.pass
	return 1
}

// testPair runs the narrow phase for the ordered pair (a, b).
func (d *CollisionDetector) testPair(a, b *Body, primary bool) bool {
	if a.shape == nil || b.shape == nil {
		return false
	}
	test := narrowPhase[a.shape.kind][b.shape.kind]
	if test == nil {
		return false
	}
	d.scratch = test(a, b, d.scratch[:0])
	if len(d.scratch) == 0 {
		return false
	}

	key := makePairKey(a, b)
	idx, ok := d.current[key]
	if !ok {
		if !primary {
			return false
		}
		point := d.scratch[0].point
		acceptA := a.SendEvent(&CollisionEvent{Other: b, Point: point})
		acceptB := b.SendEvent(&CollisionEvent{Other: a, Point: point})
		if a.world == nil || b.world == nil {
			return false
		}
		idx = len(d.records)
		d.records = append(d.records, collisionRecord{
			a:        a,
			b:        b,
			accepted: acceptA && acceptB && !a.triggerObject && !b.triggerObject,
		})
		d.current[key] = idx
	}
	rec := &d.records[idx]
	rec.seenPass = d.pass
	if rec.accepted {
		for _, c := range d.scratch {
			d.commit(c)
		}
	}
	return true
}

func (d *CollisionDetector) commit(c candidate) {
	c.pushed.addContact(d.pool.Acquire(c.other, c.point, c.normal, c.depth))
	c.other.addContact(d.pool.Acquire(c.pushed, c.point, c.normal.Mul(-1), c.depth))
	d.touch(c.pushed)
	d.touch(c.other)
}

func (d *CollisionDetector) touch(b *Body) {
	if b.touchPass != d.pass {
		b.touchPass = d.pass
		d.touched = append(d.touched, b)
	}
}

// pruneSeparated drops records not confirmed in this pass and notifies both
// bodies. Pairs of two sleeping bodies are skipped by the broad phase, so
// they stay tracked as long as their shapes still overlap.
func (d *CollisionDetector) pruneSeparated() {
	d.separated = d.separated[:0]
	for i := 0; i < len(d.records); {
		rec := d.records[i]
		if rec.seenPass == d.pass {
			i++
			continue
		}
		alive := rec.a.world != nil && rec.b.world != nil
		if alive && rec.a.physics.sleeping && rec.b.physics.sleeping && d.overlapping(rec.a, rec.b) {
			i++
			continue
		}
		d.removeRecord(i)
		if alive {
			d.separated = append(d.separated, rec)
		}
	}
	for _, rec := range d.separated {
		rec.a.SendEvent(&SeparationEvent{Other: rec.b})
		rec.b.SendEvent(&SeparationEvent{Other: rec.a})
	}
}

// overlapping runs the narrow phase for a and b in both orders without
// creating contacts.
func (d *CollisionDetector) overlapping(a, b *Body) bool {
	if a.shape == nil || b.shape == nil || !a.BBox().Overlaps(b.BBox()) {
		return false
	}
	for _, p := range [2][2]*Body{{a, b}, {b, a}} {
		test := narrowPhase[p[0].shape.kind][p[1].shape.kind]
		if test == nil {
			continue
		}
		d.scratch = test(p[0], p[1], d.scratch[:0])
		if len(d.scratch) > 0 {
			d.scratch = d.scratch[:0]
			return true
		}
	}
	return false
}

func (d *CollisionDetector) removeRecord(i int) {
	delete(d.current, makePairKey(d.records[i].a, d.records[i].b))
	last := len(d.records) - 1
	if i != last {
		d.records[i] = d.records[last]
		d.current[makePairKey(d.records[i].a, d.records[i].b)] = i
	}
	d.records[last] = collisionRecord{}
	d.records = d.records[:last]
}

// forget drops every record involving b without events.
func (d *CollisionDetector) forget(b *Body) {
	for i := 0; i < len(d.records); {
		if d.records[i].a == b || d.records[i].b == b {
			d.removeRecord(i)
			continue
		}
		i++
	}
}

// testRectAgainstRect finds the vertices of a inside b. Every penetrating
// vertex yields a contact pushing a out through the edge of b it entered.
func testRectAgainstRect(a, b *Body, out []candidate) []candidate {
	ra, rb := a.shape, b.shape
	origin := ra.center
	for i := 0; i < 4; i++ {
		v := ra.obb.Vertex(i)
		if !rb.obb.Contains(v) {
			continue
		}
		depth, normal := rb.interpenetration(origin, v)
		out = append(out, candidate{pushed: a, other: b, point: v, normal: normal, depth: depth})
	}
	return out
}

// testRectAgainstCircle probes the circle boundary towards each vertex and
// the center of rect a. A probe inside the rectangle is a collision and the
// circle is pushed out through the edge it entered.
func testRectAgainstCircle(a, b *Body, out []candidate) []candidate {
	rect, circle := a.shape, b.shape
	c := circle.center
	probe := func(p mgl64.Vec2) {
		q := c.Add(geom.ClampLength(p.Sub(c), circle.radius))
		if !rect.obb.Contains(q) {
			return
		}
		depth, normal := rect.interpenetration(c, q)
		out = append(out, candidate{pushed: b, other: a, point: q, normal: normal, depth: depth})
	}
	for i := 0; i < 4; i++ {
		probe(rect.obb.Vertex(i))
	}
	probe(rect.center)
	return out
}

// testCircleAgainstCircle handles each unordered pair once, from the side
// of the body with the lower id.
func testCircleAgainstCircle(a, b *Body, out []candidate) []candidate {
	if a.id > b.id {
		return out
	}
	ca, cb := a.shape, b.shape
	delta := cb.center.Sub(ca.center)
	dist := delta.Len()
	depth := ca.radius + cb.radius - dist
	if depth <= 0 {
		return out
	}
	dir := geom.Normalize(delta)
	point := ca.center.Add(dir.Mul(ca.radius))
	return append(out, candidate{pushed: a, other: b, point: point, normal: dir.Mul(-1), depth: depth})
}
