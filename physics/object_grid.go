package physics

import (
	"github.com/0x5844/minicore/geom"
)

// cellRange is the inclusive block of cells a body was inserted into.
type cellRange struct {
	i0, i1, j0, j1 int
}

type gridCell struct {
	bodies []*Body
	slots  map[*Body]int
	dirty  int // position in ObjectGrid.dirty, or -1
}

func (c *gridCell) add(b *Body) {
	if c.slots == nil {
		c.slots = make(map[*Body]int)
	}
	if _, ok := c.slots[b]; ok {
		return
	}
	c.slots[b] = len(c.bodies)
	c.bodies = append(c.bodies, b)
}

func (c *gridCell) remove(b *Body) {
	i, ok := c.slots[b]
	if !ok {
		return
	}
	last := len(c.bodies) - 1
	if i != last {
		moved := c.bodies[last]
		c.bodies[i] = moved
		c.slots[moved] = i
	}
	c.bodies[last] = nil
	c.bodies = c.bodies[:last]
	delete(c.slots, b)
}

// BodyPair is an ordered broad-phase candidate.
type BodyPair struct {
	A, B *Body
}

type pairKey struct {
	lo, hi uint64
}

func makePairKey(a, b *Body) pairKey {
	if a.id < b.id {
		return pairKey{a.id, b.id}
	}
	return pairKey{b.id, a.id}
}

// ObjectGrid is the uniform-grid broad phase. Bodies are bucketed into every
// cell their bounding box covers, and only dirty cells, those touched since
// they last produced no candidates, are scanned for pairs.
type ObjectGrid struct {
	bbox             geom.BBox
	horSize, verSize int
	cells            []gridCell
	dirty            []int

	seen   map[pairKey]struct{}
	pairs  []BodyPair
	settle []int
}

// NewObjectGrid covers bbox with cells no larger than leafW x leafH. The
// cell counts are truncated, so cells may end up slightly larger.
func NewObjectGrid(bbox geom.BBox, leafW, leafH float64) *ObjectGrid {
	hor, ver := 1, 1
	if leafW > 0 {
		hor = max(1, int(bbox.Width()/leafW))
	}
	if leafH > 0 {
		ver = max(1, int(bbox.Height()/leafH))
	}
	g := &ObjectGrid{
		bbox:    bbox,
		horSize: hor,
		verSize: ver,
		cells:   make([]gridCell, hor*ver),
		seen:    make(map[pairKey]struct{}),
	}
	for i := range g.cells {
		g.cells[i].dirty = -1
	}
	return g
}

func (g *ObjectGrid) HorSize() int   { return g.horSize }
func (g *ObjectGrid) VerSize() int   { return g.verSize }
func (g *ObjectGrid) CellCount() int { return len(g.cells) }

// DirtyCellCount returns how many cells will be scanned by the next
// PossibleCollisions call.
func (g *ObjectGrid) DirtyCellCount() int { return len(g.dirty) }

// IsDirty reports whether cell (i, j) is in the dirty set.
func (g *ObjectGrid) IsDirty(i, j int) bool {
	return g.cells[j*g.horSize+i].dirty >= 0
}

// CellBodies returns the bodies bucketed in cell (i, j).
func (g *ObjectGrid) CellBodies(i, j int) []*Body {
	return g.cells[j*g.horSize+i].bodies
}

func (g *ObjectGrid) indexRange(bb geom.BBox) cellRange {
	sx := float64(g.horSize) / g.bbox.Width()
	sy := float64(g.verSize) / g.bbox.Height()
	return cellRange{
		i0: geom.Clamp(int((bb.Min[0]-g.bbox.Min[0])*sx), 0, g.horSize-1),
		i1: geom.Clamp(int((bb.Max[0]-g.bbox.Min[0])*sx), 0, g.horSize-1),
		j0: geom.Clamp(int((bb.Min[1]-g.bbox.Min[1])*sy), 0, g.verSize-1),
		j1: geom.Clamp(int((bb.Max[1]-g.bbox.Min[1])*sy), 0, g.verSize-1),
	}
}

// CellRange returns the cells body was last inserted into. ok is false when
// the body is not in the grid.
func (g *ObjectGrid) CellRange(b *Body) (i0, i1, j0, j1 int, ok bool) {
	r := b.cellRange
	return r.i0, r.i1, r.j0, r.j1, b.inGrid
}

// Insert buckets b by its current bounding box. Shapeless bodies are ignored.
func (g *ObjectGrid) Insert(b *Body) {
	if b.shape == nil || b.inGrid {
		return
	}
	r := g.indexRange(b.shape.BBox())
	b.cellRange = r
	b.inGrid = true
	for j := r.j0; j <= r.j1; j++ {
		for i := r.i0; i <= r.i1; i++ {
			idx := j*g.horSize + i
			g.cells[idx].add(b)
			g.markDirty(idx)
		}
	}
}

// Remove takes b out of the cells recorded at insertion.
func (g *ObjectGrid) Remove(b *Body) {
	if !b.inGrid {
		return
	}
	r := b.cellRange
	for j := r.j0; j <= r.j1; j++ {
		for i := r.i0; i <= r.i1; i++ {
			idx := j*g.horSize + i
			c := &g.cells[idx]
			c.remove(b)
			if len(c.bodies) == 0 {
				g.clearDirty(idx)
			}
		}
	}
	b.inGrid = false
}

func (g *ObjectGrid) markDirty(idx int) {
	if g.cells[idx].dirty >= 0 {
		return
	}
	g.cells[idx].dirty = len(g.dirty)
	g.dirty = append(g.dirty, idx)
}

func (g *ObjectGrid) clearDirty(idx int) {
	pos := g.cells[idx].dirty
	if pos < 0 {
		return
	}
	last := len(g.dirty) - 1
	if pos != last {
		moved := g.dirty[last]
		g.dirty[pos] = moved
		g.cells[moved].dirty = pos
	}
	g.dirty = g.dirty[:last]
	g.cells[idx].dirty = -1
}

// PossibleCollisions scans the dirty cells and returns every qualifying pair
// in both orders. Cells without qualifying pairs leave the dirty set. The
// returned slice is reused by the next call.
func (g *ObjectGrid) PossibleCollisions() []BodyPair {
	clear(g.seen)
	g.pairs = g.pairs[:0]
	g.settle = g.settle[:0]

	for _, idx := range g.dirty {
		bodies := g.cells[idx].bodies
		found := false
		for i := 0; i < len(bodies); i++ {
			for j := i + 1; j < len(bodies); j++ {
				a, b := bodies[i], bodies[j]
				if !canCollide(a, b) {
					continue
				}
				found = true
				key := makePairKey(a, b)
				if _, ok := g.seen[key]; ok {
					continue
				}
				g.seen[key] = struct{}{}
				g.pairs = append(g.pairs, BodyPair{a, b}, BodyPair{b, a})
			}
		}
		if !found {
			g.settle = append(g.settle, idx)
		}
	}

	for _, idx := range g.settle {
		g.clearDirty(idx)
	}
	return g.pairs
}

// canCollide applies the broad-phase pair filter.
func canCollide(a, b *Body) bool {
	if a == b || a.parent == b || b.parent == a {
		return false
	}
	if a.physics.sleeping && b.physics.sleeping {
		return false
	}
	if !a.collidable() || !b.collidable() {
		return false
	}
	pa, pb := &a.physics, &b.physics
	if pa.neverCollideWithTag != NoTag && pa.neverCollideWithTag == pb.collisionTag {
		return false
	}
	if pb.neverCollideWithTag != NoTag && pb.neverCollideWithTag == pa.collisionTag {
		return false
	}
	if a.collisionLayer != b.collisionLayer && a.collisionLayer != WildcardLayer && b.collisionLayer != WildcardLayer {
		return false
	}
	return a.BBox().Overlaps(b.BBox())
}
