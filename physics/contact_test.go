package physics

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestContactPoolReuse(t *testing.T) {
	pool := NewContactPool()
	c := pool.Acquire(nil, mgl64.Vec2{1, 2}, mgl64.Vec2{0, 1}, 0.5)
	if !c.Live() || pool.InUse() != 1 {
		t.Fatalf("acquired contact: live=%v inUse=%d", c.Live(), pool.InUse())
	}
	gen := c.Generation()
	pool.Release(c)
	if c.Live() || pool.InUse() != 0 {
		t.Fatalf("released contact: live=%v inUse=%d", c.Live(), pool.InUse())
	}
	if c.Generation() != gen+1 {
		t.Errorf("generation = %d, want %d", c.Generation(), gen+1)
	}

	again := pool.Acquire(nil, mgl64.Vec2{}, mgl64.Vec2{1, 0}, 1)
	if again != c {
		t.Error("released contact was not reused")
	}
	if pool.Capacity() != 1 {
		t.Errorf("Capacity = %d, want 1", pool.Capacity())
	}
}

func TestContactPoolGrowsInBlocks(t *testing.T) {
	pool := NewContactPool()
	first := pool.Acquire(nil, mgl64.Vec2{}, mgl64.Vec2{}, 0)
	for range contactBlockSize + 10 {
		pool.Acquire(nil, mgl64.Vec2{}, mgl64.Vec2{}, 0)
	}
	if pool.InUse() != contactBlockSize+11 {
		t.Fatalf("InUse = %d", pool.InUse())
	}
	// contacts from the first block must not move when the pool grows
	first.depth = 42
	if pool.blocks[0][0].depth != 42 {
		t.Error("first contact was relocated")
	}
}

func TestContactPoolDoubleReleasePanics(t *testing.T) {
	pool := NewContactPool()
	c := pool.Acquire(nil, mgl64.Vec2{}, mgl64.Vec2{}, 0)
	pool.Release(c)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("second Release did not panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "released twice") {
			t.Errorf("unexpected panic %v", r)
		}
	}()
	pool.Release(c)
}

func TestDeepestContact(t *testing.T) {
	pool := NewContactPool()
	a := pool.Acquire(nil, mgl64.Vec2{}, mgl64.Vec2{}, 0.5)
	b := pool.Acquire(nil, mgl64.Vec2{}, mgl64.Vec2{}, 0.9)
	c := pool.Acquire(nil, mgl64.Vec2{}, mgl64.Vec2{}, 0.9)
	g := ContactGroup{Contacts: []*Contact{a, b, c}}
	if got := g.deepest(); got != b {
		t.Errorf("deepest = %v, want first of the tied contacts", got)
	}
	if (&ContactGroup{}).deepest() != nil {
		t.Error("empty group returned a contact")
	}
}
