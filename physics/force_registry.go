package physics

// ForceGenerator adds forces to a body once per step, before integration.
type ForceGenerator interface {
	UpdateForce(b *Body, dt float64)
	Enabled() bool
	SetEnabled(enabled bool)
}

// attacher is implemented by generators that configure their body when
// registered.
type attacher interface {
	attach(b *Body)
}

// detacher is implemented by generators that undo attach when they are
// unregistered. held reports whether a body is still bound by another
// registered generator of the same kind.
type detacher interface {
	detach(b *Body, held func(*Body) bool)
}

// involver is implemented by generators that reference bodies other than
// their target.
type involver interface {
	involves(b *Body) bool
}

// ForceGeneratorBase provides the enabled flag. Generators are enabled by
// default.
type ForceGeneratorBase struct {
	disabled bool
}

func (g *ForceGeneratorBase) Enabled() bool           { return !g.disabled }
func (g *ForceGeneratorBase) SetEnabled(enabled bool) { g.disabled = !enabled }

type forceEntry struct {
	gen  ForceGenerator
	body *Body
}

// ForceRegistry binds force generators to bodies.
type ForceRegistry struct {
	entries []forceEntry
}

func NewForceRegistry() *ForceRegistry {
	return &ForceRegistry{}
}

func (r *ForceRegistry) AddForceGenerator(gen ForceGenerator, b *Body) {
	r.entries = append(r.entries, forceEntry{gen: gen, body: b})
	if a, ok := gen.(attacher); ok {
		a.attach(b)
	}
}

// RemoveForceGenerator unregisters every binding of gen.
func (r *ForceRegistry) RemoveForceGenerator(gen ForceGenerator) bool {
	return r.filter(func(e forceEntry) bool { return e.gen == gen })
}

// RemoveForceGenerators unregisters the generators acting on b or
// referencing it.
func (r *ForceRegistry) RemoveForceGenerators(b *Body) bool {
	return r.filter(func(e forceEntry) bool {
		if e.body == b {
			return true
		}
		inv, ok := e.gen.(involver)
		return ok && inv.involves(b)
	})
}

func (r *ForceRegistry) filter(drop func(forceEntry) bool) bool {
	kept := r.entries[:0]
	var dropped []forceEntry
	for _, e := range r.entries {
		if drop(e) {
			dropped = append(dropped, e)
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = forceEntry{}
	}
	r.entries = kept
	for _, e := range dropped {
		if d, ok := e.gen.(detacher); ok {
			d.detach(e.body, r.heldByDetacher)
		}
	}
	return len(dropped) > 0
}

// heldByDetacher reports whether a registered detaching generator acts on
// or references b.
func (r *ForceRegistry) heldByDetacher(b *Body) bool {
	for _, e := range r.entries {
		if _, ok := e.gen.(detacher); !ok {
			continue
		}
		if e.body == b {
			return true
		}
		if inv, ok := e.gen.(involver); ok && inv.involves(b) {
			return true
		}
	}
	return false
}

func (r *ForceRegistry) HasForceGenerators(b *Body) bool {
	for _, e := range r.entries {
		if e.body == b {
			return true
		}
	}
	return false
}

func (r *ForceRegistry) Len() int { return len(r.entries) }

// Update runs every enabled generator whose body is being integrated.
func (r *ForceRegistry) Update(dt float64) {
	for _, e := range r.entries {
		if !e.gen.Enabled() || e.body.index < 0 {
			continue
		}
		e.gen.UpdateForce(e.body, dt)
	}
}
