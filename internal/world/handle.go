package world

import "github.com/tandem/engine/internal/core/ecs"

// StrongRef keeps an entity's slot and hash allocated, even after Delete,
// until Release. A StrongRef belongs to the simulation goroutine.
type StrongRef struct {
	w        *World
	id       ecs.EntityID
	released bool
}

// Retain takes a strong reference to id. It fails if id is not allocated,
// or if it is dead and nothing else holds it.
func (w *World) Retain(id ecs.EntityID) (*StrongRef, bool) {
	if !w.retain(id) {
		return nil, false
	}
	return &StrongRef{w: w, id: id}, true
}

func (r *StrongRef) ID() ecs.EntityID { return r.id }

// Get returns the record, dead or alive, while the ref is held.
func (r *StrongRef) Get() *Entity {
	if r.released {
		return nil
	}
	return r.w.record(r.id)
}

// IsAlive reports whether the entity has not been deleted.
func (r *StrongRef) IsAlive() bool {
	e := r.Get()
	return e != nil && e.alive
}

// Clone takes another strong reference to the same entity.
func (r *StrongRef) Clone() (*StrongRef, bool) {
	if r.released {
		return nil, false
	}
	return r.w.Retain(r.id)
}

// Release drops the reference. The last release of a deleted entity frees
// its slot. Calling Release again is a no-op.
func (r *StrongRef) Release() {
	if r.released {
		return
	}
	r.released = true
	r.w.release(r.id)
}

func (r *StrongRef) Downgrade() WeakRef { return WeakRef{id: r.id} }

// WeakRef names an entity without keeping it allocated.
type WeakRef struct {
	id ecs.EntityID
}

func Weak(id ecs.EntityID) WeakRef { return WeakRef{id: id} }

func (r WeakRef) ID() ecs.EntityID { return r.id }

// Upgrade succeeds if the entity is alive, or dead but still strongly held.
func (r WeakRef) Upgrade(w *World) (*StrongRef, bool) {
	return w.Retain(r.id)
}

// Resolve returns the live record, or nil.
func (r WeakRef) Resolve(w *World) *Entity {
	return w.Entity(r.id)
}
