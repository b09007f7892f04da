package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/tandem/engine/internal/core/ecs"
)

// AddChild moves child under parent. No-op if either is dead, if they are
// the same entity, or if child is an ancestor of parent.
func (w *World) AddChild(parent, child ecs.EntityID) bool {
	p, c := w.Entity(parent), w.Entity(child)
	if p == nil || c == nil || parent == child {
		return false
	}
	if w.IsAncestor(child, parent) {
		return false
	}
	if c.parent == parent {
		return true
	}
	w.unlink(c)
	c.parent = parent
	p.children = append(p.children, child)
	c.Transform.dirty = true
	return true
}

// AddRoot moves id back to the root list.
func (w *World) AddRoot(id ecs.EntityID) bool {
	e := w.Entity(id)
	if e == nil {
		return false
	}
	if e.parent.IsZero() {
		return true
	}
	w.unlink(e)
	w.roots = append(w.roots, id)
	e.Transform.dirty = true
	return true
}

// IsAncestor reports whether a is a strict ancestor of b.
func (w *World) IsAncestor(a, b ecs.EntityID) bool {
	e := w.record(b)
	for e != nil && !e.parent.IsZero() {
		if e.parent == a {
			return true
		}
		e = w.record(e.parent)
	}
	return false
}

// Parents returns the ancestor chain of id, nearest first.
func (w *World) Parents(id ecs.EntityID) []ecs.EntityID {
	var out []ecs.EntityID
	e := w.Entity(id)
	for e != nil && !e.parent.IsZero() {
		out = append(out, e.parent)
		e = w.record(e.parent)
	}
	return out
}

// Children returns the direct children of id.
func (w *World) Children(id ecs.EntityID) []ecs.EntityID {
	e := w.Entity(id)
	if e == nil {
		return nil
	}
	return e.Children()
}

// WorldMatrix composes local transforms from the root down to id.
func (w *World) WorldMatrix(id ecs.EntityID) mgl32.Mat4 {
	e := w.record(id)
	if e == nil {
		return mgl32.Ident4()
	}
	m := e.Transform.Local()
	for p := w.record(e.parent); p != nil; p = w.record(p.parent) {
		m = p.Transform.Local().Mul4(m)
	}
	return m
}

// worldDirty reports whether id or any ancestor moved this frame.
func (w *World) worldDirty(e *Entity) bool {
	for ; e != nil; e = w.record(e.parent) {
		if e.Transform.dirty {
			return true
		}
	}
	return false
}
