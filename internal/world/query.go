package world

import (
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/tandem/engine/internal/core/ecs"
)

// Walk visits live entities depth-first from the roots, parents before
// children. Returning false from fn skips that subtree.
func (w *World) Walk(fn func(e *Entity, depth int) bool) {
	var visit func(ids []ecs.EntityID, depth int)
	visit = func(ids []ecs.EntityID, depth int) {
		for _, id := range ids {
			e := w.Entity(id)
			if e == nil {
				continue
			}
			if fn(e, depth) {
				visit(e.children, depth+1)
			}
		}
	}
	visit(w.roots, 0)
}

// FindByName returns the first live entity named name in scene order.
func (w *World) FindByName(name string) (ecs.EntityID, bool) {
	var found ecs.EntityID
	w.Walk(func(e *Entity, _ int) bool {
		if found.IsZero() && e.Name == name {
			found = e.id
		}
		return found.IsZero()
	})
	return found, !found.IsZero()
}

// FindWithProperty returns every live entity that has key set.
func (w *World) FindWithProperty(key string) []ecs.EntityID {
	var out []ecs.EntityID
	w.Walk(func(e *Entity, _ int) bool {
		if e.HasProperty(key) {
			out = append(out, e.id)
		}
		return true
	})
	return out
}

// FindWithPropertyValue returns every live entity whose key equals v.
func (w *World) FindWithPropertyValue(key string, v any) []ecs.EntityID {
	var out []ecs.EntityID
	w.Walk(func(e *Entity, _ int) bool {
		if got, ok := e.Property(key); ok && reflect.DeepEqual(got, v) {
			out = append(out, e.id)
		}
		return true
	})
	return out
}

// ComponentsOfType returns every live T in scene order.
func ComponentsOfType[T any](w *World) []CRef[T] {
	typ := ecs.TypeOf[T]()
	var out []CRef[T]
	w.Walk(func(e *Entity, _ int) bool {
		for _, tid := range e.components {
			if tid.Type == typ {
				out = append(out, CRef[T]{w: w, id: tid, owner: e.id})
			}
		}
		return true
	})
	return out
}

// NotifyFor registers id for the given engine events.
func (w *World) NotifyFor(id ecs.EntityID, ev ecs.EventMask) {
	e := w.Entity(id)
	if e == nil {
		w.diag.DeadEntityOps++
		return
	}
	e.events = e.events.With(ev)
	w.updateEventRegistration(e)
}

// StopNotifyFor removes the registration for the given events.
func (w *World) StopNotifyFor(id ecs.EntityID, ev ecs.EventMask) {
	e := w.record(id)
	if e == nil {
		return
	}
	e.events = e.events.Without(ev)
	w.updateEventRegistration(e)
}

func (w *World) IsListeningFor(id ecs.EntityID, ev ecs.EventMask) bool {
	e := w.Entity(id)
	return e != nil && e.events.Has(ev)
}

// ClickListeners returns how many entities want click notifications.
func (w *World) ClickListeners() int { return len(w.clickers) }

func (w *World) updateEventRegistration(e *Entity) {
	if e.events.Has(ecs.EventClick) {
		w.clickers[e.id] = struct{}{}
	} else {
		delete(w.clickers, e.id)
	}
}

// PrintObjects logs the scene graph, one line per entity.
func (w *World) PrintObjects() {
	w.Walk(func(e *Entity, depth int) bool {
		names := make([]string, 0, len(e.components))
		for _, tid := range e.components {
			names = append(names, tid.TypeName())
		}
		w.log.Info(strings.Repeat("  ", depth)+e.Name,
			zap.Uint64("id", uint64(e.id)),
			zap.Uint32("hash", e.hash),
			zap.Bool("enabled", e.enabled),
			zap.Strings("components", names),
		)
		return true
	})
}
