package world

import (
	"github.com/tandem/engine/internal/core/ecs"
)

// Entity is one node of the scene graph. Records are owned by the World
// and only touched on the simulation goroutine; hold an EntityID or a
// StrongRef, never the pointer across frames.
type Entity struct {
	Name      string
	Transform Transform

	id             ecs.EntityID
	hash           uint32
	alive          bool
	enabled        bool
	enabledChanged bool
	parent         ecs.EntityID
	children       []ecs.EntityID
	components     []ecs.TypedID
	properties     map[string]any
	events         ecs.EventMask
}

func (e *Entity) ID() ecs.EntityID      { return e.id }
func (e *Entity) Hash() uint32          { return e.hash }
func (e *Entity) IsAlive() bool         { return e.alive }
func (e *Entity) IsEnabled() bool       { return e.enabled }
func (e *Entity) Parent() ecs.EntityID  { return e.parent }
func (e *Entity) HasParent() bool       { return !e.parent.IsZero() }
func (e *Entity) Events() ecs.EventMask { return e.events }
func (e *Entity) ChildCount() int       { return len(e.children) }
func (e *Entity) ComponentCount() int   { return len(e.components) }

// Children returns a copy of the ordered child list.
func (e *Entity) Children() []ecs.EntityID {
	return append([]ecs.EntityID(nil), e.children...)
}

// Components returns a copy of the attached component ids in attachment order.
func (e *Entity) Components() []ecs.TypedID {
	return append([]ecs.TypedID(nil), e.components...)
}

func (e *Entity) Enable()  { e.SetEnabled(true) }
func (e *Entity) Disable() { e.SetEnabled(false) }

func (e *Entity) SetEnabled(on bool) {
	if e.enabled == on {
		return
	}
	e.enabled = on
	e.enabledChanged = !e.enabledChanged
}

func (e *Entity) SetProperty(key string, v any) {
	if e.properties == nil {
		e.properties = make(map[string]any)
	}
	e.properties[key] = v
}

func (e *Entity) Property(key string) (any, bool) {
	v, ok := e.properties[key]
	return v, ok
}

func (e *Entity) HasProperty(key string) bool {
	_, ok := e.properties[key]
	return ok
}

func (e *Entity) RemoveProperty(key string) {
	delete(e.properties, key)
}

func (e *Entity) componentIndex(tid ecs.TypedID) int {
	for i, c := range e.components {
		if c == tid {
			return i
		}
	}
	return -1
}

func (e *Entity) removeChild(child ecs.EntityID) {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return
		}
	}
}
