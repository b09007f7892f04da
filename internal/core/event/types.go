package event

import "github.com/tandem/engine/internal/core/ecs"

// World lifecycle events.

type EntityCreated struct {
	ID   ecs.EntityID
	Name string
}

// EntityFinalized is emitted when a deleted entity's slot is freed, after
// its last strong reference went away.
type EntityFinalized struct {
	ID   ecs.EntityID
	Name string
}

type ViewportResized struct {
	Viewport      uint32
	Width, Height int
}
