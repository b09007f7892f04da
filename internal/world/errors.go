package world

import "errors"

var (
	ErrDuplicateComponent = errors.New("component type already attached")
	ErrEntityDead         = errors.New("entity is dead")
	ErrUnknownEntity      = errors.New("unknown entity")
	ErrStaleComponent     = errors.New("stale component id")
)

// Diagnostics counts logic errors and transient misses the world degraded
// to no-ops instead of failing the frame.
type Diagnostics struct {
	DuplicateComponents uint64
	DeadEntityOps       uint64
	StaleComponentOps   uint64
	CallbackErrors      uint64
	StalePicks          uint64
	PickRequests        uint64
	Finalized           uint64
}
