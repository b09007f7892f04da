// Package world owns the simulation side of the engine: the entity arena,
// component storage, the per-frame phase orchestration and the diff that is
// shipped to the render goroutine once per frame.
//
// A World is confined to the goroutine that drives it. Nothing here is
// safe for concurrent use; the render side only ever sees messages.
package world

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/tandem/engine/internal/config"
	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/core/event"
	"github.com/tandem/engine/internal/input"
	"github.com/tandem/engine/internal/physics"
	"github.com/tandem/engine/internal/render"
)

// World is the entity arena plus frame orchestrator.
type World struct {
	entities *ecs.Pool[ecs.EntityID]
	records  []*Entity
	roots    []ecs.EntityID
	storage  *ecs.Storage

	refCounts map[ecs.EntityID]int
	pending   map[ecs.EntityID]struct{}
	hashes    map[uint32]ecs.EntityID
	clickers  map[ecs.EntityID]struct{}

	out        *render.Queue[render.Msg]
	replies    *render.Queue[render.Reply]
	proxyCmds  []render.Msg
	ui         *render.UI
	viewports  map[render.ViewportID]*Viewport
	nextVP     render.ViewportID
	nextPickID uint64

	events  *event.Bus
	input   *input.Manager
	fixed   *physics.Accumulator
	physics *physics.World
	clock   Clock

	strict   bool
	shutdown bool
	diag     Diagnostics
	log      *zap.Logger
}

// New creates a world that sends its per-frame diff on out and reads pick
// results, input and viewport sizes from replies.
func New(cfg config.EngineConfig, out *render.Queue[render.Msg], replies *render.Queue[render.Reply], log *zap.Logger) *World {
	w := &World{
		entities:  ecs.NewPool[ecs.EntityID](),
		records:   make([]*Entity, 0, 256),
		storage:   ecs.NewStorage(),
		refCounts: make(map[ecs.EntityID]int),
		pending:   make(map[ecs.EntityID]struct{}),
		hashes:    make(map[uint32]ecs.EntityID, 256),
		clickers:  make(map[ecs.EntityID]struct{}),
		out:       out,
		replies:   replies,
		ui:        render.NewUI(),
		viewports: make(map[render.ViewportID]*Viewport, 2),
		nextVP:    render.PrimaryViewport + 1,
		events:    event.NewBus(),
		input:     input.NewManager(),
		fixed:     physics.NewAccumulator(cfg.FixedTimestep, cfg.MaxFixedSteps),
		physics:   physics.NewWorld(),
		clock:     newClock(time.Now),
		strict:    cfg.Strict,
		log:       log.Named("world"),
	}
	w.viewports[render.PrimaryViewport] = &Viewport{ID: render.PrimaryViewport}
	return w
}

func (w *World) Storage() *ecs.Storage    { return w.storage }
func (w *World) Input() *input.Manager    { return w.input }
func (w *World) Events() *event.Bus       { return w.events }
func (w *World) Physics() *physics.World  { return w.physics }
func (w *World) Diagnostics() Diagnostics { return w.diag }
func (w *World) Logger() *zap.Logger      { return w.log }
func (w *World) IsShuttingDown() bool     { return w.shutdown }
func (w *World) Roots() []ecs.EntityID    { return append([]ecs.EntityID(nil), w.roots...) }
func (w *World) EntityCount() int         { return w.entities.Len() }
func (w *World) PendingRemovals() int     { return len(w.pending) }
func (w *World) Alpha() float32           { return w.fixed.Alpha() }

// FixedTimestep is the duration of one fixed step.
func (w *World) FixedTimestep() time.Duration { return w.fixed.Timestep }

// SetClock replaces the frame clock's time source.
func (w *World) SetClock(now func() time.Time) { w.clock = newClock(now) }

// NewEntity allocates a live, enabled root entity with a fresh hash.
func (w *World) NewEntity(name string) ecs.EntityID {
	id := w.entities.Create()
	idx := int(id.Index())
	for len(w.records) <= idx {
		w.records = append(w.records, nil)
	}
	e := &Entity{
		Name:      name,
		Transform: NewTransform(),
		id:        id,
		alive:     true,
		enabled:   true,
	}
	e.hash = w.allocateHash(id)
	w.records[idx] = e
	w.roots = append(w.roots, id)
	event.Emit(w.events, event.EntityCreated{ID: id, Name: name})
	return id
}

// allocateHash derives a nonzero hash from the id and rehashes the seed
// until it is free.
func (w *World) allocateHash(id ecs.EntityID) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	seed := xxhash.Sum64(buf[:])
	for {
		h := uint32(seed)
		if h == 0 {
			h = 1
		}
		if _, taken := w.hashes[h]; !taken {
			w.hashes[h] = id
			return h
		}
		seed = seed*6364136223846793005 + 1
	}
}

// record returns the slot's record while it is allocated, alive or not.
func (w *World) record(id ecs.EntityID) *Entity {
	if !w.entities.Alive(id) {
		return nil
	}
	return w.records[id.Index()]
}

// Entity resolves id to its record. Returns nil for stale and dead ids.
func (w *World) Entity(id ecs.EntityID) *Entity {
	e := w.record(id)
	if e == nil || !e.alive {
		return nil
	}
	return e
}

// Exists reports whether id names a live entity.
func (w *World) Exists(id ecs.EntityID) bool {
	return w.Entity(id) != nil
}

// EntityByHash returns the registered entity with the given hash. The
// entity may be dead but still held by a strong ref.
func (w *World) EntityByHash(hash uint32) (ecs.EntityID, bool) {
	id, ok := w.hashes[hash]
	return id, ok
}

// Delete marks id dead, recursively. Children go first, then components
// run Delete and leave storage in attachment order. Freeing the slot is
// deferred while strong refs are outstanding. Repeated calls are no-ops.
func (w *World) Delete(id ecs.EntityID) {
	e := w.record(id)
	if e == nil || !e.alive {
		return
	}
	e.alive = false

	for _, child := range e.Children() {
		w.Delete(child)
	}
	comps := e.components
	e.components = nil
	for _, tid := range comps {
		w.destroyComponent(id, tid)
	}
	e.children = nil
	w.unlink(e)
	w.scheduleRemoval(id)
}

func (w *World) scheduleRemoval(id ecs.EntityID) {
	if w.refCounts[id] > 0 {
		w.pending[id] = struct{}{}
		return
	}
	w.finalize(id)
}

// finalize frees the slot and releases the hash. Runs exactly once per entity.
func (w *World) finalize(id ecs.EntityID) {
	e := w.record(id)
	if e == nil {
		return
	}
	delete(w.pending, id)
	delete(w.refCounts, id)
	delete(w.clickers, id)
	if owner, ok := w.hashes[e.hash]; ok && owner == id {
		delete(w.hashes, e.hash)
	}
	w.detach(e)
	w.records[id.Index()] = nil
	w.entities.Destroy(id)
	w.diag.Finalized++
	event.Emit(w.events, event.EntityFinalized{ID: id, Name: e.Name})
}

// detach drops any remaining relationship links of a dead entity.
func (w *World) detach(e *Entity) {
	for _, child := range e.children {
		if c := w.record(child); c != nil && c.parent == e.id {
			c.parent = 0
		}
	}
	e.children = nil
	w.unlink(e)
}

// unlink removes e from its parent's child list or from the root list.
func (w *World) unlink(e *Entity) {
	if !e.parent.IsZero() {
		if p := w.record(e.parent); p != nil {
			p.removeChild(e.id)
		}
		e.parent = 0
		return
	}
	for i, r := range w.roots {
		if r == e.id {
			w.roots = append(w.roots[:i], w.roots[i+1:]...)
			return
		}
	}
}

// retain bumps the strong count. Fails for absent entities and for dead
// ones nobody holds anymore.
func (w *World) retain(id ecs.EntityID) bool {
	e := w.record(id)
	if e == nil {
		return false
	}
	if !e.alive && w.refCounts[id] == 0 {
		return false
	}
	w.refCounts[id]++
	return true
}

func (w *World) release(id ecs.EntityID) {
	n, ok := w.refCounts[id]
	if !ok {
		return
	}
	if n > 1 {
		w.refCounts[id] = n - 1
		return
	}
	delete(w.refCounts, id)
	if _, pending := w.pending[id]; pending {
		w.finalize(id)
	}
}

// RefCount returns the number of outstanding strong refs to id.
func (w *World) RefCount(id ecs.EntityID) int { return w.refCounts[id] }

func (w *World) diagnose(err error, fields ...zap.Field) {
	w.log.Warn("logic error", append(fields, zap.Error(err))...)
}
