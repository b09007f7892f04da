package world

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/core/system"
	"github.com/tandem/engine/internal/render"
)

// Frame runs one full frame through r, which must have had the world's
// phases registered with RegisterSystems. A frame stopped by an earlier
// phase still runs NextFrame, so change flags, input edges and the clock
// advance before the error is returned.
func (w *World) Frame(r *system.Runner) error {
	dt := w.clock.Delta()
	err := r.Tick(dt)
	var pe *system.PhaseError
	if errors.As(err, &pe) && pe.Phase < system.PhaseNextFrame {
		err = multierr.Append(err, r.TickPhase(system.PhaseNextFrame, dt))
	}
	return err
}

// SignalFrameEnd sends the frame rendezvous for vp and blocks until the
// render side has applied everything sent before it and drawn the frame.
func (w *World) SignalFrameEnd(ctx context.Context, vp render.ViewportID) error {
	fe := render.NewFrameEnd(vp)
	if err := w.out.Send(fe); err != nil {
		return fmt.Errorf("send frame end: %w", err)
	}
	select {
	case <-fe.Done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.out.Done():
		// The render side may have signalled right before closing.
		select {
		case <-fe.Done:
			return nil
		default:
		}
		return fmt.Errorf("wait frame end: %w", render.ErrQueueClosed)
	}
}

// Teardown marks every entity dead, runs every Delete callback, sends the
// resulting proxy removals and clears the arenas.
func (w *World) Teardown() error {
	for _, e := range w.records {
		if e == nil {
			continue
		}
		e.alive = false
		comps := e.components
		e.components = nil
		e.children = nil
		e.parent = 0
		for _, tid := range comps {
			w.destroyComponent(e.id, tid)
		}
	}

	var err error
	removed := w.storage.TakeRemoved()
	if len(removed) > 0 && !w.out.IsClosed() {
		batch := make([]render.Msg, 0, len(removed))
		for _, tid := range removed {
			batch = append(batch, render.RemoveProxy{ID: tid})
		}
		if sendErr := w.out.Send(render.CommandBatch{Msgs: batch}); sendErr != nil {
			err = fmt.Errorf("send teardown batch: %w", sendErr)
		}
	}

	// Slots are freed through the pool so stale ids keep failing lookups.
	for i, e := range w.records {
		if e != nil {
			w.entities.Destroy(e.id)
			w.records[i] = nil
		}
	}
	w.roots = nil
	w.storage.TakeFresh()
	clear(w.refCounts)
	clear(w.pending)
	clear(w.hashes)
	clear(w.clickers)
	w.proxyCmds = nil
	w.nextPickID = 0
	w.physics.Reset()
	w.events.Reset()
	for _, vp := range w.viewports {
		vp.Camera = ecs.TypedID{}
		vp.synced = ecs.TypedID{}
	}
	return err
}

// Shutdown tears the world down once. Later calls are no-ops.
func (w *World) Shutdown() error {
	if w.shutdown {
		return nil
	}
	w.shutdown = true
	return w.Teardown()
}

// Uptime returns the time since the world was created.
func (w *World) Uptime() time.Duration { return w.clock.Elapsed() }
