package world

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/core/system"
)

// Clock tracks frame delta from an injectable time source.
type Clock struct {
	now    func() time.Time
	start  time.Time
	last   time.Time
	delta  time.Duration
	frames uint64
}

func newClock(now func() time.Time) Clock {
	t := now()
	return Clock{now: now, start: t, last: t}
}

func (c *Clock) tick() {
	t := c.now()
	c.delta = t.Sub(c.last)
	c.last = t
	c.frames++
}

func (c *Clock) Delta() time.Duration   { return c.delta }
func (c *Clock) Elapsed() time.Duration { return c.last.Sub(c.start) }
func (c *Clock) Frames() uint64         { return c.frames }

func (w *World) Clock() *Clock { return &w.clock }

type slot struct {
	owner ecs.EntityID
	tid   ecs.TypedID
}

// snapshot lists components in entity slot order, then attachment order.
func (w *World) snapshot(enabledOnly bool) []slot {
	out := make([]slot, 0, w.storage.Len())
	for _, e := range w.records {
		if e == nil || !e.alive || (enabledOnly && !e.enabled) {
			continue
		}
		for _, tid := range e.components {
			out = append(out, slot{owner: e.id, tid: tid})
		}
	}
	return out
}

// each runs fn over the components present at phase start. Components
// removed, or whose entity died or got disabled, since the snapshot are
// skipped; components added since are left for the next phase.
func (w *World) each(phase string, enabledOnly bool, fn func(c any, ctx *Context) error) error {
	var errs error
	for _, s := range w.snapshot(enabledOnly) {
		c, owner, ok := w.storage.Lookup(s.tid)
		if !ok || owner != s.owner {
			continue
		}
		e := w.Entity(owner)
		if e == nil || (enabledOnly && !e.enabled) {
			continue
		}
		if err := fn(c, w.ctx(owner, s.tid)); err != nil {
			errs = multierr.Append(errs, w.callbackFailed(phase, s.tid, err))
		}
	}
	return errs
}

// callbackFailed logs a component error. In strict mode the error is
// returned instead so the frame fails.
func (w *World) callbackFailed(phase string, tid ecs.TypedID, err error) error {
	w.diag.CallbackErrors++
	if w.strict {
		return fmt.Errorf("%s %s: %w", phase, tid, err)
	}
	w.log.Warn("component callback failed",
		zap.String("phase", phase),
		zap.Stringer("component", tid),
		zap.Error(err),
	)
	return nil
}

// FixedUpdate runs whole fixed steps buffered since the last frame.
func (w *World) FixedUpdate() error {
	w.fixed.Advance(w.clock.Delta())
	var errs error
	for w.fixed.Due() {
		errs = multierr.Append(errs, w.each("pre_fixed_update", true, func(c any, ctx *Context) error {
			if u, ok := c.(PreFixedUpdater); ok {
				return u.PreFixedUpdate(ctx)
			}
			return nil
		}))
		errs = multierr.Append(errs, w.each("fixed_update", true, func(c any, ctx *Context) error {
			if u, ok := c.(FixedUpdater); ok {
				return u.FixedUpdate(ctx)
			}
			return nil
		}))
		w.physics.Step(w.fixed.Timestep)
		errs = multierr.Append(errs, w.each("post_fixed_update", true, func(c any, ctx *Context) error {
			if u, ok := c.(PostFixedUpdater); ok {
				return u.PostFixedUpdate(ctx)
			}
			return nil
		}))
		w.fixed.Consume()
	}
	return errs
}

// Update delivers last frame's events, drains replies, dispatches clicks,
// maybe issues a pick and then runs Update and LateUpdate.
func (w *World) Update() error {
	w.events.SwapBuffers()
	w.events.DispatchAll()
	errs, err := w.processReplies()
	if err != nil {
		return err
	}
	if err := w.maybeRequestPick(); err != nil {
		return err
	}
	errs = multierr.Append(errs, w.each("update", true, func(c any, ctx *Context) error {
		if u, ok := c.(Updater); ok {
			return u.Update(ctx)
		}
		return nil
	}))
	errs = multierr.Append(errs, w.each("late_update", true, func(c any, ctx *Context) error {
		if u, ok := c.(LateUpdater); ok {
			return u.LateUpdate(ctx)
		}
		return nil
	}))
	return errs
}

// PostUpdate runs PostUpdate over enabled components, then OnGUI over all
// of them. UI does not follow gameplay enablement.
func (w *World) PostUpdate() error {
	errs := w.each("post_update", true, func(c any, ctx *Context) error {
		if u, ok := c.(PostUpdater); ok {
			return u.PostUpdate(ctx)
		}
		return nil
	})
	errs = multierr.Append(errs, w.each("on_gui", false, func(c any, ctx *Context) error {
		if g, ok := c.(GUIDrawer); ok {
			return g.OnGUI(ctx, w.ui)
		}
		return nil
	}))
	return errs
}

// NextFrame clears per-frame change flags, advances input edges and ticks
// the clock.
func (w *World) NextFrame() error {
	for _, e := range w.records {
		if e == nil || !e.alive {
			continue
		}
		e.Transform.clearDirty()
		e.enabledChanged = false
	}
	w.input.NextFrame()
	w.clock.tick()
	return nil
}

// RegisterSystems adds the frame phases to r in their fixed order.
func (w *World) RegisterSystems(r *system.Runner) {
	r.Register(system.Func{P: system.PhaseFixed, Fn: func(time.Duration) error { return w.FixedUpdate() }})
	r.Register(system.Func{P: system.PhaseUpdate, Fn: func(time.Duration) error { return w.Update() }})
	r.Register(system.Func{P: system.PhasePostUpdate, Fn: func(time.Duration) error { return w.PostUpdate() }})
	r.Register(system.Func{P: system.PhaseSync, Fn: func(time.Duration) error { return w.Sync() }})
	r.Register(system.Func{P: system.PhaseNextFrame, Fn: func(time.Duration) error { return w.NextFrame() }})
}
