package world

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/input"
	"github.com/tandem/engine/internal/render"
)

// processReplies drains the render → simulation queue. The returned error
// pair is (callback errors, fatal channel error).
func (w *World) processReplies() (error, error) {
	replies, err := w.replies.Drain()
	if err != nil {
		return nil, fmt.Errorf("drain replies: %w", err)
	}
	var errs error
	for _, r := range replies {
		switch r := r.(type) {
		case render.InputReply:
			w.input.Apply(r.Event)
		case render.ViewportResized:
			w.SetViewportSize(r.Viewport, r.Width, r.Height)
		case render.PickResult:
			errs = multierr.Append(errs, w.handlePick(r))
		}
	}
	return errs, nil
}

// handlePick dispatches OnClick when the hash names a live entity that is
// still listening for clicks. Anything else is a stale result and dropped.
func (w *World) handlePick(r render.PickResult) error {
	if !r.Found {
		return nil
	}
	id, ok := w.hashes[r.Hash]
	if !ok {
		w.diag.StalePicks++
		return nil
	}
	e := w.Entity(id)
	if e == nil {
		w.diag.StalePicks++
		return nil
	}
	if _, listening := w.clickers[id]; !listening {
		w.diag.StalePicks++
		return nil
	}
	w.log.Debug("pick hit", zap.Uint64("request", r.ID), zap.String("entity", e.Name))

	var errs error
	for _, tid := range e.Components() {
		c, owner, ok := w.storage.Lookup(tid)
		if !ok || owner != id {
			continue
		}
		if cl, ok := c.(Clicker); ok {
			if err := cl.OnClick(w.ctx(id, tid)); err != nil {
				errs = multierr.Append(errs, w.callbackFailed("on_click", tid, err))
			}
		}
	}
	return errs
}

// maybeRequestPick sends a pick request when someone listens for clicks,
// the primary button went down this frame, the cursor is free and the
// viewport has a size.
func (w *World) maybeRequestPick() error {
	if len(w.clickers) == 0 || w.input.IsCursorLocked() || !w.input.IsButtonDown(input.ButtonPrimary) {
		return nil
	}
	vpID := render.ViewportID(w.input.ActiveViewport())
	vp, ok := w.viewports[vpID]
	if !ok || vp.Width <= 0 || vp.Height <= 0 {
		return nil
	}
	x, y := w.input.Cursor()
	req := render.PickRequest{
		ID:       w.nextPickID,
		Viewport: vpID,
		X:        clampInt(x, 0, vp.Width-1),
		Y:        clampInt(y, 0, vp.Height-1),
	}
	w.nextPickID++
	w.diag.PickRequests++
	if err := w.out.Send(render.PickRequestMsg{Request: req}); err != nil {
		return fmt.Errorf("send pick request: %w", err)
	}
	return nil
}

// Click dispatches OnClick to id as if a pick had hit it. Ids this world
// never handed out fail with ErrUnknownEntity.
func (w *World) Click(id ecs.EntityID) error {
	if !w.entities.Issued(id) {
		return fmt.Errorf("click %d: %w", id, ErrUnknownEntity)
	}
	e := w.Entity(id)
	if e == nil {
		return fmt.Errorf("click %d: %w", id, ErrEntityDead)
	}
	return w.handlePick(render.PickResult{Hash: e.hash, Found: true})
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
