package world

import (
	"fmt"

	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/render"
)

// DrawCtx collects one component's proxy commands for the current batch.
type DrawCtx struct {
	id    ecs.TypedID
	batch *[]render.Msg
}

func (d *DrawCtx) ID() ecs.TypedID { return d.id }

// SendProxyUpdate queues a closure that mutates only what changed.
func (d *DrawCtx) SendProxyUpdate(fn func(p render.Proxy)) {
	*d.batch = append(*d.batch, render.ProxyUpdate{ID: d.id, Fn: fn})
}

func (d *DrawCtx) SendLightProxyUpdate(fn func(l *render.LightProxy)) {
	*d.batch = append(*d.batch, render.LightProxyUpdate{ID: d.id, Fn: fn})
}

func (d *DrawCtx) DisableProxy() {
	*d.batch = append(*d.batch, render.ProxyState{ID: d.id, Enabled: false})
}

func (d *DrawCtx) EnableProxy() {
	*d.batch = append(*d.batch, render.ProxyState{ID: d.id, Enabled: true})
}

// QueueProxyUpdate queues a proxy closure outside UpdateProxy. It ships
// with this frame's batch, ahead of the frame's removals.
func (w *World) QueueProxyUpdate(tid ecs.TypedID, fn func(p render.Proxy)) {
	w.proxyCmds = append(w.proxyCmds, render.ProxyUpdate{ID: tid, Fn: fn})
}

func (w *World) QueueLightProxyUpdate(tid ecs.TypedID, fn func(l *render.LightProxy)) {
	w.proxyCmds = append(w.proxyCmds, render.LightProxyUpdate{ID: tid, Fn: fn})
}

// CameraSource is implemented by components that can drive a viewport's
// active camera. It returns nothing when the camera did not change, unless
// switched reports that it just became the viewport's camera again and the
// render side still holds another camera's view.
type CameraSource interface {
	CameraUpdates(c *Context, vp *Viewport, switched bool) []render.Msg
}

// Sync diffs this frame's changes into one CommandBatch, in this order:
// proxies for fresh components, queued proxy commands, removals, world
// transforms and enable state, per-component proxy diffs, cameras. The
// frame's UI follows as a separate message.
func (w *World) Sync() error {
	batch := make([]render.Msg, 0, w.storage.Len()+len(w.proxyCmds))

	for _, tid := range w.storage.TakeFresh() {
		c, owner, ok := w.storage.Lookup(tid)
		if !ok {
			continue
		}
		e := w.Entity(owner)
		if e == nil {
			continue
		}
		ctx := w.ctx(owner, tid)
		registered := false
		if pc, ok := c.(RenderProxyCreator); ok {
			if p := pc.CreateRenderProxy(ctx); p != nil {
				batch = append(batch, render.RegisterProxy{ID: tid, Hash: e.hash, Proxy: p, Transform: w.WorldMatrix(owner)})
				registered = true
			}
		}
		if lc, ok := c.(LightProxyCreator); ok {
			if l := lc.CreateLightProxy(ctx); l != nil {
				l.Position = w.WorldMatrix(owner).Col(3).Vec3()
				batch = append(batch, render.RegisterLightProxy{ID: tid, Light: l})
				registered = true
			}
		}
		if registered && !e.enabled {
			batch = append(batch, render.ProxyState{ID: tid, Enabled: false})
		}
	}

	batch = append(batch, w.proxyCmds...)
	w.proxyCmds = nil

	for _, tid := range w.storage.TakeRemoved() {
		batch = append(batch, render.RemoveProxy{ID: tid})
	}

	for _, e := range w.records {
		if e == nil || !e.alive || len(e.components) == 0 {
			continue
		}
		if w.worldDirty(e) {
			m := w.WorldMatrix(e.id)
			for _, tid := range e.components {
				batch = append(batch, render.UpdateTransform{ID: tid, Matrix: m})
			}
		}
		if e.enabledChanged {
			for _, tid := range e.components {
				batch = append(batch, render.ProxyState{ID: tid, Enabled: e.enabled})
			}
		}
	}

	for _, s := range w.snapshot(false) {
		c, ok := w.liveComponent(s)
		if !ok {
			continue
		}
		if pu, ok := c.(ProxyUpdater); ok {
			pu.UpdateProxy(w.ctx(s.owner, s.tid), &DrawCtx{id: s.tid, batch: &batch})
		}
	}

	w.syncCameras(&batch)

	if err := w.out.Send(render.CommandBatch{Msgs: batch}); err != nil {
		return fmt.Errorf("send command batch: %w", err)
	}
	if err := w.out.Send(render.UpdateUI{Viewport: render.PrimaryViewport, Frame: w.ui.Finish()}); err != nil {
		return fmt.Errorf("send ui: %w", err)
	}
	return nil
}

func (w *World) liveComponent(s slot) (any, bool) {
	c, owner, ok := w.storage.Lookup(s.tid)
	if !ok || owner != s.owner || !w.Exists(owner) {
		return nil, false
	}
	return c, true
}

func (w *World) syncCameras(batch *[]render.Msg) {
	for _, id := range w.Viewports() {
		vp := w.viewports[id]
		if vp.Camera.IsZero() {
			continue
		}
		c, owner, ok := w.storage.Lookup(vp.Camera)
		if !ok || !w.Exists(owner) {
			continue
		}
		if cs, ok := c.(CameraSource); ok {
			switched := vp.synced != vp.Camera
			*batch = append(*batch, cs.CameraUpdates(w.ctx(owner, vp.Camera), vp, switched)...)
			vp.synced = vp.Camera
		}
	}
}
