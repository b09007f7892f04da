package world

import (
	"fmt"
	"sort"

	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/core/event"
	"github.com/tandem/engine/internal/render"
)

// Viewport is the simulation-side view of a render target.
type Viewport struct {
	ID            render.ViewportID
	Width, Height int
	Camera        ecs.TypedID

	synced ecs.TypedID // camera whose view the render side last received
}

// CreateViewport registers a new render target. The render side creates
// its state lazily on the first message naming it.
func (w *World) CreateViewport(width, height int) render.ViewportID {
	id := w.nextVP
	w.nextVP++
	w.viewports[id] = &Viewport{ID: id, Width: width, Height: height}
	return id
}

func (w *World) Viewport(id render.ViewportID) (*Viewport, bool) {
	vp, ok := w.viewports[id]
	return vp, ok
}

// Viewports returns viewport ids in ascending order.
func (w *World) Viewports() []render.ViewportID {
	ids := make([]render.ViewportID, 0, len(w.viewports))
	for id := range w.viewports {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *World) SetViewportSize(id render.ViewportID, width, height int) {
	vp, ok := w.viewports[id]
	if !ok {
		vp = &Viewport{ID: id}
		w.viewports[id] = vp
		if id >= w.nextVP {
			w.nextVP = id + 1
		}
	}
	if vp.Width == width && vp.Height == height {
		return
	}
	vp.Width, vp.Height = width, height
	event.Emit(w.events, event.ViewportResized{Viewport: uint32(id), Width: width, Height: height})
}

// SetActiveCamera makes the component tid drive viewport id. The
// component must implement CameraSource.
func (w *World) SetActiveCamera(id render.ViewportID, tid ecs.TypedID) error {
	vp, ok := w.viewports[id]
	if !ok {
		return fmt.Errorf("set camera: unknown viewport %d", id)
	}
	c, _, ok := w.storage.Lookup(tid)
	if !ok {
		return fmt.Errorf("set camera %s: %w", tid, ErrStaleComponent)
	}
	if _, ok := c.(CameraSource); !ok {
		return fmt.Errorf("set camera: %s cannot drive a viewport", tid.TypeName())
	}
	vp.Camera = tid
	return nil
}

func (w *World) ActiveCamera(id render.ViewportID) (ecs.TypedID, bool) {
	vp, ok := w.viewports[id]
	if !ok || vp.Camera.IsZero() || !w.storage.Contains(vp.Camera) {
		return ecs.TypedID{}, false
	}
	return vp.Camera, true
}

// CaptureOffscreen asks the render side to dump the viewport's color plane.
func (w *World) CaptureOffscreen(id render.ViewportID, path string) error {
	return w.capture(id, render.CaptureOffscreen, path)
}

// CapturePicking asks the render side to dump the viewport's picking plane.
func (w *World) CapturePicking(id render.ViewportID, path string) error {
	return w.capture(id, render.CapturePicking, path)
}

func (w *World) capture(id render.ViewportID, kind render.CaptureKind, path string) error {
	if _, ok := w.viewports[id]; !ok {
		return fmt.Errorf("capture %s: unknown viewport %d", kind, id)
	}
	if err := w.out.Send(render.CaptureTexture{Viewport: id, Kind: kind, Path: path}); err != nil {
		return fmt.Errorf("capture %s: %w", kind, err)
	}
	return nil
}
