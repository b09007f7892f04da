package render

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Stats counts what the renderer applied. Read it only from the render
// goroutine or after Run returned.
type Stats struct {
	Frames      uint64
	Batches     uint64
	Registered  uint64
	Removed     uint64
	Updates     uint64
	Ignored     uint64
	Picks       uint64
	PickTimeout uint64
}

type viewport struct {
	id     ViewportID
	camera CameraData
	fb     *Framebuffer
	ui     *DrawList
	picks  []PickRequest
}

// Renderer owns the proxy tables and applies the message stream in order.
type Renderer struct {
	backend     Backend
	replies     *Queue[Reply]
	proxies     *ProxyTable
	lights      *LightTable
	viewports   map[ViewportID]*viewport
	pickTimeout time.Duration
	stats       Stats
	log         *zap.Logger
}

// NewRenderer creates a renderer presenting the primary viewport on b.
// Pick results and size changes are sent on replies.
func NewRenderer(b Backend, replies *Queue[Reply], pickTimeout time.Duration, log *zap.Logger) *Renderer {
	if pickTimeout <= 0 {
		pickTimeout = 250 * time.Millisecond
	}
	r := &Renderer{
		backend:     b,
		replies:     replies,
		proxies:     NewProxyTable(),
		lights:      NewLightTable(),
		viewports:   make(map[ViewportID]*viewport, 2),
		pickTimeout: pickTimeout,
		log:         log.Named("render"),
	}
	w, h := b.Size()
	r.viewports[PrimaryViewport] = &viewport{
		id:     PrimaryViewport,
		camera: DefaultCamera(w, h),
		fb:     NewFramebuffer(w, h),
	}
	return r
}

func (r *Renderer) Proxies() *ProxyTable { return r.proxies }
func (r *Renderer) Lights() *LightTable  { return r.lights }
func (r *Renderer) Stats() Stats         { return r.stats }

// Camera returns the active camera of a viewport.
func (r *Renderer) Camera(id ViewportID) (CameraData, bool) {
	vp, ok := r.viewports[id]
	if !ok {
		return CameraData{}, false
	}
	return vp.camera, true
}

// Framebuffer returns the last rendered target of a viewport.
func (r *Renderer) Framebuffer(id ViewportID) (*Framebuffer, bool) {
	vp, ok := r.viewports[id]
	if !ok {
		return nil, false
	}
	return vp.fb, true
}

func (r *Renderer) viewport(id ViewportID) *viewport {
	vp, ok := r.viewports[id]
	if !ok {
		w, h := r.backend.Size()
		vp = &viewport{id: id, camera: DefaultCamera(w, h), fb: NewFramebuffer(w, h)}
		r.viewports[id] = vp
		r.log.Debug("viewport created", zap.Uint32("viewport", uint32(id)))
	}
	return vp
}

// Run applies messages until the forward queue is closed or ctx is done.
// A closed queue is a clean shutdown.
func (r *Renderer) Run(ctx context.Context, in *Queue[Msg]) error {
	r.announceSize(r.viewports[PrimaryViewport])
	for {
		m, err := in.Recv(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) {
				r.log.Info("forward queue closed, render loop exiting", zap.Uint64("frames", r.stats.Frames))
				return nil
			}
			return err
		}
		if err := r.Handle(m); err != nil {
			return err
		}
	}
}

// Handle applies one message. Only a failed reply send or a failed
// present is returned as an error.
func (r *Renderer) Handle(m Msg) error {
	switch m := m.(type) {
	case CommandBatch:
		r.stats.Batches++
		for _, sub := range m.Msgs {
			if err := r.Handle(sub); err != nil {
				return err
			}
		}
	case RegisterProxy:
		r.proxies.Register(m.ID, m.Hash, m.Proxy, m.Transform)
		r.stats.Registered++
	case RegisterLightProxy:
		r.lights.Register(m.ID, m.Light)
		r.stats.Registered++
	case RemoveProxy:
		removed := r.proxies.Remove(m.ID)
		if r.lights.Remove(m.ID) {
			removed = true
		}
		if removed {
			r.stats.Removed++
		}
	case UpdateTransform:
		if b, ok := r.proxies.Get(m.ID); ok {
			b.Transform = m.Matrix
			r.stats.Updates++
		} else if l, ok := r.lights.Get(m.ID); ok {
			l.Position = m.Matrix.Col(3).Vec3()
			r.stats.Updates++
		} else {
			r.stats.Ignored++
		}
	case ProxyUpdate:
		b, ok := r.proxies.Get(m.ID)
		if !ok {
			r.stats.Ignored++
			return nil
		}
		m.Fn(b.Proxy)
		r.stats.Updates++
	case LightProxyUpdate:
		l, ok := r.lights.Get(m.ID)
		if !ok {
			r.stats.Ignored++
			return nil
		}
		m.Fn(l)
		r.stats.Updates++
	case ProxyState:
		if b, ok := r.proxies.Get(m.ID); ok {
			b.Enabled = m.Enabled
		} else if l, ok := r.lights.Get(m.ID); ok {
			l.Enabled = m.Enabled
		} else {
			r.stats.Ignored++
		}
	case UpdateActiveCamera:
		m.Fn(&r.viewport(m.Viewport).camera)
	case PickRequestMsg:
		vp := r.viewport(m.Request.Viewport)
		vp.picks = append(vp.picks, m.Request)
	case CaptureTexture:
		vp := r.viewport(m.Viewport)
		if err := writeCapture(vp.fb, m.Kind, m.Path); err != nil {
			r.log.Warn("capture failed", zap.Stringer("kind", m.Kind), zap.String("path", m.Path), zap.Error(err))
		}
	case UpdateUI:
		r.viewport(m.Viewport).ui = m.Frame
	case FrameEnd:
		err := r.EndFrame(m.Viewport)
		m.Signal()
		return err
	default:
		r.log.Warn("unknown message", zap.String("type", fmt.Sprintf("%T", m)))
	}
	return nil
}

// EndFrame draws the viewport, presents it if it is the primary one and
// answers its queued pick requests. Ending the primary viewport also
// answers picks queued on viewports that never get a frame end of their
// own.
func (r *Renderer) EndFrame(id ViewportID) error {
	vp := r.viewport(id)
	if id == PrimaryViewport {
		if w, h := r.backend.Size(); w != vp.fb.Width || h != vp.fb.Height {
			vp.fb.Resize(w, h)
			r.announceSize(vp)
		}
	}
	r.draw(vp, false)
	r.stats.Frames++
	if id == PrimaryViewport {
		if err := r.backend.Present(vp.fb, vp.ui); err != nil {
			return fmt.Errorf("present: %w", err)
		}
	}
	if err := r.servicePicks(vp); err != nil {
		return err
	}
	if id != PrimaryViewport {
		return nil
	}
	return r.serviceOffscreenPicks()
}

// serviceOffscreenPicks draws the picking pass of every non-primary
// viewport with pending requests, in viewport order.
func (r *Renderer) serviceOffscreenPicks() error {
	var pending []ViewportID
	for id, vp := range r.viewports {
		if id != PrimaryViewport && len(vp.picks) > 0 {
			pending = append(pending, id)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })
	for _, id := range pending {
		if err := r.servicePicks(r.viewports[id]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) draw(vp *viewport, picking bool) {
	if picking {
		clear(vp.fb.Pick)
		vp.fb.clearDepth()
	} else {
		vp.fb.Clear()
	}
	t := newTarget(vp.fb, &vp.camera, r.lights)
	t.picking = picking
	for _, id := range SortedVisible(r.proxies, &vp.camera) {
		b, _ := r.proxies.Get(id)
		if picking {
			if b.Hash == 0 {
				continue
			}
			t.pickPx = HashToRGBA(b.Hash)
		}
		b.Proxy.Draw(t, b)
	}
}

func (r *Renderer) servicePicks(vp *viewport) error {
	if len(vp.picks) == 0 {
		return nil
	}
	r.draw(vp, true)
	staging := &Framebuffer{Width: vp.fb.Width, Height: vp.fb.Height, Pick: append([]byte(nil), vp.fb.Pick...)}
	for _, req := range vp.picks {
		res := PickResult{ID: req.ID, Viewport: req.Viewport}
		px, ok := r.readback(staging, req.X, req.Y)
		if ok {
			res.Hash, res.Found = RGBAToHash(px)
		} else {
			r.stats.PickTimeout++
			r.log.Warn("pick read-back timed out", zap.Uint64("id", req.ID))
		}
		r.stats.Picks++
		if err := r.replies.Send(res); err != nil {
			return fmt.Errorf("send pick result: %w", err)
		}
	}
	vp.picks = vp.picks[:0]
	return nil
}

// readback maps one pixel of the staging copy off the render goroutine and
// waits for it, bounded by the pick timeout.
func (r *Renderer) readback(fb *Framebuffer, x, y int) ([4]byte, bool) {
	done := make(chan [4]byte, 1)
	go func() {
		done <- fb.PickAt(x, y)
	}()
	select {
	case px := <-done:
		return px, true
	case <-time.After(r.pickTimeout):
		return [4]byte{}, false
	}
}

func (r *Renderer) announceSize(vp *viewport) {
	err := r.replies.Send(ViewportResized{Viewport: vp.id, Width: vp.fb.Width, Height: vp.fb.Height})
	if err != nil {
		r.log.Debug("reply queue closed", zap.Error(err))
	}
}

// Close releases the backend.
func (r *Renderer) Close() error {
	return r.backend.Close()
}
