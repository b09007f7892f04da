package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/input"
)

// Msg is one command on the simulation → render queue.
type Msg interface {
	msg()
}

// ViewportID names a render target. The primary viewport is always 0.
type ViewportID uint32

const PrimaryViewport ViewportID = 0

type (
	RegisterProxy struct {
		ID        ecs.TypedID
		Hash      uint32
		Proxy     Proxy
		Transform mgl32.Mat4
	}

	RegisterLightProxy struct {
		ID    ecs.TypedID
		Light *LightProxy
	}

	// RemoveProxy drops both scene and light proxies registered under ID.
	RemoveProxy struct {
		ID ecs.TypedID
	}

	UpdateTransform struct {
		ID     ecs.TypedID
		Matrix mgl32.Mat4
	}

	// ProxyUpdate carries a closure that mutates only the changed fields.
	ProxyUpdate struct {
		ID ecs.TypedID
		Fn func(p Proxy)
	}

	LightProxyUpdate struct {
		ID ecs.TypedID
		Fn func(l *LightProxy)
	}

	UpdateActiveCamera struct {
		Viewport ViewportID
		Fn       func(c *CameraData)
	}

	ProxyState struct {
		ID      ecs.TypedID
		Enabled bool
	}

	PickRequestMsg struct {
		Request PickRequest
	}

	CaptureTexture struct {
		Viewport ViewportID
		Kind     CaptureKind
		Path     string
	}

	UpdateUI struct {
		Viewport ViewportID
		Frame    *DrawList
	}

	// CommandBatch is applied as one unit between two render passes.
	CommandBatch struct {
		Msgs []Msg
	}

	// FrameEnd is the per-frame rendezvous. The render goroutine signals
	// Done once everything before it has been applied and the frame drawn.
	FrameEnd struct {
		Viewport ViewportID
		Done     chan struct{}
	}
)

func (RegisterProxy) msg()      {}
func (RegisterLightProxy) msg() {}
func (RemoveProxy) msg()        {}
func (UpdateTransform) msg()    {}
func (ProxyUpdate) msg()        {}
func (LightProxyUpdate) msg()   {}
func (UpdateActiveCamera) msg() {}
func (ProxyState) msg()         {}
func (PickRequestMsg) msg()     {}
func (CaptureTexture) msg()     {}
func (UpdateUI) msg()           {}
func (CommandBatch) msg()       {}
func (FrameEnd) msg()           {}

// NewFrameEnd builds a rendezvous message with a fresh single-slot channel.
func NewFrameEnd(vp ViewportID) FrameEnd {
	return FrameEnd{Viewport: vp, Done: make(chan struct{}, 1)}
}

// Signal releases the waiting simulation goroutine. Never blocks.
func (f FrameEnd) Signal() {
	select {
	case f.Done <- struct{}{}:
	default:
	}
}

// Reply is one message on the render → simulation queue.
type Reply interface {
	reply()
}

type (
	PickResult struct {
		ID       uint64
		Viewport ViewportID
		Hash     uint32
		Found    bool
	}

	ViewportResized struct {
		Viewport      ViewportID
		Width, Height int
	}

	// InputReply forwards a backend input event to the simulation.
	InputReply struct {
		Event InputEvent
	}
)

func (PickResult) reply()      {}
func (ViewportResized) reply() {}
func (InputReply) reply()      {}

type InputEvent = input.Event
