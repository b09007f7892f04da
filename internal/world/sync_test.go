package world

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tandem/engine/internal/render"
)

func TestSyncRegistersFreshProxiesOnce(t *testing.T) {
	h := newHarness(t)
	id := h.w.NewEntity("cube")
	h.w.Entity(id).Transform.SetPosition(mgl32.Vec3{1, 2, 3})
	vref, err := AddComponent[visual](h.w, id)
	require.NoError(t, err)

	h.frame(t, 10*time.Millisecond)
	batch := h.lastBatch(t)
	require.NotEmpty(t, batch)
	reg, ok := batch[0].(render.RegisterProxy)
	require.True(t, ok)
	assert.Equal(t, vref.ID(), reg.ID)
	assert.Equal(t, h.w.Entity(id).Hash(), reg.Hash)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, reg.Transform.Col(3).Vec3())

	h.frame(t, 10*time.Millisecond)
	assert.Empty(t, h.lastBatch(t), "nothing changed")
}

func TestSyncOrdersUpdatesBeforeRemoval(t *testing.T) {
	h := newHarness(t)
	id := h.w.NewEntity("cube")
	vref, _ := AddComponent[visual](h.w, id)
	h.frame(t, 10*time.Millisecond)
	_, _ = h.sent(t)

	var proxy *nopProxy
	r := render.NewRenderer(render.NewHeadless(20, 10), render.NewQueue[render.Reply](), 0, zaptest.NewLogger(t))
	require.NoError(t, r.Handle(render.RegisterProxy{ID: vref.ID(), Hash: 1, Proxy: &nopProxy{}, Transform: mgl32.Ident4()}))

	h.w.QueueProxyUpdate(vref.ID(), func(p render.Proxy) { proxy = p.(*nopProxy); proxy.updates++ })
	require.True(t, h.w.RemoveComponent(vref.ID()))
	require.NoError(t, h.w.Sync())

	batch := h.lastBatch(t)
	require.Len(t, batch, 2)
	assert.IsType(t, render.ProxyUpdate{}, batch[0])
	assert.Equal(t, render.RemoveProxy{ID: vref.ID()}, batch[1])

	require.NoError(t, r.Handle(render.CommandBatch{Msgs: batch}))
	require.NotNil(t, proxy)
	assert.Equal(t, 1, proxy.updates)
	assert.Equal(t, 0, r.Proxies().Len())
}

func TestProxyUpdaterDiffOnlyWhenDirty(t *testing.T) {
	h := newHarness(t)
	id := h.w.NewEntity("cube")
	vref, _ := AddComponent[visual](h.w, id)
	h.frame(t, 10*time.Millisecond)
	_, _ = h.sent(t)

	vref.MustGet().dirty = true
	h.frame(t, 10*time.Millisecond)
	batch := h.lastBatch(t)
	assert.Equal(t, 1, countMsgs[render.ProxyUpdate](batch))

	h.frame(t, 10*time.Millisecond)
	assert.Zero(t, countMsgs[render.ProxyUpdate](h.lastBatch(t)))
}

func TestMovingParentResendsChildTransforms(t *testing.T) {
	h := newHarness(t)
	parent := h.w.NewEntity("parent")
	child := h.w.NewEntity("child")
	require.True(t, h.w.AddChild(parent, child))
	cref, _ := AddComponent[visual](h.w, child)
	h.frame(t, 10*time.Millisecond)
	_, _ = h.sent(t)

	h.w.Entity(parent).Transform.Translate(mgl32.Vec3{5, 0, 0})
	h.w.Entity(child).Transform.SetPosition(mgl32.Vec3{0, 1, 0})
	h.frame(t, 10*time.Millisecond)

	batch := h.lastBatch(t)
	require.Equal(t, 1, countMsgs[render.UpdateTransform](batch), "parent has no components")
	ut := batch[0].(render.UpdateTransform)
	assert.Equal(t, cref.ID(), ut.ID)
	pos := ut.Matrix.Col(3).Vec3()
	assert.InDeltaSlice(t, []float32{5, 1, 0}, pos[:], 1e-5)
}

func TestEnableChangeSendsProxyState(t *testing.T) {
	h := newHarness(t)
	id := h.w.NewEntity("cube")
	h.w.Entity(id).Disable()
	vref, _ := AddComponent[visual](h.w, id)
	h.frame(t, 10*time.Millisecond)
	batch := h.lastBatch(t)
	assert.Contains(t, batch, render.Msg(render.ProxyState{ID: vref.ID(), Enabled: false}))

	h.w.Entity(id).Enable()
	h.frame(t, 10*time.Millisecond)
	assert.Equal(t, []render.Msg{render.ProxyState{ID: vref.ID(), Enabled: true}}, h.lastBatch(t))
}

func TestLightProxyTracksEntityPosition(t *testing.T) {
	h := newHarness(t)
	id := h.w.NewEntity("lamp")
	h.w.Entity(id).Transform.SetPosition(mgl32.Vec3{0, 4, 0})
	lref, _ := AddComponent[lamp](h.w, id)
	h.w.QueueLightProxyUpdate(lref.ID(), func(l *render.LightProxy) { l.Intensity = 2 })
	h.frame(t, 10*time.Millisecond)

	batch := h.lastBatch(t)
	reg, ok := batch[0].(render.RegisterLightProxy)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, 4, 0}, reg.Light.Position)
	assert.IsType(t, render.LightProxyUpdate{}, batch[1])

	r := render.NewRenderer(render.NewHeadless(20, 10), render.NewQueue[render.Reply](), 0, zaptest.NewLogger(t))
	require.NoError(t, r.Handle(render.CommandBatch{Msgs: batch}))
	l, ok := r.Lights().Get(lref.ID())
	require.True(t, ok)
	assert.Equal(t, float32(2), l.Intensity)
}

// orbit drives a viewport camera from its entity's position.
type orbit struct{ sent int }

func (o *orbit) CameraUpdates(c *Context, vp *Viewport, switched bool) []render.Msg {
	if !switched && !c.Transform().IsDirty() {
		return nil
	}
	o.sent++
	eye := c.Transform().Position()
	return []render.Msg{render.UpdateActiveCamera{Viewport: vp.ID, Fn: func(cam *render.CameraData) {
		cam.Position = eye
		cam.View = mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	}}}
}

func TestActiveCameraFeedsViewport(t *testing.T) {
	h := newHarness(t)
	id := h.w.NewEntity("camera")
	h.w.Entity(id).Transform.SetPosition(mgl32.Vec3{0, 0, 20})
	oref, _ := AddComponent[orbit](h.w, id)
	require.NoError(t, h.w.SetActiveCamera(0, oref.ID()))
	got, ok := h.w.ActiveCamera(0)
	require.True(t, ok)
	assert.Equal(t, oref.ID(), got)

	vref, _ := AddComponent[visual](h.w, id)
	require.Error(t, h.w.SetActiveCamera(0, vref.ID()), "visual cannot drive a viewport")
	require.Error(t, h.w.SetActiveCamera(9, oref.ID()))

	h.frame(t, 10*time.Millisecond)
	batch := h.lastBatch(t)
	require.Equal(t, 1, countMsgs[render.UpdateActiveCamera](batch))
	assert.IsType(t, render.UpdateActiveCamera{}, batch[len(batch)-1], "cameras go last")

	r := render.NewRenderer(render.NewHeadless(20, 10), render.NewQueue[render.Reply](), 0, zaptest.NewLogger(t))
	require.NoError(t, r.Handle(render.CommandBatch{Msgs: batch}))
	cam, _ := r.Camera(0)
	assert.Equal(t, mgl32.Vec3{0, 0, 20}, cam.Position)

	h.w.RemoveComponent(oref.ID())
	_, ok = h.w.ActiveCamera(0)
	assert.False(t, ok)
}

func TestCaptureRequiresKnownViewport(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.w.CaptureOffscreen(0, "out.txt"))
	require.Error(t, h.w.CapturePicking(3, "pick.png"))
	_, other := h.sent(t)
	assert.Equal(t, []render.Msg{render.CaptureTexture{Viewport: 0, Kind: render.CaptureOffscreen, Path: "out.txt"}}, other)

	vp := h.w.CreateViewport(32, 16)
	assert.Equal(t, []render.ViewportID{0, vp}, h.w.Viewports())
}
