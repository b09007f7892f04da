package component

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/render"
	"github.com/tandem/engine/internal/world"
)

func TestCameraSendsOnlyOnChange(t *testing.T) {
	r := newRig(t)
	id := r.w.NewEntity("camera")
	r.w.Entity(id).Transform.SetPosition(mgl32.Vec3{0, 0, 15})
	cref, err := world.AddComponentWith[Camera](r.w, id, func(c *Camera) error {
		c.Active = true
		return nil
	})
	require.NoError(t, err)
	active, ok := r.w.ActiveCamera(render.PrimaryViewport)
	require.True(t, ok)
	assert.Equal(t, cref.ID(), active)
	assert.Equal(t, float32(60), cref.MustGet().FovY)

	rend, _ := newRenderer(t, r)
	r.frame(t, 10*time.Millisecond)
	msgs, _ := r.drain(t)
	cams := msgsOf[render.UpdateActiveCamera](msgs)
	require.Len(t, cams, 1)
	require.NoError(t, rend.Handle(cams[0]))
	cd, _ := rend.Camera(render.PrimaryViewport)
	assert.Equal(t, mgl32.Vec3{0, 0, 15}, cd.Position)
	assert.InDelta(t, mgl32.DegToRad(60), cd.FovY, 1e-6)

	r.frame(t, 10*time.Millisecond)
	msgs, _ = r.drain(t)
	assert.Empty(t, msgsOf[render.UpdateActiveCamera](msgs), "unchanged")

	r.w.SetViewportSize(render.PrimaryViewport, 80, 24)
	r.frame(t, 10*time.Millisecond)
	msgs, _ = r.drain(t)
	assert.Len(t, msgsOf[render.UpdateActiveCamera](msgs), 1, "resize")

	cref.MustGet().SetFov(40)
	r.frame(t, 10*time.Millisecond)
	msgs, _ = r.drain(t)
	assert.Len(t, msgsOf[render.UpdateActiveCamera](msgs), 1, "fov")
}

func TestCameraSwitchBackResendsView(t *testing.T) {
	r := newRig(t)
	rend, _ := newRenderer(t, r)

	a := r.w.NewEntity("a")
	r.w.Entity(a).Transform.SetPosition(mgl32.Vec3{0, 0, 15})
	aref, err := world.AddComponentWith[Camera](r.w, a, func(c *Camera) error {
		c.Active = true
		return nil
	})
	require.NoError(t, err)
	b := r.w.NewEntity("b")
	r.w.Entity(b).Transform.SetPosition(mgl32.Vec3{5, 5, 5})
	bref, err := world.AddComponent[Camera](r.w, b)
	require.NoError(t, err)

	r.frame(t, 10*time.Millisecond)
	r.present(t, rend)
	cd, _ := rend.Camera(render.PrimaryViewport)
	assert.Equal(t, mgl32.Vec3{0, 0, 15}, cd.Position)

	require.NoError(t, r.w.SetActiveCamera(render.PrimaryViewport, bref.ID()))
	r.frame(t, 10*time.Millisecond)
	r.present(t, rend)
	cd, _ = rend.Camera(render.PrimaryViewport)
	assert.Equal(t, mgl32.Vec3{5, 5, 5}, cd.Position)

	require.NoError(t, r.w.SetActiveCamera(render.PrimaryViewport, aref.ID()))
	r.frame(t, 10*time.Millisecond)
	msgs, _ := r.drain(t)
	cams := msgsOf[render.UpdateActiveCamera](msgs)
	require.Len(t, cams, 1, "an unmoved camera is resent when it becomes active again")
	for _, m := range msgs {
		require.NoError(t, rend.Handle(m))
	}
	cd, _ = rend.Camera(render.PrimaryViewport)
	assert.Equal(t, mgl32.Vec3{0, 0, 15}, cd.Position)

	r.frame(t, 10*time.Millisecond)
	msgs, _ = r.drain(t)
	assert.Empty(t, msgsOf[render.UpdateActiveCamera](msgs))
}

func TestGlyphRendererDrawsAndDiffs(t *testing.T) {
	r := newRig(t)
	id := r.w.NewEntity("sign")
	gref, err := world.AddComponentWith[GlyphRenderer](r.w, id, func(g *GlyphRenderer) error {
		g.Glyph, g.Label = "@", "hi"
		return nil
	})
	require.NoError(t, err)
	rend, backend := newRenderer(t, r)

	r.frame(t, 10*time.Millisecond)
	r.present(t, rend)
	assert.Contains(t, strings.Join(backend.Rows(), "\n"), "@ hi")

	gref.MustGet().SetLabel("bye")
	gref.MustGet().SetColor(render.Color{R: 1, G: 2, B: 3})
	r.frame(t, 10*time.Millisecond)
	r.present(t, rend)
	assert.Contains(t, strings.Join(backend.Rows(), "\n"), "@ bye")
	b, ok := rend.Proxies().Get(gref.ID())
	require.True(t, ok)
	assert.Equal(t, render.Color{R: 1, G: 2, B: 3}, b.Proxy.(*glyphProxy).style.Fg)
	assert.Equal(t, "bye", b.Proxy.(*glyphProxy).label)

	r.frame(t, 10*time.Millisecond)
	msgs, _ := r.drain(t)
	assert.Empty(t, msgsOf[render.ProxyUpdate](msgs), "no change, no diff")
}

func TestPointLightDefaultsAndUpdates(t *testing.T) {
	r := newRig(t)
	id := r.w.NewEntity("lamp")
	lref, err := world.AddComponent[PointLight](r.w, id)
	require.NoError(t, err)
	rend, _ := newRenderer(t, r)

	r.frame(t, 10*time.Millisecond)
	r.present(t, rend)
	l, ok := rend.Lights().Get(lref.ID())
	require.True(t, ok)
	assert.Equal(t, float32(1), l.Intensity)
	assert.Equal(t, float32(5), l.Range)

	lref.MustGet().SetIntensity(0.25)
	r.frame(t, 10*time.Millisecond)
	r.present(t, rend)
	assert.Equal(t, float32(0.25), l.Intensity)
}

func TestRotateSpinsWithDelta(t *testing.T) {
	r := newRig(t)
	id := r.w.NewEntity("top")
	_, err := world.AddComponentWith[Rotate](r.w, id, func(rt *Rotate) error {
		rt.Speed = mgl32.Vec3{0, 90, 0}
		return nil
	})
	require.NoError(t, err)

	r.frame(t, time.Second)
	assert.Equal(t, mgl32.QuatIdent(), r.w.Entity(id).Transform.Rotation(), "first frame has no delta")
	r.frame(t, time.Second)
	got := r.w.Entity(id).Transform.Rotation().Rotate(mgl32.Vec3{1, 0, 0})
	assert.InDeltaSlice(t, []float32{0, 0, -1}, got[:], 1e-5, "90 degrees about Y")
}

func TestRigidBodyFallsAndTeleports(t *testing.T) {
	r := newRig(t)
	id := r.w.NewEntity("ball")
	r.w.Entity(id).Transform.SetPosition(mgl32.Vec3{0, 10, 0})
	rb, err := world.AddComponentWith[RigidBody](r.w, id, func(b *RigidBody) error {
		b.Gravity = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, r.w.Physics().Len())

	r.frame(t, 100*time.Millisecond)
	r.frame(t, 0)
	y := r.w.Entity(id).Transform.Position()[1]
	assert.Less(t, y, float32(10), "fell during ten fixed steps")

	r.w.Entity(id).Transform.SetPosition(mgl32.Vec3{3, 50, 0})
	r.frame(t, 10*time.Millisecond)
	require.NoError(t, r.w.FixedUpdate())
	body, ok := rb.MustGet().Body(r.w)
	require.True(t, ok)
	assert.Equal(t, float32(3), body.Position[0], "teleport reached the body")

	rb.MustGet().Impulse(r.w, mgl32.Vec3{2, 0, 0})
	assert.Equal(t, float32(2), body.Velocity[0])

	r.w.RemoveComponent(rb.ID())
	assert.Zero(t, r.w.Physics().Len())
}

func TestButtonClicks(t *testing.T) {
	r := newRig(t)
	id := r.w.NewEntity("ok")
	var pressed int
	bref, err := world.AddComponentWith[Button](r.w, id, func(b *Button) error {
		b.OnPress = func(*world.Context) error { pressed++; return nil }
		return nil
	})
	require.NoError(t, err)
	assert.True(t, r.w.IsListeningFor(id, ecs.EventClick))

	require.NoError(t, r.w.Click(id))
	require.NoError(t, r.w.Click(id))
	assert.Equal(t, 2, bref.MustGet().Presses())
	assert.Equal(t, 2, pressed)
	v, _ := r.w.Entity(id).Property("presses")
	assert.Equal(t, 2, v)

	r.frame(t, 10*time.Millisecond)
	_, ui := r.drain(t)
	p, ok := panel(ui, "Buttons")
	require.True(t, ok)
	assert.Equal(t, "[ok] x2", p.Lines[0].Text)

	r.w.RemoveComponent(bref.ID())
	assert.False(t, r.w.IsListeningFor(id, ecs.EventClick))
}

func TestButtonPressErrorIsReported(t *testing.T) {
	r := newRig(t)
	id := r.w.NewEntity("bad")
	_, _ = world.AddComponentWith[Button](r.w, id, func(b *Button) error {
		b.OnPress = func(*world.Context) error { return errors.New("nope") }
		return nil
	})
	require.NoError(t, r.w.Click(id), "non-strict worlds log callback errors")
	assert.Equal(t, uint64(1), r.w.Diagnostics().CallbackErrors)
}

func TestStatsWindow(t *testing.T) {
	r := newRig(t)
	id := r.w.NewEntity("hud")
	_, err := world.AddComponent[Stats](r.w, id)
	require.NoError(t, err)
	r.frame(t, 10*time.Millisecond)
	_, ui := r.drain(t)
	p, ok := panel(ui, "Stats")
	require.True(t, ok)
	require.Len(t, p.Lines, 3)
	assert.Equal(t, "entities 1  components 1", p.Lines[1].Text)
}
