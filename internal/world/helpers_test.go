package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tandem/engine/internal/config"
	"github.com/tandem/engine/internal/render"
)

type harness struct {
	w       *World
	out     *render.Queue[render.Msg]
	replies *render.Queue[render.Reply]
	now     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, config.EngineConfig{FixedTimestep: 10 * time.Millisecond, MaxFixedSteps: 5})
}

func newHarnessWith(t *testing.T, cfg config.EngineConfig) *harness {
	t.Helper()
	h := &harness{
		out:     render.NewQueue[render.Msg](),
		replies: render.NewQueue[render.Reply](),
		now:     time.Unix(1000, 0),
	}
	h.w = New(cfg, h.out, h.replies, zaptest.NewLogger(t))
	h.w.SetClock(func() time.Time { return h.now })
	return h
}

// frame runs every phase once, advancing the fake clock by dt first.
func (h *harness) frame(t *testing.T, dt time.Duration) {
	t.Helper()
	require.NoError(t, h.w.FixedUpdate())
	require.NoError(t, h.w.Update())
	require.NoError(t, h.w.PostUpdate())
	require.NoError(t, h.w.Sync())
	h.now = h.now.Add(dt)
	require.NoError(t, h.w.NextFrame())
}

// sent drains the forward queue and returns the batches and everything
// else in send order.
func (h *harness) sent(t *testing.T) (batches [][]render.Msg, other []render.Msg) {
	t.Helper()
	msgs, err := h.out.Drain()
	require.NoError(t, err)
	for _, m := range msgs {
		if b, ok := m.(render.CommandBatch); ok {
			batches = append(batches, b.Msgs)
			continue
		}
		other = append(other, m)
	}
	return batches, other
}

// lastBatch returns the messages of the most recent CommandBatch.
func (h *harness) lastBatch(t *testing.T) []render.Msg {
	t.Helper()
	batches, _ := h.sent(t)
	require.NotEmpty(t, batches)
	return batches[len(batches)-1]
}

func countMsgs[M render.Msg](msgs []render.Msg) int {
	n := 0
	for _, m := range msgs {
		if _, ok := m.(M); ok {
			n++
		}
	}
	return n
}

type nopProxy struct {
	updates int
}

func (p *nopProxy) Priority() int                        { return 0 }
func (p *nopProxy) Radius() float32                      { return 0 }
func (p *nopProxy) Draw(*render.Target, *render.Binding) {}

// visual produces a proxy and sends one diff per frame while dirty is set.
type visual struct {
	dirty bool
}

func (v *visual) CreateRenderProxy(*Context) render.Proxy { return &nopProxy{} }

func (v *visual) UpdateProxy(_ *Context, d *DrawCtx) {
	if !v.dirty {
		return
	}
	v.dirty = false
	d.SendProxyUpdate(func(p render.Proxy) { p.(*nopProxy).updates++ })
}

type lamp struct{}

func (lamp) CreateLightProxy(*Context) *render.LightProxy {
	return &render.LightProxy{Intensity: 1, Range: 3, Enabled: true}
}

// counter records every callback it receives.
type counter struct {
	inits, fixed, preFixed, postFixed, updates, late, post, gui, clicks, deletes int
}

func (c *counter) Init(*Context) error            { c.inits++; return nil }
func (c *counter) PreFixedUpdate(*Context) error  { c.preFixed++; return nil }
func (c *counter) FixedUpdate(*Context) error     { c.fixed++; return nil }
func (c *counter) PostFixedUpdate(*Context) error { c.postFixed++; return nil }
func (c *counter) Update(*Context) error          { c.updates++; return nil }
func (c *counter) LateUpdate(*Context) error      { c.late++; return nil }
func (c *counter) PostUpdate(*Context) error      { c.post++; return nil }
func (c *counter) OnClick(*Context) error         { c.clicks++; return nil }
func (c *counter) Delete(*Context)                { c.deletes++ }
func (c *counter) OnGUI(_ *Context, ui *render.UI) error {
	c.gui++
	ui.Label("counter")
	return nil
}
