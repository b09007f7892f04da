package component

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tandem/engine/internal/config"
	"github.com/tandem/engine/internal/render"
	"github.com/tandem/engine/internal/world"
)

type rig struct {
	w       *world.World
	out     *render.Queue[render.Msg]
	replies *render.Queue[render.Reply]
	now     time.Time
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		out:     render.NewQueue[render.Msg](),
		replies: render.NewQueue[render.Reply](),
		now:     time.Unix(5000, 0),
	}
	cfg := config.EngineConfig{FixedTimestep: 10 * time.Millisecond, MaxFixedSteps: 10}
	r.w = world.New(cfg, r.out, r.replies, zaptest.NewLogger(t))
	r.w.SetClock(func() time.Time { return r.now })
	r.w.SetViewportSize(render.PrimaryViewport, 40, 20)
	return r
}

// frame runs all phases, then advances the clock by dt so the next frame
// sees it as its delta.
func (r *rig) frame(t *testing.T, dt time.Duration) {
	t.Helper()
	require.NoError(t, r.w.FixedUpdate())
	require.NoError(t, r.w.Update())
	require.NoError(t, r.w.PostUpdate())
	require.NoError(t, r.w.Sync())
	r.now = r.now.Add(dt)
	require.NoError(t, r.w.NextFrame())
}

// drain returns every message sent so far with batches flattened, plus
// the last UI frame.
func (r *rig) drain(t *testing.T) (msgs []render.Msg, ui *render.DrawList) {
	t.Helper()
	all, err := r.out.Drain()
	require.NoError(t, err)
	for _, m := range all {
		switch m := m.(type) {
		case render.CommandBatch:
			msgs = append(msgs, m.Msgs...)
		case render.UpdateUI:
			ui = m.Frame
		default:
			msgs = append(msgs, m)
		}
	}
	return msgs, ui
}

// present applies everything sent so far to rend and closes the frame.
func (r *rig) present(t *testing.T, rend *render.Renderer) {
	t.Helper()
	all, err := r.out.Drain()
	require.NoError(t, err)
	for _, m := range all {
		require.NoError(t, rend.Handle(m))
	}
	require.NoError(t, rend.Handle(render.NewFrameEnd(render.PrimaryViewport)))
}

func newRenderer(t *testing.T, r *rig) (*render.Renderer, *render.Headless) {
	t.Helper()
	b := render.NewHeadless(40, 20)
	return render.NewRenderer(b, r.replies, time.Second, zaptest.NewLogger(t)), b
}

func msgsOf[M render.Msg](msgs []render.Msg) []M {
	var out []M
	for _, m := range msgs {
		if x, ok := m.(M); ok {
			out = append(out, x)
		}
	}
	return out
}

func panel(ui *render.DrawList, title string) (render.Panel, bool) {
	if ui == nil {
		return render.Panel{}, false
	}
	for _, p := range ui.Panels {
		if p.Title == title {
			return p, true
		}
	}
	return render.Panel{}, false
}
