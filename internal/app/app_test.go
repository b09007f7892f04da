package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tandem/engine/internal/component"
	"github.com/tandem/engine/internal/config"
	"github.com/tandem/engine/internal/input"
	"github.com/tandem/engine/internal/render"
	"github.com/tandem/engine/internal/world"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Engine.FrameRate = 0
	cfg.Engine.FixedTimestep = 10 * time.Millisecond
	cfg.Render.Backend = "headless"
	cfg.Render.Viewport = config.ViewportConfig{Width: 20, Height: 10}
	return cfg
}

// headlessRig opens a headless backend and keeps hold of it and of the
// reply queue the app hands out.
type headlessRig struct {
	backend *render.Headless
	replies *render.Queue[render.Reply]
}

func (r *headlessRig) open(replies *render.Queue[render.Reply]) (render.Backend, error) {
	r.replies = replies
	r.backend = render.NewHeadless(20, 10)
	return r.backend, nil
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

type failing struct{}

var errBroken = errors.New("broken")

func (*failing) Update(*world.Context) error { return errBroken }

func TestRunStopsAtFrameLimitAndTearsDown(t *testing.T) {
	rig := &headlessRig{}
	a, err := New(testConfig(), rig.open, zaptest.NewLogger(t))
	require.NoError(t, err)
	a.SetFrameLimit(3)

	id := a.World().NewEntity("marker")
	_, err = world.AddComponentWith[component.GlyphRenderer](a.World(), id, func(g *component.GlyphRenderer) error {
		g.Glyph = "@"
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 3, a.Frames())
	assert.Equal(t, 3, rig.backend.Frames())
	assert.Equal(t, uint64(3), a.Renderer().Stats().Frames)
	assert.Equal(t, 0, a.Renderer().Proxies().Len(), "teardown removals reach the renderer")
	assert.Equal(t, 0, a.World().EntityCount())
	assert.True(t, a.World().IsShuttingDown())
}

func TestQuitEventStopsRun(t *testing.T) {
	rig := &headlessRig{}
	a, err := New(testConfig(), rig.open, zaptest.NewLogger(t))
	require.NoError(t, err)
	a.SetFrameLimit(100)

	require.NoError(t, rig.replies.Send(render.InputReply{Event: input.Event{Kind: input.KindQuit}}))
	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 1, a.Frames())
}

func TestCancelStopsPacedRun(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.FrameRate = 200
	a, err := New(cfg, Headless(20, 10), zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	require.NoError(t, a.Run(ctx))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Greater(t, a.Frames(), 0)
}

func TestClosersRunInOrderAndErrorsCombine(t *testing.T) {
	a, err := New(testConfig(), Headless(20, 10), zaptest.NewLogger(t))
	require.NoError(t, err)
	a.SetFrameLimit(1)

	var order []string
	a.OnClose("scripts", closeFunc(func() error {
		order = append(order, "scripts")
		return errors.New("boom")
	}))
	a.OnClose("log", closeFunc(func() error {
		order = append(order, "log")
		return nil
	}))

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close scripts: boom")
	assert.Equal(t, []string{"scripts", "log"}, order)
}

func TestStrictFrameErrorStopsRun(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.Strict = true
	a, err := New(cfg, Headless(20, 10), zaptest.NewLogger(t))
	require.NoError(t, err)
	a.SetFrameLimit(10)

	id := a.World().NewEntity("bad")
	_, err = world.AddComponent[failing](a.World(), id)
	require.NoError(t, err)

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, 0, a.Frames())
}

func TestLenientFrameErrorIsCounted(t *testing.T) {
	a, err := New(testConfig(), Headless(20, 10), zaptest.NewLogger(t))
	require.NoError(t, err)
	a.SetFrameLimit(2)

	id := a.World().NewEntity("bad")
	_, err = world.AddComponent[failing](a.World(), id)
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, uint64(2), a.World().Diagnostics().CallbackErrors)
}

func TestBackendFor(t *testing.T) {
	log := zaptest.NewLogger(t)

	open, err := BackendFor(config.RenderConfig{Backend: "headless", Viewport: config.ViewportConfig{Width: 7, Height: 3}}, log)
	require.NoError(t, err)
	b, err := open(render.NewQueue[render.Reply]())
	require.NoError(t, err)
	w, h := b.Size()
	assert.Equal(t, 7, w)
	assert.Equal(t, 3, h)

	open, err = BackendFor(config.RenderConfig{Backend: "term"}, log)
	require.NoError(t, err)
	assert.NotNil(t, open)

	_, err = BackendFor(config.RenderConfig{Backend: "gl"}, log)
	assert.EqualError(t, err, `unknown render backend "gl"`)
}

func TestNewFailsWhenBackendCannotOpen(t *testing.T) {
	_, err := New(testConfig(), func(*render.Queue[render.Reply]) (render.Backend, error) {
		return nil, errors.New("no tty")
	}, zaptest.NewLogger(t))
	assert.EqualError(t, err, "open backend: no tty")
}
