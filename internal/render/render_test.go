package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tandem/engine/internal/core/ecs"
)

type dotProxy struct {
	glyph  rune
	prio   int
	radius float32
}

func (p *dotProxy) Priority() int   { return p.prio }
func (p *dotProxy) Radius() float32 { return p.radius }
func (p *dotProxy) Draw(t *Target, b *Binding) {
	t.Plot(b.Position(), p.glyph, Style{Fg: Color{255, 255, 255}})
}

type marker struct{}

func tid(i uint32) ecs.TypedID {
	return ecs.TypedIDOf[marker](ecs.ComponentID(uint64(1)<<32 | uint64(i)))
}

func newTestRenderer(t *testing.T) (*Renderer, *Headless, *Queue[Reply]) {
	t.Helper()
	b := NewHeadless(40, 20)
	replies := NewQueue[Reply]()
	return NewRenderer(b, replies, 0, zaptest.NewLogger(t)), b, replies
}

func TestHashRGBA(t *testing.T) {
	px := HashToRGBA(0x11223344)
	assert.Equal(t, [4]byte{0x44, 0x33, 0x22, 0x11}, px)
	h, ok := RGBAToHash(px)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x11223344), h)

	_, ok = RGBAToHash([4]byte{})
	assert.False(t, ok)
}

func TestBatchAppliedInOrder(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	var seen []string
	p := &dotProxy{glyph: 'x'}

	require.NoError(t, r.Handle(CommandBatch{Msgs: []Msg{
		RegisterProxy{ID: tid(1), Hash: 7, Proxy: p, Transform: mgl32.Ident4()},
		ProxyUpdate{ID: tid(1), Fn: func(Proxy) { seen = append(seen, "update-1") }},
		ProxyUpdate{ID: tid(1), Fn: func(Proxy) { seen = append(seen, "update-2") }},
		RemoveProxy{ID: tid(1)},
		ProxyUpdate{ID: tid(1), Fn: func(Proxy) { seen = append(seen, "late") }},
	}}))

	assert.Equal(t, []string{"update-1", "update-2"}, seen)
	assert.Equal(t, 0, r.Proxies().Len())
	st := r.Stats()
	assert.Equal(t, uint64(1), st.Batches)
	assert.Equal(t, uint64(1), st.Registered)
	assert.Equal(t, uint64(1), st.Removed)
	assert.Equal(t, uint64(1), st.Ignored)
}

func TestUnknownUpdatesIgnored(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	require.NoError(t, r.Handle(UpdateTransform{ID: tid(9), Matrix: mgl32.Ident4()}))
	require.NoError(t, r.Handle(ProxyState{ID: tid(9), Enabled: false}))
	require.NoError(t, r.Handle(LightProxyUpdate{ID: tid(9), Fn: func(*LightProxy) { t.Fatal("must not run") }}))
	require.NoError(t, r.Handle(RemoveProxy{ID: tid(9)}))
	assert.Equal(t, uint64(3), r.Stats().Ignored)
}

func TestLightTransformAndState(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	l := &LightProxy{Intensity: 1, Range: 5, Enabled: true}
	require.NoError(t, r.Handle(RegisterLightProxy{ID: tid(2), Light: l}))
	require.NoError(t, r.Handle(UpdateTransform{ID: tid(2), Matrix: mgl32.Translate3D(1, 2, 3)}))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, l.Position)
	require.NoError(t, r.Handle(ProxyState{ID: tid(2), Enabled: false}))
	assert.False(t, l.Enabled)
	assert.Zero(t, l.Attenuation(mgl32.Vec3{1, 2, 3}))
}

func TestFrameEndDrawsAndSignals(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	require.NoError(t, r.Handle(RegisterProxy{ID: tid(1), Hash: 5, Proxy: &dotProxy{glyph: '@'}, Transform: mgl32.Ident4()}))
	fe := NewFrameEnd(PrimaryViewport)
	require.NoError(t, r.Handle(fe))

	select {
	case <-fe.Done:
	default:
		t.Fatal("frame end not signalled")
	}
	assert.Equal(t, 1, b.Frames())
	found := false
	for _, row := range b.Rows() {
		if row != "" && containsRune(row, '@') {
			found = true
		}
	}
	assert.True(t, found, "origin proxy is drawn")
}

func TestPickingRoundTrip(t *testing.T) {
	r, _, replies := newTestRenderer(t)
	require.NoError(t, r.Handle(RegisterProxy{ID: tid(1), Hash: 0xBEEF, Proxy: &dotProxy{glyph: '@'}, Transform: mgl32.Ident4()}))
	require.NoError(t, r.Handle(FrameEnd{Viewport: PrimaryViewport, Done: make(chan struct{}, 1)}))

	fb, ok := r.Framebuffer(PrimaryViewport)
	require.True(t, ok)
	x, y := -1, -1
	for yy := 0; yy < fb.Height; yy++ {
		for xx := 0; xx < fb.Width; xx++ {
			if fb.At(xx, yy).Rune == '@' {
				x, y = xx, yy
			}
		}
	}
	require.GreaterOrEqual(t, x, 0)

	_, _ = replies.Drain()
	require.NoError(t, r.Handle(PickRequestMsg{Request: PickRequest{ID: 1, X: x, Y: y}}))
	require.NoError(t, r.Handle(PickRequestMsg{Request: PickRequest{ID: 2, X: 0, Y: 0}}))
	require.NoError(t, r.Handle(NewFrameEnd(PrimaryViewport)))

	got, err := replies.Drain()
	require.NoError(t, err)
	require.Len(t, got, 2)
	hit := got[0].(PickResult)
	assert.Equal(t, uint64(1), hit.ID)
	assert.True(t, hit.Found)
	assert.Equal(t, uint32(0xBEEF), hit.Hash)
	miss := got[1].(PickResult)
	assert.False(t, miss.Found)
}

func TestPrimaryFrameEndAnswersOffscreenPicks(t *testing.T) {
	r, _, replies := newTestRenderer(t)
	require.NoError(t, r.Handle(RegisterProxy{ID: tid(1), Hash: 0xBEEF, Proxy: &dotProxy{glyph: '@'}, Transform: mgl32.Ident4()}))
	_, _ = replies.Drain()

	require.NoError(t, r.Handle(PickRequestMsg{Request: PickRequest{ID: 7, Viewport: 2, X: 0, Y: 0}}))
	require.NoError(t, r.Handle(PickRequestMsg{Request: PickRequest{ID: 8, Viewport: 1, X: 0, Y: 0}}))
	require.NoError(t, r.Handle(NewFrameEnd(PrimaryViewport)))

	got, err := replies.Drain()
	require.NoError(t, err)
	require.Len(t, got, 2, "every request is answered even without its own frame end")
	assert.Equal(t, PickResult{ID: 8, Viewport: 1}, got[0])
	assert.Equal(t, PickResult{ID: 7, Viewport: 2}, got[1])

	require.NoError(t, r.Handle(NewFrameEnd(PrimaryViewport)))
	got, err = replies.Drain()
	require.NoError(t, err)
	assert.Empty(t, got, "answered requests are not repeated")
	assert.Equal(t, uint64(2), r.Stats().Picks)
}

func TestDisabledProxyNotDrawnOrPicked(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	require.NoError(t, r.Handle(CommandBatch{Msgs: []Msg{
		RegisterProxy{ID: tid(1), Hash: 3, Proxy: &dotProxy{glyph: '@'}, Transform: mgl32.Ident4()},
		ProxyState{ID: tid(1), Enabled: false},
	}}))
	cam, _ := r.Camera(PrimaryViewport)
	assert.Empty(t, SortedVisible(r.Proxies(), &cam))
}

func TestSortedVisibleOrder(t *testing.T) {
	table := NewProxyTable()
	table.Register(tid(1), 1, &dotProxy{prio: 1, radius: 1}, mgl32.Translate3D(0, 0, 0))
	table.Register(tid(2), 2, &dotProxy{prio: 0, radius: 1}, mgl32.Translate3D(0, 0, 2))
	table.Register(tid(3), 3, &dotProxy{prio: 0, radius: 1}, mgl32.Translate3D(0, 0, -2))
	table.Register(tid(4), 4, &dotProxy{prio: 0, radius: 1}, mgl32.Translate3D(0, 0, 50))

	cam := DefaultCamera(40, 20)
	got := SortedVisible(table, &cam)
	assert.Equal(t, []ecs.TypedID{tid(3), tid(2), tid(1)}, got, "priority first, far before near, behind camera culled")
}

func TestCaptureWritesFiles(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	dir := t.TempDir()
	require.NoError(t, r.Handle(NewFrameEnd(PrimaryViewport)))

	txt := filepath.Join(dir, "color.txt")
	pick := filepath.Join(dir, "pick.png")
	require.NoError(t, r.Handle(CaptureTexture{Kind: CaptureOffscreen, Path: txt}))
	require.NoError(t, r.Handle(CaptureTexture{Kind: CapturePicking, Path: pick}))

	for _, p := range []string{txt, pick} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}

func TestViewportResizeAnnounced(t *testing.T) {
	r, b, replies := newTestRenderer(t)
	b.SetSize(10, 5)
	require.NoError(t, r.EndFrame(PrimaryViewport))
	got, err := replies.Drain()
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, ViewportResized{Viewport: PrimaryViewport, Width: 10, Height: 5}, got[len(got)-1])
}

func TestUIBuilder(t *testing.T) {
	ui := NewUI()
	ui.Label("loose")
	ui.Window("Stats", func(u *UI) {
		u.Labelf("fps %d", 60)
	})
	ui.Window("Stats", func(u *UI) { u.Separator() })
	l := ui.Finish()
	require.Len(t, l.Panels, 2)
	assert.Equal(t, "", l.Panels[0].Title)
	assert.Equal(t, "Stats", l.Panels[1].Title)
	assert.Len(t, l.Panels[1].Lines, 2)
	assert.True(t, ui.Finish().Empty())
}

func TestStringWidth(t *testing.T) {
	assert.Equal(t, 5, StringWidth("hello"))
	assert.Equal(t, 4, StringWidth("世界"))

	fb := NewFramebuffer(8, 1)
	cam := CameraData{View: mgl32.Ident4(), Projection: mgl32.Ident4()}
	tg := newTarget(fb, &cam, nil)
	require.True(t, tg.Text(mgl32.Vec3{-1, 0, 0}, "世a", Style{}))
	assert.Equal(t, '世', fb.At(0, 0).Rune)
	assert.Equal(t, rune(0), fb.At(1, 0).Rune)
	assert.Equal(t, 'a', fb.At(2, 0).Rune)
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
