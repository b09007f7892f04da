package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/world"
)

func node(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	require.NotEmpty(t, doc.Content)
	return doc.Content[0]
}

func TestRegistryBuiltins(t *testing.T) {
	reg := NewRegistry(zaptest.NewLogger(t))
	RegisterBuiltins(reg, nil)
	assert.Equal(t, []string{"button", "camera", "glyph", "light", "rigidbody", "rotate", "stats"}, reg.Names())
	assert.False(t, reg.Has("script"), "no engine, no scripts")
}

func TestRegistryAttachDecodesParams(t *testing.T) {
	r := newRig(t)
	reg := NewRegistry(zaptest.NewLogger(t))
	RegisterBuiltins(reg, nil)
	id := r.w.NewEntity("sign")

	tid, err := reg.Attach(r.w, id, "glyph", node(t, "glyph: '#'\nlabel: hello\ncolor: [10, 20, 30]\npriority: 2"))
	require.NoError(t, err)
	ref, ok := world.ComponentRef[GlyphRenderer](r.w, tid)
	require.True(t, ok)
	g := ref.MustGet()
	assert.Equal(t, "#", g.Glyph)
	assert.Equal(t, "hello", g.Label)
	assert.Equal(t, [3]uint8{10, 20, 30}, g.Color)
	assert.Equal(t, 2, g.Priority)
	assert.Equal(t, float32(0.5), g.Radius, "Init filled the default")

	tid, err = reg.Attach(r.w, id, "rotate", nil)
	require.NoError(t, err)
	assert.True(t, ecs.Is[Rotate](tid))
}

func TestRegistryAttachErrors(t *testing.T) {
	r := newRig(t)
	reg := NewRegistry(zaptest.NewLogger(t))
	RegisterBuiltins(reg, nil)
	id := r.w.NewEntity("e")

	_, err := reg.Attach(r.w, id, "teapot", nil)
	require.ErrorContains(t, err, "unknown component")

	_, err = reg.Attach(r.w, id, "glyph", node(t, "color: not-a-list"))
	require.ErrorContains(t, err, "decode params")
	assert.Zero(t, r.w.Entity(id).ComponentCount())

	reg.Register("bomb", func(*world.World, ecs.EntityID, *yaml.Node) (ecs.TypedID, error) {
		panic("kaboom")
	})
	_, err = reg.Attach(r.w, id, "bomb", nil)
	require.ErrorContains(t, err, "kaboom")
}
