package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tandem/engine/internal/core/ecs"
)

// Proxy is render-owned state mirroring one component. It is only touched
// on the render goroutine.
type Proxy interface {
	// Priority orders draws; lower draws first.
	Priority() int
	// Radius is the local-space bounding sphere radius. Zero or less means
	// the proxy is never culled.
	Radius() float32
	Draw(t *Target, b *Binding)
}

// Binding is the table row for one registered proxy.
type Binding struct {
	ID        ecs.TypedID
	Hash      uint32
	Proxy     Proxy
	Transform mgl32.Mat4
	Enabled   bool
}

// Position returns the world-space origin of the binding.
func (b *Binding) Position() mgl32.Vec3 {
	return b.Transform.Col(3).Vec3()
}

// ProxyTable owns every scene proxy keyed by TypedID.
type ProxyTable struct {
	byID  map[ecs.TypedID]*Binding
	order []ecs.TypedID // registration order, compacted on remove
}

func NewProxyTable() *ProxyTable {
	return &ProxyTable{byID: make(map[ecs.TypedID]*Binding, 64)}
}

// Register inserts a binding. A second registration under the same id
// replaces the first in place.
func (t *ProxyTable) Register(id ecs.TypedID, hash uint32, p Proxy, m mgl32.Mat4) *Binding {
	if b, ok := t.byID[id]; ok {
		b.Hash, b.Proxy, b.Transform, b.Enabled = hash, p, m, true
		return b
	}
	b := &Binding{ID: id, Hash: hash, Proxy: p, Transform: m, Enabled: true}
	t.byID[id] = b
	t.order = append(t.order, id)
	return b
}

func (t *ProxyTable) Get(id ecs.TypedID) (*Binding, bool) {
	b, ok := t.byID[id]
	return b, ok
}

func (t *ProxyTable) Remove(id ecs.TypedID) bool {
	if _, ok := t.byID[id]; !ok {
		return false
	}
	delete(t.byID, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *ProxyTable) Len() int { return len(t.byID) }

// Each visits bindings in registration order.
func (t *ProxyTable) Each(fn func(*Binding)) {
	for _, id := range t.order {
		fn(t.byID[id])
	}
}

// LightProxy is a point light on the render side.
type LightProxy struct {
	Color     Color
	Intensity float32
	Range     float32
	Position  mgl32.Vec3
	Enabled   bool
}

// Attenuation returns the light contribution at p in [0, Intensity].
func (l *LightProxy) Attenuation(p mgl32.Vec3) float32 {
	if !l.Enabled || l.Range <= 0 {
		return 0
	}
	d := p.Sub(l.Position).Len()
	if d >= l.Range {
		return 0
	}
	f := 1 - d/l.Range
	return l.Intensity * f * f
}

// LightTable owns every light proxy keyed by TypedID.
type LightTable struct {
	byID  map[ecs.TypedID]*LightProxy
	order []ecs.TypedID
}

func NewLightTable() *LightTable {
	return &LightTable{byID: make(map[ecs.TypedID]*LightProxy, 8)}
}

func (t *LightTable) Register(id ecs.TypedID, l *LightProxy) {
	if _, ok := t.byID[id]; !ok {
		t.order = append(t.order, id)
	}
	t.byID[id] = l
}

func (t *LightTable) Get(id ecs.TypedID) (*LightProxy, bool) {
	l, ok := t.byID[id]
	return l, ok
}

func (t *LightTable) Remove(id ecs.TypedID) bool {
	if _, ok := t.byID[id]; !ok {
		return false
	}
	delete(t.byID, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *LightTable) Len() int { return len(t.byID) }

func (t *LightTable) Each(fn func(*LightProxy)) {
	for _, id := range t.order {
		fn(t.byID[id])
	}
}
