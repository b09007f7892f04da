package render

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tandem/engine/internal/core/ecs"
)

type plane struct {
	n mgl32.Vec3
	d float32
}

// frustumPlanes extracts the six clip planes from a view-projection matrix.
func frustumPlanes(vp mgl32.Mat4) [6]plane {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)
	raw := [6]mgl32.Vec4{
		r3.Add(r0), r3.Sub(r0),
		r3.Add(r1), r3.Sub(r1),
		r3.Add(r2), r3.Sub(r2),
	}
	var out [6]plane
	for i, p := range raw {
		n := p.Vec3()
		l := n.Len()
		if l == 0 {
			continue
		}
		out[i] = plane{n: n.Mul(1 / l), d: p[3] / l}
	}
	return out
}

func maxScale(m mgl32.Mat4) float32 {
	s := m.Col(0).Vec3().Len()
	if y := m.Col(1).Vec3().Len(); y > s {
		s = y
	}
	if z := m.Col(2).Vec3().Len(); z > s {
		s = z
	}
	return s
}

func visible(planes [6]plane, b *Binding) bool {
	r := b.Proxy.Radius()
	if r <= 0 {
		return true
	}
	r *= maxScale(b.Transform)
	c := b.Position()
	for _, p := range planes {
		if p.n.Dot(c)+p.d < -r {
			return false
		}
	}
	return true
}

// SortedVisible returns the enabled proxies inside cam's frustum, ordered
// by priority and then back to front.
func SortedVisible(t *ProxyTable, cam *CameraData) []ecs.TypedID {
	planes := frustumPlanes(cam.ViewProj())
	type entry struct {
		id   ecs.TypedID
		prio int
		dist float32
	}
	list := make([]entry, 0, t.Len())
	t.Each(func(b *Binding) {
		if !b.Enabled || b.Proxy == nil || !visible(planes, b) {
			return
		}
		list = append(list, entry{
			id:   b.ID,
			prio: b.Proxy.Priority(),
			dist: b.Position().Sub(cam.Position).Len(),
		})
	})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].prio != list[j].prio {
			return list[i].prio < list[j].prio
		}
		return list[i].dist > list[j].dist
	})
	out := make([]ecs.TypedID, len(list))
	for i, e := range list {
		out[i] = e.id
	}
	return out
}
