package component

import (
	"github.com/tandem/engine/internal/render"
	"github.com/tandem/engine/internal/world"
)

// PointLight brightens glyphs within Range of the entity.
type PointLight struct {
	Color     [3]uint8 `yaml:"color"`
	Intensity float32  `yaml:"intensity"`
	Range     float32  `yaml:"range"`

	dirty bool
}

func (l *PointLight) Init(*world.Context) error {
	if l.Color == ([3]uint8{}) {
		l.Color = [3]uint8{255, 255, 255}
	}
	if l.Intensity == 0 {
		l.Intensity = 1
	}
	if l.Range == 0 {
		l.Range = 5
	}
	return nil
}

func (l *PointLight) SetIntensity(v float32) { l.Intensity, l.dirty = v, true }
func (l *PointLight) SetRange(v float32)     { l.Range, l.dirty = v, true }

func (l *PointLight) color() render.Color {
	return render.Color{R: l.Color[0], G: l.Color[1], B: l.Color[2]}
}

func (l *PointLight) CreateLightProxy(*world.Context) *render.LightProxy {
	return &render.LightProxy{Color: l.color(), Intensity: l.Intensity, Range: l.Range, Enabled: true}
}

func (l *PointLight) UpdateProxy(_ *world.Context, d *world.DrawCtx) {
	if !l.dirty {
		return
	}
	l.dirty = false
	col, in, rng := l.color(), l.Intensity, l.Range
	d.SendLightProxyUpdate(func(p *render.LightProxy) {
		p.Color, p.Intensity, p.Range = col, in, rng
	})
}
