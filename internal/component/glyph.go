package component

import (
	"unicode/utf8"

	"github.com/tandem/engine/internal/render"
	"github.com/tandem/engine/internal/world"
)

// GlyphRenderer draws one rune, optionally followed by a label, at the
// entity's position.
type GlyphRenderer struct {
	Glyph    string   `yaml:"glyph"`
	Label    string   `yaml:"label"`
	Color    [3]uint8 `yaml:"color"`
	Bold     bool     `yaml:"bold"`
	Priority int      `yaml:"priority"`
	Radius   float32  `yaml:"radius"`

	dirty bool
}

func (g *GlyphRenderer) Init(*world.Context) error {
	if g.Glyph == "" {
		g.Glyph = "*"
	}
	if g.Color == ([3]uint8{}) {
		g.Color = [3]uint8{255, 255, 255}
	}
	if g.Radius == 0 {
		g.Radius = 0.5
	}
	return nil
}

func (g *GlyphRenderer) SetGlyph(s string) { g.Glyph, g.dirty = s, true }
func (g *GlyphRenderer) SetLabel(s string) { g.Label, g.dirty = s, true }

func (g *GlyphRenderer) SetColor(c render.Color) {
	g.Color, g.dirty = [3]uint8{c.R, c.G, c.B}, true
}

func (g *GlyphRenderer) rune() rune {
	r, _ := utf8.DecodeRuneInString(g.Glyph)
	return r
}

func (g *GlyphRenderer) style() render.Style {
	return render.Style{Fg: render.Color{R: g.Color[0], G: g.Color[1], B: g.Color[2]}, Bold: g.Bold}
}

func (g *GlyphRenderer) CreateRenderProxy(*world.Context) render.Proxy {
	return &glyphProxy{glyph: g.rune(), label: g.Label, style: g.style(), priority: g.Priority, radius: g.Radius}
}

// UpdateProxy ships only the visual fields, and only after a setter ran.
func (g *GlyphRenderer) UpdateProxy(_ *world.Context, d *world.DrawCtx) {
	if !g.dirty {
		return
	}
	g.dirty = false
	glyph, label, st := g.rune(), g.Label, g.style()
	d.SendProxyUpdate(func(p render.Proxy) {
		gp := p.(*glyphProxy)
		gp.glyph, gp.label, gp.style = glyph, label, st
	})
}

type glyphProxy struct {
	glyph    rune
	label    string
	style    render.Style
	priority int
	radius   float32
}

func (p *glyphProxy) Priority() int   { return p.priority }
func (p *glyphProxy) Radius() float32 { return p.radius }

func (p *glyphProxy) Draw(t *render.Target, b *render.Binding) {
	if p.label == "" {
		t.Plot(b.Position(), p.glyph, p.style)
		return
	}
	t.Text(b.Position(), string(p.glyph)+" "+p.label, p.style)
}
