package render

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/text/width"
)

type Color struct{ R, G, B uint8 }

func (c Color) Scale(f float32) Color {
	s := func(v uint8) uint8 {
		x := float32(v) * f
		if x > 255 {
			return 255
		}
		if x < 0 {
			return 0
		}
		return uint8(x)
	}
	return Color{s(c.R), s(c.G), s(c.B)}
}

type Style struct {
	Fg, Bg Color
	Bold   bool
}

// Cell is one character cell. Rune 0 marks the right half of a wide rune.
type Cell struct {
	Rune  rune
	Style Style
}

// Framebuffer holds the color plane, a depth plane and the RGBA8 picking
// plane for one viewport.
type Framebuffer struct {
	Width, Height int
	Cells         []Cell
	Depth         []float32
	Pick          []byte
}

func NewFramebuffer(w, h int) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(w, h)
	return fb
}

func (f *Framebuffer) Resize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	f.Width, f.Height = w, h
	f.Cells = make([]Cell, w*h)
	f.Depth = make([]float32, w*h)
	f.Pick = make([]byte, w*h*4)
	f.Clear()
}

func (f *Framebuffer) Clear() {
	for i := range f.Cells {
		f.Cells[i] = Cell{Rune: ' '}
		f.Depth[i] = 1
	}
	clear(f.Pick)
}

func (f *Framebuffer) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

func (f *Framebuffer) At(x, y int) Cell {
	if !f.inside(x, y) {
		return Cell{}
	}
	return f.Cells[y*f.Width+x]
}

// PickAt returns the RGBA bytes written by the picking pass at (x, y).
func (f *Framebuffer) PickAt(x, y int) [4]byte {
	var px [4]byte
	if !f.inside(x, y) {
		return px
	}
	i := (y*f.Width + x) * 4
	copy(px[:], f.Pick[i:i+4])
	return px
}

// Row returns line y of the color plane as text.
func (f *Framebuffer) Row(y int) string {
	if y < 0 || y >= f.Height {
		return ""
	}
	var sb strings.Builder
	for x := 0; x < f.Width; x++ {
		if r := f.Cells[y*f.Width+x].Rune; r != 0 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// RuneWidth returns the number of cells r occupies.
func RuneWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

// StringWidth returns the number of cells s occupies.
func StringWidth(s string) int {
	n := 0
	for _, r := range s {
		n += RuneWidth(r)
	}
	return n
}

// Target is what a proxy draws into during one pass. In the picking pass
// every plotted cell records the binding's hash instead of a glyph.
type Target struct {
	fb       *Framebuffer
	viewProj mgl32.Mat4
	lights   *LightTable
	picking  bool
	pickPx   [4]byte
}

func newTarget(fb *Framebuffer, cam *CameraData, lights *LightTable) *Target {
	return &Target{fb: fb, viewProj: cam.ViewProj(), lights: lights}
}

func (t *Target) Picking() bool { return t.picking }

func (t *Target) Size() (w, h int) { return t.fb.Width, t.fb.Height }

// Project maps a world position to a cell and a depth in [0,1].
func (t *Target) Project(p mgl32.Vec3) (x, y int, depth float32, ok bool) {
	clip := t.viewProj.Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	if ndc[0] < -1 || ndc[0] > 1 || ndc[1] < -1 || ndc[1] > 1 || ndc[2] < -1 || ndc[2] > 1 {
		return 0, 0, 0, false
	}
	x = int((ndc[0] + 1) / 2 * float32(t.fb.Width))
	y = int((1 - ndc[1]) / 2 * float32(t.fb.Height))
	if x >= t.fb.Width {
		x = t.fb.Width - 1
	}
	if y >= t.fb.Height {
		y = t.fb.Height - 1
	}
	return x, y, (ndc[2] + 1) / 2, true
}

// Plot draws r at the projected position of p with a depth test.
func (t *Target) Plot(p mgl32.Vec3, r rune, st Style) bool {
	x, y, d, ok := t.Project(p)
	if !ok {
		return false
	}
	t.lit(&st, p)
	return t.put(x, y, d, r, st)
}

// Text draws s starting at the projected position of p.
func (t *Target) Text(p mgl32.Vec3, s string, st Style) bool {
	x, y, d, ok := t.Project(p)
	if !ok {
		return false
	}
	t.lit(&st, p)
	drawn := false
	for _, r := range s {
		w := RuneWidth(r)
		if x+w > t.fb.Width {
			break
		}
		if t.put(x, y, d, r, st) {
			drawn = true
			if w == 2 {
				t.put(x+1, y, d, 0, st)
			}
		}
		x += w
	}
	return drawn
}

func (t *Target) put(x, y int, depth float32, r rune, st Style) bool {
	if !t.fb.inside(x, y) {
		return false
	}
	i := y*t.fb.Width + x
	if depth > t.fb.Depth[i] {
		return false
	}
	t.fb.Depth[i] = depth
	if t.picking {
		copy(t.fb.Pick[i*4:i*4+4], t.pickPx[:])
		return true
	}
	t.fb.Cells[i] = Cell{Rune: r, Style: st}
	return true
}

const ambient = 0.35

func (t *Target) lit(st *Style, p mgl32.Vec3) {
	if t.picking || t.lights == nil || t.lights.Len() == 0 {
		return
	}
	f := float32(ambient)
	t.lights.Each(func(l *LightProxy) {
		f += l.Attenuation(p)
	})
	if f > 1 {
		f = 1
	}
	st.Fg = st.Fg.Scale(f)
}

func (f *Framebuffer) clearDepth() {
	for i := range f.Depth {
		f.Depth[i] = 1
	}
}
