package term

import (
	"github.com/gdamore/tcell/v2"

	"github.com/tandem/engine/internal/render"
)

var (
	panelStyle = tcell.StyleDefault.Background(tcell.NewRGBColor(24, 24, 32)).Foreground(tcell.NewRGBColor(200, 200, 200))
	titleStyle = panelStyle.Bold(true).Foreground(tcell.NewRGBColor(255, 220, 120))
)

// drawPanels stacks the UI panels down the right edge of the screen, one
// boxed block per panel.
func drawPanels(s tcell.Screen, ui *render.DrawList) {
	if ui.Empty() {
		return
	}
	sw, sh := s.Size()
	y := 0
	for _, p := range ui.Panels {
		w := render.StringWidth(p.Title) + 2
		for _, l := range p.Lines {
			if lw := render.StringWidth(l.Text); lw > w {
				w = lw
			}
		}
		w += 2
		if w > sw {
			w = sw
		}
		x := sw - w
		rows := len(p.Lines)
		if p.Title != "" {
			rows++
		}
		if y+rows > sh {
			return
		}
		if p.Title != "" {
			fill(s, x, y, w)
			putString(s, x+1, y, w-1, "["+p.Title+"]", titleStyle)
			y++
		}
		for _, l := range p.Lines {
			fill(s, x, y, w)
			st := panelStyle
			if l.Style.Fg != (render.Color{}) {
				st = st.Foreground(rgb(l.Style.Fg))
			}
			if l.Style.Bold {
				st = st.Bold(true)
			}
			putString(s, x+1, y, w-1, l.Text, st)
			y++
		}
	}
}

func fill(s tcell.Screen, x, y, w int) {
	for i := 0; i < w; i++ {
		s.SetContent(x+i, y, ' ', nil, panelStyle)
	}
}

// putString writes text at (x, y), clipped to limit cells. Wide runes take
// two cells.
func putString(s tcell.Screen, x, y, limit int, text string, st tcell.Style) {
	used := 0
	for _, r := range text {
		rw := render.RuneWidth(r)
		if used+rw > limit {
			return
		}
		s.SetContent(x+used, y, r, nil, st)
		used += rw
	}
}
