package render

import "fmt"

// Line is one row of text in a UI panel.
type Line struct {
	Text  string
	Style Style
}

// Panel is a titled group of lines.
type Panel struct {
	Title string
	Lines []Line
}

// DrawList is the frame's UI description, built on the simulation side and
// handed to the backend untouched.
type DrawList struct {
	Panels []Panel
}

func (d *DrawList) Empty() bool {
	return d == nil || len(d.Panels) == 0
}

// UI is the immediate-mode builder passed to OnGUI callbacks.
type UI struct {
	list *DrawList
	cur  int
}

func NewUI() *UI {
	return &UI{list: &DrawList{}, cur: -1}
}

// Window groups the lines emitted by fn under title. Windows sharing a
// title within one frame are merged.
func (u *UI) Window(title string, fn func(u *UI)) {
	prev := u.cur
	u.cur = u.panel(title)
	fn(u)
	u.cur = prev
}

func (u *UI) Label(text string) {
	u.Colored(text, Style{Fg: Color{220, 220, 220}})
}

func (u *UI) Labelf(format string, args ...any) {
	u.Label(fmt.Sprintf(format, args...))
}

func (u *UI) Colored(text string, st Style) {
	if u.cur < 0 {
		u.cur = u.panel("")
	}
	p := &u.list.Panels[u.cur]
	p.Lines = append(p.Lines, Line{Text: text, Style: st})
}

func (u *UI) Separator() {
	u.Colored("", Style{})
}

// Finish returns the draw list and resets the builder.
func (u *UI) Finish() *DrawList {
	l := u.list
	u.list = &DrawList{}
	u.cur = -1
	return l
}

func (u *UI) panel(title string) int {
	for i := range u.list.Panels {
		if u.list.Panels[i].Title == title {
			return i
		}
	}
	u.list.Panels = append(u.list.Panels, Panel{Title: title})
	return len(u.list.Panels) - 1
}
