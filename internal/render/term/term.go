// Package term presents frames on a terminal through tcell and turns
// terminal input into input replies for the simulation.
package term

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/tandem/engine/internal/input"
	"github.com/tandem/engine/internal/render"
)

// Backend is a render.Backend drawing into a tcell screen.
type Backend struct {
	screen  tcell.Screen
	replies *render.Queue[render.Reply]
	log     *zap.Logger

	closeOnce sync.Once
	polling   sync.WaitGroup
}

// Open creates a backend on the controlling terminal.
func Open(replies *render.Queue[render.Reply], log *zap.Logger) (*Backend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return New(screen, replies, log)
}

// New initialises screen and starts forwarding its events to replies.
func New(screen tcell.Screen, replies *render.Queue[render.Reply], log *zap.Logger) (*Backend, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.EnableMouse()
	screen.EnableFocus()
	screen.HideCursor()
	screen.Clear()

	b := &Backend{screen: screen, replies: replies, log: log.Named("term")}
	b.polling.Add(1)
	go b.poll()
	w, h := screen.Size()
	b.log.Info("terminal backend ready", zap.Int("width", w), zap.Int("height", h))
	return b, nil
}

func (b *Backend) Size() (int, int) { return b.screen.Size() }

// Present copies fb to the screen, overlays the UI panels and shows the
// result.
func (b *Backend) Present(fb *render.Framebuffer, ui *render.DrawList) error {
	sw, sh := b.screen.Size()
	for y := 0; y < fb.Height && y < sh; y++ {
		for x := 0; x < fb.Width && x < sw; x++ {
			c := fb.At(x, y)
			if c.Rune == 0 {
				continue // right half of a wide rune
			}
			b.screen.SetContent(x, y, c.Rune, nil, toStyle(c.Style))
		}
	}
	drawPanels(b.screen, ui)
	b.screen.Show()
	return nil
}

// Close stops event polling and restores the terminal. Safe to call more
// than once.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		b.screen.Fini()
		b.polling.Wait()
	})
	return nil
}

func (b *Backend) poll() {
	defer b.polling.Done()
	for {
		ev := b.screen.PollEvent()
		if ev == nil {
			return // screen finalized
		}
		in, ok := translate(ev)
		if _, resized := ev.(*tcell.EventResize); resized {
			b.screen.Sync()
		}
		if !ok {
			continue
		}
		if err := b.replies.Send(render.InputReply{Event: in}); err != nil {
			b.log.Debug("input dropped, reply queue closed", zap.Error(err))
			return
		}
	}
}

// translate maps a tcell event onto an input event. Resize is handled
// by the renderer polling Size, so it yields nothing here.
func translate(ev tcell.Event) (input.Event, bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC || (ev.Key() == tcell.KeyRune && ev.Rune() == 'c' && ev.Modifiers()&tcell.ModCtrl != 0) {
			return input.Event{Kind: input.KindQuit}, true
		}
		name, ok := keyName(ev)
		if !ok {
			return input.Event{}, false
		}
		return input.Event{Kind: input.KindKey, Key: name}, true
	case *tcell.EventMouse:
		x, y := ev.Position()
		return input.Event{Kind: input.KindMouse, X: x, Y: y, Buttons: buttons(ev.Buttons())}, true
	case *tcell.EventFocus:
		return input.Event{Kind: input.KindFocus, Focused: ev.Focused}, true
	}
	return input.Event{}, false
}

func keyName(ev *tcell.EventKey) (string, bool) {
	switch ev.Key() {
	case tcell.KeyRune:
		return string(ev.Rune()), true
	case tcell.KeyEscape:
		return input.KeyEscape, true
	case tcell.KeyEnter:
		return input.KeyEnter, true
	case tcell.KeyTab:
		return input.KeyTab, true
	case tcell.KeyUp:
		return input.KeyUp, true
	case tcell.KeyDown:
		return input.KeyDown, true
	case tcell.KeyLeft:
		return input.KeyLeft, true
	case tcell.KeyRight:
		return input.KeyRight, true
	}
	return "", false
}

func buttons(m tcell.ButtonMask) input.Button {
	var out input.Button
	if m&tcell.Button1 != 0 {
		out |= input.ButtonPrimary
	}
	if m&tcell.Button2 != 0 {
		out |= input.ButtonSecondary
	}
	if m&tcell.Button3 != 0 {
		out |= input.ButtonMiddle
	}
	return out
}

func toStyle(st render.Style) tcell.Style {
	s := tcell.StyleDefault.Foreground(rgb(st.Fg))
	if st.Bg != (render.Color{}) {
		s = s.Background(rgb(st.Bg))
	}
	if st.Bold {
		s = s.Bold(true)
	}
	return s
}

func rgb(c render.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
