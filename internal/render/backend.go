package render

import "sync"

// Backend presents finished frames. Implementations are driven from the
// render goroutine only, except for the accessors noted otherwise.
type Backend interface {
	Size() (w, h int)
	Present(fb *Framebuffer, ui *DrawList) error
	Close() error
}

// Headless is a Backend that keeps the last presented frame in memory.
type Headless struct {
	mu     sync.Mutex
	w, h   int
	frames int
	rows   []string
	ui     *DrawList
	closed bool
}

func NewHeadless(w, h int) *Headless {
	return &Headless{w: w, h: h}
}

func (b *Headless) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.w, b.h
}

// SetSize changes the reported size. Safe from any goroutine.
func (b *Headless) SetSize(w, h int) {
	b.mu.Lock()
	b.w, b.h = w, h
	b.mu.Unlock()
}

func (b *Headless) Present(fb *Framebuffer, ui *DrawList) error {
	rows := make([]string, fb.Height)
	for y := range rows {
		rows[y] = fb.Row(y)
	}
	b.mu.Lock()
	b.frames++
	b.rows = rows
	b.ui = ui
	b.mu.Unlock()
	return nil
}

func (b *Headless) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

// Frames returns how many frames were presented. Safe from any goroutine.
func (b *Headless) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Rows returns the text of the last presented frame.
func (b *Headless) Rows() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.rows...)
}

func (b *Headless) LastUI() *DrawList {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ui
}
