// Package input keeps the per-frame input snapshot the simulation reads:
// held keys and buttons, edges for the current frame, cursor position and
// lock state. Events arrive from the render goroutine and are applied on the
// simulation goroutine only.
package input

// Kind classifies an input event.
type Kind uint8

const (
	KindKey Kind = iota + 1
	KindMouse
	KindFocus
	KindQuit
)

// Button is a mouse button bitmask.
type Button uint8

const (
	ButtonPrimary Button = 1 << iota
	ButtonSecondary
	ButtonMiddle
)

// Special key names produced by backends for non-rune keys.
const (
	KeyEscape = "Esc"
	KeyEnter  = "Enter"
	KeyTab    = "Tab"
	KeyUp     = "Up"
	KeyDown   = "Down"
	KeyLeft   = "Left"
	KeyRight  = "Right"
)

// Event is one backend input event.
type Event struct {
	Kind     Kind
	Viewport uint32
	Key      string // rune as string, or one of the Key* names
	X, Y     int
	Buttons  Button
	Focused  bool
}

// Manager folds events into the current frame's state.
type Manager struct {
	held        map[string]bool
	pressed     map[string]bool
	buttons     Button
	downEdge    Button
	upEdge      Button
	x, y        int
	viewport    uint32
	locked      bool
	focused     bool
	quit        bool
	frameEvents int
}

func NewManager() *Manager {
	return &Manager{
		held:    make(map[string]bool),
		pressed: make(map[string]bool),
		focused: true,
	}
}

// Apply folds one event into the state.
func (m *Manager) Apply(ev Event) {
	m.frameEvents++
	switch ev.Kind {
	case KindKey:
		// Terminals report presses only; a key is held for the frame it arrives in.
		if !m.held[ev.Key] {
			m.pressed[ev.Key] = true
		}
		m.held[ev.Key] = true
	case KindMouse:
		m.x, m.y = ev.X, ev.Y
		m.viewport = ev.Viewport
		down := ev.Buttons &^ m.buttons
		up := m.buttons &^ ev.Buttons
		m.downEdge |= down
		m.upEdge |= up
		m.buttons = ev.Buttons
	case KindFocus:
		m.focused = ev.Focused
		if !ev.Focused {
			m.upEdge |= m.buttons
			m.buttons = 0
			clear(m.held)
		}
	case KindQuit:
		m.quit = true
	}
}

// NextFrame clears edge state. Called once per frame after all phases ran.
func (m *Manager) NextFrame() {
	clear(m.pressed)
	clear(m.held)
	m.downEdge = 0
	m.upEdge = 0
	m.frameEvents = 0
}

// IsKeyDown reports whether key was pressed this frame.
func (m *Manager) IsKeyDown(key string) bool { return m.pressed[key] }

// IsKeyPressed reports whether key is currently held.
func (m *Manager) IsKeyPressed(key string) bool { return m.held[key] }

// IsButtonDown reports whether b transitioned down this frame.
func (m *Manager) IsButtonDown(b Button) bool { return m.downEdge&b != 0 }

// IsButtonReleased reports whether b transitioned up this frame.
func (m *Manager) IsButtonReleased(b Button) bool { return m.upEdge&b != 0 }

func (m *Manager) IsButtonPressed(b Button) bool { return m.buttons&b != 0 }

func (m *Manager) Cursor() (x, y int) { return m.x, m.y }

func (m *Manager) ActiveViewport() uint32 { return m.viewport }

func (m *Manager) IsCursorLocked() bool { return m.locked }

func (m *Manager) SetCursorLocked(locked bool) { m.locked = locked }

func (m *Manager) Focused() bool { return m.focused }

func (m *Manager) QuitRequested() bool { return m.quit }

// EventsThisFrame returns how many events were applied since NextFrame.
func (m *Manager) EventsThisFrame() int { return m.frameEvents }
