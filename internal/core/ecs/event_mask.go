package ecs

// EventMask is the set of engine events an entity wants to be notified about.
type EventMask uint32

const (
	EventClick EventMask = 1 << iota
)

func (m EventMask) Has(e EventMask) bool          { return m&e != 0 }
func (m EventMask) With(e EventMask) EventMask    { return m | e }
func (m EventMask) Without(e EventMask) EventMask { return m &^ e }
func (m EventMask) Toggle(e EventMask) EventMask  { return m ^ e }
func (m EventMask) Empty() bool                   { return m == 0 }
