package system

import (
	"fmt"
	"time"
)

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseFixed      Phase = iota // 0: fixed-step callbacks + physics
	PhaseUpdate                  // 1: pick results, Update, LateUpdate
	PhasePostUpdate              // 2: PostUpdate, OnGUI
	PhaseSync                    // 3: diff world into render messages
	PhaseNextFrame               // 4: clear change flags, advance input + clock
)

var phaseNames = [...]string{"fixed", "update", "post_update", "sync", "next_frame"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// System is the interface every frame step implements. A returned error
// aborts the rest of the frame.
type System interface {
	Phase() Phase
	Update(dt time.Duration) error
}

// Func adapts a plain function into a System.
type Func struct {
	P  Phase
	Fn func(dt time.Duration) error
}

func (f Func) Phase() Phase                  { return f.P }
func (f Func) Update(dt time.Duration) error { return f.Fn(dt) }
