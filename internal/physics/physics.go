// Package physics is the fixed-step collaborator driven by the frame
// orchestrator: a timestep accumulator and a small rigid-body integrator.
package physics

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Stepper advances a simulation by exactly one fixed timestep.
type Stepper interface {
	Step(dt time.Duration)
}

// Accumulator buffers frame time and releases it in fixed steps.
type Accumulator struct {
	Timestep time.Duration
	MaxSteps int

	acc   time.Duration
	steps int
}

func NewAccumulator(timestep time.Duration, maxSteps int) *Accumulator {
	if maxSteps <= 0 {
		maxSteps = 1
	}
	return &Accumulator{Timestep: timestep, MaxSteps: maxSteps}
}

// Advance adds one frame's delta and resets the per-frame step budget.
// Time beyond the budget is dropped so a long stall cannot spiral.
func (a *Accumulator) Advance(dt time.Duration) {
	a.acc += dt
	if limit := a.Timestep * time.Duration(a.MaxSteps); a.acc > limit {
		a.acc = limit
	}
	a.steps = 0
}

// Due reports whether a full timestep is buffered and budget remains.
func (a *Accumulator) Due() bool {
	return a.Timestep > 0 && a.acc >= a.Timestep && a.steps < a.MaxSteps
}

// Consume takes one timestep out of the buffer.
func (a *Accumulator) Consume() {
	a.acc -= a.Timestep
	a.steps++
}

// Alpha is the fraction of a step left over, for interpolation.
func (a *Accumulator) Alpha() float32 {
	if a.Timestep <= 0 {
		return 0
	}
	f := float32(a.acc) / float32(a.Timestep)
	return mgl32.Clamp(f, 0, 1)
}

// BodyID names a body inside one physics World.
type BodyID uint32

// Body is a point mass. Static bodies never move.
type Body struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Mass     float32
	Damping  float32
	Gravity  bool
	Static   bool
}

// World integrates bodies with semi-implicit Euler and an optional floor.
type World struct {
	Gravity mgl32.Vec3
	Floor   *float32
	bodies  map[BodyID]*Body
	order   []BodyID
	next    BodyID
	steps   uint64
}

func NewWorld() *World {
	return &World{
		Gravity: mgl32.Vec3{0, -9.81, 0},
		bodies:  make(map[BodyID]*Body),
	}
}

func (w *World) Add(b *Body) BodyID {
	w.next++
	w.bodies[w.next] = b
	w.order = append(w.order, w.next)
	return w.next
}

func (w *World) Body(id BodyID) (*Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

func (w *World) Remove(id BodyID) {
	if _, ok := w.bodies[id]; !ok {
		return
	}
	delete(w.bodies, id)
	for i, o := range w.order {
		if o == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

func (w *World) Len() int { return len(w.bodies) }

// Steps returns how many fixed steps ran.
func (w *World) Steps() uint64 { return w.steps }

func (w *World) Step(dt time.Duration) {
	w.steps++
	s := float32(dt.Seconds())
	for _, id := range w.order {
		b := w.bodies[id]
		if b.Static {
			continue
		}
		if b.Gravity {
			b.Velocity = b.Velocity.Add(w.Gravity.Mul(s))
		}
		if b.Damping > 0 {
			b.Velocity = b.Velocity.Mul(mgl32.Clamp(1-b.Damping*s, 0, 1))
		}
		b.Position = b.Position.Add(b.Velocity.Mul(s))
		if w.Floor != nil && b.Position[1] < *w.Floor {
			b.Position[1] = *w.Floor
			if b.Velocity[1] < 0 {
				b.Velocity[1] = 0
			}
		}
	}
}

// Reset drops every body.
func (w *World) Reset() {
	clear(w.bodies)
	w.order = w.order[:0]
}
