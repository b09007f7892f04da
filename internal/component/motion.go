package component

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/tandem/engine/internal/physics"
	"github.com/tandem/engine/internal/world"
)

// Rotate spins the entity at Speed degrees per second around each axis.
type Rotate struct {
	Speed mgl32.Vec3 `yaml:"speed"`
}

func (r *Rotate) Update(c *world.Context) error {
	dt := float32(c.Delta().Seconds())
	if dt == 0 || r.Speed == (mgl32.Vec3{}) {
		return nil
	}
	s := r.Speed.Mul(dt)
	c.Transform().RotateEuler(mgl32.DegToRad(s[0]), mgl32.DegToRad(s[1]), mgl32.DegToRad(s[2]))
	return nil
}

// RigidBody couples the entity's local position to a physics body. Moving
// the transform outside the fixed step teleports the body.
type RigidBody struct {
	Mass     float32    `yaml:"mass"`
	Damping  float32    `yaml:"damping"`
	Gravity  bool       `yaml:"gravity"`
	Static   bool       `yaml:"static"`
	Velocity mgl32.Vec3 `yaml:"velocity"`

	body   physics.BodyID
	synced mgl32.Vec3
}

func (rb *RigidBody) Init(c *world.Context) error {
	if rb.Mass <= 0 {
		rb.Mass = 1
	}
	pos := c.Transform().Position()
	rb.body = c.World.Physics().Add(&physics.Body{
		Position: pos,
		Velocity: rb.Velocity,
		Mass:     rb.Mass,
		Damping:  rb.Damping,
		Gravity:  rb.Gravity,
		Static:   rb.Static,
	})
	rb.synced = pos
	return nil
}

// Body returns the physics body backing rb.
func (rb *RigidBody) Body(w *world.World) (*physics.Body, bool) {
	return w.Physics().Body(rb.body)
}

// Impulse adds a velocity change scaled by the inverse mass.
func (rb *RigidBody) Impulse(w *world.World, j mgl32.Vec3) {
	if b, ok := rb.Body(w); ok && !b.Static {
		b.Velocity = b.Velocity.Add(j.Mul(1 / b.Mass))
	}
}

func (rb *RigidBody) PreFixedUpdate(c *world.Context) error {
	b, ok := rb.Body(c.World)
	if !ok {
		return fmt.Errorf("rigidbody %s: body %d missing", c.ID, rb.body)
	}
	if pos := c.Transform().Position(); pos != rb.synced {
		b.Position = pos
		rb.synced = pos
	}
	return nil
}

func (rb *RigidBody) PostFixedUpdate(c *world.Context) error {
	b, ok := rb.Body(c.World)
	if !ok {
		return nil
	}
	if b.Position != rb.synced {
		c.Transform().SetPosition(b.Position)
		rb.synced = b.Position
	}
	return nil
}

func (rb *RigidBody) Delete(c *world.Context) {
	c.World.Physics().Remove(rb.body)
}
