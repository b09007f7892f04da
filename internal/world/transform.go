package world

import "github.com/go-gl/mathgl/mgl32"

// Transform is an entity's local position, rotation and scale. Every
// setter flags it dirty until the end of the frame.
type Transform struct {
	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3
	dirty    bool
}

func NewTransform() Transform {
	return Transform{
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
		dirty:    true,
	}
}

func (t *Transform) Position() mgl32.Vec3 { return t.position }
func (t *Transform) Rotation() mgl32.Quat { return t.rotation }
func (t *Transform) Scale() mgl32.Vec3    { return t.scale }
func (t *Transform) IsDirty() bool        { return t.dirty }

func (t *Transform) SetPosition(p mgl32.Vec3) {
	t.position = p
	t.dirty = true
}

func (t *Transform) Translate(d mgl32.Vec3) {
	t.SetPosition(t.position.Add(d))
}

func (t *Transform) SetRotation(q mgl32.Quat) {
	t.rotation = q.Normalize()
	t.dirty = true
}

// Rotate applies q after the current rotation.
func (t *Transform) Rotate(q mgl32.Quat) {
	t.SetRotation(q.Mul(t.rotation))
}

// RotateEuler rotates by angles in radians around X, Y then Z.
func (t *Transform) RotateEuler(x, y, z float32) {
	t.Rotate(mgl32.AnglesToQuat(x, y, z, mgl32.XYZ))
}

func (t *Transform) SetScale(s mgl32.Vec3) {
	t.scale = s
	t.dirty = true
}

// Local returns the local-to-parent matrix.
func (t *Transform) Local() mgl32.Mat4 {
	return mgl32.Translate3D(t.position[0], t.position[1], t.position[2]).
		Mul4(t.rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.scale[0], t.scale[1], t.scale[2]))
}

func (t *Transform) clearDirty() { t.dirty = false }
