package component

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/tandem/engine/internal/render"
	"github.com/tandem/engine/internal/world"
)

// Camera drives a viewport from its entity's world transform. It looks
// down its local -Z axis.
type Camera struct {
	FovY   float32 `yaml:"fov"` // degrees
	Near   float32 `yaml:"near"`
	Far    float32 `yaml:"far"`
	Active bool    `yaml:"active"`

	sent map[render.ViewportID]cameraState
}

type cameraState struct {
	view mgl32.Mat4
	w, h int
	fovY float32
}

func (cam *Camera) Init(c *world.Context) error {
	if cam.FovY <= 0 {
		cam.FovY = 60
	}
	if cam.Near <= 0 {
		cam.Near = 0.1
	}
	if cam.Far <= cam.Near {
		cam.Far = 100
	}
	cam.sent = make(map[render.ViewportID]cameraState, 1)
	if cam.Active {
		return c.World.SetActiveCamera(render.PrimaryViewport, c.ID)
	}
	return nil
}

// SetFov changes the vertical field of view in degrees.
func (cam *Camera) SetFov(deg float32) { cam.FovY = deg }

// CameraUpdates returns one closure when the camera moved, the viewport was
// resized or the field of view changed since the last send, or when the
// viewport just switched back to this camera.
func (cam *Camera) CameraUpdates(c *world.Context, vp *world.Viewport, switched bool) []render.Msg {
	m := c.World.WorldMatrix(c.Owner)
	st := cameraState{view: m.Inv(), w: vp.Width, h: vp.Height, fovY: cam.FovY}
	if prev, ok := cam.sent[vp.ID]; ok && prev == st && !switched {
		return nil
	}
	cam.sent[vp.ID] = st

	pos := m.Col(3).Vec3()
	fov := mgl32.DegToRad(cam.FovY)
	near, far := cam.Near, cam.Far
	proj := render.Perspective(fov, vp.Width, vp.Height, near, far)
	return []render.Msg{render.UpdateActiveCamera{Viewport: vp.ID, Fn: func(d *render.CameraData) {
		d.View = st.view
		d.Projection = proj
		d.Position = pos
		d.FovY = fov
		d.Near, d.Far = near, far
	}}}
}
