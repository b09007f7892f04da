package render

import "github.com/go-gl/mathgl/mgl32"

// CameraData is the render-side copy of a viewport's active camera.
type CameraData struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Position   mgl32.Vec3
	FovY       float32
	Near, Far  float32
}

// CellAspect compensates for terminal cells being about twice as tall as wide.
const CellAspect = 0.5

// DefaultCamera looks at the origin from +Z.
func DefaultCamera(width, height int) CameraData {
	c := CameraData{
		Position: mgl32.Vec3{0, 0, 10},
		FovY:     mgl32.DegToRad(60),
		Near:     0.1,
		Far:      100,
	}
	c.View = mgl32.LookAtV(c.Position, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	c.Projection = Perspective(c.FovY, width, height, c.Near, c.Far)
	return c
}

// Perspective builds a projection for a viewport measured in cells.
func Perspective(fovY float32, width, height int, near, far float32) mgl32.Mat4 {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) * CellAspect / float32(height)
	}
	return mgl32.Perspective(fovY, aspect, near, far)
}

func (c *CameraData) ViewProj() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}
