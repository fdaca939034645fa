package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// CellAspect is the height of a terminal cell divided by its width.
const CellAspect = 2.0

const (
	nearPlane = 0.1
	maxPitch  = math.Pi/2 - 0.01
)

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
)

// Camera is a perspective camera orbiting the origin. At zero yaw and pitch it sits
// on the positive z axis looking down -z.
type Camera struct {
	FOV      float64 // Vertical field of view in degrees
	Distance float64 // Distance from the origin
	Yaw      float64 // Rotation around the y axis, radians
	Pitch    float64 // Rotation around the x axis, radians
}

// NewCamera returns a camera with the given field of view and orbit distance.
func NewCamera(fov, distance float64) *Camera {
	return &Camera{FOV: fov, Distance: distance}
}

// Orbit rotates the camera around the origin. Pitch is clamped short of the poles.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 2*math.Pi)
	c.Pitch = math.Max(-maxPitch, math.Min(maxPitch, c.Pitch+dPitch))
}

// Zoom scales the orbit distance.
func (c *Camera) Zoom(factor float64) {
	if factor > 0 {
		c.Distance *= factor
	}
}

// view transforms a world position into camera space.
func (c *Camera) view(v r3.Vec) r3.Vec {
	v = r3.NewRotation(-c.Yaw, axisY).Rotate(v)
	return r3.NewRotation(-c.Pitch, axisX).Rotate(v)
}

// Project maps a world position onto a grid of width x height terminal cells.
// depth is the distance along the view axis; ok is false for positions behind the
// camera or outside the grid.
func (c *Camera) Project(v r3.Vec, width, height int) (x, y int, depth float64, ok bool) {
	if width <= 0 || height <= 0 {
		return 0, 0, 0, false
	}

	p := c.view(v)
	depth = c.Distance - p.Z
	if depth <= nearPlane {
		return 0, 0, depth, false
	}

	f := 1 / math.Tan(c.FOV*math.Pi/360)
	aspect := float64(width) / (float64(height) * CellAspect)

	ndcX := p.X * f / (depth * aspect)
	ndcY := p.Y * f / depth

	x = int(math.Floor((ndcX + 1) / 2 * float64(width)))
	y = int(math.Floor((1 - ndcY) / 2 * float64(height)))
	if x < 0 || x >= width || y < 0 || y >= height {
		return x, y, depth, false
	}
	return x, y, depth, true
}
