package pose

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/geo/r3"
)

// Camera is a pinhole camera with no lens distortion, focal length equal
// to the image width and the principal point at the image center
type Camera struct {
	Width, Height int
	Focal         float64
	CX, CY        float64
}

// NewCamera approximates intrinsics for a w x h capture
func NewCamera(w, h int) Camera {
	return Camera{
		Width:  w,
		Height: h,
		Focal:  float64(w),
		CX:     float64(w) / 2,
		CY:     float64(h) / 2,
	}
}

// CameraCache rebuilds intrinsics only when the capture size changes
type CameraCache struct {
	cam Camera
}

// Get returns the camera for a w x h capture
func (c *CameraCache) Get(w, h int) Camera {
	if c.cam.Width != w || c.cam.Height != h {
		c.cam = NewCamera(w, h)
	}
	return c.cam
}

// Rotate applies the Rodrigues rotation rvec to v
func Rotate(rvec, v r3.Vector) r3.Vector {
	theta := rvec.Norm()
	if theta < 1e-12 {
		return v
	}
	k := rvec.Mul(1 / theta)
	cos, sin := math.Cos(theta), math.Sin(theta)
	return v.Mul(cos).
		Add(k.Cross(v).Mul(sin)).
		Add(k.Mul(k.Dot(v) * (1 - cos)))
}

// ProjectPoint maps a model point into image space. ok is false when the
// point lands behind the camera.
func (c Camera) ProjectPoint(p, rvec, tvec r3.Vector) (x, y float64, ok bool) {
	pc := Rotate(rvec, p).Add(tvec)
	if pc.Z <= 1e-9 {
		return c.CX, c.CY, false
	}
	return c.Focal*pc.X/pc.Z + c.CX, c.Focal*pc.Y/pc.Z + c.CY, true
}

// Project maps model points into image space
func (c Camera) Project(points []r3.Vector, rvec, tvec r3.Vector) []mgl32.Vec2 {
	out := make([]mgl32.Vec2, len(points))
	for i, p := range points {
		x, y, _ := c.ProjectPoint(p, rvec, tvec)
		out[i] = mgl32.Vec2{float32(x), float32(y)}
	}
	return out
}

// ReprojectionError returns the mean absolute x error plus the mean
// absolute y error between observed and projected model points
func (c Camera) ReprojectionError(model []r3.Vector, observed []mgl32.Vec2, rvec, tvec r3.Vector) float64 {
	if len(model) == 0 {
		return 0
	}
	projected := c.Project(model, rvec, tvec)
	var ex, ey float64
	for i := range projected {
		ex += math.Abs(float64(observed[i][0] - projected[i][0]))
		ey += math.Abs(float64(observed[i][1] - projected[i][1]))
	}
	n := float64(len(model))
	return ex/n + ey/n
}
