// Package face holds the per-face data passed between the tracking,
// landmark, pose and mesh stages of a frame.
package face

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/geo/r3"
)

// MaxFaces bounds the number of faces tracked per video source
const MaxFaces = 8

// Pose is an extrinsic camera pose: a Rodrigues rotation vector and a
// translation, in model units
type Pose struct {
	Rotation    r3.Vector
	Translation r3.Vector
	valid       bool
}

// NewPose returns a valid pose
func NewPose(rotation, translation r3.Vector) Pose {
	return Pose{Rotation: rotation, Translation: translation, valid: true}
}

// Valid reports whether the pose came from a solve
func (p Pose) Valid() bool {
	return p.valid
}

// Reset sets the pose back to identity and marks it unsolved
func (p *Pose) Reset() {
	*p = Pose{}
}

// Angle is the rotation magnitude in radians
func (p Pose) Angle() float64 {
	return p.Rotation.Norm()
}

// Result is one tracked face for the current frame
type Result struct {
	Bounds    image.Rectangle
	Landmarks []mgl32.Vec2
	Pose      Pose
}

// HasLandmarks reports whether the predictor filled the landmark set
func (r *Result) HasLandmarks(n int) bool {
	return len(r.Landmarks) >= n
}
