package landmarks

import (
	"math"

	"github.com/golang/geo/r3"
)

// The 3D face model is expressed in centimeters with the nose tip at the
// origin, x to the image right, y down and z away from the camera, so an
// upright frontal face solves to a near-zero rotation.

// PoseLandmarks are the stable points used to solve head pose
var PoseLandmarks = []Landmark{
	LeftOuterEyeCorner,
	RightOuterEyeCorner,
	Nose1,
	Nose2,
	Nose3,
	Nose4,
	Nose7,
}

var poseModel = map[Landmark]r3.Vector{
	LeftOuterEyeCorner:  {X: -4.5, Y: -3.5, Z: 3.5},
	RightOuterEyeCorner: {X: 4.5, Y: -3.5, Z: 3.5},
	Nose1:               {X: 0, Y: -3.5, Z: 2.0},
	Nose2:               {X: 0, Y: -2.3, Z: 1.3},
	Nose3:               {X: 0, Y: -1.2, Z: 0.6},
	Nose4:               {X: 0, Y: 0, Z: 0},
	Nose7:               {X: 0, Y: 0.8, Z: 1.2},
}

// ModelPoints returns the 3D model coordinates of the given landmarks.
// Landmarks without a model coordinate map to the origin.
func ModelPoints(ls []Landmark) []r3.Vector {
	out := make([]r3.Vector, len(ls))
	for i, l := range ls {
		out[i] = poseModel[l]
	}
	return out
}

// Head model point slots. Every head silhouette slot has three candidates
// one level deeper in the skull (left, middle, right); the outermost
// projection approximates the silhouette when the head turns.
const (
	HPHead1 = iota
	HPHead2
	HPHead3
	HPHead4
	HPHead5
	HPHead6
	HPHead7
	HPHead8
	HPHead9
	HPHead10
	HPHead11
	HPHeadExtra1 // level 0 left
	HPHeadExtra2 // level 0 middle
	HPHeadExtra3 // level 0 right

	HPNumHeadLevels = 5
	HPNumHeadPoints = HPHeadExtra1 + 3*HPNumHeadLevels
)

const (
	headHalfWidth = 7.6
	headBaseY     = -4.0
	headHeight    = 9.5
	headDepth     = 6.0
	headExtraSide = 4.5
	headExtraBack = 11.0
)

var headModel = buildHeadModel()

func buildHeadModel() []r3.Vector {
	pts := make([]r3.Vector, HPNumHeadPoints)
	for k := 0; k < NumHeadPoints; k++ {
		x, y := headArc(k)
		pts[HPHead1+k] = r3.Vector{X: x, Y: y, Z: headDepth}
	}
	// level L pairs with Head(L+1) on the left and Head(11-L) on the right
	for level := 0; level < HPNumHeadLevels; level++ {
		x, y := headArc(level)
		base := HPHeadExtra1 + 3*level
		pts[base] = r3.Vector{X: x, Y: y, Z: headDepth + headExtraSide}
		pts[base+1] = r3.Vector{X: 0, Y: y, Z: headDepth + headExtraBack}
		pts[base+2] = r3.Vector{X: -x, Y: y, Z: headDepth + headExtraSide}
	}
	return pts
}

// headArc places slot k of the head silhouette on a half ellipse running
// from the left temple over the crown to the right temple
func headArc(k int) (float64, float64) {
	a := float64(k) / float64(NumHeadPoints-1) * math.Pi
	return -headHalfWidth * math.Cos(a), headBaseY - headHeight*math.Sin(a)
}

// HeadModelPoints returns a copy of the 3D head model
func HeadModelPoints() []r3.Vector {
	return append([]r3.Vector(nil), headModel...)
}
