package mesh

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/dudu/facemesh/internal/face"
	"github.com/dudu/facemesh/internal/geometry"
	"github.com/dudu/facemesh/internal/landmarks"
	"github.com/dudu/facemesh/internal/pose"
)

const (
	// NumBorderDivs is the number of midpoint rounds for border and hull
	NumBorderDivs = 3
	// NumBorderPoints is the size of the subdivided image rectangle
	NumBorderPoints = 4 << NumBorderDivs
	// HullScale expands the hull away from the face centroid
	HullScale = 1.25
)

// hullContours are walked to build the hull outline
var hullContours = []landmarks.ContourID{landmarks.ContourChin, landmarks.ContourHead}

// NumHullPoints is the size of the subdivided hull. The head contour
// shares its endpoints with the chin, so those are counted once.
var NumHullPoints = numHullOutline() << NumBorderDivs

func numHullOutline() int {
	n := 0
	for _, id := range hullContours {
		c := landmarks.Contour(id)
		if id == landmarks.ContourHead {
			n += len(c.Indices) - 2
		} else {
			n += len(c.Indices)
		}
	}
	return n
}

var (
	vtxBitmasksOnce sync.Once
	vtxBitmasks     []landmarks.Bitmask
)

// VertexBitmasks returns the membership bitmask of every mesh vertex, in
// point construction order. The table is built on first use and must not
// be modified.
func VertexBitmasks() []landmarks.Bitmask {
	vtxBitmasksOnce.Do(func() {
		out := make([]landmarks.Bitmask, 0, landmarks.SmoothRangeEnd()+NumBorderPoints+NumHullPoints)
		for i := 0; i < landmarks.NumMorphLandmarks; i++ {
			out = append(out, landmarks.MaskOf(landmarks.Landmark(i)))
		}
		for _, c := range landmarks.Contours() {
			for j := 0; j < c.NumSmooth; j++ {
				out = append(out, c.Bitmask)
			}
		}
		border := landmarks.MaskOf(landmarks.BorderPoint)
		for i := 0; i < NumBorderPoints; i++ {
			out = append(out, border)
		}
		hull := landmarks.MaskOf(landmarks.HullPoint)
		for i := 0; i < NumHullPoints; i++ {
			out = append(out, hull)
		}
		vtxBitmasks = out
	})
	return vtxBitmasks
}

// headPoints projects the head model and picks, for every silhouette slot,
// whichever of the slot and its two deeper candidates lies furthest out
func headPoints(cam pose.Camera, p face.Pose) []mgl32.Vec2 {
	proj := cam.Project(landmarks.HeadModelPoints(), p.Rotation, p.Translation)
	out := make([]mgl32.Vec2, 0, landmarks.NumHeadPoints)

	// left side: smallest x wins
	for i, j := 0, 0; i < 5; i, j = i+1, j+3 {
		h0 := landmarks.HPHead1 + i
		h1 := landmarks.HPHeadExtra1 + j
		h2 := landmarks.HPHeadExtra2 + j
		switch {
		case proj[h0][0] < proj[h1][0]:
			out = append(out, proj[h0])
		case proj[h1][0] < proj[h2][0]:
			out = append(out, proj[h1])
		default:
			out = append(out, proj[h2])
		}
	}

	out = append(out, proj[landmarks.HPHead6])

	// right side: largest x wins
	for i, j := 0, 12; i < 5; i, j = i+1, j-3 {
		h0 := landmarks.HPHead7 + i
		h1 := landmarks.HPHeadExtra3 + j
		h2 := landmarks.HPHeadExtra2 + j
		switch {
		case proj[h0][0] > proj[h1][0]:
			out = append(out, proj[h0])
		case proj[h1][0] > proj[h2][0]:
			out = append(out, proj[h1])
		default:
			out = append(out, proj[h2])
		}
	}
	return out
}

// borderPoints outlines the w x h image
func borderPoints(w, h float32) []mgl32.Vec2 {
	return geometry.SubdivideN(geometry.RectCorners(w, h), NumBorderDivs)
}

// hullPoints builds the ring around the face. Each outline point takes its
// warped position when the warp pushes it away from the centroid and its
// original position otherwise, then the ring is expanded by HullScale.
func hullPoints(points, warped []mgl32.Vec2) []mgl32.Vec2 {
	var all []int
	for _, id := range hullContours {
		all = append(all, landmarks.Contour(id).Indices...)
	}
	center := geometry.Centroid(points, all)

	var hull []mgl32.Vec2
	pick := func(idx int) {
		p, wp := points[idx], warped[idx]
		if wp.Sub(p).Dot(p.Sub(center)) > 0 {
			hull = append(hull, wp)
		} else {
			hull = append(hull, p)
		}
	}
	for _, id := range hullContours {
		idx := landmarks.Contour(id).Indices
		if id == landmarks.ContourHead {
			// walk back over the head, skipping both jaw endpoints
			for j := len(idx) - 2; j > 0; j-- {
				pick(idx[j])
			}
			continue
		}
		for _, i := range idx {
			pick(i)
		}
	}

	geometry.ScaleFrom(hull, center, HullScale)
	return geometry.SubdivideN(hull, NumBorderDivs)
}
