package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/dudu/facemesh/internal/geometry"
	"github.com/dudu/facemesh/internal/landmarks"
)

// selectiveMargin is how far inside the silhouette line a point must stay
const selectiveMargin = 10

var (
	leftSilhouette = landmarks.Ints([]landmarks.Landmark{
		landmarks.Head6, landmarks.Head5, landmarks.Head4, landmarks.Head3, landmarks.Head2,
		landmarks.Head1, landmarks.Jaw1, landmarks.Jaw2, landmarks.Jaw3, landmarks.Jaw4,
		landmarks.Jaw5, landmarks.Jaw6, landmarks.Jaw7, landmarks.Jaw8, landmarks.Jaw9,
	})
	rightSilhouette = landmarks.Ints([]landmarks.Landmark{
		landmarks.Head6, landmarks.Head7, landmarks.Head8, landmarks.Head9, landmarks.Head10,
		landmarks.Head11, landmarks.Jaw17, landmarks.Jaw16, landmarks.Jaw15, landmarks.Jaw14,
		landmarks.Jaw13, landmarks.Jaw12, landmarks.Jaw11, landmarks.Jaw10, landmarks.Jaw9,
	})
)

// addSelectivePoints adds the feature contours of a turned face. Contours on
// the side turned away are clipped against the silhouette; the near side is
// added whole.
func addSelectivePoints(in *insertion, points, warped []mgl32.Vec2) {
	turnedLeft := warped[landmarks.Nose4][0] < warped[landmarks.Nose1][0]

	left := []landmarks.ContourID{
		landmarks.ContourEyebrowLeft,
		landmarks.ContourEyeLeftTop,
		landmarks.ContourEyeLeftBottom,
		landmarks.ContourMouthOuterTopLeft,
	}
	right := []landmarks.ContourID{
		landmarks.ContourEyebrowRight,
		landmarks.ContourEyeRightTop,
		landmarks.ContourEyeRightBottom,
		landmarks.ContourMouthOuterTopRight,
	}

	clipped, whole := right, left
	if turnedLeft {
		clipped, whole = left, right
	}
	for _, id := range clipped {
		addContourSelective(in, landmarks.Contour(id), points, warped, turnedLeft)
	}
	for _, id := range whole {
		addContour(in, landmarks.Contour(id), points)
	}

	for _, id := range []landmarks.ContourID{
		landmarks.ContourNoseBridge,
		landmarks.ContourNoseBottom,
		landmarks.ContourMouthOuterBottom,
	} {
		addContourSelective(in, landmarks.Contour(id), points, warped, turnedLeft)
	}
}

// addContour adds every landmark and smoothing point of fc inside the frame
func addContour(in *insertion, fc *landmarks.FaceContour, points []mgl32.Vec2) {
	for _, idx := range fc.Indices {
		if p := points[idx]; in.contains(p) {
			in.add(idx, p)
		}
	}
	for idx := fc.SmoothIndex; idx < fc.SmoothIndex+fc.NumSmooth; idx++ {
		if p := points[idx]; in.contains(p) {
			in.add(idx, p)
		}
	}
}

// addContourSelective walks fc and adds points while their warped position
// stays more than selectiveMargin inside the line joining the silhouette
// points level with the contour
func addContourSelective(in *insertion, fc *landmarks.FaceContour, points, warped []mgl32.Vec2, checkLeft bool) {
	miny, maxy := warped[fc.Indices[0]][1], warped[fc.Indices[0]][1]
	for _, idx := range fc.Indices[1:] {
		y := warped[idx][1]
		miny = min(miny, y)
		maxy = max(maxy, y)
	}

	head := rightSilhouette
	sign := float32(-1)
	if checkLeft {
		head = leftSilhouette
		sign = 1
	}

	lop := 0
	for i := 1; i < len(head); i++ {
		if warped[head[i]][1] >= miny {
			break
		}
		lop = i
	}
	hip := len(head) - 1
	for i := len(head) - 2; i >= 0; i-- {
		if warped[head[i]][1] <= maxy {
			break
		}
		hip = i
	}
	lo, hi := warped[head[lop]], warped[head[hip]]

	inside := func(idx int) bool {
		return sign*geometry.SideOfLine(warped[idx], lo, hi) > selectiveMargin && in.contains(points[idx])
	}

	for _, idx := range fc.Indices {
		if !inside(idx) {
			break
		}
		in.add(idx, points[idx])
	}
	for idx := fc.SmoothIndex; idx < fc.SmoothIndex+fc.NumSmooth; idx++ {
		if !inside(idx) {
			break
		}
		in.add(idx, points[idx])
	}
}
