package mesh

import "github.com/dudu/facemesh/internal/landmarks"

// Bucket is one of the classified index buffers of a Result
type Bucket int

const (
	BucketFace Bucket = iota
	BucketHull
	BucketBackground
	BucketLines

	NumBuckets
)

func (b Bucket) String() string {
	switch b {
	case BucketFace:
		return "face"
	case BucketHull:
		return "hull"
	case BucketBackground:
		return "background"
	case BucketLines:
		return "lines"
	}
	return "unknown"
}

var (
	// faceMask covers the outline of the face and the inner lips
	faceMask = landmarks.MaskOf(append(append(
		landmarks.Range(landmarks.Jaw1, landmarks.Jaw17),
		landmarks.Range(landmarks.Head1, landmarks.Head11)...),
		landmarks.Range(landmarks.MouthInner1, landmarks.MouthInner8)...)...)

	// linesMask covers the feature lines drawn inside the face
	linesMask = landmarks.MaskOf(append(append(append(
		landmarks.Range(landmarks.EyebrowLeft1, landmarks.EyebrowRight5),
		landmarks.Range(landmarks.Nose1, landmarks.Nose9)...),
		landmarks.Range(landmarks.EyeLeft1, landmarks.EyeRight6)...),
		landmarks.Range(landmarks.MouthOuter1, landmarks.MouthOuter12)...)...)

	hullMask = landmarks.MaskOf(append(append(
		[]landmarks.Landmark{landmarks.HullPoint},
		landmarks.Range(landmarks.Head1, landmarks.Head11)...),
		landmarks.Range(landmarks.Jaw1, landmarks.Jaw17)...)...)

	// the one all-mouth triangle between the upper lip corners that
	// belongs to the face
	exceptionMask = landmarks.MaskOf(landmarks.MouthOuter3, landmarks.MouthOuter4, landmarks.MouthOuter5)

	leftEyeMask  = landmarks.AreaMask(landmarks.AreaEyeLeft)
	rightEyeMask = landmarks.AreaMask(landmarks.AreaEyeRight)
	mouthMask    = landmarks.AreaMask(landmarks.AreaMouthLipsTop).Or(landmarks.AreaMask(landmarks.AreaMouthLipsBottom))

	classifyFaceMask = faceMask.Or(linesMask)
)

// classify returns the bucket of a triangle from its vertex bitmasks, or
// false when the triangle is an eye or mouth hole
func classify(b0, b1, b2 landmarks.Bitmask) (Bucket, bool) {
	all := func(m landmarks.Bitmask) bool {
		return b0.Intersects(m) && b1.Intersects(m) && b2.Intersects(m)
	}

	if !all(exceptionMask) && (all(leftEyeMask) || all(rightEyeMask) || all(mouthMask)) {
		return 0, false
	}

	switch {
	case all(classifyFaceMask):
		return BucketFace, true
	case all(hullMask):
		return BucketHull, true
	}
	return BucketBackground, true
}
