// Package landmarks describes the 68-point facial landmark layout, the
// synthetic head slots that extend it, and the named contours and areas
// built on top of both.
package landmarks

// Landmark is an index into the landmark set. Values past the canonical 68
// points name synthetic slots that only exist as bitmask members or as
// computed mesh points.
type Landmark int

// 68-point layout (iBUG 300-W ordering)
const (
	Jaw1 Landmark = iota
	Jaw2
	Jaw3
	Jaw4
	Jaw5
	Jaw6
	Jaw7
	Jaw8
	Jaw9
	Jaw10
	Jaw11
	Jaw12
	Jaw13
	Jaw14
	Jaw15
	Jaw16
	Jaw17

	EyebrowLeft1
	EyebrowLeft2
	EyebrowLeft3
	EyebrowLeft4
	EyebrowLeft5

	EyebrowRight1
	EyebrowRight2
	EyebrowRight3
	EyebrowRight4
	EyebrowRight5

	Nose1 // bridge, top
	Nose2
	Nose3
	Nose4 // tip
	Nose5 // bottom, left wing
	Nose6
	Nose7 // subnasale
	Nose8
	Nose9

	EyeLeft1 // outer corner
	EyeLeft2
	EyeLeft3
	EyeLeft4 // inner corner
	EyeLeft5
	EyeLeft6

	EyeRight1 // inner corner
	EyeRight2
	EyeRight3
	EyeRight4 // outer corner
	EyeRight5
	EyeRight6

	MouthOuter1 // left corner
	MouthOuter2
	MouthOuter3
	MouthOuter4 // top center
	MouthOuter5
	MouthOuter6
	MouthOuter7 // right corner
	MouthOuter8
	MouthOuter9
	MouthOuter10 // bottom center
	MouthOuter11
	MouthOuter12

	MouthInner1 // left corner
	MouthInner2
	MouthInner3
	MouthInner4
	MouthInner5 // right corner
	MouthInner6
	MouthInner7
	MouthInner8

	// Synthetic head silhouette slots, left temple over the top to the right
	Head1
	Head2
	Head3
	Head4
	Head5
	Head6 // top center
	Head7
	Head8
	Head9
	Head10
	Head11

	// Membership-only bits
	BorderPoint
	HullPoint

	NumBits
)

const (
	// NumFacialLandmarks is the number of points produced by the predictor
	NumFacialLandmarks = int(Head1)
	// NumHeadPoints is the number of synthetic head slots
	NumHeadPoints = int(Head11-Head1) + 1
	// NumMorphLandmarks counts every slot a morph delta can address
	NumMorphLandmarks = int(BorderPoint)

	LeftOuterEyeCorner  = EyeLeft1
	RightOuterEyeCorner = EyeRight4
)

// Range returns the landmarks from first to last inclusive
func Range(first, last Landmark) []Landmark {
	out := make([]Landmark, 0, int(last-first)+1)
	for l := first; l <= last; l++ {
		out = append(out, l)
	}
	return out
}

// Ints converts landmarks to plain point indices
func Ints(ls []Landmark) []int {
	out := make([]int, len(ls))
	for i, l := range ls {
		out[i] = int(l)
	}
	return out
}
