package landmarks

import "github.com/dudu/facemesh/internal/geometry"

// SmoothingSteps is the Catmull-Rom step count used for every contour
const SmoothingSteps = 3

// ContourID names a facial contour
type ContourID int

const (
	ContourEyebrowLeft ContourID = iota
	ContourEyebrowRight
	ContourNoseBridge
	ContourNoseBottom
	ContourEyeLeftTop
	ContourEyeLeftBottom
	ContourEyeRightTop
	ContourEyeRightBottom
	ContourMouthOuterTopLeft
	ContourMouthOuterTopRight
	ContourMouthOuterBottom
	ContourMouthInnerTop
	ContourMouthInnerBottom
	ContourChin
	ContourHead

	NumContours
)

// ContourLast is the contour whose smoothing points end the smoothing range
const ContourLast = ContourHead

// FaceContour is an ordered chain of landmarks plus the slots its smoothing
// points occupy after the morph landmarks
type FaceContour struct {
	ID      ContourID
	Name    string
	Indices []int
	// SmoothIndex is the first point slot holding this contour's smoothing points
	SmoothIndex int
	NumSmooth   int
	// Bitmask has a bit for every landmark in Indices
	Bitmask Bitmask
}

var contourDefs = [NumContours]struct {
	name string
	ls   []Landmark
}{
	ContourEyebrowLeft:        {"eyebrow_left", Range(EyebrowLeft1, EyebrowLeft5)},
	ContourEyebrowRight:       {"eyebrow_right", Range(EyebrowRight1, EyebrowRight5)},
	ContourNoseBridge:         {"nose_bridge", Range(Nose1, Nose4)},
	ContourNoseBottom:         {"nose_bottom", Range(Nose5, Nose9)},
	ContourEyeLeftTop:         {"eye_left_top", Range(EyeLeft1, EyeLeft4)},
	ContourEyeLeftBottom:      {"eye_left_bottom", []Landmark{EyeLeft4, EyeLeft5, EyeLeft6, EyeLeft1}},
	ContourEyeRightTop:        {"eye_right_top", Range(EyeRight1, EyeRight4)},
	ContourEyeRightBottom:     {"eye_right_bottom", []Landmark{EyeRight4, EyeRight5, EyeRight6, EyeRight1}},
	ContourMouthOuterTopLeft:  {"mouth_outer_top_left", Range(MouthOuter1, MouthOuter4)},
	ContourMouthOuterTopRight: {"mouth_outer_top_right", Range(MouthOuter4, MouthOuter7)},
	ContourMouthOuterBottom:   {"mouth_outer_bottom", append(Range(MouthOuter7, MouthOuter12), MouthOuter1)},
	ContourMouthInnerTop:      {"mouth_inner_top", Range(MouthInner1, MouthInner5)},
	ContourMouthInnerBottom:   {"mouth_inner_bottom", append(Range(MouthInner5, MouthInner8), MouthInner1)},
	ContourChin:               {"chin", Range(Jaw1, Jaw17)},
	ContourHead:               {"head", append(append([]Landmark{Jaw1}, Range(Head1, Head11)...), Jaw17)},
}

var contours = buildContours()

func buildContours() [NumContours]FaceContour {
	var out [NumContours]FaceContour
	next := NumMorphLandmarks
	for id := ContourID(0); id < NumContours; id++ {
		def := contourDefs[id]
		n := geometry.NumSmoothPoints(len(def.ls), SmoothingSteps)
		out[id] = FaceContour{
			ID:          id,
			Name:        def.name,
			Indices:     Ints(def.ls),
			SmoothIndex: next,
			NumSmooth:   n,
			Bitmask:     MaskOf(def.ls...),
		}
		next += n
	}
	return out
}

// Contour returns the static contour definition for id
func Contour(id ContourID) *FaceContour {
	return &contours[id]
}

// Contours returns every contour in point-construction order
func Contours() []FaceContour {
	return contours[:]
}

// SmoothRangeEnd is one past the last smoothing point slot
func SmoothRangeEnd() int {
	last := Contour(ContourLast)
	return last.SmoothIndex + last.NumSmooth
}

// AreaID names a closed facial region used to punch holes in the mesh
type AreaID int

const (
	AreaEyeLeft AreaID = iota
	AreaEyeRight
	AreaMouthLipsTop
	AreaMouthLipsBottom

	NumAreas
)

var areas = [NumAreas]Bitmask{
	AreaEyeLeft:         MaskOf(Range(EyeLeft1, EyeLeft6)...),
	AreaEyeRight:        MaskOf(Range(EyeRight1, EyeRight6)...),
	AreaMouthLipsTop:    MaskOf(append(Range(MouthOuter1, MouthOuter7), Range(MouthInner1, MouthInner5)...)...),
	AreaMouthLipsBottom: MaskOf(append(append(Range(MouthOuter7, MouthOuter12), MouthOuter1), append(Range(MouthInner5, MouthInner8), MouthInner1)...)...),
}

// AreaMask returns the membership mask of a facial area
func AreaMask(id AreaID) Bitmask {
	return areas[id]
}
