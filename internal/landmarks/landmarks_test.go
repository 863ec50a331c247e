package landmarks

import (
	"math"
	"testing"
)

func TestLayoutCounts(t *testing.T) {
	if NumFacialLandmarks != 68 {
		t.Errorf("NumFacialLandmarks = %d, want 68", NumFacialLandmarks)
	}
	if NumHeadPoints != 11 {
		t.Errorf("NumHeadPoints = %d, want 11", NumHeadPoints)
	}
	if NumMorphLandmarks != 79 {
		t.Errorf("NumMorphLandmarks = %d, want 79", NumMorphLandmarks)
	}
	if LeftOuterEyeCorner != 36 || RightOuterEyeCorner != 45 {
		t.Errorf("eye corners = %d,%d, want 36,45", LeftOuterEyeCorner, RightOuterEyeCorner)
	}
}

func TestBitmask(t *testing.T) {
	a := MaskOf(Jaw1, HullPoint)
	b := MaskOf(HullPoint, BorderPoint)

	if !a.Has(Jaw1) || !a.Has(HullPoint) || a.Has(BorderPoint) {
		t.Errorf("MaskOf() membership wrong: %v", a)
	}
	if got := a.Or(b).Count(); got != 3 {
		t.Errorf("union count = %d, want 3", got)
	}
	if got := a.And(b); !got.Has(HullPoint) || got.Count() != 1 {
		t.Errorf("intersection = %v, want {HullPoint}", got)
	}
	if !a.Intersects(b) {
		t.Error("expected masks to intersect")
	}
	if MaskOf(Jaw1).Intersects(MaskOf(Jaw2)) {
		t.Error("disjoint masks intersect")
	}
	var empty Bitmask
	if empty.Any() {
		t.Error("zero mask reports bits")
	}
	// value semantics
	a.With(Nose1)
	if a.Has(Nose1) {
		t.Error("With mutated the receiver")
	}
}

func TestContourSmoothingSlots(t *testing.T) {
	next := NumMorphLandmarks
	for _, fc := range Contours() {
		if fc.SmoothIndex != next {
			t.Errorf("%s: SmoothIndex = %d, want %d", fc.Name, fc.SmoothIndex, next)
		}
		want := (len(fc.Indices) - 1) * (SmoothingSteps - 1)
		if fc.NumSmooth != want {
			t.Errorf("%s: NumSmooth = %d, want %d", fc.Name, fc.NumSmooth, want)
		}
		for _, idx := range fc.Indices {
			if !fc.Bitmask.Has(Landmark(idx)) {
				t.Errorf("%s: bitmask missing landmark %d", fc.Name, idx)
			}
		}
		next += fc.NumSmooth
	}
	if SmoothRangeEnd() != next {
		t.Errorf("SmoothRangeEnd() = %d, want %d", SmoothRangeEnd(), next)
	}
}

func TestHeadContourEndsOnJaw(t *testing.T) {
	head := Contour(ContourHead)
	if head.Indices[0] != int(Jaw1) || head.Indices[len(head.Indices)-1] != int(Jaw17) {
		t.Errorf("head contour must start at Jaw1 and end at Jaw17, got %v", head.Indices)
	}
	if len(head.Indices) != NumHeadPoints+2 {
		t.Errorf("head contour len = %d, want %d", len(head.Indices), NumHeadPoints+2)
	}
}

func TestAreas(t *testing.T) {
	if AreaMask(AreaEyeLeft).Count() != 6 || AreaMask(AreaEyeRight).Count() != 6 {
		t.Error("eye areas must cover 6 landmarks each")
	}
	mouth := AreaMask(AreaMouthLipsTop).Or(AreaMask(AreaMouthLipsBottom))
	if mouth.Count() != 20 {
		t.Errorf("mouth areas cover %d landmarks, want 20", mouth.Count())
	}
	if AreaMask(AreaEyeLeft).Intersects(AreaMask(AreaEyeRight)) {
		t.Error("eye areas overlap")
	}
}

func TestHeadModelSymmetry(t *testing.T) {
	pts := HeadModelPoints()
	if len(pts) != HPNumHeadPoints {
		t.Fatalf("len = %d, want %d", len(pts), HPNumHeadPoints)
	}
	for k := 0; k < NumHeadPoints; k++ {
		l := pts[HPHead1+k]
		r := pts[HPHead11-k]
		if math.Abs(l.X+r.X) > 1e-9 || math.Abs(l.Y-r.Y) > 1e-9 {
			t.Errorf("head slot %d not mirrored: %v vs %v", k, l, r)
		}
	}
	if math.Abs(pts[HPHead6].X) > 1e-9 {
		t.Errorf("crown should be centered, got %v", pts[HPHead6])
	}
	for level := 0; level < HPNumHeadLevels; level++ {
		left := pts[HPHeadExtra1+3*level]
		right := pts[HPHeadExtra3+3*level]
		if left.X >= 0 || right.X <= 0 {
			t.Errorf("level %d extras on wrong side: %v %v", level, left, right)
		}
	}
}

func TestModelPoints(t *testing.T) {
	pts := ModelPoints(PoseLandmarks)
	if len(pts) != 7 {
		t.Fatalf("len = %d, want 7", len(pts))
	}
	if pts[5].Norm() != 0 {
		t.Errorf("nose tip must be the model origin, got %v", pts[5])
	}
}
