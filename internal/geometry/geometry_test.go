package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func near(a, b mgl32.Vec2) bool {
	return math.Abs(float64(a[0]-b[0])) < 1e-4 && math.Abs(float64(a[1]-b[1])) < 1e-4
}

func TestCatmullRomSmoothCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []int
		steps   int
		want    int
	}{
		{name: "Too few control points", indices: []int{0, 1}, steps: 3, want: 0},
		{name: "Three points", indices: []int{0, 1, 2}, steps: 3, want: 4},
		{name: "Five points", indices: []int{0, 1, 2, 3, 4}, steps: 4, want: 12},
		{name: "Single step", indices: []int{0, 1, 2, 3}, steps: 1, want: 0},
	}

	points := []mgl32.Vec2{{0, 0}, {10, 5}, {20, 0}, {30, 5}, {40, 0}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CatmullRomSmooth(points, tt.indices, tt.steps)
			if got := len(out) - len(points); got != tt.want {
				t.Errorf("appended %d points, want %d", got, tt.want)
			}
			if got := NumSmoothPoints(len(tt.indices), tt.steps); got != tt.want {
				t.Errorf("NumSmoothPoints() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCatmullRomSmoothCollinear(t *testing.T) {
	// Evenly spaced collinear points interpolate onto the same line.
	points := []mgl32.Vec2{{0, 0}, {10, 0}, {20, 0}, {30, 0}}
	out := CatmullRomSmooth(points, []int{0, 1, 2, 3}, 2)

	want := []mgl32.Vec2{{5, 0}, {15, 0}, {25, 0}}
	added := out[len(points):]
	if len(added) != len(want) {
		t.Fatalf("got %d points, want %d", len(added), len(want))
	}
	for i := range want {
		if math.Abs(float64(added[i][1])) > 1e-4 {
			t.Errorf("point %d left the line: %v", i, added[i])
		}
	}
	// Interior segment is symmetric, so its midpoint is exact.
	if !near(added[1], want[1]) {
		t.Errorf("midpoint = %v, want %v", added[1], want[1])
	}
}

func TestCatmullRomSmoothDoesNotMutateInput(t *testing.T) {
	points := []mgl32.Vec2{{0, 0}, {10, 10}, {20, 0}}
	orig := append([]mgl32.Vec2(nil), points...)
	CatmullRomSmooth(points, []int{0, 1, 2}, 3)
	for i := range orig {
		if points[i] != orig[i] {
			t.Fatalf("input point %d changed", i)
		}
	}
}

func TestSubdivide(t *testing.T) {
	corners := RectCorners(100, 50)
	out := Subdivide(corners)
	if len(out) != 8 {
		t.Fatalf("len = %d, want 8", len(out))
	}
	want := []mgl32.Vec2{{0, 0}, {50, 0}, {100, 0}, {100, 25}, {100, 50}, {50, 50}, {0, 50}, {0, 25}}
	for i := range want {
		if !near(out[i], want[i]) {
			t.Errorf("point %d = %v, want %v", i, out[i], want[i])
		}
	}

	if got := len(SubdivideN(corners, 3)); got != 32 {
		t.Errorf("SubdivideN(3) len = %d, want 32", got)
	}
}

func TestScaleFrom(t *testing.T) {
	points := []mgl32.Vec2{{10, 0}, {0, 10}}
	ScaleFrom(points, mgl32.Vec2{0, 0}, 1.25)
	if !near(points[0], mgl32.Vec2{12.5, 0}) || !near(points[1], mgl32.Vec2{0, 12.5}) {
		t.Errorf("ScaleFrom() = %v", points)
	}
}

func TestCentroid(t *testing.T) {
	points := []mgl32.Vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {99, 99}}
	c := Centroid(points, []int{0, 1, 2, 3})
	if !near(c, mgl32.Vec2{5, 5}) {
		t.Errorf("Centroid() = %v, want (5,5)", c)
	}
}

func TestSideOfLine(t *testing.T) {
	lo := mgl32.Vec2{0, 0}
	hi := mgl32.Vec2{0, 10}
	if d := SideOfLine(mgl32.Vec2{5, 5}, lo, hi); d <= 0 {
		t.Errorf("point right of a downward line should be positive, got %v", d)
	}
	if d := SideOfLine(mgl32.Vec2{-5, 5}, lo, hi); d >= 0 {
		t.Errorf("point left of a downward line should be negative, got %v", d)
	}
}
