package render

import (
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"gocv.io/x/gocv"

	"github.com/dudu/facemesh/internal/mesh"
)

func TestTriangleRect(t *testing.T) {
	got := triangleRect([3]mgl32.Vec2{{1.5, 2.2}, {10.1, 3}, {4, 8.9}})
	if want := image.Rect(1, 2, 12, 10); got != want {
		t.Errorf("triangleRect() = %v, want %v", got, want)
	}
}

func TestDegenerate(t *testing.T) {
	if !degenerate([3]mgl32.Vec2{{0, 0}, {1, 1}, {2, 2}}) {
		t.Error("collinear triangle not degenerate")
	}
	if degenerate([3]mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}}) {
		t.Error("right triangle reported degenerate")
	}
}

func TestNewWarperOddKernel(t *testing.T) {
	if got := NewWarper(30).blurSize; got != 31 {
		t.Errorf("blurSize = %d, want 31", got)
	}
	if got := NewWarper(0).blurSize; got != 0 {
		t.Errorf("blurSize = %d, want 0", got)
	}
}

func TestApplyEmptyMeshCopiesFrame(t *testing.T) {
	src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 2, 3, 0), 20, 30, gocv.MatTypeCV8UC3)
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	if err := NewWarper(0).Apply(src, &dst, &mesh.Result{}); err != nil {
		t.Fatal(err)
	}
	if dst.Rows() != 20 || dst.Cols() != 30 {
		t.Fatalf("dst size = %dx%d", dst.Cols(), dst.Rows())
	}
	if v := dst.GetVecbAt(5, 5); v[0] != 1 || v[1] != 2 || v[2] != 3 {
		t.Errorf("pixel = %v, want [1 2 3]", v)
	}
}

func TestApplyMovesFacePixels(t *testing.T) {
	// left half dark, right half bright
	src := gocv.NewMatWithSize(40, 40, gocv.MatTypeCV8UC3)
	defer src.Close()
	src.SetTo(gocv.NewScalar(0, 0, 0, 0))
	right := src.Region(image.Rect(20, 0, 40, 40))
	right.SetTo(gocv.NewScalar(255, 255, 255, 0))
	right.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	// one face triangle sampling the bright half, drawn over the dark half
	m := &mesh.Result{
		Vertices: []mesh.Vertex{
			{Pos: mgl32.Vec2{2, 2}, UV: mgl32.Vec2{0.6, 0.05}},
			{Pos: mgl32.Vec2{18, 2}, UV: mgl32.Vec2{0.95, 0.05}},
			{Pos: mgl32.Vec2{2, 30}, UV: mgl32.Vec2{0.6, 0.75}},
		},
	}
	m.Indices[mesh.BucketFace] = []uint32{0, 1, 2}

	if err := NewWarper(0).Apply(src, &dst, m); err != nil {
		t.Fatal(err)
	}
	if v := dst.GetVecbAt(8, 6); v[0] != 255 {
		t.Errorf("inside triangle = %v, want bright", v)
	}
	if v := dst.GetVecbAt(35, 10); v[0] != 0 {
		t.Errorf("outside triangle = %v, want dark", v)
	}
}
