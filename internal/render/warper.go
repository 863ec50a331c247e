// Package render draws triangulation results onto frames on the CPU.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"gocv.io/x/gocv"

	"github.com/dudu/facemesh/internal/mesh"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Warper moves the pixels under each face and hull triangle from the
// triangle's texture coordinates to its vertex positions. Background
// triangles keep the source pixels.
type Warper struct {
	blurSize int
}

// NewWarper creates a warper. blurSize feathers the warped region edge
// and is rounded up to an odd kernel; 0 disables feathering.
func NewWarper(blurSize int) *Warper {
	if blurSize > 0 && blurSize%2 == 0 {
		blurSize++
	}
	return &Warper{blurSize: blurSize}
}

// Apply renders m from src into dst. src and dst have the same size.
func (w *Warper) Apply(src gocv.Mat, dst *gocv.Mat, m *mesh.Result) error {
	if src.Empty() {
		return fmt.Errorf("empty source frame")
	}
	src.CopyTo(dst)
	if m.Empty() {
		return nil
	}

	rows, cols := src.Rows(), src.Cols()
	bounds := image.Rect(0, 0, cols, rows)

	warped := gocv.NewMatWithSize(rows, cols, src.Type())
	defer warped.Close()
	mask := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	defer mask.Close()
	mask.SetTo(gocv.NewScalar(0, 0, 0, 0))

	size := mgl32.Vec2{float32(cols), float32(rows)}
	for _, b := range []mesh.Bucket{mesh.BucketFace, mesh.BucketHull} {
		idx := m.Indices[b]
		for i := 0; i+2 < len(idx); i += 3 {
			var from, to [3]mgl32.Vec2
			for k := 0; k < 3; k++ {
				v := m.Vertices[idx[i+k]]
				from[k] = mgl32.Vec2{v.UV.X() * size.X(), v.UV.Y() * size.Y()}
				to[k] = v.Pos
			}
			warpTriangle(src, &warped, &mask, from, to, bounds)
		}
	}

	if w.blurSize > 0 {
		gocv.GaussianBlur(mask, &mask, image.Pt(w.blurSize, w.blurSize), 0, 0, gocv.BorderDefault)
	}
	warped.CopyToWithMask(dst, mask)
	return nil
}

// warpTriangle warps one source triangle onto out and marks it in mask
func warpTriangle(src gocv.Mat, out, mask *gocv.Mat, from, to [3]mgl32.Vec2, bounds image.Rectangle) {
	srcRect := triangleRect(from).Intersect(bounds)
	dstRect := triangleRect(to).Intersect(bounds)
	if srcRect.Empty() || dstRect.Empty() || degenerate(to) {
		return
	}

	srcPts := make([]gocv.Point2f, 3)
	dstPts := make([]gocv.Point2f, 3)
	poly := make([]image.Point, 3)
	for k := 0; k < 3; k++ {
		srcPts[k] = gocv.Point2f{X: from[k].X() - float32(srcRect.Min.X), Y: from[k].Y() - float32(srcRect.Min.Y)}
		dstPts[k] = gocv.Point2f{X: to[k].X() - float32(dstRect.Min.X), Y: to[k].Y() - float32(dstRect.Min.Y)}
		poly[k] = image.Pt(int(math.Round(float64(dstPts[k].X))), int(math.Round(float64(dstPts[k].Y))))
	}

	srcVec := gocv.NewPoint2fVectorFromPoints(srcPts)
	defer srcVec.Close()
	dstVec := gocv.NewPoint2fVectorFromPoints(dstPts)
	defer dstVec.Close()

	M := gocv.GetAffineTransform2f(srcVec, dstVec)
	defer M.Close()

	srcRoi := src.Region(srcRect)
	defer srcRoi.Close()
	patch := gocv.NewMat()
	defer patch.Close()
	gocv.WarpAffineWithParams(srcRoi, &patch, M, dstRect.Size(),
		gocv.InterpolationLinear, gocv.BorderReflect101, color.RGBA{})

	triMask := gocv.NewMatWithSize(dstRect.Dy(), dstRect.Dx(), gocv.MatTypeCV8U)
	defer triMask.Close()
	triMask.SetTo(gocv.NewScalar(0, 0, 0, 0))
	polyVec := gocv.NewPointsVectorFromPoints([][]image.Point{poly})
	defer polyVec.Close()
	gocv.FillPoly(&triMask, polyVec, white)

	outRoi := out.Region(dstRect)
	defer outRoi.Close()
	patch.CopyToWithMask(&outRoi, triMask)

	maskRoi := mask.Region(dstRect)
	defer maskRoi.Close()
	gocv.BitwiseOr(maskRoi, triMask, &maskRoi)
}

// triangleRect returns the pixel rectangle covering a triangle
func triangleRect(t [3]mgl32.Vec2) image.Rectangle {
	minX, minY := t[0].X(), t[0].Y()
	maxX, maxY := minX, minY
	for _, p := range t[1:] {
		minX, maxX = min(minX, p.X()), max(maxX, p.X())
		minY, maxY = min(minY, p.Y()), max(maxY, p.Y())
	}
	return image.Rect(
		int(math.Floor(float64(minX))), int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX)))+1, int(math.Ceil(float64(maxY)))+1,
	)
}

func degenerate(t [3]mgl32.Vec2) bool {
	ab := t[1].Sub(t[0])
	ac := t[2].Sub(t[0])
	return math.Abs(float64(ab.X()*ac.Y()-ab.Y()*ac.X())) < 1e-6
}
