package detector

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrNotStarted is returned by Update before a successful Start
var ErrNotStarted = errors.New("tracker not started")

// minTemplateSize is the smallest face patch worth matching
const minTemplateSize = 8

// minVariance is the pixel variance below which a search window holds no
// trackable texture
const minVariance = 1.0

// TemplateTracker follows one face by normalized cross-correlation of the
// patch captured at Start inside a search window around the last position.
type TemplateTracker struct {
	template gocv.Mat
	rect     image.Rectangle
	// Margin is the search window growth on each side, relative to the box
	Margin float64
}

// NewTemplateTracker returns an idle tracker
func NewTemplateTracker() *TemplateTracker {
	return &TemplateTracker{template: gocv.NewMat(), Margin: 0.5}
}

// Start captures the face patch at r
func (t *TemplateTracker) Start(img *image.Gray, r image.Rectangle) error {
	r = r.Intersect(img.Bounds())
	if r.Dx() < minTemplateSize || r.Dy() < minTemplateSize {
		return fmt.Errorf("face box %v too small to track", r)
	}

	frame, err := grayMat(img)
	if err != nil {
		return err
	}
	defer frame.Close()

	region := frame.Region(r.Sub(img.Bounds().Min))
	defer region.Close()

	t.template.Close()
	t.template = region.Clone()
	t.rect = r
	return nil
}

// Update finds the patch in img and returns its new box and match score
// clamped to [0,1]
func (t *TemplateTracker) Update(img *image.Gray) (image.Rectangle, float64, error) {
	if t.template.Empty() {
		return image.Rectangle{}, 0, ErrNotStarted
	}

	size := t.rect.Size()
	grow := image.Pt(int(float64(size.X)*t.Margin), int(float64(size.Y)*t.Margin))
	window := image.Rectangle{Min: t.rect.Min.Sub(grow), Max: t.rect.Max.Add(grow)}.Intersect(img.Bounds())
	if window.Dx() < size.X || window.Dy() < size.Y {
		// the face left the frame
		return t.rect, 0, nil
	}
	if featureless(img, window) {
		return t.rect, 0, nil
	}

	frame, err := grayMat(img)
	if err != nil {
		return image.Rectangle{}, 0, err
	}
	defer frame.Close()

	search := frame.Region(window.Sub(img.Bounds().Min))
	defer search.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(search, t.template, &result, gocv.TmCcoeffNormed, mask)
	if result.Empty() {
		return t.rect, 0, nil
	}

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	t.rect = image.Rectangle{Min: window.Min.Add(maxLoc), Max: window.Min.Add(maxLoc).Add(size)}
	return t.rect, clampScore(float64(maxVal)), nil
}

// Close releases the template
func (t *TemplateTracker) Close() error {
	return t.template.Close()
}

// featureless reports whether the pixels of img inside r barely vary, in
// which case correlation scores are undefined
func featureless(img *image.Gray, r image.Rectangle) bool {
	var sum, sum2 float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)]
		for _, v := range row {
			f := float64(v)
			sum += f
			sum2 += f * f
		}
	}
	n := float64(r.Dx() * r.Dy())
	mean := sum / n
	return sum2/n-mean*mean < minVariance
}

func clampScore(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	return min(v, 1)
}
