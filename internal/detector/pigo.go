package detector

import (
	"fmt"
	"image"
	"log"
	"os"
	"slices"

	pigo "github.com/esimov/pigo/core"
)

// PigoParams tunes the cascade scan
type PigoParams struct {
	MinSize          int     // Minimum face size (pixels)
	MaxSize          int     // Maximum face size (pixels)
	ShiftFactor      float64 // Shift factor for detection window
	ScaleFactor      float64 // Scale factor for image pyramid
	IoUThreshold     float64 // IoU threshold for clustering
	QualityThreshold float32 // Minimum quality score
}

// DefaultPigoParams returns parameters suited to a quarter size webcam frame
func DefaultPigoParams() PigoParams {
	return PigoParams{
		MinSize:          20,
		MaxSize:          1000,
		ShiftFactor:      0.1,
		ScaleFactor:      1.1,
		IoUThreshold:     0.2,
		QualityThreshold: 5.0,
	}
}

// Pigo is a pure Go cascade face detector
type Pigo struct {
	classifier *pigo.Pigo
	params     PigoParams
}

// NewPigo loads a pigo cascade file
func NewPigo(cascadePath string, params PigoParams) (*Pigo, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}
	return NewPigoFromBytes(cascade, params)
}

// NewPigoFromBytes unpacks an in-memory cascade
func NewPigoFromBytes(cascade []byte, params PigoParams) (*Pigo, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}

	log.Printf("[DETECTOR] pigo initialized (minSize: %d, qualityThreshold: %.1f)", params.MinSize, params.QualityThreshold)
	return &Pigo{classifier: classifier, params: params}, nil
}

// Detect finds faces in a grayscale frame, best first
func (p *Pigo) Detect(img *image.Gray) ([]image.Rectangle, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}

	cParams := pigo.CascadeParams{
		MinSize:     p.params.MinSize,
		MaxSize:     min(p.params.MaxSize, max(b.Dx(), b.Dy())),
		ShiftFactor: p.params.ShiftFactor,
		ScaleFactor: p.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: img.Pix[img.PixOffset(b.Min.X, b.Min.Y):],
			Rows:   b.Dy(),
			Cols:   b.Dx(),
			Dim:    img.Stride,
		},
	}

	// 0.0 = detect all, filter by quality later
	dets := p.classifier.RunCascade(cParams, 0.0)
	dets = p.classifier.ClusterDetections(dets, p.params.IoUThreshold)

	return rects(p.convert(dets)), nil
}

// Close is a no-op; the cascade lives in Go memory
func (p *Pigo) Close() error {
	return nil
}

// convert filters by quality and turns pigo's center/scale detections
// into boxes, best first. Overlaps are already merged by ClusterDetections.
func (p *Pigo) convert(dets []pigo.Detection) []Detection {
	var out []Detection

	for _, det := range dets {
		if det.Q < p.params.QualityThreshold {
			continue
		}

		// Scale is the window diameter
		half := float32(det.Scale) / 2
		cx, cy := float32(det.Col), float32(det.Row)

		out = append(out, Detection{
			Box:   BoundingBox{X1: cx - half, Y1: cy - half, X2: cx + half, Y2: cy + half},
			Score: det.Q,
		})
	}

	slices.SortStableFunc(out, byScore)
	return out
}
