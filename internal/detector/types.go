package detector

import "image"

// BoundingBox represents a face bounding box
type BoundingBox struct {
	X1, Y1 float32 // top-left
	X2, Y2 float32 // bottom-right
}

// Width returns box width
func (b BoundingBox) Width() float32 {
	return b.X2 - b.X1
}

// Height returns box height
func (b BoundingBox) Height() float32 {
	return b.Y2 - b.Y1
}

// Center returns box center
func (b BoundingBox) Center() (float32, float32) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Area returns box area
func (b BoundingBox) Area() float32 {
	return b.Width() * b.Height()
}

// Rect rounds the box to integer pixel coordinates
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(round(b.X1), round(b.Y1), round(b.X2), round(b.Y2))
}

// Detection is one scored face box
type Detection struct {
	Box   BoundingBox
	Score float32
}

// rects converts detections to rectangles, dropping empty boxes
func rects(dets []Detection) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(dets))
	for _, d := range dets {
		r := d.Box.Rect()
		if r.Empty() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func round(x float32) int {
	if x < 0 {
		return int(x - 0.5)
	}
	return int(x + 0.5)
}
