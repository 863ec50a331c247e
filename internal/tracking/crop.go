package tracking

import "image"

// CropInfo is the sub-rectangle of the detection frame faces are searched in
type CropInfo struct {
	OffsetX, OffsetY int
	Width, Height    int
}

// Rect returns the crop in detection frame coordinates
func (c CropInfo) Rect() image.Rectangle {
	return image.Rect(c.OffsetX, c.OffsetY, c.OffsetX+c.Width, c.OffsetY+c.Height)
}

// ComputeCrop applies the crop fractions to a w x h detection frame. Width
// and height are fractions of the frame; x and y place the crop origin in
// [-1,1] across the frame, -1 being the left or top edge.
func ComputeCrop(w, h int, cfg CropConfig) CropInfo {
	ww := int(float64(w) * cfg.Width)
	hh := int(float64(h) * cfg.Height)
	x := int(float64(w/2)*cfg.X) + w/2
	y := int(float64(h/2)*cfg.Y) + h/2

	x = clamp(x, 0, max(w-1, 0))
	y = clamp(y, 0, max(h-1, 0))
	ww = clamp(ww, 1, max(w-x, 1))
	hh = clamp(hh, 1, max(h-y, 1))

	return CropInfo{OffsetX: x, OffsetY: y, Width: ww, Height: hh}
}

// cropView returns the crop of img re-based at the origin. Pixels are shared.
func cropView(img *image.Gray, c CropInfo) *image.Gray {
	r := c.Rect().Add(img.Rect.Min).Intersect(img.Rect)
	if r.Empty() {
		return &image.Gray{}
	}
	return &image.Gray{
		Pix:    img.Pix[img.PixOffset(r.Min.X, r.Min.Y):],
		Stride: img.Stride,
		Rect:   image.Rect(0, 0, r.Dx(), r.Dy()),
	}
}

// toCapture maps a rectangle in crop coordinates to the capture frame
func toCapture(r image.Rectangle, c CropInfo, scale float64) image.Rectangle {
	return image.Rect(
		int(float64(r.Min.X+c.OffsetX)*scale),
		int(float64(r.Min.Y+c.OffsetY)*scale),
		int(float64(r.Max.X+c.OffsetX)*scale),
		int(float64(r.Max.Y+c.OffsetY)*scale),
	)
}

// toCrop maps a capture frame rectangle into crop coordinates
func toCrop(r image.Rectangle, c CropInfo, scale float64) image.Rectangle {
	return image.Rect(
		int(float64(r.Min.X)/scale)-c.OffsetX,
		int(float64(r.Min.Y)/scale)-c.OffsetY,
		int(float64(r.Max.X)/scale)-c.OffsetX,
		int(float64(r.Max.Y)/scale)-c.OffsetY,
	)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
