package detector

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// grayMat copies a grayscale image into a single channel Mat. Sub-images
// with a stride wider than their width are packed first.
func grayMat(img *image.Gray) (gocv.Mat, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return gocv.NewMat(), fmt.Errorf("empty image %v", b)
	}

	pix := img.Pix
	if img.Stride != w || len(pix) < w*h {
		pix = make([]byte, w*h)
		for y := 0; y < h; y++ {
			row := img.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*w:(y+1)*w], img.Pix[row:row+w])
		}
	} else {
		pix = pix[img.PixOffset(b.Min.X, b.Min.Y):][:w*h]
	}

	m, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap gray image: %w", err)
	}
	return m, nil
}
