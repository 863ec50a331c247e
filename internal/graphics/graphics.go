// Package graphics stages capture frames into CPU surfaces and converts
// them to grayscale for detection.
package graphics

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"gocv.io/x/gocv"
)

// ErrInvalidImageType is returned for textures whose layout cannot be
// converted to grayscale. It is not recoverable for the frame source.
var ErrInvalidImageType = errors.New("invalid image type")

// ImageType is the pixel layout of a texture
type ImageType int

const (
	ImageUnknown ImageType = iota
	ImageBGR
	ImageRGB
	ImageRGBA
	ImageGray
)

func (t ImageType) String() string {
	switch t {
	case ImageBGR:
		return "BGR"
	case ImageRGB:
		return "RGB"
	case ImageRGBA:
		return "RGBA"
	case ImageGray:
		return "GRAY"
	default:
		return fmt.Sprintf("ImageType(%d)", int(t))
	}
}

// Channels returns the number of 8-bit channels, or 0 for unknown layouts
func (t ImageType) Channels() int {
	switch t {
	case ImageBGR, ImageRGB:
		return 3
	case ImageRGBA:
		return 4
	case ImageGray:
		return 1
	default:
		return 0
	}
}

// grayCode returns the conversion to grayscale; ok is false for GRAY
func (t ImageType) grayCode() (code gocv.ColorConversionCode, ok bool, err error) {
	switch t {
	case ImageBGR:
		return gocv.ColorBGRToGray, true, nil
	case ImageRGB:
		return gocv.ColorRGBToGray, true, nil
	case ImageRGBA:
		return gocv.ColorRGBAToGray, true, nil
	case ImageGray:
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidImageType, t)
	}
}

// Context serializes access to frame surfaces shared with a renderer
type Context struct {
	mu sync.Mutex
}

// Enter acquires the context
func (c *Context) Enter() { c.mu.Lock() }

// Leave releases the context
func (c *Context) Leave() { c.mu.Unlock() }

// Do runs fn inside the context
func (c *Context) Do(fn func() error) error {
	c.Enter()
	defer c.Leave()
	return fn()
}

// Texture is a frame together with its declared pixel layout
type Texture struct {
	Mat  gocv.Mat
	Type ImageType
}

// Size returns the texture dimensions
func (t Texture) Size() image.Point {
	return image.Pt(t.Mat.Cols(), t.Mat.Rows())
}

// Validate checks that the layout is known and matches the Mat
func (t Texture) Validate() error {
	ch := t.Type.Channels()
	if ch == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidImageType, t.Type)
	}
	if t.Mat.Empty() {
		return errors.New("empty texture")
	}
	if t.Mat.Channels() != ch {
		return fmt.Errorf("%w: %v texture with %d channels", ErrInvalidImageType, t.Type, t.Mat.Channels())
	}
	return nil
}

// Stage is a CPU surface textures are copied into at a fixed size. The
// surface is reallocated only when the requested size or layout changes.
type Stage struct {
	mat    gocv.Mat
	size   image.Point
	typ    ImageType
	allocs int
}

// NewStage returns an empty stage
func NewStage() *Stage {
	return &Stage{mat: gocv.NewMat()}
}

// Load copies tex into the stage, resized to w x h
func (s *Stage) Load(tex Texture, w, h int) error {
	if err := tex.Validate(); err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid stage size %dx%d", w, h)
	}

	size := image.Pt(w, h)
	if size != s.size || tex.Type != s.typ {
		if s.allocs > 0 {
			log.Printf("[GRAPHICS] stage resized from %v to %v", s.size, size)
		}
		s.mat.Close()
		s.mat = gocv.NewMatWithSize(h, w, tex.Mat.Type())
		s.size = size
		s.typ = tex.Type
		s.allocs++
	}

	if tex.Size() == size {
		tex.Mat.CopyTo(&s.mat)
		return nil
	}
	gocv.Resize(tex.Mat, &s.mat, size, 0, 0, gocv.InterpolationArea)
	return nil
}

// Texture returns the staged surface
func (s *Stage) Texture() Texture {
	return Texture{Mat: s.mat, Type: s.typ}
}

// Close releases the surface
func (s *Stage) Close() error {
	s.size = image.Point{}
	return s.mat.Close()
}

// GrayMat converts tex into a single channel Mat
func GrayMat(tex Texture, dst *gocv.Mat) error {
	if err := tex.Validate(); err != nil {
		return err
	}
	code, convert, err := tex.Type.grayCode()
	if err != nil {
		return err
	}
	if !convert {
		tex.Mat.CopyTo(dst)
		return nil
	}
	gocv.CvtColor(tex.Mat, dst, code)
	return nil
}

// ToGray converts tex into a grayscale image, reusing dst when it already
// has the right size
func ToGray(tex Texture, dst *image.Gray) (*image.Gray, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	if err := GrayMat(tex, &gray); err != nil {
		return nil, err
	}

	w, h := gray.Cols(), gray.Rows()
	if dst == nil || dst.Rect != image.Rect(0, 0, w, h) || dst.Stride != w {
		dst = image.NewGray(image.Rect(0, 0, w, h))
	}

	data := gray.ToBytes()
	if len(data) != w*h {
		return nil, fmt.Errorf("gray surface has %d bytes, want %d", len(data), w*h)
	}
	copy(dst.Pix, data)
	return dst, nil
}
