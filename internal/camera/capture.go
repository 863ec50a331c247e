package camera

import (
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"github.com/dudu/facemesh/internal/graphics"
)

// Capture manages webcam capture
type Capture struct {
	webcam   *gocv.VideoCapture
	deviceID int
	fps      int
	width    int
	height   int
	mu       sync.Mutex
}

// NewCapture opens a camera device at the requested resolution and frame rate
func NewCapture(deviceID int, targetFPS int, width, height int) (*Capture, error) {
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", deviceID, err)
	}

	// Set camera properties
	webcam.Set(gocv.VideoCaptureFrameWidth, float64(width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(height))
	webcam.Set(gocv.VideoCaptureFPS, float64(targetFPS))

	// Get actual dimensions (camera may not support requested resolution)
	actualWidth := int(webcam.Get(gocv.VideoCaptureFrameWidth))
	actualHeight := int(webcam.Get(gocv.VideoCaptureFrameHeight))
	if actualWidth != width || actualHeight != height {
		log.Printf("[CAMERA] requested %dx%d, device %d delivers %dx%d", width, height, deviceID, actualWidth, actualHeight)
	}
	actualFPS := int(webcam.Get(gocv.VideoCaptureFPS))
	if actualFPS <= 0 {
		actualFPS = targetFPS
	}

	return &Capture{
		webcam:   webcam,
		deviceID: deviceID,
		fps:      actualFPS,
		width:    actualWidth,
		height:   actualHeight,
	}, nil
}

// Read captures a BGR frame into the provided Mat. The frame size is
// re-read from the Mat since devices may switch resolution mid-stream.
func (c *Capture) Read(frame *gocv.Mat) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return false
	}

	if !c.webcam.Read(frame) || frame.Empty() {
		return false
	}
	c.width, c.height = frame.Cols(), frame.Rows()
	return true
}

// Texture wraps a captured frame with its pixel layout
func (c *Capture) Texture(frame gocv.Mat) graphics.Texture {
	return graphics.Texture{Mat: frame, Type: graphics.ImageBGR}
}

// Width returns frame width
func (c *Capture) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

// Height returns frame height
func (c *Capture) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// FPS returns the frame rate reported by the device, or the requested one
// when the device does not report it
func (c *Capture) FPS() int {
	return c.fps
}

// Close releases the camera
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam != nil {
		err := c.webcam.Close()
		c.webcam = nil
		return err
	}
	return nil
}
