package pipeline

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"gocv.io/x/gocv"

	"github.com/dudu/facemesh/internal/tracking"
)

// FaceDetector interface for face detection on the detection frame
type FaceDetector interface {
	tracking.Detector
	Close() error
}

// LandmarkPredictor interface for 68-point landmark prediction on the
// grayscale capture frame
type LandmarkPredictor interface {
	Predict(gray gocv.Mat, box image.Rectangle) ([]mgl32.Vec2, error)
	Close() error
}
