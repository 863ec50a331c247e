// Package tracking decides, frame by frame, whether to run face detection,
// update one tracked face, or reuse the tracked faces as they are.
package tracking

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"

	"github.com/dudu/facemesh/internal/face"
)

// Detector finds face rectangles in a grayscale image
type Detector interface {
	Detect(img *image.Gray) ([]image.Rectangle, error)
}

// Tracker follows one rectangle across frames. Update reports the new
// rectangle and a confidence in [0,1].
type Tracker interface {
	Start(img *image.Gray, r image.Rectangle) error
	Update(img *image.Gray) (image.Rectangle, float64, error)
}

// TrackerFactory creates a tracker for a newly detected face
type TrackerFactory func() Tracker

// CropConfig selects the detection sub-rectangle
type CropConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
}

// Config holds the scheduler frequencies, in frames
type Config struct {
	// DetectFrequency is the wait after all faces are lost
	DetectFrequency int `yaml:"detect_frequency"`
	// RecheckFrequency is the interval between detections while tracking
	RecheckFrequency int `yaml:"detect_recheck_frequency"`
	// TrackingFrequency is the wait between tracker updates
	TrackingFrequency int `yaml:"tracking_frequency"`
	// TrackingThreshold is the confidence below which tracking is lost
	TrackingThreshold float64    `yaml:"tracking_threshold"`
	MaxFaces          int        `yaml:"max_faces"`
	Crop              CropConfig `yaml:"crop"`
}

// DefaultConfig returns the stock scheduler settings
func DefaultConfig() Config {
	return Config{
		DetectFrequency:   5,
		RecheckFrequency:  20,
		TrackingFrequency: 2,
		TrackingThreshold: 0.45,
		MaxFaces:          face.MaxFaces,
		Crop:              CropConfig{Width: 1, Height: 1, X: -1, Y: -1},
	}
}

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid tracking config")

// Validate checks the ranges of every setting
func (c Config) Validate() error {
	switch {
	case c.DetectFrequency < 0, c.RecheckFrequency < 0, c.TrackingFrequency < 0:
		return fmt.Errorf("%w: frequencies must not be negative", ErrInvalidConfig)
	case c.TrackingThreshold < 0 || c.TrackingThreshold > 1:
		return fmt.Errorf("%w: tracking threshold %v outside [0,1]", ErrInvalidConfig, c.TrackingThreshold)
	case c.MaxFaces < 1 || c.MaxFaces > face.MaxFaces:
		return fmt.Errorf("%w: max faces %d outside [1,%d]", ErrInvalidConfig, c.MaxFaces, face.MaxFaces)
	case c.Crop.Width <= 0 || c.Crop.Width > 1 || c.Crop.Height <= 0 || c.Crop.Height > 1:
		return fmt.Errorf("%w: crop size must be in (0,1]", ErrInvalidConfig)
	case c.Crop.X < -1 || c.Crop.X > 1 || c.Crop.Y < -1 || c.Crop.Y > 1:
		return fmt.Errorf("%w: crop origin must be in [-1,1]", ErrInvalidConfig)
	}
	return nil
}

// FaceTrack is one tracked face
type FaceTrack struct {
	// Bounds is in capture frame coordinates
	Bounds     image.Rectangle
	Confidence float64
	tracker    Tracker
}

// Scheduler owns the tracked faces of one video source
type Scheduler struct {
	cfg        Config
	detector   Detector
	newTracker TrackerFactory

	faces []FaceTrack

	// countdowns, in frames
	timeout       int
	detectTimeout int
	trackTimeout  int

	trackIndex  int
	emptyFrames int

	detectSize image.Point
	captureW   int
	captureH   int
	crop       CropInfo
}

// NewScheduler creates a scheduler
func NewScheduler(cfg Config, detector Detector, newTracker TrackerFactory) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		detector:   detector,
		newTracker: newTracker,
	}
}

// ProcessFrame advances the scheduler by one frame. detect is the
// grayscale detection frame; captureW and captureH size the frame the
// returned boxes are expressed in.
func (s *Scheduler) ProcessFrame(detect *image.Gray, captureW, captureH int) []face.Result {
	size := detect.Bounds().Size()
	hadFaces := len(s.faces) > 0

	if size != s.detectSize || captureW != s.captureW || captureH != s.captureH {
		if hadFaces {
			log.Printf("[SCHEDULER] resolution changed to %dx%d, dropping %d faces", captureW, captureH, len(s.faces))
		}
		s.dropFaces()
		s.detectSize = size
		s.captureW, s.captureH = captureW, captureH
	}

	if s.timeout > 0 {
		s.timeout--
		return nil
	}

	s.crop = ComputeCrop(size.X, size.Y, s.cfg.Crop)
	img := cropView(detect, s.crop)
	scale := 1.0
	if size.X > 0 {
		scale = float64(captureW) / float64(size.X)
	}

	trackingFailed := false
	switch {
	case s.detectTimeout <= 0 || len(s.faces) == 0:
		s.detectFaces(img, scale)
		s.detectTimeout = s.cfg.RecheckFrequency
		s.startTracking(img, scale)

	case s.trackTimeout <= 0:
		s.detectTimeout--
		if s.updateTracking(img, scale) {
			s.trackIndex = (s.trackIndex + 1) % len(s.faces)
			s.trackTimeout = s.cfg.TrackingFrequency
		} else {
			// retry detection next frame without the post-loss wait
			s.trackIndex = 0
			s.timeout = 0
			trackingFailed = true
		}

	default:
		s.detectTimeout--
		s.trackTimeout--
	}

	if len(s.faces) == 0 && !trackingFailed {
		s.emptyFrames++
		if hadFaces || s.emptyFrames >= s.cfg.DetectFrequency {
			s.timeout = s.cfg.DetectFrequency
			s.emptyFrames = 0
		}
	} else {
		s.emptyFrames = 0
	}

	return s.results()
}

// Reset forgets every tracked face and forces detection on the next frame
func (s *Scheduler) Reset() {
	s.dropFaces()
	s.timeout = 0
	s.detectTimeout = 0
	s.trackTimeout = 0
	s.trackIndex = 0
	s.emptyFrames = 0
}

// Faces returns a copy of the tracked faces
func (s *Scheduler) Faces() []FaceTrack {
	return append([]FaceTrack(nil), s.faces...)
}

// Crop returns the crop used by the last processed frame
func (s *Scheduler) Crop() CropInfo {
	return s.crop
}

func (s *Scheduler) detectFaces(img *image.Gray, scale float64) {
	rects, err := s.detector.Detect(img)
	if err != nil {
		log.Printf("[SCHEDULER] detection failed: %v", err)
		rects = nil
	}

	// an empty detection while tracking is not trusted over the trackers
	if len(s.faces) > 0 && len(rects) == 0 {
		return
	}

	maxFaces := s.cfg.MaxFaces
	if maxFaces <= 0 || maxFaces > face.MaxFaces {
		maxFaces = face.MaxFaces
	}
	if len(rects) > maxFaces {
		rects = rects[:maxFaces]
	}

	s.dropFaces()
	for _, r := range rects {
		s.faces = append(s.faces, FaceTrack{
			Bounds:     toCapture(r, s.crop, scale),
			Confidence: 1,
		})
	}
	if s.trackIndex >= len(s.faces) {
		s.trackIndex = 0
	}
}

func (s *Scheduler) startTracking(img *image.Gray, scale float64) {
	kept := s.faces[:0]
	for _, f := range s.faces {
		if f.tracker == nil {
			f.tracker = s.newTracker()
		}
		if err := f.tracker.Start(img, toCrop(f.Bounds, s.crop, scale)); err != nil {
			log.Printf("[SCHEDULER] failed to start tracker at %v: %v", f.Bounds, err)
			closeTracker(f.tracker)
			continue
		}
		kept = append(kept, f)
	}
	s.faces = kept
	if s.trackIndex >= len(s.faces) {
		s.trackIndex = 0
	}
}

// updateTracking updates the face whose time slice this is and reports
// whether tracking still holds
func (s *Scheduler) updateTracking(img *image.Gray, scale float64) bool {
	if s.trackIndex >= len(s.faces) {
		s.trackIndex = 0
	}
	f := &s.faces[s.trackIndex]

	r, confidence, err := f.tracker.Update(img)
	if err != nil {
		log.Printf("[SCHEDULER] tracker update failed: %v", err)
		confidence = 0
	}
	f.Confidence = confidence
	if confidence < s.cfg.TrackingThreshold {
		log.Printf("[SCHEDULER] tracking lost (confidence %.2f)", confidence)
		s.dropFaces()
		return false
	}
	f.Bounds = toCapture(r, s.crop, scale)
	return true
}

// dropFaces forgets every face, closing trackers that hold resources
func (s *Scheduler) dropFaces() {
	for _, f := range s.faces {
		closeTracker(f.tracker)
	}
	s.faces = s.faces[:0]
}

func closeTracker(t Tracker) {
	if c, ok := t.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("[SCHEDULER] failed to close tracker: %v", err)
		}
	}
}

func (s *Scheduler) results() []face.Result {
	if len(s.faces) == 0 {
		return nil
	}
	out := make([]face.Result, len(s.faces))
	for i, f := range s.faces {
		out[i] = face.Result{Bounds: f.Bounds}
	}
	return out
}
