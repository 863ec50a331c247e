// Package pipeline runs detection, tracking, landmark prediction, pose
// estimation and mesh building for one video source.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/dudu/facemesh/internal/config"
	"github.com/dudu/facemesh/internal/detector"
	"github.com/dudu/facemesh/internal/face"
	"github.com/dudu/facemesh/internal/graphics"
	"github.com/dudu/facemesh/internal/inference"
	"github.com/dudu/facemesh/internal/mesh"
	"github.com/dudu/facemesh/internal/morph"
	"github.com/dudu/facemesh/internal/pose"
	"github.com/dudu/facemesh/internal/tracking"
)

// Timing holds performance timing information
type Timing struct {
	Detection time.Duration
	Landmarks time.Duration
	Pose      time.Duration
	Mesh      time.Duration
	Total     time.Duration
}

// Components are the replaceable parts of a pipeline
type Components struct {
	Detector  FaceDetector
	Landmarks LandmarkPredictor
	// Tracker defaults to template matching
	Tracker tracking.TrackerFactory
	// Morph defaults to zero deltas
	Morph *morph.Data
}

// Pipeline turns frames into face meshes
type Pipeline struct {
	config    config.Config
	detector  FaceDetector
	landmarks LandmarkPredictor
	scheduler *tracking.Scheduler
	estimator *pose.Estimator
	engine    *mesh.Engine
	morph     *morph.Data

	ctx         *graphics.Context
	stage       *graphics.Stage
	detectGray  *image.Gray
	captureGray gocv.Mat

	results     []face.Result
	lastTiming  Timing
	ownsRuntime bool
}

// New creates a pipeline with the detector and landmark model named by cfg
func New(cfg config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := inference.Initialize(cfg.ONNXRuntimeLib); err != nil {
		return nil, fmt.Errorf("failed to initialize inference: %w", err)
	}

	det, err := newDetector(cfg.Detector)
	if err != nil {
		inference.Shutdown()
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}

	lm, err := detector.NewLandmark68(cfg.Landmarks.ModelPath, cfg.Landmarks.InputSize)
	if err != nil {
		det.Close()
		inference.Shutdown()
		return nil, fmt.Errorf("failed to create landmark predictor: %w", err)
	}

	p := NewWithComponents(cfg, Components{Detector: det, Landmarks: lm, Morph: loadMorph(cfg.Morph)})
	p.ownsRuntime = true
	return p, nil
}

// NewWithComponents assembles a pipeline from already created parts. The
// pipeline takes ownership of the detector and predictor.
func NewWithComponents(cfg config.Config, c Components) *Pipeline {
	if c.Tracker == nil {
		c.Tracker = func() tracking.Tracker { return detector.NewTemplateTracker() }
	}
	if c.Morph == nil {
		c.Morph = morph.New()
	}

	return &Pipeline{
		config:      cfg,
		detector:    c.Detector,
		landmarks:   c.Landmarks,
		scheduler:   tracking.NewScheduler(cfg.Tracking, c.Detector, c.Tracker),
		estimator:   pose.NewEstimator(nil, cfg.Pose.DepthLimit),
		engine:      mesh.NewEngine(mesh.Options{BuildLines: cfg.Mesh.BuildLines}),
		morph:       c.Morph,
		ctx:         &graphics.Context{},
		stage:       graphics.NewStage(),
		captureGray: gocv.NewMat(),
	}
}

// loadMorph reads the configured morph file. A file that cannot be loaded
// yields invalid data, so frames build an empty mesh.
func loadMorph(cfg config.MorphConfig) *morph.Data {
	if cfg.Path == "" {
		return morph.New()
	}
	md, err := morph.Load(cfg.Path)
	if err != nil {
		log.Printf("[PIPELINE] failed to load morph %s, nothing will render: %v", cfg.Path, err)
		return &morph.Data{}
	}
	return md
}

func newDetector(cfg config.DetectorConfig) (FaceDetector, error) {
	switch cfg.Backend {
	case config.BackendSCRFD:
		return detector.NewSCRFD(cfg.ModelPath, cfg.InputSize, cfg.ConfThreshold, cfg.NMSThreshold)
	case config.BackendPigo:
		return detector.NewPigo(cfg.CascadePath, detector.PigoParams{
			MinSize:          cfg.MinSize,
			MaxSize:          cfg.MaxSize,
			ShiftFactor:      cfg.ShiftFactor,
			ScaleFactor:      cfg.ScaleFactor,
			IoUThreshold:     cfg.IoUThreshold,
			QualityThreshold: cfg.QualityThreshold,
		})
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.Backend)
	}
}

// ProcessCapture stages a detection frame from capture at the configured
// detection scale and processes both
func (p *Pipeline) ProcessCapture(capture graphics.Texture) (*mesh.Result, error) {
	size := capture.Size()
	w, h := p.config.Capture.ScaleSize(size.X, size.Y)

	err := p.ctx.Do(func() error {
		return p.stage.Load(capture, w, h)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stage detection frame: %w", err)
	}
	return p.Process(p.stage.Texture(), capture)
}

// Process runs one frame. detect is the detection frame; capture is the
// full resolution frame the mesh is built for. An empty result with a nil
// error means there is nothing to render.
func (p *Pipeline) Process(detect, capture graphics.Texture) (*mesh.Result, error) {
	totalStart := time.Now()
	var timing Timing

	err := p.ctx.Do(func() error {
		var err error
		p.detectGray, err = graphics.ToGray(detect, p.detectGray)
		if err != nil {
			return err
		}
		return graphics.GrayMat(capture, &p.captureGray)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	size := capture.Size()

	detectStart := time.Now()
	results := p.scheduler.ProcessFrame(p.detectGray, size.X, size.Y)
	timing.Detection = time.Since(detectStart)

	landmarkStart := time.Now()
	for i := range results {
		pts, err := p.landmarks.Predict(p.captureGray, results[i].Bounds)
		if err != nil {
			log.Printf("[PIPELINE] landmark prediction failed for face %d: %v", i, err)
			continue
		}
		results[i].Landmarks = pts
	}
	timing.Landmarks = time.Since(landmarkStart)

	poseStart := time.Now()
	results, err = p.estimator.Estimate(results, size.X, size.Y)
	if errors.Is(err, pose.ErrDepthOutOfRange) {
		log.Printf("[PIPELINE] %v, dropping frame results", err)
		results = nil
	} else if err != nil {
		return nil, fmt.Errorf("pose estimation failed: %w", err)
	}
	timing.Pose = time.Since(poseStart)

	meshStart := time.Now()
	m, err := p.engine.Build(p.morph, results, size.X, size.Y)
	if err != nil {
		return nil, fmt.Errorf("mesh build failed: %w", err)
	}
	timing.Mesh = time.Since(meshStart)

	p.results = results
	timing.Total = time.Since(totalStart)
	p.lastTiming = timing

	return m, nil
}

// Results returns the face results of the last frame
func (p *Pipeline) Results() []face.Result {
	return append([]face.Result(nil), p.results...)
}

// ResetTracking drops every tracked face and pose
func (p *Pipeline) ResetTracking() {
	p.scheduler.Reset()
	p.estimator.Reset()
	p.results = nil
}

// Context returns the graphics context guarding frame surfaces. Renderers
// consuming a mesh should hold it while reading the frame.
func (p *Pipeline) Context() *graphics.Context {
	return p.ctx
}

// LastTiming returns timing from last Process call
func (p *Pipeline) LastTiming() Timing {
	return p.lastTiming
}

// Close releases pipeline resources
func (p *Pipeline) Close() error {
	var errs []error

	p.scheduler.Reset()
	if p.detector != nil {
		if err := p.detector.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.landmarks != nil {
		if err := p.landmarks.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.stage.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.captureGray.Close(); err != nil {
		errs = append(errs, err)
	}

	if p.ownsRuntime {
		if err := inference.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
