// Package config loads the facemesh runtime configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dudu/facemesh/internal/pose"
	"github.com/dudu/facemesh/internal/tracking"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Detector backends
const (
	BackendPigo  = "pigo"
	BackendSCRFD = "scrfd"
)

// CaptureConfig selects the camera and the detection frame scale
type CaptureConfig struct {
	Device int `yaml:"device"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
	// DetectScale is the detection frame size relative to the capture frame.
	DetectScale float64 `yaml:"detect_scale"`
}

// DetectorConfig holds the face detector settings for both backends
type DetectorConfig struct {
	Backend string `yaml:"backend"`

	// pigo
	CascadePath      string  `yaml:"cascade_path"`
	MinSize          int     `yaml:"min_size"`
	MaxSize          int     `yaml:"max_size"`
	ShiftFactor      float64 `yaml:"shift_factor"`
	ScaleFactor      float64 `yaml:"scale_factor"`
	IoUThreshold     float64 `yaml:"iou_threshold"`
	QualityThreshold float32 `yaml:"quality_threshold"`

	// scrfd
	ModelPath     string  `yaml:"model_path"`
	InputSize     int     `yaml:"input_size"`
	ConfThreshold float32 `yaml:"conf_threshold"`
	NMSThreshold  float32 `yaml:"nms_threshold"`
}

// LandmarkConfig holds the 68-point landmark model settings
type LandmarkConfig struct {
	ModelPath string `yaml:"model_path"`
	InputSize int    `yaml:"input_size"`
}

// PoseConfig holds pose estimator settings
type PoseConfig struct {
	DepthLimit float64 `yaml:"depth_limit"`
}

// MeshConfig holds triangulation settings
type MeshConfig struct {
	BuildLines bool `yaml:"build_lines"`
}

// MorphConfig points at the morph delta file
type MorphConfig struct {
	Path string `yaml:"path"`
}

// Config is the full runtime configuration
type Config struct {
	ONNXRuntimeLib string          `yaml:"onnxruntime_lib"`
	Capture        CaptureConfig   `yaml:"capture"`
	Tracking       tracking.Config `yaml:"tracking"`
	Detector       DetectorConfig  `yaml:"detector"`
	Landmarks      LandmarkConfig  `yaml:"landmarks"`
	Pose           PoseConfig      `yaml:"pose"`
	Mesh           MeshConfig      `yaml:"mesh"`
	Morph          MorphConfig     `yaml:"morph"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Capture: CaptureConfig{
			Width:       1280,
			Height:      720,
			FPS:         30,
			DetectScale: 0.25,
		},
		Tracking: tracking.DefaultConfig(),
		Detector: DetectorConfig{
			Backend:          BackendPigo,
			CascadePath:      "models/facefinder",
			MinSize:          20,
			MaxSize:          1000,
			ShiftFactor:      0.1,
			ScaleFactor:      1.1,
			IoUThreshold:     0.2,
			QualityThreshold: 5.0,
			ModelPath:        "models/det_10g.onnx",
			InputSize:        640,
			ConfThreshold:    0.5,
			NMSThreshold:     0.4,
		},
		Landmarks: LandmarkConfig{
			ModelPath: "models/landmark68.onnx",
			InputSize: 112,
		},
		Pose: PoseConfig{DepthLimit: pose.DefaultDepthLimit},
		Mesh: MeshConfig{BuildLines: true},
	}
}

// Load reads a YAML file on top of Default and validates the result
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and required paths
func (c Config) Validate() error {
	if err := c.Tracking.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		return fmt.Errorf("%w: capture size %dx%d", ErrInvalid, c.Capture.Width, c.Capture.Height)
	}
	if c.Capture.DetectScale <= 0 || c.Capture.DetectScale > 1 {
		return fmt.Errorf("%w: detect_scale %.3f outside (0,1]", ErrInvalid, c.Capture.DetectScale)
	}
	if c.Pose.DepthLimit <= 0 {
		return fmt.Errorf("%w: pose depth_limit must be positive", ErrInvalid)
	}
	if c.Landmarks.ModelPath == "" || c.Landmarks.InputSize <= 0 {
		return fmt.Errorf("%w: landmark model path and input size required", ErrInvalid)
	}

	d := c.Detector
	switch d.Backend {
	case BackendPigo:
		if d.CascadePath == "" {
			return fmt.Errorf("%w: pigo cascade_path required", ErrInvalid)
		}
		if d.MinSize <= 0 || d.MaxSize < d.MinSize {
			return fmt.Errorf("%w: pigo size range %d..%d", ErrInvalid, d.MinSize, d.MaxSize)
		}
		if d.ScaleFactor <= 1 || d.ShiftFactor <= 0 {
			return fmt.Errorf("%w: pigo scale_factor must exceed 1 and shift_factor be positive", ErrInvalid)
		}
	case BackendSCRFD:
		if d.ModelPath == "" || d.InputSize <= 0 {
			return fmt.Errorf("%w: scrfd model path and input size required", ErrInvalid)
		}
		if d.ConfThreshold < 0 || d.ConfThreshold > 1 || d.NMSThreshold < 0 || d.NMSThreshold > 1 {
			return fmt.Errorf("%w: scrfd thresholds must be in [0,1]", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown detector backend %q", ErrInvalid, d.Backend)
	}
	return nil
}

// DetectSize returns the detection frame size for the configured capture size
func (c Config) DetectSize() (int, int) {
	return c.Capture.ScaleSize(c.Capture.Width, c.Capture.Height)
}

// ScaleSize returns the detection frame size for a w x h capture
func (c CaptureConfig) ScaleSize(w, h int) (int, int) {
	sw := int(float64(w) * c.DetectScale)
	sh := int(float64(h) * c.DetectScale)
	return max(sw, 1), max(sh, 1)
}
