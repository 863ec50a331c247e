package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
tracking:
  detect_frequency: 7
  tracking_threshold: 0.6
  crop:
    width: 0.5
detector:
  backend: scrfd
mesh:
  build_lines: false
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Tracking.DetectFrequency != 7 {
		t.Errorf("DetectFrequency = %d, want 7", cfg.Tracking.DetectFrequency)
	}
	if cfg.Tracking.TrackingThreshold != 0.6 {
		t.Errorf("TrackingThreshold = %v, want 0.6", cfg.Tracking.TrackingThreshold)
	}
	if cfg.Tracking.Crop.Width != 0.5 || cfg.Tracking.Crop.Height != 1 {
		t.Errorf("Crop = %+v, want width 0.5 and default height", cfg.Tracking.Crop)
	}
	// untouched keys keep their defaults
	if cfg.Tracking.RecheckFrequency != 20 || cfg.Tracking.TrackingFrequency != 2 {
		t.Errorf("frequencies = %d/%d, want defaults", cfg.Tracking.RecheckFrequency, cfg.Tracking.TrackingFrequency)
	}
	if cfg.Detector.Backend != BackendSCRFD {
		t.Errorf("Backend = %q", cfg.Detector.Backend)
	}
	if cfg.Mesh.BuildLines {
		t.Error("BuildLines should be false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative frequency", func(c *Config) { c.Tracking.DetectFrequency = -1 }},
		{"threshold above one", func(c *Config) { c.Tracking.TrackingThreshold = 1.5 }},
		{"too many faces", func(c *Config) { c.Tracking.MaxFaces = 9 }},
		{"zero capture", func(c *Config) { c.Capture.Width = 0 }},
		{"detect scale", func(c *Config) { c.Capture.DetectScale = 2 }},
		{"depth limit", func(c *Config) { c.Pose.DepthLimit = 0 }},
		{"no landmark model", func(c *Config) { c.Landmarks.ModelPath = "" }},
		{"unknown backend", func(c *Config) { c.Detector.Backend = "haar" }},
		{"pigo no cascade", func(c *Config) { c.Detector.CascadePath = "" }},
		{"pigo scale factor", func(c *Config) { c.Detector.ScaleFactor = 1 }},
		{"scrfd threshold", func(c *Config) {
			c.Detector.Backend = BackendSCRFD
			c.Detector.NMSThreshold = -0.1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facemesh.yaml")
	if err := os.WriteFile(path, []byte("capture:\n  device: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Capture.Device != 2 {
		t.Errorf("Device = %d, want 2", cfg.Capture.Device)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if err := os.WriteFile(path, []byte("tracking: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestDetectSize(t *testing.T) {
	cfg := Default()
	w, h := cfg.DetectSize()
	if w != 320 || h != 180 {
		t.Errorf("DetectSize = %dx%d, want 320x180", w, h)
	}
}

func TestScaleSize(t *testing.T) {
	tests := []struct {
		name         string
		scale        float64
		w, h         int
		wantW, wantH int
	}{
		{"quarter", 0.25, 1280, 720, 320, 180},
		{"full", 1, 640, 480, 640, 480},
		{"device delivered less", 0.25, 640, 480, 160, 120},
		{"never zero", 0.01, 50, 20, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CaptureConfig{DetectScale: tt.scale}
			w, h := c.ScaleSize(tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("ScaleSize(%d, %d) = %dx%d, want %dx%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
