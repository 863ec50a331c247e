package main

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/dudu/facemesh/internal/camera"
	"github.com/dudu/facemesh/internal/config"
	"github.com/dudu/facemesh/internal/face"
	"github.com/dudu/facemesh/internal/graphics"
	"github.com/dudu/facemesh/internal/pipeline"
	"github.com/dudu/facemesh/internal/render"
	"github.com/dudu/facemesh/internal/ui"
)

type runOptions struct {
	camera    int
	width     int
	height    int
	fps       int
	backend   string
	morph     string
	preview   bool
	wireframe bool
	warp      bool
	blurSize  int
	boxes     bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Track faces from a camera and render the mesh",
	Example: `  facemesh run
  facemesh run --config facemesh.yaml --morph morphs/smile.yaml
  facemesh run --backend scrfd --wireframe=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return run(cmd, cfg)
	},
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runOpts.camera, "camera", 0, "Camera device index")
	f.IntVar(&runOpts.width, "width", 1280, "Capture width")
	f.IntVar(&runOpts.height, "height", 720, "Capture height")
	f.IntVar(&runOpts.fps, "fps", 30, "Target frames per second")
	f.StringVar(&runOpts.backend, "backend", config.BackendPigo, "Face detector: pigo or scrfd")
	f.StringVar(&runOpts.morph, "morph", "", "Morph delta file (YAML)")
	f.BoolVarP(&runOpts.preview, "preview", "p", true, "Show preview window")
	f.BoolVar(&runOpts.wireframe, "wireframe", true, "Draw the mesh wireframe")
	f.BoolVar(&runOpts.warp, "warp", true, "Warp the frame with the morphed mesh")
	f.IntVar(&runOpts.blurSize, "blur", 15, "Warp edge feathering kernel")
	f.BoolVar(&runOpts.boxes, "boxes", false, "Outline tracked faces")
	rootCmd.AddCommand(runCmd)
}

// applyFlags overrides file values with the flags set on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("camera") {
		cfg.Capture.Device = runOpts.camera
	}
	if f.Changed("width") {
		cfg.Capture.Width = runOpts.width
	}
	if f.Changed("height") {
		cfg.Capture.Height = runOpts.height
	}
	if f.Changed("fps") {
		cfg.Capture.FPS = runOpts.fps
	}
	if f.Changed("backend") {
		cfg.Detector.Backend = runOpts.backend
	}
	if f.Changed("morph") {
		cfg.Morph.Path = runOpts.morph
	}
	if f.Changed("wireframe") {
		cfg.Mesh.BuildLines = runOpts.wireframe
	}
}

func run(cmd *cobra.Command, cfg config.Config) error {
	fmt.Println("facemesh starting...")

	fmt.Printf("Loading models (detector: %s)...\n", cfg.Detector.Backend)
	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()
	fmt.Println("Models loaded successfully")

	fmt.Printf("Opening camera %d...\n", cfg.Capture.Device)
	cam, err := camera.NewCapture(cfg.Capture.Device, cfg.Capture.FPS, cfg.Capture.Width, cfg.Capture.Height)
	if err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}
	defer cam.Close()
	fmt.Printf("Camera opened: %dx%d @ %d fps\n", cam.Width(), cam.Height(), cam.FPS())
	dw, dh := cfg.Capture.ScaleSize(cam.Width(), cam.Height())
	fmt.Printf("Detection frame: %dx%d\n", dw, dh)

	var window *ui.Window
	if runOpts.preview {
		window = ui.NewWindow("facemesh", cam.Width(), cam.Height())
		defer window.Close()
	}

	var warper *render.Warper
	if runOpts.warp {
		warper = render.NewWarper(runOpts.blurSize)
	}

	frame := gocv.NewMat()
	defer frame.Close()
	output := gocv.NewMat()
	defer output.Close()

	fmt.Println("\nRunning... Press 'q' to quit, 'r' to reset tracking")

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nShutting down...")
			return nil
		default:
		}

		if !cam.Read(&frame) {
			continue
		}

		m, err := p.ProcessCapture(cam.Texture(frame))
		if errors.Is(err, graphics.ErrInvalidImageType) {
			return err
		}
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
		}

		err = p.Context().Do(func() error {
			defer ui.DrawWireframe(&output, m)
			if warper == nil {
				frame.CopyTo(&output)
				return nil
			}
			return warper.Apply(frame, &output, m)
		})
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
			frame.CopyTo(&output)
		}

		if runOpts.boxes {
			ui.DrawBoxes(&output, faceBoxes(p.Results()))
		}

		timing := p.LastTiming()
		if timing.Total > 0 {
			timingText := fmt.Sprintf("D:%.1fms L:%.1fms P:%.1fms M:%.1fms T:%.1fms",
				ms(timing.Detection), ms(timing.Landmarks), ms(timing.Pose),
				ms(timing.Mesh), ms(timing.Total))
			ui.DrawText(&output, timingText)
			fmt.Printf("\r%s  ", timingText)
		}

		if window != nil {
			window.Show(&output)
			// WaitKey must be called to process window events on macOS
			switch key := window.WaitKey(1); key {
			case 'q', 27: // 'q' or ESC
				fmt.Println("\nQuitting...")
				return nil
			case 'r':
				p.ResetTracking()
			}
		}
	}
}

// faceBoxes collects the capture-space bounds of tracked faces
func faceBoxes(results []face.Result) []image.Rectangle {
	boxes := make([]image.Rectangle, 0, len(results))
	for _, r := range results {
		boxes = append(boxes, r.Bounds)
	}
	return boxes
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
