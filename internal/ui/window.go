package ui

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"github.com/dudu/facemesh/internal/mesh"
)

var (
	fpsColor       = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	wireframeColor = color.RGBA{R: 0, G: 200, B: 255, A: 255}
	boxColor       = color.RGBA{R: 255, G: 64, B: 64, A: 255}
)

// Window manages the preview display
type Window struct {
	window     *gocv.Window
	name       string
	lastFrame  time.Time
	frameCount int
	fps        float64
}

// NewWindow creates a new preview window
func NewWindow(name string, width, height int) *Window {
	window := gocv.NewWindow(name)
	// Force window to appear on macOS
	window.ResizeWindow(width, height)
	window.MoveWindow(100, 100)
	return &Window{
		window:    window,
		name:      name,
		lastFrame: time.Now(),
	}
}

// Show displays a frame and updates FPS counter
func (w *Window) Show(frame *gocv.Mat) {
	w.frameCount++
	now := time.Now()

	elapsed := now.Sub(w.lastFrame)
	if elapsed >= time.Second {
		w.fps = float64(w.frameCount) / elapsed.Seconds()
		w.frameCount = 0
		w.lastFrame = now
	}

	fpsText := fmt.Sprintf("FPS: %.1f", w.fps)
	gocv.PutText(frame, fpsText, image.Pt(10, 30),
		gocv.FontHersheyPlain, 2, fpsColor, 2)

	w.window.IMShow(*frame)
}

// WaitKey waits for key press, returns key code or -1
func (w *Window) WaitKey(delayMs int) int {
	return w.window.WaitKey(delayMs)
}

// FPS returns current frames per second
func (w *Window) FPS() float64 {
	return w.fps
}

// Close closes the window
func (w *Window) Close() error {
	if w.window != nil {
		return w.window.Close()
	}
	return nil
}

// DrawWireframe draws the line bucket of m. Nothing is drawn when the
// mesh was built without lines.
func DrawWireframe(frame *gocv.Mat, m *mesh.Result) {
	if m.Empty() || !m.BuildLines {
		return
	}
	lines := m.Indices[mesh.BucketLines]
	for i := 0; i+1 < len(lines); i += 2 {
		a := m.Vertices[lines[i]].Pos
		b := m.Vertices[lines[i+1]].Pos
		gocv.Line(frame,
			image.Pt(int(a.X()), int(a.Y())),
			image.Pt(int(b.X()), int(b.Y())),
			wireframeColor, 1)
	}
}

// DrawBoxes outlines the tracked face rectangles
func DrawBoxes(frame *gocv.Mat, boxes []image.Rectangle) {
	for _, r := range boxes {
		gocv.Rectangle(frame, r, boxColor, 2)
	}
}

// DrawText writes a status line below the FPS counter
func DrawText(frame *gocv.Mat, text string) {
	gocv.PutText(frame, text, image.Pt(10, 60),
		gocv.FontHersheyPlain, 1.5, fpsColor, 2)
}
