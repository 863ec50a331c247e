package detector

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/dudu/facemesh/internal/inference"
	"github.com/dudu/facemesh/internal/landmarks"
)

// cropExpand is how much larger than the face box the landmark crop is
const cropExpand = 1.5

// Landmark68 predicts the 68 facial landmarks inside a face box. The model
// takes a square RGB crop and outputs x,y pairs normalized to the crop.
type Landmark68 struct {
	session    *inference.Session
	inputSize  int
	outputSize int
}

// NewLandmark68 creates a landmark predictor. Input and output names are
// read from the model.
func NewLandmark68(modelPath string, inputSize int) (*Landmark68, error) {
	inputs, outputs, err := inference.ModelInfo(modelPath)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("landmark model %s has no inputs or outputs", modelPath)
	}

	session, err := inference.NewSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name})
	if err != nil {
		return nil, fmt.Errorf("failed to create landmark session: %w", err)
	}

	return &Landmark68{
		session:    session,
		inputSize:  inputSize,
		outputSize: 2 * landmarks.NumFacialLandmarks,
	}, nil
}

// Predict returns the 68 landmarks of the face in box, in frame pixels.
// gray is the single channel capture frame.
func (l *Landmark68) Predict(gray gocv.Mat, box image.Rectangle) ([]mgl32.Vec2, error) {
	if box.Empty() {
		return nil, fmt.Errorf("empty face box")
	}

	cx := float32(box.Min.X+box.Max.X) / 2
	cy := float32(box.Min.Y+box.Max.Y) / 2
	scale := float32(l.inputSize) / (float32(max(box.Dx(), box.Dy())) * cropExpand)

	M := l.transformMatrix(cx, cy, scale)
	aligned := gocv.NewMat()
	defer aligned.Close()
	gocv.WarpAffine(gray, &aligned, M, image.Pt(l.inputSize, l.inputSize))
	M.Close()

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(aligned, &rgb, gocv.ColorGrayToBGR)

	// [0,1] range, NCHW
	blob := gocv.BlobFromImage(rgb, 1.0/255.0, image.Pt(l.inputSize, l.inputSize),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	inputTensor, err := ort.NewTensor(
		ort.NewShape(1, 3, int64(l.inputSize), int64(l.inputSize)),
		bytesToFloat32(blob.ToBytes()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := inference.CreateEmptyTensor[float32]([]int64{1, int64(l.outputSize)})
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := l.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("landmark inference failed: %w", err)
	}

	return decodeLandmarks(outputTensor.GetData(), l.inputSize, cx, cy, scale)
}

// transformMatrix creates the crop transform: scale about the box center
// into the middle of the input
func (l *Landmark68) transformMatrix(cx, cy, scale float32) gocv.Mat {
	M := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	half := float64(l.inputSize) / 2

	M.SetDoubleAt(0, 0, float64(scale))
	M.SetDoubleAt(0, 1, 0)
	M.SetDoubleAt(0, 2, half-float64(cx*scale))
	M.SetDoubleAt(1, 0, 0)
	M.SetDoubleAt(1, 1, float64(scale))
	M.SetDoubleAt(1, 2, half-float64(cy*scale))

	return M
}

// Close releases predictor resources
func (l *Landmark68) Close() error {
	return l.session.Destroy()
}

// decodeLandmarks maps normalized model output back to frame pixels
func decodeLandmarks(output []float32, inputSize int, cx, cy, scale float32) ([]mgl32.Vec2, error) {
	n := landmarks.NumFacialLandmarks
	if len(output) < 2*n {
		return nil, fmt.Errorf("landmark output has %d values, want %d", len(output), 2*n)
	}

	half := float32(inputSize) / 2
	points := make([]mgl32.Vec2, n)
	for i := range points {
		x := output[i*2] * float32(inputSize)
		y := output[i*2+1] * float32(inputSize)
		points[i] = mgl32.Vec2{
			(x-half)/scale + cx,
			(y-half)/scale + cy,
		}
	}
	return points, nil
}
