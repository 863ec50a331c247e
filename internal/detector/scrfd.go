package detector

import (
	"fmt"
	"image"
	"math"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/dudu/facemesh/internal/inference"
)

// SCRFD implements the SCRFD face detector
type SCRFD struct {
	session        *inference.Session
	inputSize      int
	confThreshold  float32
	nmsThreshold   float32
	featureStrides []int
	numAnchors     int
}

// NewSCRFD creates a new SCRFD detector
func NewSCRFD(modelPath string, inputSize int, confThreshold, nmsThreshold float32) (*SCRFD, error) {
	// Keypoint outputs are not requested; only boxes feed the tracker.
	inputNames := []string{"input.1"}
	outputNames := []string{
		"score_8", "score_16", "score_32",
		"bbox_8", "bbox_16", "bbox_32",
	}

	session, err := inference.NewSession(modelPath, inputNames, outputNames)
	if err != nil {
		return nil, fmt.Errorf("failed to create SCRFD session: %w", err)
	}

	return &SCRFD{
		session:        session,
		inputSize:      inputSize,
		confThreshold:  confThreshold,
		nmsThreshold:   nmsThreshold,
		featureStrides: []int{8, 16, 32},
		numAnchors:     2, // anchors per position
	}, nil
}

// Detect finds faces in a grayscale frame, best first
func (s *SCRFD) Detect(img *image.Gray) ([]image.Rectangle, error) {
	gray, err := grayMat(img)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(gray, &bgr, gocv.ColorGrayToBGR)

	dets, err := s.DetectMat(bgr)
	if err != nil {
		return nil, err
	}
	return rects(dets), nil
}

// DetectMat runs the detector on a BGR Mat
func (s *SCRFD) DetectMat(img gocv.Mat) ([]Detection, error) {
	origHeight := img.Rows()
	origWidth := img.Cols()

	inputBlob, scale := s.preprocess(img)
	defer inputBlob.Close()

	floatData := bytesToFloat32(inputBlob.ToBytes())

	inputTensor, err := ort.NewTensor(
		ort.NewShape(1, 3, int64(s.inputSize), int64(s.inputSize)),
		floatData,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	levels := len(s.featureStrides)
	outputs := make([]ort.Value, 0, 2*levels)
	outputTensors := make([]*ort.Tensor[float32], 0, 2*levels)
	defer func() {
		for _, t := range outputTensors {
			t.Destroy()
		}
	}()

	for _, width := range []int64{1, 4} {
		for _, stride := range s.featureStrides {
			fm := s.inputSize / stride
			numAnchors := int64(fm * fm * s.numAnchors)
			t, err := inference.CreateEmptyTensor[float32]([]int64{numAnchors, width})
			if err != nil {
				return nil, fmt.Errorf("failed to create output tensor: %w", err)
			}
			outputs = append(outputs, t)
			outputTensors = append(outputTensors, t)
		}
	}

	if err := s.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	scores := make([][]float32, levels)
	boxes := make([][]float32, levels)
	for i := 0; i < levels; i++ {
		scores[i] = outputTensors[i].GetData()
		boxes[i] = outputTensors[i+levels].GetData()
	}

	dets := s.decode(scores, boxes, scale, origWidth, origHeight)
	return nms(dets, s.nmsThreshold), nil
}

// preprocess resizes and normalizes the image
func (s *SCRFD) preprocess(img gocv.Mat) (gocv.Mat, float32) {
	height := img.Rows()
	width := img.Cols()

	scale := float32(s.inputSize) / float32(max(height, width))

	newWidth := int(float32(width) * scale)
	newHeight := int(float32(height) * scale)

	resized := gocv.NewMat()
	gocv.Resize(img, &resized, image.Pt(newWidth, newHeight), 0, 0, gocv.InterpolationLinear)

	// Letterbox into the top-left corner
	padded := gocv.NewMatWithSize(s.inputSize, s.inputSize, gocv.MatTypeCV8UC3)
	padded.SetTo(gocv.NewScalar(0, 0, 0, 0))

	roi := padded.Region(image.Rect(0, 0, newWidth, newHeight))
	resized.CopyTo(&roi)
	roi.Close()
	resized.Close()

	rgb := gocv.NewMat()
	gocv.CvtColor(padded, &rgb, gocv.ColorBGRToRGB)
	padded.Close()

	// (x - 127.5) / 128.0
	blob := gocv.NewMat()
	rgb.ConvertTo(&blob, gocv.MatTypeCV32FC3)
	rgb.Close()
	gocv.AddWeighted(blob, 1.0/128.0, blob, 0, -127.5/128.0, &blob)

	// HWC to NCHW
	blobNCHW := gocv.BlobFromImage(blob, 1.0, image.Pt(s.inputSize, s.inputSize),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	blob.Close()

	return blobNCHW, scale
}

// decode turns per-level anchor scores and distances into boxes in the
// original image
func (s *SCRFD) decode(scores, boxes [][]float32, scale float32, origWidth, origHeight int) []Detection {
	var dets []Detection

	for level, stride := range s.featureStrides {
		fm := s.inputSize / stride
		scoreData := scores[level]
		bboxData := boxes[level]

		anchorIdx := 0
		for y := 0; y < fm; y++ {
			for x := 0; x < fm; x++ {
				for a := 0; a < s.numAnchors; a++ {
					if anchorIdx >= len(scoreData) || anchorIdx*4+3 >= len(bboxData) {
						return dets
					}
					score := sigmoid(scoreData[anchorIdx])

					if score > s.confThreshold {
						cx := (float32(x) + 0.5) * float32(stride)
						cy := (float32(y) + 0.5) * float32(stride)

						// distances to the four edges
						i := anchorIdx * 4
						x1 := (cx - bboxData[i]*float32(stride)) / scale
						y1 := (cy - bboxData[i+1]*float32(stride)) / scale
						x2 := (cx + bboxData[i+2]*float32(stride)) / scale
						y2 := (cy + bboxData[i+3]*float32(stride)) / scale

						dets = append(dets, Detection{
							Box: BoundingBox{
								X1: clamp(x1, 0, float32(origWidth)),
								Y1: clamp(y1, 0, float32(origHeight)),
								X2: clamp(x2, 0, float32(origWidth)),
								Y2: clamp(y2, 0, float32(origHeight)),
							},
							Score: score,
						})
					}
					anchorIdx++
				}
			}
		}
	}

	return dets
}

// Close releases detector resources
func (s *SCRFD) Close() error {
	return s.session.Destroy()
}

func sigmoid(x float32) float32 {
	return 1.0 / (1.0 + float32(math.Exp(float64(-x))))
}

func clamp(x, lo, hi float32) float32 {
	return max(lo, min(x, hi))
}

func bytesToFloat32(data []byte) []float32 {
	result := make([]float32, len(data)/4)
	for i := range result {
		bits := uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
		result[i] = math.Float32frombits(bits)
	}
	return result
}
