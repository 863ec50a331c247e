// Package pose recovers head rotation and translation from the stable
// subset of facial landmarks.
package pose

import (
	"errors"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/geo/r3"

	"github.com/dudu/facemesh/internal/face"
	"github.com/dudu/facemesh/internal/landmarks"
)

// ErrDepthOutOfRange means a solve put the face implausibly far from the
// camera. Every result of the frame is discarded.
var ErrDepthOutOfRange = errors.New("pose: depth out of range")

// DefaultDepthLimit bounds |tz| in model units (cm)
const DefaultDepthLimit = 1000

// referenceWidth scales the reprojection threshold with capture width
const referenceWidth = 1920.0

// Estimator solves and caches one pose per tracked face
type Estimator struct {
	solver     Solver
	cameras    CameraCache
	poses      []face.Pose
	model      []r3.Vector
	depthLimit float64
}

// NewEstimator creates an estimator. A nil solver selects LMSolver.
func NewEstimator(solver Solver, depthLimit float64) *Estimator {
	if solver == nil {
		solver = NewLMSolver()
	}
	if depthLimit <= 0 {
		depthLimit = DefaultDepthLimit
	}
	return &Estimator{
		solver:     solver,
		model:      landmarks.ModelPoints(landmarks.PoseLandmarks),
		depthLimit: depthLimit,
	}
}

// Threshold is the largest accepted reprojection error for a capture of
// the given width
func Threshold(width int) float64 {
	return 4 * float64(len(landmarks.PoseLandmarks)) * (float64(width) / referenceWidth)
}

// Estimate fills the Pose of every result. Poses are warm-started from the
// previous frame; a solve whose reprojection error is above Threshold keeps
// the previous pose instead. On ErrDepthOutOfRange the returned slice is nil.
func (e *Estimator) Estimate(results []face.Result, w, h int) ([]face.Result, error) {
	if len(e.poses) != len(results) {
		e.poses = make([]face.Pose, len(results))
	}
	if len(results) == 0 {
		return results, nil
	}

	cam := e.cameras.Get(w, h)
	threshold := Threshold(w)
	observed := make([]mgl32.Vec2, len(landmarks.PoseLandmarks))

	for i := range results {
		r := &results[i]
		if !r.HasLandmarks(landmarks.NumFacialLandmarks) {
			e.poses[i].Reset()
			r.Pose = e.poses[i]
			continue
		}
		for k, l := range landmarks.PoseLandmarks {
			observed[k] = r.Landmarks[l]
		}

		prev := e.poses[i]
		var guess *Estimate
		if prev.Valid() {
			guess = &Estimate{Rotation: prev.Rotation, Translation: prev.Translation}
		}

		est, err := e.solver.Solve(e.model, observed, cam, guess)
		if err != nil {
			log.Printf("[POSE] face %d: solve failed: %v", i, err)
			r.Pose = prev
			continue
		}

		if math.Abs(est.Translation.Z) > e.depthLimit {
			log.Printf("[POSE] face %d: depth %.1f exceeds %.1f, dropping frame", i, est.Translation.Z, e.depthLimit)
			e.Reset()
			return nil, ErrDepthOutOfRange
		}

		reproj := cam.ReprojectionError(e.model, observed, est.Rotation, est.Translation)
		if prev.Valid() && reproj > threshold {
			r.Pose = prev
			continue
		}

		e.poses[i] = face.NewPose(est.Rotation, est.Translation)
		r.Pose = e.poses[i]
	}
	return results, nil
}

// Reset forgets every cached pose
func (e *Estimator) Reset() {
	e.poses = e.poses[:0]
}

// Poses returns the cached poses, one per result of the last frame
func (e *Estimator) Poses() []face.Pose {
	return e.poses
}
