package pose

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ErrTooFewPoints is returned when a solve has fewer than 4 correspondences
var ErrTooFewPoints = errors.New("pose: need at least 4 point correspondences")

// Solver recovers a camera pose from 3D-2D correspondences
type Solver interface {
	Solve(model []r3.Vector, image []mgl32.Vec2, cam Camera, guess *Estimate) (Estimate, error)
}

// Estimate is a solved rotation and translation
type Estimate struct {
	Rotation    r3.Vector
	Translation r3.Vector
}

// LMSolver minimizes reprojection error with Levenberg-Marquardt over the
// six pose parameters
type LMSolver struct {
	MaxIterations int
	Tolerance     float64
}

// NewLMSolver creates a solver with default settings
func NewLMSolver() *LMSolver {
	return &LMSolver{
		MaxIterations: 100,
		Tolerance:     1e-10,
	}
}

// Solve finds the pose minimizing squared reprojection error. When guess
// is non-nil it seeds the iteration; otherwise a frontal pose is derived
// from the point spread.
func (s *LMSolver) Solve(model []r3.Vector, image []mgl32.Vec2, cam Camera, guess *Estimate) (Estimate, error) {
	if len(model) < 4 || len(model) != len(image) {
		return Estimate{}, ErrTooFewPoints
	}

	var params [6]float64
	if guess != nil {
		params = toParams(*guess)
	} else {
		params = toParams(initialGuess(model, image, cam))
	}

	n := len(model)
	res := make([]float64, 2*n)
	cost := residuals(model, image, cam, params, res)

	lambda := 1e-3
	jac := mat.NewDense(2*n, 6, nil)
	trial := make([]float64, 2*n)

	for iter := 0; iter < s.MaxIterations; iter++ {
		jacobian(model, image, cam, params, res, jac)

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		var g mat.VecDense
		g.MulVec(jac.T(), mat.NewVecDense(2*n, res))

		improved := false
		for attempt := 0; attempt < 10; attempt++ {
			a := mat.DenseCopyOf(&jtj)
			for i := 0; i < 6; i++ {
				a.Set(i, i, a.At(i, i)*(1+lambda)+1e-12)
			}
			b := mat.NewVecDense(6, nil)
			b.ScaleVec(-1, &g)

			var delta mat.VecDense
			if err := delta.SolveVec(a, b); err != nil {
				lambda *= 10
				continue
			}

			var next [6]float64
			step := 0.0
			for i := range next {
				next[i] = params[i] + delta.AtVec(i)
				step += delta.AtVec(i) * delta.AtVec(i)
			}

			nextCost := residuals(model, image, cam, next, trial)
			if nextCost < cost {
				params = next
				copy(res, trial)
				done := cost-nextCost < s.Tolerance*(1+cost) || step < s.Tolerance
				cost = nextCost
				lambda = math.Max(lambda/10, 1e-12)
				improved = true
				if done {
					return fromParams(params), nil
				}
				break
			}
			lambda *= 10
		}
		if !improved {
			break
		}
	}

	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return Estimate{}, fmt.Errorf("pose: solve diverged")
	}
	return fromParams(params), nil
}

func toParams(e Estimate) [6]float64 {
	return [6]float64{
		e.Rotation.X, e.Rotation.Y, e.Rotation.Z,
		e.Translation.X, e.Translation.Y, e.Translation.Z,
	}
}

func fromParams(p [6]float64) Estimate {
	return Estimate{
		Rotation:    r3.Vector{X: p[0], Y: p[1], Z: p[2]},
		Translation: r3.Vector{X: p[3], Y: p[4], Z: p[5]},
	}
}

// residuals fills res with projected-minus-observed coordinates and
// returns the summed squared error
func residuals(model []r3.Vector, image []mgl32.Vec2, cam Camera, p [6]float64, res []float64) float64 {
	e := fromParams(p)
	cost := 0.0
	for i, m := range model {
		x, y, ok := cam.ProjectPoint(m, e.Rotation, e.Translation)
		if !ok {
			// behind the camera: push hard toward positive depth
			x, y = cam.CX+1e6, cam.CY+1e6
		}
		res[2*i] = x - float64(image[i][0])
		res[2*i+1] = y - float64(image[i][1])
		cost += res[2*i]*res[2*i] + res[2*i+1]*res[2*i+1]
	}
	return cost
}

// jacobian fills jac with forward-difference derivatives of the residuals
func jacobian(model []r3.Vector, image []mgl32.Vec2, cam Camera, p [6]float64, res []float64, jac *mat.Dense) {
	shifted := make([]float64, len(res))
	for j := 0; j < 6; j++ {
		h := 1e-6 * math.Max(1, math.Abs(p[j]))
		q := p
		q[j] += h
		residuals(model, image, cam, q, shifted)
		for i := range res {
			jac.Set(i, j, (shifted[i]-res[i])/h)
		}
	}
}

// initialGuess assumes a frontal face and recovers depth from the ratio of
// model and image spreads
func initialGuess(model []r3.Vector, image []mgl32.Vec2, cam Camera) Estimate {
	var mc r3.Vector
	var ic [2]float64
	for i := range model {
		mc = mc.Add(model[i])
		ic[0] += float64(image[i][0])
		ic[1] += float64(image[i][1])
	}
	n := float64(len(model))
	mc = mc.Mul(1 / n)
	ic[0] /= n
	ic[1] /= n

	var ms, is float64
	for i := range model {
		ms += math.Hypot(model[i].X-mc.X, model[i].Y-mc.Y)
		is += math.Hypot(float64(image[i][0])-ic[0], float64(image[i][1])-ic[1])
	}

	z := cam.Focal
	if is > 1e-9 {
		z = cam.Focal * ms / is
	}
	return Estimate{
		Translation: r3.Vector{
			X: (ic[0]-cam.CX)*z/cam.Focal - mc.X,
			Y: (ic[1]-cam.CY)*z/cam.Focal - mc.Y,
			Z: z - mc.Z,
		},
	}
}
