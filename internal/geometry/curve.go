package geometry

import "github.com/go-gl/mathgl/mgl32"

// CatmullRomSmooth interpolates a Catmull-Rom spline through the points
// referenced by indices and appends the interpolated points to points.
// Each of the len(indices)-1 segments contributes steps-1 points; the
// segment endpoints are already in the set and are skipped. The first and
// last segments repeat their outer control point instead of extrapolating.
func CatmullRomSmooth(points []mgl32.Vec2, indices []int, steps int) []mgl32.Vec2 {
	if len(indices) < 3 || steps < 2 {
		return points
	}

	count := len(indices) - 1
	out := make([]mgl32.Vec2, 0, len(points)+count*(steps-1))
	out = append(out, points...)

	for i := 0; i < count; i++ {
		var i0, i1, i2, i3 int
		switch {
		case i == 0:
			// 0 0 1 2
			i0, i1, i2, i3 = indices[i], indices[i], indices[i+1], indices[i+2]
		case i == count-1:
			// n-2 n-1 n n
			i0, i1, i2, i3 = indices[i-1], indices[i], indices[i+1], indices[i+1]
		default:
			i0, i1, i2, i3 = indices[i-1], indices[i], indices[i+1], indices[i+2]
		}

		p0, p1, p2, p3 := points[i0], points[i1], points[i2], points[i3]

		// Integer stepping keeps the point count exact.
		for k := 1; k < steps; k++ {
			t := float32(k) / float32(steps)
			out = append(out, catmullRom(p0, p1, p2, p3, t))
		}
	}

	return out
}

// catmullRom evaluates a uniform Catmull-Rom segment between p1 and p2
func catmullRom(p0, p1, p2, p3 mgl32.Vec2, t float32) mgl32.Vec2 {
	t2 := t * t
	t3 := t2 * t

	x := 0.5 * ((2 * p1[0]) +
		(p2[0]-p0[0])*t +
		(2*p0[0]-5*p1[0]+4*p2[0]-p3[0])*t2 +
		(3*p1[0]-p0[0]-3*p2[0]+p3[0])*t3)

	y := 0.5 * ((2 * p1[1]) +
		(p2[1]-p0[1])*t +
		(2*p0[1]-5*p1[1]+4*p2[1]-p3[1])*t2 +
		(3*p1[1]-p0[1]-3*p2[1]+p3[1])*t3)

	return mgl32.Vec2{x, y}
}

// NumSmoothPoints returns how many points CatmullRomSmooth appends for a
// chain of n control points
func NumSmoothPoints(n, steps int) int {
	if n < 3 || steps < 2 {
		return 0
	}
	return (n - 1) * (steps - 1)
}
