package geometry

import "github.com/go-gl/mathgl/mgl32"

// Subdivide inserts the midpoint of every edge of the closed polygon,
// doubling its point count. Point i of the input lands at index 2*i.
func Subdivide(points []mgl32.Vec2) []mgl32.Vec2 {
	n := len(points)
	if n < 2 {
		return points
	}

	out := make([]mgl32.Vec2, 0, n*2)
	for i := 0; i < n; i++ {
		next := points[(i+1)%n]
		out = append(out, points[i], points[i].Add(next).Mul(0.5))
	}
	return out
}

// SubdivideN applies Subdivide rounds times
func SubdivideN(points []mgl32.Vec2, rounds int) []mgl32.Vec2 {
	for i := 0; i < rounds; i++ {
		points = Subdivide(points)
	}
	return points
}

// Centroid returns the mean of the points selected by indices
func Centroid(points []mgl32.Vec2, indices []int) mgl32.Vec2 {
	var c mgl32.Vec2
	if len(indices) == 0 {
		return c
	}
	for _, idx := range indices {
		c = c.Add(points[idx])
	}
	return c.Mul(1 / float32(len(indices)))
}

// ScaleFrom scales every point away from center by factor, in place
func ScaleFrom(points []mgl32.Vec2, center mgl32.Vec2, factor float32) {
	for i, p := range points {
		points[i] = p.Sub(center).Mul(factor).Add(center)
	}
}

// RectCorners returns the 4 corners of the w x h image rectangle in
// clockwise order starting at the origin
func RectCorners(w, h float32) []mgl32.Vec2 {
	return []mgl32.Vec2{
		{0, 0},
		{w, 0},
		{w, h},
		{0, h},
	}
}

// SideOfLine returns the signed area term of p against the line lo->hi.
// Positive values lie to the right of the line in image coordinates.
func SideOfLine(p, lo, hi mgl32.Vec2) float32 {
	return (p[0]-lo[0])*(hi[1]-lo[1]) - (p[1]-lo[1])*(hi[0]-lo[0])
}
