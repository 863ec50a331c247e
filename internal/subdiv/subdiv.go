/*
Package subdiv provides an incremental planar Delaunay triangulation over a
bounded rectangle.

The triangulation starts from four implicit bounding vertices (ids 0 to 3)
placed well outside the rectangle, so every inserted point falls inside an
existing triangle. Points are inserted with the Bowyer-Watson cavity
algorithm. The containing triangle is found by walking from the most
recently created triangle across directed-edge adjacency, which is kept up
to date as triangles are replaced.
*/
package subdiv

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NumBoundingVertices is the number of implicit vertices created by New
const NumBoundingVertices = 4

// MergeDistance is the distance under which an inserted point is merged
// with an existing vertex
const MergeDistance = 1e-3

var (
	// ErrOutOfBounds is returned for points outside [0,w) x [0,h)
	ErrOutOfBounds = errors.New("subdiv: point out of bounds")
	// ErrDegenerate is returned when the insertion cavity is not
	// star-shaped around the new point. The triangulation is unchanged.
	ErrDegenerate = errors.New("subdiv: degenerate insertion")
)

type triangle [3]int

type edge struct{ a, b int }

// cell is a one pixel bucket of the merge grid
type cell struct{ x, y int32 }

// Subdiv is a Delaunay triangulation of the points inserted so far
type Subdiv struct {
	width, height float32
	verts         []mgl32.Vec2

	tris []triangle
	dead []bool
	free []int
	// owner maps each directed edge to the triangle it bounds
	owner map[edge]int
	grid  map[cell][]int
	last  int
}

// New returns an empty triangulation accepting points in [0,w) x [0,h)
func New(w, h int) *Subdiv {
	m := 3 * float32(max(w, h, 1))
	fw, fh := float32(w), float32(h)
	s := &Subdiv{
		width:  fw,
		height: fh,
		verts: []mgl32.Vec2{
			{-m, -m},
			{fw + m, -m},
			{fw + m, fh + m},
			{-m, fh + m},
		},
		owner: make(map[edge]int),
		grid:  make(map[cell][]int),
	}
	// counter-clockwise in a y-up frame
	s.addTriangle(triangle{0, 1, 2})
	s.addTriangle(triangle{0, 2, 3})
	return s
}

// NumVertices returns the vertex count including the bounding vertices
func (s *Subdiv) NumVertices() int {
	return len(s.verts)
}

// Vertex returns the position of vertex id
func (s *Subdiv) Vertex(id int) mgl32.Vec2 {
	return s.verts[id]
}

// Insert adds p and returns its vertex id. A point within MergeDistance of
// an existing vertex returns that vertex's id without changing the mesh.
func (s *Subdiv) Insert(p mgl32.Vec2) (int, error) {
	if !s.contains(p) {
		return -1, ErrOutOfBounds
	}
	if id, ok := s.nearby(p); ok {
		return id, nil
	}

	seed := s.locate(p)
	if seed < 0 {
		return -1, ErrOutOfBounds
	}

	// grow the cavity from the containing triangle through neighbors whose
	// circumcircle holds p
	bad := map[int]bool{seed: true}
	order := []int{seed}
	for stack := []int{seed}; len(stack) > 0; {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t := s.tris[i]
		for k := 0; k < 3; k++ {
			n, ok := s.owner[edge{t[(k+1)%3], t[k]}]
			if !ok || bad[n] {
				continue
			}
			if s.inCircumcircle(s.tris[n], p) {
				bad[n] = true
				order = append(order, n)
				stack = append(stack, n)
			}
		}
	}

	var boundary []edge
	for _, i := range order {
		t := s.tris[i]
		for k := 0; k < 3; k++ {
			e := edge{t[k], t[(k+1)%3]}
			if n, ok := s.owner[edge{e.b, e.a}]; ok && bad[n] {
				continue
			}
			if orient(s.verts[e.a], s.verts[e.b], p) <= 0 {
				return -1, ErrDegenerate
			}
			boundary = append(boundary, e)
		}
	}

	id := len(s.verts)
	s.verts = append(s.verts, p)
	k := cellOf(p)
	s.grid[k] = append(s.grid[k], id)

	for _, i := range order {
		s.removeTriangle(i)
	}
	for _, e := range boundary {
		s.addTriangle(triangle{e.a, e.b, id})
	}
	return id, nil
}

// TriangleIndexList returns every triangle as a triple of vertex ids,
// including triangles touching the bounding vertices
func (s *Subdiv) TriangleIndexList() [][3]int {
	out := make([][3]int, 0, len(s.tris)-len(s.free))
	for i, t := range s.tris {
		if !s.dead[i] {
			out = append(out, [3]int(t))
		}
	}
	return out
}

func (s *Subdiv) addTriangle(t triangle) {
	var i int
	if n := len(s.free); n > 0 {
		i = s.free[n-1]
		s.free = s.free[:n-1]
		s.tris[i] = t
		s.dead[i] = false
	} else {
		i = len(s.tris)
		s.tris = append(s.tris, t)
		s.dead = append(s.dead, false)
	}
	for k := 0; k < 3; k++ {
		s.owner[edge{t[k], t[(k+1)%3]}] = i
	}
	s.last = i
}

func (s *Subdiv) removeTriangle(i int) {
	t := s.tris[i]
	for k := 0; k < 3; k++ {
		e := edge{t[k], t[(k+1)%3]}
		if s.owner[e] == i {
			delete(s.owner, e)
		}
	}
	s.dead[i] = true
	s.free = append(s.free, i)
}

func (s *Subdiv) contains(p mgl32.Vec2) bool {
	if isNaN(p[0]) || isNaN(p[1]) {
		return false
	}
	return p[0] >= 0 && p[1] >= 0 && p[0] < s.width && p[1] < s.height
}

// nearby returns an inserted vertex within MergeDistance of p
func (s *Subdiv) nearby(p mgl32.Vec2) (int, bool) {
	c := cellOf(p)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for _, id := range s.grid[cell{c.x + dx, c.y + dy}] {
				if s.verts[id].Sub(p).Len() < MergeDistance {
					return id, true
				}
			}
		}
	}
	return -1, false
}

func cellOf(p mgl32.Vec2) cell {
	return cell{int32(p[0]), int32(p[1])}
}

// locate returns the index of a triangle containing p, edges included.
// It walks toward p from the last created triangle, stepping across the
// first edge that has p on its outer side.
func (s *Subdiv) locate(p mgl32.Vec2) int {
	i := s.last
	for steps := 0; steps <= len(s.tris); steps++ {
		t := s.tris[i]
		next := -1
		for k := 0; k < 3; k++ {
			a, b := t[k], t[(k+1)%3]
			if orient(s.verts[a], s.verts[b], p) < 0 {
				n, ok := s.owner[edge{b, a}]
				if !ok {
					return -1
				}
				next = n
				break
			}
		}
		if next < 0 {
			return i
		}
		i = next
	}
	return s.scan(p)
}

// scan is the linear fallback for locate
func (s *Subdiv) scan(p mgl32.Vec2) int {
	for i, t := range s.tris {
		if s.dead[i] {
			continue
		}
		a, b, c := s.verts[t[0]], s.verts[t[1]], s.verts[t[2]]
		if orient(a, b, p) >= 0 && orient(b, c, p) >= 0 && orient(c, a, p) >= 0 {
			return i
		}
	}
	return -1
}
func (s *Subdiv) inCircumcircle(t triangle, p mgl32.Vec2) bool {
	return inCircle(s.verts[t[0]], s.verts[t[1]], s.verts[t[2]], p) > 0
}

// orient is twice the signed area of abc, positive when counter-clockwise
func orient(a, b, c mgl32.Vec2) float64 {
	ax, ay := float64(a[0]), float64(a[1])
	return (float64(b[0])-ax)*(float64(c[1])-ay) - (float64(b[1])-ay)*(float64(c[0])-ax)
}

// inCircle is positive when d lies inside the circumcircle of the
// counter-clockwise triangle abc
func inCircle(a, b, c, d mgl32.Vec2) float64 {
	dx, dy := float64(d[0]), float64(d[1])
	adx, ady := float64(a[0])-dx, float64(a[1])-dy
	bdx, bdy := float64(b[0])-dx, float64(b[1])-dy
	cdx, cdy := float64(c[0])-dx, float64(c[1])-dy

	ad := adx*adx + ady*ady
	bd := bdx*bdx + bdy*bdy
	cd := cdx*cdx + cdy*cdy

	return ad*(bdx*cdy-cdx*bdy) - bd*(adx*cdy-cdx*ady) + cd*(adx*bdy-bdx*ady)
}

func isNaN(f float32) bool {
	return math.IsNaN(float64(f))
}
