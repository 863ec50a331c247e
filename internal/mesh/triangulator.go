package mesh

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/dudu/facemesh/internal/subdiv"
)

// Triangulator is a bounded planar Delaunay triangulation. Ids below
// subdiv.NumBoundingVertices name implicit bounding vertices; Insert may
// return the id of an earlier vertex when points coincide.
type Triangulator interface {
	Insert(p mgl32.Vec2) (int, error)
	TriangleIndexList() [][3]int
}

// TriangulatorFactory creates a triangulator accepting points in
// [0,w) x [0,h)
type TriangulatorFactory func(w, h int) Triangulator

// NewSubdiv is the default TriangulatorFactory
func NewSubdiv(w, h int) Triangulator {
	return subdiv.New(w, h)
}

// insertion feeds frame points into a triangulator and maps backend ids
// back to point indices
type insertion struct {
	tri    Triangulator
	vtxMap map[int]int
	w, h   float32
}

func newInsertion(factory TriangulatorFactory, w, h int) *insertion {
	// one pixel of slack so border points on the far edges fit
	return &insertion{
		tri:    factory(w+1, h+1),
		vtxMap: make(map[int]int),
		w:      float32(w + 1),
		h:      float32(h + 1),
	}
}

func (in *insertion) contains(p mgl32.Vec2) bool {
	return p[0] >= 0 && p[1] >= 0 && p[0] < in.w && p[1] < in.h
}

// add inserts point i. Points the backend rejects are logged and skipped.
func (in *insertion) add(i int, p mgl32.Vec2) {
	id, err := in.tri.Insert(p)
	if err != nil {
		log.Printf("[MESH] skipped point %d at (%.2f, %.2f): %v", i, p[0], p[1], err)
		return
	}
	in.vtxMap[id] = i
}

// triangles returns the triangulation in point indices, without the
// triangles that touch a bounding vertex
func (in *insertion) triangles() [][3]int {
	list := in.tri.TriangleIndexList()
	out := make([][3]int, 0, len(list))
	for _, t := range list {
		if t[0] < subdiv.NumBoundingVertices || t[1] < subdiv.NumBoundingVertices || t[2] < subdiv.NumBoundingVertices {
			continue
		}
		var mapped [3]int
		ok := true
		for k, id := range t {
			mapped[k], ok = in.vtxMap[id]
			if !ok {
				break
			}
		}
		if ok {
			out = append(out, mapped)
		}
	}
	return out
}
