/*
Package mesh builds the deformable triangle mesh of a tracked face.

Every frame the facial landmarks are extended with projected head points,
spline smoothing points, an image border and an expanded hull ring. The
points are Delaunay triangulated and the triangles are sorted into face,
hull, background and wireframe index buffers. Vertex positions carry the
morphed points while texture coordinates carry the captured ones, so a
renderer drawing the buffers warps the face.
*/
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/dudu/facemesh/internal/face"
	"github.com/dudu/facemesh/internal/geometry"
	"github.com/dudu/facemesh/internal/landmarks"
	"github.com/dudu/facemesh/internal/morph"
	"github.com/dudu/facemesh/internal/pose"
)

// DeadOnAngle is the rotation magnitude below which a face counts as
// looking straight at the camera
const DeadOnAngle = 0.1

// Vertex colors flag hull points for the renderer
const (
	ColorHull  uint32 = 0x00000000
	ColorSolid uint32 = 0xFFFFFFFF
)

// Vertex is a mesh vertex. Pos is in pixels, UV is normalized.
type Vertex struct {
	Pos   mgl32.Vec2
	UV    mgl32.Vec2
	Color uint32
}

// Result is the mesh of one frame
type Result struct {
	Vertices []Vertex
	// Indices holds triangle triples per bucket; BucketLines holds pairs
	Indices    [NumBuckets][]uint32
	BuildLines bool
}

// Empty reports whether there is nothing to render
func (r *Result) Empty() bool {
	return r == nil || len(r.Vertices) == 0
}

// NumTriangles returns the triangle count of a triangle bucket
func (r *Result) NumTriangles(b Bucket) int {
	return len(r.Indices[b]) / 3
}

// Options configures an Engine
type Options struct {
	// BuildLines fills the wireframe bucket
	BuildLines bool
	// Triangulator overrides the Delaunay backend
	Triangulator TriangulatorFactory
}

// Engine builds meshes for one video source
type Engine struct {
	opts    Options
	cameras pose.CameraCache

	points []mgl32.Vec2
	warped []mgl32.Vec2
}

// NewEngine creates a mesh engine
func NewEngine(opts Options) *Engine {
	if opts.Triangulator == nil {
		opts.Triangulator = NewSubdiv
	}
	return &Engine{opts: opts}
}

// Points returns the original and warped point lists of the last build
func (e *Engine) Points() (points, warped []mgl32.Vec2) {
	return e.points, e.warped
}

// Build triangulates the first face of results. Invalid morph data, no
// faces or a face without landmarks or pose yield an empty result.
func (e *Engine) Build(md *morph.Data, results []face.Result, w, h int) (*Result, error) {
	e.points, e.warped = nil, nil
	out := &Result{BuildLines: e.opts.BuildLines}

	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", w, h)
	}
	if !md.IsValid() || len(results) == 0 {
		return out, nil
	}
	fc := &results[0]
	if !fc.HasLandmarks(landmarks.NumFacialLandmarks) || !fc.Pose.Valid() {
		return out, nil
	}

	lookup := VertexBitmasks()
	deadOn := fc.Pose.Angle() < DeadOnAngle
	width, height := float32(w), float32(h)
	cam := e.cameras.Get(w, h)

	points := make([]mgl32.Vec2, 0, len(lookup))
	points = append(points, fc.Landmarks[:landmarks.NumFacialLandmarks]...)
	points = append(points, headPoints(cam, fc.Pose)...)

	warped := make([]mgl32.Vec2, len(points), len(lookup))
	copy(warped, points)
	applyMorph(warped, md, cam, fc.Pose)

	for _, c := range landmarks.Contours() {
		points = geometry.CatmullRomSmooth(points, c.Indices, landmarks.SmoothingSteps)
		warped = geometry.CatmullRomSmooth(warped, c.Indices, landmarks.SmoothingSteps)
	}

	border := borderPoints(width, height)
	points = append(points, border...)
	warped = append(warped, border...)

	hull := hullPoints(points, warped)
	points = append(points, hull...)
	warped = append(warped, hull...)

	if len(points) != len(lookup) || len(warped) != len(lookup) {
		return nil, fmt.Errorf("mesh has %d points, %d warped and %d vertex bitmasks", len(points), len(warped), len(lookup))
	}
	e.points, e.warped = points, warped

	out.Vertices = make([]Vertex, len(points))
	hullBit := landmarks.MaskOf(landmarks.HullPoint)
	for i := range points {
		color := ColorSolid
		if lookup[i].Intersects(hullBit) {
			color = ColorHull
		}
		out.Vertices[i] = Vertex{
			Pos:   warped[i],
			UV:    mgl32.Vec2{points[i][0] / width, points[i][1] / height},
			Color: color,
		}
	}

	in := newInsertion(e.opts.Triangulator, w, h)
	insertMask := faceMask
	if deadOn {
		insertMask = insertMask.Or(linesMask)
	}
	smoothEnd := landmarks.SmoothRangeEnd()
	for i, p := range points {
		if (i >= smoothEnd || lookup[i].Intersects(insertMask)) && in.contains(p) {
			in.add(i, p)
		}
	}
	if !deadOn {
		addSelectivePoints(in, points, warped)
	}

	e.fillIndices(out, in.triangles(), lookup)
	return out, nil
}

// applyMorph offsets the morph landmarks of warped by the projected deltas.
// The deltas are projected at the face's depth but centered on the image.
func applyMorph(warped []mgl32.Vec2, md *morph.Data, cam pose.Camera, p face.Pose) {
	mask := md.Bitmask()
	if !mask.Any() {
		return
	}
	trans := p.Translation
	trans.X, trans.Y = 0, 0
	projected := cam.Project(md.Deltas(), p.Rotation, trans)
	center := mgl32.Vec2{float32(cam.CX), float32(cam.CY)}
	for i := 0; i < landmarks.NumMorphLandmarks; i++ {
		if mask.Has(landmarks.Landmark(i)) {
			warped[i] = warped[i].Add(projected[i].Sub(center))
		}
	}
}

func (e *Engine) fillIndices(out *Result, tris [][3]int, lookup []landmarks.Bitmask) {
	for b := range out.Indices {
		out.Indices[b] = make([]uint32, 0, len(tris)*3)
	}
	if !e.opts.BuildLines {
		out.Indices[BucketLines] = nil
	}

	for _, t := range tris {
		bucket, ok := classify(lookup[t[0]], lookup[t[1]], lookup[t[2]])
		if !ok {
			continue
		}
		i0, i1, i2 := uint32(t[0]), uint32(t[1]), uint32(t[2])
		if e.opts.BuildLines {
			out.Indices[BucketLines] = append(out.Indices[BucketLines], i0, i1, i1, i2, i2, i0)
		}
		out.Indices[bucket] = append(out.Indices[bucket], i0, i1, i2)
	}
}
