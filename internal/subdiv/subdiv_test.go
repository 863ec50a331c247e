package subdiv

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewHasBoundingTriangles(t *testing.T) {
	s := New(640, 480)
	if got := s.NumVertices(); got != NumBoundingVertices {
		t.Fatalf("NumVertices() = %d, want %d", got, NumBoundingVertices)
	}
	if got := len(s.TriangleIndexList()); got != 2 {
		t.Errorf("len(TriangleIndexList()) = %d, want 2", got)
	}
}

func TestInsertBounds(t *testing.T) {
	tests := []struct {
		name    string
		p       mgl32.Vec2
		wantErr error
	}{
		{"origin", mgl32.Vec2{0, 0}, nil},
		{"interior", mgl32.Vec2{320, 240}, nil},
		{"last pixel", mgl32.Vec2{639.5, 479.5}, nil},
		{"right edge", mgl32.Vec2{640, 10}, ErrOutOfBounds},
		{"bottom edge", mgl32.Vec2{10, 480}, ErrOutOfBounds},
		{"negative", mgl32.Vec2{-1, 10}, ErrOutOfBounds},
		{"nan", mgl32.Vec2{float32(math.NaN()), 10}, ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(640, 480)
			_, err := s.Insert(tt.p)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Insert(%v) error = %v, want %v", tt.p, err, tt.wantErr)
			}
		})
	}
}

func TestInsertIDsAndMerge(t *testing.T) {
	s := New(100, 100)
	a, err := s.Insert(mgl32.Vec2{10, 10})
	if err != nil || a != NumBoundingVertices {
		t.Fatalf("first Insert() = %d, %v", a, err)
	}
	b, err := s.Insert(mgl32.Vec2{50, 60})
	if err != nil || b != NumBoundingVertices+1 {
		t.Fatalf("second Insert() = %d, %v", b, err)
	}
	dup, err := s.Insert(mgl32.Vec2{10.0001, 10})
	if err != nil || dup != a {
		t.Errorf("near-duplicate Insert() = %d, %v, want %d", dup, err, a)
	}
	if got := s.NumVertices(); got != NumBoundingVertices+2 {
		t.Errorf("NumVertices() = %d, want %d", got, NumBoundingVertices+2)
	}
}

func TestTriangleCount(t *testing.T) {
	// every point lies strictly inside the bounding quad, so a
	// triangulation of n vertices with 4 on the hull has 2n-6 triangles
	rng := rand.New(rand.NewSource(7))
	s := New(1280, 720)
	inserted := 0
	for i := 0; i < 200; i++ {
		p := mgl32.Vec2{rng.Float32() * 1279, rng.Float32() * 719}
		if _, err := s.Insert(p); err != nil {
			t.Fatalf("Insert(%v) error = %v", p, err)
		}
		inserted++
	}
	want := 2*(inserted+NumBoundingVertices) - 6
	if got := len(s.TriangleIndexList()); got != want {
		t.Errorf("len(TriangleIndexList()) = %d, want %d", got, want)
	}
}

func TestEmptyCircumcircle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := New(800, 600)
	for i := 0; i < 150; i++ {
		if _, err := s.Insert(mgl32.Vec2{rng.Float32() * 799, rng.Float32() * 599}); err != nil {
			t.Fatal(err)
		}
	}
	// a regular grid exercises cocircular configurations
	for x := 0; x < 800; x += 100 {
		for y := 0; y < 600; y += 100 {
			if _, err := s.Insert(mgl32.Vec2{float32(x), float32(y)}); err != nil {
				t.Fatal(err)
			}
		}
	}

	for _, tri := range s.TriangleIndexList() {
		a, b, c := s.Vertex(tri[0]), s.Vertex(tri[1]), s.Vertex(tri[2])
		if orient(a, b, c) <= 0 {
			t.Fatalf("triangle %v is not counter-clockwise", tri)
		}
		for id := NumBoundingVertices; id < s.NumVertices(); id++ {
			if id == tri[0] || id == tri[1] || id == tri[2] {
				continue
			}
			center, r := circumcircle(a, b, c)
			v := s.Vertex(id)
			if d := math.Hypot(float64(v[0])-center[0], float64(v[1])-center[1]); d < r-1e-3 {
				t.Errorf("vertex %d lies inside circumcircle of %v (%g < %g)", id, tri, d, r)
			}
		}
	}
}

func circumcircle(a, b, c mgl32.Vec2) ([2]float64, float64) {
	ax, ay := float64(a[0]), float64(a[1])
	bx, by := float64(b[0]), float64(b[1])
	cx, cy := float64(c[0]), float64(c[1])
	d := 2 * (ax*(by-cy) + bx*(cy-ay) + cx*(ay-by))
	ux := ((ax*ax+ay*ay)*(by-cy) + (bx*bx+by*by)*(cy-ay) + (cx*cx+cy*cy)*(ay-by)) / d
	uy := ((ax*ax+ay*ay)*(cx-bx) + (bx*bx+by*by)*(ax-cx) + (cx*cx+cy*cy)*(bx-ax)) / d
	return [2]float64{ux, uy}, math.Hypot(ax-ux, ay-uy)
}

func TestEveryVertexIsUsed(t *testing.T) {
	s := New(200, 200)
	points := []mgl32.Vec2{{20, 20}, {180, 20}, {180, 180}, {20, 180}, {100, 100}, {100, 20}}
	for _, p := range points {
		if _, err := s.Insert(p); err != nil {
			t.Fatal(err)
		}
	}
	used := make(map[int]bool)
	for _, tri := range s.TriangleIndexList() {
		for _, id := range tri {
			used[id] = true
		}
	}
	for id := 0; id < s.NumVertices(); id++ {
		if !used[id] {
			t.Errorf("vertex %d is not referenced by any triangle", id)
		}
	}
}

func TestDeterministic(t *testing.T) {
	build := func() [][3]int {
		s := New(320, 240)
		for x := 5; x < 320; x += 37 {
			for y := 3; y < 240; y += 29 {
				if _, err := s.Insert(mgl32.Vec2{float32(x), float32(y)}); err != nil {
					t.Fatal(err)
				}
			}
		}
		return s.TriangleIndexList()
	}
	a, b := build(), build()
	if len(a) != len(b) {
		t.Fatalf("triangle counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("triangle %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestAdjacencyTracksTriangles(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := New(640, 480)
	for i := 0; i < 500; i++ {
		if _, err := s.Insert(mgl32.Vec2{rng.Float32() * 639, rng.Float32() * 479}); err != nil {
			t.Fatal(err)
		}
	}

	tris := s.TriangleIndexList()
	if got, want := len(s.owner), 3*len(tris); got != want {
		t.Fatalf("len(owner) = %d, want %d", got, want)
	}
	for i, tri := range s.tris {
		if s.dead[i] {
			continue
		}
		for k := 0; k < 3; k++ {
			e := edge{tri[k], tri[(k+1)%3]}
			if got := s.owner[e]; got != i {
				t.Errorf("owner[%v] = %d, want %d", e, got, i)
			}
		}
	}
}

func TestLocate(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	s := New(1280, 720)
	for i := 0; i < 300; i++ {
		if _, err := s.Insert(mgl32.Vec2{rng.Float32() * 1279, rng.Float32() * 719}); err != nil {
			t.Fatal(err)
		}
	}
	tests := []struct {
		name string
		p    mgl32.Vec2
	}{
		{"origin", mgl32.Vec2{0, 0}},
		{"center", mgl32.Vec2{640, 360}},
		{"far corner", mgl32.Vec2{1279.5, 719.5}},
		{"on vertex", s.Vertex(NumBoundingVertices + 17)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := s.locate(tt.p)
			if i < 0 {
				t.Fatalf("locate(%v) = -1", tt.p)
			}
			tri := s.tris[i]
			a, b, c := s.verts[tri[0]], s.verts[tri[1]], s.verts[tri[2]]
			if orient(a, b, tt.p) < 0 || orient(b, c, tt.p) < 0 || orient(c, a, tt.p) < 0 {
				t.Errorf("locate(%v) = triangle %v which does not contain it", tt.p, tri)
			}
		})
	}
}

func BenchmarkInsert500(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	points := make([]mgl32.Vec2, 500)
	for i := range points {
		points[i] = mgl32.Vec2{rng.Float32() * 1279, rng.Float32() * 719}
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		s := New(1280, 720)
		for _, p := range points {
			if _, err := s.Insert(p); err != nil {
				b.Fatal(err)
			}
		}
	}
}
