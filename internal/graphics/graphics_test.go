package graphics

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestImageTypeChannels(t *testing.T) {
	tests := []struct {
		typ  ImageType
		want int
	}{
		{ImageBGR, 3},
		{ImageRGB, 3},
		{ImageRGBA, 4},
		{ImageGray, 1},
		{ImageUnknown, 0},
		{ImageType(42), 0},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if got := tt.typ.Channels(); got != tt.want {
				t.Errorf("Channels() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToGrayRejectsUnknownType(t *testing.T) {
	m := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	defer m.Close()

	_, err := ToGray(Texture{Mat: m, Type: ImageUnknown}, nil)
	if !errors.Is(err, ErrInvalidImageType) {
		t.Errorf("ToGray() error = %v, want ErrInvalidImageType", err)
	}

	_, err = ToGray(Texture{Mat: m, Type: ImageRGBA}, nil)
	if !errors.Is(err, ErrInvalidImageType) {
		t.Errorf("ToGray() with channel mismatch error = %v, want ErrInvalidImageType", err)
	}
}

func TestToGray(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 200, 200, 0), 6, 8, gocv.MatTypeCV8UC3)
	defer m.Close()

	gray, err := ToGray(Texture{Mat: m, Type: ImageBGR}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if gray.Bounds().Dx() != 8 || gray.Bounds().Dy() != 6 {
		t.Fatalf("bounds = %v, want 8x6", gray.Bounds())
	}
	if got := gray.GrayAt(3, 2).Y; got != 200 {
		t.Errorf("pixel = %d, want 200", got)
	}

	again, err := ToGray(Texture{Mat: m, Type: ImageBGR}, gray)
	if err != nil {
		t.Fatal(err)
	}
	if again != gray {
		t.Error("ToGray() did not reuse a destination of the right size")
	}
}

func TestStageReallocatesOnResize(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 40, 80, gocv.MatTypeCV8UC3)
	defer m.Close()
	tex := Texture{Mat: m, Type: ImageBGR}

	s := NewStage()
	defer s.Close()

	for _, size := range [][2]int{{20, 10}, {20, 10}, {40, 20}} {
		if err := s.Load(tex, size[0], size[1]); err != nil {
			t.Fatal(err)
		}
		if got := s.Texture().Size(); got.X != size[0] || got.Y != size[1] {
			t.Errorf("staged size = %v, want %v", got, size)
		}
	}
	if s.allocs != 2 {
		t.Errorf("allocations = %d, want 2", s.allocs)
	}

	if err := s.Load(tex, 0, 10); err == nil {
		t.Error("expected error for empty stage size")
	}
}

func TestContextDo(t *testing.T) {
	var c Context
	want := errors.New("boom")
	if err := c.Do(func() error { return want }); err != want {
		t.Errorf("Do() = %v, want %v", err, want)
	}
	// released after Do
	c.Enter()
	c.Leave()
}
