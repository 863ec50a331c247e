package morph

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/dudu/facemesh/internal/landmarks"
)

func TestValidity(t *testing.T) {
	var nilData *Data
	if nilData.IsValid() {
		t.Error("nil data should be invalid")
	}
	if (&Data{}).IsValid() {
		t.Error("zero value should be invalid")
	}
	if !New().IsValid() {
		t.Error("New() should be valid")
	}
}

func TestSetTracksBitmask(t *testing.T) {
	d := New()
	if err := d.Set(landmarks.Nose4, r3.Vector{X: 1}); err != nil {
		t.Fatal(err)
	}
	if err := d.Set(landmarks.Head6, r3.Vector{Y: -2}); err != nil {
		t.Fatal(err)
	}
	if got := d.Bitmask().Count(); got != 2 {
		t.Errorf("Bitmask().Count() = %d, want 2", got)
	}
	if err := d.Set(landmarks.Nose4, r3.Vector{}); err != nil {
		t.Fatal(err)
	}
	if d.Bitmask().Has(landmarks.Nose4) || !d.Bitmask().Has(landmarks.Head6) {
		t.Errorf("Bitmask() = %v after clearing Nose4", d.Bitmask())
	}
	if got := d.Delta(landmarks.Head6); got != (r3.Vector{Y: -2}) {
		t.Errorf("Delta(Head6) = %v", got)
	}
}

func TestSetRejectsSyntheticSlots(t *testing.T) {
	d := New()
	for _, l := range []landmarks.Landmark{-1, landmarks.BorderPoint, landmarks.HullPoint} {
		if err := d.Set(l, r3.Vector{X: 1}); !errors.Is(err, ErrBadLandmark) {
			t.Errorf("Set(%d) error = %v, want ErrBadLandmark", l, err)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[landmarks.Landmark]r3.Vector
		wantErr bool
	}{
		{
			name:  "empty",
			input: "deltas: {}\n",
			want:  map[landmarks.Landmark]r3.Vector{},
		},
		{
			name:  "two deltas",
			input: "deltas:\n  30: [0.5, 0, -1]\n  57: [0, 1.25, 0]\n",
			want: map[landmarks.Landmark]r3.Vector{
				landmarks.Nose4:        {X: 0.5, Z: -1},
				landmarks.MouthOuter10: {Y: 1.25},
			},
		},
		{
			name:    "index out of range",
			input:   "deltas:\n  79: [1, 0, 0]\n",
			wantErr: true,
		},
		{
			name:    "malformed",
			input:   "deltas: [1, 2\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := d.Bitmask().Count(); got != len(tt.want) {
				t.Errorf("non-zero deltas = %d, want %d", got, len(tt.want))
			}
			for l, v := range tt.want {
				if got := d.Delta(l); got != v {
					t.Errorf("Delta(%d) = %v, want %v", l, got, v)
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "morph.yaml")
	if err := os.WriteFile(path, []byte("deltas:\n  8: [0, 2, 0]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !d.Bitmask().Has(landmarks.Jaw9) {
		t.Error("Load() lost the Jaw9 delta")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}
