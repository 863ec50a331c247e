// Package morph holds the per-landmark 3D displacement field a mesh is
// deformed by.
package morph

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"

	"github.com/dudu/facemesh/internal/landmarks"
)

// ErrBadLandmark is returned for a delta addressed past the morph landmarks
var ErrBadLandmark = errors.New("morph: landmark index out of range")

// Data is a set of 3D deltas in model units (cm), one per morph landmark,
// with a bitmask of the non-zero ones. The zero value is invalid.
type Data struct {
	deltas  [landmarks.NumMorphLandmarks]r3.Vector
	bitmask landmarks.Bitmask
	valid   bool
}

// New returns valid morph data with every delta zero
func New() *Data {
	return &Data{valid: true}
}

// IsValid reports whether d can drive a mesh build
func (d *Data) IsValid() bool {
	return d != nil && d.valid
}

// Set stores the delta for l and updates the non-zero bitmask
func (d *Data) Set(l landmarks.Landmark, delta r3.Vector) error {
	if l < 0 || int(l) >= landmarks.NumMorphLandmarks {
		return fmt.Errorf("%w: %d", ErrBadLandmark, l)
	}
	d.deltas[l] = delta
	if delta == (r3.Vector{}) {
		d.bitmask = d.bitmask.Without(l)
	} else {
		d.bitmask = d.bitmask.With(l)
	}
	return nil
}

// Delta returns the delta for l
func (d *Data) Delta(l landmarks.Landmark) r3.Vector {
	return d.deltas[l]
}

// Deltas returns every delta in landmark order
func (d *Data) Deltas() []r3.Vector {
	return append([]r3.Vector(nil), d.deltas[:]...)
}

// Bitmask has a bit for every landmark with a non-zero delta
func (d *Data) Bitmask() landmarks.Bitmask {
	return d.bitmask
}

// file is the on-disk layout: landmark index to [x, y, z] in cm
type file struct {
	Deltas map[int][3]float64 `yaml:"deltas"`
}

// Parse decodes morph data from YAML
func Parse(b []byte) (*Data, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse morph data: %w", err)
	}

	d := New()
	for idx, v := range f.Deltas {
		if err := d.Set(landmarks.Landmark(idx), r3.Vector{X: v[0], Y: v[1], Z: v[2]}); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Load reads morph data from a YAML file
func Load(path string) (*Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read morph file: %w", err)
	}
	return Parse(b)
}
