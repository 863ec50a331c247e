package landmarks

import "math/bits"

const bitmaskWords = (int(NumBits) + 63) / 64

// Bitmask is a set of landmark and membership bits. It is a value type;
// every operation returns a new mask.
type Bitmask [bitmaskWords]uint64

// MaskOf returns a mask with the given bits set
func MaskOf(ls ...Landmark) Bitmask {
	var b Bitmask
	for _, l := range ls {
		b = b.With(l)
	}
	return b
}

// With returns b with bit l set
func (b Bitmask) With(l Landmark) Bitmask {
	b[int(l)/64] |= 1 << (uint(l) % 64)
	return b
}

// Without returns b with bit l cleared
func (b Bitmask) Without(l Landmark) Bitmask {
	b[int(l)/64] &^= 1 << (uint(l) % 64)
	return b
}

// Has reports whether bit l is set
func (b Bitmask) Has(l Landmark) bool {
	return b[int(l)/64]&(1<<(uint(l)%64)) != 0
}

// Or returns the union of b and o
func (b Bitmask) Or(o Bitmask) Bitmask {
	for i := range b {
		b[i] |= o[i]
	}
	return b
}

// And returns the intersection of b and o
func (b Bitmask) And(o Bitmask) Bitmask {
	for i := range b {
		b[i] &= o[i]
	}
	return b
}

// Any reports whether any bit is set
func (b Bitmask) Any() bool {
	for _, w := range b {
		if w != 0 {
			return true
		}
	}
	return false
}

// Intersects reports whether b and o share a bit
func (b Bitmask) Intersects(o Bitmask) bool {
	return b.And(o).Any()
}

// Count returns the number of set bits
func (b Bitmask) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}
