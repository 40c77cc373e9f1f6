// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package bitvec defines a bit vector that allocates
// small integer identifiers, always handing out the
// lowest free one.
package bitvec

import "math/bits"

const nbit = 64

// V is a growable bit vector in which set bits are
// identifiers in use.
// The zero value is an empty vector ready to use.
type V struct {
	s []uint64
	n int
}

// Len returns the number of bits in the vector.
func (v *V) Len() int { return len(v.s) * nbit }

// Count returns the number of set bits.
func (v *V) Count() int { return v.n }

// Alloc sets the lowest unset bit and returns its index.
// The vector grows if every bit is set.
func (v *V) Alloc() int {
	for i, x := range v.s {
		if x == ^uint64(0) {
			continue
		}
		b := bits.TrailingZeros64(^x)
		v.s[i] |= 1 << b
		v.n++
		return i*nbit + b
	}
	i := len(v.s)
	v.s = append(v.s, make([]uint64, max(1, i))...)
	v.s[i] = 1
	v.n++
	return i * nbit
}

// Free unsets a given bit.
// It does nothing if index is out of range or the bit is
// already unset.
func (v *V) Free(index int) {
	if index < 0 || index >= v.Len() {
		return
	}
	i, b := index/nbit, uint64(1)<<(index%nbit)
	if v.s[i]&b != 0 {
		v.s[i] &^= b
		v.n--
	}
}

// IsSet checks whether a given bit is set.
func (v *V) IsSet(index int) bool {
	if index < 0 || index >= v.Len() {
		return false
	}
	return v.s[index/nbit]&(1<<(index%nbit)) != 0
}

// Reset unsets every bit and releases the storage.
func (v *V) Reset() { *v = V{} }
