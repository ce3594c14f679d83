// Package bitmath provides most/least significant bit queries over 256-bit
// bitmap words.
package bitmath

import (
	"errors"
	"math/bits"

	"github.com/holiman/uint256"
)

// ErrInputIsZero is returned when a function requires a non-zero input but
// receives zero.
var ErrInputIsZero = errors.New("input must be greater than zero")

// MostSignificantBit returns the index of the most significant set bit of x,
// where the least significant bit is at index 0.
//
// The result satisfies: x >= 2**msb(x) and x < 2**(msb(x)+1).
func MostSignificantBit(x *uint256.Int) (uint8, error) {
	if x.IsZero() {
		return 0, ErrInputIsZero
	}
	// BitLen of 8 (binary 1000) is 4; the MSB index is always BitLen-1.
	return uint8(x.BitLen() - 1), nil
}

// LeastSignificantBit returns the index of the least significant set bit of
// x, where the least significant bit is at index 0.
//
// The result satisfies: (x & 2**lsb(x)) != 0.
func LeastSignificantBit(x *uint256.Int) (uint8, error) {
	if x.IsZero() {
		return 0, ErrInputIsZero
	}
	for i, limb := range x {
		if limb != 0 {
			return uint8(i*64 + bits.TrailingZeros64(limb)), nil
		}
	}
	// Unreachable: x is non-zero.
	return 0, ErrInputIsZero
}
