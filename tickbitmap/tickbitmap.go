// Package tickbitmap maintains a compressed index of initialized ticks.
//
// Each usable tick (a multiple of the pool's tick spacing) maps to one bit in
// a 256-bit word; words are stored sparsely, keyed by the compressed tick's
// high bits. Swaps scan at most one word per query, which is what makes the
// tick walk amortized O(1) instead of a scan over all ticks.
package tickbitmap

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/defistate/defistate-pool-go/bitmath"
)

// ErrTickNotSpaced is returned when a tick is not a multiple of the pool's
// tick spacing.
var ErrTickNotSpaced = errors.New("tick not a multiple of tick spacing")

// Bitmap is a sparse map from word position to a 256-tick bitmap word.
// Absent words read as zero.
type Bitmap map[int16]*uint256.Int

// New returns an empty bitmap.
func New() Bitmap {
	return make(Bitmap)
}

// compress maps a tick to its bitmap bit index, rounding toward negative
// infinity so negative ticks land in the right word.
func compress(tick, tickSpacing int64) int64 {
	compressed := tick / tickSpacing
	if tick < 0 && tick%tickSpacing != 0 {
		compressed--
	}
	return compressed
}

func position(compressed int64) (wordPos int16, bitPos uint8) {
	return int16(compressed >> 8), uint8(compressed & 0xff)
}

// FlipTick toggles the initialized bit for the given tick. The tick must be
// a multiple of tickSpacing.
func (b Bitmap) FlipTick(tick, tickSpacing int64) error {
	if tick%tickSpacing != 0 {
		return ErrTickNotSpaced
	}
	wordPos, bitPos := position(tick / tickSpacing)

	word, ok := b[wordPos]
	if !ok {
		word = new(uint256.Int)
		b[wordPos] = word
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos))
	word.Xor(word, mask)
	if word.IsZero() {
		delete(b, wordPos)
	}
	return nil
}

// IsInitialized reports whether the bit for the given tick is set.
func (b Bitmap) IsInitialized(tick, tickSpacing int64) bool {
	if tick%tickSpacing != 0 {
		return false
	}
	wordPos, bitPos := position(tick / tickSpacing)
	word, ok := b[wordPos]
	if !ok {
		return false
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos))
	return !new(uint256.Int).And(word, mask).IsZero()
}

// NextInitializedTickWithinOneWord finds the next initialized tick within one
// bitmap word of the starting tick.
//
// If lte is true the search runs toward lower prices and includes the
// starting tick itself; otherwise it runs toward higher prices and excludes
// it. When no initialized tick exists in the scanned word, the returned tick
// is the word boundary and initialized is false, allowing the caller to
// resume the walk from there.
func (b Bitmap) NextInitializedTickWithinOneWord(tick, tickSpacing int64, lte bool) (next int64, initialized bool) {
	compressed := compress(tick, tickSpacing)

	if lte {
		wordPos, bitPos := position(compressed)

		// Bits at or below the current bit position.
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos))
		mask.Add(new(uint256.Int).Sub(mask, uint256.NewInt(1)), mask)

		masked := new(uint256.Int)
		if word, ok := b[wordPos]; ok {
			masked.And(word, mask)
		}
		if !masked.IsZero() {
			msb, _ := bitmath.MostSignificantBit(masked)
			return (compressed - int64(bitPos) + int64(msb)) * tickSpacing, true
		}
		return (compressed - int64(bitPos)) * tickSpacing, false
	}

	// Start from the next tick when searching upward.
	wordPos, bitPos := position(compressed + 1)

	// Bits at or above the current bit position.
	lower := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos)), uint256.NewInt(1))
	mask := new(uint256.Int).Not(lower)

	masked := new(uint256.Int)
	if word, ok := b[wordPos]; ok {
		masked.And(word, mask)
	}
	if !masked.IsZero() {
		lsb, _ := bitmath.LeastSignificantBit(masked)
		return (compressed + 1 + int64(lsb) - int64(bitPos)) * tickSpacing, true
	}
	return (compressed + 1 + int64(255-bitPos)) * tickSpacing, false
}
