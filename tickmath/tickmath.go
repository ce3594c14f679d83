// Package tickmath converts between tick indices and square-root prices.
//
// A tick i corresponds to the price 1.0001^i; the sqrt price is carried as a
// UQ64.96 fixed-point value. SqrtRatioAtTick evaluates sqrt(1.0001^tick)*2^96
// with a precomputed ratio ladder; TickAtSqrtRatio inverts it by binary
// search, which guarantees a zero round-trip error for tick-derived prices.
package tickmath

import (
	"errors"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the minimum tick that may be passed to SqrtRatioAtTick.
	MinTick = int64(-887272)
	// MaxTick is the maximum tick that may be passed to SqrtRatioAtTick.
	MaxTick = int64(887272)
)

var (
	// MinSqrtRatio is the sqrt price at MinTick, the lowest representable price.
	MinSqrtRatio, _ = new(big.Int).SetString("4295128739", 10)
	// MaxSqrtRatio is the sqrt price at MaxTick, the highest representable price.
	MaxSqrtRatio, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)

	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	one        = uint256.NewInt(1)
	maxUint256 = new(uint256.Int).Not(uint256.NewInt(0))

	// ratioLadder[i] is sqrt(1.0001^(2^(i-1)))^-1 in UQ128.128 for i >= 2,
	// with the two seed values at [0] and [1] and the rounding mask at [21].
	ratioLadder = [22]*uint256.Int{
		uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),  // sqrt(1.0001^1)
		uint256.MustFromHex("0x100000000000000000000000000000000"), // 1 in UQ128.128
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),  // sqrt(1.0001^2)
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),  // sqrt(1.0001^4)
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),  // sqrt(1.0001^8)
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),  // sqrt(1.0001^16)
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),  // sqrt(1.0001^32)
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),  // sqrt(1.0001^64)
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),  // sqrt(1.0001^128)
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),  // sqrt(1.0001^256)
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),  // sqrt(1.0001^512)
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),  // sqrt(1.0001^1024)
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),  // sqrt(1.0001^2048)
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),  // sqrt(1.0001^4096)
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),  // sqrt(1.0001^8192)
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),  // sqrt(1.0001^16384)
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),  // sqrt(1.0001^32768)
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),   // sqrt(1.0001^65536)
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),    // sqrt(1.0001^131072)
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),      // sqrt(1.0001^262144)
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),           // sqrt(1.0001^524288)
		uint256.MustFromHex("0xffffffff"),                          // rounding mask
	}
)

// tickMath holds reusable scratch values to avoid allocations on the hot
// path.
type tickMath struct {
	ratio *uint256.Int
	rem   *uint256.Int
	temp  *big.Int
}

var pool = sync.Pool{
	New: func() any {
		return &tickMath{
			ratio: new(uint256.Int),
			rem:   new(uint256.Int),
			temp:  new(big.Int),
		}
	},
}

// SqrtRatioAtTick writes sqrt(1.0001^tick) * 2^96 into dest.
func SqrtRatioAtTick(dest *big.Int, tick int64) error {
	if tick < MinTick || tick > MaxTick {
		return ErrTickOutOfBounds
	}

	tm := pool.Get().(*tickMath)
	defer pool.Put(tm)

	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	if absTick&0x1 != 0 {
		tm.ratio.Set(ratioLadder[0])
	} else {
		tm.ratio.Set(ratioLadder[1])
	}
	for i := 2; i < 21; i++ {
		if absTick&(1<<(i-1)) != 0 {
			tm.ratio.Mul(tm.ratio, ratioLadder[i]).Rsh(tm.ratio, 128)
		}
	}

	// The ladder accumulates the reciprocal; invert for positive ticks.
	if tick > 0 {
		tm.ratio.Div(maxUint256, tm.ratio)
	}

	// Convert UQ128.128 to UQ64.96, rounding up so the result is never below
	// the true value.
	tm.rem.And(tm.ratio, ratioLadder[21])
	tm.ratio.Rsh(tm.ratio, 32)
	if !tm.rem.IsZero() {
		tm.ratio.Add(tm.ratio, one)
	}

	tm.ratio.IntoBig(&dest)
	return nil
}

// TickAtSqrtRatio returns the greatest tick whose sqrt price is less than or
// equal to sqrtPriceX96.
func TickAtSqrtRatio(sqrtPriceX96 *big.Int) (int64, error) {
	if sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrSqrtPriceOutOfBounds
	}

	tm := pool.Get().(*tickMath)
	defer pool.Put(tm)

	sqrtRatio := tm.temp
	low, high := MinTick, MaxTick
	var tick int64
	for low <= high {
		mid := (low + high) / 2
		if err := SqrtRatioAtTick(sqrtRatio, mid); err != nil {
			return 0, err
		}
		if sqrtRatio.Cmp(sqrtPriceX96) <= 0 {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return tick, nil
}
