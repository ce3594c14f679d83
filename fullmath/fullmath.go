// Package fullmath provides the full-precision arithmetic primitives the
// pool engine is built on: multiply-then-divide with a 512-bit intermediate,
// integer square root, and checked narrowing casts.
//
// All functions use destination-passing so hot paths can reuse allocations.
package fullmath

import (
	"errors"
	"math/big"
	"sync"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrCastOverflow   = errors.New("value out of range for target width")

	// Q96 is the UQ64.96 fixed-point number representing 1.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)
	// Q128 is the UQ128.128 fixed-point number representing 1.
	Q128 = new(big.Int).Lsh(big.NewInt(1), 128)

	one = big.NewInt(1)

	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(one, 128), one)
	maxUint160 = new(big.Int).Sub(new(big.Int).Lsh(one, 160), one)
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(one, 127), one)
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(one, 127))
	maxInt56   = new(big.Int).Sub(new(big.Int).Lsh(one, 55), one)
	minInt56   = new(big.Int).Neg(new(big.Int).Lsh(one, 55))
)

// fullMath holds reusable big.Int scratch space to avoid allocations.
type fullMath struct {
	product *big.Int
	rem     *big.Int
}

// pool manages fullMath scratch objects for safe concurrent use.
var pool = sync.Pool{
	New: func() any {
		return &fullMath{
			product: new(big.Int),
			rem:     new(big.Int),
		}
	},
}

// MulDiv writes floor((a * b) / denominator) into dest. The intermediate
// product is never truncated, matching the 512-bit mulDiv of the original
// fixed-width implementation.
func MulDiv(dest, a, b, denominator *big.Int) error {
	if denominator.Sign() == 0 {
		return ErrDivisionByZero
	}
	m := pool.Get().(*fullMath)
	defer pool.Put(m)

	m.product.Mul(a, b)
	dest.Div(m.product, denominator)
	return nil
}

// MulDivRoundingUp writes ceil((a * b) / denominator) into dest.
func MulDivRoundingUp(dest, a, b, denominator *big.Int) error {
	if denominator.Sign() == 0 {
		return ErrDivisionByZero
	}
	m := pool.Get().(*fullMath)
	defer pool.Put(m)

	m.product.Mul(a, b)
	dest.Div(m.product, denominator)
	if m.rem.Rem(m.product, denominator).Sign() > 0 {
		dest.Add(dest, one)
	}
	return nil
}

// DivRoundingUp writes ceil(a / b) into dest.
func DivRoundingUp(dest, a, b *big.Int) error {
	if b.Sign() == 0 {
		return ErrDivisionByZero
	}
	m := pool.Get().(*fullMath)
	defer pool.Put(m)

	dest.Div(a, b)
	if m.rem.Rem(a, b).Sign() > 0 {
		dest.Add(dest, one)
	}
	return nil
}

// Sqrt writes the integer square root of x into dest.
func Sqrt(dest, x *big.Int) {
	dest.Sqrt(x)
}

// ToUint128 writes x into dest after verifying it fits an unsigned 128-bit
// integer.
func ToUint128(dest, x *big.Int) error {
	if x.Sign() < 0 || x.Cmp(maxUint128) > 0 {
		return ErrCastOverflow
	}
	dest.Set(x)
	return nil
}

// ToUint160 writes x into dest after verifying it fits an unsigned 160-bit
// integer.
func ToUint160(dest, x *big.Int) error {
	if x.Sign() < 0 || x.Cmp(maxUint160) > 0 {
		return ErrCastOverflow
	}
	dest.Set(x)
	return nil
}

// CheckInt128 verifies x fits a signed 128-bit integer.
func CheckInt128(x *big.Int) error {
	if x.Cmp(minInt128) < 0 || x.Cmp(maxInt128) > 0 {
		return ErrCastOverflow
	}
	return nil
}

// ToInt56 returns x as an int64 after verifying it fits a signed 56-bit
// integer.
func ToInt56(x *big.Int) (int64, error) {
	if x.Cmp(minInt56) < 0 || x.Cmp(maxInt56) > 0 {
		return 0, ErrCastOverflow
	}
	return x.Int64(), nil
}
