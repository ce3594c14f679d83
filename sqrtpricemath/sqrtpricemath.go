// Package sqrtpricemath implements the closed-form price-movement formulas
// of the constant-liquidity curve: given liquidity and a token amount, where
// does the sqrt price land, and given two sqrt prices, how much of each token
// moves between them.
//
// Rounding always favors the pool: amounts charged to the trader round up,
// amounts paid out round down.
package sqrtpricemath

import (
	"errors"
	"math/big"
	"sync"

	"github.com/defistate/defistate-pool-go/fullmath"
)

var (
	ErrLiquidityZero = errors.New("liquidity must be greater than zero")
	ErrSqrtPriceZero = errors.New("sqrt price must be greater than zero")
	ErrPriceOverflow = errors.New("price calculation overflow")
)

// sqrtPriceMath holds reusable scratch values, managed by a sync.Pool for
// safe concurrent use.
type sqrtPriceMath struct {
	product     *big.Int
	numerator1  *big.Int
	numerator2  *big.Int
	denominator *big.Int
	quotient    *big.Int
	term        *big.Int
}

var pool = sync.Pool{
	New: func() any {
		return &sqrtPriceMath{
			product:     new(big.Int),
			numerator1:  new(big.Int),
			numerator2:  new(big.Int),
			denominator: new(big.Int),
			quotient:    new(big.Int),
			term:        new(big.Int),
		}
	},
}

// NextSqrtPriceFromInput writes the sqrt price reached after consuming
// amountIn of the input token into dest. The result is rounded so the trader
// never receives more output than the exact price would allow.
func NextSqrtPriceFromInput(dest, sqrtPX96, liquidity, amountIn *big.Int, zeroForOne bool) error {
	if sqrtPX96.Sign() <= 0 {
		return ErrSqrtPriceZero
	}
	if liquidity.Sign() <= 0 {
		return ErrLiquidityZero
	}
	if zeroForOne {
		return NextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amountIn, true)
	}
	return NextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput writes the sqrt price reached after paying out
// amountOut of the output token into dest.
func NextSqrtPriceFromOutput(dest, sqrtPX96, liquidity, amountOut *big.Int, zeroForOne bool) error {
	if sqrtPX96.Sign() <= 0 {
		return ErrSqrtPriceZero
	}
	if liquidity.Sign() <= 0 {
		return ErrLiquidityZero
	}
	if zeroForOne {
		return NextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amountOut, false)
	}
	return NextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amountOut, false)
}

// NextSqrtPriceFromAmount0RoundingUp computes the price after a token0 delta.
// Adding token0 moves the price down; removing it moves the price up. The
// result rounds up in both cases so the invariant can only move in the
// pool's favor.
func NextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount *big.Int, add bool) error {
	if amount.Sign() == 0 {
		dest.Set(sqrtPX96)
		return nil
	}

	s := pool.Get().(*sqrtPriceMath)
	defer pool.Put(s)

	s.numerator1.Lsh(liquidity, 96)

	if add {
		// liquidity * sqrtP / (liquidity + amount * sqrtP). The fixed-width
		// original falls back to a lossier form when amount*sqrtP overflows;
		// with arbitrary-precision intermediates the precise form always
		// applies.
		s.product.Mul(amount, sqrtPX96)
		s.denominator.Add(s.numerator1, s.product)
		return fullmath.MulDivRoundingUp(dest, s.numerator1, sqrtPX96, s.denominator)
	}

	s.product.Mul(amount, sqrtPX96)
	if s.numerator1.Cmp(s.product) <= 0 {
		// Removing this much token0 would push the price past the
		// representable range.
		return ErrPriceOverflow
	}
	s.denominator.Sub(s.numerator1, s.product)
	return fullmath.MulDivRoundingUp(dest, s.numerator1, sqrtPX96, s.denominator)
}

// NextSqrtPriceFromAmount1RoundingDown computes the price after a token1
// delta. Adding token1 moves the price up; removing it moves the price down.
// The result rounds down in both cases.
func NextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount *big.Int, add bool) error {
	s := pool.Get().(*sqrtPriceMath)
	defer pool.Put(s)

	if add {
		if err := fullmath.MulDiv(s.quotient, amount, fullmath.Q96, liquidity); err != nil {
			return err
		}
		dest.Add(sqrtPX96, s.quotient)
		return nil
	}

	if err := fullmath.MulDivRoundingUp(s.quotient, amount, fullmath.Q96, liquidity); err != nil {
		return err
	}
	if sqrtPX96.Cmp(s.quotient) <= 0 {
		return ErrPriceOverflow
	}
	dest.Sub(sqrtPX96, s.quotient)
	return nil
}

// Amount0Delta writes the token0 amount covering the range between two sqrt
// prices at the given liquidity:
//
//	liquidity * 2^96 * (sqrtB - sqrtA) / (sqrtB * sqrtA)
func Amount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) error {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.Sign() <= 0 {
		return ErrSqrtPriceZero
	}

	s := pool.Get().(*sqrtPriceMath)
	defer pool.Put(s)

	s.numerator1.Lsh(liquidity, 96)
	s.numerator2.Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		if err := fullmath.MulDivRoundingUp(s.term, s.numerator1, s.numerator2, sqrtRatioBX96); err != nil {
			return err
		}
		return fullmath.DivRoundingUp(dest, s.term, sqrtRatioAX96)
	}
	if err := fullmath.MulDiv(s.term, s.numerator1, s.numerator2, sqrtRatioBX96); err != nil {
		return err
	}
	dest.Div(s.term, sqrtRatioAX96)
	return nil
}

// Amount1Delta writes the token1 amount covering the range between two sqrt
// prices at the given liquidity:
//
//	liquidity * (sqrtB - sqrtA) / 2^96
func Amount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) error {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	s := pool.Get().(*sqrtPriceMath)
	defer pool.Put(s)

	s.numerator1.Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return fullmath.MulDivRoundingUp(dest, liquidity, s.numerator1, fullmath.Q96)
	}
	return fullmath.MulDiv(dest, liquidity, s.numerator1, fullmath.Q96)
}
