// Package swapmath computes a single step of a swap: the price movement,
// amounts exchanged, and fee taken while moving from the current sqrt price
// toward a target price within one tick range.
package swapmath

import (
	"math/big"
	"sync"

	"github.com/defistate/defistate-pool-go/fullmath"
	"github.com/defistate/defistate-pool-go/sqrtpricemath"
)

// FeeDenominator is 100% expressed in hundredths of a bip (1,000,000 ppm).
var FeeDenominator = big.NewInt(1_000_000)

// swapMath holds reusable scratch values for one ComputeSwapStep call,
// managed by a sync.Pool for safe concurrent use.
type swapMath struct {
	sqrtRatioNextX96 *big.Int
	amountIn         *big.Int
	amountOut        *big.Int
	feeAmount        *big.Int

	amountRemainingLessFee *big.Int
	amountRemainingAbs     *big.Int
	tempValue              *big.Int
}

var pool = sync.Pool{
	New: func() any {
		return &swapMath{
			sqrtRatioNextX96:       new(big.Int),
			amountIn:               new(big.Int),
			amountOut:              new(big.Int),
			feeAmount:              new(big.Int),
			amountRemainingLessFee: new(big.Int),
			amountRemainingAbs:     new(big.Int),
			tempValue:              new(big.Int),
		}
	},
}

// ComputeSwapStep calculates the result of swapping toward sqrtRatioTargetX96
// given at most amountRemaining of input (positive) or output (negative).
//
// Results are written into the four destination pointers. Whether the step
// stopped at the target price or exhausted the remaining amount is visible to
// the caller by comparing sqrtRatioNextX96 with the target.
func ComputeSwapStep(
	sqrtRatioNextX96, amountIn, amountOut, feeAmount *big.Int,
	sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *big.Int,
	feePips uint32,
) error {
	s := pool.Get().(*swapMath)
	defer pool.Put(s)

	if err := s.computeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining, feePips); err != nil {
		return err
	}

	sqrtRatioNextX96.Set(s.sqrtRatioNextX96)
	amountIn.Set(s.amountIn)
	amountOut.Set(s.amountOut)
	feeAmount.Set(s.feeAmount)
	return nil
}

func (s *swapMath) computeSwapStep(
	sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *big.Int,
	feePips uint32,
) error {
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0
	exactIn := amountRemaining.Sign() >= 0
	fee := s.tempValue.SetUint64(uint64(feePips))
	feeComplement := new(big.Int).Sub(FeeDenominator, fee)

	s.amountIn.SetInt64(0)
	s.amountOut.SetInt64(0)
	s.feeAmount.SetInt64(0)

	if exactIn {
		if err := fullmath.MulDiv(s.amountRemainingLessFee, amountRemaining, feeComplement, FeeDenominator); err != nil {
			return err
		}

		if zeroForOne {
			if err := sqrtpricemath.Amount0Delta(s.amountIn, sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true); err != nil {
				return err
			}
		} else {
			if err := sqrtpricemath.Amount1Delta(s.amountIn, sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true); err != nil {
				return err
			}
		}

		if s.amountRemainingLessFee.Cmp(s.amountIn) >= 0 {
			// Enough input to reach the target price.
			s.sqrtRatioNextX96.Set(sqrtRatioTargetX96)
		} else {
			if err := sqrtpricemath.NextSqrtPriceFromInput(s.sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, s.amountRemainingLessFee, zeroForOne); err != nil {
				return err
			}
		}
	} else {
		s.amountRemainingAbs.Neg(amountRemaining)

		if zeroForOne {
			if err := sqrtpricemath.Amount1Delta(s.amountOut, sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false); err != nil {
				return err
			}
		} else {
			if err := sqrtpricemath.Amount0Delta(s.amountOut, sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false); err != nil {
				return err
			}
		}

		if s.amountRemainingAbs.Cmp(s.amountOut) >= 0 {
			s.sqrtRatioNextX96.Set(sqrtRatioTargetX96)
		} else {
			if err := sqrtpricemath.NextSqrtPriceFromOutput(s.sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, s.amountRemainingAbs, zeroForOne); err != nil {
				return err
			}
		}
	}

	max := sqrtRatioTargetX96.Cmp(s.sqrtRatioNextX96) == 0

	// Recompute the amounts against the price actually reached. The branch
	// that drove the price movement already holds the exact value.
	if zeroForOne {
		if !(max && exactIn) {
			if err := sqrtpricemath.Amount0Delta(s.amountIn, s.sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true); err != nil {
				return err
			}
		}
		if !(max && !exactIn) {
			if err := sqrtpricemath.Amount1Delta(s.amountOut, s.sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false); err != nil {
				return err
			}
		}
	} else {
		if !(max && exactIn) {
			if err := sqrtpricemath.Amount1Delta(s.amountIn, sqrtRatioCurrentX96, s.sqrtRatioNextX96, liquidity, true); err != nil {
				return err
			}
		}
		if !(max && !exactIn) {
			if err := sqrtpricemath.Amount0Delta(s.amountOut, sqrtRatioCurrentX96, s.sqrtRatioNextX96, liquidity, false); err != nil {
				return err
			}
		}
	}

	// Cap the output to what was asked for.
	if !exactIn && s.amountOut.Cmp(s.amountRemainingAbs) > 0 {
		s.amountOut.Set(s.amountRemainingAbs)
	}

	if exactIn && s.sqrtRatioNextX96.Cmp(sqrtRatioTargetX96) != 0 {
		// The step consumed the entire remaining input; whatever the price
		// movement did not account for is the fee.
		s.feeAmount.Sub(amountRemaining, s.amountIn)
	} else {
		if err := fullmath.MulDivRoundingUp(s.feeAmount, s.amountIn, fee, feeComplement); err != nil {
			return err
		}
	}

	return nil
}
