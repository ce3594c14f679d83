package pool

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/defistate/defistate-pool-go/fullmath"
	"github.com/defistate/defistate-pool-go/liquiditymath"
	"github.com/defistate/defistate-pool-go/swapmath"
	"github.com/defistate/defistate-pool-go/tickmath"
)

// errSwapStepOverflow guards the tick walk against a loop that fails to make
// progress; it cannot fire for well-formed state.
var errSwapStepOverflow = errors.New("swap exceeded maximum step count")

// maxSwapSteps bounds the tick walk. Every step either exhausts the amount,
// reaches the limit, or advances at least one bitmap position, so the bound
// is generous for the full tick range at spacing 1.
const maxSwapSteps = 4_000_000

// swapCache holds values fixed for the whole swap.
type swapCache struct {
	liquidityStart *big.Int
	blockTimestamp uint32
	feeProtocol    uint8

	// oracle values at the start of the swap, computed on first tick cross
	secondsPerLiquidityCumulativeX128 *uint256.Int
	tickCumulative                    int64
	computedLatestObservation         bool
}

// swapState is the staged outcome of the swap; nothing is committed to the
// pool until the callback has paid.
type swapState struct {
	amountSpecifiedRemaining *big.Int
	amountCalculated         *big.Int
	sqrtPriceX96             *big.Int
	tick                     int64
	feeGrowthGlobalX128      *uint256.Int
	protocolFee              *big.Int
	liquidity                *big.Int
}

// crossing journals one tick cross so the boundary flip can be applied at
// commit time with the fee growth values in effect when it happened.
type crossing struct {
	tick int64
	fg0  uint256.Int
	fg1  uint256.Int
}

type stepComputations struct {
	sqrtPriceStartX96 *big.Int
	tickNext          int64
	initialized       bool
	sqrtPriceNextX96  *big.Int
	amountIn          *big.Int
	amountOut         *big.Int
	feeAmount         *big.Int
}

// Swap exchanges one token for the other. A positive amountSpecified is an
// exact input of the sold token; a negative value is an exact output of the
// bought token. The price moves down for zeroForOne and up otherwise, never
// past sqrtPriceLimitX96. Returned deltas are from the trader's perspective:
// positive amounts are owed to the pool.
func (p *Pool) Swap(recipient common.Address, zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *big.Int, callback SwapCallback) (*big.Int, *big.Int, error) {
	if !p.initialized() {
		return nil, nil, ErrNotInitialized
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	timer := prometheus.NewTimer(p.metrics.swapDuration.WithLabelValues())
	defer timer.ObserveDuration()

	if amountSpecified.Sign() == 0 {
		return nil, nil, ErrZeroAmount
	}
	if zeroForOne {
		if sqrtPriceLimitX96.Cmp(p.slot0.SqrtPriceX96) >= 0 || sqrtPriceLimitX96.Cmp(tickmath.MinSqrtRatio) <= 0 {
			return nil, nil, ErrInvalidPriceLimit
		}
	} else {
		if sqrtPriceLimitX96.Cmp(p.slot0.SqrtPriceX96) <= 0 || sqrtPriceLimitX96.Cmp(tickmath.MaxSqrtRatio) >= 0 {
			return nil, nil, ErrInvalidPriceLimit
		}
	}

	cache := swapCache{
		liquidityStart: new(big.Int).Set(p.liquidity),
		blockTimestamp: p.now(),
	}
	if zeroForOne {
		cache.feeProtocol = p.slot0.FeeProtocol % 16
	} else {
		cache.feeProtocol = p.slot0.FeeProtocol >> 4
	}

	state := swapState{
		amountSpecifiedRemaining: new(big.Int).Set(amountSpecified),
		amountCalculated:         new(big.Int),
		sqrtPriceX96:             new(big.Int).Set(p.slot0.SqrtPriceX96),
		tick:                     p.slot0.Tick,
		protocolFee:              new(big.Int),
		liquidity:                new(big.Int).Set(p.liquidity),
	}
	if zeroForOne {
		state.feeGrowthGlobalX128 = new(uint256.Int).Set(p.feeGrowthGlobal0X128)
	} else {
		state.feeGrowthGlobalX128 = new(uint256.Int).Set(p.feeGrowthGlobal1X128)
	}

	var crossings []crossing
	exactInput := amountSpecified.Sign() > 0

	step := stepComputations{
		sqrtPriceStartX96: new(big.Int),
		sqrtPriceNextX96:  new(big.Int),
		amountIn:          new(big.Int),
		amountOut:         new(big.Int),
		feeAmount:         new(big.Int),
	}
	scratch := new(big.Int)
	target := new(big.Int)

	steps := 0
	for state.amountSpecifiedRemaining.Sign() != 0 && state.sqrtPriceX96.Cmp(sqrtPriceLimitX96) != 0 {
		if steps++; steps > maxSwapSteps {
			return nil, nil, errSwapStepOverflow
		}

		step.sqrtPriceStartX96.Set(state.sqrtPriceX96)

		// The fee manager is consulted for every step; strategies may vary
		// the charge as the swap progresses.
		feePips, err := p.feeManager.ComputeFee(p.cfg.Fee)
		if err != nil {
			return nil, nil, err
		}
		if feePips >= 1_000_000 {
			p.logger.Warn("fee manager returned fee at or above 100%, clamping", "fee", feePips)
			feePips = 999_999
		}

		step.tickNext, step.initialized = p.bitmap.NextInitializedTickWithinOneWord(state.tick, p.cfg.TickSpacing, zeroForOne)
		if step.tickNext < tickmath.MinTick {
			step.tickNext = tickmath.MinTick
		} else if step.tickNext > tickmath.MaxTick {
			step.tickNext = tickmath.MaxTick
		}
		if err := tickmath.SqrtRatioAtTick(step.sqrtPriceNextX96, step.tickNext); err != nil {
			return nil, nil, err
		}

		// Swap toward the nearer of the next tick and the price limit.
		target.Set(step.sqrtPriceNextX96)
		if zeroForOne {
			if step.sqrtPriceNextX96.Cmp(sqrtPriceLimitX96) < 0 {
				target.Set(sqrtPriceLimitX96)
			}
		} else {
			if step.sqrtPriceNextX96.Cmp(sqrtPriceLimitX96) > 0 {
				target.Set(sqrtPriceLimitX96)
			}
		}

		if err := swapmath.ComputeSwapStep(state.sqrtPriceX96, step.amountIn, step.amountOut, step.feeAmount,
			step.sqrtPriceStartX96, target, state.liquidity, state.amountSpecifiedRemaining, feePips); err != nil {
			return nil, nil, err
		}

		if exactInput {
			scratch.Add(step.amountIn, step.feeAmount)
			state.amountSpecifiedRemaining.Sub(state.amountSpecifiedRemaining, scratch)
			state.amountCalculated.Sub(state.amountCalculated, step.amountOut)
		} else {
			state.amountSpecifiedRemaining.Add(state.amountSpecifiedRemaining, step.amountOut)
			scratch.Add(step.amountIn, step.feeAmount)
			state.amountCalculated.Add(state.amountCalculated, scratch)
		}

		if cache.feeProtocol > 0 {
			scratch.Div(step.feeAmount, big.NewInt(int64(cache.feeProtocol)))
			step.feeAmount.Sub(step.feeAmount, scratch)
			state.protocolFee.Add(state.protocolFee, scratch)
		}

		// Fees accrue to in-range liquidity; with none active, the step
		// cannot have charged any.
		if state.liquidity.Sign() > 0 {
			if err := fullmath.MulDiv(scratch, step.feeAmount, fullmath.Q128, state.liquidity); err != nil {
				return nil, nil, err
			}
			state.feeGrowthGlobalX128.Add(state.feeGrowthGlobalX128, bigToWrapped256(scratch))
		}

		if state.sqrtPriceX96.Cmp(step.sqrtPriceNextX96) == 0 {
			// Reached the boundary tick.
			if step.initialized {
				if !cache.computedLatestObservation {
					tickCumulative, secondsPerLiquidity, err := p.observations.ObserveSingle(
						cache.blockTimestamp, 0, p.slot0.Tick, cache.liquidityStart)
					if err != nil {
						return nil, nil, err
					}
					cache.tickCumulative = tickCumulative
					cache.secondsPerLiquidityCumulativeX128 = secondsPerLiquidity
					cache.computedLatestObservation = true
				}

				c := crossing{tick: step.tickNext}
				if zeroForOne {
					c.fg0.Set(state.feeGrowthGlobalX128)
					c.fg1.Set(p.feeGrowthGlobal1X128)
				} else {
					c.fg0.Set(p.feeGrowthGlobal0X128)
					c.fg1.Set(state.feeGrowthGlobalX128)
				}
				crossings = append(crossings, c)

				entry, ok := p.ticks.Get(step.tickNext)
				if !ok {
					return nil, nil, errors.New("initialized tick missing from ledger")
				}
				liquidityNet := new(big.Int).Set(entry.LiquidityNet)
				if zeroForOne {
					liquidityNet.Neg(liquidityNet)
				}
				liquidityAfter := new(big.Int)
				if err := liquiditymath.AddDelta(liquidityAfter, state.liquidity, liquidityNet); err != nil {
					return nil, nil, err
				}
				state.liquidity.Set(liquidityAfter)
			}

			if zeroForOne {
				state.tick = step.tickNext - 1
			} else {
				state.tick = step.tickNext
			}
		} else if state.sqrtPriceX96.Cmp(step.sqrtPriceStartX96) != 0 {
			state.tick, err = tickmath.TickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	amount0, amount1 := new(big.Int), new(big.Int)
	if zeroForOne == exactInput {
		amount0.Sub(amountSpecified, state.amountSpecifiedRemaining)
		amount1.Set(state.amountCalculated)
	} else {
		amount0.Set(state.amountCalculated)
		amount1.Sub(amountSpecified, state.amountSpecifiedRemaining)
	}

	// A swap that moved nothing means no liquidity was usable on the way to
	// the limit.
	if amount0.Sign() == 0 && amount1.Sign() == 0 {
		return nil, nil, ErrInsufficientLiquidity
	}

	if err := p.settleSwap(zeroForOne, amount0, amount1, callback); err != nil {
		return nil, nil, err
	}

	// Commit. Journaled crossings first, then the oracle observation at the
	// pre-swap tick and liquidity, then the hot state.
	for i := range crossings {
		c := &crossings[i]
		p.ticks.Cross(c.tick, &c.fg0, &c.fg1,
			cache.secondsPerLiquidityCumulativeX128, cache.tickCumulative, cache.blockTimestamp)
	}
	if state.tick != p.slot0.Tick {
		p.writeObservation()
		p.slot0.Tick = state.tick
	}
	p.slot0.SqrtPriceX96.Set(state.sqrtPriceX96)
	p.liquidity.Set(state.liquidity)
	if zeroForOne {
		p.feeGrowthGlobal0X128.Set(state.feeGrowthGlobalX128)
		if state.protocolFee.Sign() > 0 {
			p.protocolFees0.Add(p.protocolFees0, state.protocolFee)
		}
	} else {
		p.feeGrowthGlobal1X128.Set(state.feeGrowthGlobalX128)
		if state.protocolFee.Sign() > 0 {
			p.protocolFees1.Add(p.protocolFees1, state.protocolFee)
		}
	}

	p.metrics.swaps.Inc()
	p.metrics.ticksCrossed.Add(float64(len(crossings)))
	p.logger.Debug("swap",
		"recipient", recipient, "zero_for_one", zeroForOne,
		"amount0", amount0.String(), "amount1", amount1.String(),
		"sqrt_price_x96", p.slot0.SqrtPriceX96.String(), "tick", p.slot0.Tick,
		"ticks_crossed", len(crossings))
	return amount0, amount1, nil
}

// settleSwap runs the payment callback and verifies the input side arrived.
// Nothing has been committed yet, so a failure simply abandons the staged
// state.
func (p *Pool) settleSwap(zeroForOne bool, amount0, amount1 *big.Int, callback SwapCallback) error {
	var balanceBefore *big.Int
	var err error
	if zeroForOne {
		if balanceBefore, err = p.cfg.Balances.Balance0(); err != nil {
			return err
		}
	} else {
		if balanceBefore, err = p.cfg.Balances.Balance1(); err != nil {
			return err
		}
	}

	if err := callback(amount0, amount1); err != nil {
		return err
	}

	var balanceAfter, owed *big.Int
	if zeroForOne {
		owed = amount0
		if balanceAfter, err = p.cfg.Balances.Balance0(); err != nil {
			return err
		}
	} else {
		owed = amount1
		if balanceAfter, err = p.cfg.Balances.Balance1(); err != nil {
			return err
		}
	}
	if balanceAfter.Cmp(new(big.Int).Add(balanceBefore, owed)) < 0 {
		return ErrCallbackBalance
	}
	return nil
}

var uint256Mask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// bigToWrapped256 reduces a non-negative big.Int into uint256 space.
func bigToWrapped256(x *big.Int) *uint256.Int {
	if x.BitLen() <= 256 {
		v, _ := uint256.FromBig(x)
		return v
	}
	v, _ := uint256.FromBig(new(big.Int).And(x, uint256Mask))
	return v
}
