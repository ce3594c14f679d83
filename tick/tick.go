// Package tick keeps the per-tick accounting of the pool: how much liquidity
// references each tick as a range boundary, the signed liquidity change
// applied when the price crosses it, and the "outside" accumulator snapshots
// that let fee growth and time-weighted quantities be scoped to a range.
//
// Outside accumulators follow the snapshot-and-flip technique: a tick records
// growth on the side away from the current price, and crossing the tick flips
// the recorded value to total minus outside. All accumulator subtraction is
// wrapping by design; only differences are meaningful.
package tick

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/defistate/defistate-pool-go/fullmath"
	"github.com/defistate/defistate-pool-go/liquiditymath"
	"github.com/defistate/defistate-pool-go/tickmath"
)

var (
	// ErrLiquidityPerTickExceeded is returned when a mint would push a
	// tick's gross liquidity past the per-tick cap.
	ErrLiquidityPerTickExceeded = errors.New("max liquidity per tick exceeded")
	// ErrTickNotInitialized is returned when a range-scoped query references
	// a tick that no position uses as a boundary.
	ErrTickNotInitialized = errors.New("tick not initialized")

	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// Entry is the state tracked for one initialized tick.
type Entry struct {
	// LiquidityGross is the total position liquidity using this tick as a
	// boundary; it decides whether the tick stays initialized.
	LiquidityGross *big.Int
	// LiquidityNet is added to the pool's active liquidity when the price
	// crosses this tick moving up, subtracted moving down.
	LiquidityNet *big.Int

	FeeGrowthOutside0X128 *uint256.Int
	FeeGrowthOutside1X128 *uint256.Int

	TickCumulativeOutside          int64
	SecondsPerLiquidityOutsideX128 *uint256.Int
	SecondsOutside                 uint32

	Initialized bool
}

func newEntry() *Entry {
	return &Entry{
		LiquidityGross:                 new(big.Int),
		LiquidityNet:                   new(big.Int),
		FeeGrowthOutside0X128:          new(uint256.Int),
		FeeGrowthOutside1X128:          new(uint256.Int),
		SecondsPerLiquidityOutsideX128: new(uint256.Int),
	}
}

// Ledger is a sparse map of tick entries; absent ticks read as zero-valued.
type Ledger struct {
	entries map[int64]*Entry
}

// NewLedger returns an empty tick ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[int64]*Entry)}
}

// Get returns the stored entry for a tick, if any.
func (l *Ledger) Get(tick int64) (*Entry, bool) {
	e, ok := l.entries[tick]
	return e, ok
}

// Count returns the number of stored ticks.
func (l *Ledger) Count() int {
	return len(l.entries)
}

// get returns the entry for a tick, creating a zero-valued one on first
// reference.
func (l *Ledger) get(tick int64) *Entry {
	if e, ok := l.entries[tick]; ok {
		return e
	}
	e := newEntry()
	l.entries[tick] = e
	return e
}

// peek returns the entry for a tick without inserting one; absent ticks read
// as zero-valued.
func (l *Ledger) peek(tick int64) *Entry {
	if e, ok := l.entries[tick]; ok {
		return e
	}
	return newEntry()
}

// MaxLiquidityPerTick derives the cap on gross liquidity per tick for a tick
// spacing. The cap keeps the sum over all usable ticks within uint128.
func MaxLiquidityPerTick(tickSpacing int64) *big.Int {
	minTick := (tickmath.MinTick / tickSpacing) * tickSpacing
	maxTick := (tickmath.MaxTick / tickSpacing) * tickSpacing
	numTicks := (maxTick-minTick)/tickSpacing + 1
	return new(big.Int).Div(maxUint128, big.NewInt(numTicks))
}

// Update applies a liquidity delta from a mint or burn to the tick and
// reports whether the tick's initialized status flipped.
//
// When a tick is referenced for the first time, its outside accumulators are
// seeded as if all growth to date happened below it, which holds by
// construction for ticks at or below the current tick.
func (l *Ledger) Update(
	tick, tickCurrent int64,
	liquidityDelta *big.Int,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int,
	secondsPerLiquidityCumulativeX128 *uint256.Int,
	tickCumulative int64,
	time uint32,
	upper bool,
	maxLiquidity *big.Int,
) (flipped bool, err error) {
	e := l.get(tick)

	liquidityGrossAfter := new(big.Int)
	if err := liquiditymath.AddDelta(liquidityGrossAfter, e.LiquidityGross, liquidityDelta); err != nil {
		return false, err
	}
	if liquidityGrossAfter.Cmp(maxLiquidity) > 0 {
		return false, ErrLiquidityPerTickExceeded
	}

	flipped = (liquidityGrossAfter.Sign() == 0) != (e.LiquidityGross.Sign() == 0)

	if e.LiquidityGross.Sign() == 0 {
		if tick <= tickCurrent {
			e.FeeGrowthOutside0X128.Set(feeGrowthGlobal0X128)
			e.FeeGrowthOutside1X128.Set(feeGrowthGlobal1X128)
			e.SecondsPerLiquidityOutsideX128.Set(secondsPerLiquidityCumulativeX128)
			e.TickCumulativeOutside = tickCumulative
			e.SecondsOutside = time
		}
		e.Initialized = true
	}

	e.LiquidityGross.Set(liquidityGrossAfter)

	if upper {
		e.LiquidityNet.Sub(e.LiquidityNet, liquidityDelta)
	} else {
		e.LiquidityNet.Add(e.LiquidityNet, liquidityDelta)
	}
	if err := fullmath.CheckInt128(e.LiquidityNet); err != nil {
		return false, err
	}
	return flipped, nil
}

// Clear removes a tick's stored state once its gross liquidity returns to
// zero.
func (l *Ledger) Clear(tick int64) {
	delete(l.entries, tick)
}

// Cross flips the tick's outside accumulators to mirror the other side of
// the price and returns the signed liquidity change to apply; the caller
// negates it when crossing downward.
func (l *Ledger) Cross(
	tick int64,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int,
	secondsPerLiquidityCumulativeX128 *uint256.Int,
	tickCumulative int64,
	time uint32,
) (liquidityNet *big.Int) {
	e := l.get(tick)
	e.FeeGrowthOutside0X128.Sub(feeGrowthGlobal0X128, e.FeeGrowthOutside0X128)
	e.FeeGrowthOutside1X128.Sub(feeGrowthGlobal1X128, e.FeeGrowthOutside1X128)
	e.SecondsPerLiquidityOutsideX128.Sub(secondsPerLiquidityCumulativeX128, e.SecondsPerLiquidityOutsideX128)
	e.TickCumulativeOutside = tickCumulative - e.TickCumulativeOutside
	e.SecondsOutside = time - e.SecondsOutside
	return e.LiquidityNet
}

// FeeGrowthInside computes the all-time fee growth per unit of liquidity
// inside a tick range as global minus the growth outside each boundary.
// Subtraction wraps; only deltas between two readings are meaningful.
func (l *Ledger) FeeGrowthInside(
	tickLower, tickUpper, tickCurrent int64,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int,
) (inside0, inside1 *uint256.Int) {
	lower := l.peek(tickLower)
	upper := l.peek(tickUpper)

	below0, below1 := new(uint256.Int), new(uint256.Int)
	if tickCurrent >= tickLower {
		below0.Set(lower.FeeGrowthOutside0X128)
		below1.Set(lower.FeeGrowthOutside1X128)
	} else {
		below0.Sub(feeGrowthGlobal0X128, lower.FeeGrowthOutside0X128)
		below1.Sub(feeGrowthGlobal1X128, lower.FeeGrowthOutside1X128)
	}

	above0, above1 := new(uint256.Int), new(uint256.Int)
	if tickCurrent < tickUpper {
		above0.Set(upper.FeeGrowthOutside0X128)
		above1.Set(upper.FeeGrowthOutside1X128)
	} else {
		above0.Sub(feeGrowthGlobal0X128, upper.FeeGrowthOutside0X128)
		above1.Sub(feeGrowthGlobal1X128, upper.FeeGrowthOutside1X128)
	}

	inside0 = new(uint256.Int).Sub(feeGrowthGlobal0X128, below0)
	inside0.Sub(inside0, above0)
	inside1 = new(uint256.Int).Sub(feeGrowthGlobal1X128, below1)
	inside1.Sub(inside1, above1)
	return inside0, inside1
}

// CumulativesInside computes the cumulative tick, seconds per liquidity, and
// seconds spent inside a tick range, from the boundary ticks' outside
// snapshots and the pool's current cumulative values. Both boundary ticks
// must be initialized.
func (l *Ledger) CumulativesInside(
	tickLower, tickUpper, tickCurrent int64,
	tickCumulative int64,
	secondsPerLiquidityCumulativeX128 *uint256.Int,
	time uint32,
) (tickCumulativeInside int64, secondsPerLiquidityInsideX128 *uint256.Int, secondsInside uint32, err error) {
	lower, okLower := l.entries[tickLower]
	upper, okUpper := l.entries[tickUpper]
	if !okLower || !lower.Initialized || !okUpper || !upper.Initialized {
		return 0, nil, 0, ErrTickNotInitialized
	}

	switch {
	case tickCurrent < tickLower:
		spl := new(uint256.Int).Sub(lower.SecondsPerLiquidityOutsideX128, upper.SecondsPerLiquidityOutsideX128)
		return lower.TickCumulativeOutside - upper.TickCumulativeOutside,
			spl,
			lower.SecondsOutside - upper.SecondsOutside,
			nil
	case tickCurrent < tickUpper:
		spl := new(uint256.Int).Sub(secondsPerLiquidityCumulativeX128, lower.SecondsPerLiquidityOutsideX128)
		spl.Sub(spl, upper.SecondsPerLiquidityOutsideX128)
		return tickCumulative - lower.TickCumulativeOutside - upper.TickCumulativeOutside,
			spl,
			time - lower.SecondsOutside - upper.SecondsOutside,
			nil
	default:
		spl := new(uint256.Int).Sub(upper.SecondsPerLiquidityOutsideX128, lower.SecondsPerLiquidityOutsideX128)
		return upper.TickCumulativeOutside - lower.TickCumulativeOutside,
			spl,
			upper.SecondsOutside - lower.SecondsOutside,
			nil
	}
}
