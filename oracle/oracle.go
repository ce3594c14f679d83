// Package oracle maintains the pool's price and liquidity history as a ring
// of cumulative observations, supporting time-weighted average queries over
// any window the buffer still covers.
//
// Timestamps are uint32 and wrap roughly every 136 years; comparisons are
// overflow-aware. The cumulative accumulators wrap in their native widths by
// design, so only differences between two readings carry meaning.
package oracle

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrNotInitialized is returned when the oracle is queried before its
	// first observation is written.
	ErrNotInitialized = errors.New("oracle not initialized")
	// ErrObservationTooOld is returned when a query reaches back before the
	// oldest observation in the buffer.
	ErrObservationTooOld = errors.New("requested observation predates oldest stored")
)

// Observation is one entry in the ring buffer.
type Observation struct {
	// BlockTimestamp is the time this observation was recorded, mod 2^32.
	BlockTimestamp uint32
	// TickCumulative is the tick accumulated over the pool's lifetime,
	// wrapping in int64.
	TickCumulative int64
	// SecondsPerLiquidityCumulativeX128 accumulates elapsed seconds divided
	// by in-range liquidity, in Q128 fixed point, wrapping.
	SecondsPerLiquidityCumulativeX128 uint256.Int
	// Initialized marks slots that hold real data rather than pre-touched
	// storage.
	Initialized bool
}

// Oracle is the ring buffer plus its cursor state.
type Oracle struct {
	observations    []Observation
	index           uint16
	cardinality     uint16
	cardinalityNext uint16
}

// New returns an oracle with a single unwritten slot.
func New() *Oracle {
	return &Oracle{observations: make([]Observation, 1)}
}

// Index returns the position of the most recent observation.
func (o *Oracle) Index() uint16 { return o.index }

// Cardinality returns the number of populated slots in the ring.
func (o *Oracle) Cardinality() uint16 { return o.cardinality }

// CardinalityNext returns the ring size the buffer will grow into.
func (o *Oracle) CardinalityNext() uint16 { return o.cardinalityNext }

// At returns a copy of the observation at the given slot.
func (o *Oracle) At(i uint16) Observation {
	return o.observations[i]
}

// Initialize writes the first observation at the given time.
func (o *Oracle) Initialize(time uint32) {
	o.observations[0] = Observation{
		BlockTimestamp: time,
		Initialized:    true,
	}
	o.index = 0
	o.cardinality = 1
	o.cardinalityNext = 1
}

// Grow prepares the ring to hold up to next observations and returns the new
// target size. Slots are pre-touched so later writes update in place.
func (o *Oracle) Grow(next uint16) uint16 {
	if o.cardinalityNext == 0 {
		return 0
	}
	if next <= o.cardinalityNext {
		return o.cardinalityNext
	}
	for i := o.cardinalityNext; i < next; i++ {
		o.observations = append(o.observations, Observation{BlockTimestamp: 1})
	}
	o.cardinalityNext = next
	return next
}

// transform projects an observation forward to blockTimestamp given the tick
// and liquidity that were active since it was recorded.
func transform(last Observation, blockTimestamp uint32, tick int64, liquidity *big.Int) Observation {
	delta := blockTimestamp - last.BlockTimestamp

	next := Observation{
		BlockTimestamp: blockTimestamp,
		TickCumulative: last.TickCumulative + tick*int64(delta),
		Initialized:    true,
	}

	// seconds / liquidity in Q128; empty pools accrue as if liquidity were 1.
	liq := new(uint256.Int)
	if liquidity.Sign() > 0 {
		liq.SetFromBig(liquidity)
	} else {
		liq.SetOne()
	}
	splDelta := new(uint256.Int).Lsh(uint256.NewInt(uint64(delta)), 128)
	splDelta.Div(splDelta, liq)
	next.SecondsPerLiquidityCumulativeX128.Add(&last.SecondsPerLiquidityCumulativeX128, splDelta)
	return next
}

// Write records a new observation at blockTimestamp. Repeated writes within
// the same timestamp are no-ops. The ring expands to cardinalityNext when the
// cursor wraps past the end of the current cardinality.
func (o *Oracle) Write(blockTimestamp uint32, tick int64, liquidity *big.Int) {
	last := o.observations[o.index]
	if last.BlockTimestamp == blockTimestamp {
		return
	}

	cardinality := o.cardinality
	if o.cardinalityNext > cardinality && o.index == cardinality-1 {
		cardinality = o.cardinalityNext
	}

	o.index = (o.index + 1) % cardinality
	o.cardinality = cardinality
	o.observations[o.index] = transform(last, blockTimestamp, tick, liquidity)
}

// lte reports whether a is chronologically at or before b, interpreting both
// relative to time so the comparison survives uint32 wraparound.
func lte(time, a, b uint32) bool {
	if a <= time && b <= time {
		return a <= b
	}
	aAdj := uint64(a)
	if a <= time {
		aAdj += 1 << 32
	}
	bAdj := uint64(b)
	if b <= time {
		bAdj += 1 << 32
	}
	return aAdj <= bAdj
}

// binarySearch finds the pair of observations straddling target. The target
// must be within the recorded range.
func (o *Oracle) binarySearch(time, target uint32) (beforeOrAt, atOrAfter Observation) {
	l := uint32(o.index+1) % uint32(o.cardinality)
	r := l + uint32(o.cardinality) - 1

	for {
		i := (l + r) / 2
		beforeOrAt = o.observations[i%uint32(o.cardinality)]

		if !beforeOrAt.Initialized {
			// Hit a pre-touched slot; the answer is to the right.
			l = i + 1
			continue
		}

		atOrAfter = o.observations[(i+1)%uint32(o.cardinality)]

		targetAtOrAfter := lte(time, beforeOrAt.BlockTimestamp, target)
		if targetAtOrAfter && lte(time, target, atOrAfter.BlockTimestamp) {
			return beforeOrAt, atOrAfter
		}
		if !targetAtOrAfter {
			r = i - 1
		} else {
			l = i + 1
		}
	}
}

// surroundingObservations returns the observations bracketing target,
// extrapolating past the newest when the target is more recent than the last
// write.
func (o *Oracle) surroundingObservations(time, target uint32, tick int64, liquidity *big.Int) (beforeOrAt, atOrAfter Observation, err error) {
	beforeOrAt = o.observations[o.index]

	if lte(time, beforeOrAt.BlockTimestamp, target) {
		if beforeOrAt.BlockTimestamp == target {
			return beforeOrAt, atOrAfter, nil
		}
		return beforeOrAt, transform(beforeOrAt, target, tick, liquidity), nil
	}

	oldest := o.observations[(o.index+1)%o.cardinality]
	if !oldest.Initialized {
		oldest = o.observations[0]
	}
	if !lte(time, oldest.BlockTimestamp, target) {
		return beforeOrAt, atOrAfter, ErrObservationTooOld
	}

	beforeOrAt, atOrAfter = o.binarySearch(time, target)
	return beforeOrAt, atOrAfter, nil
}

// ObserveSingle returns the cumulative tick and seconds-per-liquidity as of
// secondsAgo before time. secondsAgo of zero reads the live values projected
// to time.
func (o *Oracle) ObserveSingle(time uint32, secondsAgo uint32, tick int64, liquidity *big.Int) (tickCumulative int64, secondsPerLiquidityCumulativeX128 *uint256.Int, err error) {
	if o.cardinality == 0 {
		return 0, nil, ErrNotInitialized
	}

	if secondsAgo == 0 {
		last := o.observations[o.index]
		if last.BlockTimestamp != time {
			last = transform(last, time, tick, liquidity)
		}
		spl := new(uint256.Int).Set(&last.SecondsPerLiquidityCumulativeX128)
		return last.TickCumulative, spl, nil
	}

	target := time - secondsAgo

	beforeOrAt, atOrAfter, err := o.surroundingObservations(time, target, tick, liquidity)
	if err != nil {
		return 0, nil, err
	}

	switch {
	case beforeOrAt.BlockTimestamp == target:
		spl := new(uint256.Int).Set(&beforeOrAt.SecondsPerLiquidityCumulativeX128)
		return beforeOrAt.TickCumulative, spl, nil
	case atOrAfter.BlockTimestamp == target:
		spl := new(uint256.Int).Set(&atOrAfter.SecondsPerLiquidityCumulativeX128)
		return atOrAfter.TickCumulative, spl, nil
	default:
		// Interpolate between the bracketing observations.
		obsDelta := atOrAfter.BlockTimestamp - beforeOrAt.BlockTimestamp
		targetDelta := target - beforeOrAt.BlockTimestamp

		tickCumulative = beforeOrAt.TickCumulative +
			(atOrAfter.TickCumulative-beforeOrAt.TickCumulative)/int64(obsDelta)*int64(targetDelta)

		splDelta := new(uint256.Int).Sub(&atOrAfter.SecondsPerLiquidityCumulativeX128, &beforeOrAt.SecondsPerLiquidityCumulativeX128)
		scaled := new(big.Int).Mul(splDelta.ToBig(), big.NewInt(int64(targetDelta)))
		scaled.Div(scaled, big.NewInt(int64(obsDelta)))
		part, _ := uint256.FromBig(scaled)

		spl := new(uint256.Int).Add(&beforeOrAt.SecondsPerLiquidityCumulativeX128, part)
		return tickCumulative, spl, nil
	}
}

// Observe runs ObserveSingle for each entry of secondsAgos.
func (o *Oracle) Observe(time uint32, secondsAgos []uint32, tick int64, liquidity *big.Int) (tickCumulatives []int64, secondsPerLiquidityCumulativeX128s []*uint256.Int, err error) {
	tickCumulatives = make([]int64, len(secondsAgos))
	secondsPerLiquidityCumulativeX128s = make([]*uint256.Int, len(secondsAgos))
	for i, secondsAgo := range secondsAgos {
		tickCumulatives[i], secondsPerLiquidityCumulativeX128s[i], err = o.ObserveSingle(time, secondsAgo, tick, liquidity)
		if err != nil {
			return nil, nil, err
		}
	}
	return tickCumulatives, secondsPerLiquidityCumulativeX128s, nil
}
