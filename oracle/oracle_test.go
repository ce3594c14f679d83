package oracle

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func splQ128(seconds, liquidity uint64) *uint256.Int {
	spl := new(uint256.Int).Lsh(uint256.NewInt(seconds), 128)
	return spl.Div(spl, uint256.NewInt(liquidity))
}

func TestInitialize(t *testing.T) {
	o := New()
	o.Initialize(100)

	assert.EqualValues(t, 0, o.Index())
	assert.EqualValues(t, 1, o.Cardinality())
	assert.EqualValues(t, 1, o.CardinalityNext())

	obs := o.At(0)
	assert.True(t, obs.Initialized)
	assert.EqualValues(t, 100, obs.BlockTimestamp)
	assert.Zero(t, obs.TickCumulative)
	assert.True(t, obs.SecondsPerLiquidityCumulativeX128.IsZero())
}

func TestGrow(t *testing.T) {
	t.Run("before initialize is a no-op", func(t *testing.T) {
		o := New()
		assert.EqualValues(t, 0, o.Grow(5))
	})

	t.Run("expands and pre-touches slots", func(t *testing.T) {
		o := New()
		o.Initialize(0)
		assert.EqualValues(t, 5, o.Grow(5))
		assert.EqualValues(t, 5, o.CardinalityNext())
		assert.EqualValues(t, 1, o.Cardinality(), "cardinality grows lazily on write")

		for i := uint16(1); i < 5; i++ {
			assert.EqualValues(t, 1, o.At(i).BlockTimestamp, "slot %d pre-touched", i)
			assert.False(t, o.At(i).Initialized)
		}
	})

	t.Run("shrinking is a no-op", func(t *testing.T) {
		o := New()
		o.Initialize(0)
		o.Grow(5)
		assert.EqualValues(t, 5, o.Grow(3))
	})
}

func TestWrite(t *testing.T) {
	liq := big.NewInt(4)

	t.Run("same timestamp does not advance", func(t *testing.T) {
		o := New()
		o.Initialize(10)
		o.Write(10, 3, liq)
		assert.EqualValues(t, 0, o.Index())
		assert.Zero(t, o.At(0).TickCumulative)
	})

	t.Run("single slot overwrites in place", func(t *testing.T) {
		o := New()
		o.Initialize(10)
		o.Write(17, 3, liq)

		assert.EqualValues(t, 0, o.Index())
		assert.EqualValues(t, 1, o.Cardinality())
		obs := o.At(0)
		assert.EqualValues(t, 17, obs.BlockTimestamp)
		assert.EqualValues(t, 21, obs.TickCumulative, "3 * 7 seconds")
		assert.Zero(t, obs.SecondsPerLiquidityCumulativeX128.Cmp(splQ128(7, 4)))
	})

	t.Run("grows into cardinality next at the wrap point", func(t *testing.T) {
		o := New()
		o.Initialize(0)
		o.Grow(3)

		o.Write(5, 1, liq)
		assert.EqualValues(t, 1, o.Index())
		assert.EqualValues(t, 3, o.Cardinality())

		o.Write(9, 2, liq)
		assert.EqualValues(t, 2, o.Index())

		// Ring wraps back to slot 0.
		o.Write(12, -4, liq)
		assert.EqualValues(t, 0, o.Index())
		assert.EqualValues(t, 3, o.Cardinality())
	})

	t.Run("accrues with minimum liquidity of one when pool is empty", func(t *testing.T) {
		o := New()
		o.Initialize(0)
		o.Write(8, 0, new(big.Int))
		obs := o.At(0)
		assert.Zero(t, obs.SecondsPerLiquidityCumulativeX128.Cmp(splQ128(8, 1)))
	})

	t.Run("timestamp wraparound", func(t *testing.T) {
		o := New()
		start := uint32(0xffffffff - 4)
		o.Initialize(start)
		o.Write(3, 2, liq) // 8 seconds later, across the uint32 boundary

		obs := o.At(0)
		assert.EqualValues(t, 3, obs.BlockTimestamp)
		assert.EqualValues(t, 16, obs.TickCumulative)
	})
}

func TestObserveSingle(t *testing.T) {
	liq := big.NewInt(4)

	t.Run("uninitialized oracle errors", func(t *testing.T) {
		o := New()
		_, _, err := o.ObserveSingle(0, 0, 0, liq)
		assert.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("seconds ago zero projects to now", func(t *testing.T) {
		o := New()
		o.Initialize(5)
		tickCum, spl, err := o.ObserveSingle(12, 0, 2, liq)
		require.NoError(t, err)
		assert.EqualValues(t, 14, tickCum, "2 * 7 seconds")
		assert.Zero(t, spl.Cmp(splQ128(7, 4)))
	})

	t.Run("seconds ago zero at the write timestamp reads stored values", func(t *testing.T) {
		o := New()
		o.Initialize(5)
		o.Write(12, 2, liq)
		tickCum, spl, err := o.ObserveSingle(12, 0, 99, big.NewInt(1))
		require.NoError(t, err)
		assert.EqualValues(t, 14, tickCum)
		assert.Zero(t, spl.Cmp(splQ128(7, 4)))
	})

	t.Run("exact boundary match", func(t *testing.T) {
		o := New()
		o.Initialize(0)
		o.Grow(2)
		o.Write(10, 5, liq)

		tickCum, spl, err := o.ObserveSingle(10, 10, 5, liq)
		require.NoError(t, err)
		assert.Zero(t, tickCum, "the initial observation")
		assert.True(t, spl.IsZero())
	})

	t.Run("interpolates between observations", func(t *testing.T) {
		o := New()
		o.Initialize(0)
		o.Grow(2)
		o.Write(10, 5, liq) // tick 5 held for 10 seconds

		tickCum, spl, err := o.ObserveSingle(10, 5, 5, liq)
		require.NoError(t, err)
		assert.EqualValues(t, 25, tickCum)

		// Half of the full-period seconds-per-liquidity delta.
		want := new(uint256.Int).Rsh(splQ128(10, 4), 1)
		assert.Zero(t, spl.Cmp(want))
	})

	t.Run("extrapolates past the newest observation", func(t *testing.T) {
		o := New()
		o.Initialize(0)
		o.Grow(2)
		o.Write(10, 5, liq)

		// Query at time 20 for 5 seconds ago: target 15 is newer than the
		// last write, so the live tick extends the history.
		tickCum, _, err := o.ObserveSingle(20, 5, 7, liq)
		require.NoError(t, err)
		assert.EqualValues(t, 50+7*5, tickCum)
	})

	t.Run("target before oldest errors", func(t *testing.T) {
		o := New()
		o.Initialize(100)
		o.Write(110, 1, liq)
		_, _, err := o.ObserveSingle(110, 20, 1, liq)
		assert.ErrorIs(t, err, ErrObservationTooOld)
	})

	t.Run("binary search over a wrapped ring", func(t *testing.T) {
		o := New()
		o.Initialize(0)
		o.Grow(3)
		o.Write(10, 1, liq)  // slot 1: tickCum 10
		o.Write(20, 2, liq)  // slot 2: tickCum 30
		o.Write(30, 3, liq)  // slot 0: tickCum 60, oldest now at slot 1

		tickCum, _, err := o.ObserveSingle(30, 15, 3, liq)
		require.NoError(t, err)
		// Target 15 sits between the t=10 and t=20 observations.
		assert.EqualValues(t, 10+2*5, tickCum)

		// t=0 fell out of the ring.
		_, _, err = o.ObserveSingle(30, 25, 3, liq)
		assert.ErrorIs(t, err, ErrObservationTooOld)
	})

	t.Run("negative ticks accumulate negatively", func(t *testing.T) {
		o := New()
		o.Initialize(0)
		tickCum, _, err := o.ObserveSingle(10, 0, -5, liq)
		require.NoError(t, err)
		assert.EqualValues(t, -50, tickCum)
	})
}

func TestObserve(t *testing.T) {
	o := New()
	o.Initialize(0)
	o.Grow(2)
	o.Write(10, 5, big.NewInt(4))

	tickCums, spls, err := o.Observe(10, []uint32{10, 5, 0}, 5, big.NewInt(4))
	require.NoError(t, err)
	require.Len(t, tickCums, 3)
	require.Len(t, spls, 3)

	assert.EqualValues(t, 0, tickCums[0])
	assert.EqualValues(t, 25, tickCums[1])
	assert.EqualValues(t, 50, tickCums[2])

	// A 10 second window over constant tick 5 averages to exactly 5.
	assert.EqualValues(t, 5, (tickCums[2]-tickCums[0])/10)
}
