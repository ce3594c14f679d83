package tick

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defistate/defistate-pool-go/liquiditymath"
)

var (
	zero256 = new(uint256.Int)
	maxLiq  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

func update(t *testing.T, l *Ledger, tick, tickCurrent int64, delta int64, upper bool) bool {
	t.Helper()
	flipped, err := l.Update(tick, tickCurrent, big.NewInt(delta),
		zero256, zero256, zero256, 0, 0, upper, maxLiq)
	require.NoError(t, err)
	return flipped
}

func TestMaxLiquidityPerTick(t *testing.T) {
	cases := []struct {
		spacing int64
		want    string
	}{
		{1, "191757530477355301479181766273477"},
		{10, "1917569901783203986719870431555990"},
		{60, "11505743598341114571880798222544994"},
		{200, "38350317471085141830651933667504588"},
	}
	for _, tc := range cases {
		got := MaxLiquidityPerTick(tc.spacing)
		assert.Equal(t, tc.want, got.String(), "spacing %d", tc.spacing)
	}
}

func TestUpdate(t *testing.T) {
	t.Run("flips from zero to nonzero and back", func(t *testing.T) {
		l := NewLedger()
		assert.True(t, update(t, l, 0, 0, 1, false))
		assert.False(t, update(t, l, 0, 0, 1, false))
		assert.False(t, update(t, l, 0, 0, -1, false))
		assert.True(t, update(t, l, 0, 0, -1, false))
	})

	t.Run("nets out liquidity added as lower and upper", func(t *testing.T) {
		l := NewLedger()
		update(t, l, 2, 1, 3, false)
		update(t, l, 2, 1, 1, true)
		update(t, l, 2, 1, 3, true)
		update(t, l, 2, 1, 1, false)

		e, ok := l.Get(2)
		require.True(t, ok)
		assert.EqualValues(t, 8, e.LiquidityGross.Int64())
		assert.EqualValues(t, 0, e.LiquidityNet.Int64())
	})

	t.Run("rejects liquidity above the cap", func(t *testing.T) {
		l := NewLedger()
		cap := big.NewInt(10)
		_, err := l.Update(0, 0, big.NewInt(5), zero256, zero256, zero256, 0, 0, false, cap)
		require.NoError(t, err)
		_, err = l.Update(0, 0, big.NewInt(6), zero256, zero256, zero256, 0, 0, false, cap)
		assert.ErrorIs(t, err, ErrLiquidityPerTickExceeded)
	})

	t.Run("rejects burning more than exists", func(t *testing.T) {
		l := NewLedger()
		update(t, l, 0, 0, 3, false)
		_, err := l.Update(0, 0, big.NewInt(-4), zero256, zero256, zero256, 0, 0, false, maxLiq)
		assert.ErrorIs(t, err, liquiditymath.ErrLiquidityUnderflow)
	})

	t.Run("seeds outside accumulators for ticks at or below current", func(t *testing.T) {
		l := NewLedger()
		fg0 := uint256.NewInt(100)
		fg1 := uint256.NewInt(200)
		spl := uint256.NewInt(7)

		_, err := l.Update(1, 1, big.NewInt(1), fg0, fg1, spl, 42, 1000, false, maxLiq)
		require.NoError(t, err)

		e, ok := l.Get(1)
		require.True(t, ok)
		assert.True(t, e.Initialized)
		assert.Zero(t, e.FeeGrowthOutside0X128.Cmp(fg0))
		assert.Zero(t, e.FeeGrowthOutside1X128.Cmp(fg1))
		assert.Zero(t, e.SecondsPerLiquidityOutsideX128.Cmp(spl))
		assert.EqualValues(t, 42, e.TickCumulativeOutside)
		assert.EqualValues(t, 1000, e.SecondsOutside)
	})

	t.Run("leaves outside accumulators zero for ticks above current", func(t *testing.T) {
		l := NewLedger()
		_, err := l.Update(2, 1, big.NewInt(1), uint256.NewInt(100), uint256.NewInt(200), uint256.NewInt(7), 42, 1000, false, maxLiq)
		require.NoError(t, err)

		e, ok := l.Get(2)
		require.True(t, ok)
		assert.True(t, e.Initialized)
		assert.True(t, e.FeeGrowthOutside0X128.IsZero())
		assert.True(t, e.FeeGrowthOutside1X128.IsZero())
		assert.EqualValues(t, 0, e.TickCumulativeOutside)
	})

	t.Run("does not reseed an already initialized tick", func(t *testing.T) {
		l := NewLedger()
		_, err := l.Update(1, 1, big.NewInt(1), uint256.NewInt(5), zero256, zero256, 0, 0, false, maxLiq)
		require.NoError(t, err)
		_, err = l.Update(1, 1, big.NewInt(1), uint256.NewInt(99), zero256, zero256, 0, 0, false, maxLiq)
		require.NoError(t, err)

		e, _ := l.Get(1)
		assert.Zero(t, e.FeeGrowthOutside0X128.Cmp(uint256.NewInt(5)))
	})
}

func TestClear(t *testing.T) {
	l := NewLedger()
	update(t, l, 2, 1, 3, false)
	require.Equal(t, 1, l.Count())

	l.Clear(2)
	_, ok := l.Get(2)
	assert.False(t, ok)
	assert.Zero(t, l.Count())
}

func TestCross(t *testing.T) {
	t.Run("flips outside values relative to globals", func(t *testing.T) {
		l := NewLedger()
		_, err := l.Update(2, 2, big.NewInt(5), uint256.NewInt(1), uint256.NewInt(2), uint256.NewInt(3), 4, 5, false, maxLiq)
		require.NoError(t, err)

		net := l.Cross(2, uint256.NewInt(7), uint256.NewInt(9), uint256.NewInt(8), 15, 10)
		assert.EqualValues(t, 5, net.Int64())

		e, _ := l.Get(2)
		assert.Zero(t, e.FeeGrowthOutside0X128.Cmp(uint256.NewInt(6)))
		assert.Zero(t, e.FeeGrowthOutside1X128.Cmp(uint256.NewInt(7)))
		assert.Zero(t, e.SecondsPerLiquidityOutsideX128.Cmp(uint256.NewInt(5)))
		assert.EqualValues(t, 11, e.TickCumulativeOutside)
		assert.EqualValues(t, 5, e.SecondsOutside)
	})

	t.Run("crossing twice restores the original snapshot", func(t *testing.T) {
		l := NewLedger()
		_, err := l.Update(2, 2, big.NewInt(5), uint256.NewInt(1), uint256.NewInt(2), uint256.NewInt(3), 4, 5, false, maxLiq)
		require.NoError(t, err)

		l.Cross(2, uint256.NewInt(7), uint256.NewInt(9), uint256.NewInt(8), 15, 10)
		l.Cross(2, uint256.NewInt(7), uint256.NewInt(9), uint256.NewInt(8), 15, 10)

		e, _ := l.Get(2)
		assert.Zero(t, e.FeeGrowthOutside0X128.Cmp(uint256.NewInt(1)))
		assert.Zero(t, e.FeeGrowthOutside1X128.Cmp(uint256.NewInt(2)))
		assert.EqualValues(t, 4, e.TickCumulativeOutside)
		assert.EqualValues(t, 5, e.SecondsOutside)
	})

	t.Run("outside subtraction wraps", func(t *testing.T) {
		l := NewLedger()
		_, err := l.Update(0, 0, big.NewInt(1), uint256.NewInt(10), zero256, zero256, 0, 0, false, maxLiq)
		require.NoError(t, err)

		// Global accumulator has wrapped past the stored snapshot.
		l.Cross(0, uint256.NewInt(3), zero256, zero256, 0, 0)
		e, _ := l.Get(0)

		want := new(uint256.Int).Sub(uint256.NewInt(3), uint256.NewInt(10))
		assert.Zero(t, e.FeeGrowthOutside0X128.Cmp(want))
	})
}

func TestFeeGrowthInside(t *testing.T) {
	fg := func(n uint64) *uint256.Int { return uint256.NewInt(n) }

	t.Run("uninitialized ticks, price inside", func(t *testing.T) {
		l := NewLedger()
		in0, in1 := l.FeeGrowthInside(-2, 2, 0, fg(15), fg(15))
		assert.Zero(t, in0.Cmp(fg(15)))
		assert.Zero(t, in1.Cmp(fg(15)))
	})

	t.Run("reads store nothing for absent ticks", func(t *testing.T) {
		l := NewLedger()
		l.FeeGrowthInside(-2, 2, 0, fg(15), fg(15))
		assert.Zero(t, l.Count())
	})

	t.Run("growth above the range is excluded", func(t *testing.T) {
		l := NewLedger()
		e := l.get(2)
		e.FeeGrowthOutside0X128.SetUint64(2)
		e.FeeGrowthOutside1X128.SetUint64(3)
		e.Initialized = true

		in0, in1 := l.FeeGrowthInside(-2, 2, 0, fg(15), fg(15))
		assert.Zero(t, in0.Cmp(fg(13)))
		assert.Zero(t, in1.Cmp(fg(12)))
	})

	t.Run("growth below the range is excluded", func(t *testing.T) {
		l := NewLedger()
		e := l.get(-2)
		e.FeeGrowthOutside0X128.SetUint64(2)
		e.FeeGrowthOutside1X128.SetUint64(3)
		e.Initialized = true

		in0, in1 := l.FeeGrowthInside(-2, 2, 0, fg(15), fg(15))
		assert.Zero(t, in0.Cmp(fg(13)))
		assert.Zero(t, in1.Cmp(fg(12)))
	})

	t.Run("both boundary snapshots subtracted", func(t *testing.T) {
		l := NewLedger()
		lo := l.get(-2)
		lo.FeeGrowthOutside0X128.SetUint64(2)
		lo.FeeGrowthOutside1X128.SetUint64(3)
		lo.Initialized = true
		hi := l.get(2)
		hi.FeeGrowthOutside0X128.SetUint64(4)
		hi.FeeGrowthOutside1X128.SetUint64(1)
		hi.Initialized = true

		in0, in1 := l.FeeGrowthInside(-2, 2, 0, fg(15), fg(15))
		assert.Zero(t, in0.Cmp(fg(9)))
		assert.Zero(t, in1.Cmp(fg(11)))
	})

	t.Run("wraps when outside exceeds global", func(t *testing.T) {
		l := NewLedger()
		lo := l.get(-2)
		lo.FeeGrowthOutside0X128 = new(uint256.Int).Sub(new(uint256.Int), uint256.NewInt(3)) // max - 2
		lo.Initialized = true
		hi := l.get(2)
		hi.FeeGrowthOutside0X128 = new(uint256.Int).Sub(new(uint256.Int), uint256.NewInt(2)) // max - 1
		hi.Initialized = true

		in0, _ := l.FeeGrowthInside(-2, 2, 0, fg(15), fg(15))
		assert.Zero(t, in0.Cmp(fg(20)))
	})

	t.Run("price below the range reads lower tick relative to global", func(t *testing.T) {
		l := NewLedger()
		lo := l.get(-2)
		lo.FeeGrowthOutside0X128.SetUint64(2)
		lo.Initialized = true

		// Current tick below the range: growth below = global - outside(lower).
		in0, _ := l.FeeGrowthInside(-2, 2, -3, fg(15), fg(15))
		assert.Zero(t, in0.Cmp(fg(2)))
	})
}

func TestCumulativesInside(t *testing.T) {
	seed := func(t *testing.T, l *Ledger, tk int64, tickCum int64, spl uint64, seconds uint32) {
		t.Helper()
		e := l.get(tk)
		e.TickCumulativeOutside = tickCum
		e.SecondsPerLiquidityOutsideX128.SetUint64(spl)
		e.SecondsOutside = seconds
		e.Initialized = true
	}

	t.Run("requires both boundaries", func(t *testing.T) {
		l := NewLedger()
		seed(t, l, -60, 0, 0, 0)
		_, _, _, err := l.CumulativesInside(-60, 60, 0, 0, zero256, 100)
		assert.ErrorIs(t, err, ErrTickNotInitialized)
	})

	t.Run("stored but uninitialized entries do not count", func(t *testing.T) {
		l := NewLedger()
		l.get(-60)
		l.get(60)
		_, _, _, err := l.CumulativesInside(-60, 60, 0, 0, zero256, 100)
		assert.ErrorIs(t, err, ErrTickNotInitialized)
	})

	t.Run("price inside subtracts both outsides", func(t *testing.T) {
		l := NewLedger()
		seed(t, l, -60, 10, 3, 100)
		seed(t, l, 60, 4, 1, 20)

		tickCum, spl, seconds, err := l.CumulativesInside(-60, 60, 0, 100, uint256.NewInt(9), 150)
		require.NoError(t, err)
		assert.EqualValues(t, 86, tickCum)
		assert.Zero(t, spl.Cmp(uint256.NewInt(5)))
		assert.EqualValues(t, 30, seconds)
	})

	t.Run("price below reads the boundary snapshots directly", func(t *testing.T) {
		l := NewLedger()
		seed(t, l, -60, 10, 3, 100)
		seed(t, l, 60, 4, 1, 20)

		tickCum, spl, seconds, err := l.CumulativesInside(-60, 60, -100, 999, uint256.NewInt(99), 999)
		require.NoError(t, err)
		assert.EqualValues(t, 6, tickCum)
		assert.Zero(t, spl.Cmp(uint256.NewInt(2)))
		assert.EqualValues(t, 80, seconds)
	})

	t.Run("price above mirrors the below case", func(t *testing.T) {
		l := NewLedger()
		seed(t, l, -60, 4, 1, 20)
		seed(t, l, 60, 10, 3, 100)

		tickCum, spl, seconds, err := l.CumulativesInside(-60, 60, 100, 999, uint256.NewInt(99), 999)
		require.NoError(t, err)
		assert.EqualValues(t, 6, tickCum)
		assert.Zero(t, spl.Cmp(uint256.NewInt(2)))
		assert.EqualValues(t, 80, seconds)
	})
}
