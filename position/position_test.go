package position

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func q128x(n uint64) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(n), 128)
}

func TestNewKey(t *testing.T) {
	t.Run("distinct owners get distinct keys", func(t *testing.T) {
		assert.NotEqual(t, NewKey(alice, -60, 60), NewKey(bob, -60, 60))
	})

	t.Run("distinct ranges get distinct keys", func(t *testing.T) {
		assert.NotEqual(t, NewKey(alice, -60, 60), NewKey(alice, -60, 120))
		assert.NotEqual(t, NewKey(alice, -60, 60), NewKey(alice, -120, 60))
	})

	t.Run("key is deterministic", func(t *testing.T) {
		assert.Equal(t, NewKey(alice, -60, 60), NewKey(alice, -60, 60))
	})

	t.Run("negative ticks do not collide with positive", func(t *testing.T) {
		assert.NotEqual(t, NewKey(alice, -1, 60), NewKey(alice, 1, 60))
	})
}

func TestLedgerGet(t *testing.T) {
	l := NewLedger()

	// Lookups of unknown positions store nothing.
	_, ok := l.Get(alice, -60, 60)
	assert.False(t, ok)
	assert.Zero(t, l.Count())

	e := l.GetOrCreate(alice, -60, 60)
	require.NotNil(t, e)
	assert.Zero(t, e.Liquidity.Sign())
	assert.Equal(t, 1, l.Count())

	// Same owner and range resolves to the same entry.
	e.Liquidity.SetInt64(5)
	again, ok := l.Get(alice, -60, 60)
	require.True(t, ok)
	assert.EqualValues(t, 5, again.Liquidity.Int64())
	assert.Equal(t, 1, l.Count())
}

func TestUpdate(t *testing.T) {
	zero := new(uint256.Int)

	t.Run("poke on empty position fails", func(t *testing.T) {
		e := newEntry()
		err := e.Update(new(big.Int), zero, zero)
		assert.ErrorIs(t, err, ErrNoPosition)
	})

	t.Run("burn beyond balance fails", func(t *testing.T) {
		e := newEntry()
		require.NoError(t, e.Update(big.NewInt(3), zero, zero))
		err := e.Update(big.NewInt(-4), zero, zero)
		assert.ErrorIs(t, err, ErrInsufficientLiquidity)
	})

	t.Run("accrues fees proportional to liquidity", func(t *testing.T) {
		e := newEntry()
		require.NoError(t, e.Update(big.NewInt(1000), zero, zero))

		// 5 units of token0 and 3 of token1 per unit of liquidity.
		require.NoError(t, e.Update(new(big.Int), q128x(5), q128x(3)))
		assert.EqualValues(t, 5000, e.TokensOwed0.Int64())
		assert.EqualValues(t, 3000, e.TokensOwed1.Int64())
	})

	t.Run("fees are settled before the delta applies", func(t *testing.T) {
		e := newEntry()
		require.NoError(t, e.Update(big.NewInt(1000), zero, zero))

		// Growth happened while liquidity was 1000; doubling the position
		// afterwards must not double the accrued fees.
		require.NoError(t, e.Update(big.NewInt(1000), q128x(1), zero))
		assert.EqualValues(t, 1000, e.TokensOwed0.Int64())
		assert.EqualValues(t, 2000, e.Liquidity.Int64())
	})

	t.Run("repeated pokes at the same growth accrue nothing extra", func(t *testing.T) {
		e := newEntry()
		require.NoError(t, e.Update(big.NewInt(1000), zero, zero))
		require.NoError(t, e.Update(new(big.Int), q128x(2), zero))
		owed := new(big.Int).Set(e.TokensOwed0)

		require.NoError(t, e.Update(new(big.Int), q128x(2), zero))
		assert.Zero(t, e.TokensOwed0.Cmp(owed))
	})

	t.Run("wrapped inside accumulator still yields the correct delta", func(t *testing.T) {
		e := newEntry()
		// Last snapshot near the top of the accumulator range.
		nearMax := new(uint256.Int).Sub(new(uint256.Int), q128x(1)) // 2^256 - 2^128
		require.NoError(t, e.Update(big.NewInt(1000), nearMax, zero))

		// Accumulator wrapped past zero; the wrapping difference is 3 << 128.
		require.NoError(t, e.Update(new(big.Int), q128x(2), zero))
		assert.EqualValues(t, 3000, e.TokensOwed0.Int64())
	})

	t.Run("burn to zero still settles fees", func(t *testing.T) {
		e := newEntry()
		require.NoError(t, e.Update(big.NewInt(500), zero, zero))
		require.NoError(t, e.Update(big.NewInt(-500), q128x(4), q128x(4)))
		assert.Zero(t, e.Liquidity.Sign())
		assert.EqualValues(t, 2000, e.TokensOwed0.Int64())
		assert.EqualValues(t, 2000, e.TokensOwed1.Int64())
	})
}

func TestCollect(t *testing.T) {
	zero := new(uint256.Int)

	t.Run("caps at what is owed", func(t *testing.T) {
		e := newEntry()
		require.NoError(t, e.Update(big.NewInt(1000), zero, zero))
		require.NoError(t, e.Update(new(big.Int), q128x(5), q128x(3)))

		got0, got1 := e.Collect(big.NewInt(1_000_000), big.NewInt(1_000_000))
		assert.EqualValues(t, 5000, got0.Int64())
		assert.EqualValues(t, 3000, got1.Int64())
		assert.Zero(t, e.TokensOwed0.Sign())
		assert.Zero(t, e.TokensOwed1.Sign())
	})

	t.Run("partial requests leave the rest owed", func(t *testing.T) {
		e := newEntry()
		require.NoError(t, e.Update(big.NewInt(1000), zero, zero))
		require.NoError(t, e.Update(new(big.Int), q128x(5), zero))

		got0, got1 := e.Collect(big.NewInt(100), new(big.Int))
		assert.EqualValues(t, 100, got0.Int64())
		assert.Zero(t, got1.Sign())
		assert.EqualValues(t, 4900, e.TokensOwed0.Int64())
	})
}
