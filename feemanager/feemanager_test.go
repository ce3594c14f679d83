package feemanager

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trader = common.HexToAddress("0x3333333333333333333333333333333333333333")

func TestPassthrough(t *testing.T) {
	fee, err := Passthrough{}.ComputeFee(3000)
	require.NoError(t, err)
	assert.EqualValues(t, 3000, fee)
}

func TestStaticOverride(t *testing.T) {
	fee, err := StaticOverride{Fee: 100}.ComputeFee(3000)
	require.NoError(t, err)
	assert.EqualValues(t, 100, fee)
}

func TestTieredDiscount(t *testing.T) {
	tiers := []Tier{
		{MinBalance: big.NewInt(1000), Fee: 500},
		{MinBalance: big.NewInt(100), Fee: 1500},
	}

	newManager := func(balance int64) TieredDiscount {
		return TieredDiscount{
			BalanceOf: func(addr common.Address) (*big.Int, error) {
				if addr != trader {
					return nil, errors.New("unknown account")
				}
				return big.NewInt(balance), nil
			},
			Origin: trader,
			Tiers:  tiers,
		}
	}

	t.Run("top tier", func(t *testing.T) {
		fee, err := newManager(5000).ComputeFee(3000)
		require.NoError(t, err)
		assert.EqualValues(t, 500, fee)
	})

	t.Run("boundary balance qualifies", func(t *testing.T) {
		fee, err := newManager(100).ComputeFee(3000)
		require.NoError(t, err)
		assert.EqualValues(t, 1500, fee)
	})

	t.Run("below all tiers pays the base fee", func(t *testing.T) {
		fee, err := newManager(99).ComputeFee(3000)
		require.NoError(t, err)
		assert.EqualValues(t, 3000, fee)
	})

	t.Run("nil balance reader passes through", func(t *testing.T) {
		fee, err := TieredDiscount{Origin: trader, Tiers: tiers}.ComputeFee(3000)
		require.NoError(t, err)
		assert.EqualValues(t, 3000, fee)
	})

	t.Run("balance lookup failure surfaces", func(t *testing.T) {
		m := newManager(0)
		m.Origin = common.HexToAddress("0x04")
		_, err := m.ComputeFee(3000)
		assert.ErrorIs(t, err, ErrBalanceUnavailable)
	})
}
