// Package feemanager lets a pool's swap fee be adjusted per trade by a
// pluggable policy. Policies see only the pool's base fee and return the fee
// to charge, in hundredths of a bip.
package feemanager

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrBalanceUnavailable is returned when a balance-dependent policy cannot
// read the balance it needs.
var ErrBalanceUnavailable = errors.New("balance lookup failed")

// FeeManager decides the fee for one swap. Implementations must treat the
// call as read-only pool state; the engine clamps the result below 100%.
type FeeManager interface {
	ComputeFee(baseFee uint32) (uint32, error)
}

// Passthrough charges the pool's base fee unchanged.
type Passthrough struct{}

func (Passthrough) ComputeFee(baseFee uint32) (uint32, error) {
	return baseFee, nil
}

// StaticOverride replaces the base fee with a fixed value.
type StaticOverride struct {
	Fee uint32
}

func (s StaticOverride) ComputeFee(uint32) (uint32, error) {
	return s.Fee, nil
}

// Tier grants a discounted fee to traders holding at least MinBalance of
// some token.
type Tier struct {
	MinBalance *big.Int
	Fee        uint32
}

// TieredDiscount charges a reduced fee based on the trade origin's token
// balance. Tiers must be ordered by descending MinBalance; the first tier the
// balance satisfies wins, and the base fee applies when none do.
//
// Discounts key off the transaction origin rather than the immediate caller,
// so routing through an intermediary contract does not change the tier.
type TieredDiscount struct {
	BalanceOf func(common.Address) (*big.Int, error)
	Origin    common.Address
	Tiers     []Tier
}

func (d TieredDiscount) ComputeFee(baseFee uint32) (uint32, error) {
	if d.BalanceOf == nil {
		return baseFee, nil
	}
	balance, err := d.BalanceOf(d.Origin)
	if err != nil {
		return 0, errors.Join(ErrBalanceUnavailable, err)
	}
	for _, tier := range d.Tiers {
		if balance.Cmp(tier.MinBalance) >= 0 {
			return tier.Fee, nil
		}
	}
	return baseFee, nil
}
