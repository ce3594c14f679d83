// Package position tracks per-owner liquidity positions keyed by owner and
// tick range, along with the fees each position has earned but not yet
// collected.
package position

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/defistate/defistate-pool-go/fullmath"
	"github.com/defistate/defistate-pool-go/liquiditymath"
)

var (
	// ErrNoPosition is returned when a zero-delta poke targets a position
	// that holds no liquidity.
	ErrNoPosition = errors.New("position has no liquidity")
	// ErrInsufficientLiquidity is returned when a burn exceeds the
	// position's liquidity.
	ErrInsufficientLiquidity = errors.New("burn exceeds position liquidity")
)

// Key uniquely identifies a position by owner and tick range.
type Key [32]byte

// NewKey hashes the owner address and tick bounds into a position key.
func NewKey(owner common.Address, tickLower, tickUpper int64) Key {
	var lower, upper [8]byte
	for i := 0; i < 8; i++ {
		lower[i] = byte(uint64(tickLower) >> (56 - 8*i))
		upper[i] = byte(uint64(tickUpper) >> (56 - 8*i))
	}
	var k Key
	copy(k[:], crypto.Keccak256(owner.Bytes(), lower[:], upper[:]))
	return k
}

// Entry is the state of one position.
type Entry struct {
	// Liquidity currently provided by this position.
	Liquidity *big.Int
	// Fee growth inside the range as of the last update, used to compute
	// the fees accrued since.
	FeeGrowthInside0LastX128 *uint256.Int
	FeeGrowthInside1LastX128 *uint256.Int
	// Fees owed to the owner, collectable via the pool.
	TokensOwed0 *big.Int
	TokensOwed1 *big.Int
}

func newEntry() *Entry {
	return &Entry{
		Liquidity:                new(big.Int),
		FeeGrowthInside0LastX128: new(uint256.Int),
		FeeGrowthInside1LastX128: new(uint256.Int),
		TokensOwed0:              new(big.Int),
		TokensOwed1:              new(big.Int),
	}
}

// Ledger stores positions by key.
type Ledger struct {
	entries map[Key]*Entry
}

// NewLedger returns an empty position ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[Key]*Entry)}
}

// Get returns the position for the given owner and range, if it exists.
// Lookups never insert entries, so queries on arbitrary keys cannot grow the
// ledger.
func (l *Ledger) Get(owner common.Address, tickLower, tickUpper int64) (*Entry, bool) {
	e, ok := l.entries[NewKey(owner, tickLower, tickUpper)]
	return e, ok
}

// GetOrCreate returns the position for the given owner and range, creating an
// empty one on first reference.
func (l *Ledger) GetOrCreate(owner common.Address, tickLower, tickUpper int64) *Entry {
	k := NewKey(owner, tickLower, tickUpper)
	if e, ok := l.entries[k]; ok {
		return e
	}
	e := newEntry()
	l.entries[k] = e
	return e
}

// Count returns the number of stored positions.
func (l *Ledger) Count() int {
	return len(l.entries)
}

// Update applies a liquidity delta to the position and credits fees accrued
// since the last update, based on the current fee growth inside the range.
//
// A zero delta is a poke: it only settles fees, and fails if the position is
// empty. Accrued fees are computed from the wrapping difference of the inside
// accumulators, so they stay correct across accumulator overflow.
func (e *Entry) Update(liquidityDelta *big.Int, feeGrowthInside0X128, feeGrowthInside1X128 *uint256.Int) error {
	var liquidityNext *big.Int
	if liquidityDelta.Sign() == 0 {
		if e.Liquidity.Sign() == 0 {
			return ErrNoPosition
		}
		liquidityNext = e.Liquidity
	} else {
		liquidityNext = new(big.Int)
		if err := liquiditymath.AddDelta(liquidityNext, e.Liquidity, liquidityDelta); err != nil {
			if errors.Is(err, liquiditymath.ErrLiquidityUnderflow) {
				return ErrInsufficientLiquidity
			}
			return err
		}
	}

	delta0 := new(uint256.Int).Sub(feeGrowthInside0X128, e.FeeGrowthInside0LastX128)
	delta1 := new(uint256.Int).Sub(feeGrowthInside1X128, e.FeeGrowthInside1LastX128)

	owed0, owed1 := new(big.Int), new(big.Int)
	if err := fullmath.MulDiv(owed0, delta0.ToBig(), e.Liquidity, fullmath.Q128); err != nil {
		return err
	}
	if err := fullmath.MulDiv(owed1, delta1.ToBig(), e.Liquidity, fullmath.Q128); err != nil {
		return err
	}

	if liquidityDelta.Sign() != 0 {
		e.Liquidity.Set(liquidityNext)
	}
	e.FeeGrowthInside0LastX128.Set(feeGrowthInside0X128)
	e.FeeGrowthInside1LastX128.Set(feeGrowthInside1X128)
	e.TokensOwed0.Add(e.TokensOwed0, owed0)
	e.TokensOwed1.Add(e.TokensOwed1, owed1)
	return nil
}

// Collect decrements the owed balances by up to the requested amounts and
// returns what was taken.
func (e *Entry) Collect(amount0Requested, amount1Requested *big.Int) (amount0, amount1 *big.Int) {
	amount0 = new(big.Int).Set(amount0Requested)
	if amount0.Cmp(e.TokensOwed0) > 0 {
		amount0.Set(e.TokensOwed0)
	}
	amount1 = new(big.Int).Set(amount1Requested)
	if amount1.Cmp(e.TokensOwed1) > 0 {
		amount1.Set(e.TokensOwed1)
	}
	e.TokensOwed0.Sub(e.TokensOwed0, amount0)
	e.TokensOwed1.Sub(e.TokensOwed1, amount1)
	return amount0, amount1
}
