// Package pool implements a concentrated liquidity pool for a pair of
// tokens. Liquidity providers mint positions over tick ranges, traders swap
// against the aggregate liquidity, and the pool tracks fee growth, protocol
// fees, and a price history oracle.
package pool

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/defistate/defistate-pool-go/feemanager"
	"github.com/defistate/defistate-pool-go/liquiditymath"
	"github.com/defistate/defistate-pool-go/oracle"
	"github.com/defistate/defistate-pool-go/position"
	"github.com/defistate/defistate-pool-go/sqrtpricemath"
	"github.com/defistate/defistate-pool-go/tick"
	"github.com/defistate/defistate-pool-go/tickbitmap"
	"github.com/defistate/defistate-pool-go/tickmath"
)

var (
	// ErrLocked is returned when an operation reenters the pool while
	// another operation is in flight, including from inside a callback.
	ErrLocked = errors.New("pool is locked")
	// ErrNotInitialized is returned for operations on a pool with no price.
	ErrNotInitialized = errors.New("pool not initialized")
	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("pool already initialized")
	// ErrInvalidTickRange is returned when tickLower is not below tickUpper.
	ErrInvalidTickRange = errors.New("tick lower must be below tick upper")
	// ErrZeroAmount is returned for mints and swaps of nothing.
	ErrZeroAmount = errors.New("amount must be nonzero")
	// ErrInvalidPriceLimit is returned when a swap's price limit is on the
	// wrong side of the current price or outside the representable range.
	ErrInvalidPriceLimit = errors.New("invalid sqrt price limit")
	// ErrCallbackBalance is returned when a callback does not deliver the
	// tokens it owes.
	ErrCallbackBalance = errors.New("callback did not pay amounts owed")
	// ErrInsufficientLiquidity is returned when a swap cannot exchange
	// anything at all.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for swap")
	// ErrNotOwner is returned when a permissioned operation is attempted by
	// a non-owner.
	ErrNotOwner = errors.New("caller is not the pool owner")
	// ErrInvalidFeeProtocol is returned for protocol fee denominators
	// outside 0 or [4, 10].
	ErrInvalidFeeProtocol = errors.New("protocol fee must be 0 or between 4 and 10")
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// BalanceReader reports the pool's token holdings. The pool never moves
// tokens itself; it verifies callback payments against these balances.
type BalanceReader interface {
	Balance0() (*big.Int, error)
	Balance1() (*big.Int, error)
}

// MintCallback must deliver the owed token amounts to the pool before it
// returns.
type MintCallback func(amount0Owed, amount1Owed *big.Int) error

// SwapCallback receives the signed token deltas of a swap; positive values
// are owed to the pool and must be delivered before the callback returns.
type SwapCallback func(amount0Delta, amount1Delta *big.Int) error

// Config carries the immutable parameters and dependencies of a pool.
type Config struct {
	Token0 common.Address
	Token1 common.Address
	// Fee is the base swap fee in hundredths of a bip.
	Fee         uint32
	TickSpacing int64
	// Owner may set protocol fees and collect them.
	Owner common.Address

	// FeeManager optionally adjusts the fee per swap; nil charges Fee.
	FeeManager feemanager.FeeManager
	Balances   BalanceReader
	Logger     Logger
	Registry   prometheus.Registerer
	// Now supplies the current time as a wrapping uint32; nil uses the
	// wall clock.
	Now func() uint32
}

func (c *Config) validate() error {
	if c.Token0 == c.Token1 {
		return errors.New("config: Token0 and Token1 must differ")
	}
	if c.Fee >= 1_000_000 {
		return errors.New("config: Fee must be below 100%")
	}
	if c.TickSpacing < 1 || c.TickSpacing > 16384 {
		return errors.New("config: TickSpacing out of range")
	}
	if c.Balances == nil {
		return errors.New("config: Balances cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	return nil
}

// Slot0 is the frequently accessed bundle of pool state.
type Slot0 struct {
	SqrtPriceX96               *big.Int
	Tick                       int64
	ObservationIndex           uint16
	ObservationCardinality     uint16
	ObservationCardinalityNext uint16
	// FeeProtocol packs the token0 denominator in the low nibble and the
	// token1 denominator in the high nibble.
	FeeProtocol uint8
	Unlocked    bool
}

// Pool is a concentrated liquidity pool.
type Pool struct {
	cfg        Config
	feeManager feemanager.FeeManager
	logger     Logger
	metrics    *Metrics
	now        func() uint32

	// mu guards only the Unlocked flag, so a reentrant call observes the
	// lock instead of deadlocking on it.
	mu    sync.Mutex
	slot0 Slot0

	feeGrowthGlobal0X128 *uint256.Int
	feeGrowthGlobal1X128 *uint256.Int
	protocolFees0        *big.Int
	protocolFees1        *big.Int

	liquidity           *big.Int
	maxLiquidityPerTick *big.Int

	ticks        *tick.Ledger
	bitmap       tickbitmap.Bitmap
	positions    *position.Ledger
	observations *oracle.Oracle
}

// New constructs a pool from a configuration. The pool holds no price until
// Initialize is called.
func New(cfg *Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	feeManager := cfg.FeeManager
	if feeManager == nil {
		feeManager = feemanager.Passthrough{}
	}
	now := cfg.Now
	if now == nil {
		now = func() uint32 { return uint32(time.Now().Unix()) }
	}

	return &Pool{
		cfg:                  *cfg,
		feeManager:           feeManager,
		logger:               cfg.Logger,
		metrics:              NewMetrics(cfg.Registry),
		now:                  now,
		feeGrowthGlobal0X128: new(uint256.Int),
		feeGrowthGlobal1X128: new(uint256.Int),
		protocolFees0:        new(big.Int),
		protocolFees1:        new(big.Int),
		liquidity:            new(big.Int),
		maxLiquidityPerTick:  tick.MaxLiquidityPerTick(cfg.TickSpacing),
		ticks:                tick.NewLedger(),
		bitmap:               tickbitmap.New(),
		positions:            position.NewLedger(),
		observations:         oracle.New(),
	}, nil
}

// lock acquires the pool for one operation; reentrant calls get ErrLocked.
func (p *Pool) lock() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.slot0.Unlocked {
		return ErrLocked
	}
	p.slot0.Unlocked = false
	return nil
}

func (p *Pool) unlock() {
	p.mu.Lock()
	p.slot0.Unlocked = true
	p.mu.Unlock()
}

func (p *Pool) initialized() bool {
	return p.slot0.SqrtPriceX96 != nil
}

// Initialize sets the pool's starting price and records the first oracle
// observation. It may be called exactly once.
func (p *Pool) Initialize(sqrtPriceX96 *big.Int) error {
	if p.initialized() {
		return ErrAlreadyInitialized
	}

	initialTick, err := tickmath.TickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return err
	}

	p.observations.Initialize(p.now())
	p.slot0 = Slot0{
		SqrtPriceX96:               new(big.Int).Set(sqrtPriceX96),
		Tick:                       initialTick,
		ObservationCardinality:     1,
		ObservationCardinalityNext: 1,
		Unlocked:                   true,
	}

	p.logger.Info("pool initialized",
		"token0", p.cfg.Token0, "token1", p.cfg.Token1,
		"sqrt_price_x96", sqrtPriceX96.String(), "tick", initialTick)
	return nil
}

func checkTicks(tickLower, tickUpper int64) error {
	if tickLower >= tickUpper {
		return ErrInvalidTickRange
	}
	if tickLower < tickmath.MinTick || tickUpper > tickmath.MaxTick {
		return tickmath.ErrTickOutOfBounds
	}
	return nil
}

// signedAmount0 computes the token0 delta for a liquidity change over a price
// range; mints round against the provider, burns round in the pool's favor.
func signedAmount0(dest, sqrtRatioAX96, sqrtRatioBX96, liquidityDelta *big.Int) error {
	if liquidityDelta.Sign() < 0 {
		abs := new(big.Int).Neg(liquidityDelta)
		if err := sqrtpricemath.Amount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, abs, false); err != nil {
			return err
		}
		dest.Neg(dest)
		return nil
	}
	return sqrtpricemath.Amount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidityDelta, true)
}

func signedAmount1(dest, sqrtRatioAX96, sqrtRatioBX96, liquidityDelta *big.Int) error {
	if liquidityDelta.Sign() < 0 {
		abs := new(big.Int).Neg(liquidityDelta)
		if err := sqrtpricemath.Amount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, abs, false); err != nil {
			return err
		}
		dest.Neg(dest)
		return nil
	}
	return sqrtpricemath.Amount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidityDelta, true)
}

// writeObservation records the current tick and liquidity in the oracle and
// syncs the cursor state into slot0.
func (p *Pool) writeObservation() {
	p.observations.Write(p.now(), p.slot0.Tick, p.liquidity)
	p.slot0.ObservationIndex = p.observations.Index()
	p.slot0.ObservationCardinality = p.observations.Cardinality()
}

// updatePosition applies a liquidity delta to a position and its boundary
// ticks. A failed boundary update is rolled back before returning.
func (p *Pool) updatePosition(owner common.Address, tickLower, tickUpper int64, liquidityDelta *big.Int) (*position.Entry, error) {
	pos, ok := p.positions.Get(owner, tickLower, tickUpper)
	if !ok {
		if liquidityDelta.Sign() <= 0 {
			return nil, position.ErrNoPosition
		}
		pos = p.positions.GetOrCreate(owner, tickLower, tickUpper)
	}

	if liquidityDelta.Sign() < 0 {
		abs := new(big.Int).Neg(liquidityDelta)
		if pos.Liquidity.Cmp(abs) < 0 {
			return nil, position.ErrInsufficientLiquidity
		}
	}

	var flippedLower, flippedUpper bool
	if liquidityDelta.Sign() != 0 {
		time := p.now()
		tickCumulative, secondsPerLiquidity, err := p.observations.ObserveSingle(time, 0, p.slot0.Tick, p.liquidity)
		if err != nil {
			return nil, err
		}

		flippedLower, err = p.ticks.Update(tickLower, p.slot0.Tick, liquidityDelta,
			p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128,
			secondsPerLiquidity, tickCumulative, time, false, p.maxLiquidityPerTick)
		if err != nil {
			return nil, err
		}
		flippedUpper, err = p.ticks.Update(tickUpper, p.slot0.Tick, liquidityDelta,
			p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128,
			secondsPerLiquidity, tickCumulative, time, true, p.maxLiquidityPerTick)
		if err != nil {
			// Undo the lower tick so the ledger stays consistent.
			inverse := new(big.Int).Neg(liquidityDelta)
			undone, _ := p.ticks.Update(tickLower, p.slot0.Tick, inverse,
				p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128,
				secondsPerLiquidity, tickCumulative, time, false, p.maxLiquidityPerTick)
			if undone {
				p.ticks.Clear(tickLower)
			}
			return nil, err
		}

		if flippedLower {
			if err := p.bitmap.FlipTick(tickLower, p.cfg.TickSpacing); err != nil {
				return nil, err
			}
		}
		if flippedUpper {
			if err := p.bitmap.FlipTick(tickUpper, p.cfg.TickSpacing); err != nil {
				return nil, err
			}
		}
	}

	inside0, inside1 := p.ticks.FeeGrowthInside(tickLower, tickUpper, p.slot0.Tick,
		p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128)
	if err := pos.Update(liquidityDelta, inside0, inside1); err != nil {
		return nil, err
	}

	if liquidityDelta.Sign() < 0 {
		if flippedLower {
			p.ticks.Clear(tickLower)
		}
		if flippedUpper {
			p.ticks.Clear(tickUpper)
		}
	}
	return pos, nil
}

// modifyPosition updates a position and returns the signed token amounts the
// change moves; positive amounts are owed to the pool.
func (p *Pool) modifyPosition(owner common.Address, tickLower, tickUpper int64, liquidityDelta *big.Int) (*position.Entry, *big.Int, *big.Int, error) {
	if err := checkTicks(tickLower, tickUpper); err != nil {
		return nil, nil, nil, err
	}
	if tickLower%p.cfg.TickSpacing != 0 || tickUpper%p.cfg.TickSpacing != 0 {
		return nil, nil, nil, tickbitmap.ErrTickNotSpaced
	}

	pos, err := p.updatePosition(owner, tickLower, tickUpper, liquidityDelta)
	if err != nil {
		return nil, nil, nil, err
	}

	amount0, amount1 := new(big.Int), new(big.Int)
	if liquidityDelta.Sign() != 0 {
		sqrtLower, sqrtUpper := new(big.Int), new(big.Int)
		if err := tickmath.SqrtRatioAtTick(sqrtLower, tickLower); err != nil {
			return nil, nil, nil, err
		}
		if err := tickmath.SqrtRatioAtTick(sqrtUpper, tickUpper); err != nil {
			return nil, nil, nil, err
		}

		switch {
		case p.slot0.Tick < tickLower:
			// Price below the range: the position is entirely token0.
			if err := signedAmount0(amount0, sqrtLower, sqrtUpper, liquidityDelta); err != nil {
				return nil, nil, nil, err
			}
		case p.slot0.Tick < tickUpper:
			// In range: the change affects active liquidity, so the oracle
			// gets an observation at the pre-change liquidity.
			p.writeObservation()

			if err := signedAmount0(amount0, p.slot0.SqrtPriceX96, sqrtUpper, liquidityDelta); err != nil {
				return nil, nil, nil, err
			}
			if err := signedAmount1(amount1, sqrtLower, p.slot0.SqrtPriceX96, liquidityDelta); err != nil {
				return nil, nil, nil, err
			}

			liquidityAfter := new(big.Int)
			if err := liquiditymath.AddDelta(liquidityAfter, p.liquidity, liquidityDelta); err != nil {
				return nil, nil, nil, err
			}
			p.liquidity.Set(liquidityAfter)
		default:
			// Price above the range: entirely token1.
			if err := signedAmount1(amount1, sqrtLower, sqrtUpper, liquidityDelta); err != nil {
				return nil, nil, nil, err
			}
		}
	}
	return pos, amount0, amount1, nil
}

// Mint adds liquidity to a position. The callback must deliver the returned
// token amounts to the pool; delivery is verified against the pool balances
// and the mint is rolled back if it falls short.
func (p *Pool) Mint(recipient common.Address, tickLower, tickUpper int64, amount *big.Int, callback MintCallback) (*big.Int, *big.Int, error) {
	if !p.initialized() {
		return nil, nil, ErrNotInitialized
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	if amount.Sign() <= 0 {
		return nil, nil, ErrZeroAmount
	}

	_, amount0, amount1, err := p.modifyPosition(recipient, tickLower, tickUpper, amount)
	if err != nil {
		return nil, nil, err
	}

	if err := p.settleMint(tickLower, tickUpper, recipient, amount, amount0, amount1, callback); err != nil {
		return nil, nil, err
	}

	p.metrics.mints.Inc()
	p.logger.Debug("mint",
		"recipient", recipient, "tick_lower", tickLower, "tick_upper", tickUpper,
		"liquidity", amount.String(), "amount0", amount0.String(), "amount1", amount1.String())
	return amount0, amount1, nil
}

// settleMint runs the payment callback and verifies the pool received the
// owed amounts, undoing the position change on failure.
func (p *Pool) settleMint(tickLower, tickUpper int64, recipient common.Address, amount, amount0, amount1 *big.Int, callback MintCallback) error {
	rollback := func() {
		inverse := new(big.Int).Neg(amount)
		if _, _, _, err := p.modifyPosition(recipient, tickLower, tickUpper, inverse); err != nil {
			p.logger.Error("mint rollback failed", "error", err)
		}
	}

	var balance0Before, balance1Before *big.Int
	var err error
	if amount0.Sign() > 0 {
		if balance0Before, err = p.cfg.Balances.Balance0(); err != nil {
			rollback()
			return err
		}
	}
	if amount1.Sign() > 0 {
		if balance1Before, err = p.cfg.Balances.Balance1(); err != nil {
			rollback()
			return err
		}
	}

	if err := callback(amount0, amount1); err != nil {
		rollback()
		return err
	}

	if amount0.Sign() > 0 {
		balance0, err := p.cfg.Balances.Balance0()
		if err != nil {
			rollback()
			return err
		}
		if balance0.Cmp(new(big.Int).Add(balance0Before, amount0)) < 0 {
			rollback()
			return ErrCallbackBalance
		}
	}
	if amount1.Sign() > 0 {
		balance1, err := p.cfg.Balances.Balance1()
		if err != nil {
			rollback()
			return err
		}
		if balance1.Cmp(new(big.Int).Add(balance1Before, amount1)) < 0 {
			rollback()
			return ErrCallbackBalance
		}
	}
	return nil
}

// Burn removes liquidity from a position and credits the freed tokens plus
// accrued fees as collectable. A zero amount is a poke that only settles
// fees.
func (p *Pool) Burn(owner common.Address, tickLower, tickUpper int64, amount *big.Int) (*big.Int, *big.Int, error) {
	if !p.initialized() {
		return nil, nil, ErrNotInitialized
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	if amount.Sign() < 0 {
		return nil, nil, ErrZeroAmount
	}

	delta := new(big.Int).Neg(amount)
	pos, amount0, amount1, err := p.modifyPosition(owner, tickLower, tickUpper, delta)
	if err != nil {
		return nil, nil, err
	}

	amount0.Neg(amount0)
	amount1.Neg(amount1)
	if amount0.Sign() > 0 {
		pos.TokensOwed0.Add(pos.TokensOwed0, amount0)
	}
	if amount1.Sign() > 0 {
		pos.TokensOwed1.Add(pos.TokensOwed1, amount1)
	}

	p.metrics.burns.Inc()
	p.logger.Debug("burn",
		"owner", owner, "tick_lower", tickLower, "tick_upper", tickUpper,
		"liquidity", amount.String(), "amount0", amount0.String(), "amount1", amount1.String())
	return amount0, amount1, nil
}

// Collect pays out tokens owed to a position, up to the requested amounts.
// The returned values are what was actually collected.
func (p *Pool) Collect(owner, recipient common.Address, tickLower, tickUpper int64, amount0Requested, amount1Requested *big.Int) (*big.Int, *big.Int, error) {
	if !p.initialized() {
		return nil, nil, ErrNotInitialized
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	pos, ok := p.positions.Get(owner, tickLower, tickUpper)
	if !ok {
		return nil, nil, position.ErrNoPosition
	}
	amount0, amount1 := pos.Collect(amount0Requested, amount1Requested)

	p.metrics.collects.Inc()
	p.logger.Debug("collect",
		"owner", owner, "recipient", recipient,
		"amount0", amount0.String(), "amount1", amount1.String())
	return amount0, amount1, nil
}

func bigMin(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// Observe returns the cumulative tick and seconds-per-liquidity values as of
// each of secondsAgos before now.
func (p *Pool) Observe(secondsAgos []uint32) ([]int64, []*uint256.Int, error) {
	if !p.initialized() {
		return nil, nil, ErrNotInitialized
	}
	return p.observations.Observe(p.now(), secondsAgos, p.slot0.Tick, p.liquidity)
}

// SnapshotCumulativesInside returns the cumulative tick, seconds per
// liquidity, and seconds spent inside a tick range. Both boundary ticks must
// be initialized, and snapshots are only comparable across a period in which
// they stay initialized.
func (p *Pool) SnapshotCumulativesInside(tickLower, tickUpper int64) (tickCumulativeInside int64, secondsPerLiquidityInsideX128 *uint256.Int, secondsInside uint32, err error) {
	if !p.initialized() {
		return 0, nil, 0, ErrNotInitialized
	}
	if err := checkTicks(tickLower, tickUpper); err != nil {
		return 0, nil, 0, err
	}

	time := p.now()
	tickCumulative, secondsPerLiquidity, err := p.observations.ObserveSingle(time, 0, p.slot0.Tick, p.liquidity)
	if err != nil {
		return 0, nil, 0, err
	}
	return p.ticks.CumulativesInside(tickLower, tickUpper, p.slot0.Tick,
		tickCumulative, secondsPerLiquidity, time)
}

// IncreaseObservationCardinalityNext grows the oracle ring toward the given
// size. Shrinking is a no-op.
func (p *Pool) IncreaseObservationCardinalityNext(observationCardinalityNext uint16) error {
	if !p.initialized() {
		return ErrNotInitialized
	}
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	old := p.slot0.ObservationCardinalityNext
	next := p.observations.Grow(observationCardinalityNext)
	p.slot0.ObservationCardinalityNext = next
	if next != old {
		p.logger.Info("observation cardinality increased", "old", old, "new", next)
	}
	return nil
}

// SetFeeProtocol sets the fraction of swap fees diverted to the protocol,
// expressed as a denominator per token: 0 disables, otherwise 1/n of fees.
func (p *Pool) SetFeeProtocol(caller common.Address, feeProtocol0, feeProtocol1 uint8) error {
	if caller != p.cfg.Owner {
		return ErrNotOwner
	}
	if !p.initialized() {
		return ErrNotInitialized
	}
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if (feeProtocol0 != 0 && (feeProtocol0 < 4 || feeProtocol0 > 10)) ||
		(feeProtocol1 != 0 && (feeProtocol1 < 4 || feeProtocol1 > 10)) {
		return ErrInvalidFeeProtocol
	}

	old := p.slot0.FeeProtocol
	p.slot0.FeeProtocol = feeProtocol0 + (feeProtocol1 << 4)
	p.logger.Info("protocol fee updated", "old", old, "new", p.slot0.FeeProtocol)
	return nil
}

// CollectProtocol pays out accrued protocol fees, up to the requested
// amounts.
func (p *Pool) CollectProtocol(caller, recipient common.Address, amount0Requested, amount1Requested *big.Int) (*big.Int, *big.Int, error) {
	if caller != p.cfg.Owner {
		return nil, nil, ErrNotOwner
	}
	if !p.initialized() {
		return nil, nil, ErrNotInitialized
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	amount0 := bigMin(amount0Requested, p.protocolFees0)
	amount1 := bigMin(amount1Requested, p.protocolFees1)
	p.protocolFees0.Sub(p.protocolFees0, amount0)
	p.protocolFees1.Sub(p.protocolFees1, amount1)

	p.logger.Info("protocol fees collected",
		"recipient", recipient, "amount0", amount0.String(), "amount1", amount1.String())
	return amount0, amount1, nil
}

// Token0 returns the address of the pool's first token.
func (p *Pool) Token0() common.Address {
	return p.cfg.Token0
}

// Token1 returns the address of the pool's second token.
func (p *Pool) Token1() common.Address {
	return p.cfg.Token1
}

// Fee returns the base swap fee in hundredths of a bip.
func (p *Pool) Fee() uint32 {
	return p.cfg.Fee
}

// TickSpacing returns the spacing between usable ticks.
func (p *Pool) TickSpacing() int64 {
	return p.cfg.TickSpacing
}

// Slot0State returns a copy of the pool's hot state.
func (p *Pool) Slot0State() Slot0 {
	s := p.slot0
	if s.SqrtPriceX96 != nil {
		s.SqrtPriceX96 = new(big.Int).Set(s.SqrtPriceX96)
	}
	return s
}

// Liquidity returns the currently active in-range liquidity.
func (p *Pool) Liquidity() *big.Int {
	return new(big.Int).Set(p.liquidity)
}

// FeeGrowthGlobal0X128 returns the all-time token0 fee growth accumulator.
func (p *Pool) FeeGrowthGlobal0X128() *uint256.Int {
	return new(uint256.Int).Set(p.feeGrowthGlobal0X128)
}

// FeeGrowthGlobal1X128 returns the all-time token1 fee growth accumulator.
func (p *Pool) FeeGrowthGlobal1X128() *uint256.Int {
	return new(uint256.Int).Set(p.feeGrowthGlobal1X128)
}

// ProtocolFees returns the uncollected protocol fees per token.
func (p *Pool) ProtocolFees() (*big.Int, *big.Int) {
	return new(big.Int).Set(p.protocolFees0), new(big.Int).Set(p.protocolFees1)
}

// Position returns the position entry for an owner and range, if it exists.
func (p *Pool) Position(owner common.Address, tickLower, tickUpper int64) (*position.Entry, bool) {
	return p.positions.Get(owner, tickLower, tickUpper)
}

// Tick returns the stored state for a tick, if initialized.
func (p *Pool) Tick(t int64) (*tick.Entry, bool) {
	return p.ticks.Get(t)
}
