// poolsim replays a JSON scenario of pool operations against an in-memory
// pool and prints the result of each step as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/defistate/defistate-pool-go/pool"
)

type scenario struct {
	Token0       common.Address `json:"token0"`
	Token1       common.Address `json:"token1"`
	Fee          uint32         `json:"fee"`
	TickSpacing  int64          `json:"tickSpacing"`
	SqrtPriceX96 string         `json:"sqrtPriceX96"`
	Ops          []operation    `json:"ops"`
}

type operation struct {
	Op string `json:"op"`

	Owner     common.Address `json:"owner,omitempty"`
	Recipient common.Address `json:"recipient,omitempty"`
	TickLower int64          `json:"tickLower,omitempty"`
	TickUpper int64          `json:"tickUpper,omitempty"`
	Amount    string         `json:"amount,omitempty"`

	ZeroForOne        bool   `json:"zeroForOne,omitempty"`
	SqrtPriceLimitX96 string `json:"sqrtPriceLimitX96,omitempty"`

	SecondsAgos []uint32 `json:"secondsAgos,omitempty"`
	Seconds     uint32   `json:"seconds,omitempty"`
}

type result struct {
	Op           string `json:"op"`
	Amount0      string `json:"amount0,omitempty"`
	Amount1      string `json:"amount1,omitempty"`
	SqrtPriceX96 string `json:"sqrtPriceX96,omitempty"`
	Tick         int64  `json:"tick"`
	Liquidity    string `json:"liquidity,omitempty"`

	TickCumulatives []int64 `json:"tickCumulatives,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// ledger tracks the pool's token holdings; callbacks credit it as if a trader
// with unlimited funds were paying.
type ledger struct {
	bal0, bal1 *big.Int
}

func (l *ledger) Balance0() (*big.Int, error) { return new(big.Int).Set(l.bal0), nil }
func (l *ledger) Balance1() (*big.Int, error) { return new(big.Int).Set(l.bal1), nil }

func (l *ledger) pay(amount0, amount1 *big.Int) error {
	l.bal0.Add(l.bal0, amount0)
	l.bal1.Add(l.bal1, amount1)
	return nil
}

func main() {
	rootLogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	scenarioPath := flag.String("scenario", "scenario.json", "Path to the scenario file.")
	flag.Parse()
	log.SetOutput(os.Stderr)
	log.Printf("Loading scenario from: %s", *scenarioPath)

	raw, err := os.ReadFile(*scenarioPath)
	if err != nil {
		rootLogger.Error("Failed to read scenario", "error", err)
		os.Exit(1)
	}
	var sc scenario
	if err := json.Unmarshal(raw, &sc); err != nil {
		rootLogger.Error("Failed to parse scenario", "error", err)
		os.Exit(1)
	}

	balances := &ledger{bal0: new(big.Int), bal1: new(big.Int)}
	clock := uint32(time.Now().Unix())

	p, err := pool.New(&pool.Config{
		Token0:      sc.Token0,
		Token1:      sc.Token1,
		Fee:         sc.Fee,
		TickSpacing: sc.TickSpacing,
		Owner:       common.Address{},
		Balances:    balances,
		Logger:      rootLogger.With("component", "pool"),
		Registry:    prometheus.DefaultRegisterer,
		Now:         func() uint32 { return clock },
	})
	if err != nil {
		rootLogger.Error("Failed to construct pool", "error", err)
		os.Exit(1)
	}

	price, ok := new(big.Int).SetString(sc.SqrtPriceX96, 10)
	if !ok {
		rootLogger.Error("Bad sqrtPriceX96", "value", sc.SqrtPriceX96)
		os.Exit(1)
	}
	if err := p.Initialize(price); err != nil {
		rootLogger.Error("Failed to initialize pool", "error", err)
		os.Exit(1)
	}

	out := json.NewEncoder(os.Stdout)
	for i, op := range sc.Ops {
		res := run(p, balances, &clock, op)
		if err := out.Encode(res); err != nil {
			rootLogger.Error("Failed to encode result", "step", i, "error", err)
			os.Exit(1)
		}
	}
}

func run(p *pool.Pool, balances *ledger, clock *uint32, op operation) result {
	res := result{Op: op.Op}

	fail := func(err error) result {
		res.Error = err.Error()
		return res
	}
	finish := func(amount0, amount1 *big.Int) result {
		res.Amount0 = amount0.String()
		res.Amount1 = amount1.String()
		s := p.Slot0State()
		res.SqrtPriceX96 = s.SqrtPriceX96.String()
		res.Tick = s.Tick
		res.Liquidity = p.Liquidity().String()
		return res
	}

	switch op.Op {
	case "advance":
		*clock += op.Seconds
		res.Tick = p.Slot0State().Tick
		return res

	case "mint":
		amount, ok := new(big.Int).SetString(op.Amount, 10)
		if !ok {
			return fail(fmt.Errorf("bad amount %q", op.Amount))
		}
		amount0, amount1, err := p.Mint(op.Owner, op.TickLower, op.TickUpper, amount, balances.pay)
		if err != nil {
			return fail(err)
		}
		return finish(amount0, amount1)

	case "swap":
		amount, ok := new(big.Int).SetString(op.Amount, 10)
		if !ok {
			return fail(fmt.Errorf("bad amount %q", op.Amount))
		}
		limit, ok := new(big.Int).SetString(op.SqrtPriceLimitX96, 10)
		if !ok {
			return fail(fmt.Errorf("bad sqrtPriceLimitX96 %q", op.SqrtPriceLimitX96))
		}
		amount0, amount1, err := p.Swap(op.Recipient, op.ZeroForOne, amount, limit, balances.pay)
		if err != nil {
			return fail(err)
		}
		return finish(amount0, amount1)

	case "burn":
		amount, ok := new(big.Int).SetString(op.Amount, 10)
		if !ok {
			return fail(fmt.Errorf("bad amount %q", op.Amount))
		}
		amount0, amount1, err := p.Burn(op.Owner, op.TickLower, op.TickUpper, amount)
		if err != nil {
			return fail(err)
		}
		return finish(amount0, amount1)

	case "collect":
		amount0, amount1, err := p.Collect(op.Owner, op.Recipient, op.TickLower, op.TickUpper, maxUint128(), maxUint128())
		if err != nil {
			return fail(err)
		}
		balances.bal0.Sub(balances.bal0, amount0)
		balances.bal1.Sub(balances.bal1, amount1)
		return finish(amount0, amount1)

	case "observe":
		tickCumulatives, _, err := p.Observe(op.SecondsAgos)
		if err != nil {
			return fail(err)
		}
		res.TickCumulatives = tickCumulatives
		res.Tick = p.Slot0State().Tick
		return res

	default:
		return fail(fmt.Errorf("unknown op %q", op.Op))
	}
}

func maxUint128() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
}
