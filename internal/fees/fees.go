// Package fees computes the fee breakdown for simulated trades: a
// percentage trading fee keyed to the maker/taker category plus a
// size-dependent, jittered network gas fee.
//
// All monetary values use shopspring/decimal — never float64 for money.
// The gas-fee jitter math runs in float64 and is immediately converted
// back to decimal, following the same pattern used for transcendental
// math elsewhere in the codebase.
//
// Randomness is injected: the Calculator draws its jitter from the
// *rand.Rand it was constructed with, so a fixed seed reproduces exact
// fee values under test.
package fees

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/model"
)

var (
	// TakerRate is the trading-fee rate for market orders (0.5%).
	TakerRate = decimal.NewFromFloat(0.005)

	// MakerRate is the trading-fee rate for limit orders (0.25%).
	MakerRate = decimal.NewFromFloat(0.0025)

	// GasFloor and GasCap bound the gas fee for every trade size.
	GasFloor = decimal.NewFromInt(15)
	GasCap   = decimal.NewFromInt(50)
)

// Gas-fee model constants. The base fee grows with notional above the
// congestion threshold to emulate network load from large transfers.
const (
	gasBase             = 15.0
	congestionThreshold = 5000.0
	congestionDivisor   = 20000.0
	maxCongestion       = 3.33

	// Jitter factor is uniform in [jitterMin, jitterMin+jitterSpan].
	jitterMin  = 0.8
	jitterSpan = 0.4
)

// FeeScale is the number of decimal places fees are rounded to (cents).
const FeeScale int32 = 2

// Calculator computes fee breakdowns. It carries only the injected random
// source; rate and gas parameters are package-level.
type Calculator struct {
	rng *rand.Rand
}

// NewCalculator creates a Calculator drawing gas-fee jitter from rng.
func NewCalculator(rng *rand.Rand) *Calculator {
	return &Calculator{rng: rng}
}

// Rate returns the trading-fee rate for the given order category.
func Rate(category model.OrderCategory) decimal.Decimal {
	if category == model.Maker {
		return MakerRate
	}
	return TakerRate
}

// Compute returns the fee breakdown for a trade of the given USD notional.
// It has no failure modes: any non-negative notional is valid and the gas
// fee is always within [GasFloor, GasCap].
func (c *Calculator) Compute(notional decimal.Decimal, category model.OrderCategory) model.FeeBreakdown {
	tradingFee := notional.Mul(Rate(category)).Round(FeeScale)
	gasFee := c.gasFee(notional)

	return model.FeeBreakdown{
		TradingFee: tradingFee,
		GasFee:     gasFee,
		TotalFee:   tradingFee.Add(gasFee),
	}
}

// gasFee models network cost: a base fee scaled by a congestion multiplier
// that grows with notional, times a random jitter factor, clamped to
// [GasFloor, GasCap].
func (c *Calculator) gasFee(notional decimal.Decimal) decimal.Decimal {
	n := notional.InexactFloat64()

	multiplier := 1.0
	if n > congestionThreshold {
		multiplier = 1 + (n-congestionThreshold)/congestionDivisor
		if multiplier > maxCongestion {
			multiplier = maxCongestion
		}
	}

	jitter := jitterMin + c.rng.Float64()*jitterSpan
	fee := decimal.NewFromFloat(gasBase * multiplier * jitter).Round(FeeScale)

	// Clamp to bounds.
	if fee.LessThan(GasFloor) {
		return GasFloor
	}
	if fee.GreaterThan(GasCap) {
		return GasCap
	}
	return fee
}
