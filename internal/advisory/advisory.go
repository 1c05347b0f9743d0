// Package advisory implements pre-trade checks that inform but never
// reject. The engine enforces only hard invariants (positive amounts,
// sufficient balances); whether a limit price makes sense relative to the
// market is a question for the operator, so these checks produce warnings
// the caller can render, not errors.
package advisory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/fees"
	"github.com/coinsim/trade-engine/internal/model"
)

// Warning codes.
const (
	CodeLimitBuyAboveMarket  = "limit_buy_above_market"
	CodeLimitSellBelowMarket = "limit_sell_below_market"
	CodeLargeOrder           = "large_order"
)

// Warning is one advisory finding.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Advisor evaluates orders against the current market snapshot.
type Advisor struct {
	// LargeOrderFraction triggers a warning when an order's notional
	// exceeds this fraction of portfolio value. Zero disables the check.
	LargeOrderFraction decimal.Decimal
}

// NewAdvisor creates an advisor warning on orders above the given fraction
// of portfolio value.
func NewAdvisor(largeOrderFraction decimal.Decimal) *Advisor {
	return &Advisor{LargeOrderFraction: largeOrderFraction}
}

// CheckLimitOrder returns warnings for a limit order about to be placed.
// marketPrice is the engine's current execution price; portfolioValue is
// the mark-to-market value at that price. A nil result means no findings.
func (a *Advisor) CheckLimitOrder(side model.OrderSide, notional, targetPrice, marketPrice, portfolioValue decimal.Decimal) []Warning {
	var warnings []Warning

	// A limit buy above market (or sell below) triggers on the very next
	// turn at a worse price than a market order would get now.
	if marketPrice.IsPositive() {
		if side == model.Buy && targetPrice.GreaterThanOrEqual(marketPrice) {
			warnings = append(warnings, Warning{
				Code: CodeLimitBuyAboveMarket,
				Message: fmt.Sprintf("limit buy target $%s is at or above the current market price $%s and will trigger immediately",
					targetPrice, marketPrice),
			})
		}
		if side == model.Sell && targetPrice.LessThanOrEqual(marketPrice) {
			warnings = append(warnings, Warning{
				Code: CodeLimitSellBelowMarket,
				Message: fmt.Sprintf("limit sell target $%s is at or below the current market price $%s and will trigger immediately",
					targetPrice, marketPrice),
			})
		}
	}

	if a.LargeOrderFraction.IsPositive() && portfolioValue.IsPositive() {
		threshold := portfolioValue.Mul(a.LargeOrderFraction)
		if notional.GreaterThan(threshold) {
			warnings = append(warnings, Warning{
				Code: CodeLargeOrder,
				Message: fmt.Sprintf("order notional $%s exceeds %s%% of portfolio value $%s",
					notional, a.LargeOrderFraction.Mul(decimal.NewFromInt(100)), portfolioValue),
			})
		}
	}

	return warnings
}

// EstimateFee previews the fee breakdown for a notional at the given
// category's rate, using the midpoint gas fee instead of the jittered
// draw. Display only; the calculator charges the real fee at execution.
func EstimateFee(notional decimal.Decimal, category model.OrderCategory) model.FeeBreakdown {
	tradingFee := notional.Mul(fees.Rate(category)).Round(2)

	estGas := fees.GasFloor.Add(notional.Div(decimal.NewFromInt(20000)).Mul(fees.GasFloor))
	if estGas.GreaterThan(fees.GasCap) {
		estGas = fees.GasCap
	}
	estGas = estGas.Round(2)

	return model.FeeBreakdown{
		TradingFee: tradingFee,
		GasFee:     estGas,
		TotalFee:   tradingFee.Add(estGas),
	}
}

// MaxAffordable estimates the largest buy notional the given cash covers
// once fees are taken out. It is a display estimate, not a guarantee: the
// gas fee is jittered, so the engine's own validation remains the source
// of truth at execution time.
func MaxAffordable(cash decimal.Decimal) decimal.Decimal {
	estTrading := cash.Mul(fees.TakerRate)

	// Midpoint gas estimate: base fee plus size-scaled congestion, capped.
	estGas := fees.GasFloor.Add(cash.Div(decimal.NewFromInt(20000)).Mul(fees.GasFloor))
	if estGas.GreaterThan(fees.GasCap) {
		estGas = fees.GasCap
	}

	max := cash.Sub(estTrading).Sub(estGas)
	if max.IsNegative() {
		return decimal.Zero
	}
	return max.Round(2)
}
