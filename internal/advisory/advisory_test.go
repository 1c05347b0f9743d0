package advisory

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func codes(ws []Warning) map[string]bool {
	m := map[string]bool{}
	for _, w := range ws {
		m[w.Code] = true
	}
	return m
}

func TestCheckLimitOrder_BuyAboveMarket(t *testing.T) {
	a := NewAdvisor(decimal.Zero)
	ws := a.CheckLimitOrder(model.Buy, d(500), d(31000), d(30000), d(10000))
	if !codes(ws)[CodeLimitBuyAboveMarket] {
		t.Errorf("expected %s warning, got %+v", CodeLimitBuyAboveMarket, ws)
	}
}

func TestCheckLimitOrder_SellBelowMarket(t *testing.T) {
	a := NewAdvisor(decimal.Zero)
	ws := a.CheckLimitOrder(model.Sell, d(500), d(29000), d(30000), d(10000))
	if !codes(ws)[CodeLimitSellBelowMarket] {
		t.Errorf("expected %s warning, got %+v", CodeLimitSellBelowMarket, ws)
	}
}

func TestCheckLimitOrder_SanePricesNoWarnings(t *testing.T) {
	a := NewAdvisor(d(0.5))
	if ws := a.CheckLimitOrder(model.Buy, d(500), d(29000), d(30000), d(10000)); len(ws) != 0 {
		t.Errorf("buy below market should be clean, got %+v", ws)
	}
	if ws := a.CheckLimitOrder(model.Sell, d(500), d(31000), d(30000), d(10000)); len(ws) != 0 {
		t.Errorf("sell above market should be clean, got %+v", ws)
	}
}

func TestCheckLimitOrder_LargeOrder(t *testing.T) {
	a := NewAdvisor(d(0.5))
	ws := a.CheckLimitOrder(model.Buy, d(6000), d(29000), d(30000), d(10000))
	if !codes(ws)[CodeLargeOrder] {
		t.Errorf("expected %s warning for 60%% of portfolio, got %+v", CodeLargeOrder, ws)
	}

	// Zero fraction disables the check.
	off := NewAdvisor(decimal.Zero)
	if ws := off.CheckLimitOrder(model.Buy, d(6000), d(29000), d(30000), d(10000)); len(ws) != 0 {
		t.Errorf("disabled check should stay quiet, got %+v", ws)
	}
}

func TestCheckLimitOrder_NoMarketPriceYet(t *testing.T) {
	// Before the first turn there is no execution price; price-relative
	// checks are skipped rather than firing spuriously.
	a := NewAdvisor(decimal.Zero)
	if ws := a.CheckLimitOrder(model.Buy, d(500), d(31000), decimal.Zero, d(10000)); len(ws) != 0 {
		t.Errorf("no market price should mean no price warnings, got %+v", ws)
	}
}

func TestEstimateFee(t *testing.T) {
	fb := EstimateFee(d(1000), model.Maker)
	if !fb.TradingFee.Equal(d(2.5)) {
		t.Errorf("expected maker trading fee 2.50 on 1000, got %s", fb.TradingFee)
	}
	if fb.GasFee.LessThan(d(15)) || fb.GasFee.GreaterThan(d(50)) {
		t.Errorf("gas estimate out of [15,50]: %s", fb.GasFee)
	}
	if !fb.TotalFee.Equal(fb.TradingFee.Add(fb.GasFee)) {
		t.Errorf("total should be the sum, got %s", fb.TotalFee)
	}

	taker := EstimateFee(d(1000), model.Taker)
	if !taker.TradingFee.Equal(d(5)) {
		t.Errorf("expected taker trading fee 5.00 on 1000, got %s", taker.TradingFee)
	}
}

func TestMaxAffordable(t *testing.T) {
	got := MaxAffordable(d(10000))
	if !got.IsPositive() || !got.LessThan(d(10000)) {
		t.Errorf("estimate should be positive and below cash, got %s", got)
	}
	// Headroom must cover the worst-case taker fee plus capped gas.
	if got.GreaterThan(d(10000).Sub(d(15))) {
		t.Errorf("estimate leaves no room for gas, got %s", got)
	}
}

func TestMaxAffordable_TinyCash(t *testing.T) {
	if got := MaxAffordable(d(10)); !got.IsZero() {
		t.Errorf("cash below the gas floor affords nothing, got %s", got)
	}
}
