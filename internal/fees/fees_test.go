package fees

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/model"
)

// d is a test helper for creating decimals from float64.
func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func newCalc(seed int64) *Calculator {
	return NewCalculator(rand.New(rand.NewSource(seed)))
}

// --- Trading fee tests ---

func TestCompute_TakerRate(t *testing.T) {
	c := newCalc(1)
	fb := c.Compute(d(1000), model.Taker)
	if !fb.TradingFee.Equal(d(5)) {
		t.Errorf("expected taker trading fee 5 on notional 1000, got %s", fb.TradingFee)
	}
}

func TestCompute_MakerRate(t *testing.T) {
	c := newCalc(1)
	fb := c.Compute(d(500), model.Maker)
	if !fb.TradingFee.Equal(d(1.25)) {
		t.Errorf("expected maker trading fee 1.25 on notional 500, got %s", fb.TradingFee)
	}
}

func TestCompute_MakerCheaperThanTaker(t *testing.T) {
	taker := newCalc(7).Compute(d(2000), model.Taker)
	maker := newCalc(7).Compute(d(2000), model.Maker)
	if !maker.TradingFee.LessThan(taker.TradingFee) {
		t.Errorf("maker fee should be below taker fee: maker=%s taker=%s",
			maker.TradingFee, taker.TradingFee)
	}
}

func TestCompute_TradingFeeLinear(t *testing.T) {
	c := newCalc(1)
	small := c.Compute(d(100), model.Taker).TradingFee
	large := c.Compute(d(1000), model.Taker).TradingFee
	if !large.Equal(small.Mul(d(10))) {
		t.Errorf("trading fee should scale linearly: 100→%s 1000→%s", small, large)
	}
}

func TestCompute_TotalIsSum(t *testing.T) {
	c := newCalc(3)
	fb := c.Compute(d(1234.56), model.Taker)
	if !fb.TotalFee.Equal(fb.TradingFee.Add(fb.GasFee)) {
		t.Errorf("total %s != trading %s + gas %s", fb.TotalFee, fb.TradingFee, fb.GasFee)
	}
}

// --- Gas fee tests ---

func TestGasFee_Bounds(t *testing.T) {
	notionals := []float64{0, 0.01, 100, 1000, 5000, 5001, 10000, 50000, 1e6, 1e9}
	for seed := int64(1); seed <= 20; seed++ {
		c := newCalc(seed)
		for _, n := range notionals {
			fb := c.Compute(d(n), model.Taker)
			if fb.GasFee.LessThan(GasFloor) || fb.GasFee.GreaterThan(GasCap) {
				t.Errorf("gas fee out of [15,50] for notional=%v seed=%d: %s", n, seed, fb.GasFee)
			}
		}
	}
}

func TestGasFee_DeterministicWithSeed(t *testing.T) {
	a := newCalc(42).Compute(d(8000), model.Taker)
	b := newCalc(42).Compute(d(8000), model.Taker)
	if !a.GasFee.Equal(b.GasFee) {
		t.Errorf("same seed should reproduce gas fee: %s vs %s", a.GasFee, b.GasFee)
	}
}

func TestGasFee_NonDecreasingWithNotional(t *testing.T) {
	// Fresh calculators with the same seed draw the same jitter, isolating
	// the size-dependent component.
	notionals := []float64{1000, 5000, 8000, 15000, 40000, 100000}
	var prev decimal.Decimal
	for i, n := range notionals {
		fb := newCalc(99).Compute(d(n), model.Taker)
		if i > 0 && fb.GasFee.LessThan(prev) {
			t.Errorf("gas fee decreased from %s to %s at notional %v", prev, fb.GasFee, n)
		}
		prev = fb.GasFee
	}
}

func TestCompute_ZeroNotional(t *testing.T) {
	fb := newCalc(5).Compute(decimal.Zero, model.Taker)
	if !fb.TradingFee.IsZero() {
		t.Errorf("expected zero trading fee on zero notional, got %s", fb.TradingFee)
	}
	if fb.GasFee.LessThan(GasFloor) || fb.GasFee.GreaterThan(GasCap) {
		t.Errorf("gas fee out of bounds on zero notional: %s", fb.GasFee)
	}
}

func TestRate(t *testing.T) {
	if !Rate(model.Taker).Equal(d(0.005)) {
		t.Errorf("taker rate should be 0.5%%, got %s", Rate(model.Taker))
	}
	if !Rate(model.Maker).Equal(d(0.0025)) {
		t.Errorf("maker rate should be 0.25%%, got %s", Rate(model.Maker))
	}
}
