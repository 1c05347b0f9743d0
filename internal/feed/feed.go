package feed

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/model"
)

// ErrExhausted is returned by Next when a feed has no more bars.
var ErrExhausted = errors.New("feed: no more bars")

// Feed supplies one price bar per turn advance.
type Feed interface {
	Next(ctx context.Context) (model.PriceBar, error)
}

// SliceFeed serves a fixed sequence of bars in order.
type SliceFeed struct {
	bars []model.PriceBar
	next int
}

// NewSliceFeed creates a feed over the given bars.
func NewSliceFeed(bars []model.PriceBar) *SliceFeed {
	return &SliceFeed{bars: bars}
}

// Next returns the next bar, or ErrExhausted past the end.
func (f *SliceFeed) Next(_ context.Context) (model.PriceBar, error) {
	if f.next >= len(f.bars) {
		return model.PriceBar{}, ErrExhausted
	}
	bar := f.bars[f.next]
	f.next++
	return bar, nil
}

// Remaining returns how many bars are left.
func (f *SliceFeed) Remaining() int {
	return len(f.bars) - f.next
}

// RandomWalkFeed generates synthetic bars as a seeded geometric random
// walk. Bars are deterministic for a given seed, so demo sessions replay
// identically. Prices are generated in float64 and rounded to cents; the
// walk is synthetic data, not money math.
type RandomWalkFeed struct {
	rng        *rand.Rand
	price      float64
	volatility float64
	step       time.Duration
	at         time.Time
}

// NewRandomWalkFeed creates a walk starting at startPrice. volatility is
// the maximum fractional move per bar (e.g. 0.01 for ±1%).
func NewRandomWalkFeed(startPrice float64, volatility float64, iv Interval, start time.Time, rng *rand.Rand) *RandomWalkFeed {
	return &RandomWalkFeed{
		rng:        rng,
		price:      startPrice,
		volatility: volatility,
		step:       iv.Step,
		at:         start,
	}
}

// Next generates the next bar. It never exhausts.
func (f *RandomWalkFeed) Next(_ context.Context) (model.PriceBar, error) {
	open := f.price
	move := (f.rng.Float64()*2 - 1) * f.volatility
	closing := open * (1 + move)

	f.price = closing
	bar := model.PriceBar{
		Open:      decimal.NewFromFloat(open).Round(2),
		Close:     decimal.NewFromFloat(closing).Round(2),
		Timestamp: f.at,
	}
	f.at = f.at.Add(f.step)
	return bar, nil
}
