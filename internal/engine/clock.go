package engine

import (
	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/model"
)

// Clock advances the simulation one price bar per turn and supplies the
// execution price for that turn: the bar's close on turn 1 (the last known
// price of the starting window), the bar's open on every turn after.
type Clock struct {
	turn int
}

// Turn returns the current turn number; 0 before the first advance.
func (c *Clock) Turn() int {
	return c.turn
}

// Advance moves the clock onto the next bar and returns the execution
// price for the new turn.
func (c *Clock) Advance(bar model.PriceBar) decimal.Decimal {
	c.turn++
	if c.turn == 1 {
		return bar.Close
	}
	return bar.Open
}
