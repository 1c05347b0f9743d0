package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/model"
)

var (
	// ErrInvalidAmount is returned when a notional amount or price is not
	// strictly positive.
	ErrInvalidAmount = errors.New("engine: notional and price must be positive")

	// ErrInsufficientFunds is returned when a buy's total cost (notional
	// plus fees) exceeds the available cash balance.
	ErrInsufficientFunds = errors.New("engine: insufficient cash balance")

	// ErrInsufficientHoldings is returned when a sell requires more asset
	// than the portfolio holds.
	ErrInsufficientHoldings = errors.New("engine: insufficient asset holdings")

	// ErrOrderNotFound is returned when cancelling an unknown order ID.
	ErrOrderNotFound = errors.New("engine: limit order not found")

	// ErrOrderTerminal is returned when cancelling an order that has
	// already executed or been cancelled.
	ErrOrderTerminal = errors.New("engine: limit order already in a terminal state")
)

// Rejection is a recoverable trade rejection. It carries the attempted
// notional, the amount the trade required, and the balance that was
// available, so callers can render a precise message. It matches the
// corresponding sentinel under errors.Is.
type Rejection struct {
	Reason    model.RejectReason
	Attempted decimal.Decimal // requested notional
	Required  decimal.Decimal // cash (buy) or asset quantity (sell) needed
	Available decimal.Decimal // balance on hand
}

func (r *Rejection) Error() string {
	switch r.Reason {
	case model.ReasonInsufficientFunds:
		return fmt.Sprintf("engine: insufficient cash balance (need $%s including fees, have $%s)",
			r.Required, r.Available)
	case model.ReasonInsufficientHoldings:
		return fmt.Sprintf("engine: insufficient asset holdings (need %s, have %s)",
			r.Required, r.Available)
	default:
		return fmt.Sprintf("engine: trade rejected (%s)", r.Reason)
	}
}

// Unwrap maps the rejection onto its sentinel so errors.Is works.
func (r *Rejection) Unwrap() error {
	switch r.Reason {
	case model.ReasonInsufficientFunds:
		return ErrInsufficientFunds
	case model.ReasonInsufficientHoldings:
		return ErrInsufficientHoldings
	case model.ReasonInvalidAmount:
		return ErrInvalidAmount
	default:
		return nil
	}
}

// detail renders the rejection without the package prefix, for ledger entries.
func (r *Rejection) detail() string {
	const prefix = "engine: "
	msg := r.Error()
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
