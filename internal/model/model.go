// Package model defines the core domain types shared across the trading engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCategory determines the trading-fee rate applied to an execution.
type OrderCategory string

const (
	// Taker is the category for market orders that execute immediately
	// against the current price. Fee rate 0.5%.
	Taker OrderCategory = "taker"

	// Maker is the category for limit orders that rest until triggered.
	// Fee rate 0.25%.
	Maker OrderCategory = "maker"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// OrderStatus is the lifecycle state of a limit order. Executed and
// Cancelled are terminal: orders in those states are retained for history
// and never mutated again.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusExecuted  OrderStatus = "executed"
	StatusCancelled OrderStatus = "cancelled"
)

// ActionKind identifies what a ledger entry records.
type ActionKind string

const (
	ActionBuy             ActionKind = "buy"
	ActionSell            ActionKind = "sell"
	ActionHold            ActionKind = "hold"
	ActionLimitBuyPlaced  ActionKind = "limit_buy_placed"
	ActionLimitSellPlaced ActionKind = "limit_sell_placed"
	ActionLimitExecuted   ActionKind = "limit_executed"
	ActionLimitCancelled  ActionKind = "limit_cancelled"
)

// Outcome is the result of an attempted action.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRejected Outcome = "rejected"
)

// RejectReason is the machine-readable cause attached to rejected ledger
// entries. Human-readable detail (the amounts involved) lives in
// LedgerEntry.Detail.
type RejectReason string

const (
	ReasonInsufficientFunds       RejectReason = "insufficient_funds"
	ReasonInsufficientHoldings    RejectReason = "insufficient_holdings"
	ReasonNotFound                RejectReason = "not_found"
	ReasonAlreadyTerminal         RejectReason = "already_terminal"
	ReasonTriggerSettlementFailed RejectReason = "trigger_settlement_failed"
	ReasonInvalidAmount           RejectReason = "invalid_amount"
)

// PriceBar is one externally supplied price interval. The engine consumes
// exactly one bar per turn and only ever looks at the open and close.
type PriceBar struct {
	Open      decimal.Decimal `json:"open"`
	Close     decimal.Decimal `json:"close"`
	Timestamp time.Time       `json:"timestamp"`
}

// Portfolio holds the cash and asset balances for one simulation session.
// Both fields stay non-negative at every observable point; an operation
// that would drive either below zero is rejected without mutating state.
type Portfolio struct {
	Cash  decimal.Decimal `json:"cash"`
	Asset decimal.Decimal `json:"asset"`
}

// Value returns the mark-to-market portfolio value at the given price:
// cash + asset * price.
func (p Portfolio) Value(price decimal.Decimal) decimal.Decimal {
	return p.Cash.Add(p.Asset.Mul(price))
}

// FeeBreakdown itemizes the fees charged on one execution.
// Derived, never stored independently of the trade it belongs to.
type FeeBreakdown struct {
	TradingFee decimal.Decimal `json:"trading_fee"`
	GasFee     decimal.Decimal `json:"gas_fee"`
	TotalFee   decimal.Decimal `json:"total_fee"`
}

// LimitOrder is a standing order that executes at its target price when the
// market reaches it. Notional is the USD-denominated size, independent of
// the asset quantity it converts to at execution.
type LimitOrder struct {
	ID            string          `json:"id"`
	Side          OrderSide       `json:"side"`
	Notional      decimal.Decimal `json:"notional"`
	TargetPrice   decimal.Decimal `json:"target_price"`
	CreatedAtTurn int             `json:"created_at_turn"`
	Status        OrderStatus     `json:"status"`
}

// Terminal reports whether the order has reached a terminal state.
func (o LimitOrder) Terminal() bool {
	return o.Status == StatusExecuted || o.Status == StatusCancelled
}

// LedgerEntry is an immutable record of one attempted action, success or
// failure. Once appended, entries are never modified or deleted.
type LedgerEntry struct {
	ID       string          `json:"id"`
	Turn     int             `json:"turn"`
	Action   ActionKind      `json:"action"`
	Outcome  Outcome         `json:"outcome"`
	Price    decimal.Decimal `json:"price"`
	Notional decimal.Decimal `json:"notional"`
	Fees     FeeBreakdown    `json:"fees"`
	Cash     decimal.Decimal `json:"cash"`  // balance after the action
	Asset    decimal.Decimal `json:"asset"` // balance after the action
	OrderID  string          `json:"order_id,omitempty"`
	Reason   RejectReason    `json:"reason,omitempty"` // present iff rejected
	Detail   string          `json:"detail,omitempty"`
	At       time.Time       `json:"at"`
}

// Snapshot is the complete serializable state of one simulation session.
// Saving and restoring snapshots is the only persistence contract the
// engine offers; storage itself belongs to the session layer.
type Snapshot struct {
	Portfolio   Portfolio       `json:"portfolio"`
	LimitOrders []LimitOrder    `json:"limit_orders"`
	Ledger      []LedgerEntry   `json:"ledger"`
	Turn        int             `json:"turn"`
	Price       decimal.Decimal `json:"price"` // execution price of the last turn; zero before turn 1
}
