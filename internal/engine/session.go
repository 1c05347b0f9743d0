// Package engine implements the turn-based trading simulation: portfolio
// state transitions, market-order execution, the limit-order lifecycle,
// and the append-only trade ledger.
//
// A Session is a single simulation timeline. It is synchronous end-to-end
// and assumes a single writer; it performs no I/O and holds no clock or
// randomness of its own beyond the injected fee calculator. Its complete
// state round-trips through model.Snapshot for external persistence.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/fees"
	"github.com/coinsim/trade-engine/internal/model"
)

// Action is the operator-issued market action for one turn.
type Action struct {
	Kind     model.ActionKind // ActionBuy, ActionSell, or ActionHold
	Notional decimal.Decimal  // USD size; ignored for hold
}

// Hold is the no-op action.
var Hold = Action{Kind: model.ActionHold}

// TurnResult reports what one turn advance did.
type TurnResult struct {
	Turn     int                `json:"turn"`
	Price    decimal.Decimal    `json:"price"`
	Entry    model.LedgerEntry  `json:"entry"`    // the operator action's ledger entry
	Executed []model.LimitOrder `json:"executed"` // limit orders filled this turn
}

// Session is one simulation timeline: a portfolio, a limit-order book, a
// trade ledger, and a turn clock, all settling through the same fee and
// portfolio machinery.
type Session struct {
	calc      *fees.Calculator
	portfolio model.Portfolio
	book      book
	ledger    Ledger
	clock     Clock
	price     decimal.Decimal // execution price of the current turn
}

// NewSession creates a session holding startingCash and no asset.
func NewSession(startingCash decimal.Decimal, calc *fees.Calculator) *Session {
	return &Session{
		calc:      calc,
		portfolio: model.Portfolio{Cash: startingCash, Asset: decimal.Zero},
	}
}

// Restore rebuilds a session from a snapshot taken with Snapshot.
func Restore(snap model.Snapshot, calc *fees.Calculator) *Session {
	s := &Session{
		calc:      calc,
		portfolio: snap.Portfolio,
		clock:     Clock{turn: snap.Turn},
		price:     snap.Price,
	}
	for _, o := range snap.LimitOrders {
		s.book.add(o)
	}
	for _, e := range snap.Ledger {
		s.ledger.Record(e)
	}
	return s
}

// Snapshot returns the complete serializable session state.
func (s *Session) Snapshot() model.Snapshot {
	return model.Snapshot{
		Portfolio:   s.portfolio,
		LimitOrders: s.book.all(),
		Ledger:      s.ledger.Entries(),
		Turn:        s.clock.Turn(),
		Price:       s.price,
	}
}

// Portfolio returns the current balances.
func (s *Session) Portfolio() model.Portfolio {
	return s.portfolio
}

// Turn returns the current turn number; 0 before the first advance.
func (s *Session) Turn() int {
	return s.clock.Turn()
}

// Price returns the execution price of the current turn, zero before
// turn 1. Callers use it for advisory checks and display.
func (s *Session) Price() decimal.Decimal {
	return s.price
}

// Ledger returns the full trade log in append order.
func (s *Session) Ledger() []model.LedgerEntry {
	return s.ledger.Entries()
}

// Orders returns every limit order ever placed, in insertion order.
func (s *Session) Orders() []model.LimitOrder {
	return s.book.all()
}

// PendingOrders returns the active limit-order set.
func (s *Session) PendingOrders() []model.LimitOrder {
	return s.book.pending()
}

// Advance processes one turn: it settles the operator action at the new
// turn's execution price, then scans pending limit orders against that
// price, settling triggered ones in insertion order at maker rates. All
// outcomes, including rejections, land in the ledger.
//
// An error is returned only for malformed input (bad bar, unknown action
// kind); trade rejections are not errors — they appear in the returned
// entries with Outcome rejected.
func (s *Session) Advance(action Action, bar model.PriceBar) (*TurnResult, error) {
	switch action.Kind {
	case model.ActionBuy, model.ActionSell, model.ActionHold:
	default:
		return nil, fmt.Errorf("engine: unknown action kind %q", action.Kind)
	}
	if !bar.Open.IsPositive() || !bar.Close.IsPositive() {
		return nil, fmt.Errorf("%w: bar open=%s close=%s", ErrInvalidAmount, bar.Open, bar.Close)
	}

	price := s.clock.Advance(bar)
	s.price = price

	entry := s.settleAction(action, price)
	executed := s.checkAndExecute(price)

	return &TurnResult{
		Turn:     s.clock.Turn(),
		Price:    price,
		Entry:    entry,
		Executed: executed,
	}, nil
}

// settleAction executes the operator's buy/sell/hold for the turn and
// records it. Rejections leave the portfolio untouched.
func (s *Session) settleAction(action Action, price decimal.Decimal) model.LedgerEntry {
	if action.Kind == model.ActionHold {
		return s.record(model.LedgerEntry{
			Action:  model.ActionHold,
			Outcome: model.OutcomeSuccess,
			Price:   price,
		})
	}

	if !action.Notional.IsPositive() {
		return s.record(model.LedgerEntry{
			Action:   action.Kind,
			Outcome:  model.OutcomeRejected,
			Price:    price,
			Notional: action.Notional,
			Reason:   model.ReasonInvalidAmount,
			Detail:   "notional amount must be positive",
		})
	}

	side := model.Buy
	if action.Kind == model.ActionSell {
		side = model.Sell
	}

	fb := s.calc.Compute(action.Notional, model.Taker)
	if rej := settle(&s.portfolio, side, action.Notional, price, fb); rej != nil {
		return s.record(model.LedgerEntry{
			Action:   action.Kind,
			Outcome:  model.OutcomeRejected,
			Price:    price,
			Notional: action.Notional,
			Fees:     fb,
			Reason:   rej.Reason,
			Detail:   rej.detail(),
		})
	}

	return s.record(model.LedgerEntry{
		Action:   action.Kind,
		Outcome:  model.OutcomeSuccess,
		Price:    price,
		Notional: action.Notional,
		Fees:     fb,
	})
}

// checkAndExecute scans pending limit orders in insertion order against
// the turn's execution price. Triggered orders settle at their target
// price (the price the order was willing to accept) with maker fees. If
// settlement fails the order stays pending, eligible for retry on a later
// turn, and the failure is ledgered with TriggerSettlementFailed.
func (s *Session) checkAndExecute(price decimal.Decimal) []model.LimitOrder {
	var executed []model.LimitOrder

	for _, o := range s.book.orders {
		if o.Status != model.StatusPending || !triggered(o, price) {
			continue
		}

		fb := s.calc.Compute(o.Notional, model.Maker)
		if rej := settle(&s.portfolio, o.Side, o.Notional, o.TargetPrice, fb); rej != nil {
			s.record(model.LedgerEntry{
				Action:   model.ActionLimitExecuted,
				Outcome:  model.OutcomeRejected,
				Price:    o.TargetPrice,
				Notional: o.Notional,
				Fees:     fb,
				OrderID:  o.ID,
				Reason:   model.ReasonTriggerSettlementFailed,
				Detail:   rej.detail(),
			})
			continue
		}

		o.Status = model.StatusExecuted
		s.record(model.LedgerEntry{
			Action:   model.ActionLimitExecuted,
			Outcome:  model.OutcomeSuccess,
			Price:    o.TargetPrice,
			Notional: o.Notional,
			Fees:     fb,
			OrderID:  o.ID,
		})
		executed = append(executed, *o)
	}

	return executed
}

// PlaceLimitOrder appends a pending limit order. It does not mutate the
// portfolio or advance the turn. Price sanity relative to market is
// advisory and left to the caller (see the advisory package); only
// non-positive inputs are rejected here.
func (s *Session) PlaceLimitOrder(side model.OrderSide, notional, targetPrice decimal.Decimal) (model.LimitOrder, error) {
	kind := model.ActionLimitBuyPlaced
	if side == model.Sell {
		kind = model.ActionLimitSellPlaced
	}

	if !notional.IsPositive() || !targetPrice.IsPositive() {
		s.record(model.LedgerEntry{
			Action:   kind,
			Outcome:  model.OutcomeRejected,
			Price:    targetPrice,
			Notional: notional,
			Reason:   model.ReasonInvalidAmount,
			Detail:   "notional amount and target price must be positive",
		})
		return model.LimitOrder{}, fmt.Errorf("%w: notional=%s target=%s", ErrInvalidAmount, notional, targetPrice)
	}

	o := s.book.add(model.LimitOrder{
		ID:            uuid.New().String(),
		Side:          side,
		Notional:      notional,
		TargetPrice:   targetPrice,
		CreatedAtTurn: s.clock.Turn(),
		Status:        model.StatusPending,
	})

	s.record(model.LedgerEntry{
		Action:   kind,
		Outcome:  model.OutcomeSuccess,
		Price:    targetPrice,
		Notional: notional,
		OrderID:  o.ID,
	})
	return *o, nil
}

// CancelLimitOrder transitions a pending order to cancelled. Cancelling an
// unknown ID or an already-terminal order is a recorded no-op error, never
// a crash.
func (s *Session) CancelLimitOrder(id string) error {
	o := s.book.find(id)
	if o == nil {
		s.record(model.LedgerEntry{
			Action:  model.ActionLimitCancelled,
			Outcome: model.OutcomeRejected,
			OrderID: id,
			Reason:  model.ReasonNotFound,
			Detail:  "no limit order with this id",
		})
		return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if o.Terminal() {
		s.record(model.LedgerEntry{
			Action:  model.ActionLimitCancelled,
			Outcome: model.OutcomeRejected,
			OrderID: id,
			Reason:  model.ReasonAlreadyTerminal,
			Detail:  fmt.Sprintf("order is %s", o.Status),
		})
		return fmt.Errorf("%w: %s is %s", ErrOrderTerminal, id, o.Status)
	}

	o.Status = model.StatusCancelled
	s.record(model.LedgerEntry{
		Action:   model.ActionLimitCancelled,
		Outcome:  model.OutcomeSuccess,
		Price:    o.TargetPrice,
		Notional: o.Notional,
		OrderID:  id,
	})
	return nil
}

// record stamps and appends a ledger entry, filling in the turn number and
// resulting balances, and returns the stored entry.
func (s *Session) record(e model.LedgerEntry) model.LedgerEntry {
	e.ID = uuid.New().String()
	e.Turn = s.clock.Turn()
	e.Cash = s.portfolio.Cash
	e.Asset = s.portfolio.Asset
	e.At = time.Now().UTC()
	s.ledger.Record(e)
	return e
}
