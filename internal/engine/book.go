package engine

import (
	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/model"
)

// book stores limit orders in insertion order. Terminal orders are retained
// for history; only pending ones are scanned on turn advance. Insertion
// order makes settlement deterministic when several orders trigger in the
// same turn and contend for the same balance.
type book struct {
	orders []*model.LimitOrder
}

func (b *book) add(o model.LimitOrder) *model.LimitOrder {
	stored := o
	b.orders = append(b.orders, &stored)
	return &stored
}

func (b *book) find(id string) *model.LimitOrder {
	for _, o := range b.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (b *book) all() []model.LimitOrder {
	out := make([]model.LimitOrder, len(b.orders))
	for i, o := range b.orders {
		out[i] = *o
	}
	return out
}

func (b *book) pending() []model.LimitOrder {
	var out []model.LimitOrder
	for _, o := range b.orders {
		if o.Status == model.StatusPending {
			out = append(out, *o)
		}
	}
	return out
}

// triggered reports whether a pending order's price condition is satisfied
// by the turn's execution price: buys trigger at or below target, sells at
// or above.
func triggered(o *model.LimitOrder, price decimal.Decimal) bool {
	if o.Side == model.Buy {
		return price.LessThanOrEqual(o.TargetPrice)
	}
	return price.GreaterThanOrEqual(o.TargetPrice)
}
