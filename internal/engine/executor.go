package engine

import (
	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/model"
)

// QtyScale is the number of decimal places asset quantities are rounded to.
const QtyScale int32 = 8

// quantityAt converts a USD notional to an asset quantity at the given price.
func quantityAt(notional, price decimal.Decimal) decimal.Decimal {
	return notional.Div(price).Round(QtyScale)
}

// settle validates and applies one all-or-nothing execution against the
// portfolio. Every order is filled completely or not at all: on rejection
// the portfolio is untouched and the returned Rejection describes why.
//
// Buy debits notional plus fees from cash and credits notional/price of
// asset. Sell debits notional/price of asset and credits notional minus
// fees to cash. The fee breakdown is computed by the caller so market
// (taker) and limit (maker) executions share this path.
func settle(p *model.Portfolio, side model.OrderSide, notional, price decimal.Decimal, fb model.FeeBreakdown) *Rejection {
	qty := quantityAt(notional, price)

	switch side {
	case model.Buy:
		totalCost := notional.Add(fb.TotalFee)
		if totalCost.GreaterThan(p.Cash) {
			return &Rejection{
				Reason:    model.ReasonInsufficientFunds,
				Attempted: notional,
				Required:  totalCost,
				Available: p.Cash,
			}
		}
		p.Cash = p.Cash.Sub(totalCost)
		p.Asset = p.Asset.Add(qty)

	case model.Sell:
		if qty.GreaterThan(p.Asset) {
			return &Rejection{
				Reason:    model.ReasonInsufficientHoldings,
				Attempted: notional,
				Required:  qty,
				Available: p.Asset,
			}
		}
		// Fees can exceed proceeds on tiny sells; the shortfall must be
		// payable from cash or the balance would go negative.
		net := notional.Sub(fb.TotalFee)
		if p.Cash.Add(net).IsNegative() {
			return &Rejection{
				Reason:    model.ReasonInsufficientFunds,
				Attempted: notional,
				Required:  net.Neg(),
				Available: p.Cash,
			}
		}
		p.Asset = p.Asset.Sub(qty)
		p.Cash = p.Cash.Add(net)
	}

	return nil
}
