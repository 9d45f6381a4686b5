// Package pnl tracks per-user, per-symbol positions using a single
// signed quantity field (positive long, negative short) and computes
// realized and unrealized profit and loss on every fill.
package pnl

import (
	"time"

	"github.com/tradecore/matchcore/internal/money"
)

// Position is one user's holding in one symbol.
type Position struct {
	UserID      int64
	Symbol      string
	Quantity    int64
	AvgCost     money.Amount
	RealizedPnL money.Amount
	UpdatedAt   time.Time
}

// IsFlat reports whether the position carries no holdings.
func (p *Position) IsFlat() bool { return p.Quantity == 0 }

// UnrealizedPnL values the position against markPrice. A flat position
// is always zero regardless of mark.
func (p *Position) UnrealizedPnL(markPrice money.Amount) money.Amount {
	if p.Quantity == 0 {
		return money.Zero
	}
	if p.Quantity > 0 {
		return markPrice.Sub(p.AvgCost).Mul(p.Quantity)
	}
	return p.AvgCost.Sub(markPrice).Mul(-p.Quantity)
}

// MarketValue is abs(quantity) * markPrice.
func (p *Position) MarketValue(markPrice money.Amount) money.Amount {
	return markPrice.Mul(absInt64(p.Quantity))
}

// CostBasis is abs(quantity) * avg_cost.
func (p *Position) CostBasis() money.Amount {
	return p.AvgCost.Mul(absInt64(p.Quantity))
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
