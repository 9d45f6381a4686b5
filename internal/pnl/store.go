package pnl

import (
	"context"

	"github.com/tradecore/matchcore/internal/money"
)

// PositionStore is the narrow persistence boundary Flush writes
// through. UpsertPosition takes deltas, not absolutes — the quantity and
// realized P&L columns are updated additively by the implementation, so
// Flush must only ever pass what changed since the last flush.
type PositionStore interface {
	UpsertPosition(ctx context.Context, userID int64, symbol string, quantityDelta int64, avgCost money.Amount, realizedPnLDelta money.Amount) error
	InsertPnLHistory(ctx context.Context, userID int64, symbol string, tradeID int64, realizedPnL money.Amount) error
}

// Flush writes the true delta since the previous Flush of this
// (userID, symbol) pair to store. Calling OnFill without ever calling
// Flush never persists anything; calling Flush twice in a row with no
// intervening fill writes a zero delta, a no-op.
//
// A naive implementation that re-sends the position's absolute quantity
// and realized P&L on every trade double-counts under an additive
// upsert; tracking the last-flushed snapshot here is what avoids that.
func (e *Engine) Flush(ctx context.Context, store PositionStore, userID int64, symbol string, tradeID int64) error {
	e.mu.Lock()
	current := e.getOrCreate(userID, symbol)
	key := positionKey(userID, symbol)
	prev, ok := e.flushed[key]
	if !ok {
		prev = &Position{UserID: userID, Symbol: symbol}
	}

	quantityDelta := current.Quantity - prev.Quantity
	realizedDelta := current.RealizedPnL.Sub(prev.RealizedPnL)
	avgCost := current.AvgCost

	snapshot := *current
	e.flushed[key] = &snapshot
	e.mu.Unlock()

	if err := store.UpsertPosition(ctx, userID, symbol, quantityDelta, avgCost, realizedDelta); err != nil {
		// Restore the previous snapshot so the next Flush re-sends this
		// delta, unless another Flush has replaced the snapshot meanwhile.
		e.mu.Lock()
		if e.flushed[key] == &snapshot {
			if ok {
				e.flushed[key] = prev
			} else {
				delete(e.flushed, key)
			}
		}
		e.mu.Unlock()
		return err
	}

	if realizedDelta != money.Zero {
		if err := store.InsertPnLHistory(ctx, userID, symbol, tradeID, realizedDelta); err != nil {
			return err
		}
	}
	return nil
}
