// Package store is the persistence boundary: bulk order/trade inserts,
// status updates, the additive position upsert, and reconciliation
// audit logging. The in-memory engines remain the source of truth; a
// persistence failure here never unwinds an already-matched trade.
package store

import (
	"context"
	"time"

	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/money"
	"github.com/tradecore/matchcore/internal/reconcile"
)

// OrderRow is one order as bulk-inserted.
type OrderRow struct {
	UserID   int64
	Symbol   string
	Side     matching.Side
	Price    money.Amount
	Quantity int64
}

// TradeRow is one trade as bulk-inserted.
type TradeRow struct {
	BuyOrderID  int64
	SellOrderID int64
	Symbol      string
	Price       money.Amount
	Quantity    int64
}

// Store is the full persistence contract the engines and the CLI driver
// depend on.
type Store interface {
	BulkInsertOrders(ctx context.Context, rows []OrderRow) ([]int64, error)
	BulkInsertTrades(ctx context.Context, rows []TradeRow) ([]int64, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status matching.Status) error
	UpsertPosition(ctx context.Context, userID int64, symbol string, quantityDelta int64, avgCost money.Amount, realizedPnLDelta money.Amount) error
	InsertPnLHistory(ctx context.Context, userID int64, symbol string, tradeID int64, realizedPnL money.Amount) error
	GetTradesByDate(ctx context.Context, date time.Time) ([]*matching.Trade, error)
	GetOrder(ctx context.Context, orderID int64) (*matching.Order, error)
	InsertReconciliationLog(ctx context.Context, result reconcile.Result) error
	ReconciliationHistory(ctx context.Context, limit int) ([]reconcile.Result, error)
	AccuracyStats(ctx context.Context) (reconcile.AccuracyStats, error)
	LoadPositions(ctx context.Context) ([]PositionRow, error)
}

// PositionRow is one position as loaded at process start.
type PositionRow struct {
	UserID      int64
	Symbol      string
	Quantity    int64
	AvgCost     money.Amount
	RealizedPnL money.Amount
}
