package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/money"
	"github.com/tradecore/matchcore/internal/reconcile"
)

// MemoryStore is an in-process Store used by tests, by the simulator
// (which always persists to it), and by the server when no database is
// enabled. It applies the same additive upsert semantics as the
// real schema so callers can't tell the difference from behavior alone.
type MemoryStore struct {
	mu sync.Mutex

	nextOrderID int64
	nextTradeID int64
	nextLogID   int64

	orders    map[int64]*matching.Order
	trades    []*matching.Trade
	positions map[string]*PositionRow
	history   []reconcile.Result
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:    make(map[int64]*matching.Order),
		positions: make(map[string]*PositionRow),
	}
}

func positionKey(userID int64, symbol string) string {
	return strconv.FormatInt(userID, 10) + ":" + symbol
}

func (m *MemoryStore) BulkInsertOrders(_ context.Context, rows []OrderRow) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, len(rows))
	for i, r := range rows {
		m.nextOrderID++
		id := m.nextOrderID
		m.orders[id] = &matching.Order{
			ID: id, UserID: r.UserID, Symbol: r.Symbol, Side: r.Side,
			Price: r.Price, Quantity: r.Quantity, Status: matching.StatusPending,
			Timestamp: time.Now(),
		}
		ids[i] = id
	}
	return ids, nil
}

func (m *MemoryStore) BulkInsertTrades(_ context.Context, rows []TradeRow) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, len(rows))
	for i, r := range rows {
		m.nextTradeID++
		id := m.nextTradeID
		trade := &matching.Trade{
			ID: id, BuyOrderID: r.BuyOrderID, SellOrderID: r.SellOrderID,
			Symbol: r.Symbol, Price: r.Price, Quantity: r.Quantity, Timestamp: time.Now(),
		}
		m.trades = append(m.trades, trade)
		ids[i] = id
	}
	return ids, nil
}

func (m *MemoryStore) UpdateOrderStatus(_ context.Context, orderID int64, status matching.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[orderID]; ok {
		o.Status = status
	}
	return nil
}

func (m *MemoryStore) UpsertPosition(_ context.Context, userID int64, symbol string, quantityDelta int64, avgCost money.Amount, realizedPnLDelta money.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := positionKey(userID, symbol)
	row, ok := m.positions[key]
	if !ok {
		row = &PositionRow{UserID: userID, Symbol: symbol}
		m.positions[key] = row
	}
	row.Quantity += quantityDelta
	row.AvgCost = avgCost
	row.RealizedPnL = row.RealizedPnL.Add(realizedPnLDelta)
	return nil
}

func (m *MemoryStore) InsertPnLHistory(_ context.Context, _ int64, _ string, _ int64, _ money.Amount) error {
	return nil
}

func (m *MemoryStore) GetTradesByDate(_ context.Context, date time.Time) ([]*matching.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.Add(24 * time.Hour)

	var out []*matching.Trade
	for _, t := range m.trades {
		if !t.Timestamp.Before(start) && t.Timestamp.Before(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetOrder(_ context.Context, orderID int64) (*matching.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, matching.ErrOrderNotFound
	}
	return o, nil
}

func (m *MemoryStore) InsertReconciliationLog(_ context.Context, result reconcile.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, result)
	return nil
}

func (m *MemoryStore) ReconciliationHistory(_ context.Context, limit int) ([]reconcile.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.history) {
		limit = len(m.history)
	}
	out := make([]reconcile.Result, limit)
	copy(out, m.history[len(m.history)-limit:])
	return out, nil
}

func (m *MemoryStore) AccuracyStats(_ context.Context) (reconcile.AccuracyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) == 0 {
		return reconcile.AccuracyStats{}, nil
	}

	stats := reconcile.AccuracyStats{MinAccuracy: 100.0, TotalChecks: len(m.history)}
	var sum float64
	for _, r := range m.history {
		sum += r.Accuracy
		if r.Accuracy < stats.MinAccuracy {
			stats.MinAccuracy = r.Accuracy
		}
		if r.Accuracy > stats.MaxAccuracy {
			stats.MaxAccuracy = r.Accuracy
		}
	}
	stats.AverageAccuracy = sum / float64(len(m.history))
	return stats, nil
}

func (m *MemoryStore) LoadPositions(_ context.Context) ([]PositionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PositionRow, 0, len(m.positions))
	for _, row := range m.positions {
		out = append(out, *row)
	}
	return out, nil
}
