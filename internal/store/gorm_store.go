package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/money"
	"github.com/tradecore/matchcore/internal/reconcile"
	"github.com/tradecore/matchcore/internal/store/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormStore implements Store over a *gorm.DB, with every write routed
// through a circuit breaker so a database outage fails fast instead of
// piling up blocked goroutines behind a dead connection pool.
type GormStore struct {
	db     *gorm.DB
	breaker *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewGormStore wraps db. The breaker trips after 5 consecutive write
// failures and half-opens after 30 seconds, matching the conservative
// defaults used for the rest of this codebase's outbound dependencies.
func NewGormStore(db *gorm.DB, logger *zap.Logger) *GormStore {
	settings := gobreaker.Settings{
		Name:    "store-writes",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &GormStore{
		db:      db,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func (s *GormStore) writeThroughBreaker(fn func() error) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// BulkInsertOrders inserts rows and returns assigned order IDs in input order.
func (s *GormStore) BulkInsertOrders(ctx context.Context, rows []OrderRow) ([]int64, error) {
	records := make([]models.Order, len(rows))
	for i, r := range rows {
		records[i] = models.Order{
			UserID:   r.UserID,
			Symbol:   r.Symbol,
			Side:     string(r.Side),
			Price:    r.Price.Decimal(),
			Quantity: r.Quantity,
			Status:   string(matching.StatusPending),
		}
	}

	err := s.writeThroughBreaker(func() error {
		return s.db.WithContext(ctx).Create(&records).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: bulk insert orders: %w", err)
	}

	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.OrderID
	}
	return ids, nil
}

// BulkInsertTrades inserts rows and returns assigned trade IDs in input order.
func (s *GormStore) BulkInsertTrades(ctx context.Context, rows []TradeRow) ([]int64, error) {
	records := make([]models.Trade, len(rows))
	for i, r := range rows {
		records[i] = models.Trade{
			BuyOrderID:  r.BuyOrderID,
			SellOrderID: r.SellOrderID,
			Symbol:      r.Symbol,
			Price:       r.Price.Decimal(),
			Quantity:    r.Quantity,
		}
	}

	err := s.writeThroughBreaker(func() error {
		return s.db.WithContext(ctx).Create(&records).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: bulk insert trades: %w", err)
	}

	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.TradeID
	}
	return ids, nil
}

// UpdateOrderStatus sets an order's status column.
func (s *GormStore) UpdateOrderStatus(ctx context.Context, orderID int64, status matching.Status) error {
	err := s.writeThroughBreaker(func() error {
		return s.db.WithContext(ctx).
			Model(&models.Order{}).
			Where("order_id = ?", orderID).
			Update("status", string(status)).Error
	})
	if err != nil {
		return fmt.Errorf("store: update order status: %w", err)
	}
	return nil
}

// UpsertPosition applies quantityDelta and realizedPnLDelta additively
// and overwrites avg_cost, keyed on (user_id, symbol).
func (s *GormStore) UpsertPosition(ctx context.Context, userID int64, symbol string, quantityDelta int64, avgCost money.Amount, realizedPnLDelta money.Amount) error {
	err := s.writeThroughBreaker(func() error {
		return s.db.WithContext(ctx).Exec(`
			INSERT INTO positions (user_id, symbol, quantity, avg_cost, realized_pnl, last_updated)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, symbol) DO UPDATE SET
				quantity = positions.quantity + EXCLUDED.quantity,
				avg_cost = EXCLUDED.avg_cost,
				realized_pnl = positions.realized_pnl + EXCLUDED.realized_pnl,
				last_updated = EXCLUDED.last_updated
		`, userID, symbol, quantityDelta, avgCost.Decimal(), realizedPnLDelta.Decimal(), time.Now()).Error
	})
	if err != nil {
		return fmt.Errorf("store: upsert position: %w", err)
	}
	return nil
}

// InsertPnLHistory appends one realized-P&L event.
func (s *GormStore) InsertPnLHistory(ctx context.Context, userID int64, symbol string, tradeID int64, realizedPnL money.Amount) error {
	err := s.writeThroughBreaker(func() error {
		return s.db.WithContext(ctx).Create(&models.PnLHistory{
			UserID:      userID,
			Symbol:      symbol,
			TradeID:     tradeID,
			RealizedPnL: realizedPnL.Decimal(),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("store: insert pnl history: %w", err)
	}
	return nil
}

// GetTradesByDate returns every trade timestamped on date (UTC day boundary).
func (s *GormStore) GetTradesByDate(ctx context.Context, date time.Time) ([]*matching.Trade, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var rows []models.Trade
	if err := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: get trades by date: %w", err)
	}

	trades := make([]*matching.Trade, len(rows))
	for i, r := range rows {
		trades[i] = &matching.Trade{
			ID:          r.TradeID,
			BuyOrderID:  r.BuyOrderID,
			SellOrderID: r.SellOrderID,
			Symbol:      r.Symbol,
			Price:       money.NewFromDecimal(r.Price),
			Quantity:    r.Quantity,
			Timestamp:   r.Timestamp,
		}
	}
	return trades, nil
}

// GetOrder fetches one order by ID.
func (s *GormStore) GetOrder(ctx context.Context, orderID int64) (*matching.Order, error) {
	var row models.Order
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error; err != nil {
		return nil, fmt.Errorf("store: get order %d: %w", orderID, err)
	}
	return &matching.Order{
		ID:        row.OrderID,
		UserID:    row.UserID,
		Symbol:    row.Symbol,
		Side:      matching.Side(row.Side),
		Price:     money.NewFromDecimal(row.Price),
		Quantity:  row.Quantity,
		Status:    matching.Status(row.Status),
		Timestamp: row.Timestamp,
	}, nil
}

// InsertReconciliationLog always writes, even for a zero-trade run.
func (s *GormStore) InsertReconciliationLog(ctx context.Context, result reconcile.Result) error {
	err := s.writeThroughBreaker(func() error {
		return s.db.WithContext(ctx).Create(&models.ReconciliationLog{
			CheckDate:     result.CheckDate,
			TotalTrades:   result.TotalTrades,
			MatchedTrades: result.MatchedTrades,
			Discrepancies: len(result.Discrepancies),
			Accuracy:      decimalFromFloat(result.Accuracy),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("store: insert reconciliation log: %w", err)
	}
	return nil
}

// ReconciliationHistory returns the last limit logged runs, newest first.
func (s *GormStore) ReconciliationHistory(ctx context.Context, limit int) ([]reconcile.Result, error) {
	var rows []models.ReconciliationLog
	if err := s.db.WithContext(ctx).
		Order("check_date DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: reconciliation history: %w", err)
	}

	results := make([]reconcile.Result, len(rows))
	for i, r := range rows {
		accuracy, _ := r.Accuracy.Float64()
		results[i] = reconcile.Result{
			CheckDate:     r.CheckDate,
			TotalTrades:   r.TotalTrades,
			MatchedTrades: r.MatchedTrades,
			Accuracy:      accuracy,
		}
	}
	return results, nil
}

// AccuracyStats aggregates every logged reconciliation run.
func (s *GormStore) AccuracyStats(ctx context.Context) (reconcile.AccuracyStats, error) {
	var row struct {
		AvgAccuracy float64
		MinAccuracy float64
		MaxAccuracy float64
		Total       int
	}
	err := s.db.WithContext(ctx).
		Model(&models.ReconciliationLog{}).
		Select("COALESCE(AVG(accuracy),0) as avg_accuracy, COALESCE(MIN(accuracy),0) as min_accuracy, COALESCE(MAX(accuracy),0) as max_accuracy, COUNT(*) as total").
		Scan(&row).Error
	if err != nil {
		return reconcile.AccuracyStats{}, fmt.Errorf("store: accuracy stats: %w", err)
	}

	return reconcile.AccuracyStats{
		AverageAccuracy: row.AvgAccuracy,
		MinAccuracy:     row.MinAccuracy,
		MaxAccuracy:     row.MaxAccuracy,
		TotalChecks:     row.Total,
	}, nil
}

// LoadPositions reads every row of the positions table, used to warm-start
// the P&L engine after a restart.
func (s *GormStore) LoadPositions(ctx context.Context) ([]PositionRow, error) {
	var rows []models.Position
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: load positions: %w", err)
	}

	out := make([]PositionRow, len(rows))
	for i, r := range rows {
		out[i] = PositionRow{
			UserID:      r.UserID,
			Symbol:      r.Symbol,
			Quantity:    r.Quantity,
			AvgCost:     money.NewFromDecimal(r.AvgCost),
			RealizedPnL: money.NewFromDecimal(r.RealizedPnL),
		}
	}
	return out, nil
}
