// Package models holds the gorm row types backing the fixed schema:
// orders, trades, positions, pnl_history, reconciliation_log.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is one row of the orders table.
type Order struct {
	OrderID   int64           `gorm:"column:order_id;primaryKey;autoIncrement"`
	UserID    int64           `gorm:"column:user_id;index:idx_orders_user_time"`
	Symbol    string          `gorm:"column:symbol;size:10;index:idx_orders_symbol_side_price"`
	Side      string          `gorm:"column:side;size:4;index:idx_orders_symbol_side_price"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(10,2);index:idx_orders_symbol_side_price"`
	Quantity  int64           `gorm:"column:quantity"`
	Status    string          `gorm:"column:status;size:10;default:PENDING;index:idx_orders_status"`
	Timestamp time.Time       `gorm:"column:timestamp;autoCreateTime;index:idx_orders_user_time"`
}

func (Order) TableName() string { return "orders" }

// Trade is one row of the trades table.
type Trade struct {
	TradeID     int64           `gorm:"column:trade_id;primaryKey;autoIncrement"`
	BuyOrderID  int64           `gorm:"column:buy_order_id"`
	SellOrderID int64           `gorm:"column:sell_order_id"`
	Symbol      string          `gorm:"column:symbol;size:10;index:idx_trades_symbol_time"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(10,2)"`
	Quantity    int64           `gorm:"column:quantity"`
	Timestamp   time.Time       `gorm:"column:timestamp;autoCreateTime;index:idx_trades_symbol_time;index:idx_trades_time"`
}

func (Trade) TableName() string { return "trades" }

// Position is one row of the positions table, unique on (user_id, symbol).
type Position struct {
	PositionID  int64           `gorm:"column:position_id;primaryKey;autoIncrement"`
	UserID      int64           `gorm:"column:user_id;uniqueIndex:idx_positions_user_symbol"`
	Symbol      string          `gorm:"column:symbol;size:10;uniqueIndex:idx_positions_user_symbol"`
	Quantity    int64           `gorm:"column:quantity;default:0"`
	AvgCost     decimal.Decimal `gorm:"column:avg_cost;type:decimal(10,2);default:0"`
	RealizedPnL decimal.Decimal `gorm:"column:realized_pnl;type:decimal(15,2);default:0"`
	LastUpdated time.Time       `gorm:"column:last_updated;autoUpdateTime"`
}

func (Position) TableName() string { return "positions" }

// PnLHistory is one row of the pnl_history table.
type PnLHistory struct {
	PnLID       int64           `gorm:"column:pnl_id;primaryKey;autoIncrement"`
	UserID      int64           `gorm:"column:user_id"`
	Symbol      string          `gorm:"column:symbol;size:10"`
	TradeID     int64           `gorm:"column:trade_id"`
	RealizedPnL decimal.Decimal `gorm:"column:realized_pnl;type:decimal(15,2)"`
	Timestamp   time.Time       `gorm:"column:timestamp;autoCreateTime"`
}

func (PnLHistory) TableName() string { return "pnl_history" }

// ReconciliationLog is one row of the reconciliation_log table.
type ReconciliationLog struct {
	LogID         int64           `gorm:"column:log_id;primaryKey;autoIncrement"`
	CheckDate     time.Time       `gorm:"column:check_date;type:date"`
	TotalTrades   int             `gorm:"column:total_trades"`
	MatchedTrades int             `gorm:"column:matched_trades"`
	Discrepancies int             `gorm:"column:discrepancies"`
	Accuracy      decimal.Decimal `gorm:"column:accuracy;type:decimal(5,2)"`
	Timestamp     time.Time       `gorm:"column:timestamp;autoCreateTime"`
}

func (ReconciliationLog) TableName() string { return "reconciliation_log" }
