package api

import (
	"time"

	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/pnl"
	"github.com/tradecore/matchcore/internal/reconcile"
)

// SubmitOrderRequest is the inbound payload for order submission.
type SubmitOrderRequest struct {
	UserID   int64   `json:"user_id" binding:"required,gt=0"`
	Symbol   string  `json:"symbol" binding:"required,symbol"`
	Side     string  `json:"side" binding:"required,oneof=buy sell"`
	Price    float64 `json:"price" binding:"required,gt=0"`
	Quantity int64   `json:"quantity" binding:"required,gt=0"`
}

// TradeResponse is one fill resulting from a submission.
type TradeResponse struct {
	TradeID     int64     `json:"trade_id"`
	BuyOrderID  int64     `json:"buy_order_id"`
	SellOrderID int64     `json:"sell_order_id"`
	Price       float64   `json:"price"`
	Quantity    int64     `json:"quantity"`
	Timestamp   time.Time `json:"timestamp"`
}

// SubmitOrderResponse is returned after a successful submission.
type SubmitOrderResponse struct {
	OrderID        int64           `json:"order_id"`
	Symbol         string          `json:"symbol"`
	Side           string          `json:"side"`
	Price          float64         `json:"price"`
	Quantity       int64           `json:"quantity"`
	FilledQuantity int64           `json:"filled_quantity"`
	Status         string          `json:"status"`
	Trades         []TradeResponse `json:"trades"`
}

func toSubmitOrderResponse(order *matching.Order, trades []*matching.Trade) SubmitOrderResponse {
	resp := SubmitOrderResponse{
		OrderID:        order.ID,
		Symbol:         order.Symbol,
		Side:           sideToString(order.Side),
		Price:          order.Price.Float64(),
		Quantity:       order.Quantity,
		FilledQuantity: order.FilledQuantity,
		Status:         statusToString(order.Status),
		Trades:         make([]TradeResponse, len(trades)),
	}
	for i, t := range trades {
		resp.Trades[i] = TradeResponse{
			TradeID:     t.ID,
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
			Price:       t.Price.Float64(),
			Quantity:    t.Quantity,
			Timestamp:   t.Timestamp,
		}
	}
	return resp
}

func sideToString(s matching.Side) string {
	if s == matching.Buy {
		return "buy"
	}
	return "sell"
}

func statusToString(s matching.Status) string {
	switch s {
	case matching.StatusPending:
		return "pending"
	case matching.StatusPartial:
		return "partial"
	case matching.StatusFilled:
		return "filled"
	case matching.StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PriceLevelResponse is one aggregated book rung.
type PriceLevelResponse struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	Orders   int     `json:"orders"`
}

// SnapshotResponse is the top-of-book view for one symbol.
type SnapshotResponse struct {
	Symbol    string                `json:"symbol"`
	Timestamp time.Time             `json:"timestamp"`
	Bids      []PriceLevelResponse  `json:"bids"`
	Asks      []PriceLevelResponse  `json:"asks"`
}

func toSnapshotResponse(s matching.Snapshot) SnapshotResponse {
	resp := SnapshotResponse{Symbol: s.Symbol, Timestamp: s.Timestamp}
	resp.Bids = make([]PriceLevelResponse, len(s.Bids))
	for i, l := range s.Bids {
		resp.Bids[i] = PriceLevelResponse{Price: l.Price.Float64(), Quantity: l.Quantity, Orders: l.Orders}
	}
	resp.Asks = make([]PriceLevelResponse, len(s.Asks))
	for i, l := range s.Asks {
		resp.Asks[i] = PriceLevelResponse{Price: l.Price.Float64(), Quantity: l.Quantity, Orders: l.Orders}
	}
	return resp
}

// PositionResponse mirrors pnl.PositionLine for the wire.
type PositionResponse struct {
	Symbol        string  `json:"symbol"`
	Quantity      int64   `json:"quantity"`
	AvgCost       float64 `json:"avg_cost"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl,omitempty"`
}

// UserReportResponse is a single user's portfolio breakdown.
type UserReportResponse struct {
	UserID    int64               `json:"user_id"`
	Positions []PositionResponse  `json:"positions"`
}

func toUserReportResponse(userID int64, report pnl.Report) UserReportResponse {
	resp := UserReportResponse{UserID: userID, Positions: make([]PositionResponse, len(report.Positions))}
	for i, p := range report.Positions {
		resp.Positions[i] = PositionResponse{
			Symbol:        p.Symbol,
			Quantity:      p.Quantity,
			AvgCost:       p.AvgCost,
			RealizedPnL:   p.RealizedPnL,
			UnrealizedPnL: p.UnrealizedPnL,
		}
	}
	return resp
}

// ReconciliationResponse is returned after triggering a reconciliation run.
type ReconciliationResponse struct {
	CheckDate      time.Time                  `json:"check_date"`
	TotalTrades    int                        `json:"total_trades"`
	MatchedTrades  int                        `json:"matched_trades"`
	Accuracy       float64                    `json:"accuracy"`
	Discrepancies  []reconcile.Discrepancy    `json:"discrepancies"`
}

func toReconciliationResponse(r reconcile.Result) ReconciliationResponse {
	return ReconciliationResponse{
		CheckDate:     r.CheckDate,
		TotalTrades:   r.TotalTrades,
		MatchedTrades: r.MatchedTrades,
		Accuracy:      r.Accuracy,
		Discrepancies: r.Discrepancies,
	}
}
