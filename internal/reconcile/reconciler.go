// Package reconcile validates a set of trades against the orders that
// produced them and reports an accuracy score. A failing check is a
// finding, not an error: reconciliation always runs to completion and
// always writes an audit record, even when there is nothing to check.
package reconcile

import (
	"fmt"
	"time"

	"github.com/tradecore/matchcore/internal/matching"
	"go.uber.org/zap"
)

// Reason is a short machine-checkable code for why a trade failed
// validation, distinct from the free-text Detail.
type Reason string

const (
	ReasonBuyOrderNotFound    Reason = "BUY_ORDER_NOT_FOUND"
	ReasonSellOrderNotFound   Reason = "SELL_ORDER_NOT_FOUND"
	ReasonSymbolMismatch      Reason = "SYMBOL_MISMATCH"
	ReasonSideMismatch        Reason = "SIDE_MISMATCH"
	ReasonPriceOutOfBand      Reason = "PRICE_OUT_OF_BAND"
	ReasonInvalidQuantity     Reason = "INVALID_QUANTITY"
	ReasonCausalOrderViolated Reason = "CAUSAL_ORDER_VIOLATED"
)

// Discrepancy records one failed trade validation.
type Discrepancy struct {
	TradeID   int64
	Reason    Reason
	Detail    string
	Timestamp time.Time
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	CheckDate     time.Time
	TotalTrades   int
	MatchedTrades int
	Discrepancies []Discrepancy
	Accuracy      float64
}

// OrderLookup resolves an order by ID, the same shape as the engine's
// GetOrder, so a live Engine's lookup can be passed directly. The store's
// GetOrder takes a context and returns an error, so running against
// persisted rows needs an adapter.
type OrderLookup func(orderID int64) (*matching.Order, bool)

// Reconciler validates trades against their originating orders.
type Reconciler struct {
	logger *zap.Logger
}

// New builds a Reconciler.
func New(logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{logger: logger}
}

// Reconcile runs the six ordered per-trade checks against every trade in
// trades, short-circuiting each trade on its first failing check.
// total_trades == 0 always yields accuracy 100.0, matching the "nothing
// to check, nothing wrong" convention.
func (r *Reconciler) Reconcile(checkDate time.Time, trades []*matching.Trade, lookup OrderLookup) Result {
	result := Result{CheckDate: checkDate, TotalTrades: len(trades)}

	if len(trades) == 0 {
		result.Accuracy = 100.0
		r.logger.Warn("no trades found for reconciliation date", zap.Time("check_date", checkDate))
		return result
	}

	for _, trade := range trades {
		if reason, detail, ok := validateTrade(trade, lookup); ok {
			result.MatchedTrades++
		} else {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				TradeID:   trade.ID,
				Reason:    reason,
				Detail:    detail,
				Timestamp: trade.Timestamp,
			})
		}
	}

	result.Accuracy = round2(float64(result.MatchedTrades) / float64(result.TotalTrades) * 100)

	r.logger.Info("reconciliation complete",
		zap.Float64("accuracy", result.Accuracy),
		zap.Int("matched", result.MatchedTrades),
		zap.Int("total", result.TotalTrades))

	return result
}

// validateTrade runs the six checks in order: existence, symbol
// agreement, side correctness, price containment, quantity sanity, and
// causal ordering. It stops at the first failure.
func validateTrade(trade *matching.Trade, lookup OrderLookup) (Reason, string, bool) {
	buyOrder, ok := lookup(trade.BuyOrderID)
	if !ok {
		return ReasonBuyOrderNotFound, fmt.Sprintf("buy order %d not found", trade.BuyOrderID), false
	}
	sellOrder, ok := lookup(trade.SellOrderID)
	if !ok {
		return ReasonSellOrderNotFound, fmt.Sprintf("sell order %d not found", trade.SellOrderID), false
	}

	if buyOrder.Symbol != trade.Symbol {
		return ReasonSymbolMismatch, fmt.Sprintf("buy order symbol %s vs trade symbol %s", buyOrder.Symbol, trade.Symbol), false
	}
	if sellOrder.Symbol != trade.Symbol {
		return ReasonSymbolMismatch, fmt.Sprintf("sell order symbol %s vs trade symbol %s", sellOrder.Symbol, trade.Symbol), false
	}

	if buyOrder.Side != matching.Buy {
		return ReasonSideMismatch, fmt.Sprintf("buy order %d has side %s", buyOrder.ID, buyOrder.Side), false
	}
	if sellOrder.Side != matching.Sell {
		return ReasonSideMismatch, fmt.Sprintf("sell order %d has side %s", sellOrder.ID, sellOrder.Side), false
	}

	if trade.Price > buyOrder.Price {
		return ReasonPriceOutOfBand, fmt.Sprintf("trade price %s exceeds buy price %s", trade.Price, buyOrder.Price), false
	}
	if trade.Price < sellOrder.Price {
		return ReasonPriceOutOfBand, fmt.Sprintf("trade price %s below sell price %s", trade.Price, sellOrder.Price), false
	}

	if trade.Quantity <= 0 {
		return ReasonInvalidQuantity, fmt.Sprintf("invalid trade quantity %d", trade.Quantity), false
	}
	if trade.Quantity > buyOrder.Quantity {
		return ReasonInvalidQuantity, fmt.Sprintf("trade quantity %d exceeds buy order quantity %d", trade.Quantity, buyOrder.Quantity), false
	}
	if trade.Quantity > sellOrder.Quantity {
		return ReasonInvalidQuantity, fmt.Sprintf("trade quantity %d exceeds sell order quantity %d", trade.Quantity, sellOrder.Quantity), false
	}

	if trade.Timestamp.Before(buyOrder.Timestamp) {
		return ReasonCausalOrderViolated, "trade timestamp before buy order timestamp", false
	}
	if trade.Timestamp.Before(sellOrder.Timestamp) {
		return ReasonCausalOrderViolated, "trade timestamp before sell order timestamp", false
	}

	return "", "", true
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
