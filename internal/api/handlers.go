package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tradecore/matchcore/internal/events"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/money"
	"github.com/tradecore/matchcore/internal/pnl"
	"github.com/tradecore/matchcore/internal/reconcile"
	"github.com/tradecore/matchcore/internal/store"
	"go.uber.org/zap"
)

// Handlers groups every REST endpoint this service exposes. It holds no
// mutable state of its own beyond its collaborators.
type Handlers struct {
	engine      *matching.Engine
	pnlEngine   *pnl.Engine
	reconciler  *reconcile.Reconciler
	store       store.Store
	bus         events.Publisher
	bookLevels  int
	logger      *zap.Logger
}

// NewHandlers builds the handler set. bus may be nil, in which case
// trade events are never published (useful for tests).
func NewHandlers(engine *matching.Engine, pnlEngine *pnl.Engine, reconciler *reconcile.Reconciler, st store.Store, bus events.Publisher, bookLevels int, logger *zap.Logger) *Handlers {
	return &Handlers{
		engine:     engine,
		pnlEngine:  pnlEngine,
		reconciler: reconciler,
		store:      st,
		bus:        bus,
		bookLevels: bookLevels,
		logger:     logger,
	}
}

// SubmitOrder handles POST /orders: submits the order to the matching
// engine, feeds every resulting trade into the P&L engine, flushes the
// touched positions to storage, and publishes each trade.
func (h *Handlers) SubmitOrder(c *gin.Context) {
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	side := matching.Buy
	if req.Side == "sell" {
		side = matching.Sell
	}

	order, trades, err := h.engine.Submit(req.UserID, req.Symbol, side, money.NewFromFloat(req.Price), req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	h.settleTrades(ctx, trades)

	c.JSON(http.StatusCreated, toSubmitOrderResponse(order, trades))
}

func (h *Handlers) settleTrades(ctx context.Context, trades []*matching.Trade) {
	for _, t := range trades {
		buyOrder, _ := h.engine.GetOrder(t.BuyOrderID)
		sellOrder, _ := h.engine.GetOrder(t.SellOrderID)

		if buyOrder != nil {
			h.pnlEngine.OnFill(buyOrder.UserID, t.Symbol, matching.Buy, t.Price, t.Quantity)
			h.flushPosition(ctx, buyOrder.UserID, t.Symbol, t.ID)
		}
		if sellOrder != nil {
			h.pnlEngine.OnFill(sellOrder.UserID, t.Symbol, matching.Sell, t.Price, t.Quantity)
			h.flushPosition(ctx, sellOrder.UserID, t.Symbol, t.ID)
		}

		if h.bus != nil {
			if err := h.bus.PublishTrade(ctx, t); err != nil {
				h.logger.Warn("failed to publish trade event", zap.Error(err), zap.Int64("trade_id", t.ID))
			}
		}
	}
}

func (h *Handlers) flushPosition(ctx context.Context, userID int64, symbol string, tradeID int64) {
	if h.store == nil {
		return
	}
	if err := h.pnlEngine.Flush(ctx, h.store, userID, symbol, tradeID); err != nil {
		h.logger.Warn("failed to flush position", zap.Error(err), zap.Int64("user_id", userID), zap.String("symbol", symbol))
	}
}

// CancelOrder handles DELETE /orders/:id.
func (h *Handlers) CancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	if err := h.engine.Cancel(orderID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// BookSnapshot handles GET /books/:symbol.
func (h *Handlers) BookSnapshot(c *gin.Context) {
	symbol := c.Param("symbol")
	levels := h.bookLevels
	if raw := c.Query("levels"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			levels = n
		}
	}

	snapshot := h.engine.Snapshot(symbol, levels)
	c.JSON(http.StatusOK, toSnapshotResponse(snapshot))
}

// UserReport handles GET /users/:id/report.
func (h *Handlers) UserReport(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	report := h.pnlEngine.GenerateUserReport(userID)
	c.JSON(http.StatusOK, toUserReportResponse(userID, report))
}

// TriggerReconciliation handles POST /reconciliation/run. It reconciles
// every trade recorded for the given date (default: today) against
// the live engine's order index.
func (h *Handlers) TriggerReconciliation(c *gin.Context) {
	checkDate := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		checkDate = parsed
	}

	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no trade store configured"})
		return
	}

	trades, err := h.store.GetTradesByDate(c.Request.Context(), checkDate)
	if err != nil {
		h.logger.Error("failed to load trades for reconciliation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trades"})
		return
	}

	result := h.reconciler.RunAndLog(c.Request.Context(), h.store, checkDate, trades, h.engine.GetOrder)
	c.JSON(http.StatusOK, toReconciliationResponse(result))
}
