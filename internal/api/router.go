package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig controls middleware behavior that varies by deployment.
type RouterConfig struct {
	OrdersPerSecond int
}

// NewRouter builds the gin engine for the trading API: order submission,
// book snapshots, user P&L reports, and on-demand reconciliation. extra
// registers any additional routes (the market data websocket, a metrics
// endpoint) before gzip is applied. The returned http.Handler has gzip
// compression applied outside gin's own middleware chain (see WrapGzip).
func NewRouter(h *Handlers, cfg RouterConfig, logger *zap.Logger, extra ...func(*gin.Engine)) http.Handler {
	RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORS())
	router.Use(CorrelationID())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	orders := router.Group("/orders")
	orders.Use(OrderSubmissionRateLimit(cfg.OrdersPerSecond))
	{
		orders.POST("", h.SubmitOrder)
		orders.DELETE("/:id", h.CancelOrder)
	}

	router.GET("/books/:symbol", h.BookSnapshot)
	router.GET("/users/:id/report", h.UserReport)
	router.POST("/reconciliation/run", h.TriggerReconciliation)

	for _, register := range extra {
		register(router)
	}

	return WrapGzip(router, logger)
}
