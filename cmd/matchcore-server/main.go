// Command matchcore-server hosts the trading API, the market data
// websocket gateway, and a Prometheus metrics endpoint in one process,
// wired together with fx the same way the rest of this codebase's
// services start up.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tradecore/matchcore/internal/api"
	"github.com/tradecore/matchcore/internal/config"
	"github.com/tradecore/matchcore/internal/events"
	"github.com/tradecore/matchcore/internal/marketdata"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/metrics"
	"github.com/tradecore/matchcore/internal/pnl"
	"github.com/tradecore/matchcore/internal/reconcile"
	"github.com/tradecore/matchcore/internal/store"
	"github.com/tradecore/matchcore/internal/ws"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newEngine,
			newPnLEngine,
			newReconciler,
			newStore,
			newIntegrityChecker,
			newBus,
			newRecorder,
			newConnMetrics,
			newValidator,
			newHub,
			newHandlers,
		),
		fx.Invoke(registerBridge, registerServer),
	)
	app.Run()
}

func newConfig() (*config.Config, error) {
	return config.LoadConfig("")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return config.InitLogger(cfg)
}

func newEngine(logger *zap.Logger) *matching.Engine {
	return matching.NewEngine(logger)
}

func newPnLEngine(cfg *config.Config, logger *zap.Logger) *pnl.Engine {
	ttl := time.Duration(cfg.Risk.CacheTTLSeconds) * time.Second
	cleanup := time.Duration(cfg.Risk.CacheCleanupSeconds) * time.Second
	return pnl.NewEngine(logger, ttl, cleanup)
}

func newReconciler(logger *zap.Logger) *reconcile.Reconciler {
	return reconcile.New(logger)
}

// newStore returns an in-memory store unless cfg.Database.Enabled, in
// which case orders and trades are persisted to Postgres.
func newStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	if !cfg.Database.Enabled {
		return store.NewMemoryStore(), nil
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return store.NewGormStore(db, logger), nil
}

// newIntegrityChecker opens a second, raw sqlx connection for the
// analytical sweeps in internal/reconcile, which run as plain SQL
// rather than through gorm. Returns nil when Postgres is disabled.
func newIntegrityChecker(cfg *config.Config) (*reconcile.IntegrityChecker, error) {
	if !cfg.Database.Enabled {
		return nil, nil
	}
	db, err := sqlx.Connect("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return reconcile.NewIntegrityChecker(db), nil
}

func newBus(logger *zap.Logger) *events.Bus {
	return events.NewInProcBus(logger)
}

func newRecorder() *metrics.Recorder {
	return metrics.NewRecorder(prometheus.DefaultRegisterer)
}

func newValidator(engine *matching.Engine) *marketdata.Validator {
	return marketdata.NewValidator(engine)
}

func newConnMetrics() *metrics.ConnectionMetrics {
	return metrics.NewConnectionMetrics(prometheus.DefaultRegisterer)
}

func newHub(logger *zap.Logger, validator *marketdata.Validator, connMetrics *metrics.ConnectionMetrics) *ws.Hub {
	hub := ws.NewHub(logger, validator, connMetrics)
	go hub.Run()
	return hub
}

func newHandlers(engine *matching.Engine, pnlEngine *pnl.Engine, reconciler *reconcile.Reconciler, st store.Store, bus *events.Bus, cfg *config.Config, logger *zap.Logger) *api.Handlers {
	return api.NewHandlers(engine, pnlEngine, reconciler, st, bus, cfg.Matching.BookLevels, logger)
}

// registerBridge relays published trades into the market data hub for
// the lifetime of the process.
func registerBridge(lc fx.Lifecycle, hub *ws.Hub, engine *matching.Engine, bus *events.Bus, cfg *config.Config, logger *zap.Logger) {
	bridge := ws.NewBridge(hub, engine, bus, cfg.Matching.BookLevels, logger)

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := bridge.Run(ctx); err != nil {
					logger.Error("market data bridge stopped with error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// registerServer builds the HTTP handler (REST API, market data
// websocket, metrics) and starts/stops it alongside the fx app.
func registerServer(lc fx.Lifecycle, h *api.Handlers, hub *ws.Hub, checker *reconcile.IntegrityChecker, cfg *config.Config, logger *zap.Logger) {
	wsHandler := ws.NewWebSocketHandler(hub, logger, ws.DefaultWebSocketHandlerConfig())

	handler := api.NewRouter(h, api.RouterConfig{OrdersPerSecond: cfg.RateLimit.OrdersPerSecond}, logger,
		func(router *gin.Engine) {
			wsHandler.RegisterRoutes(router)
			router.GET("/metrics", gin.WrapH(promhttp.Handler()))
			router.GET("/admin/integrity", integrityHandler(checker))
		},
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: handler,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("server stopped with error", zap.Error(err))
				}
			}()
			logger.Info("matchcore-server started", zap.String("addr", srv.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// integrityHandler runs the analytical Postgres sweeps on demand. When
// no database is configured it reports 503 rather than pretending the
// data is clean.
func integrityHandler(checker *reconcile.IntegrityChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
			return
		}
		report, err := checker.Check(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
