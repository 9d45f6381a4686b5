package ws

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebSocketHandler upgrades inbound HTTP connections to websockets and
// admits the resulting client into the market data hub.
type WebSocketHandler struct {
	hub    *Hub
	logger *zap.Logger
	config *WebSocketHandlerConfig
}

// WebSocketHandlerConfig controls where the upgrade endpoint is mounted.
type WebSocketHandlerConfig struct {
	Path string
}

// DefaultWebSocketHandlerConfig mounts the feed at /ws/market-data.
func DefaultWebSocketHandlerConfig() *WebSocketHandlerConfig {
	return &WebSocketHandlerConfig{
		Path: "/ws/market-data",
	}
}

// NewWebSocketHandler builds a handler serving hub's connections.
func NewWebSocketHandler(hub *Hub, logger *zap.Logger, config *WebSocketHandlerConfig) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
		config: config,
	}
}

// RegisterRoutes mounts the upgrade endpoint on router.
func (h *WebSocketHandler) RegisterRoutes(router gin.IRouter) {
	router.GET(h.config.Path, h.handleWebSocket)
}

func (h *WebSocketHandler) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade market data websocket", zap.Error(err))
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h.hub, conn, clientID, h.logger)
	h.hub.RegisterClient(client)
	client.Start()

	h.logger.Info("market data websocket client connected", zap.String("client_id", clientID))
}
