package ws

import (
	"encoding/json"
	"sync"

	"github.com/tradecore/matchcore/internal/marketdata"
	"github.com/tradecore/matchcore/internal/metrics"
	"go.uber.org/zap"
)

// Hub maintains the set of connected clients and fans out book/trade
// updates to whichever clients are subscribed to the relevant symbol.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// symbolSubscriptions maps symbol -> set of subscribed clients.
	symbolSubscriptions map[string]map[*Client]bool

	validator *marketdata.Validator
	metrics   *metrics.ConnectionMetrics
	logger    *zap.Logger
	mu        sync.RWMutex
}

// NewHub creates an empty Hub. Call Run in its own goroutine before
// accepting connections. validator and connMetrics may be nil in tests
// that don't care about rejecting unknown symbols or counting
// connections.
func NewHub(logger *zap.Logger, validator *marketdata.Validator, connMetrics *metrics.ConnectionMetrics) *Hub {
	return &Hub{
		clients:             make(map[*Client]bool),
		register:            make(chan *Client),
		unregister:          make(chan *Client),
		symbolSubscriptions: make(map[string]map[*Client]bool),
		validator:           validator,
		metrics:             connMetrics,
		logger:              logger,
	}
}

func (h *Hub) recordConnect() {
	if h.metrics != nil {
		h.metrics.RecordConnect()
	}
}

func (h *Hub) recordDisconnect() {
	if h.metrics != nil {
		h.metrics.RecordDisconnect()
	}
}

func (h *Hub) recordSubscribe() {
	if h.metrics != nil {
		h.metrics.RecordSubscribe()
	}
}

func (h *Hub) recordUnsubscribe() {
	if h.metrics != nil {
		h.metrics.RecordUnsubscribe()
	}
}

// Run processes register/unregister events until ctx-less shutdown via
// process exit; there is no drain path because client lifetimes are
// bounded by their own connection, not the hub's.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.recordConnect()
			h.logger.Info("websocket client connected", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				for symbol, subscribers := range h.symbolSubscriptions {
					if _, exists := subscribers[client]; exists {
						delete(subscribers, client)
						h.recordUnsubscribe()
						if len(subscribers) == 0 {
							delete(h.symbolSubscriptions, symbol)
						}
					}
				}
			}
			h.mu.Unlock()
			h.recordDisconnect()
			h.logger.Info("websocket client disconnected", zap.String("client_id", client.ID))
		}
	}
}

// RegisterClient admits client into the hub.
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient evicts client and closes its send channel.
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// SubscribeToSymbol adds client to symbol's subscriber set.
func (h *Hub) SubscribeToSymbol(client *Client, symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.symbolSubscriptions[symbol] == nil {
		h.symbolSubscriptions[symbol] = make(map[*Client]bool)
	}
	if !h.symbolSubscriptions[symbol][client] {
		h.symbolSubscriptions[symbol][client] = true
		h.recordSubscribe()
	}
}

// UnsubscribeFromSymbol removes client from symbol's subscriber set.
func (h *Hub) UnsubscribeFromSymbol(client *Client, symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subscribers, exists := h.symbolSubscriptions[symbol]; exists {
		if subscribers[client] {
			delete(subscribers, client)
			h.recordUnsubscribe()
		}
		if len(subscribers) == 0 {
			delete(h.symbolSubscriptions, symbol)
		}
	}
}

// HandleClientMessage dispatches an inbound subscribe/unsubscribe frame.
func (h *Hub) HandleClientMessage(client *Client, raw []byte) {
	var msg WebSocketMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Warn("malformed websocket message", zap.Error(err))
		return
	}

	var payload struct {
		Symbols []string `json:"symbols"`
	}

	switch msg.Type {
	case "subscribe":
		if err := msg.UnmarshalData(&payload); err != nil {
			return
		}
		if h.validator != nil {
			if err := h.validator.CheckSymbols(payload.Symbols); err != nil {
				h.sendError(client, err.Error())
				return
			}
		}
		for _, symbol := range payload.Symbols {
			h.SubscribeToSymbol(client, symbol)
		}
	case "unsubscribe":
		if err := msg.UnmarshalData(&payload); err != nil {
			return
		}
		for _, symbol := range payload.Symbols {
			h.UnsubscribeFromSymbol(client, symbol)
		}
	default:
		h.logger.Warn("unknown websocket message type", zap.String("type", msg.Type))
	}
}

func (h *Hub) sendError(client *Client, reason string) {
	errMsg := NewErrorMessage(reason)
	payload, err := json.Marshal(errMsg)
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

// BroadcastToSymbol pushes an already-marshaled payload to every client
// subscribed to symbol.
func (h *Hub) BroadcastToSymbol(symbol string, payload []byte) {
	h.mu.RLock()
	subscribers, exists := h.symbolSubscriptions[symbol]
	if !exists {
		h.mu.RUnlock()
		return
	}
	targets := make([]*Client, 0, len(subscribers))
	for client := range subscribers {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.send <- payload:
		default:
			h.UnregisterClient(client)
		}
	}
}

// BookUpdatePayload is the wire shape pushed on every book change.
type BookUpdatePayload struct {
	Symbol string `json:"symbol"`
	Bids   []BookLevel `json:"bids"`
	Asks   []BookLevel `json:"asks"`
}

// BookLevel is one aggregated price level.
type BookLevel struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// TradeUpdatePayload is the wire shape pushed for every executed trade.
type TradeUpdatePayload struct {
	Symbol   string  `json:"symbol"`
	TradeID  int64   `json:"trade_id"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// PublishBookUpdate marshals and broadcasts a book update for symbol.
func (h *Hub) PublishBookUpdate(symbol string, update BookUpdatePayload) {
	msg, err := NewWebSocketMessage("book_update", update)
	if err != nil {
		h.logger.Warn("failed to marshal book update", zap.Error(err))
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("failed to marshal websocket envelope", zap.Error(err))
		return
	}
	h.BroadcastToSymbol(symbol, payload)
}

// PublishTradeUpdate marshals and broadcasts a trade update for symbol.
func (h *Hub) PublishTradeUpdate(symbol string, update TradeUpdatePayload) {
	msg, err := NewWebSocketMessage("trade", update)
	if err != nil {
		h.logger.Warn("failed to marshal trade update", zap.Error(err))
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("failed to marshal websocket envelope", zap.Error(err))
		return
	}
	h.BroadcastToSymbol(symbol, payload)
}
