package matching

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tradecore/matchcore/internal/money"
	"go.uber.org/zap"
)

// Engine owns one OrderBook per symbol plus the two cross-symbol
// monotonic counters (order IDs, trade IDs). Submission is synchronous:
// Submit blocks until the matching loop for that symbol has run to
// completion and returns every trade the order produced.
type Engine struct {
	mu    sync.RWMutex
	books map[string]*OrderBook
	index map[int64]*OrderBook // orderID -> owning book, for Cancel/Get

	nextOrderID atomic.Int64
	nextTradeID atomic.Int64

	logger *zap.Logger

	statsMu      sync.Mutex
	totalOrders  int64
	totalTrades  int64
	totalLatency time.Duration
}

// Stats is a point-in-time summary, the Go analogue of get_statistics.
type Stats struct {
	TotalOrders   int64
	TotalTrades   int64
	TotalSymbols  int
	AverageLatency time.Duration
}

// NewEngine builds an empty, multi-symbol Engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		books:  make(map[string]*OrderBook),
		index:  make(map[int64]*OrderBook),
		logger: logger,
	}
}

func (e *Engine) bookFor(symbol string) *OrderBook {
	e.mu.RLock()
	b, ok := e.books[symbol]
	e.mu.RUnlock()
	if ok {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok = e.books[symbol]; ok {
		return b
	}
	b = NewOrderBook(symbol, func() int64 { return e.nextTradeID.Add(1) }, e.logger)
	e.books[symbol] = b
	return b
}

func validateInput(symbol string, side Side, price money.Amount, quantity int64) error {
	switch side {
	case Buy, Sell:
	default:
		return ErrUnknownSide
	}
	if price <= 0 {
		return ErrNonPositivePrice
	}
	if quantity <= 0 {
		return ErrNonPositiveQty
	}
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ErrEmptySymbol
	}
	if len(symbol) > MaxSymbolLen {
		return ErrSymbolTooLong
	}
	return nil
}

// Submit assigns a monotonic order ID and timestamp, routes to the
// symbol's book, and returns the order plus any trades it produced. A
// validation failure returns before the order ID counter is advanced.
func (e *Engine) Submit(userID int64, symbol string, side Side, price money.Amount, quantity int64) (*Order, []*Trade, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if err := validateInput(symbol, side, price, quantity); err != nil {
		return nil, nil, err
	}

	start := time.Now()

	order := &Order{
		ID:        e.nextOrderID.Add(1),
		UserID:    userID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Timestamp: start,
		Status:    StatusPending,
	}

	book := e.bookFor(symbol)

	e.mu.Lock()
	e.index[order.ID] = book
	e.mu.Unlock()

	trades := book.Add(order)

	e.statsMu.Lock()
	e.totalOrders++
	e.totalTrades += int64(len(trades))
	e.totalLatency += time.Since(start)
	e.statsMu.Unlock()

	if e.logger != nil {
		e.logger.Debug("order submitted",
			zap.Int64("order_id", order.ID),
			zap.String("symbol", symbol),
			zap.String("side", string(side)),
			zap.Int("trades", len(trades)))
	}

	return order, trades, nil
}

// Cancel removes a still-resting order by ID, wherever its symbol lives.
func (e *Engine) Cancel(orderID int64) error {
	e.mu.RLock()
	book, ok := e.index[orderID]
	e.mu.RUnlock()
	if !ok {
		return ErrOrderNotFound
	}
	return book.Cancel(orderID)
}

// GetOrder resolves an order by ID across every symbol, for
// reconciliation and API lookups. It satisfies the OrderLookup shape
// the reconcile package expects.
func (e *Engine) GetOrder(orderID int64) (*Order, bool) {
	e.mu.RLock()
	book, ok := e.index[orderID]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return book.GetOrder(orderID)
}

// Book returns the OrderBook for symbol, or nil if no order has ever
// been submitted for it.
func (e *Engine) Book(symbol string) *OrderBook {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.books[strings.ToUpper(symbol)]
}

// Snapshot returns the top `levels` price levels for symbol, or a zero
// Snapshot with no levels if no order has ever been submitted for symbol.
func (e *Engine) Snapshot(symbol string, levels int) Snapshot {
	b := e.Book(symbol)
	if b == nil {
		return Snapshot{Symbol: strings.ToUpper(symbol), Timestamp: time.Now()}
	}
	return b.Snapshot(levels)
}

// Symbols lists every symbol with a book, in no particular order.
func (e *Engine) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.books))
	for s := range e.books {
		out = append(out, s)
	}
	return out
}

// Stats reports cumulative submission counters.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	var avg time.Duration
	if e.totalOrders > 0 {
		avg = e.totalLatency / time.Duration(e.totalOrders)
	}

	e.mu.RLock()
	symbols := len(e.books)
	e.mu.RUnlock()

	return Stats{
		TotalOrders:    e.totalOrders,
		TotalTrades:    e.totalTrades,
		TotalSymbols:   symbols,
		AverageLatency: avg,
	}
}
