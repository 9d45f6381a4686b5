package matching

import (
	"sync"
	"time"

	"github.com/tradecore/matchcore/internal/invariant"
	"github.com/tradecore/matchcore/internal/money"
	"go.uber.org/zap"
)

// OrderBook is the two-heap, one-index book for a single symbol. The
// heaps and the order index reference the same *Order records; mutating
// FilledQuantity on a match is visible through both.
type OrderBook struct {
	Symbol string

	mu     sync.Mutex
	bids   *orderHeap
	asks   *orderHeap
	orders map[int64]*Order

	nextTradeID func() int64
	logger      *zap.Logger
}

// NewOrderBook creates an empty book for symbol. nextTradeID is shared
// with every other book in the owning Engine so trade IDs stay a single
// monotonic sequence (or, under symbol-sharded parallelism, a single
// shared atomic counter).
func NewOrderBook(symbol string, nextTradeID func() int64, logger *zap.Logger) *OrderBook {
	return &OrderBook{
		Symbol:      symbol,
		bids:        newOrderHeap(true),
		asks:        newOrderHeap(false),
		orders:      make(map[int64]*Order),
		nextTradeID: nextTradeID,
		logger:      logger,
	}
}

// Add inserts order into the appropriate side, runs the matching loop to
// completion, and returns every trade the submission produced. It does
// not itself assign order IDs or timestamps — the Engine does that before
// routing here, since IDs are a cross-symbol monotonic sequence.
func (b *OrderBook) Add(o *Order) []*Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.orders[o.ID] = o

	side := b.sideHeap(o.Side)
	heapPush(side, o)

	trades := b.match()

	return trades
}

func (b *OrderBook) sideHeap(s Side) *orderHeap {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

// match runs the price-time-priority loop until the heads no longer
// cross. Each iteration strictly reduces the combined remaining
// quantity of the two heads, so it always terminates.
func (b *OrderBook) match() []*Trade {
	var trades []*Trade

	for {
		bestBuy := b.bids.peek()
		bestSell := b.asks.peek()
		if bestBuy == nil || bestSell == nil || bestBuy.Price < bestSell.Price {
			break
		}

		invariant.Assert(bestBuy.Remaining() > 0, "matching: zero-remaining order %d at head of bids", bestBuy.ID)
		invariant.Assert(bestSell.Remaining() > 0, "matching: zero-remaining order %d at head of asks", bestSell.ID)

		qty := min64(bestBuy.Remaining(), bestSell.Remaining())
		invariant.Assert(qty > 0, "matching: non-positive trade quantity")

		// Pricing rule: the earlier-arriving order's price is used; a
		// tie on timestamp goes to the buy price. This deliberately
		// differs from a reference implementation that falls through to
		// the sell price on a tie, in favor of a deterministic rule.
		price := bestBuy.Price
		if bestSell.Timestamp.Before(bestBuy.Timestamp) {
			price = bestSell.Price
		}

		now := time.Now()
		if now.Before(bestBuy.Timestamp) {
			now = bestBuy.Timestamp
		}
		if now.Before(bestSell.Timestamp) {
			now = bestSell.Timestamp
		}

		trade := &Trade{
			ID:          b.nextTradeID(),
			BuyOrderID:  bestBuy.ID,
			SellOrderID: bestSell.ID,
			Symbol:      b.Symbol,
			Price:       price,
			Quantity:    qty,
			Timestamp:   now,
		}
		trades = append(trades, trade)

		bestBuy.FilledQuantity += qty
		bestSell.FilledQuantity += qty
		applyStatus(bestBuy)
		applyStatus(bestSell)

		b.popFilledHeads()

		if b.logger != nil {
			b.logger.Debug("trade executed",
				zap.String("symbol", b.Symbol),
				zap.Int64("trade_id", trade.ID),
				zap.Int64("buy_order_id", trade.BuyOrderID),
				zap.Int64("sell_order_id", trade.SellOrderID),
				zap.Int64("quantity", trade.Quantity))
		}
	}

	return trades
}

// popFilledHeads removes zero-remaining orders from the top of either
// heap. Interior fully-filled orders cannot occur in this model: an order
// only reaches zero remaining while it is a head, so lazy cleanup never
// has to look past the top.
func (b *OrderBook) popFilledHeads() {
	for b.bids.Len() > 0 && b.bids.peek().Remaining() == 0 {
		heapPop(b.bids)
	}
	for b.asks.Len() > 0 && b.asks.peek().Remaining() == 0 {
		heapPop(b.asks)
	}
}

func applyStatus(o *Order) {
	switch {
	case o.Remaining() == 0:
		o.Status = StatusFilled
	case o.FilledQuantity > 0:
		o.Status = StatusPartial
	}
}

// Cancel removes a still-resting order from its heap and marks it
// CANCELLED. The matching loop never calls this; it exists only so the
// terminal status is representable and testable.
func (b *OrderBook) Cancel(orderID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status == StatusFilled || o.Status == StatusCancelled {
		return ErrOrderNotResting
	}

	side := b.sideHeap(o.Side)
	if !side.removeByID(orderID) {
		return ErrOrderNotResting
	}

	o.Status = StatusCancelled
	delete(b.orders, orderID)
	return nil
}

// GetOrder returns the order for orderID if it is still tracked by this
// book (resting, partially filled, or filled; cancelled orders are
// dropped from the index and are never returned).
func (b *OrderBook) GetOrder(orderID int64) (*Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[orderID]
	return o, ok
}

// BestBuy/BestSell report the top-of-book price and whether that side is
// non-empty.
func (b *OrderBook) BestBuy() (price money.Amount, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h := b.bids.peek(); h != nil {
		return h.Price, true
	}
	return 0, false
}

func (b *OrderBook) BestSell() (price money.Amount, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h := b.asks.peek(); h != nil {
		return h.Price, true
	}
	return 0, false
}

// AtRest reports whether the book currently satisfies the crossed-book
// invariant: best_buy < best_sell, or one side is empty. Used by
// property tests after every submission.
func (b *OrderBook) AtRest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	bestBuy := b.bids.peek()
	bestSell := b.asks.peek()
	if bestBuy == nil || bestSell == nil {
		return true
	}
	return bestBuy.Price < bestSell.Price
}

// Snapshot returns up to levels aggregated price levels per side,
// reflecting remaining (not total) quantity.
func (b *OrderBook) Snapshot(levels int) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		Symbol:    b.Symbol,
		Timestamp: time.Now(),
		Bids:      aggregateLevels(b.bids, levels),
		Asks:      aggregateLevels(b.asks, levels),
	}
}

func aggregateLevels(h *orderHeap, levels int) []PriceLevel {
	byPrice := make(map[money.Amount]*PriceLevel)
	order := make([]money.Amount, 0)
	for _, o := range h.orders {
		if o.Remaining() <= 0 {
			continue
		}
		key := o.Price
		lvl, ok := byPrice[key]
		if !ok {
			lvl = &PriceLevel{Price: o.Price}
			byPrice[key] = lvl
			order = append(order, key)
		}
		lvl.Quantity += o.Remaining()
		lvl.Orders++
	}

	out := make([]PriceLevel, 0, len(order))
	for _, key := range order {
		out = append(out, *byPrice[key])
	}
	sortLevels(out, h.isMaxHeap)
	if len(out) > levels && levels > 0 {
		out = out[:levels]
	}
	return out
}

func sortLevels(levels []PriceLevel, descending bool) {
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0; j-- {
			swap := levels[j-1].Price > levels[j].Price
			if descending {
				swap = levels[j-1].Price < levels[j].Price
			}
			if swap {
				levels[j-1], levels[j] = levels[j], levels[j-1]
			} else {
				break
			}
		}
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func heapPush(h *orderHeap, o *Order) {
	h.orders = append(h.orders, o)
	up(h, len(h.orders)-1)
}

func heapPop(h *orderHeap) *Order {
	n := len(h.orders) - 1
	h.orders[0], h.orders[n] = h.orders[n], h.orders[0]
	down(h, 0, n)
	item := h.orders[n]
	h.orders[n] = nil
	h.orders = h.orders[:n]
	return item
}

// up/down are the textbook container/heap sift operations, inlined here
// so Add/popFilledHeads can call them without going through the
// interface-typed container/heap package on the hot path — Cancel still
// uses container/heap directly (see heap.go) since it is not latency
// sensitive.
func up(h *orderHeap, j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		j = i
	}
}

func down(h *orderHeap, i0, n int) {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.Less(j2, j1) {
			j = j2
		}
		if !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		i = j
	}
}
