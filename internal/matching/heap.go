package matching

import "container/heap"

// orderHeap is a container/heap-backed priority queue of resting orders
// for one side of one symbol's book: a max-heap for bids (highest price,
// then earliest timestamp, first) or a min-heap for asks (lowest price,
// then earliest timestamp, first).
type orderHeap struct {
	orders    []*Order
	isMaxHeap bool
}

func newOrderHeap(isMaxHeap bool) *orderHeap {
	h := &orderHeap{isMaxHeap: isMaxHeap}
	heap.Init(h)
	return h
}

func (h *orderHeap) Len() int { return len(h.orders) }

func (h *orderHeap) Less(i, j int) bool {
	a, b := h.orders[i], h.orders[j]
	if a.Price != b.Price {
		if h.isMaxHeap {
			return a.Price > b.Price
		}
		return a.Price < b.Price
	}
	return a.Timestamp.Before(b.Timestamp)
}

func (h *orderHeap) Swap(i, j int) {
	h.orders[i], h.orders[j] = h.orders[j], h.orders[i]
}

func (h *orderHeap) Push(x any) {
	h.orders = append(h.orders, x.(*Order))
}

func (h *orderHeap) Pop() any {
	old := h.orders
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.orders = old[:n-1]
	return item
}

// peek returns the top order without removing it, or nil if empty.
func (h *orderHeap) peek() *Order {
	if len(h.orders) == 0 {
		return nil
	}
	return h.orders[0]
}

// removeByID removes a resting order by ID and re-heapifies. Used only by
// OrderBook.Cancel — the matching loop never removes from the interior,
// since lazy cleanup only ever pops zero-remaining heads.
func (h *orderHeap) removeByID(orderID int64) bool {
	for i, o := range h.orders {
		if o.ID == orderID {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}
