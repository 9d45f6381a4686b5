package matching

import (
	"errors"
	"time"

	"github.com/tradecore/matchcore/internal/money"
)

// Side is which side of the book an order rests on.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Status is an order's lifecycle state. CANCELLED is terminal and is
// never emitted by the matching loop, but must be representable — see
// OrderBook.Cancel.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPartial   Status = "PARTIAL"
	StatusFilled    Status = "FILLED"
	StatusCancelled Status = "CANCELLED"
)

// MaxSymbolLen is the column width for Order.Symbol.
const MaxSymbolLen = 10

// Order is a resting or filled limit order. The heap and the engine's
// order index hold the same pointer, so mutating FilledQuantity is
// visible through both views without a second write path.
type Order struct {
	ID             int64
	UserID         int64
	Symbol         string
	Side           Side
	Price          money.Amount
	Quantity       int64
	FilledQuantity int64
	Timestamp      time.Time
	Status         Status
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() int64 {
	return o.Quantity - o.FilledQuantity
}

// Trade is an executed match between a buy and a sell order.
type Trade struct {
	ID          int64
	BuyOrderID  int64
	SellOrderID int64
	Symbol      string
	Price       money.Amount
	Quantity    int64
	Timestamp   time.Time
}

// PriceLevel is one aggregated rung of a book snapshot.
type PriceLevel struct {
	Price    money.Amount
	Quantity int64
	Orders   int
}

// Snapshot is a read-only top-of-book view, up to N levels per side.
type Snapshot struct {
	Symbol    string
	Timestamp time.Time
	Bids      []PriceLevel
	Asks      []PriceLevel
}

// Errors surfaced to callers on order submission and cancellation. These
// are never returned from inside the matching loop itself: the input
// errors gate entry to Submit before any book is touched, and
// ErrOrderNotFound/ErrOrderNotResting are returned by Cancel.
var (
	ErrUnknownSide     = errors.New("matching: unknown order side")
	ErrNonPositivePrice = errors.New("matching: price must be positive")
	ErrNonPositiveQty   = errors.New("matching: quantity must be positive")
	ErrEmptySymbol      = errors.New("matching: symbol must not be empty")
	ErrSymbolTooLong    = errors.New("matching: symbol exceeds maximum length")
	ErrOrderNotFound    = errors.New("matching: order not found")
	ErrOrderNotResting  = errors.New("matching: order is not resting and cannot be cancelled")
)
