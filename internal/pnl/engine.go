package pnl

import (
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/money"
	"go.uber.org/zap"
)

// Engine tracks positions across every (user, symbol) pair seen via
// OnFill and the mark set per symbol through SetMark for unrealized P&L.
type Engine struct {
	mu        sync.RWMutex
	positions map[string]map[string]*Position
	cache     *cache.Cache
	marks     map[string]money.Amount

	// flushed mirrors what was last written to a Store by Flush, so a
	// later Flush only ships the true delta since the previous one —
	// the upsert the store applies is additive, never absolute.
	flushed map[string]*Position

	logger *zap.Logger
}

// NewEngine builds an empty Engine. cacheTTL/cleanup follow the same
// go-cache pattern as a hot-path position accelerator; the positions map
// remains the single source of truth.
func NewEngine(logger *zap.Logger, cacheTTL, cleanupInterval time.Duration) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		positions: make(map[string]map[string]*Position),
		cache:     cache.New(cacheTTL, cleanupInterval),
		marks:     make(map[string]money.Amount),
		flushed:   make(map[string]*Position),
		logger:    logger,
	}
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func userIDFromKey(key string) int64 {
	id, _ := strconv.ParseInt(key, 10, 64)
	return id
}

func positionKey(userID int64, symbol string) string {
	return userKey(userID) + ":" + symbol
}

func (e *Engine) getOrCreate(userID int64, symbol string) *Position {
	userPositions, ok := e.positions[userKey(userID)]
	if !ok {
		userPositions = make(map[string]*Position)
		e.positions[userKey(userID)] = userPositions
	}
	pos, ok := userPositions[symbol]
	if !ok {
		pos = &Position{UserID: userID, Symbol: symbol, UpdatedAt: time.Now()}
		userPositions[symbol] = pos
	}
	return pos
}

// OnFill applies one side of a trade to the (userID, symbol) position,
// following the four-case signed-quantity table: extend long, extend
// short, close/reduce long (possibly flipping short), close/reduce short
// (possibly flipping long). It is called once per side per trade.
func (e *Engine) OnFill(userID int64, symbol string, side matching.Side, price money.Amount, qty int64) *Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos := e.getOrCreate(userID, symbol)

	if side == matching.Buy {
		applyBuy(pos, price, qty)
	} else {
		applySell(pos, price, qty)
	}
	pos.UpdatedAt = time.Now()

	e.cache.Set(positionKey(userID, symbol), pos, cache.DefaultExpiration)

	e.logger.Debug("position updated",
		zap.Int64("user_id", userID),
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Int64("quantity", pos.Quantity),
		zap.String("avg_cost", pos.AvgCost.String()),
		zap.String("realized_pnl", pos.RealizedPnL.String()))

	return pos
}

// applyBuy mirrors process_trade's BUY branch: extends a long (or a flat
// position), or covers/flips a short.
func applyBuy(p *Position, price money.Amount, qty int64) {
	oldQty := p.Quantity

	if oldQty >= 0 {
		totalCost := p.AvgCost.Mul(oldQty).Add(price.Mul(qty))
		p.Quantity = oldQty + qty
		if p.Quantity > 0 {
			p.AvgCost = totalCost.Div(p.Quantity)
		} else {
			p.AvgCost = money.Zero
		}
		return
	}

	short := -oldQty
	if qty <= short {
		realized := price.Neg().Add(p.AvgCost).Mul(qty)
		p.RealizedPnL = p.RealizedPnL.Add(realized)
		p.Quantity = oldQty + qty
		if p.Quantity == 0 {
			p.AvgCost = money.Zero
		}
		return
	}

	realized := price.Neg().Add(p.AvgCost).Mul(short)
	p.RealizedPnL = p.RealizedPnL.Add(realized)
	p.Quantity = qty - short
	p.AvgCost = price
}

// applySell mirrors process_trade's SELL branch: extends a short (or a
// flat position), or closes/flips a long.
func applySell(p *Position, price money.Amount, qty int64) {
	oldQty := p.Quantity

	if oldQty <= 0 {
		short := -oldQty
		totalCost := p.AvgCost.Mul(short).Add(price.Mul(qty))
		p.Quantity = oldQty - qty
		newShort := -p.Quantity
		if newShort != 0 {
			p.AvgCost = totalCost.Div(newShort)
		} else {
			p.AvgCost = money.Zero
		}
		return
	}

	if qty <= oldQty {
		realized := price.Sub(p.AvgCost).Mul(qty)
		p.RealizedPnL = p.RealizedPnL.Add(realized)
		p.Quantity = oldQty - qty
		if p.Quantity == 0 {
			p.AvgCost = money.Zero
		}
		return
	}

	realized := price.Sub(p.AvgCost).Mul(oldQty)
	p.RealizedPnL = p.RealizedPnL.Add(realized)
	remaining := qty - oldQty
	p.Quantity = -remaining
	p.AvgCost = price
}

// SetMark records the mark price for symbol that reports use for
// unrealized P&L. A symbol with no mark is valued at each position's
// average cost, so its unrealized P&L is zero.
func (e *Engine) SetMark(symbol string, price money.Amount) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.marks[symbol] = price
}

func (e *Engine) markLocked(symbol string, fallback money.Amount) money.Amount {
	if m, ok := e.marks[symbol]; ok {
		return m
	}
	return fallback
}

// GetPosition returns a copy of the position for (userID, symbol), or a
// flat zero-value position if none exists yet.
func (e *Engine) GetPosition(userID int64, symbol string) Position {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if cached, ok := e.cache.Get(positionKey(userID, symbol)); ok {
		return *cached.(*Position)
	}
	userPositions, ok := e.positions[userKey(userID)]
	if !ok {
		return Position{UserID: userID, Symbol: symbol}
	}
	pos, ok := userPositions[symbol]
	if !ok {
		return Position{UserID: userID, Symbol: symbol}
	}
	return *pos
}

// Hydrate seeds the in-memory position map from persisted rows, used on
// process start so a restart does not zero out every user's book.
func (e *Engine) Hydrate(rows []Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, row := range rows {
		row := row
		userPositions, ok := e.positions[userKey(row.UserID)]
		if !ok {
			userPositions = make(map[string]*Position)
			e.positions[userKey(row.UserID)] = userPositions
		}
		userPositions[row.Symbol] = &row
		e.cache.Set(positionKey(row.UserID, row.Symbol), &row, cache.DefaultExpiration)
		snapshot := row
		e.flushed[positionKey(row.UserID, row.Symbol)] = &snapshot
	}
	e.logger.Info("positions hydrated", zap.Int("count", len(rows)))
}
