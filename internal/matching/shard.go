package matching

import (
	"fmt"

	"github.com/panjf2000/ants/v2"
	"github.com/tradecore/matchcore/internal/money"
)

// ShardedEngine is the optional parallel-by-symbol configuration: each
// submission runs on a worker of one shared, bounded goroutine pool, so
// two different symbols can match concurrently. Symbols are not pinned
// to a worker: any worker may run any symbol, and the OrderBook's own
// mutex is what serializes submissions for one symbol; submissions for
// the same symbol that are in flight together are matched in the order
// they take that mutex, not in the order they were dispatched. Order IDs remain a single atomic
// counter shared across every shard; trade ID ordering is only
// guaranteed within a shard.
type ShardedEngine struct {
	engine *Engine
	pool   *ants.Pool
}

// NewShardedEngine wraps engine with a bounded goroutine pool of the
// given size. Submissions for different symbols may run concurrently;
// submissions for the same symbol are serialized only by the OrderBook's
// own mutex.
func NewShardedEngine(engine *Engine, poolSize int) (*ShardedEngine, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("matching: create shard pool: %w", err)
	}
	return &ShardedEngine{engine: engine, pool: pool}, nil
}

type submitResult struct {
	order  *Order
	trades []*Trade
	err    error
}

// Submit dispatches a submission onto the pool and blocks until a pool
// worker has processed it, returning the same result Engine.Submit
// would have returned synchronously.
func (s *ShardedEngine) Submit(userID int64, symbol string, side Side, price money.Amount, quantity int64) (*Order, []*Trade, error) {
	done := make(chan submitResult, 1)

	err := s.pool.Submit(func() {
		order, trades, err := s.engine.Submit(userID, symbol, side, price, quantity)
		done <- submitResult{order: order, trades: trades, err: err}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("matching: shard pool rejected submission: %w", err)
	}

	result := <-done
	return result.order, result.trades, result.err
}

// Release shuts down the pool, waiting for any in-flight submissions.
func (s *ShardedEngine) Release() {
	s.pool.Release()
}

// Engine exposes the underlying Engine for read-only operations
// (Snapshot, Stats, Cancel) that do not need shard ordering.
func (s *ShardedEngine) Engine() *Engine {
	return s.engine
}
