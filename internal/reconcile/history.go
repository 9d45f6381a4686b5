package reconcile

import (
	"context"
	"time"

	"github.com/tradecore/matchcore/internal/matching"
	"go.uber.org/zap"
)

// AuditWriter persists one reconciliation run. It is always called,
// even when TotalTrades is zero, so the audit trail reflects every
// attempted check, not just the ones that found trades to validate.
type AuditWriter interface {
	InsertReconciliationLog(ctx context.Context, result Result) error
}

// HistoryReader serves the last N logged reconciliation runs and the
// aggregate accuracy statistics across all of them.
type HistoryReader interface {
	ReconciliationHistory(ctx context.Context, limit int) ([]Result, error)
	AccuracyStats(ctx context.Context) (AccuracyStats, error)
}

// AccuracyStats summarizes every reconciliation run logged so far.
type AccuracyStats struct {
	AverageAccuracy float64
	MinAccuracy     float64
	MaxAccuracy     float64
	TotalChecks     int
}

// RunAndLog performs a reconciliation pass and always writes the audit
// record afterward, regardless of whether any discrepancies were found
// or the writer itself fails — a persistence error does not erase the
// in-memory result returned to the caller.
func (r *Reconciler) RunAndLog(ctx context.Context, writer AuditWriter, checkDate time.Time, trades []*matching.Trade, lookup OrderLookup) Result {
	result := r.Reconcile(checkDate, trades, lookup)

	if err := writer.InsertReconciliationLog(ctx, result); err != nil {
		r.logger.Error("failed to write reconciliation audit log", zap.Error(err))
	}

	return result
}
