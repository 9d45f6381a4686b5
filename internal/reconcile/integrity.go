package reconcile

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// IntegrityIssueType categorizes a data-integrity finding. Distinct from
// Reason, which only applies to a single trade-vs-order validation.
type IntegrityIssueType string

const (
	IssueOrphanedTrades     IntegrityIssueType = "ORPHANED_TRADES"
	IssueNonPositiveQty     IntegrityIssueType = "NEGATIVE_QUANTITIES"
	IssueDuplicateTradePair IntegrityIssueType = "DUPLICATE_TRADES"
)

// IntegrityIssue is one category of problem found across the whole
// trades table, with a count rather than a per-row discrepancy.
type IntegrityIssue struct {
	Type        IntegrityIssueType
	Count       int
	Description string
}

// IntegrityReport summarizes a full sweep.
type IntegrityReport struct {
	Issues  []IntegrityIssue
	IsClean bool
}

// IntegrityChecker runs analytical sweeps directly against Postgres with
// raw SQL, a cheaper way to ask "group by / having" style questions than
// walking every trade in application code the way Reconcile does for
// per-trade validation.
type IntegrityChecker struct {
	db *sqlx.DB
}

// NewIntegrityChecker wraps an existing sqlx connection. The server opens
// this as its own connection to the database gorm writes to; it does
// not share gorm's *sql.DB.
func NewIntegrityChecker(db *sqlx.DB) *IntegrityChecker {
	return &IntegrityChecker{db: db}
}

// Check runs the orphaned-trade, non-positive-quantity, and duplicate
// buy/sell pair sweeps and returns a combined report. A query failure is
// returned as an error rather than silently skipped, since unlike a
// single trade's validation a query-level failure means no information
// was gathered at all.
func (c *IntegrityChecker) Check(ctx context.Context) (IntegrityReport, error) {
	var report IntegrityReport

	orphaned, err := c.countOrphanedTrades(ctx)
	if err != nil {
		return report, fmt.Errorf("reconcile: orphaned trade sweep: %w", err)
	}
	if orphaned > 0 {
		report.Issues = append(report.Issues, IntegrityIssue{
			Type:        IssueOrphanedTrades,
			Count:       orphaned,
			Description: "trades without a corresponding buy or sell order",
		})
	}

	negative, err := c.countNonPositiveQuantities(ctx)
	if err != nil {
		return report, fmt.Errorf("reconcile: quantity sweep: %w", err)
	}
	if negative > 0 {
		report.Issues = append(report.Issues, IntegrityIssue{
			Type:        IssueNonPositiveQty,
			Count:       negative,
			Description: "trades with zero or negative quantity",
		})
	}

	duplicates, err := c.countDuplicateOrderPairs(ctx)
	if err != nil {
		return report, fmt.Errorf("reconcile: duplicate pair sweep: %w", err)
	}
	if duplicates > 0 {
		report.Issues = append(report.Issues, IntegrityIssue{
			Type:        IssueDuplicateTradePair,
			Count:       duplicates,
			Description: "more than one trade recorded for the same buy/sell order pair",
		})
	}

	report.IsClean = len(report.Issues) == 0
	return report, nil
}

func (c *IntegrityChecker) countOrphanedTrades(ctx context.Context) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM trades t
		LEFT JOIN orders o1 ON t.buy_order_id = o1.order_id
		LEFT JOIN orders o2 ON t.sell_order_id = o2.order_id
		WHERE o1.order_id IS NULL OR o2.order_id IS NULL
	`
	var count int
	err := c.db.GetContext(ctx, &count, query)
	return count, err
}

func (c *IntegrityChecker) countNonPositiveQuantities(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM trades WHERE quantity <= 0`
	var count int
	err := c.db.GetContext(ctx, &count, query)
	return count, err
}

func (c *IntegrityChecker) countDuplicateOrderPairs(ctx context.Context) (int, error) {
	const query = `
		SELECT COUNT(*) FROM (
			SELECT buy_order_id, sell_order_id
			FROM trades
			GROUP BY buy_order_id, sell_order_id
			HAVING COUNT(*) > 1
		) dups
	`
	var count int
	err := c.db.GetContext(ctx, &count, query)
	return count, err
}
