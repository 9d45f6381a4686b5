// Command tradesim drives the matching, P&L, and reconciliation engines
// with synthetic load and prints a summary, the Go analogue of a
// standalone load-generation script rather than a served process.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/metrics"
	"github.com/tradecore/matchcore/internal/money"
	"github.com/tradecore/matchcore/internal/pnl"
	"github.com/tradecore/matchcore/internal/reconcile"
	"github.com/tradecore/matchcore/internal/store"
	"go.uber.org/zap"
)

var symbols = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA", "META", "NVDA", "JPM"}

const (
	minPrice    = 50.0
	maxPrice    = 500.0
	minQuantity = 10
	maxQuantity = 1000
)

func main() {
	var numOrders int
	var numUsers int

	cmd := &cobra.Command{
		Use:   "tradesim",
		Short: "Generate synthetic order flow and report matching, P&L, and reconciliation results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(numOrders, numUsers)
		},
	}
	cmd.Flags().IntVar(&numOrders, "orders", 10000, "number of orders to generate")
	cmd.Flags().IntVar(&numUsers, "users", 100, "number of distinct users placing orders")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(numOrders, numUsers int) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("tradesim: build logger: %w", err)
	}
	defer logger.Sync()

	fmt.Printf("Running trading simulation: %d orders, %d users\n", numOrders, numUsers)
	fmt.Println("================================================================")

	engine := matching.NewEngine(logger)
	pnlEngine := pnl.NewEngine(logger, time.Minute, 10*time.Minute)
	reconciler := reconcile.New(logger)
	memStore := store.NewMemoryStore()
	recorder := metrics.NewRecorder(prometheus.NewRegistry())

	ctx := context.Background()

	allTrades, err := processOrders(ctx, engine, memStore, recorder, numOrders, numUsers, logger)
	if err != nil {
		return err
	}
	portfolio := calculatePnL(engine, pnlEngine, allTrades)
	result := runReconciliation(ctx, reconciler, memStore, engine, allTrades, recorder)

	printSummary(engine, recorder, portfolio, result)

	if int64(len(allTrades)) != engine.Stats().TotalTrades {
		return fmt.Errorf("tradesim: trade count mismatch between engine stats and collected trades")
	}
	return nil
}

// processOrders submits numOrders random orders across numUsers users,
// bulk-persisting both orders and the trades each one produces. A failed
// bulk insert is returned as an error.
func processOrders(ctx context.Context, engine *matching.Engine, st store.Store, recorder *metrics.Recorder, numOrders, numUsers int, logger *zap.Logger) ([]*matching.Trade, error) {
	var allTrades []*matching.Trade
	var orderRows []store.OrderRow
	var tradeRows []store.TradeRow

	start := time.Now()
	for i := 0; i < numOrders; i++ {
		userID := int64(rand.Intn(numUsers) + 1)
		symbol := symbols[rand.Intn(len(symbols))]
		side := matching.Buy
		if rand.Intn(2) == 1 {
			side = matching.Sell
		}
		price := minPrice + rand.Float64()*(maxPrice-minPrice)
		quantity := int64(minQuantity + rand.Intn(maxQuantity-minQuantity+1))

		submitStart := time.Now()
		_, trades, err := engine.Submit(userID, symbol, side, money.NewFromFloat(price), quantity)
		recorder.RecordSubmission(time.Since(submitStart), len(trades))
		if err != nil {
			logger.Warn("order rejected", zap.Error(err))
			continue
		}

		orderRows = append(orderRows, store.OrderRow{
			UserID: userID, Symbol: symbol, Side: side,
			Price: money.NewFromFloat(price), Quantity: quantity,
		})
		for _, t := range trades {
			tradeRows = append(tradeRows, store.TradeRow{
				BuyOrderID: t.BuyOrderID, SellOrderID: t.SellOrderID,
				Symbol: t.Symbol, Price: t.Price, Quantity: t.Quantity,
			})
		}
		allTrades = append(allTrades, trades...)
	}

	if _, err := st.BulkInsertOrders(ctx, orderRows); err != nil {
		return nil, fmt.Errorf("tradesim: bulk insert orders: %w", err)
	}
	if _, err := st.BulkInsertTrades(ctx, tradeRows); err != nil {
		return nil, fmt.Errorf("tradesim: bulk insert trades: %w", err)
	}

	fmt.Printf("Processed %d orders (%d trades) in %s\n", numOrders, len(allTrades), time.Since(start))
	return allTrades, nil
}

// calculatePnL feeds every trade into the P&L engine, marks each symbol
// at a small random walk off its last trade price, and returns the
// resulting portfolio-wide report.
func calculatePnL(engine *matching.Engine, pnlEngine *pnl.Engine, trades []*matching.Trade) pnl.PortfolioReport {
	start := time.Now()

	lastPrice := make(map[string]money.Amount)
	for _, t := range trades {
		buyOrder, buyOK := engine.GetOrder(t.BuyOrderID)
		sellOrder, sellOK := engine.GetOrder(t.SellOrderID)
		if buyOK {
			pnlEngine.OnFill(buyOrder.UserID, t.Symbol, matching.Buy, t.Price, t.Quantity)
		}
		if sellOK {
			pnlEngine.OnFill(sellOrder.UserID, t.Symbol, matching.Sell, t.Price, t.Quantity)
		}
		lastPrice[t.Symbol] = t.Price
	}

	for symbol, price := range lastPrice {
		walk := 0.95 + rand.Float64()*0.10
		pnlEngine.SetMark(symbol, money.NewFromFloat(price.Float64()*walk))
	}

	portfolio := pnlEngine.GeneratePortfolioReport()
	fmt.Printf("Generated P&L report for %d users in %s\n", portfolio.NumUsers, time.Since(start))
	return portfolio
}

// runReconciliation validates today's trades against the live engine's
// order index and logs the result to storage.
func runReconciliation(ctx context.Context, reconciler *reconcile.Reconciler, st store.Store, engine *matching.Engine, trades []*matching.Trade, recorder *metrics.Recorder) reconcile.Result {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	result := reconciler.RunAndLog(ctx, st, today, trades, engine.GetOrder)
	recorder.RecordReconciliation(result.Accuracy)
	return result
}

func printSummary(engine *matching.Engine, recorder *metrics.Recorder, portfolio pnl.PortfolioReport, result reconcile.Result) {
	stats := engine.Stats()
	latency := recorder.Percentiles()

	fmt.Println()
	fmt.Println("Engine statistics")
	fmt.Println("-----------------")
	fmt.Printf("  Total orders:     %d\n", stats.TotalOrders)
	fmt.Printf("  Total trades:     %d\n", stats.TotalTrades)
	fmt.Printf("  Symbols traded:   %d\n", stats.TotalSymbols)
	fmt.Printf("  Average latency:  %s\n", stats.AverageLatency)
	fmt.Printf("  p50/p95/p99:      %s / %s / %s (n=%d)\n", latency.P50, latency.P95, latency.P99, latency.N)

	fmt.Println()
	fmt.Println("P&L summary")
	fmt.Println("-----------")
	fmt.Printf("  Realized P&L:     %.2f\n", portfolio.TotalRealizedPnL)
	fmt.Printf("  Unrealized P&L:   %.2f\n", portfolio.TotalUnrealizedPnL)
	fmt.Printf("  Total P&L:        %.2f\n", portfolio.TotalPnL)

	fmt.Println()
	fmt.Println("Reconciliation")
	fmt.Println("--------------")
	fmt.Printf("  Trades checked:   %d\n", result.TotalTrades)
	fmt.Printf("  Matched:          %d\n", result.MatchedTrades)
	fmt.Printf("  Discrepancies:    %d\n", len(result.Discrepancies))
	fmt.Printf("  Accuracy:         %.2f%%\n", result.Accuracy)

	fmt.Println()
	fmt.Println("Top performers")
	fmt.Println("--------------")
	for i, u := range portfolio.Users {
		if i >= 5 {
			break
		}
		fmt.Printf("  %d. user=%d total_pnl=%.2f positions=%d\n", i+1, u.UserID, u.TotalPnL, u.NumPositions)
	}
}
