package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecore/matchcore/internal/matching"
	"github.com/tradecore/matchcore/internal/pnl"
	"github.com/tradecore/matchcore/internal/reconcile"
	"github.com/tradecore/matchcore/internal/store"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T) (*Handlers, http.Handler) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	engine := matching.NewEngine(logger)
	pnlEngine := pnl.NewEngine(logger, time.Minute, time.Minute)
	reconciler := reconcile.New(logger)
	memStore := store.NewMemoryStore()

	h := NewHandlers(engine, pnlEngine, reconciler, memStore, nil, 5, logger)
	router := NewRouter(h, RouterConfig{OrdersPerSecond: 1000}, logger)
	return h, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitOrder_RestingOrderHasNoTrades(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/orders", SubmitOrderRequest{
		UserID: 1, Symbol: "AAPL", Side: "buy", Price: 100.00, Quantity: 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp SubmitOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Status)
	assert.Empty(t, resp.Trades)
}

func TestSubmitOrder_CrossingOrdersProduceATrade(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/orders", SubmitOrderRequest{
		UserID: 1, Symbol: "AAPL", Side: "buy", Price: 100.00, Quantity: 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/orders", SubmitOrderRequest{
		UserID: 2, Symbol: "AAPL", Side: "sell", Price: 100.00, Quantity: 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp SubmitOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "filled", resp.Status)
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, int64(10), resp.Trades[0].Quantity)
}

func TestSubmitOrder_RejectsInvalidSymbol(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/orders", SubmitOrderRequest{
		UserID: 1, Symbol: "not-a-symbol!", Side: "buy", Price: 100.00, Quantity: 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitOrder_RejectsNonPositivePrice(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/orders", SubmitOrderRequest{
		UserID: 1, Symbol: "AAPL", Side: "buy", Price: 0, Quantity: 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookSnapshot_ReflectsRestingOrder(t *testing.T) {
	_, router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/orders", SubmitOrderRequest{
		UserID: 1, Symbol: "AAPL", Side: "buy", Price: 100.00, Quantity: 10,
	})

	rec := doJSON(t, router, http.MethodGet, "/books/AAPL", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap SnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, int64(10), snap.Bids[0].Quantity)
}

func TestUserReport_ReflectsPositionAfterFill(t *testing.T) {
	_, router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/orders", SubmitOrderRequest{
		UserID: 1, Symbol: "AAPL", Side: "buy", Price: 100.00, Quantity: 10,
	})
	doJSON(t, router, http.MethodPost, "/orders", SubmitOrderRequest{
		UserID: 2, Symbol: "AAPL", Side: "sell", Price: 100.00, Quantity: 10,
	})

	rec := doJSON(t, router, http.MethodGet, "/users/1/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report UserReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Positions, 1)
	assert.Equal(t, int64(10), report.Positions[0].Quantity)
}

func TestTriggerReconciliation_EmptyDayIsFullyAccurate(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/reconciliation/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result ReconciliationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 100.0, result.Accuracy)
	assert.Equal(t, 0, result.TotalTrades)
}
