package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apptx "transaction-aggregator/internal/application/transaction"
	"transaction-aggregator/internal/infrastructure/cache/memory"
	"transaction-aggregator/internal/infrastructure/metrics"
	"transaction-aggregator/internal/infrastructure/resilience"
	"transaction-aggregator/internal/infrastructure/sources"
	"transaction-aggregator/internal/interfaces/http/handler"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	bank := resilience.NewWrapper(
		sources.NewMockBank(sources.MockBankConfig{Name: "bank-a", RecordsPerDay: 5, Seed: 1}),
		resilience.DefaultSettings(), nil, collector,
	)
	uc := apptx.NewGetTransactionsUseCase(
		memory.NewTransactionCache(time.Minute, time.Minute),
		apptx.NewAggregator([]apptx.ResilientSource{bank}, nil),
		collector,
		nil,
		apptx.Options{Now: func() time.Time { return time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC) }},
	)

	return NewRouter(
		handler.NewTransactionHandler(uc, nil),
		handler.NewHealthHandler(nil, "test"),
		Options{MetricsHandler: handler.MetricsHandler(reg)},
	)
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/live", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/api/v1/transactions?from=2025-09-01&to=2025-09-07&pageSize=10", http.StatusOK},
		{http.MethodGet, "/api/v1/transactions?from=2025-09-07&to=2025-09-01", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/sources", http.StatusOK},
		{http.MethodDelete, "/api/v1/transactions/cache/entry?from=2025-09-01&to=2025-09-07", http.StatusNoContent},
		{http.MethodDelete, "/api/v1/transactions/cache", http.StatusNoContent},
		{http.MethodPost, "/api/v1/transactions", http.StatusMethodNotAllowed},
		{http.MethodGet, "/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, rr.Code)
			assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_TransactionsEndToEnd(t *testing.T) {
	r := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?from=2025-09-01&to=2025-09-07&page=2&pageSize=10", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "35", rr.Header().Get("X-Total-Count"))
	assert.Equal(t, "4", rr.Header().Get("X-Total-Pages"))
	assert.Equal(t, "2", rr.Header().Get("X-Page"))
	assert.Equal(t, "10", rr.Header().Get("X-Page-Size"))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `aggregator_source_calls_total{outcome="success",source="bank-a"} 1`)
}
