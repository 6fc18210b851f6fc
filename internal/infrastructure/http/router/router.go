package router

import (
	"net/http"

	"go.uber.org/zap"

	"transaction-aggregator/internal/interfaces/http/handler"
	"transaction-aggregator/internal/interfaces/http/middleware"
)

// Router holds all HTTP handlers
type Router struct {
	mux                *http.ServeMux
	handler            http.Handler
	transactionHandler *handler.TransactionHandler
	healthHandler      *handler.HealthHandler
	metricsHandler     http.Handler
	metricsPath        string
}

// Options configures the router
type Options struct {
	// MetricsHandler is mounted at MetricsPath when non-nil
	MetricsHandler http.Handler
	MetricsPath    string
	Logger         *zap.Logger
}

// NewRouter creates a new router with all routes configured
func NewRouter(
	transactionHandler *handler.TransactionHandler,
	healthHandler *handler.HealthHandler,
	opts Options,
) *Router {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	r := &Router{
		mux:                http.NewServeMux(),
		transactionHandler: transactionHandler,
		healthHandler:      healthHandler,
		metricsHandler:     opts.MetricsHandler,
		metricsPath:        opts.MetricsPath,
	}
	r.setupRoutes()
	r.handler = middleware.Chain(r.mux,
		middleware.Recovery(opts.Logger),
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		middleware.CORS,
	)
	return r
}

func (r *Router) setupRoutes() {
	// Health endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)
	r.mux.HandleFunc("GET /live", r.healthHandler.Live)

	if r.metricsHandler != nil {
		r.mux.Handle("GET "+r.metricsPath, r.metricsHandler)
	}

	// Transaction queries
	r.mux.HandleFunc("GET /api/v1/transactions", r.transactionHandler.ListTransactions)

	// Cache invalidation
	r.mux.HandleFunc("DELETE /api/v1/transactions/cache", r.transactionHandler.ClearCache)
	r.mux.HandleFunc("DELETE /api/v1/transactions/cache/entry", r.transactionHandler.InvalidateEntry)

	// Source status
	r.mux.HandleFunc("GET /api/v1/sources", r.transactionHandler.ListSources)
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r
}
