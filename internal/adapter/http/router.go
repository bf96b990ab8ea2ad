package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/handler"
	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/middleware"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/auth"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler  *handler.AccountHandler
	EntryHandler    *handler.EntryHandler
	RateHandler     *handler.RateHandler
	ExchangeHandler *handler.ExchangeHandler
	ReportHandler   *handler.ReportHandler
	LedgerHandler   *handler.LedgerHandler
	DialogueHandler *handler.DialogueHandler
	HealthHandler   *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	// JWTManager enables bearer authentication. When nil the actor is read
	// from the X-Actor-ID and X-Actor-Name headers.
	JWTManager  *auth.JWTManager
	RateLimiter *middleware.RateLimiter
	HTTPMetrics *middleware.HTTPMetrics
	// Gatherer backs /metrics. The endpoint is not mounted when nil.
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		} else {
			r.Use(middleware.HeaderActor)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			ttl := cfg.IdempotencyTTL
			if ttl <= 0 {
				ttl = usecase.IdempotencyKeyTTL
			}
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, ttl, cfg.Logger).Wrap)
		}

		r.Get("/accounts", cfg.AccountHandler.List)
		r.Get("/accounts/{id}/balance", cfg.AccountHandler.Balance)
		r.Get("/categories", cfg.AccountHandler.Categories)
		r.Get("/balances", cfg.AccountHandler.Valuation)

		r.Post("/expenses", cfg.EntryHandler.RecordExpense)
		r.Post("/incomes", cfg.EntryHandler.RecordIncome)
		r.Get("/entries", cfg.EntryHandler.List)

		r.Post("/rates", cfg.RateHandler.Set)
		r.Get("/rates/{currency}", cfg.RateHandler.Latest)
		r.Get("/rates/{currency}/history", cfg.RateHandler.History)

		r.Post("/exchanges", cfg.ExchangeHandler.Exchange)
		r.Post("/reconciliations", cfg.ExchangeHandler.Reconcile)

		r.Get("/reports", cfg.ReportHandler.Get)
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)

		r.Post("/dialogue/{session}", cfg.DialogueHandler.Message)
	})

	return r
}
