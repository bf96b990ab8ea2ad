package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/dto"
	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/handler"
	apimiddleware "github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/middleware"
	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/repository/memory"
	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/repository/sqlite"
	"github.com/AnnaArgentina/family-budget-bot/internal/dialogue"
	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/auth"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/idgen"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/metrics"
	sqlitedb "github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/sqlite"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /api/v1/accounts",
		"GET /api/v1/accounts/{id}/balance",
		"GET /api/v1/categories",
		"GET /api/v1/balances",
		"POST /api/v1/expenses",
		"POST /api/v1/incomes",
		"GET /api/v1/entries",
		"POST /api/v1/rates",
		"GET /api/v1/rates/{currency}",
		"GET /api/v1/rates/{currency}/history",
		"POST /api/v1/exchanges",
		"POST /api/v1/reconciliations",
		"GET /api/v1/reports",
		"GET /api/v1/ledger/consistency",
		"POST /api/v1/dialogue/{session}",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1)
	}))

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.RemoteAddr = "1.2.3.4:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %v", codes)
	}
}

func TestNewRouter_RequiresTokenWhenAuthEnabled(t *testing.T) {
	jwtManager := auth.NewJWTManager("router-secret", time.Hour)
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.JWTManager = jwtManager
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, err := jwtManager.Generate(domain.Actor{ID: "42", Name: "Anna"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses",
		strings.NewReader(`{"account":"cash-ARS","category":"food","currency":"ARS","amount":"100"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var entry dto.EntryResponse
	decodeBody(t, rec, http.StatusCreated, &entry)
	if entry.ActorID != "42" || entry.ActorName != "Anna" {
		t.Fatalf("expected actor from token, got %+v", entry)
	}
}

func TestNewRouter_EndToEnd(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.HTTPMetrics = apimiddleware.NewHTTPMetrics(reg)
		cfg.Gatherer = reg
	}))

	send := func(method, path, body string, headers ...string) *httptest.ResponseRecorder {
		t.Helper()
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		req.Header.Set(apimiddleware.ActorIDHeader, "42")
		req.Header.Set(apimiddleware.ActorNameHeader, "Anna")
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// An expense can be recorded before any rate exists; valuation cannot.
	expense := `{"account":"cash-ARS","category":"food","currency":"ARS","amount":"1000"}`
	first := send(http.MethodPost, "/api/v1/expenses", expense, apimiddleware.IdempotencyKeyHeader, "exp-1")
	var recorded dto.EntryResponse
	decodeBody(t, first, http.StatusCreated, &recorded)

	replay := send(http.MethodPost, "/api/v1/expenses", expense, apimiddleware.IdempotencyKeyHeader, "exp-1")
	var replayed dto.EntryResponse
	decodeBody(t, replay, http.StatusCreated, &replayed)
	if replay.Header().Get(apimiddleware.IdempotencyReplayHeader) != "true" || replayed.ID != recorded.ID {
		t.Fatalf("expected replay of entry %d, got %+v", recorded.ID, replayed)
	}

	var missing dto.ErrorResponse
	decodeBody(t, send(http.MethodGet, "/api/v1/balances", ""), http.StatusUnprocessableEntity, &missing)
	if missing.Currency != "ARS" {
		t.Fatalf("expected missing ARS rate, got %+v", missing)
	}

	decodeBody(t, send(http.MethodPost, "/api/v1/rates", `{"currency":"ARS","value_in_base":"0.001"}`), http.StatusCreated, &dto.RateResponse{})
	decodeBody(t, send(http.MethodPost, "/api/v1/incomes", `{"account":"cash-USD","currency":"USD","amount":"50"}`), http.StatusCreated, &dto.EntryResponse{})

	var valuation dto.ValuationResponse
	decodeBody(t, send(http.MethodGet, "/api/v1/balances", ""), http.StatusOK, &valuation)
	if valuation.BaseCurrency != "USD" || valuation.Total != "49" {
		t.Fatalf("expected total 49 USD, got %s %s", valuation.Total, valuation.BaseCurrency)
	}

	var exchange dto.ExchangeResponse
	decodeBody(t, send(http.MethodPost, "/api/v1/exchanges",
		`{"from_account":"cash-USD","to_account":"cash-ARS","amount":"10","rate_to_base":"1"}`), http.StatusCreated, &exchange)
	if exchange.Out.PairID == "" || exchange.Out.PairID != exchange.In.PairID || exchange.DestinationAmount != "10000" {
		t.Fatalf("unexpected exchange %+v", exchange)
	}

	var reconciliation dto.ReconciliationResponse
	decodeBody(t, send(http.MethodPost, "/api/v1/reconciliations", `{"account":"cash-USD","observed":"45"}`), http.StatusCreated, &reconciliation)
	if reconciliation.Direction != "up" || reconciliation.Delta != "5" {
		t.Fatalf("unexpected reconciliation %+v", reconciliation)
	}

	var report dto.ReportResponse
	decodeBody(t, send(http.MethodGet, "/api/v1/reports?period=today", ""), http.StatusOK, &report)
	if report.Total != "1" || len(report.Categories) != 1 || report.Categories[0].Category != "food" {
		t.Fatalf("unexpected report %+v", report)
	}

	var consistency dto.ConsistencyResponse
	decodeBody(t, send(http.MethodGet, "/api/v1/ledger/consistency", ""), http.StatusOK, &consistency)
	if !consistency.Consistent || consistency.Pairs != 1 {
		t.Fatalf("unexpected consistency %+v", consistency)
	}

	var reply dto.DialogueResponse
	decodeBody(t, send(http.MethodPost, "/api/v1/dialogue/chat-1", `{"text":"/expense"}`), http.StatusOK, &reply)
	if reply.State != string(dialogue.StateExpenseCategory) {
		t.Fatalf("unexpected dialogue state %q", reply.State)
	}

	metricsRec := send(http.MethodGet, "/metrics", "")
	if metricsRec.Code != http.StatusOK || !strings.Contains(metricsRec.Body.String(), `path="/api/v1/expenses"`) {
		t.Fatalf("expected route-labelled http metrics, got %d", metricsRec.Code)
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, status int, v any) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func newRouterConfig(t *testing.T, opts ...func(*RouterConfig)) RouterConfig {
	t.Helper()
	ctx := context.Background()

	db, err := sqlitedb.Open(ctx, filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlitedb.RunMigrations(db, zerolog.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	chart, err := domain.NewChart("USD", []domain.Account{
		{ID: "cash-ARS", Currency: "ARS"},
		{ID: "cash-USD", Currency: "USD"},
	}, []string{"food", "rent", "entertainment", "other"})
	if err != nil {
		t.Fatalf("chart: %v", err)
	}

	ucOpts := []usecase.Option{
		usecase.WithRetrier(sqlite.NewRetrier(zerolog.Nop())),
		usecase.WithMetrics(metrics.New(prometheus.NewRegistry())),
	}

	txm := sqlite.NewTxManager(db)
	entryRepo := sqlite.NewEntryRepository(db)
	txLog := usecase.NewTransactionLog(chart, txm, entryRepo, ucOpts...)
	rates := usecase.NewRateUseCase(chart, txm, sqlite.NewRateRepository(db), sqlite.NewSettingsRepository(db), ucOpts...)
	if err := rates.EnsureBaseCurrency(ctx); err != nil {
		t.Fatalf("base currency: %v", err)
	}
	entries := usecase.NewEntryUseCase(chart, txLog)
	balances := usecase.NewBalanceUseCase(chart, txLog, rates, ucOpts...)
	exchanges := usecase.NewExchangeUseCase(chart, txm, txLog, rates, idgen.NewULIDGenerator(), ucOpts...)
	reconciler := usecase.NewReconciliationUseCase(chart, txm, entryRepo, txLog, ucOpts...)
	reports := usecase.NewReportUseCase(txLog, rates, time.UTC, ucOpts...)
	ledger := usecase.NewLedger(entries, exchanges, rates, balances, reconciler, reports)

	engine := dialogue.NewEngine(ledger, chart, memory.NewSessionStore(time.Minute))

	cfg := RouterConfig{
		AccountHandler:   handler.NewAccountHandler(chart, balances),
		EntryHandler:     handler.NewEntryHandler(entries),
		RateHandler:      handler.NewRateHandler(rates),
		ExchangeHandler:  handler.NewExchangeHandler(exchanges, reconciler),
		ReportHandler:    handler.NewReportHandler(reports),
		LedgerHandler:    handler.NewLedgerHandler(usecase.NewLedgerUseCase(txLog)),
		DialogueHandler:  handler.NewDialogueHandler(engine),
		HealthHandler:    handler.NewHealthHandler(handler.Check{Name: "storage", Ping: db.PingContext}),
		IdempotencyStore: memory.NewIdempotencyStore(time.Minute),
		Gatherer:         prometheus.NewRegistry(),
		Logger:           zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}
