package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	httpAdapter "github.com/AnnaArgentina/family-budget-bot/internal/adapter/http"
	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/handler"
	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/middleware"
	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/repository/memory"
	postgresRepo "github.com/AnnaArgentina/family-budget-bot/internal/adapter/repository/postgres"
	redisRepo "github.com/AnnaArgentina/family-budget-bot/internal/adapter/repository/redis"
	sqliteRepo "github.com/AnnaArgentina/family-budget-bot/internal/adapter/repository/sqlite"
	"github.com/AnnaArgentina/family-budget-bot/internal/dialogue"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/auth"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/config"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/idgen"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/logger"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/metrics"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/postgres"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/redis"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/sqlite"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

const (
	limiterSweepInterval = time.Minute
	limiterIdleTimeout   = 10 * time.Minute
	memoryCleanup        = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "budget-server"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	app, err := newApp(ctx, cfg, log, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	defer app.close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      app.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go app.sweepLimiters(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// app is the fully wired service.
type app struct {
	handler http.Handler
	limiter *middleware.RateLimiter
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) sweepLimiters(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.limiter.CleanupLimiters(limiterIdleTimeout)
		}
	}
}

// storage is one backend's set of repositories.
type storage struct {
	txManager usecase.TransactionManager
	entries   usecase.EntryRepository
	rates     usecase.RateRepository
	settings  usecase.SettingsRepository
	retrier   usecase.Retrier
	ping      func(context.Context) error
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		if cfg.MigrateOnStart {
			if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
				return nil, err
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		return &storage{
			txManager: postgresRepo.NewTxManager(pool),
			entries:   postgresRepo.NewEntryRepository(pool),
			rates:     postgresRepo.NewRateRepository(pool),
			settings:  postgresRepo.NewSettingsRepository(pool),
			retrier:   postgresRepo.NewRetrier(log),
			ping:      pool.Ping,
			close:     pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := sqlite.RunMigrations(db, log); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite database")

		return &storage{
			txManager: sqliteRepo.NewTxManager(db),
			entries:   sqliteRepo.NewEntryRepository(db),
			rates:     sqliteRepo.NewRateRepository(db),
			settings:  sqliteRepo.NewSettingsRepository(db),
			retrier:   sqliteRepo.NewRetrier(log),
			ping:      db.PingContext,
			close:     func() { _ = db.Close() },
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	chart, err := config.LoadChart(cfg.ChartPath, cfg.BaseCurrency)
	if err != nil {
		return nil, err
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.close)

	checks := []handler.Check{{Name: "storage", Ping: store.ping}}

	var (
		idempotencyStore usecase.IdempotencyStore
		sessionStore     dialogue.SessionStore
	)
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(client)
		sessionStore = redisRepo.NewSessionStore(client)
		checks = append(checks, handler.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	} else {
		idempotencyStore = memory.NewIdempotencyStore(memoryCleanup)
		sessionStore = memory.NewSessionStore(memoryCleanup)
	}

	opts := []usecase.Option{
		usecase.WithRetrier(store.retrier),
		usecase.WithMetrics(metrics.New(reg)),
		usecase.WithLogger(log),
	}

	txLog := usecase.NewTransactionLog(chart, store.txManager, store.entries, opts...)
	rates := usecase.NewRateUseCase(chart, store.txManager, store.rates, store.settings, opts...)
	if err := rates.EnsureBaseCurrency(ctx); err != nil {
		return fail(fmt.Errorf("base currency: %w", err))
	}

	entries := usecase.NewEntryUseCase(chart, txLog)
	balances := usecase.NewBalanceUseCase(chart, txLog, rates, opts...)
	exchanges := usecase.NewExchangeUseCase(chart, store.txManager, txLog, rates, idgen.NewULIDGenerator(), opts...)
	reconciler := usecase.NewReconciliationUseCase(chart, store.txManager, store.entries, txLog, opts...)
	reports := usecase.NewReportUseCase(txLog, rates, cfg.Location(), opts...)
	ledger := usecase.NewLedger(entries, exchanges, rates, balances, reconciler, reports)

	engine := dialogue.NewEngine(ledger, chart, sessionStore,
		dialogue.WithDefaultCurrency(cfg.DefaultInputCurrency),
		dialogue.WithSessionTTL(cfg.SessionTTL),
		dialogue.WithLogger(log),
	)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(chart, balances),
		EntryHandler:     handler.NewEntryHandler(entries),
		RateHandler:      handler.NewRateHandler(rates),
		ExchangeHandler:  handler.NewExchangeHandler(exchanges, reconciler),
		ReportHandler:    handler.NewReportHandler(reports),
		LedgerHandler:    handler.NewLedgerHandler(usecase.NewLedgerUseCase(txLog)),
		DialogueHandler:  handler.NewDialogueHandler(engine),
		HealthHandler:    handler.NewHealthHandler(checks...),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		JWTManager:       jwtManager,
		RateLimiter:      a.limiter,
		HTTPMetrics:      middleware.NewHTTPMetrics(reg),
		Gatherer:         gatherer,
		Logger:           log,
	})

	return a, nil
}
