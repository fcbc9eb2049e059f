package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/credigo/ledger/internal/config"
	"github.com/credigo/ledger/internal/domain"
	"github.com/credigo/ledger/internal/events"
	eventskafka "github.com/credigo/ledger/internal/events/kafka"
	"github.com/credigo/ledger/internal/handler"
	"github.com/credigo/ledger/internal/logging"
	"github.com/credigo/ledger/internal/metrics"
	"github.com/credigo/ledger/internal/middleware"
	"github.com/credigo/ledger/internal/service"
	"github.com/credigo/ledger/internal/storage"
	"github.com/credigo/ledger/internal/storage/memory"
	"github.com/credigo/ledger/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("ledger-api", cfg.LogLevel, cfg.AppEnv)

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		slog.Error("failed to build store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	publisher, closePublisher := buildPublisher(cfg)
	defer closePublisher()

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	ledger := service.NewLedger(store, publisher)

	transactions := handler.NewTransactionHandler(ledger)
	statements := handler.NewStatementHandler(ledger)
	accounts := handler.NewAccountHandler(ledger)
	health := handler.NewHealthHandler(store)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)
	mux.Handle("GET /metrics", metrics.Handler(registry))
	mux.HandleFunc("GET /accounts", accounts.List)
	mux.HandleFunc("POST /accounts/{id}/transactions", transactions.Create)
	mux.HandleFunc("GET /accounts/{id}/statement", statements.Get)

	root := middleware.Tracing(middleware.Logging(middleware.Metrics(middleware.Recovery(mux))))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func buildStore(cfg *config.Config) (storage.Store, func(), error) {
	timeout := time.Duration(cfg.ApplyTimeoutMS) * time.Millisecond

	switch cfg.Store {
	case "memory":
		return memory.NewStore(devAccounts()), func() {}, nil
	case "postgres":
		db, err := connectDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(db, timeout), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("buildStore: unknown store %q", cfg.Store)
	}
}

func buildPublisher(cfg *config.Config) (events.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NoopPublisher{}, func() {}
	}
	p := eventskafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	return p, func() {
		if err := p.Close(); err != nil {
			slog.Error("failed to close kafka publisher", "error", err)
		}
	}
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connectDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second)

	for i := range 30 {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}

// devAccounts mirrors the seed migration so the memory store serves the same
// catalog as a freshly migrated database.
func devAccounts() []domain.Account {
	return []domain.Account{
		{ID: 1, Name: "o barato sai caro", Limit: 100_000},
		{ID: 2, Name: "zan corp ltda", Limit: 80_000},
		{ID: 3, Name: "les cruders", Limit: 1_000_000},
		{ID: 4, Name: "padaria joia de cocaia", Limit: 10_000_000},
		{ID: 5, Name: "kid mais", Limit: 500_000},
	}
}
