package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jcmexdev/listing-boost/internal/backend"
	"github.com/jcmexdev/listing-boost/internal/boost/catalog"
	"github.com/jcmexdev/listing-boost/internal/boost/notify"
	"github.com/jcmexdev/listing-boost/internal/boost/products"
	"github.com/jcmexdev/listing-boost/internal/boost/workflow"
	"github.com/jcmexdev/listing-boost/internal/httpx"
	"github.com/jcmexdev/listing-boost/internal/pkg/cache"
	"github.com/jcmexdev/listing-boost/internal/pkg/telemetry"
	"github.com/jcmexdev/listing-boost/internal/storage/sqlite"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "boost-agent"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	db, err := sqlite.Open(getEnv("BOOST_DB_PATH", "./data/boost.db"))
	if err != nil {
		slog.Error("failed to open boost database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	client := backend.NewClient(
		getEnv("STOREFRONT_API_URL", "http://localhost:8081"),
		os.Getenv("STOREFRONT_API_TOKEN"),
	)

	redisCache := cache.NewRedisCache(getEnv("REDIS_ADDR", "localhost:6379"), "boost")
	productSvc := products.NewService(client, redisCache, getDuration("BOOST_PRODUCTS_CACHE_TTL", 5*time.Minute))

	feed := notify.NewFeed()
	initiator := workflow.NewInitiator(client, db.PendingStore(), db.TransitionLog())
	reconciler := workflow.NewReconciler(
		db.PendingStore(),
		client,
		feed,
		db.TransitionLog(),
		productSvc,
		getDuration("BOOST_STALE_WINDOW", workflow.DefaultStaleWindow),
	)

	// Fresh load: settle whatever payment was in flight when the previous
	// process (or page) died. Errors leave the slot intact for next time.
	if outcome, err := reconciler.Run(ctx); err != nil {
		slog.WarnContext(ctx, "startup reconciliation failed", "error", err)
	} else if outcome != workflow.OutcomeNone {
		slog.InfoContext(ctx, "startup reconciliation finished", "outcome", outcome)
	}

	handler := httpx.NewHandler(catalog.Default(), productSvc, initiator, reconciler, feed)

	addr := ":" + getEnv("PORT", "8080")
	srv := &http.Server{Addr: addr, Handler: httpx.NewRouter(handler)}

	go func() {
		slog.Info("boost agent running", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in env, using fallback", "key", key, "value", value, "fallback", fallback)
		return fallback
	}
	return d
}
