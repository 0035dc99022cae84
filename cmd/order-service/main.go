package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/order-choreography/internal/order-service/app"
	ordercache "github.com/jcmexdev/order-choreography/internal/order-service/cache"
	"github.com/jcmexdev/order-choreography/internal/order-service/httpx"
	"github.com/jcmexdev/order-choreography/internal/order-service/inventory"
	"github.com/jcmexdev/order-choreography/internal/order-service/store/sqlite"
	"github.com/jcmexdev/order-choreography/internal/pkg/cache"
	"github.com/jcmexdev/order-choreography/internal/pkg/eventbus"
	"github.com/jcmexdev/order-choreography/internal/pkg/monitor"
	"github.com/jcmexdev/order-choreography/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger("order-service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "order-service"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	store, err := sqlite.OpenWithRetry(ctx, getEnv("ORDER_DB_PATH", "./data/orders.db"), 5)
	if err != nil {
		slog.Error("failed to open order store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	redisCache := cache.NewRedisCache(getEnv("REDIS_ADDR", "redis-cache:6379"), "order")
	readThrough := ordercache.NewReadThrough(store, redisCache)

	bus := eventbus.NewKafka(brokers(), "order-service")
	defer bus.Close()

	stock := inventory.NewClient(getEnv("INVENTORY_SERVICE_URL", "http://inventory-service:8081"))
	mon := monitor.NewClient(os.Getenv("GATEWAY_URL"))

	orders := app.NewService(store, readThrough, bus, stock, mon)
	router := httpx.NewRouter(httpx.NewHandler(orders))

	addr := ":" + getEnv("PORT", "8080")
	server := &http.Server{Addr: addr, Handler: router}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("order service HTTP running", "addr", addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("order service stopped", "error", err)
		os.Exit(1)
	}
}

func brokers() []string {
	return strings.Split(getEnv("KAFKA_BROKERS", "kafka:9092"), ",")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
