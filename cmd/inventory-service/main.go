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

	"github.com/jcmexdev/order-choreography/internal/contracts"
	inventoryservice "github.com/jcmexdev/order-choreography/internal/inventory-service"
	"github.com/jcmexdev/order-choreography/internal/pkg/eventbus"
	"github.com/jcmexdev/order-choreography/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger("inventory-service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "inventory-service"))
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

	ledger := inventoryservice.NewLedger(inventoryservice.DefaultCatalog())
	slog.Info("inventory seeded", "products", len(ledger.All()))

	bus := eventbus.NewKafka(brokers(), "inventory-service")
	defer bus.Close()

	consumer := inventoryservice.NewConsumer(ledger, bus)
	bus.Subscribe(contracts.KindOrderCreated, consumer.HandleOrderCreated)

	addr := ":" + getEnv("PORT", "8081")
	server := &http.Server{Addr: addr, Handler: inventoryservice.NewRouter(ledger)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("inventory service HTTP running", "addr", addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("inventory consumer running")
		return bus.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("inventory service stopped", "error", err)
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
