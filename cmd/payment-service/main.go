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
	paymentservice "github.com/jcmexdev/order-choreography/internal/payment-service"
	"github.com/jcmexdev/order-choreography/internal/pkg/eventbus"
	"github.com/jcmexdev/order-choreography/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger("payment-service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "payment-service"))
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

	processor := paymentservice.NewProcessor()

	bus := eventbus.NewKafka(brokers(), "payment-service")
	defer bus.Close()

	consumer := paymentservice.NewConsumer(processor, bus)
	bus.Subscribe(contracts.KindStockReserved, consumer.HandleStockReserved)

	addr := ":" + getEnv("PORT", "8082")
	server := &http.Server{Addr: addr, Handler: paymentservice.NewRouter(processor)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("payment service HTTP running", "addr", addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("payment consumer running")
		return bus.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("payment service stopped", "error", err)
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
