package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	notificationworker "github.com/jcmexdev/order-choreography/internal/notification-worker"
	"github.com/jcmexdev/order-choreography/internal/pkg/eventbus"
	"github.com/jcmexdev/order-choreography/internal/pkg/monitor"
	"github.com/jcmexdev/order-choreography/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger("notification-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "notification-worker"))
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

	bus := eventbus.NewKafka(brokers(), "notification-worker")
	defer bus.Close()

	consumer := notificationworker.NewConsumer(monitor.NewClient(os.Getenv("GATEWAY_URL")))
	consumer.Register(bus)

	slog.Info("notification worker running")
	if err := bus.Run(ctx); err != nil {
		slog.Error("notification worker stopped", "error", err)
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
