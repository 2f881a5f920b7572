package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"payment-relay/internal/callback"
	"payment-relay/internal/checkout"
	"payment-relay/internal/config"
	"payment-relay/internal/db"
	"payment-relay/internal/event"
	"payment-relay/internal/kafka"
	"payment-relay/internal/logging"
	"payment-relay/internal/metrics"
	"payment-relay/internal/processor"
	"payment-relay/internal/server"
	"payment-relay/internal/service"
	"payment-relay/internal/store"
	"payment-relay/internal/webhook"
)

func main() {
	cfg := config.MustLoadConfig(".")
	logger := logging.GetLogger(cfg.Logs)
	metrics.Setup(cfg.Metrics, logger)
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		logger.Error("Error opening relay ledger", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeLedger()

	relayTimeout := time.Duration(cfg.Relay.TimeoutMs) * time.Millisecond
	sender := callback.NewSender(relayTimeout, logger)

	var targets []callback.Target
	for _, t := range cfg.Relay.Targets() {
		targets = append(targets, callback.NewHTTPTarget(t.Name, t.URL, sender))
	}
	if cfg.Kafka.Broker != "" {
		kafkaTarget := kafka.NewTarget(kafka.NewWriter(cfg.Kafka))
		defer kafkaTarget.Close()
		targets = append(targets, kafkaTarget)
	}

	dispatcher := callback.NewDispatcher(targets, ledger, cfg.Relay.Parallelism, relayTimeout, logger)
	logger.Info("Relay targets configured", "targets", dispatcher.Targets(), "store", cfg.Store.Driver)

	verifier := webhook.NewVerifier(cfg.Stripe.WebhookSecret, time.Duration(cfg.Stripe.WebhookToleranceS)*time.Second)
	eventProcessor := service.NewPaymentEventProcessor(event.NewNormalizer(logger), ledger, dispatcher, logger)

	stripeClient := processor.NewStripeClient(cfg.Stripe, cfg.Checkout.PaymentMethodTypes, logger)
	sessions := checkout.NewService(stripeClient, cfg.Checkout.ClientURL, logger)

	srv := server.New(cfg.Server, verifier, eventProcessor, sessions, ledger, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutMs)*time.Millisecond)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", "error", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		logger.Warn("Relays still in flight at shutdown", "error", err)
	}
}

func openLedger(ctx context.Context, cfg *config.Config) (store.Ledger, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreBolt:
		ledger, err := store.NewBolt(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return ledger, closer(ledger), nil

	case config.StorePostgres:
		connStr := db.GetConnStr(cfg.Database)
		if err := db.RunMigrations(connStr); err != nil {
			return nil, nil, err
		}
		pool, err := db.GetPool(ctx, connStr)
		if err != nil {
			return nil, nil, err
		}
		return db.NewLedgerRepository(pool), pool.Close, nil

	default:
		ledger := store.NewMemory()
		return ledger, closer(ledger), nil
	}
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			slog.Error("Error closing ledger", "error", err)
		}
	}
}
