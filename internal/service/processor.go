package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"

	"payment-relay/internal/event"
	"payment-relay/internal/logging"
	"payment-relay/internal/message"
	"payment-relay/internal/model"
	"payment-relay/internal/webhook"
)

type Outcome string

const (
	OutcomeIgnored    Outcome = "ignored"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeDispatched Outcome = "dispatched"
)

var (
	eventsIgnoredCounter    = metrics.GetOrCreateCounter(`webhook_events_total{result="ignored"}`)
	eventsDuplicateCounter  = metrics.GetOrCreateCounter(`webhook_events_total{result="duplicate"}`)
	eventsDispatchedCounter = metrics.GetOrCreateCounter(`webhook_events_total{result="dispatched"}`)
	eventsLedgerErrCounter  = metrics.GetOrCreateCounter(`webhook_events_total{result="ledger_failed"}`)
)

type Ledger interface {
	Claim(ctx context.Context, c model.Claim) (bool, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, n message.Notification)
}

// PaymentEventProcessor relays verified completion events exactly once per
// payment key.
type PaymentEventProcessor struct {
	normalizer *event.Normalizer
	ledger     Ledger
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewPaymentEventProcessor(normalizer *event.Normalizer, ledger Ledger, dispatcher Dispatcher, logger *slog.Logger) *PaymentEventProcessor {
	return &PaymentEventProcessor{
		normalizer: normalizer,
		ledger:     ledger,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Process returns once the event is accepted; deliveries continue in the
// background. An error means the event was not accepted and nothing was
// dispatched.
func (p *PaymentEventProcessor) Process(ctx context.Context, evt webhook.Event) (Outcome, error) {
	ctx = logging.AppendCtx(ctx, slog.String("eventId", evt.ID()), slog.String("eventType", evt.Type()))

	notification, ok := p.normalizer.Normalize(evt)
	if !ok {
		p.logger.InfoContext(ctx, "Event acknowledged without relay")
		eventsIgnoredCounter.Inc()
		return OutcomeIgnored, nil
	}

	ctx = logging.AppendCtx(ctx, slog.String("paymentKey", notification.PaymentKey))

	created, err := p.ledger.Claim(ctx, model.Claim{
		PaymentKey: notification.PaymentKey,
		EventID:    notification.EventID,
		SessionID:  notification.SessionID,
		OrderID:    notification.OrderID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "Error claiming payment key", "error", err)
		eventsLedgerErrCounter.Inc()
		return "", errors.Wrap(err, "claim payment key")
	}
	if !created {
		p.logger.InfoContext(ctx, "Payment already relayed, skipping")
		eventsDuplicateCounter.Inc()
		return OutcomeDuplicate, nil
	}

	p.dispatcher.Dispatch(ctx, notification)
	p.logger.InfoContext(ctx, "Relay dispatched", "orderId", notification.OrderID)
	eventsDispatchedCounter.Inc()

	return OutcomeDispatched, nil
}
