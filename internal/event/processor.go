package event

import (
	"log/slog"

	"payment-relay/internal/message"
	"payment-relay/internal/webhook"
)

const (
	MetadataPaymentKey = "payment_key"
	MetadataOrderID    = "order_id"

	paymentStatusUnpaid = "unpaid"
)

// Normalizer turns verified processor events into relay notifications.
type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize returns a notification for completed checkout sessions and false
// for every other event. The payment key comes from session metadata, falling
// back to the session id.
func (n *Normalizer) Normalize(evt webhook.Event) (message.Notification, bool) {
	if !evt.Verified() {
		return message.Notification{}, false
	}

	switch evt.Type() {
	case webhook.EventCheckoutSessionCompleted, webhook.EventCheckoutSessionAsyncPaymentSuccess:
	default:
		n.logger.Debug("Ignoring event type", "eventId", evt.ID(), "type", evt.Type())
		return message.Notification{}, false
	}

	session, ok := evt.Session()
	if !ok {
		n.logger.Warn("Completion event without checkout session", "eventId", evt.ID(), "type", evt.Type())
		return message.Notification{}, false
	}

	// Delayed payment methods complete the session before the money moves;
	// the async_payment_succeeded event follows.
	if evt.Type() == webhook.EventCheckoutSessionCompleted && session.PaymentStatus == paymentStatusUnpaid {
		n.logger.Info("Checkout completed but payment pending", "eventId", evt.ID(), "sessionId", session.ID)
		return message.Notification{}, false
	}

	paymentKey := session.Metadata[MetadataPaymentKey]
	if paymentKey == "" {
		n.logger.Warn("payment_key missing from session metadata, using session id", "eventId", evt.ID(), "sessionId", session.ID)
		paymentKey = session.ID
	}

	return message.Notification{
		PaymentKey: paymentKey,
		OrderID:    session.Metadata[MetadataOrderID],
		Status:     message.StatusSucceeded,
		EventID:    evt.ID(),
		SessionID:  session.ID,
	}, true
}
