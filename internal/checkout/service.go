package checkout

import (
	"context"
	"log/slog"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"payment-relay/internal/logging"
)

var (
	sessionsCreatedCounter = metrics.GetOrCreateCounter(`checkout_sessions_total{result="created"}`)
	sessionsInvalidCounter = metrics.GetOrCreateCounter(`checkout_sessions_total{result="invalid"}`)
	sessionsFailedCounter  = metrics.GetOrCreateCounter(`checkout_sessions_total{result="upstream_failed"}`)
)

// SessionParams is what the processor needs to open a hosted checkout.
type SessionParams struct {
	PaymentKey string
	OrderID    string
	Product    string
	Currency   string
	UnitAmount int64
	SuccessURL string
	CancelURL  string
}

type Session struct {
	ID  string
	URL string
}

type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)
}

type Result struct {
	URL        string
	SessionID  string
	PaymentKey string
}

type Service struct {
	creator   SessionCreator
	clientURL string
	logger    *slog.Logger
}

func NewService(creator SessionCreator, clientURL string, logger *slog.Logger) *Service {
	return &Service{creator: creator, clientURL: clientURL, logger: logger}
}

// CreateSession opens a checkout session carrying the payment key and order
// id as metadata. A payment key is generated when the request has none.
func (s *Service) CreateSession(ctx context.Context, req Request) (*Result, error) {
	unitAmount, err := MinorUnits(req.Amount, req.Currency)
	if err != nil {
		sessionsInvalidCounter.Inc()
		return nil, err
	}

	paymentKey := req.PaymentKey
	if paymentKey == "" {
		paymentKey = uuid.NewString()
	}
	ctx = logging.AppendCtx(ctx, slog.String("paymentKey", paymentKey))

	session, err := s.creator.CreateCheckoutSession(ctx, SessionParams{
		PaymentKey: paymentKey,
		OrderID:    req.OrderID,
		Product:    req.Product,
		Currency:   req.Currency,
		UnitAmount: unitAmount,
		SuccessURL: s.clientURL + "/success",
		CancelURL:  s.clientURL + "/cancel",
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating checkout session", "error", err)
		sessionsFailedCounter.Inc()

		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return nil, upstream
		}
		return nil, &UpstreamError{Message: err.Error(), Err: err}
	}

	s.logger.InfoContext(ctx, "Checkout session created", "sessionId", session.ID, "orderId", req.OrderID,
		"unitAmount", unitAmount, "currency", req.Currency)
	sessionsCreatedCounter.Inc()

	return &Result{URL: session.URL, SessionID: session.ID, PaymentKey: paymentKey}, nil
}
