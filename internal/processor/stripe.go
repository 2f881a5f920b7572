package processor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"payment-relay/internal/checkout"
	"payment-relay/internal/config"
	"payment-relay/internal/event"
)

const (
	defaultTimeoutMs = 30_000

	// Stripe rejects idempotency keys longer than this.
	maxIdempotencyKeyLen = 255
)

// StripeClient creates hosted checkout sessions.
type StripeClient struct {
	api                *client.API
	paymentMethodTypes []string
	logger             *slog.Logger
}

func NewStripeClient(cfg config.Stripe, paymentMethodTypes []string, logger *slog.Logger) *StripeClient {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultTimeoutMs * time.Millisecond
	}
	return NewStripeClientWithHTTPClient(cfg, paymentMethodTypes, &http.Client{Timeout: timeout}, logger)
}

func NewStripeClientWithHTTPClient(cfg config.Stripe, paymentMethodTypes []string, httpClient *http.Client, logger *slog.Logger) *StripeClient {
	backendConfig := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &slogAdapter{logger: logger},
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripe.String(cfg.APIURL)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)
	api := client.New(cfg.SecretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	if len(paymentMethodTypes) == 0 {
		paymentMethodTypes = []string{"card"}
	}

	return &StripeClient{api: api, paymentMethodTypes: paymentMethodTypes, logger: logger}
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, p checkout.SessionParams) (*checkout.Session, error) {
	metadata := map[string]string{event.MetadataPaymentKey: p.PaymentKey}
	if p.OrderID != "" {
		metadata[event.MetadataOrderID] = p.OrderID
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice(c.paymentMethodTypes),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.Product),
					},
					UnitAmount: stripe.Int64(p.UnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if p.OrderID != "" {
		params.ClientReferenceID = stripe.String(p.OrderID)
	}
	if len(p.PaymentKey) <= maxIdempotencyKeyLen {
		params.SetIdempotencyKey(p.PaymentKey)
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			return nil, &checkout.UpstreamError{Message: stripeErr.Msg, Err: err}
		}
		return nil, errors.Wrap(err, "create checkout session")
	}

	return &checkout.Session{ID: sess.ID, URL: sess.URL}, nil
}

// slogAdapter routes stripe-go's own logging through slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (a *slogAdapter) Infof(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (a *slogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...), "component", "stripe")
}

func (a *slogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...), "component", "stripe")
}
