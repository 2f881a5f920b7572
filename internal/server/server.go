package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"payment-relay/internal/checkout"
	"payment-relay/internal/config"
	"payment-relay/internal/logging"
	"payment-relay/internal/metrics"
	"payment-relay/internal/model"
	"payment-relay/internal/rawbody"
	"payment-relay/internal/service"
	"payment-relay/internal/webhook"
)

type EventProcessor interface {
	Process(ctx context.Context, evt webhook.Event) (service.Outcome, error)
}

type SessionService interface {
	CreateSession(ctx context.Context, req checkout.Request) (*checkout.Result, error)
}

// RelayLog is the read side of the relay ledger.
type RelayLog interface {
	GetClaim(ctx context.Context, paymentKey string) (*model.Claim, error)
	Deliveries(ctx context.Context, paymentKey string) ([]model.Delivery, error)
}

type Server struct {
	cfg       config.Server
	verifier  *webhook.Verifier
	processor EventProcessor
	sessions  SessionService
	relays    RelayLog
	resolver  *checkout.Resolver
	logger    *slog.Logger
}

func New(cfg config.Server, verifier *webhook.Verifier, processor EventProcessor, sessions SessionService,
	relays RelayLog, logger *slog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		verifier:  verifier,
		processor: processor,
		sessions:  sessions,
		relays:    relays,
		resolver:  checkout.NewResolver(),
		logger:    logger,
	}
}

// Handler returns the routed handler. Only /webhook goes through raw body
// capture; the JSON endpoints decode their own bodies.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /liveness", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /relays/{payment_key...}", s.handleRelayStatus)

	mux.HandleFunc("POST /create-checkout-session", s.handleCreateCheckoutSession)
	mux.HandleFunc("POST /creatium-payment", s.handleCreatiumPayment)
	mux.Handle("POST /webhook", rawbody.Capture(s.cfg.MaxBodyBytes, s.rejectWebhookBody)(http.HandlerFunc(s.handleWebhook)))

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CorsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	})

	return s.requestContext(corsHandler(mux))
}

func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		ctx := logging.AppendCtx(r.Context(), slog.String("requestId", requestID),
			slog.String("path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
