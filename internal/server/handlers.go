package server

import (
	"encoding/json"
	"net/http"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"

	"payment-relay/internal/checkout"
	"payment-relay/internal/model"
	"payment-relay/internal/payload"
	"payment-relay/internal/rawbody"
	"payment-relay/internal/store"
	"payment-relay/internal/webhook"
)

const webhookErrorMessage = "Webhook error"

var (
	webhookAcceptedCounter      = metrics.GetOrCreateCounter(`webhook_requests_total{result="accepted"}`)
	webhookBadBodyCounter       = metrics.GetOrCreateCounter(`webhook_requests_total{result="bad_body"}`)
	webhookSignatureCounter     = metrics.GetOrCreateCounter(`webhook_requests_total{result="signature_invalid"}`)
	webhookMalformedCounter     = metrics.GetOrCreateCounter(`webhook_requests_total{result="malformed"}`)
	webhookProcessFailedCounter = metrics.GetOrCreateCounter(`webhook_requests_total{result="process_failed"}`)
)

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, ok := rawbody.FromContext(ctx)
	if !ok {
		s.rejectWebhookBody(w, r, rawbody.ErrEmptyBody)
		return
	}

	evt, err := s.verifier.Verify(raw, r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		if errors.Is(err, webhook.ErrSignatureInvalid) {
			webhookSignatureCounter.Inc()
		} else {
			webhookMalformedCounter.Inc()
		}
		s.logger.WarnContext(ctx, "Webhook rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{Error: webhookErrorMessage})
		return
	}

	outcome, err := s.processor.Process(ctx, evt)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error processing webhook event", "error", err, "eventId", evt.ID())
		webhookProcessFailedCounter.Inc()
		writeJSON(w, http.StatusInternalServerError, payload.ErrorResponse{Error: webhookErrorMessage})
		return
	}

	s.logger.InfoContext(ctx, "Webhook accepted", "eventId", evt.ID(), "type", evt.Type(), "outcome", outcome)
	webhookAcceptedCounter.Inc()
	writeJSON(w, http.StatusOK, payload.WebhookResponse{Received: true})
}

func (s *Server) rejectWebhookBody(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WarnContext(r.Context(), "Webhook body not captured", "error", err)
	webhookBadBodyCounter.Inc()

	status := http.StatusBadRequest
	if errors.Is(err, rawbody.ErrBodyTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, payload.ErrorResponse{Error: webhookErrorMessage})
}

func (s *Server) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readJSONBody(w, r)
	if !ok {
		return
	}

	var body payload.Checkout
	if err := json.Unmarshal(raw, &body); err != nil {
		s.writeValidation(w, r, &checkout.ValidationError{Message: "Invalid JSON body: " + err.Error(), Received: echo(raw)})
		return
	}

	req, err := s.resolver.ResolveGeneric(body)
	if err != nil {
		s.writeCheckoutError(w, r, err, raw)
		return
	}
	s.createSession(w, r, req, raw)
}

func (s *Server) handleCreatiumPayment(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readJSONBody(w, r)
	if !ok {
		return
	}

	var body payload.Creatium
	if err := json.Unmarshal(raw, &body); err != nil {
		s.writeValidation(w, r, &checkout.ValidationError{Message: "Invalid JSON body: " + err.Error(), Received: echo(raw)})
		return
	}

	req, err := s.resolver.ResolveCreatium(body)
	if err != nil {
		s.writeCheckoutError(w, r, err, raw)
		return
	}
	s.createSession(w, r, req, raw)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request, req checkout.Request, raw []byte) {
	res, err := s.sessions.CreateSession(r.Context(), req)
	if err != nil {
		s.writeCheckoutError(w, r, err, raw)
		return
	}

	writeJSON(w, http.StatusOK, payload.CheckoutResponse{
		URL:        res.URL,
		PaymentKey: res.PaymentKey,
		SessionID:  res.SessionID,
	})
}

// handleRelayStatus reports the claim and delivery attempts for a payment key.
func (s *Server) handleRelayStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paymentKey := r.PathValue("payment_key")

	claim, err := s.relays.GetClaim(ctx, paymentKey)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, payload.ErrorResponse{Error: "No relay for payment key"})
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error reading relay claim", "error", err, "paymentKey", paymentKey)
		writeJSON(w, http.StatusInternalServerError, payload.ErrorResponse{Error: "Ledger unavailable"})
		return
	}

	deliveries, err := s.relays.Deliveries(ctx, paymentKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error reading relay deliveries", "error", err, "paymentKey", paymentKey)
		writeJSON(w, http.StatusInternalServerError, payload.ErrorResponse{Error: "Ledger unavailable"})
		return
	}
	if deliveries == nil {
		deliveries = []model.Delivery{}
	}

	writeJSON(w, http.StatusOK, payload.RelayStatusResponse{Claim: claim, Deliveries: deliveries})
}

func (s *Server) readJSONBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := rawbody.Read(w, r, s.cfg.MaxBodyBytes)
	switch {
	case err == nil:
		return raw, true
	case errors.Is(err, rawbody.ErrBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, payload.ErrorResponse{Error: err.Error()})
	case errors.Is(err, rawbody.ErrEmptyBody):
		s.writeValidation(w, r, &checkout.ValidationError{Message: checkout.MessageMissingFields})
	default:
		writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{Error: err.Error()})
	}
	return nil, false
}

func (s *Server) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error, raw []byte) {
	var validationErr *checkout.ValidationError
	if errors.As(err, &validationErr) {
		validationErr.Received = echo(raw)
		s.writeValidation(w, r, validationErr)
		return
	}

	var upstream *checkout.UpstreamError
	if errors.As(err, &upstream) {
		writeJSON(w, http.StatusInternalServerError, payload.ErrorResponse{Error: upstream.Message})
		return
	}

	s.logger.ErrorContext(r.Context(), "Unexpected checkout error", "error", err)
	writeJSON(w, http.StatusInternalServerError, payload.ErrorResponse{Error: err.Error()})
}

func (s *Server) writeValidation(w http.ResponseWriter, r *http.Request, err *checkout.ValidationError) {
	s.logger.InfoContext(r.Context(), "Checkout request rejected", "error", err)
	writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{
		Error:    err.Message,
		Fields:   err.Fields,
		Received: err.Received,
	})
}

// echo returns raw when it is valid JSON so it can be embedded verbatim.
func echo(raw []byte) json.RawMessage {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return json.RawMessage(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
