package webhook

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader carries the processor signature for a webhook delivery.
const SignatureHeader = "Stripe-Signature"

const objectCheckoutSession = "checkout.session"

var (
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	ErrMalformedEvent   = errors.New("webhook event malformed")
)

// Verifier authenticates webhook payloads against the shared signing secret.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = stripewebhook.DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance}
}

// Verify checks header against an HMAC-SHA256 of the untouched payload bytes
// and decodes the event. Any failure yields an error and a zero Event.
func (v *Verifier) Verify(payload []byte, header string) (Event, error) {
	if len(payload) == 0 {
		return Event{}, errors.Wrap(ErrMalformedEvent, "empty payload")
	}
	if header == "" {
		return Event{}, errors.Wrap(ErrSignatureInvalid, "missing "+SignatureHeader+" header")
	}

	evt, err := stripewebhook.ConstructEventWithOptions(payload, header, v.secret, stripewebhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return Event{}, errors.Wrap(ErrSignatureInvalid, err.Error())
		}
		return Event{}, errors.Wrap(ErrMalformedEvent, err.Error())
	}

	return decode(evt)
}

func isSignatureError(err error) bool {
	return errors.Is(err, stripewebhook.ErrNotSigned) ||
		errors.Is(err, stripewebhook.ErrInvalidHeader) ||
		errors.Is(err, stripewebhook.ErrNoValidSignature) ||
		errors.Is(err, stripewebhook.ErrTooOld)
}

func decode(evt stripe.Event) (Event, error) {
	if evt.ID == "" || evt.Type == "" {
		return Event{}, errors.Wrap(ErrMalformedEvent, "event id and type are required")
	}

	event := Event{id: evt.ID, eventType: string(evt.Type)}
	if evt.Data == nil || evt.Data.Object["object"] != objectCheckoutSession {
		return event, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
		return Event{}, errors.Wrap(ErrMalformedEvent, "decode checkout session: "+err.Error())
	}
	if cs.ID == "" {
		return Event{}, errors.Wrap(ErrMalformedEvent, "checkout session id is required")
	}

	event.session = &Session{
		ID:            cs.ID,
		PaymentStatus: string(cs.PaymentStatus),
		Metadata:      cs.Metadata,
	}
	return event, nil
}
