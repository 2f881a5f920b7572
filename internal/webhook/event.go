package webhook

const (
	EventCheckoutSessionCompleted           = "checkout.session.completed"
	EventCheckoutSessionAsyncPaymentSuccess = "checkout.session.async_payment_succeeded"
)

// Session is the subset of a checkout session the relay needs.
type Session struct {
	ID            string
	PaymentStatus string
	Metadata      map[string]string
}

// Event is a processor event whose signature has been verified. The zero
// value carries nothing; the only way to obtain a populated Event is
// Verifier.Verify.
type Event struct {
	id        string
	eventType string
	session   *Session
}

func (e Event) ID() string   { return e.id }
func (e Event) Type() string { return e.eventType }

// Session returns the checkout session the event refers to, if the event
// object is a checkout session.
func (e Event) Session() (Session, bool) {
	if e.session == nil {
		return Session{}, false
	}
	s := *e.session
	s.Metadata = make(map[string]string, len(e.session.Metadata))
	for k, v := range e.session.Metadata {
		s.Metadata[k] = v
	}
	return s, true
}

// Verified reports whether e was produced by a successful verification.
func (e Event) Verified() bool {
	return e.id != ""
}
