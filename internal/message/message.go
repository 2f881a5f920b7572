package message

// Status of a relayed payment.
type Status string

// StatusSucceeded is the only status the relay emits. The wire value is the
// one the Creatium third-party payment endpoint expects.
const StatusSucceeded Status = "success"

// Notification is sent to every relay target once per completed payment.
type Notification struct {
	PaymentKey string `json:"payment_key"`
	OrderID    string `json:"order_id,omitempty"`
	Status     Status `json:"status"`

	// EventID and SessionID are kept for correlation and are not part of the
	// relayed body.
	EventID   string `json:"-"`
	SessionID string `json:"-"`
}
