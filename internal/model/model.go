package model

import (
	"time"

	"github.com/google/uuid"
)

// Claim marks a payment key as relayed. At most one claim exists per key.
type Claim struct {
	PaymentKey string    `json:"paymentKey"`
	EventID    string    `json:"eventId"`
	SessionID  string    `json:"sessionId"`
	OrderID    string    `json:"orderId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Delivery is the outcome of one relay attempt to one target.
type Delivery struct {
	ID          uuid.UUID  `json:"id"`
	PaymentKey  string     `json:"paymentKey"`
	Target      string     `json:"target"`
	AttemptedAt time.Time  `json:"attemptedAt"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	DurationMs  int64      `json:"durationMs"`
	Error       *string    `json:"error,omitempty"`
}
