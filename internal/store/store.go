// Package store holds the relay ledger implementations that do not need an
// external database.
package store

import (
	"context"

	"github.com/pkg/errors"

	"payment-relay/internal/model"
)

var ErrNotFound = errors.New("claim not found")

// Ledger records which payment keys were relayed and how each delivery went.
type Ledger interface {
	Claim(ctx context.Context, c model.Claim) (bool, error)
	GetClaim(ctx context.Context, paymentKey string) (*model.Claim, error)
	RecordDelivery(ctx context.Context, d model.Delivery) error
	Deliveries(ctx context.Context, paymentKey string) ([]model.Delivery, error)
}

var (
	_ Ledger = (*Memory)(nil)
	_ Ledger = (*Bolt)(nil)
)
