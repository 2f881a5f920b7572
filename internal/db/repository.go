package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"payment-relay/internal/model"
	"payment-relay/internal/store"
)

var _ store.Ledger = (*LedgerRepository)(nil)

// LedgerRepository stores relay claims and delivery outcomes in Postgres.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Claim inserts c unless a claim for the same payment key exists. It reports
// whether this call created the claim.
func (r *LedgerRepository) Claim(ctx context.Context, c model.Claim) (bool, error) {
	query := `INSERT INTO relay_claim (payment_key, event_id, session_id, order_id, created_at)
	          VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	          ON CONFLICT (payment_key) DO NOTHING`
	tag, err := r.pool.Exec(ctx, query, c.PaymentKey, c.EventID, c.SessionID, c.OrderID, c.CreatedAt)
	if err != nil {
		return false, errors.Wrap(err, "insert claim")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *LedgerRepository) GetClaim(ctx context.Context, paymentKey string) (*model.Claim, error) {
	query := `SELECT payment_key, event_id, session_id, COALESCE(order_id, ''), created_at
	          FROM relay_claim WHERE payment_key = $1`

	var c model.Claim
	err := r.pool.QueryRow(ctx, query, paymentKey).Scan(&c.PaymentKey, &c.EventID, &c.SessionID, &c.OrderID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select claim")
	}
	return &c, nil
}

func (r *LedgerRepository) RecordDelivery(ctx context.Context, d model.Delivery) error {
	query := `INSERT INTO relay_delivery (id, payment_key, target, attempted_at, delivered_at, duration_ms, error)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query, d.ID, d.PaymentKey, d.Target, d.AttemptedAt, d.DeliveredAt, d.DurationMs, d.Error)
	return errors.Wrap(err, "insert delivery")
}

func (r *LedgerRepository) Deliveries(ctx context.Context, paymentKey string) ([]model.Delivery, error) {
	query := `SELECT id, payment_key, target, attempted_at, delivered_at, duration_ms, error
	          FROM relay_delivery WHERE payment_key = $1 ORDER BY attempted_at`
	rows, err := r.pool.Query(ctx, query, paymentKey)
	if err != nil {
		return nil, errors.Wrap(err, "select deliveries")
	}
	defer rows.Close()

	var deliveries []model.Delivery
	for rows.Next() {
		var d model.Delivery
		if err := rows.Scan(&d.ID, &d.PaymentKey, &d.Target, &d.AttemptedAt, &d.DeliveredAt, &d.DurationMs, &d.Error); err != nil {
			return nil, errors.Wrap(err, "scan delivery")
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, errors.Wrap(rows.Err(), "iterate deliveries")
}
