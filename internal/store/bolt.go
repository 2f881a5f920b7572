package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"payment-relay/internal/model"
)

// sortableTime keeps a fixed width so keys sort chronologically.
const sortableTime = "2006-01-02T15:04:05.000000000Z"

var (
	claimsBucket     = []byte("claims")
	deliveriesBucket = []byte("deliveries")
)

// Bolt is a single-file embedded ledger. Deliveries are nested buckets keyed
// by payment key, each entry keyed by attempt time and delivery id so that
// iteration returns attempts in order.
type Bolt struct {
	db *bolt.DB
}

func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(claimsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(deliveriesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create buckets")
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) Claim(_ context.Context, c model.Claim) (bool, error) {
	value, err := json.Marshal(c)
	if err != nil {
		return false, errors.Wrap(err, "marshal claim")
	}

	created := false
	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(claimsBucket)
		key := []byte(c.PaymentKey)
		if bucket.Get(key) != nil {
			return nil
		}
		created = true
		return bucket.Put(key, value)
	})
	if err != nil {
		return false, errors.Wrap(err, "put claim")
	}
	return created, nil
}

func (b *Bolt) GetClaim(_ context.Context, paymentKey string) (*model.Claim, error) {
	var c *model.Claim
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(claimsBucket).Get([]byte(paymentKey))
		if v == nil {
			return ErrNotFound
		}
		c = &model.Claim{}
		return json.Unmarshal(v, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (b *Bolt) RecordDelivery(_ context.Context, d model.Delivery) error {
	value, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "marshal delivery")
	}

	key := append([]byte(d.AttemptedAt.UTC().Format(sortableTime)), d.ID[:]...)
	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(deliveriesBucket).CreateBucketIfNotExists([]byte(d.PaymentKey))
		if err != nil {
			return err
		}
		return bucket.Put(key, value)
	})
	return errors.Wrap(err, "put delivery")
}

func (b *Bolt) Deliveries(_ context.Context, paymentKey string) ([]model.Delivery, error) {
	var deliveries []model.Delivery
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(deliveriesBucket).Bucket([]byte(paymentKey))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var d model.Delivery
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			deliveries = append(deliveries, d)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "read deliveries")
	}
	return deliveries, nil
}
