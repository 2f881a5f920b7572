package store

import (
	"context"
	"sort"
	"sync"

	"payment-relay/internal/model"
)

// Memory is a process-local ledger. Claims do not survive a restart.
type Memory struct {
	mu         sync.Mutex
	claims     map[string]model.Claim
	deliveries map[string][]model.Delivery
}

func NewMemory() *Memory {
	return &Memory{
		claims:     make(map[string]model.Claim),
		deliveries: make(map[string][]model.Delivery),
	}
}

func (m *Memory) Claim(_ context.Context, c model.Claim) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.claims[c.PaymentKey]; ok {
		return false, nil
	}
	m.claims[c.PaymentKey] = c
	return true, nil
}

func (m *Memory) GetClaim(_ context.Context, paymentKey string) (*model.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.claims[paymentKey]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) RecordDelivery(_ context.Context, d model.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deliveries[d.PaymentKey] = append(m.deliveries[d.PaymentKey], d)
	return nil
}

func (m *Memory) Deliveries(_ context.Context, paymentKey string) ([]model.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deliveries := append([]model.Delivery(nil), m.deliveries[paymentKey]...)
	sort.SliceStable(deliveries, func(i, j int) bool {
		return deliveries[i].AttemptedAt.Before(deliveries[j].AttemptedAt)
	})
	return deliveries, nil
}

func (m *Memory) Close() error { return nil }
