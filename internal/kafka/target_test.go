package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-relay/internal/config"
	"payment-relay/internal/message"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestTarget_Deliver(t *testing.T) {
	w := &fakeWriter{}
	target := NewTarget(w)

	err := target.Deliver(context.Background(), message.Notification{
		PaymentKey: "pk_1",
		OrderID:    "o_1",
		Status:     message.StatusSucceeded,
		EventID:    "evt_1",
		SessionID:  "cs_1",
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "pk_1", string(msg.Key))

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, map[string]string{"payment_key": "pk_1", "order_id": "o_1", "status": "success"}, body)
	assert.Equal(t, "evt_1", string(msg.Headers[0].Value))
}

func TestTarget_DeliverError(t *testing.T) {
	target := NewTarget(&fakeWriter{err: errors.New("broker down")})

	err := target.Deliver(context.Background(), message.Notification{PaymentKey: "pk_1"})
	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, TargetName, target.Name())
}

func TestNewWriter_Defaults(t *testing.T) {
	w := NewWriter(config.Kafka{Broker: "a:9092,b:9092", Topic: "relay"})
	defer w.Close()

	assert.Equal(t, "relay", w.Topic)
	assert.Equal(t, DefaultBatchSize, w.BatchSize)
}
