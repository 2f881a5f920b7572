package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"payment-relay/internal/message"
)

const TargetName = "kafka"

// Writer is the subset of kafka.Writer the target needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Target publishes notifications to a topic, keyed by payment key so all
// messages for one payment land on the same partition.
type Target struct {
	writer Writer
}

func NewTarget(writer Writer) *Target {
	return &Target{writer: writer}
}

func (t *Target) Name() string { return TargetName }

func (t *Target) Deliver(ctx context.Context, n message.Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}

	msg := kafka.Message{
		Key:   []byte(n.PaymentKey),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(n.EventID)},
			{Key: "session_id", Value: []byte(n.SessionID)},
		},
	}
	if err := t.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "write kafka message")
	}
	return nil
}

func (t *Target) Close() error {
	return t.writer.Close()
}
