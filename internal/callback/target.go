package callback

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"payment-relay/internal/message"
)

// Target is one downstream system notified of completed payments.
type Target interface {
	Name() string
	Deliver(ctx context.Context, n message.Notification) error
}

// HTTPTarget posts the notification as JSON to a fixed URL.
type HTTPTarget struct {
	name   string
	url    string
	sender *Sender
}

func NewHTTPTarget(name, url string, sender *Sender) *HTTPTarget {
	return &HTTPTarget{name: name, url: url, sender: sender}
}

func (t *HTTPTarget) Name() string { return t.name }

func (t *HTTPTarget) Deliver(ctx context.Context, n message.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}

	err = t.sender.Send(ctx, t.url, body)
	var deliveryErr *DeliveryError
	if errors.As(err, &deliveryErr) {
		deliveryErr.Target = t.name
	}
	return err
}
