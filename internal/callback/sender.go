package callback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultTimeoutMs = 10_000

	maxLoggedResponseBytes = 2048
)

// DeliveryError reports a relay target that answered with a non-2xx status.
type DeliveryError struct {
	Target     string
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("relay target %s responded %d", e.Target, e.StatusCode)
}

type Sender struct {
	client *http.Client
	logger *slog.Logger
}

func NewSender(timeout time.Duration, logger *slog.Logger) *Sender {
	if timeout <= 0 {
		timeout = defaultTimeoutMs * time.Millisecond
	}
	return &Sender{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (s *Sender) Send(ctx context.Context, url string, payload []byte) error {
	s.logger.DebugContext(ctx, "Sending callback", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxLoggedResponseBytes))
	if err != nil {
		return errors.Wrap(err, "read response body")
	}

	s.logger.InfoContext(ctx, "Callback response", "url", url, "status", resp.StatusCode, "body", string(respBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{Target: url, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return nil
}
