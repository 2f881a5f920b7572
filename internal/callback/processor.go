package callback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"

	"payment-relay/internal/logging"
	"payment-relay/internal/message"
	"payment-relay/internal/model"
)

const defaultParallelism = 100

// DeliveryRecorder persists per-target relay outcomes.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, delivery model.Delivery) error
}

// Dispatcher fans a notification out to every target. Each target runs in
// its own goroutine with its own timeout, so one failing or hanging target
// never affects the others or the caller.
type Dispatcher struct {
	targets  []Target
	recorder DeliveryRecorder
	sem      chan struct{}
	timeout  time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(targets []Target, recorder DeliveryRecorder, parallelism int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	if timeout <= 0 {
		timeout = defaultTimeoutMs * time.Millisecond
	}
	return &Dispatcher{
		targets:  targets,
		recorder: recorder,
		sem:      make(chan struct{}, parallelism),
		timeout:  timeout,
		logger:   logger,
	}
}

func (d *Dispatcher) Targets() []string {
	names := make([]string, 0, len(d.targets))
	for _, t := range d.targets {
		names = append(names, t.Name())
	}
	return names
}

// Dispatch starts delivery to all targets and returns immediately. The
// caller's cancellation does not propagate to deliveries.
func (d *Dispatcher) Dispatch(ctx context.Context, n message.Notification) {
	ctx = context.WithoutCancel(ctx)

	for _, target := range d.targets {
		d.wg.Add(1)
		go func(target Target) {
			defer d.wg.Done()

			d.sem <- struct{}{}
			defer func() { <-d.sem }()

			d.deliver(ctx, target, n)
		}(target)
	}
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, target Target, n message.Notification) {
	ctx = logging.AppendCtx(ctx, slog.String("target", target.Name()))

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	startTime := time.Now()
	err := d.invoke(callCtx, target, n)
	elapsed := time.Since(startTime)

	metrics.GetOrCreateHistogram(fmt.Sprintf(`relay_delivery_duration_milliseconds{target=%q}`, target.Name())).
		Update(float64(elapsed.Milliseconds()))

	delivery := model.Delivery{
		ID:          uuid.New(),
		PaymentKey:  n.PaymentKey,
		Target:      target.Name(),
		AttemptedAt: startTime,
		DurationMs:  elapsed.Milliseconds(),
	}

	if err != nil {
		errMsg := err.Error()
		delivery.Error = &errMsg
		d.logger.ErrorContext(ctx, "Relay delivery failed", "error", err, "durationMs", elapsed.Milliseconds())
		metrics.GetOrCreateCounter(fmt.Sprintf(`relay_deliveries_total{target=%q,result="failed"}`, target.Name())).Inc()
	} else {
		deliveredAt := time.Now()
		delivery.DeliveredAt = &deliveredAt
		d.logger.InfoContext(ctx, "Relay delivered", "durationMs", elapsed.Milliseconds())
		metrics.GetOrCreateCounter(fmt.Sprintf(`relay_deliveries_total{target=%q,result="success"}`, target.Name())).Inc()
	}

	if d.recorder == nil {
		return
	}
	if err := d.recorder.RecordDelivery(ctx, delivery); err != nil {
		d.logger.ErrorContext(ctx, "Error recording relay delivery", "error", err)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, target Target, n message.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("relay target %s panicked: %v", target.Name(), r)
		}
	}()
	return target.Deliver(ctx, n)
}
