package service

import (
	"context"
	"log/slog"
	"time"

	"supply_go/internal/domain"
	"supply_go/internal/event"
	"supply_go/internal/infra"
	"supply_go/internal/infra/notify"
)

// PublishRecorder counts delivery outcomes.
type PublishRecorder interface {
	RecordPublished()
	RecordPublishFailure()
}

// Dispatcher fans sequencer notifications out to every sink.
// Delivery is at-most-once per sink: a notification that still fails after
// the retry budget is logged and dropped.
type Dispatcher struct {
	source     <-chan event.Notification
	sinks      []notify.Sink
	maxRetries int
	recorder   PublishRecorder
	backoff    func(retry int) time.Duration
	drainWait  time.Duration
}

// NewDispatcher creates a dispatcher reading from source.
func NewDispatcher(source <-chan event.Notification, sinks []notify.Sink, maxRetries int, recorder PublishRecorder) *Dispatcher {
	return &Dispatcher{
		source:     source,
		sinks:      sinks,
		maxRetries: maxRetries,
		recorder:   recorder,
		backoff:    infra.CalculateBackoff,
		drainWait:  2 * time.Second,
	}
}

// Run delivers notifications until ctx is cancelled, then drains what is buffered.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.source == nil || len(d.sinks) == 0 {
		<-ctx.Done()
		return nil
	}

	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	slog.Info("Notification dispatcher started", slog.Any("sinks", names))

	for {
		select {
		case <-ctx.Done():
			d.drain()
			slog.Info("Notification dispatcher stopped")
			return nil
		case n := <-d.source:
			d.Dispatch(ctx, n)
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), d.drainWait)
	defer cancel()
	for {
		select {
		case n := <-d.source:
			d.Dispatch(ctx, n)
		default:
			return
		}
	}
}

// Dispatch encodes n once and delivers it to every sink in order.
func (d *Dispatcher) Dispatch(ctx context.Context, n event.Notification) {
	payload, err := event.Encode(n)
	if err != nil {
		slog.Error("Failed to encode notification",
			slog.String("type", string(n.GetType())),
			slog.Uint64("seq", n.GetSeq()),
			slog.Any("error", err))
		d.recordFailure()
		return
	}
	for _, sink := range d.sinks {
		d.deliver(ctx, sink, n, payload)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sink notify.Sink, n event.Notification, payload []byte) {
	for retry := 0; ; retry++ {
		err := sink.Publish(ctx, n, payload)
		if err == nil {
			if d.recorder != nil {
				d.recorder.RecordPublished()
			}
			return
		}

		if !domain.IsRetriable(err) || retry >= d.maxRetries {
			slog.Error("Notification delivery failed",
				slog.String("sink", sink.Name()),
				slog.String("type", string(n.GetType())),
				slog.Uint64("seq", n.GetSeq()),
				slog.Int("attempts", retry+1),
				slog.Any("error", err))
			d.recordFailure()
			return
		}

		delay := d.backoff(retry)
		slog.Warn("Retrying notification delivery",
			slog.String("sink", sink.Name()),
			slog.Uint64("seq", n.GetSeq()),
			slog.Int("retry", retry+1),
			slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			d.recordFailure()
			return
		case <-time.After(delay):
		}
	}
}

func (d *Dispatcher) recordFailure() {
	if d.recorder != nil {
		d.recorder.RecordPublishFailure()
	}
}
