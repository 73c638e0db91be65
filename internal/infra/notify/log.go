package notify

import (
	"context"
	"log/slog"

	"supply_go/internal/event"
)

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (l *LogSink) Name() string { return "log" }

func (l *LogSink) Publish(ctx context.Context, n event.Notification, payload []byte) error {
	l.logger.InfoContext(ctx, "📣 Notification",
		slog.String("type", string(n.GetType())),
		slog.Uint64("seq", n.GetSeq()),
		slog.String("id", n.GetID()),
		slog.String("payload", string(payload)))
	return nil
}

func (l *LogSink) Close() error { return nil }
