package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supply_go/internal/domain"
	"supply_go/internal/event"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn used by NATSSink.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// DialNATS connects with unlimited reconnects.
func DialNATS(url, name string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.Timeout(5 * time.Second),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// NATSSink publishes each notification on <subject>.<type>.
type NATSSink struct {
	conn    Publisher
	subject string
}

func NewNATSSink(conn Publisher, subject string) *NATSSink {
	return &NATSSink{conn: conn, subject: subject}
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Subject(t event.Type) string {
	return s.subject + "." + string(t)
}

func (s *NATSSink) Publish(ctx context.Context, n event.Notification, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return domain.NewFatalNetworkError("nats publish", err)
	}
	if err := s.conn.Publish(s.Subject(n.GetType()), payload); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrMaxPayload) {
			return domain.NewFatalNetworkError("nats publish", err)
		}
		return domain.NewNetworkError("nats publish", err)
	}
	return nil
}

// Close drains the connection when the sink owns a real NATS connection.
func (s *NATSSink) Close() error {
	if nc, ok := s.conn.(*nats.Conn); ok {
		return nc.Drain()
	}
	return nil
}
