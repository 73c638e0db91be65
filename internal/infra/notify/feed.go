package notify

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"supply_go/internal/event"

	"github.com/gorilla/websocket"
)

const (
	feedWriteTimeout = 5 * time.Second
	feedPingInterval = 30 * time.Second
	feedReadTimeout  = 2 * feedPingInterval
	feedSendBuffer   = 64
)

// ClientGauge tracks connected feed clients.
type ClientGauge interface {
	IncrementFeedClients()
	DecrementFeedClients()
}

// Feed is a websocket hub pushing every notification to connected clients.
// A client that cannot keep up is disconnected rather than slowing the others.
type Feed struct {
	upgrader websocket.Upgrader
	gauge    ClientGauge

	mu      sync.Mutex
	clients map[*feedClient]struct{}
	closed  bool
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func NewFeed(gauge ClientGauge) *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		gauge:   gauge,
		clients: make(map[*feedClient]struct{}),
	}
}

func (f *Feed) Name() string { return "feed" }

// ServeHTTP upgrades the request and streams notifications until the client leaves.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Feed upgrade failed", slog.Any("error", err))
		return
	}

	c := &feedClient{conn: conn, send: make(chan []byte, feedSendBuffer)}
	if !f.register(c) {
		conn.Close()
		return
	}

	go f.writeLoop(c)
	f.readLoop(c)
}

// Clients returns the number of connected clients.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *Feed) Publish(ctx context.Context, n event.Notification, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for c := range f.clients {
		select {
		case c.send <- payload:
		default:
			slog.Warn("Feed client too slow, disconnecting", slog.String("remote", c.conn.RemoteAddr().String()))
			f.removeLocked(c)
		}
	}
	return nil
}

// Close disconnects every client.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for c := range f.clients {
		f.removeLocked(c)
	}
	return nil
}

func (f *Feed) register(c *feedClient) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.clients[c] = struct{}{}
	if f.gauge != nil {
		f.gauge.IncrementFeedClients()
	}
	return true
}

func (f *Feed) remove(c *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(c)
}

func (f *Feed) removeLocked(c *feedClient) {
	if _, ok := f.clients[c]; !ok {
		return
	}
	delete(f.clients, c)
	c.once.Do(func() { close(c.send) })
	if f.gauge != nil {
		f.gauge.DecrementFeedClients()
	}
}

func (f *Feed) writeLoop(c *feedClient) {
	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				f.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				f.remove(c)
				return
			}
		}
	}
}

// readLoop discards client messages and keeps the read deadline fresh on pong.
func (f *Feed) readLoop(c *feedClient) {
	defer f.remove(c)

	c.conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Feed read error", slog.Any("error", err))
			}
			return
		}
	}
}
