package infra

import (
	"sync/atomic"
	"time"

	"supply_go/internal/domain"
	"supply_go/internal/engine"
)

var _ engine.Recorder = (*Metrics)(nil)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ordersAccepted     atomic.Uint64
	unitsAllocated     atomic.Uint64
	ordersRejected     [3]atomic.Uint64 // indexed by domain.ErrorKind
	resetsApplied      atomic.Uint64
	resetsSkipped      atomic.Uint64
	checkpointFailures atomic.Uint64
	outboxDrops        atomic.Uint64
	published          atomic.Uint64
	publishFailures    atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	feedClients atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// ObserveOrderAccepted records an accepted order with its in-loop latency.
func (m *Metrics) ObserveOrderAccepted(quantity uint32, latency time.Duration) {
	m.ordersAccepted.Add(1)
	m.unitsAllocated.Add(uint64(quantity))
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
}

// ObserveOrderRejected records a refused order.
func (m *Metrics) ObserveOrderRejected(kind domain.ErrorKind) {
	if int(kind) < len(m.ordersRejected) {
		m.ordersRejected[kind].Add(1)
	}
}

// ObserveReset records a reset attempt.
func (m *Metrics) ObserveReset(applied bool) {
	if applied {
		m.resetsApplied.Add(1)
	} else {
		m.resetsSkipped.Add(1)
	}
}

// ObserveCheckpointFailure records a failed persistence attempt.
func (m *Metrics) ObserveCheckpointFailure() {
	m.checkpointFailures.Add(1)
}

// ObserveOutboxDrop records a notification dropped on a full outbox.
func (m *Metrics) ObserveOutboxDrop() {
	m.outboxDrops.Add(1)
}

// RecordPublished records a notification delivered to a sink.
func (m *Metrics) RecordPublished() {
	m.published.Add(1)
}

// RecordPublishFailure records a sink delivery that failed after retries.
func (m *Metrics) RecordPublishFailure() {
	m.publishFailures.Add(1)
}

// IncrementFeedClients increments connected feed clients by 1.
func (m *Metrics) IncrementFeedClients() {
	m.feedClients.Add(1)
}

// DecrementFeedClients decrements connected feed clients by 1.
func (m *Metrics) DecrementFeedClients() {
	m.feedClients.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	OrdersAccepted     uint64            `json:"orders_accepted"`
	UnitsAllocated     uint64            `json:"units_allocated"`
	OrdersRejected     map[string]uint64 `json:"orders_rejected"`
	ResetsApplied      uint64            `json:"resets_applied"`
	ResetsSkipped      uint64            `json:"resets_skipped"`
	CheckpointFailures uint64            `json:"checkpoint_failures"`
	OutboxDrops        uint64            `json:"outbox_drops"`
	Published          uint64            `json:"published"`
	PublishFailures    uint64            `json:"publish_failures"`
	AvgLatencyNs       int64             `json:"avg_latency_ns"`
	FeedClients        int32             `json:"feed_clients"`
	Timestamp          time.Time         `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	rejected := make(map[string]uint64, len(m.ordersRejected))
	for i := range m.ordersRejected {
		rejected[domain.ErrorKind(i).Code()] = m.ordersRejected[i].Load()
	}

	return MetricsSnapshot{
		OrdersAccepted:     m.ordersAccepted.Load(),
		UnitsAllocated:     m.unitsAllocated.Load(),
		OrdersRejected:     rejected,
		ResetsApplied:      m.resetsApplied.Load(),
		ResetsSkipped:      m.resetsSkipped.Load(),
		CheckpointFailures: m.checkpointFailures.Load(),
		OutboxDrops:        m.outboxDrops.Load(),
		Published:          m.published.Load(),
		PublishFailures:    m.publishFailures.Load(),
		AvgLatencyNs:       avgLatency,
		FeedClients:        m.feedClients.Load(),
		Timestamp:          time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ordersAccepted.Store(0)
	m.unitsAllocated.Store(0)
	for i := range m.ordersRejected {
		m.ordersRejected[i].Store(0)
	}
	m.resetsApplied.Store(0)
	m.resetsSkipped.Store(0)
	m.checkpointFailures.Store(0)
	m.outboxDrops.Store(0)
	m.published.Store(0)
	m.publishFailures.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.feedClients.Store(0)
}
