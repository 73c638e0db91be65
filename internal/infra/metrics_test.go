package infra

import (
	"testing"
	"time"

	"supply_go/internal/domain"
)

func TestMetrics_OrderAccepted(t *testing.T) {
	m := &Metrics{}

	m.ObserveOrderAccepted(1, 1000*time.Nanosecond)
	m.ObserveOrderAccepted(2, 2000*time.Nanosecond)
	m.ObserveOrderAccepted(3, 3000*time.Nanosecond)

	snap := m.Snapshot()

	if snap.OrdersAccepted != 3 {
		t.Errorf("Expected 3 orders, got %d", snap.OrdersAccepted)
	}
	if snap.UnitsAllocated != 6 {
		t.Errorf("Expected 6 units, got %d", snap.UnitsAllocated)
	}

	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgLatencyNs != 2000 {
		t.Errorf("Expected avg latency 2000, got %d", snap.AvgLatencyNs)
	}
}

func TestMetrics_Rejections(t *testing.T) {
	m := &Metrics{}

	m.ObserveOrderRejected(domain.KindZeroQuantity)
	m.ObserveOrderRejected(domain.KindZeroQuantity)
	m.ObserveOrderRejected(domain.KindSupplyExhausted)
	m.ObserveOrderRejected(domain.ErrorKind(42)) // ignored

	snap := m.Snapshot()
	if snap.OrdersRejected["ZERO_QUANTITY"] != 2 {
		t.Errorf("Expected 2 zero quantity rejections, got %d", snap.OrdersRejected["ZERO_QUANTITY"])
	}
	if snap.OrdersRejected["SUPPLY_EXHAUSTED"] != 1 {
		t.Errorf("Expected 1 supply rejection, got %d", snap.OrdersRejected["SUPPLY_EXHAUSTED"])
	}
	if snap.OrdersRejected["ACCOUNT_LIMIT_EXCEEDED"] != 0 {
		t.Errorf("Expected 0 limit rejections, got %d", snap.OrdersRejected["ACCOUNT_LIMIT_EXCEEDED"])
	}
}

func TestMetrics_Resets(t *testing.T) {
	m := &Metrics{}

	m.ObserveReset(true)
	m.ObserveReset(false)
	m.ObserveReset(false)

	snap := m.Snapshot()
	if snap.ResetsApplied != 1 || snap.ResetsSkipped != 2 {
		t.Errorf("Expected 1 applied / 2 skipped, got %d / %d", snap.ResetsApplied, snap.ResetsSkipped)
	}
}

func TestMetrics_FeedClients(t *testing.T) {
	m := &Metrics{}

	m.IncrementFeedClients()
	m.IncrementFeedClients()
	m.IncrementFeedClients()

	snap := m.Snapshot()
	if snap.FeedClients != 3 {
		t.Errorf("Expected 3 clients, got %d", snap.FeedClients)
	}

	m.DecrementFeedClients()
	snap = m.Snapshot()
	if snap.FeedClients != 2 {
		t.Errorf("Expected 2 clients, got %d", snap.FeedClients)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.ObserveOrderAccepted(1, time.Microsecond)
	m.ObserveCheckpointFailure()
	m.ObserveOutboxDrop()
	m.RecordPublishFailure()
	m.IncrementFeedClients()

	m.Reset()
	snap := m.Snapshot()

	if snap.OrdersAccepted != 0 {
		t.Error("Expected 0 orders after reset")
	}
	if snap.CheckpointFailures != 0 || snap.OutboxDrops != 0 || snap.PublishFailures != 0 {
		t.Error("Expected 0 failures after reset")
	}
	if snap.FeedClients != 0 {
		t.Error("Expected 0 clients after reset")
	}
}
