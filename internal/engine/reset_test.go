package engine

import (
	"math"
	"testing"
	"time"

	"supply_go/internal/domain"
	"supply_go/internal/event"
)

var day = domain.Timestamp(domain.WindowDuration.Milliseconds())

func TestResetPolicy_BeforeWindow(t *testing.T) {
	l := domain.NewLedger(5, t0)
	Allocator{}.Order(l, "alice", 4)
	before := l.Clone()

	out := ResetPolicy{}.Apply(l, t0+day-1)
	if out.Applied {
		t.Error("Reset should not apply before the window elapses")
	}
	if out.Remaining != 46 {
		t.Errorf("Expected remaining 46, got %d", out.Remaining)
	}
	if !before.Equal(l) {
		t.Error("Early reset must not mutate the ledger")
	}
	if out.Notification(event.BaseEvent{}) != nil {
		t.Error("Early reset must not produce a notification")
	}
}

func TestResetPolicy_AtWindow(t *testing.T) {
	l := domain.NewLedger(5, t0)
	Allocator{}.Order(l, "alice", 4)

	out := ResetPolicy{}.Apply(l, t0+day)
	if !out.Applied {
		t.Fatal("Reset should apply exactly at the window end")
	}
	if out.Remaining != 50 || l.RemainingSupply() != 50 {
		t.Errorf("Expected remaining 50, got %d", l.RemainingSupply())
	}
	if l.LastResetAt() != t0+day {
		t.Errorf("Expected lastResetAt %d, got %d", t0+day, l.LastResetAt())
	}
	if l.AccountTotal("alice") != 4 {
		t.Error("Account totals persist across resets by default")
	}
	if out.PreviousResetAt != t0 {
		t.Errorf("Expected previous reset %d, got %d", t0, out.PreviousResetAt)
	}

	n := out.Notification(event.NewBase(3, t0+day))
	if n == nil || n.Remaining != 50 || n.GetSeq() != 3 {
		t.Errorf("Unexpected notification %+v", n)
	}
}

func TestResetPolicy_LateCallStampsCallTime(t *testing.T) {
	l := domain.NewLedger(5, t0)
	late := t0 + 3*day + domain.Timestamp((5 * time.Hour).Milliseconds())

	ResetPolicy{}.Apply(l, late)
	if l.LastResetAt() != late {
		t.Errorf("Expected lastResetAt %d, got %d", late, l.LastResetAt())
	}
	if (ResetPolicy{}).Elapsed(l, late+day-1) {
		t.Error("New window starts at the call time")
	}
}

func TestResetPolicy_ClearAccounts(t *testing.T) {
	l := domain.NewLedger(5, t0)
	Allocator{}.Order(l, "alice", 5)

	out := ResetPolicy{ClearAccounts: true}.Apply(l, t0+day)
	if !out.AccountsCleared {
		t.Error("Expected AccountsCleared")
	}
	if l.AccountTotal("alice") != 0 {
		t.Error("Expected account totals cleared")
	}
	if l.TotalOrders() != 5 {
		t.Error("Total orders must survive clearing")
	}
	if _, err := (Allocator{}).Order(l, "alice", 5); err != nil {
		t.Errorf("Order after clearing failed: %v", err)
	}
}

func TestResetPolicy_Overflow(t *testing.T) {
	l := domain.NewLedger(5, domain.Timestamp(math.MaxInt64-1000))
	if (ResetPolicy{}).Elapsed(l, domain.Timestamp(math.MaxInt64)) {
		t.Error("Overflowing window end must never elapse")
	}
}
