package domain

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestParseAccountID(t *testing.T) {
	tests := []struct {
		raw     string
		want    AccountID
		wantErr bool
	}{
		{"alice", "alice", false},
		{"  bob  ", "bob", false},
		{"0xABCdef", "0xabcdef", false},
		{"0XABC", "0xabc", false},
		{"", "", true},
		{"   ", "", true},
		{"a b", "", true},
		{"a/b", "", true},
		{strings.Repeat("x", MaxAccountIDLength+1), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAccountID(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAccount) {
					t.Errorf("Expected ErrInvalidAccount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCallerResolve(t *testing.T) {
	if _, err := AnonymousCaller().Resolve(); !errors.Is(err, ErrMissingIdentity) {
		t.Errorf("Expected ErrMissingIdentity, got %v", err)
	}
	if NewCaller("").Present() {
		t.Error("Empty id should not be present")
	}

	id, err := NewCaller("alice").Resolve()
	if err != nil || id != "alice" {
		t.Errorf("Expected alice, got %q (%v)", id, err)
	}
}

func TestTimestampCheckedAdd(t *testing.T) {
	if _, ok := Timestamp(math.MaxInt64 - 10).CheckedAdd(WindowDuration); ok {
		t.Error("Expected overflow")
	}
	if _, ok := Timestamp(math.MinInt64 + 10).CheckedAdd(-WindowDuration); ok {
		t.Error("Expected underflow")
	}

	got, ok := Timestamp(1000).CheckedAdd(time.Second)
	if !ok || got != 2000 {
		t.Errorf("Expected 2000, got %d (%v)", got, ok)
	}
}

func TestTimestampConversion(t *testing.T) {
	tm := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	ts := TimestampOf(tm)

	if !ts.Time().Equal(tm) {
		t.Errorf("Expected %v, got %v", tm, ts.Time())
	}
	if ts.String() != "2024-01-02T03:04:05.006Z" {
		t.Errorf("Unexpected format %s", ts.String())
	}
}
