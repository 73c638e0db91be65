package domain

import (
	"math"
	"time"
)

// WindowDuration is the length of one supply window.
const WindowDuration = 24 * time.Hour

// Timestamp is a wall-clock instant in Unix milliseconds.
// All ledger timing (lastResetAt, window arithmetic) uses this unit.
type Timestamp int64

// TimestampOf converts a time.Time to a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time returns the Timestamp as a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts)).UTC()
}

// CheckedAdd adds d to ts. It reports false if the result would overflow.
func (ts Timestamp) CheckedAdd(d time.Duration) (Timestamp, bool) {
	ms := d.Milliseconds()
	if ms > 0 && int64(ts) > math.MaxInt64-ms {
		return 0, false
	}
	if ms < 0 && int64(ts) < math.MinInt64-ms {
		return 0, false
	}
	return ts + Timestamp(ms), true
}

// String formats the timestamp as RFC3339 with milliseconds.
func (ts Timestamp) String() string {
	return ts.Time().Format("2006-01-02T15:04:05.000Z07:00")
}
