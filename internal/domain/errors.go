package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// ======================================================================================
// Order Errors
// ======================================================================================

// ErrorKind enumerates the ways an order can be refused.
// The numeric values are the wire indices and must never be reordered.
type ErrorKind uint8

const (
	// KindSupplyExhausted: remaining global supply is below the requested quantity.
	KindSupplyExhausted ErrorKind = iota
	// KindAccountLimitExceeded: the order would push the account past its cap.
	KindAccountLimitExceeded
	// KindZeroQuantity: the requested quantity is 0.
	KindZeroQuantity
)

var kindCodes = [...]string{
	KindSupplyExhausted:      "SUPPLY_EXHAUSTED",
	KindAccountLimitExceeded: "ACCOUNT_LIMIT_EXCEEDED",
	KindZeroQuantity:         "ZERO_QUANTITY",
}

var kindMessages = [...]string{
	KindSupplyExhausted:      "daily supply exhausted",
	KindAccountLimitExceeded: "account order limit exceeded",
	KindZeroQuantity:         "cannot order zero units",
}

// Valid reports whether k is a known kind.
func (k ErrorKind) Valid() bool {
	return int(k) < len(kindCodes)
}

// Code returns the stable wire code of the kind.
func (k ErrorKind) Code() string {
	if !k.Valid() {
		return "UNKNOWN"
	}
	return kindCodes[k]
}

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	return k.Code()
}

// MarshalText encodes the kind as its wire code.
func (k ErrorKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown error kind %d", uint8(k))
	}
	return []byte(kindCodes[k]), nil
}

// UnmarshalText decodes a wire code.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	kind, ok := ParseErrorKind(string(text))
	if !ok {
		return fmt.Errorf("unknown error kind %q", string(text))
	}
	*k = kind
	return nil
}

// ParseErrorKind maps a wire code back to its kind.
func ParseErrorKind(code string) (ErrorKind, bool) {
	for i, c := range kindCodes {
		if c == code {
			return ErrorKind(i), true
		}
	}
	return 0, false
}

// OrderError is the typed result of a refused order.
// It is local and caller-correctable; the ledger is never modified when one is returned.
type OrderError struct {
	Kind      ErrorKind
	Account   AccountID
	Requested uint32
	Available uint32 // remaining supply or remaining account allowance, depending on Kind
}

func (e *OrderError) Error() string {
	msg := kindMessages[KindZeroQuantity]
	if e.Kind.Valid() {
		msg = kindMessages[e.Kind]
	}
	if e.Kind == KindZeroQuantity {
		return msg
	}
	return fmt.Sprintf("%s: requested %d, available %d", msg, e.Requested, e.Available)
}

// Is compares order errors by kind only, so errors.Is(err, ErrSupplyExhausted)
// matches regardless of the quantities carried.
func (e *OrderError) Is(target error) bool {
	var t *OrderError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// IsRetriable always returns false: retrying the same order cannot succeed
// until a caller or reset changes the state.
func (e *OrderError) IsRetriable() bool {
	return false
}

// KindOf extracts the order error kind from err.
func KindOf(err error) (ErrorKind, bool) {
	var oe *OrderError
	if errors.As(err, &oe) {
		return oe.Kind, true
	}
	return 0, false
}

var (
	// ErrZeroQuantity is returned when the requested quantity is 0.
	ErrZeroQuantity = &OrderError{Kind: KindZeroQuantity}

	// ErrSupplyExhausted is returned when remaining supply is insufficient.
	ErrSupplyExhausted = &OrderError{Kind: KindSupplyExhausted}

	// ErrAccountLimitExceeded is returned when the per-account cap would be exceeded.
	ErrAccountLimitExceeded = &OrderError{Kind: KindAccountLimitExceeded}
)

// ======================================================================================
// Infrastructure Errors
// ======================================================================================

// NetworkError represents a network-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "publish", "connect")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrLedgerNotFound is returned by repositories that hold no checkpoint yet.
	ErrLedgerNotFound = errors.New("ledger not found")

	// ErrCorruptSnapshot is returned when a persisted snapshot violates the ledger invariants.
	ErrCorruptSnapshot = errors.New("corrupt ledger snapshot")

	// ErrUnsupportedVersion is returned when an encoded payload has an unknown version.
	ErrUnsupportedVersion = errors.New("unsupported encoding version")

	// ErrSequencerStopped is returned when a request is sent to a sequencer that is not running.
	ErrSequencerStopped = errors.New("sequencer stopped")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
