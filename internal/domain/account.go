package domain

import (
	"errors"
	"fmt"
	"strings"
)

// MaxAccountIDLength bounds the size of an account identifier.
const MaxAccountIDLength = 128

var (
	// ErrMissingIdentity is returned when the environment did not supply a caller.
	// It is an environment error, not an order error.
	ErrMissingIdentity = errors.New("missing caller identity")

	// ErrInvalidAccount is returned when an account identifier is malformed.
	ErrInvalidAccount = errors.New("invalid account id")
)

// AccountID identifies a requesting account.
// Hex addresses ("0x...") are normalized to lower case so that the same
// address always maps to the same ledger entry.
type AccountID string

// ParseAccountID validates and normalizes a raw identifier.
func ParseAccountID(raw string) (AccountID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAccount)
	}
	if len(s) > MaxAccountIDLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidAccount, MaxAccountIDLength)
	}
	if strings.ContainsAny(s, " \t\r\n/") {
		return "", fmt.Errorf("%w: %q contains whitespace or '/'", ErrInvalidAccount, s)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = "0x" + strings.ToLower(s[2:])
	}
	return AccountID(s), nil
}

// String implements fmt.Stringer.
func (a AccountID) String() string {
	return string(a)
}

// Caller is the identity supplied by the hosting environment.
// The zero value is an absent caller.
type Caller struct {
	id      AccountID
	present bool
}

// NewCaller returns a present caller.
func NewCaller(id AccountID) Caller {
	return Caller{id: id, present: id != ""}
}

// AnonymousCaller returns a caller without identity.
func AnonymousCaller() Caller {
	return Caller{}
}

// Present reports whether the environment resolved an identity.
func (c Caller) Present() bool {
	return c.present
}

// Resolve returns the account or ErrMissingIdentity.
func (c Caller) Resolve() (AccountID, error) {
	if !c.present {
		return "", ErrMissingIdentity
	}
	return c.id, nil
}
