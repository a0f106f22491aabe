package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTier         = errors.New("unknown subscription tier")
	ErrInvalidTransition   = errors.New("invalid subscription status transition")
	ErrMissingReason       = errors.New("a reason is required")
	ErrInvalidAmount       = errors.New("payment amount must be a non-negative number")
	ErrInvalidPayment      = errors.New("payment method is required")
	ErrInvalidDays         = errors.New("extension days must be positive")
	ErrInvalidUsage        = errors.New("usage counters must be non-negative")
	ErrInvalidOrganization = errors.New("organization name is required")
	ErrNotFound            = errors.New("subscription not found")
	ErrNotDue              = errors.New("subscription has not reached its end date")
)

// Error carries the failing kind together with the subscription it concerns.
type Error struct {
	Kind   error
	ID     string
	Detail string
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.ID != "" {
		msg = fmt.Sprintf("%s: %s", e.ID, msg)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, id, detail string) *Error {
	return &Error{Kind: kind, ID: id, Detail: detail}
}

func ErrorID(err error) string {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.ID
	}
	return ""
}
