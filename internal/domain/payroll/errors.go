package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount      = errors.New("monetary amount must be a non-negative number")
	ErrMissingSalaryData  = errors.New("employee has no resolvable basic salary")
	ErrMalformedPeriodID  = errors.New("malformed payroll identifier")
	ErrInvalidTransition  = errors.New("invalid payroll status transition")
	ErrMissingReason      = errors.New("rejection reason is required")
	ErrDuplicatePeriod    = errors.New("payroll period already processed")
	ErrFuturePeriod       = errors.New("payroll cannot be processed for a future period")
	ErrInvalidTaxTable    = errors.New("tax bands must be ordered and non-overlapping")
	ErrPeriodNotFound     = errors.New("payroll period not found")
	ErrRecordNotFound     = errors.New("payroll record not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrNoActiveEmployees  = errors.New("no active employees to process")
	ErrPayslipUnavailable = errors.New("payslip is only available for approved or paid records")
	ErrInvalidPaymentMeta = errors.New("payment method is required")
)

// Error carries the failing kind together with the record or period it concerns.
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

// ErrorID returns the identifier attached to err, if any.
func ErrorID(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.ID
	}
	return ""
}
