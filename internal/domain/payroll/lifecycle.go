package payroll

import (
	"strings"
	"time"
)

type Event string

const (
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventPay     Event = "pay"
)

var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventApprove: StatusApproved,
		EventReject:  StatusRejected,
	},
	StatusApproved: {
		EventPay: StatusPaid,
	},
}

// Transition resolves the status reached from by event. Rejected and paid are terminal.
func Transition(from Status, event Event) (Status, error) {
	if next, ok := transitions[from][event]; ok {
		return next, nil
	}
	return from, newError(ErrInvalidTransition, "", string(event)+" from "+string(from))
}

func Approve(rec Record, approver string, now time.Time) (Record, error) {
	next, err := Transition(rec.Status, EventApprove)
	if err != nil {
		return rec, withID(err, rec.ID)
	}
	rec.Status = next
	rec.ApprovedBy = approver
	rec.ApprovedDate = &now
	return rec, nil
}

func Reject(rec Record, approver, reason string, now time.Time) (Record, error) {
	next, err := Transition(rec.Status, EventReject)
	if err != nil {
		return rec, withID(err, rec.ID)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return rec, newError(ErrMissingReason, rec.ID, "")
	}
	rec.Status = next
	rec.RejectedBy = approver
	rec.RejectedDate = &now
	rec.RejectionReason = reason
	return rec, nil
}

func MarkPaid(rec Record, meta PaymentMeta, now time.Time) (Record, error) {
	next, err := Transition(rec.Status, EventPay)
	if err != nil {
		return rec, withID(err, rec.ID)
	}
	if strings.TrimSpace(meta.Method) == "" {
		return rec, newError(ErrInvalidPaymentMeta, rec.ID, "")
	}
	rec.Status = next
	rec.PaidDate = &now
	rec.PaymentMethod = meta.Method
	if meta.BankAccount != "" {
		rec.BankAccount = MaskAccount(meta.BankAccount)
	}
	rec.PaymentRef = meta.Reference
	return rec, nil
}

type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// BulkResult reports every record a period-wide transition attempted.
// Records holds the updated versions of the succeeded ones.
type BulkResult struct {
	PeriodID  string        `json:"periodId"`
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
	Records   []Record      `json:"-"`
}

func ApprovePeriod(records []Record, periodID, approver string, now time.Time) BulkResult {
	return applyToPeriod(records, periodID, func(rec Record) (Record, error) {
		return Approve(rec, approver, now)
	})
}

func RejectPeriod(records []Record, periodID, approver, reason string, now time.Time) BulkResult {
	return applyToPeriod(records, periodID, func(rec Record) (Record, error) {
		return Reject(rec, approver, reason, now)
	})
}

func PayPeriod(records []Record, periodID string, meta PaymentMeta, now time.Time) BulkResult {
	return applyToPeriod(records, periodID, func(rec Record) (Record, error) {
		return MarkPaid(rec, meta, now)
	})
}

func applyToPeriod(records []Record, periodID string, apply func(Record) (Record, error)) BulkResult {
	result := BulkResult{PeriodID: periodID, Succeeded: []string{}, Failed: []BulkFailure{}}
	for _, rec := range records {
		if rec.PeriodID != periodID {
			continue
		}
		updated, err := apply(rec)
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: rec.ID, Reason: err.Error(), Err: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, rec.ID)
		result.Records = append(result.Records, updated)
	}
	return result
}
