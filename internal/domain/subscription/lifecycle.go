package subscription

import (
	"strconv"
	"strings"
	"time"
)

type Event string

const (
	EventApprove    Event = "approve"
	EventReject     Event = "reject"
	EventSuspend    Event = "suspend"
	EventReactivate Event = "reactivate"
	EventExtend     Event = "extend"
	EventExpire     Event = "expire"
)

var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventApprove: StatusActive,
		EventReject:  StatusCancelled,
	},
	StatusActive: {
		EventSuspend: StatusSuspended,
		EventExpire:  StatusExpired,
		EventExtend:  StatusActive,
	},
	StatusSuspended: {
		EventReactivate: StatusActive,
		EventExtend:     StatusSuspended,
	},
	StatusExpired: {
		EventExtend: StatusActive,
	},
}

// Transition resolves the status reached from by event. Cancelled is terminal and
// Expired can only be left by an extension.
func Transition(from Status, event Event) (Status, error) {
	if next, ok := transitions[from][event]; ok {
		return next, nil
	}
	return from, newError(ErrInvalidTransition, "", string(event)+" from "+string(from))
}

// Request opens a pending subscription for org on tier. The caller assigns identifiers.
func Request(org Organization, tier Tier, requestedBy string, now time.Time) (Organization, Subscription, error) {
	def, err := LookupTier(tier)
	if err != nil {
		return Organization{}, Subscription{}, err
	}
	org.Name = strings.TrimSpace(org.Name)
	if org.Name == "" {
		return Organization{}, Subscription{}, newError(ErrInvalidOrganization, org.ID, "")
	}
	org.CreatedAt = now

	sub := Subscription{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Status:           StatusPending,
		RequestedBy:      requestedBy,
		RequestedAt:      now,
		UpdatedAt:        now,
	}
	def.apply(&sub)
	return org, sub, nil
}

func Approve(sub Subscription, approver string, now time.Time) (Subscription, error) {
	next, err := transition(sub, EventApprove)
	if err != nil {
		return sub, err
	}
	def, err := LookupTier(sub.Tier)
	if err != nil {
		return sub, newError(ErrInvalidTier, sub.ID, string(sub.Tier))
	}
	start := now
	end := start.AddDate(0, 0, def.DurationDays)
	sub.Status = next
	sub.StartDate = &start
	sub.EndDate = &end
	sub.ApprovedBy = approver
	sub.ApprovedAt = &start
	sub.StatusReason = ""
	sub.UpdatedAt = now
	return sub, nil
}

func Reject(sub Subscription, reason string, now time.Time) (Subscription, error) {
	return withReason(sub, EventReject, reason, now)
}

func Suspend(sub Subscription, reason string, now time.Time) (Subscription, error) {
	return withReason(sub, EventSuspend, reason, now)
}

func withReason(sub Subscription, event Event, reason string, now time.Time) (Subscription, error) {
	next, err := transition(sub, event)
	if err != nil {
		return sub, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return sub, newError(ErrMissingReason, sub.ID, string(event))
	}
	sub.Status = next
	sub.StatusReason = reason
	sub.UpdatedAt = now
	return sub, nil
}

func Reactivate(sub Subscription, now time.Time) (Subscription, error) {
	next, err := transition(sub, EventReactivate)
	if err != nil {
		return sub, err
	}
	sub.Status = next
	sub.StatusReason = ""
	sub.UpdatedAt = now
	return sub, nil
}

// Extend pushes the end date out by days. An expired subscription re-enters
// Active with its end date counted from now.
func Extend(sub Subscription, days int, now time.Time) (Subscription, error) {
	next, err := transition(sub, EventExtend)
	if err != nil {
		return sub, err
	}
	if days <= 0 {
		return sub, newError(ErrInvalidDays, sub.ID, strconv.Itoa(days))
	}
	base := now
	if sub.Status != StatusExpired && sub.EndDate != nil && sub.EndDate.After(now) {
		base = *sub.EndDate
	}
	end := base.AddDate(0, 0, days)
	sub.Status = next
	sub.EndDate = &end
	sub.UpdatedAt = now
	return sub, nil
}

// ChangeTier copies the new tier's limits, features and price. Dates are kept.
func ChangeTier(sub Subscription, tier Tier, now time.Time) (Subscription, error) {
	if sub.Status == StatusCancelled || sub.Status == StatusExpired {
		return sub, newError(ErrInvalidTransition, sub.ID, "change tier from "+string(sub.Status))
	}
	def, err := LookupTier(tier)
	if err != nil {
		return sub, err
	}
	def.apply(&sub)
	sub.UpdatedAt = now
	return sub, nil
}

func RecordPayment(sub Subscription, payment Payment, now time.Time) (Subscription, error) {
	if sub.Status == StatusCancelled {
		return sub, newError(ErrInvalidTransition, sub.ID, "payment on cancelled subscription")
	}
	if payment.Amount.IsNegative() {
		return sub, newError(ErrInvalidAmount, sub.ID, payment.Amount.String())
	}
	payment.Method = strings.TrimSpace(payment.Method)
	if payment.Method == "" {
		return sub, newError(ErrInvalidPayment, sub.ID, "")
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}
	paidAt := payment.PaidAt
	next := NextPaymentDate(paidAt, sub.Billing.Frequency)
	sub.Billing.LastPaymentDate = &paidAt
	sub.Billing.NextPaymentDate = &next
	sub.Billing.Method = payment.Method
	sub.Payments = append(append([]Payment(nil), sub.Payments...), payment)
	sub.UpdatedAt = now
	return sub, nil
}

func NextPaymentDate(from time.Time, frequency Frequency) time.Time {
	switch frequency {
	case FrequencyQuarterly:
		return from.AddDate(0, 3, 0)
	case FrequencyYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// Expire moves an active subscription past its end date to Expired.
func Expire(sub Subscription, now time.Time) (Subscription, error) {
	next, err := transition(sub, EventExpire)
	if err != nil {
		return sub, err
	}
	if sub.EndDate == nil || !now.After(*sub.EndDate) {
		return sub, newError(ErrNotDue, sub.ID, "")
	}
	sub.Status = next
	sub.UpdatedAt = now
	return sub, nil
}

func UpdateUsage(sub Subscription, users, patients int, now time.Time) (Subscription, error) {
	if users < 0 || patients < 0 {
		return sub, newError(ErrInvalidUsage, sub.ID, "")
	}
	if sub.Status == StatusCancelled {
		return sub, newError(ErrInvalidTransition, sub.ID, "usage on cancelled subscription")
	}
	sub.Usage.CurrentUsers = users
	sub.Usage.CurrentPatients = patients
	sub.UpdatedAt = now
	return sub, nil
}

func transition(sub Subscription, event Event) (Status, error) {
	next, err := Transition(sub.Status, event)
	if err != nil {
		return next, newError(ErrInvalidTransition, sub.ID, string(event)+" from "+string(sub.Status))
	}
	return next, nil
}
