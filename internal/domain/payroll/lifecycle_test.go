package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lifecycleNow = time.Date(2024, time.February, 5, 9, 0, 0, 0, time.UTC)

func pendingRecord(id, periodID string) Record {
	return Record{ID: id, PeriodID: periodID, Status: StatusPending}
}

func TestApproveThenPayReachesPaid(t *testing.T) {
	rec, err := Approve(pendingRecord("PAY-2024-01-001", "PP-2024-01"), "hr.lead", lifecycleNow)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, rec.Status)
	assert.Equal(t, "hr.lead", rec.ApprovedBy)
	require.NotNil(t, rec.ApprovedDate)

	rec, err = MarkPaid(rec, PaymentMeta{Method: PaymentMethodBank, BankAccount: "0123456789", Reference: "TRX-1"}, lifecycleNow)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, rec.Status)
	assert.Equal(t, "******6789", rec.BankAccount)
	assert.Equal(t, "TRX-1", rec.PaymentRef)

	_, err = Approve(rec, "hr.lead", lifecycleNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApproveTwiceFails(t *testing.T) {
	rec, err := Approve(pendingRecord("PAY-2024-01-001", "PP-2024-01"), "hr.lead", lifecycleNow)
	require.NoError(t, err)

	_, err = Approve(rec, "hr.lead", lifecycleNow)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "PAY-2024-01-001", ErrorID(err))
}

func TestRejectRequiresReasonAndPending(t *testing.T) {
	_, err := Reject(pendingRecord("R1", "PP-2024-01"), "hr.lead", "   ", lifecycleNow)
	assert.ErrorIs(t, err, ErrMissingReason)

	rec, err := Reject(pendingRecord("R1", "PP-2024-01"), "hr.lead", "wrong overtime", lifecycleNow)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rec.Status)
	assert.Equal(t, "wrong overtime", rec.RejectionReason)

	_, err = Reject(rec, "hr.lead", "again", lifecycleNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = Approve(rec, "hr.lead", lifecycleNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkPaidRequiresApprovedAndMethod(t *testing.T) {
	_, err := MarkPaid(pendingRecord("R1", "PP-2024-01"), PaymentMeta{Method: PaymentMethodCash}, lifecycleNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	approved, err := Approve(pendingRecord("R1", "PP-2024-01"), "hr.lead", lifecycleNow)
	require.NoError(t, err)
	_, err = MarkPaid(approved, PaymentMeta{}, lifecycleNow)
	assert.ErrorIs(t, err, ErrInvalidPaymentMeta)
}

func TestApprovePeriodReportsPartialFailure(t *testing.T) {
	alreadyApproved, err := Approve(pendingRecord("PAY-2024-01-002", "PP-2024-01"), "hr.lead", lifecycleNow)
	require.NoError(t, err)
	records := []Record{
		pendingRecord("PAY-2024-01-001", "PP-2024-01"),
		alreadyApproved,
		pendingRecord("PAY-2024-01-003", "PP-2024-01"),
		pendingRecord("PAY-2024-02-001", "PP-2024-02"),
	}

	result := ApprovePeriod(records, "PP-2024-01", "hr.lead", lifecycleNow)
	assert.Equal(t, []string{"PAY-2024-01-001", "PAY-2024-01-003"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "PAY-2024-01-002", result.Failed[0].ID)
	assert.ErrorIs(t, result.Failed[0].Err, ErrInvalidTransition)
	for _, rec := range result.Records {
		assert.Equal(t, StatusApproved, rec.Status)
	}
}

func TestRejectPeriodWithoutReasonFailsEveryRecord(t *testing.T) {
	records := []Record{pendingRecord("A", "PP-2024-01"), pendingRecord("B", "PP-2024-01")}
	result := RejectPeriod(records, "PP-2024-01", "hr.lead", "", lifecycleNow)
	assert.Empty(t, result.Succeeded)
	assert.Len(t, result.Failed, 2)
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from  Status
		event Event
		to    Status
		ok    bool
	}{
		{StatusPending, EventApprove, StatusApproved, true},
		{StatusPending, EventReject, StatusRejected, true},
		{StatusPending, EventPay, StatusPending, false},
		{StatusApproved, EventPay, StatusPaid, true},
		{StatusApproved, EventReject, StatusApproved, false},
		{StatusRejected, EventApprove, StatusRejected, false},
		{StatusPaid, EventApprove, StatusPaid, false},
	}
	for _, tc := range cases {
		got, err := Transition(tc.from, tc.event)
		assert.Equal(t, tc.to, got)
		if tc.ok {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
	}
}
