package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodIDRoundTrip(t *testing.T) {
	id := PeriodID(1, 2024)
	assert.Equal(t, "PP-2024-01", id)

	month, year, err := ParsePeriodID(id)
	require.NoError(t, err)
	assert.Equal(t, 1, month)
	assert.Equal(t, 2024, year)
}

func TestParsePeriodIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "PP-2024-1", "PP-2024-13", "PP-2024-00", "PAY-2024-01", "pp-2024-01", "PP-24-01"} {
		_, _, err := ParsePeriodID(id)
		assert.ErrorIsf(t, err, ErrMalformedPeriodID, "id %q", id)
	}
}

func TestRecordIDIsMaxBased(t *testing.T) {
	existing := []string{"PAY-2024-01-001", "PAY-2024-01-003"}
	assert.Equal(t, "PAY-2024-01-004", RecordID(existing, 1, 2024))
}

func TestRecordIDStartsAtOneAndIgnoresNoise(t *testing.T) {
	assert.Equal(t, "PAY-2024-02-001", RecordID(nil, 2, 2024))

	existing := []string{"PAY-2024-01-009", "garbage", "PAY-2024-02-x", "PAY-2024-02-002"}
	assert.Equal(t, "PAY-2024-02-003", RecordID(existing, 2, 2024))
}

func TestRecordIDGrowsPastThreeDigits(t *testing.T) {
	assert.Equal(t, "PAY-2024-01-1000", RecordID([]string{"PAY-2024-01-999"}, 1, 2024))
	_, _, seq, err := ParseRecordID("PAY-2024-01-1000")
	require.NoError(t, err)
	assert.Equal(t, 1000, seq)
}

func TestIsFuturePeriod(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	assert.False(t, IsFuturePeriod(3, 2024, now))
	assert.False(t, IsFuturePeriod(2, 2024, now))
	assert.False(t, IsFuturePeriod(12, 2023, now))
	assert.True(t, IsFuturePeriod(4, 2024, now))
	assert.True(t, IsFuturePeriod(1, 2025, now))
}

func TestNewPeriod(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	period, err := NewPeriod(1, 2024, "admin", now)
	require.NoError(t, err)
	assert.Equal(t, "PP-2024-01", period.ID)
	assert.Equal(t, now, period.ProcessedAt)

	_, err = NewPeriod(5, 2024, "admin", now)
	assert.ErrorIs(t, err, ErrFuturePeriod)

	_, err = NewPeriod(13, 2024, "admin", now)
	assert.ErrorIs(t, err, ErrMalformedPeriodID)
}
