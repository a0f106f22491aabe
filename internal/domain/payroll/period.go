package payroll

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	periodIDPattern = regexp.MustCompile(`^PP-(\d{4})-(\d{2})$`)
	recordIDPattern = regexp.MustCompile(`^PAY-(\d{4})-(\d{2})-(\d{3,})$`)
)

// PeriodID formats the identifier of a (month, year) payroll period: PP-2024-01.
func PeriodID(month, year int) string {
	return fmt.Sprintf("PP-%04d-%02d", year, month)
}

func ParsePeriodID(id string) (month, year int, err error) {
	m := periodIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, 0, newError(ErrMalformedPeriodID, id, "expected PP-YYYY-MM")
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return 0, 0, newError(ErrMalformedPeriodID, id, "month out of range")
	}
	return month, year, nil
}

func FormatRecordID(month, year, seq int) string {
	return fmt.Sprintf("PAY-%04d-%02d-%03d", year, month, seq)
}

func ParseRecordID(id string) (month, year, seq int, err error) {
	m := recordIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, 0, 0, newError(ErrMalformedPeriodID, id, "expected PAY-YYYY-MM-NNN")
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	seq, err = strconv.Atoi(m[3])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, 0, newError(ErrMalformedPeriodID, id, "month or sequence out of range")
	}
	return month, year, seq, nil
}

// RecordID returns the next record identifier of the period: one past the highest
// sequence among existing. Malformed ids and ids of other periods are ignored.
// Callers must pass the complete set; concurrent callers need an atomic counter instead.
func RecordID(existing []string, month, year int) string {
	highest := 0
	for _, id := range existing {
		m, y, seq, err := ParseRecordID(id)
		if err != nil || m != month || y != year {
			continue
		}
		if seq > highest {
			highest = seq
		}
	}
	return FormatRecordID(month, year, highest+1)
}

// IsFuturePeriod reports whether (month, year) lies after the calendar month of now.
func IsFuturePeriod(month, year int, now time.Time) bool {
	if year != now.Year() {
		return year > now.Year()
	}
	return month > int(now.Month())
}

// NewPeriod validates (month, year) against now and returns the period to process.
func NewPeriod(month, year int, processedBy string, now time.Time) (Period, error) {
	id := PeriodID(month, year)
	if month < 1 || month > 12 || year < 1 {
		return Period{}, newError(ErrMalformedPeriodID, id, "month must be 1-12")
	}
	if IsFuturePeriod(month, year, now) {
		return Period{}, newError(ErrFuturePeriod, id, "")
	}
	return Period{ID: id, Month: month, Year: year, ProcessedBy: processedBy, ProcessedAt: now}, nil
}
