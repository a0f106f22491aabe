package payroll

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords(t *testing.T, n int, seed int64) []Record {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	c := NewComposer(DefaultRules())
	departments := []string{"nursing", "pharmacy", "radiology"}
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		basic := decimal.NewFromInt(100000 + rng.Int63n(3000000))
		rec, err := c.Compose(Employee{ID: "E", Department: departments[i%len(departments)]}, &SalaryStructure{
			BasicSalary: &basic,
			Allowances:  Entries{"housing": Flat{Amount: decimal.NewFromInt(rng.Int63n(200000))}},
		}, nil)
		require.NoError(t, err)
		records = append(records, rec)
	}
	return records
}

func TestSummarizePartitionEqualsUnion(t *testing.T) {
	records := sampleRecords(t, 40, 7)
	whole := Summarize(records)

	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 20; trial++ {
		parts := make([][]Record, 1+rng.Intn(5))
		for _, rec := range records {
			i := rng.Intn(len(parts))
			parts[i] = append(parts[i], rec)
		}
		folded := Summarize(nil)
		for _, part := range parts {
			folded = folded.Merge(Summarize(part))
		}
		require.Truef(t, whole.Equal(folded), "trial %d: partition summary differs", trial)
	}
}

func TestSummarizeByDepartmentCoversAllRecords(t *testing.T) {
	records := sampleRecords(t, 10, 3)
	byDept := SummarizeByDepartment(records)
	require.Len(t, byDept, 3)

	merged := Summarize(nil)
	for _, s := range byDept {
		merged = merged.Merge(s)
	}
	assert.True(t, Summarize(records).Equal(merged))
	assert.Equal(t, 4, byDept["nursing"].EmployeeCount)
}

func TestSummaryWarningsAndAverage(t *testing.T) {
	empty := Summarize(nil)
	assert.Equal(t, 0, empty.EmployeeCount)
	assert.True(t, empty.AverageNet().IsZero())

	records := []Record{
		{NetSalary: dec("100"), Warnings: []string{WarningMissingBank}},
		{NetSalary: dec("201"), Warnings: []string{WarningMissingBank, WarningNegativeNet}},
	}
	s := Summarize(records)
	assert.Equal(t, 2, s.Warnings[WarningMissingBank])
	assert.Equal(t, 1, s.Warnings[WarningNegativeNet])
	assertDecimal(t, "150.5", s.AverageNet())
}
