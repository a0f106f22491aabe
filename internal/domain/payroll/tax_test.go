package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProgressiveTaxReferenceBands(t *testing.T) {
	cases := []struct {
		income string
		want   string
	}{
		{"0", "0"},
		{"235000", "0"},
		{"335000", "10000"},
		{"410000", "25000"},
		{"1000000", "202000"},
		{"10000000", "2902000"},
		{"11000000", "3302000"},
	}
	for _, tc := range cases {
		got, err := ComputeProgressiveTax(dec(tc.income), DefaultBands())
		require.NoError(t, err)
		assertDecimal(t, tc.want, got, tc.income)
	}
}

func TestComputeProgressiveTaxIsMonotone(t *testing.T) {
	bands := DefaultBands()
	prev := decimal.Zero
	for income := int64(0); income <= 12000000; income += 7919 {
		tax, err := ComputeProgressiveTax(decimal.NewFromInt(income), bands)
		require.NoError(t, err)
		require.Truef(t, tax.GreaterThanOrEqual(prev), "tax decreased at %d: %s < %s", income, tax, prev)
		prev = tax
	}
}

func TestComputeProgressiveTaxRejectsNegativeIncome(t *testing.T) {
	_, err := ComputeProgressiveTax(dec("-1"), DefaultBands())
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestComputeProgressiveTaxRoundsToWholeUnits(t *testing.T) {
	got, err := ComputeProgressiveTax(dec("235005"), DefaultBands())
	require.NoError(t, err)
	assertDecimal(t, "1", got)
}

func TestComputeCappedContribution(t *testing.T) {
	got, err := ComputeCappedContribution(dec("2500000"), dec("0.10"), dec("2000000"))
	require.NoError(t, err)
	assertDecimal(t, "200000", got)

	got, err = ComputeCappedContribution(dec("2000000"), dec("0.10"), dec("2000000"))
	require.NoError(t, err)
	assertDecimal(t, "200000", got)

	got, err = ComputeCappedContribution(dec("300000"), dec("0.10"), dec("2000000"))
	require.NoError(t, err)
	assertDecimal(t, "30000", got)

	_, err = ComputeCappedContribution(dec("-5"), dec("0.10"), dec("2000000"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestComputeHealthContributionPicksHighestTierReached(t *testing.T) {
	tiers := []HealthTier{
		{MinGross: dec("500000"), Amount: dec("2000")},
		{MinGross: dec("0"), Amount: dec("500")},
		{MinGross: dec("1000000"), Amount: dec("4000")},
	}
	got, err := ComputeHealthContribution(dec("750000"), tiers)
	require.NoError(t, err)
	assertDecimal(t, "2000", got)

	got, err = ComputeHealthContribution(dec("1000000"), tiers)
	require.NoError(t, err)
	assertDecimal(t, "4000", got)

	got, err = ComputeHealthContribution(dec("750000"), nil)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestValidateBands(t *testing.T) {
	require.NoError(t, ValidateBands(DefaultBands()))

	overlapping := []TaxBand{
		{Min: dec("0"), Max: dec("100"), Rate: dec("0")},
		{Min: dec("50"), Max: dec("200"), Rate: dec("0.1")},
	}
	assert.ErrorIs(t, ValidateBands(overlapping), ErrInvalidTaxTable)

	unboundedFirst := []TaxBand{
		{Min: dec("0"), Unbounded: true, Rate: dec("0.1")},
		{Min: dec("100"), Max: dec("200"), Rate: dec("0.2")},
	}
	assert.ErrorIs(t, ValidateBands(unboundedFirst), ErrInvalidTaxTable)

	badRate := []TaxBand{{Min: dec("0"), Max: dec("10"), Rate: dec("1.5")}}
	assert.ErrorIs(t, ValidateBands(badRate), ErrInvalidTaxTable)

	assert.ErrorIs(t, ValidateBands(nil), ErrInvalidTaxTable)
}
