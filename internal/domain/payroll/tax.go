package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TaxBand is a half-open income range [Min, Max) taxed at Rate.
type TaxBand struct {
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	Unbounded bool            `json:"unbounded,omitempty"`
	Rate      decimal.Decimal `json:"rate"`
}

// HealthTier applies a flat contribution once gross pay reaches MinGross.
type HealthTier struct {
	MinGross decimal.Decimal `json:"minGross"`
	Amount   decimal.Decimal `json:"amount"`
}

// Rules holds the statutory parameters a payroll run is computed with.
type Rules struct {
	Bands          []TaxBand       `json:"bands"`
	Relief         decimal.Decimal `json:"relief"`
	PensionRate    decimal.Decimal `json:"pensionRate"`
	PensionCeiling decimal.Decimal `json:"pensionCeiling"`
	HealthTiers    []HealthTier    `json:"healthTiers,omitempty"`
}

func DefaultBands() []TaxBand {
	return []TaxBand{
		{Min: decimal.Zero, Max: decimal.NewFromInt(235000), Rate: decimal.Zero},
		{Min: decimal.NewFromInt(235000), Max: decimal.NewFromInt(335000), Rate: decimal.RequireFromString("0.10")},
		{Min: decimal.NewFromInt(335000), Max: decimal.NewFromInt(410000), Rate: decimal.RequireFromString("0.20")},
		{Min: decimal.NewFromInt(410000), Max: decimal.NewFromInt(10000000), Rate: decimal.RequireFromString("0.30")},
		{Min: decimal.NewFromInt(10000000), Unbounded: true, Rate: decimal.RequireFromString("0.40")},
	}
}

func DefaultRules() Rules {
	return Rules{
		Bands:          DefaultBands(),
		Relief:         decimal.NewFromInt(235000),
		PensionRate:    decimal.RequireFromString("0.10"),
		PensionCeiling: decimal.NewFromInt(2000000),
	}
}

func (r Rules) Validate() error {
	if err := ValidateBands(r.Bands); err != nil {
		return err
	}
	if r.Relief.IsNegative() || r.PensionCeiling.IsNegative() {
		return ErrInvalidAmount
	}
	if !validRate(r.PensionRate) {
		return newError(ErrInvalidTaxTable, "", "pension rate must be between 0 and 1")
	}
	for _, tier := range r.HealthTiers {
		if tier.MinGross.IsNegative() || tier.Amount.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}

// ValidateBands requires bands sorted by Min, non-overlapping, with only the last one unbounded.
func ValidateBands(bands []TaxBand) error {
	if len(bands) == 0 {
		return newError(ErrInvalidTaxTable, "", "no bands configured")
	}
	for i, band := range bands {
		if band.Min.IsNegative() || !validRate(band.Rate) {
			return newError(ErrInvalidTaxTable, "", "band has a negative bound or rate outside [0,1]")
		}
		if band.Unbounded {
			if i != len(bands)-1 {
				return newError(ErrInvalidTaxTable, "", "only the last band may be unbounded")
			}
		} else if !band.Max.GreaterThan(band.Min) {
			return newError(ErrInvalidTaxTable, "", "band max must exceed min")
		}
		if i > 0 && band.Min.LessThan(bands[i-1].Max) {
			return newError(ErrInvalidTaxTable, "", "bands overlap")
		}
	}
	return nil
}

func validRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(1))
}

// ComputeProgressiveTax spreads taxableIncome across bands and sums each band's share,
// rounded to whole currency units.
func ComputeProgressiveTax(taxableIncome decimal.Decimal, bands []TaxBand) (decimal.Decimal, error) {
	if taxableIncome.IsNegative() {
		return decimal.Zero, newError(ErrInvalidAmount, "", "taxable income "+taxableIncome.String())
	}
	tax := decimal.Zero
	for _, band := range bands {
		upper := taxableIncome
		if !band.Unbounded {
			upper = decimal.Min(taxableIncome, band.Max)
		}
		portion := upper.Sub(band.Min)
		if portion.IsPositive() {
			tax = tax.Add(portion.Mul(band.Rate))
		}
	}
	return tax.Round(0), nil
}

// ComputeCappedContribution applies rate to basicSalary capped at ceiling.
func ComputeCappedContribution(basicSalary, rate, ceiling decimal.Decimal) (decimal.Decimal, error) {
	if basicSalary.IsNegative() || rate.IsNegative() || ceiling.IsNegative() {
		return decimal.Zero, newError(ErrInvalidAmount, "", "contribution inputs must be non-negative")
	}
	return decimal.Min(basicSalary, ceiling).Mul(rate).Round(0), nil
}

// ComputeHealthContribution returns the amount of the highest tier gross reaches.
func ComputeHealthContribution(gross decimal.Decimal, tiers []HealthTier) (decimal.Decimal, error) {
	if gross.IsNegative() {
		return decimal.Zero, newError(ErrInvalidAmount, "", "gross "+gross.String())
	}
	sorted := make([]HealthTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinGross.LessThan(sorted[j].MinGross) })

	amount := decimal.Zero
	for _, tier := range sorted {
		if gross.GreaterThanOrEqual(tier.MinGross) {
			amount = tier.Amount
		}
	}
	return amount, nil
}
