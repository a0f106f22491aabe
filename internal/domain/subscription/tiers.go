package subscription

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TierDefinition is the fixed configuration a tier change copies onto a subscription.
type TierDefinition struct {
	Name         Tier            `json:"name"`
	DurationDays int             `json:"durationDays"`
	MaxUsers     int             `json:"maxUsers"`
	MaxPatients  int             `json:"maxPatients"`
	Features     []string        `json:"features"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	Frequency    Frequency       `json:"frequency"`
}

var premiumFeatures = []string{
	FeaturePatients, FeatureAppointments, FeatureBilling, FeaturePharmacy, FeatureLaboratory,
	FeatureReports, FeatureInventory, FeatureRadiology, FeaturePayroll,
}

var tiers = map[Tier]TierDefinition{
	TierBasic: {
		Name:         TierBasic,
		DurationDays: 30,
		MaxUsers:     5,
		MaxPatients:  500,
		Features:     []string{FeaturePatients, FeatureAppointments, FeatureBilling},
		Price:        decimal.NewFromInt(150000),
		Currency:     "UGX",
		Frequency:    FrequencyMonthly,
	},
	TierStandard: {
		Name:         TierStandard,
		DurationDays: 30,
		MaxUsers:     20,
		MaxPatients:  5000,
		Features:     []string{FeaturePatients, FeatureAppointments, FeatureBilling, FeaturePharmacy, FeatureLaboratory, FeatureReports},
		Price:        decimal.NewFromInt(400000),
		Currency:     "UGX",
		Frequency:    FrequencyMonthly,
	},
	TierPremium: {
		Name:         TierPremium,
		DurationDays: 90,
		MaxUsers:     50,
		MaxPatients:  20000,
		Features:     premiumFeatures,
		Price:        decimal.NewFromInt(2700000),
		Currency:     "UGX",
		Frequency:    FrequencyQuarterly,
	},
	TierEnterprise: {
		Name:         TierEnterprise,
		DurationDays: 365,
		MaxUsers:     Unlimited,
		MaxPatients:  Unlimited,
		Features:     []string{AllModules},
		Price:        decimal.NewFromInt(12000000),
		Currency:     "UGX",
		Frequency:    FrequencyYearly,
	},
}

func LookupTier(name Tier) (TierDefinition, error) {
	def, ok := tiers[name]
	if !ok {
		return TierDefinition{}, newError(ErrInvalidTier, string(name), "")
	}
	def.Features = append([]string(nil), def.Features...)
	return def, nil
}

// Tiers lists every tier ordered by duration, then price.
func Tiers() []TierDefinition {
	out := make([]TierDefinition, 0, len(tiers))
	for name := range tiers {
		def, _ := LookupTier(name)
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DurationDays != out[j].DurationDays {
			return out[i].DurationDays < out[j].DurationDays
		}
		return out[i].Price.LessThan(out[j].Price)
	})
	return out
}

func (d TierDefinition) apply(sub *Subscription) {
	sub.Tier = d.Name
	sub.Usage.MaxUsers = d.MaxUsers
	sub.Usage.MaxPatients = d.MaxPatients
	sub.Features = append([]string(nil), d.Features...)
	sub.Billing.Amount = d.Price
	sub.Billing.Currency = d.Currency
	sub.Billing.Frequency = d.Frequency
}
