package subscription

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// LimitPolicy sets the utilisation ratios and expiry window CheckLimits warns at.
type LimitPolicy struct {
	WarnRatio    decimal.Decimal
	ErrorRatio   decimal.Decimal
	ExpiryWindow time.Duration
}

func DefaultLimitPolicy() LimitPolicy {
	return LimitPolicy{
		WarnRatio:    decimal.RequireFromString("0.8"),
		ErrorRatio:   decimal.NewFromInt(1),
		ExpiryWindow: 7 * 24 * time.Hour,
	}
}

func (p LimitPolicy) Validate() error {
	if !p.WarnRatio.IsPositive() || p.ErrorRatio.LessThan(p.WarnRatio) || p.ExpiryWindow < 0 {
		return fmt.Errorf("invalid limit policy: warn %s, error %s, window %s", p.WarnRatio, p.ErrorRatio, p.ExpiryWindow)
	}
	return nil
}

// HasFeatureAccess is false for a missing or inactive subscription.
func HasFeatureAccess(sub *Subscription, featureID string) bool {
	if sub == nil || sub.Status != StatusActive {
		return false
	}
	if slices.Contains(sub.Features, AllModules) {
		return true
	}
	return slices.Contains(sub.Features, featureID)
}

// CheckLimits reports at most one warning per bounded resource plus one for the
// subscription's end date.
func CheckLimits(sub *Subscription, now time.Time, policy LimitPolicy) []Warning {
	if sub == nil {
		return nil
	}
	var warnings []Warning
	if w, ok := usageWarning(ResourceUsers, sub.Usage.CurrentUsers, sub.Usage.MaxUsers, policy); ok {
		warnings = append(warnings, w)
	}
	if w, ok := usageWarning(ResourcePatients, sub.Usage.CurrentPatients, sub.Usage.MaxPatients, policy); ok {
		warnings = append(warnings, w)
	}
	if sub.EndDate != nil {
		end := *sub.EndDate
		switch {
		case now.After(end):
			warnings = append(warnings, Warning{
				Resource: ResourceSubscription,
				Severity: SeverityExpired,
				Message:  fmt.Sprintf("subscription expired on %s", end.Format(time.DateOnly)),
			})
		case end.Sub(now) <= policy.ExpiryWindow:
			warnings = append(warnings, Warning{
				Resource: ResourceSubscription,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("subscription expires on %s", end.Format(time.DateOnly)),
			})
		}
	}
	return warnings
}

func usageWarning(resource string, current, maximum int, policy LimitPolicy) (Warning, bool) {
	if maximum <= 0 {
		return Warning{}, false
	}
	used := decimal.NewFromInt(int64(current))
	limit := decimal.NewFromInt(int64(maximum))
	w := Warning{Resource: resource, Current: current, Max: maximum}
	switch {
	case used.GreaterThanOrEqual(limit.Mul(policy.ErrorRatio)):
		w.Severity = SeverityError
		w.Message = fmt.Sprintf("%s limit reached: %d of %d", resource, current, maximum)
	case used.GreaterThanOrEqual(limit.Mul(policy.WarnRatio)):
		w.Severity = SeverityWarning
		w.Message = fmt.Sprintf("%s usage at %s%% of limit: %d of %d",
			resource, used.Div(limit).Mul(decimal.NewFromInt(100)).Round(0), current, maximum)
	default:
		return Warning{}, false
	}
	return w, true
}
