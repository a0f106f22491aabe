package subscription

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasFeatureAccess(t *testing.T) {
	assert.False(t, HasFeatureAccess(nil, FeaturePatients))

	basic := active(t, TierBasic)
	assert.True(t, HasFeatureAccess(&basic, FeatureBilling))
	assert.False(t, HasFeatureAccess(&basic, FeatureRadiology))

	enterprise := active(t, TierEnterprise)
	assert.True(t, HasFeatureAccess(&enterprise, FeatureRadiology))
	assert.True(t, HasFeatureAccess(&enterprise, "anything"))

	pending := requested(t, TierEnterprise)
	assert.False(t, HasFeatureAccess(&pending, FeaturePatients))

	suspended, err := Suspend(basic, "unpaid", lifecycleNow)
	require.NoError(t, err)
	assert.False(t, HasFeatureAccess(&suspended, FeatureBilling))
}

func TestCheckLimitsUsage(t *testing.T) {
	policy := DefaultLimitPolicy()
	now := lifecycleNow
	sub := active(t, TierStandard)

	sub.Usage.CurrentUsers = 15
	assert.Empty(t, CheckLimits(&sub, now, policy))

	sub.Usage.CurrentUsers = 16
	warnings := CheckLimits(&sub, now, policy)
	require.Len(t, warnings, 1)
	assert.Equal(t, ResourceUsers, warnings[0].Resource)
	assert.Equal(t, SeverityWarning, warnings[0].Severity)
	assert.Equal(t, 16, warnings[0].Current)
	assert.Equal(t, 20, warnings[0].Max)
	assert.Contains(t, warnings[0].Message, "80%")

	sub.Usage.CurrentUsers = 20
	sub.Usage.CurrentPatients = 5001
	warnings = CheckLimits(&sub, now, policy)
	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.Equal(t, SeverityError, w.Severity)
	}
}

func TestCheckLimitsUnlimited(t *testing.T) {
	sub := active(t, TierEnterprise)
	sub.Usage.CurrentUsers = 100000
	sub.Usage.CurrentPatients = 1000000
	assert.Empty(t, CheckLimits(&sub, lifecycleNow, DefaultLimitPolicy()))
}

func TestCheckLimitsExpiry(t *testing.T) {
	policy := DefaultLimitPolicy()
	sub := active(t, TierBasic)
	end := *sub.EndDate

	warnings := CheckLimits(&sub, end.Add(-3*24*time.Hour), policy)
	require.Len(t, warnings, 1)
	assert.Equal(t, ResourceSubscription, warnings[0].Resource)
	assert.Equal(t, SeverityWarning, warnings[0].Severity)

	warnings = CheckLimits(&sub, end.Add(time.Hour), policy)
	require.Len(t, warnings, 1)
	assert.Equal(t, SeverityExpired, warnings[0].Severity)

	assert.Empty(t, CheckLimits(&sub, end.Add(-8*24*time.Hour), policy))
}

func TestLimitPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultLimitPolicy().Validate())

	bad := DefaultLimitPolicy()
	bad.ErrorRatio = decimal.RequireFromString("0.5")
	assert.Error(t, bad.Validate())

	bad = DefaultLimitPolicy()
	bad.WarnRatio = decimal.Zero
	assert.Error(t, bad.Validate())
}
