package subscription

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

type Tier string

const (
	TierBasic      Tier = "basic"
	TierStandard   Tier = "standard"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// Unlimited marks a resource without an upper bound.
const Unlimited = -1

// AllModules grants every feature.
const AllModules = "all-modules"

const (
	FeaturePatients     = "patients"
	FeatureAppointments = "appointments"
	FeatureBilling      = "billing"
	FeaturePharmacy     = "pharmacy"
	FeatureLaboratory   = "laboratory"
	FeatureReports      = "reports"
	FeatureInventory    = "inventory"
	FeatureRadiology    = "radiology"
	FeaturePayroll      = "payroll"
)

type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityExpired Severity = "expired"
)

const (
	ResourceUsers        = "users"
	ResourcePatients     = "patients"
	ResourceSubscription = "subscription"
)
