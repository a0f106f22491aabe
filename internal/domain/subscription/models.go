package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Usage counts consumed resources against the tier's limits; a limit of Unlimited never binds.
type Usage struct {
	CurrentUsers    int `json:"currentUsers"`
	MaxUsers        int `json:"maxUsers"`
	CurrentPatients int `json:"currentPatients"`
	MaxPatients     int `json:"maxPatients"`
}

type Billing struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Frequency       Frequency       `json:"frequency"`
	LastPaymentDate *time.Time      `json:"lastPaymentDate,omitempty"`
	NextPaymentDate *time.Time      `json:"nextPaymentDate,omitempty"`
	Method          string          `json:"method,omitempty"`
}

type Payment struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paidAt"`
}

type Subscription struct {
	ID               string     `json:"id"`
	OrganizationID   string     `json:"organizationId"`
	OrganizationName string     `json:"organizationName"`
	Tier             Tier       `json:"tier"`
	Status           Status     `json:"status"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	RequestedBy      string     `json:"requestedBy,omitempty"`
	RequestedAt      time.Time  `json:"requestedAt"`
	ApprovedBy       string     `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
	StatusReason     string     `json:"statusReason,omitempty"`
	Usage            Usage      `json:"usage"`
	Features         []string   `json:"features"`
	Billing          Billing    `json:"billing"`
	Payments         []Payment  `json:"payments,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type Warning struct {
	Resource string   `json:"resource"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Current  int      `json:"current,omitempty"`
	Max      int      `json:"max,omitempty"`
}
