package payroll

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"

	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"

	WarningMissingBank = "missing_bank_account"
	WarningNegativeNet = "negative_net"

	PaymentMethodBank   = "bank_transfer"
	PaymentMethodCash   = "cash"
	PaymentMethodMobile = "mobile_money"
)
