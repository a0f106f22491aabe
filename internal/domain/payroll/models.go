package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

type Employee struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Department  string           `json:"department"`
	Salary      *decimal.Decimal `json:"salary,omitempty"`
	Status      string           `json:"status"`
	BankAccount string           `json:"-"`
}

type SalaryStructure struct {
	EmployeeID      string           `json:"employeeId"`
	BasicSalary     *decimal.Decimal `json:"basicSalary,omitempty"`
	Allowances      Entries          `json:"allowances"`
	Bonuses         Entries          `json:"bonuses"`
	OvertimeRate    decimal.Decimal  `json:"overtimeRate"`
	OtherDeductions Entries          `json:"otherDeductions"`
}

// Attendance adjusts a month's pay. WorkingDays of zero means a full month.
type Attendance struct {
	WorkingDays   int             `json:"workingDays"`
	DaysWorked    int             `json:"daysWorked"`
	OvertimeHours decimal.Decimal `json:"overtimeHours"`
}

type Period struct {
	ID          string    `json:"id"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	ProcessedBy string    `json:"processedBy"`
	ProcessedAt time.Time `json:"processedAt"`
}

type Component struct {
	Items Entries         `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type Overtime struct {
	Hours decimal.Decimal `json:"hours"`
	Rate  decimal.Decimal `json:"rate"`
	Total decimal.Decimal `json:"total"`
}

type Earnings struct {
	BasicSalary decimal.Decimal `json:"basicSalary"`
	Allowances  Component       `json:"allowances"`
	Bonuses     Component       `json:"bonuses"`
	Overtime    Overtime        `json:"overtime"`
	GrossSalary decimal.Decimal `json:"grossSalary"`
}

type Statutory struct {
	PAYE  decimal.Decimal `json:"paye"`
	NSSF  decimal.Decimal `json:"nssf"`
	NHIF  decimal.Decimal `json:"nhif"`
	Total decimal.Decimal `json:"total"`
}

type Deductions struct {
	Statutory       Statutory       `json:"statutory"`
	Other           Component       `json:"other"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
}

type PaymentMeta struct {
	Method      string `json:"method"`
	BankAccount string `json:"bankAccount,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

type Record struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employeeId"`
	EmployeeName    string          `json:"employeeName"`
	Department      string          `json:"department"`
	PeriodID        string          `json:"periodId"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	Earnings        Earnings        `json:"earnings"`
	Deductions      Deductions      `json:"deductions"`
	NetSalary       decimal.Decimal `json:"netSalary"`
	TaxableIncome   decimal.Decimal `json:"taxableIncome"`
	Status          Status          `json:"status"`
	ProcessedDate   time.Time       `json:"processedDate"`
	ProcessedBy     string          `json:"processedBy,omitempty"`
	ApprovedBy      string          `json:"approvedBy,omitempty"`
	ApprovedDate    *time.Time      `json:"approvedDate,omitempty"`
	RejectedBy      string          `json:"rejectedBy,omitempty"`
	RejectedDate    *time.Time      `json:"rejectedDate,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	PaidDate        *time.Time      `json:"paidDate,omitempty"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	BankAccount     string          `json:"bankAccount,omitempty"`
	PaymentRef      string          `json:"paymentReference,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
}

// Recompute re-derives every total from its components so gross and net
// always agree with the breakdown.
func (r *Record) Recompute() {
	e := &r.Earnings
	e.Allowances.Total = SumNamedAmounts(e.Allowances.Items)
	e.Bonuses.Total = SumNamedAmounts(e.Bonuses.Items)
	e.Overtime.Total = e.Overtime.Hours.Mul(e.Overtime.Rate).Round(0)
	e.GrossSalary = e.BasicSalary.Add(e.Allowances.Total).Add(e.Bonuses.Total).Add(e.Overtime.Total)

	d := &r.Deductions
	d.Statutory.Total = d.Statutory.PAYE.Add(d.Statutory.NSSF).Add(d.Statutory.NHIF)
	d.Other.Total = SumNamedAmounts(d.Other.Items)
	d.TotalDeductions = d.Statutory.Total.Add(d.Other.Total)

	r.NetSalary = e.GrossSalary.Sub(d.TotalDeductions)
}

// MaskAccount keeps only the last four characters of an account number.
func MaskAccount(account string) string {
	runes := []rune(account)
	if len(runes) <= 4 {
		return account
	}
	masked := make([]rune, len(runes))
	for i := range runes {
		if i < len(runes)-4 {
			masked[i] = '*'
		} else {
			masked[i] = runes[i]
		}
	}
	return string(masked)
}
