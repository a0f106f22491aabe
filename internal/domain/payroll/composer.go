package payroll

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Composer struct {
	Rules Rules
}

func NewComposer(rules Rules) *Composer {
	return &Composer{Rules: rules}
}

// Compose builds a pending payroll record for one employee. structure and
// attendance may be nil; the record's id and period are assigned by the caller.
func (c *Composer) Compose(employee Employee, structure *SalaryStructure, attendance *Attendance) (Record, error) {
	basic, err := resolveBasicSalary(employee, structure)
	if err != nil {
		return Record{}, err
	}
	if structure == nil {
		structure = &SalaryStructure{EmployeeID: employee.ID}
	}
	for _, entries := range []Entries{structure.Allowances, structure.Bonuses, structure.OtherDeductions} {
		if err := ValidateEntries(entries); err != nil {
			return Record{}, withID(err, employee.ID)
		}
	}
	if structure.OvertimeRate.IsNegative() {
		return Record{}, newError(ErrInvalidAmount, employee.ID, "overtime rate is negative")
	}

	hours := decimal.Zero
	if attendance != nil {
		if attendance.OvertimeHours.IsNegative() || attendance.DaysWorked < 0 || attendance.WorkingDays < 0 {
			return Record{}, newError(ErrInvalidAmount, employee.ID, "attendance values are negative")
		}
		hours = attendance.OvertimeHours
		if attendance.WorkingDays > 0 && attendance.DaysWorked < attendance.WorkingDays {
			basic = basic.Mul(decimal.NewFromInt(int64(attendance.DaysWorked))).
				Div(decimal.NewFromInt(int64(attendance.WorkingDays))).Round(0)
		}
	}

	rec := Record{
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		Department:   employee.Department,
		Status:       StatusPending,
		BankAccount:  MaskAccount(employee.BankAccount),
		Earnings: Earnings{
			BasicSalary: basic,
			Allowances:  Component{Items: copyEntries(structure.Allowances)},
			Bonuses:     Component{Items: copyEntries(structure.Bonuses)},
			Overtime:    Overtime{Hours: hours, Rate: structure.OvertimeRate},
		},
		Deductions: Deductions{
			Other: Component{Items: copyEntries(structure.OtherDeductions)},
		},
	}
	rec.Recompute()

	taxableAllowances := SumFlaggedAmounts(structure.Allowances, IsTaxable)
	rec.TaxableIncome = decimal.Max(decimal.Zero,
		basic.Add(taxableAllowances).Add(rec.Earnings.Bonuses.Total).Sub(c.Rules.Relief))

	paye, err := ComputeProgressiveTax(rec.TaxableIncome, c.Rules.Bands)
	if err != nil {
		return Record{}, withID(err, employee.ID)
	}
	nssf, err := ComputeCappedContribution(basic, c.Rules.PensionRate, c.Rules.PensionCeiling)
	if err != nil {
		return Record{}, withID(err, employee.ID)
	}
	nhif, err := ComputeHealthContribution(rec.Earnings.GrossSalary, c.Rules.HealthTiers)
	if err != nil {
		return Record{}, withID(err, employee.ID)
	}
	rec.Deductions.Statutory = Statutory{PAYE: paye, NSSF: nssf, NHIF: nhif}
	rec.Recompute()

	if strings.TrimSpace(employee.BankAccount) == "" {
		rec.Warnings = append(rec.Warnings, WarningMissingBank)
	}
	if rec.NetSalary.IsNegative() {
		rec.Warnings = append(rec.Warnings, WarningNegativeNet)
	}
	return rec, nil
}

// Assign stamps the period, identifier and processing audit fields onto rec.
func (r *Record) Assign(id string, month, year int, processedBy string, now time.Time) {
	r.ID = id
	r.Month = month
	r.Year = year
	r.PeriodID = PeriodID(month, year)
	r.ProcessedBy = processedBy
	r.ProcessedDate = now
}

func resolveBasicSalary(employee Employee, structure *SalaryStructure) (decimal.Decimal, error) {
	var basic *decimal.Decimal
	if structure != nil && structure.BasicSalary != nil {
		basic = structure.BasicSalary
	} else if employee.Salary != nil {
		basic = employee.Salary
	}
	if basic == nil {
		return decimal.Zero, newError(ErrMissingSalaryData, employee.ID, "")
	}
	if basic.IsNegative() {
		return decimal.Zero, newError(ErrInvalidAmount, employee.ID, "basic salary is negative")
	}
	return *basic, nil
}

func copyEntries(in Entries) Entries {
	out := make(Entries, len(in))
	for name, entry := range in {
		out[name] = entry
	}
	return out
}

func withID(err error, id string) error {
	perr, ok := err.(*Error)
	if !ok {
		return err
	}
	detail := perr.Detail
	if perr.ID != "" {
		detail = perr.ID + ": " + detail
	}
	return newError(perr.Kind, id, detail)
}
