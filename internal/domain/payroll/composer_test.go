package payroll

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeFallsBackToEmployeeSalary(t *testing.T) {
	c := NewComposer(DefaultRules())
	rec, err := c.Compose(Employee{ID: "E1", Name: "Amina", Salary: decPtr("300000"), BankAccount: "0011223344"}, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "300000", rec.Earnings.GrossSalary)
	assertDecimal(t, "65000", rec.TaxableIncome)
	assertDecimal(t, "0", rec.Deductions.Statutory.PAYE)
	assertDecimal(t, "30000", rec.Deductions.Statutory.NSSF)
	assertDecimal(t, "270000", rec.NetSalary)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, "******3344", rec.BankAccount)
	assert.Empty(t, rec.Warnings)
}

func TestComposeFullBreakdown(t *testing.T) {
	c := NewComposer(DefaultRules())
	structure := &SalaryStructure{
		EmployeeID:  "E2",
		BasicSalary: decPtr("500000"),
		Allowances: Entries{
			"housing":   Flat{Amount: dec("100000")},
			"transport": Flagged{Amount: dec("50000"), Taxable: false},
		},
		Bonuses:         Entries{"quarterly": Flat{Amount: dec("20000")}},
		OtherDeductions: Entries{"loan": Flat{Amount: dec("10000")}},
	}
	rec, err := c.Compose(Employee{ID: "E2", Salary: decPtr("1"), BankAccount: "123456"}, structure, nil)
	require.NoError(t, err)

	assertDecimal(t, "500000", rec.Earnings.BasicSalary)
	assertDecimal(t, "150000", rec.Earnings.Allowances.Total)
	assertDecimal(t, "20000", rec.Earnings.Bonuses.Total)
	assertDecimal(t, "670000", rec.Earnings.GrossSalary)
	assertDecimal(t, "385000", rec.TaxableIncome)
	assertDecimal(t, "20000", rec.Deductions.Statutory.PAYE)
	assertDecimal(t, "50000", rec.Deductions.Statutory.NSSF)
	assertDecimal(t, "70000", rec.Deductions.Statutory.Total)
	assertDecimal(t, "10000", rec.Deductions.Other.Total)
	assertDecimal(t, "80000", rec.Deductions.TotalDeductions)
	assertDecimal(t, "590000", rec.NetSalary)
}

func TestComposeMissingSalaryData(t *testing.T) {
	c := NewComposer(DefaultRules())
	_, err := c.Compose(Employee{ID: "E3"}, &SalaryStructure{EmployeeID: "E3"}, nil)
	require.ErrorIs(t, err, ErrMissingSalaryData)
	assert.Equal(t, "E3", ErrorID(err))
}

func TestComposeRejectsNegativeComponents(t *testing.T) {
	c := NewComposer(DefaultRules())
	structure := &SalaryStructure{
		BasicSalary: decPtr("100000"),
		Allowances:  Entries{"housing": Flat{Amount: dec("-5")}},
	}
	_, err := c.Compose(Employee{ID: "E4"}, structure, nil)
	require.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, "E4", ErrorID(err))

	_, err = c.Compose(Employee{ID: "E5", Salary: decPtr("-1")}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestComposeAttendance(t *testing.T) {
	c := NewComposer(DefaultRules())
	structure := &SalaryStructure{BasicSalary: decPtr("300000"), OvertimeRate: dec("1500")}
	rec, err := c.Compose(Employee{ID: "E6", BankAccount: "9"}, structure, &Attendance{
		WorkingDays:   20,
		DaysWorked:    10,
		OvertimeHours: dec("10"),
	})
	require.NoError(t, err)
	assertDecimal(t, "150000", rec.Earnings.BasicSalary)
	assertDecimal(t, "15000", rec.Earnings.Overtime.Total)
	assertDecimal(t, "165000", rec.Earnings.GrossSalary)
	assertDecimal(t, "15000", rec.Deductions.Statutory.NSSF)
}

func TestComposeWarnings(t *testing.T) {
	c := NewComposer(DefaultRules())
	structure := &SalaryStructure{
		BasicSalary:     decPtr("100000"),
		OtherDeductions: Entries{"advance": Flat{Amount: dec("200000")}},
	}
	rec, err := c.Compose(Employee{ID: "E7"}, structure, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{WarningMissingBank, WarningNegativeNet}, rec.Warnings)
	assert.True(t, rec.NetSalary.IsNegative())
}

func TestComposeInvariantsHoldForRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	amount := func(max int64) decimal.Decimal { return decimal.NewFromInt(rng.Int63n(max)) }
	c := NewComposer(DefaultRules())

	for i := 0; i < 500; i++ {
		basic := amount(15000000)
		structure := &SalaryStructure{
			BasicSalary: &basic,
			Allowances: Entries{
				"housing":   Flat{Amount: amount(500000)},
				"transport": Flagged{Amount: amount(200000), Taxable: rng.Intn(2) == 0},
			},
			Bonuses:         Entries{"bonus": Flat{Amount: amount(1000000)}},
			OvertimeRate:    amount(5000),
			OtherDeductions: Entries{"loan": Flat{Amount: amount(300000)}},
		}
		working := rng.Intn(23)
		attendance := &Attendance{WorkingDays: working, DaysWorked: rng.Intn(working + 1), OvertimeHours: amount(40)}

		rec, err := c.Compose(Employee{ID: "E"}, structure, attendance)
		require.NoError(t, err)

		e := rec.Earnings
		wantGross := e.BasicSalary.Add(e.Allowances.Total).Add(e.Bonuses.Total).Add(e.Overtime.Total)
		require.Truef(t, e.GrossSalary.Equal(wantGross), "iteration %d: gross %s != %s", i, e.GrossSalary, wantGross)
		wantNet := e.GrossSalary.Sub(rec.Deductions.TotalDeductions)
		require.Truef(t, rec.NetSalary.Equal(wantNet), "iteration %d: net %s != %s", i, rec.NetSalary, wantNet)
		require.False(t, rec.TaxableIncome.IsNegative())
	}
}
