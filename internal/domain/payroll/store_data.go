package payroll

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const recordColumns = `
    id, employee_id, employee_name, department, period_id, month, year,
    earnings, deductions, net_salary, taxable_income, status,
    processed_date, processed_by, approved_by, approved_date,
    rejected_by, rejected_date, rejection_reason, paid_date,
    payment_method, bank_account, payment_ref, notes, warnings`

func (s *Store) ListActiveEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, department, salary, status, COALESCE(bank_account, '')
    FROM employees
    WHERE status = $1
    ORDER BY id
  `, EmployeeStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, name, department, salary, status, COALESCE(bank_account, '')
    FROM employees
    WHERE id = $1
  `, employeeID)
	employee, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, newError(ErrEmployeeNotFound, employeeID, "")
	}
	return employee, err
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var employee Employee
	var salary decimal.NullDecimal
	if err := row.Scan(&employee.ID, &employee.Name, &employee.Department, &salary, &employee.Status, &employee.BankAccount); err != nil {
		return Employee{}, err
	}
	if salary.Valid {
		employee.Salary = &salary.Decimal
	}
	return employee, nil
}

func (s *Store) SalaryStructures(ctx context.Context, employeeIDs []string) (map[string]SalaryStructure, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, basic_salary, allowances, bonuses, overtime_rate, other_deductions
    FROM salary_structures
    WHERE employee_id = ANY($1)
  `, employeeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]SalaryStructure, len(employeeIDs))
	for rows.Next() {
		var structure SalaryStructure
		var basic decimal.NullDecimal
		var allowances, bonuses, other []byte
		if err := rows.Scan(&structure.EmployeeID, &basic, &allowances, &bonuses, &structure.OvertimeRate, &other); err != nil {
			return nil, err
		}
		if basic.Valid {
			structure.BasicSalary = &basic.Decimal
		}
		for _, col := range []struct {
			raw  []byte
			into *Entries
		}{{allowances, &structure.Allowances}, {bonuses, &structure.Bonuses}, {other, &structure.OtherDeductions}} {
			if len(col.raw) == 0 {
				continue
			}
			if err := json.Unmarshal(col.raw, col.into); err != nil {
				return nil, err
			}
		}
		out[structure.EmployeeID] = structure
	}
	return out, rows.Err()
}

func (s *Store) GetPeriod(ctx context.Context, periodID string) (Period, error) {
	var period Period
	err := s.DB.QueryRow(ctx, `
    SELECT id, month, year, processed_by, processed_at
    FROM payroll_periods
    WHERE id = $1
  `, periodID).Scan(&period.ID, &period.Month, &period.Year, &period.ProcessedBy, &period.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, newError(ErrPeriodNotFound, periodID, "")
	}
	return period, err
}

func (s *Store) ListPeriods(ctx context.Context, limit, offset int) ([]Period, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, month, year, processed_by, processed_at
    FROM payroll_periods
    ORDER BY year DESC, month DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	periods := []Period{}
	for rows.Next() {
		var period Period
		if err := rows.Scan(&period.ID, &period.Month, &period.Year, &period.ProcessedBy, &period.ProcessedAt); err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, rows.Err()
}

// NextRecordID bumps the per-period counter in a single statement, so concurrent
// processors never receive the same sequence.
func (s *Store) NextRecordID(ctx context.Context, month, year int) (string, error) {
	var seq int
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_sequences (period_id, last_value)
    VALUES ($1, 1)
    ON CONFLICT (period_id) DO UPDATE SET last_value = payroll_sequences.last_value + 1
    RETURNING last_value
  `, PeriodID(month, year)).Scan(&seq)
	if err != nil {
		return "", err
	}
	return FormatRecordID(month, year, seq), nil
}

func (s *Store) CreatePeriod(ctx context.Context, period Period, records []Record) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
    INSERT INTO payroll_periods (id, month, year, processed_by, processed_at)
    VALUES ($1,$2,$3,$4,$5)
  `, period.ID, period.Month, period.Year, period.ProcessedBy, period.ProcessedAt)
	if isUniqueViolation(err) {
		return newError(ErrDuplicatePeriod, period.ID, "")
	}
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := insertRecord(ctx, tx, rec); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) AddRecord(ctx context.Context, record Record) error {
	return insertRecord(ctx, s.DB, record)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRecord(ctx context.Context, db execer, rec Record) error {
	earnings, err := json.Marshal(rec.Earnings)
	if err != nil {
		return err
	}
	deductions, err := json.Marshal(rec.Deductions)
	if err != nil {
		return err
	}
	warnings, err := json.Marshal(rec.Warnings)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
    INSERT INTO payroll_records (`+recordColumns+`)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
  `, rec.ID, rec.EmployeeID, rec.EmployeeName, rec.Department, rec.PeriodID, rec.Month, rec.Year,
		earnings, deductions, rec.NetSalary, rec.TaxableIncome, rec.Status,
		rec.ProcessedDate, rec.ProcessedBy, rec.ApprovedBy, rec.ApprovedDate,
		rec.RejectedBy, rec.RejectedDate, rec.RejectionReason, rec.PaidDate,
		rec.PaymentMethod, rec.BankAccount, rec.PaymentRef, rec.Notes, warnings)
	if isUniqueViolation(err) {
		return newError(ErrDuplicatePeriod, rec.PeriodID, "employee "+rec.EmployeeID+" already has an active record")
	}
	return err
}

func (s *Store) GetRecord(ctx context.Context, recordID string) (Record, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+recordColumns+` FROM payroll_records WHERE id = $1`, recordID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, newError(ErrRecordNotFound, recordID, "")
	}
	return rec, err
}

func (s *Store) ListRecords(ctx context.Context, periodID string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+recordColumns+` FROM payroll_records WHERE period_id = $1 ORDER BY id`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) UpdateRecordStatus(ctx context.Context, rec Record) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_records
    SET status = $2, approved_by = $3, approved_date = $4,
        rejected_by = $5, rejected_date = $6, rejection_reason = $7,
        paid_date = $8, payment_method = $9, bank_account = $10, payment_ref = $11, notes = $12
    WHERE id = $1
  `, rec.ID, rec.Status, rec.ApprovedBy, rec.ApprovedDate,
		rec.RejectedBy, rec.RejectedDate, rec.RejectionReason,
		rec.PaidDate, rec.PaymentMethod, rec.BankAccount, rec.PaymentRef, rec.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return newError(ErrRecordNotFound, rec.ID, "")
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var earnings, deductions, warnings []byte
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &rec.Department, &rec.PeriodID, &rec.Month, &rec.Year,
		&earnings, &deductions, &rec.NetSalary, &rec.TaxableIncome, &rec.Status,
		&rec.ProcessedDate, &rec.ProcessedBy, &rec.ApprovedBy, &rec.ApprovedDate,
		&rec.RejectedBy, &rec.RejectedDate, &rec.RejectionReason, &rec.PaidDate,
		&rec.PaymentMethod, &rec.BankAccount, &rec.PaymentRef, &rec.Notes, &warnings)
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(earnings, &rec.Earnings); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(deductions, &rec.Deductions); err != nil {
		return Record{}, err
	}
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &rec.Warnings); err != nil {
			return Record{}, err
		}
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
