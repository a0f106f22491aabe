package payroll

import "context"

// StoreAPI persists periods and records. Records are created once and afterwards
// only their status and audit fields change; nothing is deleted.
type StoreAPI interface {
	GetPeriod(ctx context.Context, periodID string) (Period, error)
	ListPeriods(ctx context.Context, limit, offset int) ([]Period, error)
	// NextRecordID reserves the next identifier of the period atomically.
	NextRecordID(ctx context.Context, month, year int) (string, error)
	// CreatePeriod stores the period with its records, failing with ErrDuplicatePeriod
	// when the period already exists.
	CreatePeriod(ctx context.Context, period Period, records []Record) error
	AddRecord(ctx context.Context, record Record) error
	GetRecord(ctx context.Context, recordID string) (Record, error)
	ListRecords(ctx context.Context, periodID string) ([]Record, error)
	UpdateRecordStatus(ctx context.Context, record Record) error
}

// Directory is the read-only employee source.
type Directory interface {
	ListActiveEmployees(ctx context.Context) ([]Employee, error)
	GetEmployee(ctx context.Context, employeeID string) (Employee, error)
	SalaryStructures(ctx context.Context, employeeIDs []string) (map[string]SalaryStructure, error)
}
