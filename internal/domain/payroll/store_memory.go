package payroll

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps periods, records and the employee directory in process memory.
// A single mutex serialises writers, which keeps record id reservation consistent.
type MemoryStore struct {
	mu         sync.Mutex
	periods    map[string]Period
	records    map[string]Record
	reserved   map[string][]string
	employees  []Employee
	structures map[string]SalaryStructure
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		periods:    map[string]Period{},
		records:    map[string]Record{},
		reserved:   map[string][]string{},
		structures: map[string]SalaryStructure{},
	}
}

func (m *MemoryStore) PutEmployee(employee Employee, structure *SalaryStructure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees = append(m.employees, employee)
	if structure != nil {
		m.structures[employee.ID] = *structure
	}
}

func (m *MemoryStore) ListActiveEmployees(ctx context.Context) ([]Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Employee
	for _, e := range m.employees {
		if e.Status == EmployeeStatusActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.employees {
		if e.ID == employeeID {
			return e, nil
		}
	}
	return Employee{}, newError(ErrEmployeeNotFound, employeeID, "")
}

func (m *MemoryStore) SalaryStructures(ctx context.Context, employeeIDs []string) (map[string]SalaryStructure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]SalaryStructure, len(employeeIDs))
	for _, id := range employeeIDs {
		if s, ok := m.structures[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (m *MemoryStore) GetPeriod(ctx context.Context, periodID string) (Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[periodID]
	if !ok {
		return Period{}, newError(ErrPeriodNotFound, periodID, "")
	}
	return p, nil
}

func (m *MemoryStore) ListPeriods(ctx context.Context, limit, offset int) ([]Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Period, 0, len(m.periods))
	for _, p := range m.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), nil
}

func (m *MemoryStore) NextRecordID(ctx context.Context, month, year int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	periodID := PeriodID(month, year)
	existing := append([]string(nil), m.reserved[periodID]...)
	for id, rec := range m.records {
		if rec.PeriodID == periodID {
			existing = append(existing, id)
		}
	}
	id := RecordID(existing, month, year)
	m.reserved[periodID] = append(m.reserved[periodID], id)
	return id, nil
}

func (m *MemoryStore) CreatePeriod(ctx context.Context, period Period, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[period.ID]; ok {
		return newError(ErrDuplicatePeriod, period.ID, "")
	}
	m.periods[period.ID] = period
	for _, rec := range records {
		m.records[rec.ID] = rec
	}
	return nil
}

func (m *MemoryStore) AddRecord(ctx context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[record.PeriodID]; !ok {
		return newError(ErrPeriodNotFound, record.PeriodID, "")
	}
	if record.Status != StatusRejected {
		for _, rec := range m.records {
			if rec.PeriodID == record.PeriodID && rec.EmployeeID == record.EmployeeID && rec.Status != StatusRejected {
				return newError(ErrDuplicatePeriod, record.PeriodID, "employee "+record.EmployeeID+" already has an active record")
			}
		}
	}
	m.records[record.ID] = record
	return nil
}

func (m *MemoryStore) GetRecord(ctx context.Context, recordID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordID]
	if !ok {
		return Record{}, newError(ErrRecordNotFound, recordID, "")
	}
	return rec, nil
}

func (m *MemoryStore) ListRecords(ctx context.Context, periodID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Record{}
	for _, rec := range m.records {
		if rec.PeriodID == periodID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpdateRecordStatus(ctx context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.records[record.ID]
	if !ok {
		return newError(ErrRecordNotFound, record.ID, "")
	}
	current.Status = record.Status
	current.ApprovedBy = record.ApprovedBy
	current.ApprovedDate = record.ApprovedDate
	current.RejectedBy = record.RejectedBy
	current.RejectedDate = record.RejectedDate
	current.RejectionReason = record.RejectionReason
	current.PaidDate = record.PaidDate
	current.PaymentMethod = record.PaymentMethod
	current.BankAccount = record.BankAccount
	current.PaymentRef = record.PaymentRef
	current.Notes = record.Notes
	m.records[record.ID] = current
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
