package payroll

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"hospitalpay/internal/domain/audit"
	cryptoutil "hospitalpay/internal/platform/crypto"
	"hospitalpay/internal/platform/metrics"
	"hospitalpay/internal/requestctx"
)

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type Service struct {
	store     StoreAPI
	directory Directory
	composer  *Composer
	crypto    *cryptoutil.Service
	audit     AuditRecorder
	metrics   *metrics.Collector
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithCrypto(crypto *cryptoutil.Service) Option {
	return func(s *Service) { s.crypto = crypto }
}

func WithAudit(recorder AuditRecorder) Option {
	return func(s *Service) { s.audit = recorder }
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) { s.metrics = collector }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store StoreAPI, directory Directory, rules Rules, opts ...Option) (*Service, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		store:     store,
		directory: directory,
		composer:  NewComposer(rules),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("payroll")
	return s, nil
}

type ProcessRequest struct {
	Month       int                   `json:"month" validate:"required,min=1,max=12"`
	Year        int                   `json:"year" validate:"required,min=2000,max=2100"`
	Attendance  map[string]Attendance `json:"attendance,omitempty"`
	ProcessedBy string                `json:"-"`
}

// ProcessResult lists the created records and the employees that could not be composed.
type ProcessResult struct {
	Period  Period        `json:"period"`
	Records []Record      `json:"records"`
	Failed  []BulkFailure `json:"failed"`
	Summary Summary       `json:"summary"`
}

// ProcessPeriod creates one pending record per active employee. Employees whose
// record cannot be composed are reported in Failed and do not block the others.
func (s *Service) ProcessPeriod(ctx context.Context, req ProcessRequest) (result ProcessResult, err error) {
	defer func() { s.metrics.Operation("payroll", "process", err) }()

	period, err := NewPeriod(req.Month, req.Year, req.ProcessedBy, s.now())
	if err != nil {
		return ProcessResult{}, err
	}
	if _, err := s.store.GetPeriod(ctx, period.ID); err == nil {
		return ProcessResult{}, newError(ErrDuplicatePeriod, period.ID, "")
	} else if !errors.Is(err, ErrPeriodNotFound) {
		return ProcessResult{}, err
	}

	employees, err := s.directory.ListActiveEmployees(ctx)
	if err != nil {
		return ProcessResult{}, err
	}
	if len(employees) == 0 {
		return ProcessResult{}, newError(ErrNoActiveEmployees, period.ID, "")
	}
	ids := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	structures, err := s.directory.SalaryStructures(ctx, ids)
	if err != nil {
		return ProcessResult{}, err
	}

	result = ProcessResult{Period: period, Records: []Record{}, Failed: []BulkFailure{}}
	for _, employee := range employees {
		var structure *SalaryStructure
		if st, ok := structures[employee.ID]; ok {
			structure = &st
		}
		var attendance *Attendance
		if att, ok := req.Attendance[employee.ID]; ok {
			attendance = &att
		}
		rec, err := s.composer.Compose(employee, structure, attendance)
		if err != nil {
			s.logger.Warn("payroll record not composed",
				zap.String("period_id", period.ID),
				zap.String("employee_id", employee.ID),
				zap.Error(err))
			result.Failed = append(result.Failed, BulkFailure{ID: employee.ID, Reason: err.Error(), Err: err})
			continue
		}
		id, err := s.store.NextRecordID(ctx, period.Month, period.Year)
		if err != nil {
			return ProcessResult{}, err
		}
		rec.Assign(id, period.Month, period.Year, req.ProcessedBy, period.ProcessedAt)
		result.Records = append(result.Records, rec)
	}
	if len(result.Records) == 0 {
		return result, newError(ErrNoActiveEmployees, period.ID, "no record could be composed")
	}

	if err := s.store.CreatePeriod(ctx, period, result.Records); err != nil {
		return ProcessResult{}, err
	}
	result.Summary = Summarize(result.Records)
	s.metrics.PayrollAmounts(result.Summary.TotalGross.InexactFloat64(), result.Summary.TotalNet.InexactFloat64())
	s.record(ctx, req.ProcessedBy, "payroll.process", audit.EntityPayrollPeriod, period.ID, nil, result.Summary)
	s.logger.Info("payroll period processed",
		zap.String("period_id", period.ID),
		zap.Int("records", len(result.Records)),
		zap.Int("failed", len(result.Failed)),
		zap.String("total_gross", result.Summary.TotalGross.String()))
	return result, nil
}

// Resubmit composes a fresh pending record for the employee of a rejected record,
// using the current salary data. The rejected record itself stays unchanged.
func (s *Service) Resubmit(ctx context.Context, recordID, actor string, attendance *Attendance) (rec Record, err error) {
	defer func() { s.metrics.Operation("payroll", "resubmit", err) }()

	rejected, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return Record{}, err
	}
	if rejected.Status != StatusRejected {
		return Record{}, newError(ErrInvalidTransition, recordID, "only rejected records can be resubmitted")
	}
	siblings, err := s.store.ListRecords(ctx, rejected.PeriodID)
	if err != nil {
		return Record{}, err
	}
	for _, sibling := range siblings {
		if sibling.EmployeeID == rejected.EmployeeID && sibling.Status != StatusRejected {
			return Record{}, newError(ErrInvalidTransition, recordID, "employee already has live record "+sibling.ID)
		}
	}
	employee, err := s.directory.GetEmployee(ctx, rejected.EmployeeID)
	if err != nil {
		return Record{}, err
	}
	structures, err := s.directory.SalaryStructures(ctx, []string{employee.ID})
	if err != nil {
		return Record{}, err
	}
	var structure *SalaryStructure
	if st, ok := structures[employee.ID]; ok {
		structure = &st
	}
	rec, err = s.composer.Compose(employee, structure, attendance)
	if err != nil {
		return Record{}, err
	}
	id, err := s.store.NextRecordID(ctx, rejected.Month, rejected.Year)
	if err != nil {
		return Record{}, err
	}
	rec.Assign(id, rejected.Month, rejected.Year, actor, s.now())
	rec.Notes = "resubmission of " + rejected.ID
	if err := s.store.AddRecord(ctx, rec); err != nil {
		return Record{}, err
	}
	s.record(ctx, actor, "payroll.resubmit", audit.EntityPayrollRecord, rec.ID, rejected, rec)
	s.logger.Info("payroll record resubmitted", zap.String("record_id", rec.ID), zap.String("rejected_id", rejected.ID))
	return rec, nil
}

func (s *Service) ApproveRecord(ctx context.Context, recordID, actor string) (Record, error) {
	return s.transitionRecord(ctx, "approve", recordID, actor, func(rec Record) (Record, error) {
		return Approve(rec, actor, s.now())
	})
}

func (s *Service) RejectRecord(ctx context.Context, recordID, actor, reason string) (Record, error) {
	return s.transitionRecord(ctx, "reject", recordID, actor, func(rec Record) (Record, error) {
		return Reject(rec, actor, reason, s.now())
	})
}

func (s *Service) MarkRecordPaid(ctx context.Context, recordID, actor string, meta PaymentMeta) (Record, error) {
	return s.transitionRecord(ctx, "pay", recordID, actor, func(rec Record) (Record, error) {
		return MarkPaid(rec, meta, s.now())
	})
}

func (s *Service) transitionRecord(ctx context.Context, op, recordID, actor string, apply func(Record) (Record, error)) (updated Record, err error) {
	defer func() { s.metrics.Operation("payroll", op, err) }()

	current, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return Record{}, err
	}
	updated, err = apply(current)
	if err != nil {
		return Record{}, err
	}
	if err := s.store.UpdateRecordStatus(ctx, updated); err != nil {
		return Record{}, err
	}
	s.record(ctx, actor, "payroll."+op, audit.EntityPayrollRecord, recordID, current.Status, updated.Status)
	s.logger.Info("payroll record transitioned",
		zap.String("record_id", recordID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("actor", actor))
	return updated, nil
}

func (s *Service) ApprovePeriod(ctx context.Context, periodID, actor string) (BulkResult, error) {
	return s.transitionPeriod(ctx, "approve_period", periodID, actor, func(records []Record) BulkResult {
		return ApprovePeriod(records, periodID, actor, s.now())
	})
}

func (s *Service) RejectPeriod(ctx context.Context, periodID, actor, reason string) (BulkResult, error) {
	return s.transitionPeriod(ctx, "reject_period", periodID, actor, func(records []Record) BulkResult {
		return RejectPeriod(records, periodID, actor, reason, s.now())
	})
}

func (s *Service) PayPeriod(ctx context.Context, periodID, actor string, meta PaymentMeta) (BulkResult, error) {
	return s.transitionPeriod(ctx, "pay_period", periodID, actor, func(records []Record) BulkResult {
		return PayPeriod(records, periodID, meta, s.now())
	})
}

// transitionPeriod applies a transition to every record of the period. Records that
// fail, either by state or while persisting, are listed in the result's Failed.
func (s *Service) transitionPeriod(ctx context.Context, op, periodID, actor string, apply func([]Record) BulkResult) (result BulkResult, err error) {
	defer func() { s.metrics.Operation("payroll", op, err) }()

	if _, _, err := ParsePeriodID(periodID); err != nil {
		return BulkResult{}, err
	}
	if _, err := s.store.GetPeriod(ctx, periodID); err != nil {
		return BulkResult{}, err
	}
	records, err := s.store.ListRecords(ctx, periodID)
	if err != nil {
		return BulkResult{}, err
	}

	applied := apply(records)
	result = BulkResult{PeriodID: periodID, Succeeded: []string{}, Failed: applied.Failed}
	for _, rec := range applied.Records {
		if err := s.store.UpdateRecordStatus(ctx, rec); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: rec.ID, Reason: err.Error(), Err: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, rec.ID)
		result.Records = append(result.Records, rec)
	}
	s.record(ctx, actor, "payroll."+op, audit.EntityPayrollPeriod, periodID, nil, result)
	s.logger.Info("payroll period transitioned",
		zap.String("period_id", periodID),
		zap.String("operation", op),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (s *Service) GetRecord(ctx context.Context, recordID string) (Record, error) {
	return s.store.GetRecord(ctx, recordID)
}

type RecordFilter struct {
	Status     Status
	Department string
}

func (s *Service) ListRecords(ctx context.Context, periodID string, filter RecordFilter) ([]Record, error) {
	if _, _, err := ParsePeriodID(periodID); err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, periodID)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Department != "" && rec.Department != filter.Department {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Service) ListPeriods(ctx context.Context, limit, offset int) ([]Period, error) {
	return s.store.ListPeriods(ctx, limit, offset)
}

type PeriodReport struct {
	PeriodID   string             `json:"periodId"`
	Summary    Summary            `json:"summary"`
	AverageNet string             `json:"averageNet"`
	ByStatus   map[Status]Summary `json:"byStatus"`
}

func (s *Service) PeriodSummary(ctx context.Context, periodID string) (PeriodReport, error) {
	records, err := s.ListRecords(ctx, periodID, RecordFilter{})
	if err != nil {
		return PeriodReport{}, err
	}
	summary := Summarize(records)
	return PeriodReport{
		PeriodID:   periodID,
		Summary:    summary,
		AverageNet: summary.AverageNet().StringFixed(2),
		ByStatus:   SummarizeByStatus(records),
	}, nil
}

func (s *Service) DepartmentSummary(ctx context.Context, periodID string) (map[string]Summary, error) {
	records, err := s.ListRecords(ctx, periodID, RecordFilter{})
	if err != nil {
		return nil, err
	}
	return SummarizeByDepartment(records), nil
}

func (s *Service) record(ctx context.Context, actor, action, entityType, entityID string, before, after any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, audit.Entry{
		ActorID:    actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(ctx),
		Before:     before,
		After:      after,
	})
	if err != nil {
		s.logger.Error("audit record failed", zap.String("action", action), zap.String("entity_id", entityID), zap.Error(err))
	}
}
