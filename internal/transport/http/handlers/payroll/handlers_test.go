package payrollhandler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospitalpay/internal/domain/auth"
	"hospitalpay/internal/domain/payroll"
	"hospitalpay/internal/transport/http/api"
	"hospitalpay/internal/transport/http/middleware"
)

var handlerNow = time.Date(2024, time.February, 10, 8, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *api.Error      `json:"error"`
}

func salary(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	store := payroll.NewMemoryStore()
	store.PutEmployee(payroll.Employee{ID: "E1", Name: "Amina", Department: "nursing", Salary: salary(300000), Status: payroll.EmployeeStatusActive}, nil)
	store.PutEmployee(payroll.Employee{ID: "E2", Name: "Baraka", Department: "pharmacy", Salary: salary(1500000), Status: payroll.EmployeeStatusActive}, nil)

	svc, err := payroll.NewService(store, store, payroll.DefaultRules(), payroll.WithClock(func() time.Time { return handlerNow }))
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(svc, auth.StaticPermissions{}, nil, nil).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, role, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if role != "" {
		req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: role + "-user", RoleName: role}))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func processJanuary(t *testing.T, h http.Handler) payroll.ProcessResult {
	t.Helper()
	rec, env := do(t, h, auth.RolePayrollOfficer, http.MethodPost, "/payroll/periods", map[string]any{"month": 1, "year": 2024})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result payroll.ProcessResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	return result
}

func TestProcessPeriodEndpoint(t *testing.T) {
	h := newRouter(t)
	result := processJanuary(t, h)

	assert.Equal(t, "PP-2024-01", result.Period.ID)
	assert.Equal(t, auth.RolePayrollOfficer+"-user", result.Period.ProcessedBy)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "PAY-2024-01-001", result.Records[0].ID)
	assert.Equal(t, payroll.StatusPending, result.Records[0].Status)

	rec, env := do(t, h, auth.RolePayrollOfficer, http.MethodPost, "/payroll/periods", map[string]any{"month": 1, "year": 2024})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_period", env.Error.Code)
	assert.Equal(t, map[string]any{"id": "PP-2024-01"}, env.Error.Details)
}

func TestProcessPeriodValidation(t *testing.T) {
	h := newRouter(t)

	rec, env := do(t, h, auth.RolePayrollOfficer, http.MethodPost, "/payroll/periods", map[string]any{"month": 13, "year": 2024})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)

	rec, env = do(t, h, auth.RolePayrollOfficer, http.MethodPost, "/payroll/periods", map[string]any{"month": 3, "year": 2024})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "future_period", env.Error.Code)

	rec, env = do(t, h, auth.RolePayrollOfficer, http.MethodPost, "/payroll/periods", map[string]any{"month": 1, "year": 2024, "bonus": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_payload", env.Error.Code)
}

func TestPayrollPermissions(t *testing.T) {
	h := newRouter(t)
	processJanuary(t, h)

	rec, _ := do(t, h, "", http.MethodGet, "/payroll/periods", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := do(t, h, auth.RolePayrollOfficer, http.MethodPost, "/payroll/records/PAY-2024-01-001/approve", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", env.Error.Code)

	rec, _ = do(t, h, auth.RoleHospitalAdmin, http.MethodGet, "/payroll/periods/PP-2024-01/records", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordLifecycleEndpoints(t *testing.T) {
	h := newRouter(t)
	processJanuary(t, h)

	rec, env := do(t, h, auth.RoleFinanceManager, http.MethodPost, "/payroll/records/PAY-2024-01-001/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var record payroll.Record
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, payroll.StatusApproved, record.Status)
	assert.Equal(t, auth.RoleFinanceManager+"-user", record.ApprovedBy)

	rec, env = do(t, h, auth.RoleFinanceManager, http.MethodPost, "/payroll/records/PAY-2024-01-001/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", env.Error.Code)
	assert.Equal(t, map[string]any{"id": "PAY-2024-01-001"}, env.Error.Details)

	rec, env = do(t, h, auth.RoleFinanceManager, http.MethodPost, "/payroll/records/PAY-2024-01-001/pay", map[string]string{"method": "bank transfer", "reference": "TRX-9"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, payroll.StatusPaid, record.Status)
	assert.Equal(t, "TRX-9", record.PaymentRef)

	rec, env = do(t, h, auth.RoleFinanceManager, http.MethodGet, "/payroll/records/PAY-2024-01-404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestRejectAndResubmitEndpoints(t *testing.T) {
	h := newRouter(t)
	processJanuary(t, h)

	rec, env := do(t, h, auth.RoleFinanceManager, http.MethodPost, "/payroll/records/PAY-2024-01-002/reject", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)

	rec, _ = do(t, h, auth.RoleFinanceManager, http.MethodPost, "/payroll/records/PAY-2024-01-002/reject", map[string]string{"reason": "wrong allowance"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = do(t, h, auth.RolePayrollOfficer, http.MethodPost, "/payroll/records/PAY-2024-01-002/resubmit", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var record payroll.Record
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, "PAY-2024-01-003", record.ID)
	assert.Equal(t, "E2", record.EmployeeID)
	assert.Equal(t, payroll.StatusPending, record.Status)

	rec, env = do(t, h, auth.RolePayrollOfficer, http.MethodPost, "/payroll/records/PAY-2024-01-001/resubmit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", env.Error.Code)
}

func TestPeriodBulkEndpoints(t *testing.T) {
	h := newRouter(t)
	processJanuary(t, h)

	rec, _ := do(t, h, auth.RoleFinanceManager, http.MethodPost, "/payroll/records/PAY-2024-01-002/reject", map[string]string{"reason": "hold"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, h, auth.RoleFinanceManager, http.MethodPost, "/payroll/periods/PP-2024-01/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result payroll.BulkResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, []string{"PAY-2024-01-001"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "PAY-2024-01-002", result.Failed[0].ID)

	rec, env = do(t, h, auth.RoleFinanceManager, http.MethodPost, "/payroll/periods/PP-2024-01/pay", map[string]string{"method": "bank transfer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, []string{"PAY-2024-01-001"}, result.Succeeded)

	rec, env = do(t, h, auth.RoleFinanceManager, http.MethodPost, "/payroll/periods/PP-2099-01/approve", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)

	rec, env = do(t, h, auth.RoleFinanceManager, http.MethodPost, "/payroll/periods/january/approve", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_identifier", env.Error.Code)
}

func TestSummaryEndpoints(t *testing.T) {
	h := newRouter(t)
	processJanuary(t, h)

	rec, env := do(t, h, auth.RoleFinanceManager, http.MethodGet, "/payroll/periods/PP-2024-01/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report payroll.PeriodReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2, report.Summary.EmployeeCount)
	assert.True(t, decimal.NewFromInt(1800000).Equal(report.Summary.TotalGross))

	rec, env = do(t, h, auth.RoleFinanceManager, http.MethodGet, "/payroll/periods/PP-2024-01/departments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var departments map[string]payroll.Summary
	require.NoError(t, json.Unmarshal(env.Data, &departments))
	assert.Len(t, departments, 2)
	assert.Equal(t, 1, departments["nursing"].EmployeeCount)

	rec, env = do(t, h, auth.RoleFinanceManager, http.MethodGet, "/payroll/periods/PP-2024-01/records?department=pharmacy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	var records []payroll.Record
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "E2", records[0].EmployeeID)
}

func TestPayslipEndpoint(t *testing.T) {
	h := newRouter(t)
	processJanuary(t, h)

	rec, env := do(t, h, auth.RolePayrollOfficer, http.MethodGet, "/payroll/records/PAY-2024-01-001/payslip", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "payslip_unavailable", env.Error.Code)

	rec, _ = do(t, h, auth.RoleFinanceManager, http.MethodPost, "/payroll/records/PAY-2024-01-001/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, auth.RolePayrollOfficer, http.MethodGet, "/payroll/records/PAY-2024-01-001/payslip", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payroll.ContentTypePDF, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "PAY-2024-01-001.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}
