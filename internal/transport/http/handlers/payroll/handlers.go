package payrollhandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"hospitalpay/internal/domain/auth"
	"hospitalpay/internal/domain/payroll"
	"hospitalpay/internal/transport/http/api"
	"hospitalpay/internal/transport/http/middleware"
	"hospitalpay/internal/transport/http/shared"
)

type Handler struct {
	Service     *payroll.Service
	Perms       middleware.PermissionStore
	Idempotency middleware.IdempotencyBackend
	Logger      *zap.Logger
}

func NewHandler(service *payroll.Service, perms middleware.PermissionStore, idem middleware.IdempotencyBackend, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Perms: perms, Idempotency: idem, Logger: logger.Named("http.payroll")}
}

type rejectPayload struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type paymentPayload struct {
	Method      string `json:"method" validate:"required,max=64"`
	BankAccount string `json:"bankAccount,omitempty" validate:"max=64"`
	Reference   string `json:"reference,omitempty" validate:"max=128"`
}

func (p paymentPayload) meta() payroll.PaymentMeta {
	return payroll.PaymentMeta{Method: p.Method, BankAccount: p.BankAccount, Reference: p.Reference}
}

type resubmitPayload struct {
	Attendance *payroll.Attendance `json:"attendance,omitempty"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermPayrollRead, h.Perms)
	run := middleware.RequirePermission(auth.PermPayrollRun, h.Perms)
	approve := middleware.RequirePermission(auth.PermPayrollApprove, h.Perms)
	pay := middleware.RequirePermission(auth.PermPayrollPay, h.Perms)
	payslip := middleware.RequirePermission(auth.PermPayslipRead, h.Perms)

	r.Route("/payroll", func(r chi.Router) {
		r.With(read).Get("/periods", h.handleListPeriods)
		r.With(run, middleware.Idempotent(h.Idempotency)).Post("/periods", h.handleProcessPeriod)
		r.With(read).Get("/periods/{periodID}/records", h.handleListRecords)
		r.With(read).Get("/periods/{periodID}/summary", h.handlePeriodSummary)
		r.With(read).Get("/periods/{periodID}/departments", h.handleDepartmentSummary)
		r.With(approve).Post("/periods/{periodID}/approve", h.handleApprovePeriod)
		r.With(approve).Post("/periods/{periodID}/reject", h.handleRejectPeriod)
		r.With(pay).Post("/periods/{periodID}/pay", h.handlePayPeriod)

		r.With(read).Get("/records/{recordID}", h.handleGetRecord)
		r.With(approve).Post("/records/{recordID}/approve", h.handleApproveRecord)
		r.With(approve).Post("/records/{recordID}/reject", h.handleRejectRecord)
		r.With(pay).Post("/records/{recordID}/pay", h.handlePayRecord)
		r.With(run).Post("/records/{recordID}/resubmit", h.handleResubmitRecord)
		r.With(payslip).Get("/records/{recordID}/payslip", h.handlePayslip)
	})
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 24, 120)
	periods, err := h.Service.ListPeriods(r.Context(), page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, periods, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleProcessPeriod(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var req payroll.ProcessRequest
	if !shared.DecodeAndValidate(w, r, &req, middleware.GetRequestID(r.Context())) {
		return
	}
	req.ProcessedBy = user.UserID

	result, err := h.Service.ProcessPeriod(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	filter := payroll.RecordFilter{
		Status:     payroll.Status(r.URL.Query().Get("status")),
		Department: r.URL.Query().Get("department"),
	}
	records, err := h.Service.ListRecords(r.Context(), chi.URLParam(r, "periodID"), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(records)))
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.PeriodSummary(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDepartmentSummary(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.DepartmentSummary(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprovePeriod(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.ApprovePeriod(r.Context(), chi.URLParam(r, "periodID"), user.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRejectPeriod(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload rejectPayload
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	result, err := h.Service.RejectPeriod(r.Context(), chi.URLParam(r, "periodID"), user.UserID, payload.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayPeriod(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload paymentPayload
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	result, err := h.Service.PayPeriod(r.Context(), chi.URLParam(r, "periodID"), user.UserID, payload.meta())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.GetRecord(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	rec, err := h.Service.ApproveRecord(r.Context(), chi.URLParam(r, "recordID"), user.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRejectRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload rejectPayload
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	rec, err := h.Service.RejectRecord(r.Context(), chi.URLParam(r, "recordID"), user.UserID, payload.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload paymentPayload
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	rec, err := h.Service.MarkRecordPaid(r.Context(), chi.URLParam(r, "recordID"), user.UserID, payload.meta())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResubmitRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload resubmitPayload
	if r.ContentLength != 0 && !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	rec, err := h.Service.Resubmit(r.Context(), chi.URLParam(r, "recordID"), user.UserID, payload.Attendance)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.Service.Payslip(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", slip.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+slip.FileName)
	w.Header().Set("Content-Length", strconv.Itoa(len(slip.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(slip.Data); err != nil {
		h.Logger.Warn("payslip write failed", zap.String("record_id", chi.URLParam(r, "recordID")), zap.Error(err))
	}
}

// fail maps payroll errors onto the API envelope. The offending record or period
// id travels in the error details.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("payroll request failed", zap.String("path", r.URL.Path), zap.String("request_id", reqID), zap.Error(err))
		api.Fail(w, status, code, "payroll operation failed", reqID)
		return
	}
	var details any
	if id := payroll.ErrorID(err); id != "" {
		details = map[string]string{"id": id}
	}
	api.FailWithDetails(w, status, code, err.Error(), details, reqID)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, payroll.ErrPeriodNotFound),
		errors.Is(err, payroll.ErrRecordNotFound),
		errors.Is(err, payroll.ErrEmployeeNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, payroll.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, payroll.ErrDuplicatePeriod):
		return http.StatusConflict, "duplicate_period"
	case errors.Is(err, payroll.ErrPayslipUnavailable):
		return http.StatusConflict, "payslip_unavailable"
	case errors.Is(err, payroll.ErrFuturePeriod):
		return http.StatusBadRequest, "future_period"
	case errors.Is(err, payroll.ErrMalformedPeriodID):
		return http.StatusBadRequest, "invalid_identifier"
	case errors.Is(err, payroll.ErrNoActiveEmployees):
		return http.StatusUnprocessableEntity, "no_active_employees"
	case errors.Is(err, payroll.ErrMissingReason),
		errors.Is(err, payroll.ErrInvalidPaymentMeta),
		errors.Is(err, payroll.ErrInvalidAmount),
		errors.Is(err, payroll.ErrMissingSalaryData):
		return http.StatusBadRequest, "validation_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
