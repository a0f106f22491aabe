package subscriptionhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hospitalpay/internal/domain/auth"
	"hospitalpay/internal/domain/subscription"
	"hospitalpay/internal/transport/http/api"
	"hospitalpay/internal/transport/http/middleware"
	"hospitalpay/internal/transport/http/shared"
)

type Handler struct {
	Service *subscription.Service
	Perms   middleware.PermissionStore
	Logger  *zap.Logger
}

func NewHandler(service *subscription.Service, perms middleware.PermissionStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Perms: perms, Logger: logger.Named("http.subscription")}
}

type reasonPayload struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type extendPayload struct {
	Days int `json:"days" validate:"required,min=1,max=3650"`
}

type tierPayload struct {
	Tier subscription.Tier `json:"tier" validate:"required,oneof=basic standard premium enterprise"`
}

type paymentPayload struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,max=64"`
	Reference string          `json:"reference,omitempty" validate:"max=128"`
}

type usagePayload struct {
	CurrentUsers    int `json:"currentUsers" validate:"min=0"`
	CurrentPatients int `json:"currentPatients" validate:"min=0"`
}

type requestResponse struct {
	Organization subscription.Organization `json:"organization"`
	Subscription subscription.Subscription `json:"subscription"`
}

type featureResponse struct {
	SubscriptionID string `json:"subscriptionId"`
	Feature        string `json:"feature"`
	Allowed        bool   `json:"allowed"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermSubscriptionRead, h.Perms)
	request := middleware.RequirePermission(auth.PermSubscriptionRequest, h.Perms)
	manage := middleware.RequirePermission(auth.PermSubscriptionManage, h.Perms)
	billing := middleware.RequirePermission(auth.PermSubscriptionBilling, h.Perms)

	r.Route("/subscriptions", func(r chi.Router) {
		r.With(request).Post("/", h.handleRequest)
		r.With(read).Get("/", h.handleList)
		r.With(read).Get("/tiers", h.handleTiers)
		r.With(read).Get("/{subscriptionID}", h.handleGet)
		r.With(manage).Post("/{subscriptionID}/approve", h.handleApprove)
		r.With(manage).Post("/{subscriptionID}/reject", h.handleReject)
		r.With(manage).Post("/{subscriptionID}/suspend", h.handleSuspend)
		r.With(manage).Post("/{subscriptionID}/reactivate", h.handleReactivate)
		r.With(manage).Post("/{subscriptionID}/extend", h.handleExtend)
		r.With(manage).Post("/{subscriptionID}/tier", h.handleChangeTier)
		r.With(manage).Post("/{subscriptionID}/usage", h.handleUpdateUsage)
		r.With(billing).Post("/{subscriptionID}/payments", h.handleRecordPayment)
		r.With(read).Get("/{subscriptionID}/features/{featureID}", h.handleFeatureAccess)
		r.With(read).Get("/{subscriptionID}/limits", h.handleLimits)
	})
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var in subscription.RequestInput
	if !shared.DecodeAndValidate(w, r, &in, middleware.GetRequestID(r.Context())) {
		return
	}
	in.RequestedBy = user.UserID

	org, sub, err := h.Service.Request(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, requestResponse{Organization: org, Subscription: sub}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	filter := subscription.ListFilter{
		Status: subscription.Status(r.URL.Query().Get("status")),
		Tier:   subscription.Tier(r.URL.Query().Get("tier")),
	}
	subs, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, subs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTiers(w http.ResponseWriter, r *http.Request) {
	api.Success(w, subscription.Tiers(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Service.Get(r.Context(), chi.URLParam(r, "subscriptionID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, sub, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(id, actor string) (subscription.Subscription, error) {
		return h.Service.Approve(r.Context(), id, actor)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var payload reasonPayload
	h.mutate(w, r, &payload, func(id, actor string) (subscription.Subscription, error) {
		return h.Service.Reject(r.Context(), id, actor, payload.Reason)
	})
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	var payload reasonPayload
	h.mutate(w, r, &payload, func(id, actor string) (subscription.Subscription, error) {
		return h.Service.Suspend(r.Context(), id, actor, payload.Reason)
	})
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(id, actor string) (subscription.Subscription, error) {
		return h.Service.Reactivate(r.Context(), id, actor)
	})
}

func (h *Handler) handleExtend(w http.ResponseWriter, r *http.Request) {
	var payload extendPayload
	h.mutate(w, r, &payload, func(id, actor string) (subscription.Subscription, error) {
		return h.Service.Extend(r.Context(), id, actor, payload.Days)
	})
}

func (h *Handler) handleChangeTier(w http.ResponseWriter, r *http.Request) {
	var payload tierPayload
	h.mutate(w, r, &payload, func(id, actor string) (subscription.Subscription, error) {
		return h.Service.ChangeTier(r.Context(), id, actor, payload.Tier)
	})
}

func (h *Handler) handleUpdateUsage(w http.ResponseWriter, r *http.Request) {
	var payload usagePayload
	h.mutate(w, r, &payload, func(id, actor string) (subscription.Subscription, error) {
		return h.Service.UpdateUsage(r.Context(), id, actor, payload.CurrentUsers, payload.CurrentPatients)
	})
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var payload paymentPayload
	h.mutate(w, r, &payload, func(id, actor string) (subscription.Subscription, error) {
		return h.Service.RecordPayment(r.Context(), id, actor, subscription.Payment{
			Amount:    payload.Amount,
			Method:    payload.Method,
			Reference: payload.Reference,
		})
	})
}

// mutate decodes payload when one is expected, then applies the change on behalf
// of the caller and writes the updated subscription.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, payload any, apply func(id, actor string) (subscription.Subscription, error)) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	if payload != nil && !shared.DecodeAndValidate(w, r, payload, reqID) {
		return
	}
	sub, err := apply(chi.URLParam(r, "subscriptionID"), user.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, sub, reqID)
}

func (h *Handler) handleFeatureAccess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "subscriptionID")
	feature := chi.URLParam(r, "featureID")
	allowed, err := h.Service.HasFeatureAccess(r.Context(), id, feature)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, featureResponse{SubscriptionID: id, Feature: feature, Allowed: allowed}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLimits(w http.ResponseWriter, r *http.Request) {
	warnings, err := h.Service.CheckLimits(r.Context(), chi.URLParam(r, "subscriptionID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, warnings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("subscription request failed", zap.String("path", r.URL.Path), zap.String("request_id", reqID), zap.Error(err))
		api.Fail(w, status, code, "subscription operation failed", reqID)
		return
	}
	var details any
	if id := subscription.ErrorID(err); id != "" {
		details = map[string]string{"id": id}
	}
	api.FailWithDetails(w, status, code, err.Error(), details, reqID)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, subscription.ErrInvalidTransition), errors.Is(err, subscription.ErrNotDue):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, subscription.ErrInvalidTier),
		errors.Is(err, subscription.ErrMissingReason),
		errors.Is(err, subscription.ErrInvalidAmount),
		errors.Is(err, subscription.ErrInvalidPayment),
		errors.Is(err, subscription.ErrInvalidDays),
		errors.Is(err, subscription.ErrInvalidUsage),
		errors.Is(err, subscription.ErrInvalidOrganization):
		return http.StatusBadRequest, "validation_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
