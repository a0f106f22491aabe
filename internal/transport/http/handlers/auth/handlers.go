package authhandler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"hospitalpay/internal/domain/auth"
	"hospitalpay/internal/transport/http/api"
	"hospitalpay/internal/transport/http/middleware"
	"hospitalpay/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Logger  *zap.Logger
}

func NewHandler(service *auth.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Logger: logger.Named("http.auth")}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}

	session, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}
	if err != nil {
		h.Logger.Error("login failed", zap.String("request_id", reqID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}
	api.Success(w, session, reqID)
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	session, err := h.Service.Refresh(r.Context(), user)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "user is no longer active", reqID)
		return
	}
	if err != nil {
		h.Logger.Error("token refresh failed", zap.String("user_id", user.UserID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}
	api.Success(w, session, reqID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}
