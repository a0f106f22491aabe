package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospitalpay/internal/domain/auth"
)

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", Email: "fm@example.com", RoleName: auth.RoleFinanceManager}, time.Hour)
	require.NoError(t, err)

	var got auth.UserContext
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		require.True(t, ok)
		got = user
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, auth.RoleFinanceManager, got.RoleName)
}

func TestAuthMiddlewareIgnoresBadTokens(t *testing.T) {
	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-jwt"} {
		handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := GetUser(r.Context())
			assert.False(t, ok, "header %q", header)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}

type denyingPerms struct{ err error }

func (d denyingPerms) HasPermission(context.Context, string, string) (bool, error) {
	return false, d.err
}

func TestRequirePermission(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cases := []struct {
		name   string
		user   *auth.UserContext
		perms  PermissionStore
		status int
	}{
		{"anonymous", nil, auth.StaticPermissions{}, http.StatusUnauthorized},
		{"allowed", &auth.UserContext{UserID: "u1", RoleName: auth.RolePayrollOfficer}, auth.StaticPermissions{}, http.StatusNoContent},
		{"forbidden", &auth.UserContext{UserID: "u1", RoleName: auth.RoleHospitalAdmin}, auth.StaticPermissions{}, http.StatusForbidden},
		{"store error", &auth.UserContext{UserID: "u1"}, denyingPerms{err: errors.New("db")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/payroll/periods", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			RequirePermission(auth.PermPayrollRun, tc.perms)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "client-123", seen)
}
