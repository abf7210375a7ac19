package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/auth"
	"github.com/Uthmaanravat/UROps-sub001/internal/config"
	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/http/middleware"
	"github.com/Uthmaanravat/UROps-sub001/internal/metrics"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func withUser(r *http.Request, u *auth.UserContext) *http.Request {
	return r.WithContext(auth.WithUserContext(context.Background(), u))
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, zap.NewNop())
	handler := rl.LimitByIP(ok)

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_LimitsByIP(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		WhitelistPaths:    []string{"/health/*"},
	}, zap.NewNop())
	handler := rl.LimitByIP(ok)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_UsersHaveSeparateBuckets(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinuteAuth: 1}, zap.NewNop())
	handler := rl.LimitByUser(ok)

	for _, subject := range []string{"alice", "bob"} {
		req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil), &auth.UserContext{Subject: subject})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, subject)
	}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil), &auth.UserContext{Subject: "alice"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestTenantGuard(t *testing.T) {
	guard := middleware.NewTenantGuard(zap.NewNop())
	handler := guard.Check(ok)
	own := uuid.New()
	user := &auth.UserContext{Subject: "s", CompanyID: own, Role: domain.UserRoleMember}

	tests := []struct {
		name   string
		header string
		user   *auth.UserContext
		want   int
	}{
		{"no header", "", user, http.StatusOK},
		{"own company", own.String(), user, http.StatusOK},
		{"other company", uuid.NewString(), user, http.StatusForbidden},
		{"malformed", "acme", user, http.StatusBadRequest},
		{"api key chooses freely", uuid.NewString(), &auth.UserContext{ViaAPIKey: true}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil), tt.user)
			if tt.header != "" {
				req.Header.Set(middleware.CompanyHeader, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestTenantGuard_LogsActingTenant(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	handler := middleware.NewTenantGuard(zap.New(core)).Check(ok)
	user := &auth.UserContext{Subject: "s", CompanyID: uuid.New(), UserID: uuid.New(), Role: domain.UserRoleMember}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil), user)
	req.Header.Set(middleware.CompanyHeader, uuid.NewString())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, user.CompanyID.String(), fields["company_id"])
		assert.Equal(t, user.UserID.String(), fields["user_id"])
		assert.Contains(t, fields, "requested_company")
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := middleware.SecurityHeaders(&config.SecurityConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		FrameOptions:          "DENY",
		ContentTypeNosniff:    true,
	})(ok)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	_, present := w.Header()["Content-Security-Policy"]
	assert.False(t, present)
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	handler := middleware.CORS(&config.CORSConfig{
		AllowedOrigins: []string{"https://app.urops.test"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}, "production", zap.NewNop())(ok)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Origin", "https://app.urops.test")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "https://app.urops.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOriginsInProductionDeniesAll(t *testing.T) {
	handler := middleware.CORS(&config.CORSConfig{}, "production", zap.NewNop())(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.urops.test")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLogging_PropagatesRequestID(t *testing.T) {
	handler := middleware.Logging(zap.NewNop(), metrics.New())(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Header().Get(middleware.RequestIDHeader))
	assert.NoError(t, err)
}

func TestRecovery(t *testing.T) {
	handler := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}

func TestRecovery_LogsRequest(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := middleware.Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "POST", fields["method"])
		assert.Equal(t, "/api/v1/invoices", fields["path"])
		assert.Equal(t, "req-42", fields["request_id"])
	}
}
