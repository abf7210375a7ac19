package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/auth"
	"github.com/Uthmaanravat/UROps-sub001/internal/config"
	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "test-jwt-secret"

type stubUsers map[string]*domain.User

func (s stubUsers) GetByAuthSubject(ctx context.Context, subject string) (*domain.User, error) {
	if u, ok := s[subject]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func createTestMiddleware(apiKey string, users auth.UserResolver) *auth.Middleware {
	cfg := &config.Config{
		Auth:   config.AuthConfig{JWTSecret: testSecret},
		ApiKey: config.ApiKeyConfig{Value: apiKey},
	}
	return auth.NewMiddleware(cfg, users, zap.NewNop())
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func capture(target **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*target, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Authenticate_WithAPIKey(t *testing.T) {
	companyID := uuid.New()
	var captured *auth.UserContext
	handler := createTestMiddleware("test-api-key", nil).Authenticate(capture(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("x-api-key", "test-api-key")
	req.Header.Set("X-Company-ID", companyID.String())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.True(t, captured.ViaAPIKey)
	assert.True(t, captured.IsAdmin())
	assert.Equal(t, companyID, captured.CompanyID)
}

func TestMiddleware_Authenticate_WithInvalidAPIKey(t *testing.T) {
	var captured *auth.UserContext
	handler := createTestMiddleware("correct-key", nil).Authenticate(capture(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("x-api-key", "wrong-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, captured)
}

func TestMiddleware_Authenticate_APIKeyDisabledWhenUnset(t *testing.T) {
	var captured *auth.UserContext
	handler := createTestMiddleware("", nil).Authenticate(capture(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("x-api-key", "anything")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_ResolvesCompanyFromUser(t *testing.T) {
	user := &domain.User{
		BaseModel:   domain.BaseModel{ID: uuid.New()},
		CompanyID:   uuid.New(),
		AuthSubject: "sub-123",
		Email:       "owner@acme.test",
		Name:        "Owner",
		Role:        domain.UserRoleAdmin,
	}
	var captured *auth.UserContext
	handler := createTestMiddleware("", stubUsers{"sub-123": user}).Authenticate(capture(&captured))

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "sub-123",
		"email": "owner@acme.test",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, user.ID, captured.UserID)
	assert.Equal(t, user.CompanyID, captured.CompanyID)
	assert.Equal(t, "Owner", captured.Name())
}

func TestMiddleware_Authenticate_UnknownSubjectHasNoCompany(t *testing.T) {
	var captured *auth.UserContext
	handler := createTestMiddleware("", stubUsers{}).Authenticate(capture(&captured))

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":           "new-user",
		"email":         "new@acme.test",
		"user_metadata": map[string]interface{}{"full_name": "New Person"},
		"exp":           time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.False(t, captured.HasCompany())
	assert.Equal(t, "New Person", captured.DisplayName)

	_, ok := auth.CompanyIDFromContext(auth.WithUserContext(context.Background(), captured))
	assert.False(t, ok)
}

func TestMiddleware_Authenticate_RejectsBadTokens(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", jwt.MapClaims{"sub": "x", "exp": time.Now().Add(time.Hour).Unix()})},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "x", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no subject", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *auth.UserContext
			handler := createTestMiddleware("", stubUsers{}).Authenticate(capture(&captured))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Nil(t, captured)
		})
	}
}

func TestMiddleware_RequireCompany(t *testing.T) {
	m := createTestMiddleware("", nil)
	handler := m.RequireCompany(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{Subject: "x"}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{Subject: "x", CompanyID: uuid.New()}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	m := createTestMiddleware("", nil)
	handler := m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{Role: domain.UserRoleMember}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserContext_Initials(t *testing.T) {
	u := &auth.UserContext{DisplayName: "Uthmaan Ravat"}
	assert.Equal(t, "UR", u.GetDisplayNameInitials())
	assert.Equal(t, "Uthmaan Ravat", u.Name())
	assert.Equal(t, "System", (&auth.UserContext{}).Name())
}
