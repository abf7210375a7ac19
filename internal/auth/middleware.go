package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/config"
	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserResolver maps an auth provider subject to a local user
type UserResolver interface {
	GetByAuthSubject(ctx context.Context, subject string) (*domain.User, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	jwtValidator *JWTValidator
	apiKey       string
	users        UserResolver
	logger       *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.Config, users UserResolver, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtValidator: NewJWTValidator(&cfg.Auth),
		apiKey:       cfg.ApiKey.Value,
		users:        users,
		logger:       logger,
	}
}

// Authenticate is the main authentication middleware. API key requests act
// on the company named by X-Company-ID; bearer tokens act on the company of
// the user they belong to.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userCtx := &UserContext{
				DisplayName: "System",
				Role:        domain.UserRoleAdmin,
				ViaAPIKey:   true,
			}
			if companyHeader := r.Header.Get("X-Company-ID"); companyHeader != "" {
				companyID, err := uuid.Parse(companyHeader)
				if err != nil {
					http.Error(w, "Bad Request: invalid X-Company-ID", http.StatusBadRequest)
					return
				}
				userCtx.CompanyID = companyID
			}

			m.logger.Debug("request authenticated",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("auth_type", "api_key"),
				zap.String("company_id", userCtx.CompanyID.String()),
				zap.Duration("auth_duration", time.Since(start)),
			)
			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Unauthorized: invalid authorization header format", http.StatusUnauthorized)
			return
		}

		userCtx, err := m.jwtValidator.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		if err := m.resolveUser(r.Context(), userCtx); err != nil {
			m.logger.Error("failed to resolve user",
				zap.String("subject", userCtx.Subject),
				zap.Error(err),
			)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("auth_type", "jwt"),
			zap.String("user_id", userCtx.UserID.String()),
			zap.String("company_id", userCtx.CompanyID.String()),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// resolveUser fills in the local user and company. An unknown subject is not
// an error: the identity simply has no company until it signs up.
func (m *Middleware) resolveUser(ctx context.Context, userCtx *UserContext) error {
	if m.users == nil {
		return nil
	}
	user, err := m.users.GetByAuthSubject(ctx, userCtx.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	userCtx.UserID = user.ID
	userCtx.CompanyID = user.CompanyID
	userCtx.Role = user.Role
	if user.Name != "" {
		userCtx.DisplayName = user.Name
	}
	if userCtx.Email == "" {
		userCtx.Email = user.Email
	}
	return nil
}

// RequireCompany rejects identities that have not completed signup
func (m *Middleware) RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CompanyIDFromContext(r.Context()); !ok {
			http.Error(w, "Forbidden: no company associated with this account", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin middleware ensures user has admin role or valid API key
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "Forbidden: no user context", http.StatusForbidden)
			return
		}
		if !userCtx.IsAdmin() {
			http.Error(w, "Forbidden: admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}
