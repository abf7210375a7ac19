package middleware

import (
	"net/http"

	"github.com/Uthmaanravat/UROps-sub001/internal/auth"
	"github.com/Uthmaanravat/UROps-sub001/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyHeader names the tenant a request is meant for
const CompanyHeader = "X-Company-ID"

// TenantGuard stops a signed-in user from addressing another company's
// data through X-Company-ID. API key callers choose the company with the
// header, so for them it is not checked here.
type TenantGuard struct {
	logger *zap.Logger
}

// NewTenantGuard creates a new tenant guard
func NewTenantGuard(logger *zap.Logger) *TenantGuard {
	return &TenantGuard{logger: logger}
}

// Check rejects a bearer-token request whose X-Company-ID names a company
// other than the user's own
func (g *TenantGuard) Check(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(CompanyHeader)
		userCtx, ok := auth.FromContext(r.Context())
		if header == "" || !ok || userCtx.ViaAPIKey {
			next.ServeHTTP(w, r)
			return
		}

		requested, err := uuid.Parse(header)
		if err != nil {
			http.Error(w, "Bad Request: invalid X-Company-ID", http.StatusBadRequest)
			return
		}
		if requested != userCtx.CompanyID {
			logger.WithTenant(g.logger, userCtx.CompanyID, userCtx.UserID).
				Warn("user attempted to access another company",
					zap.String("requested_company", requested.String()))
			http.Error(w, "Forbidden: you cannot access data for this company", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
