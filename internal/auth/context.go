package auth

import (
	"context"
	"strings"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
)

// UserContext holds authenticated user information. CompanyID is uuid.Nil
// for an authenticated identity that has not completed signup yet.
type UserContext struct {
	UserID      uuid.UUID
	Subject     string
	DisplayName string
	Email       string
	Role        domain.UserRole
	CompanyID   uuid.UUID
	// ViaAPIKey is set for machine requests authenticated with the admin key
	ViaAPIKey bool
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// CompanyIDFromContext returns the tenant of the current request. ok is false
// when the caller is anonymous or has no company yet.
func CompanyIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	user, ok := FromContext(ctx)
	if !ok || user.CompanyID == uuid.Nil {
		return uuid.Nil, false
	}
	return user.CompanyID, true
}

// HasCompany reports whether the user belongs to a company
func (u *UserContext) HasCompany() bool {
	return u.CompanyID != uuid.Nil
}

// IsAdmin checks if user administers their company
func (u *UserContext) IsAdmin() bool {
	return u.ViaAPIKey || u.Role == domain.UserRoleAdmin
}

// Name returns the best display name available, used when stamping
// submissions with who submitted them
func (u *UserContext) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return "System"
}

// GetDisplayNameInitials returns initials from the display name (e.g., "John Doe" -> "JD")
func (u *UserContext) GetDisplayNameInitials() string {
	if u.DisplayName == "" {
		return ""
	}
	initials := ""
	for _, part := range strings.Fields(u.DisplayName) {
		initials += strings.ToUpper(string(part[0]))
	}
	return initials
}
