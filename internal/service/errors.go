package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/auth"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found, including
	// resources that belong to another company
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrDuplicateDomain is returned when a company already exists for an
	// email domain
	ErrDuplicateDomain = fmt.Errorf("%w: company domain already registered", ErrConflict)

	// ErrUnauthorized is returned when the caller has no company context
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks the role for an action
	ErrForbidden = errors.New("forbidden")

	// ErrConfiguration is returned when tenant data the operation depends on
	// is missing, such as the company settings row
	ErrConfiguration = errors.New("configuration error")

	// ErrExternalService is returned when an external provider fails and the
	// operation cannot degrade
	ErrExternalService = errors.New("external service error")

	// ErrInvalidTransition is returned when a document is not in a state
	// that allows the requested action
	ErrInvalidTransition = errors.New("invalid state transition")
)

// requireCompany returns the caller's company or ErrUnauthorized
func requireCompany(ctx context.Context) (uuid.UUID, error) {
	companyID, ok := auth.CompanyIDFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	return companyID, nil
}

// actor returns who is acting for stamps and logs
func actor(ctx context.Context) (*uuid.UUID, string) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, "System"
	}
	if user.UserID == uuid.Nil {
		return nil, user.Name()
	}
	id := user.UserID
	return &id, user.Name()
}

// translate maps repository errors onto the service taxonomy
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	case errors.Is(err, repository.ErrSettingsMissing):
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// timeOrNow returns *t, or the current UTC time when t is nil
func timeOrNow(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
