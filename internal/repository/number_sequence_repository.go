package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSettingsMissing is returned when a company has no settings row to hold
// its counters
var ErrSettingsMissing = errors.New("company settings not found")

// NumberSequenceRepository handles the per-company document counters stored
// on company_settings. QUOTE and INVOICE each have their own column.
type NumberSequenceRepository struct {
	db *gorm.DB
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// Increment atomically bumps the counter for docType and returns the new
// value. The UPDATE takes the row lock, so concurrent callers for the same
// company serialise on it and each reads back its own value. Pass a tx to
// make the allocation part of a larger unit of work; with a nil tx the
// increment runs in its own transaction.
func (r *NumberSequenceRepository) Increment(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, docType domain.DocumentType) (int, error) {
	var next int
	run := func(tx *gorm.DB) error {
		column := docType.CounterColumn()
		result := tx.Model(&domain.CompanySettings{}).
			Where("company_id = ?", companyID).
			Updates(map[string]interface{}{
				column:       gorm.Expr(column + " + 1"),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to increment %s: %w", column, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSettingsMissing
		}

		var value int
		if err := tx.Model(&domain.CompanySettings{}).
			Where("company_id = ?", companyID).
			Select(column).
			Scan(&value).Error; err != nil {
			return fmt.Errorf("failed to read %s: %w", column, err)
		}
		next = value
		return nil
	}

	var err error
	if tx != nil {
		err = run(tx.WithContext(ctx))
	} else {
		err = r.db.WithContext(ctx).Transaction(run)
	}
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Set overwrites the counter for docType. The next Increment returns
// value+1. Lowering the counter is allowed; uniqueness of issued numbers is
// still enforced by the invoices index.
func (r *NumberSequenceRepository) Set(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, docType domain.DocumentType, value int) error {
	column := docType.CounterColumn()
	result := conn(r.db, tx).WithContext(ctx).
		Model(&domain.CompanySettings{}).
		Where("company_id = ?", companyID).
		Updates(map[string]interface{}{
			column:       value,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSettingsMissing
	}
	return nil
}

// Current returns both counters without changing them
func (r *NumberSequenceRepository) Current(ctx context.Context, companyID uuid.UUID) (quote int, invoice int, err error) {
	var settings domain.CompanySettings
	err = r.db.WithContext(ctx).
		Select("last_quote_number", "last_invoice_number").
		Where("company_id = ?", companyID).
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, 0, ErrSettingsMissing
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read counters: %w", err)
	}
	return settings.LastQuoteNumber, settings.LastInvoiceNumber, nil
}
