package repository

import (
	"context"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC")
}

// SOWRepository handles scopes of work and their work breakdown & pricing sheets
type SOWRepository struct {
	db *gorm.DB
}

func NewSOWRepository(db *gorm.DB) *SOWRepository {
	return &SOWRepository{db: db}
}

// LatestVersion returns the highest SOW version of a project, 0 if none
func (r *SOWRepository) LatestVersion(ctx context.Context, tx *gorm.DB, companyID, projectID uuid.UUID) (int, error) {
	var version int
	err := Scoped(conn(r.db, tx).WithContext(ctx).Model(&domain.ScopeOfWork{}), companyID).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&version).Error
	return version, err
}

// Create inserts a SOW together with its items
func (r *SOWRepository) Create(ctx context.Context, tx *gorm.DB, sow *domain.ScopeOfWork) error {
	return conn(r.db, tx).WithContext(ctx).Create(sow).Error
}

// Current returns the highest version SOW of a project
func (r *SOWRepository) Current(ctx context.Context, tx *gorm.DB, companyID, projectID uuid.UUID) (*domain.ScopeOfWork, error) {
	var sow domain.ScopeOfWork
	err := Scoped(conn(r.db, tx).WithContext(ctx), companyID).
		Preload("Items", orderedItems).
		Where("project_id = ?", projectID).
		Order("version DESC").
		First(&sow).Error
	if err != nil {
		return nil, err
	}
	return &sow, nil
}

// GetByID loads one SOW version
func (r *SOWRepository) GetByID(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) (*domain.ScopeOfWork, error) {
	var sow domain.ScopeOfWork
	err := Scoped(conn(r.db, tx).WithContext(ctx), companyID).
		Preload("Items", orderedItems).
		Where("id = ?", id).
		First(&sow).Error
	if err != nil {
		return nil, err
	}
	return &sow, nil
}

// ListVersions returns every SOW version of a project, newest first
func (r *SOWRepository) ListVersions(ctx context.Context, companyID, projectID uuid.UUID) ([]domain.ScopeOfWork, error) {
	var sows []domain.ScopeOfWork
	err := Scoped(r.db.WithContext(ctx), companyID).
		Preload("Items", orderedItems).
		Where("project_id = ?", projectID).
		Order("version DESC").
		Find(&sows).Error
	return sows, err
}

// Finalize turns a draft into a submitted SOW with the given items. Only a
// DRAFT row is touched, so a submitted version can never be rewritten.
func (r *SOWRepository) Finalize(ctx context.Context, tx *gorm.DB, sow *domain.ScopeOfWork) error {
	db := conn(r.db, tx).WithContext(ctx)

	result := Scoped(db.Model(&domain.ScopeOfWork{}), sow.CompanyID).
		Where("id = ? AND status = ?", sow.ID, domain.SOWStatusDraft).
		Updates(map[string]interface{}{
			"status":            domain.SOWStatusSubmitted,
			"site":              sow.Site,
			"submitted_at":      sow.SubmittedAt,
			"submitted_by_id":   sow.SubmittedByID,
			"submitted_by_name": sow.SubmittedByName,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if err := db.Where("sow_id = ?", sow.ID).Delete(&domain.SOWItem{}).Error; err != nil {
		return err
	}
	if len(sow.Items) == 0 {
		return nil
	}
	for i := range sow.Items {
		sow.Items[i].SOWID = sow.ID
	}
	return db.Create(&sow.Items).Error
}

// CreateWBP inserts a pricing sheet together with its items
func (r *SOWRepository) CreateWBP(ctx context.Context, tx *gorm.DB, wbp *domain.WorkBreakdownPricing) error {
	return conn(r.db, tx).WithContext(ctx).Create(wbp).Error
}

// GetWBP loads a pricing sheet with its items
func (r *SOWRepository) GetWBP(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) (*domain.WorkBreakdownPricing, error) {
	var wbp domain.WorkBreakdownPricing
	err := Scoped(conn(r.db, tx).WithContext(ctx), companyID).
		Preload("Items", orderedItems).
		Where("id = ?", id).
		First(&wbp).Error
	if err != nil {
		return nil, err
	}
	return &wbp, nil
}

// ListWBPByProject returns a project's pricing sheets, newest first
func (r *SOWRepository) ListWBPByProject(ctx context.Context, companyID, projectID uuid.UUID) ([]domain.WorkBreakdownPricing, error) {
	var sheets []domain.WorkBreakdownPricing
	err := Scoped(r.db.WithContext(ctx), companyID).
		Preload("Items", orderedItems).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&sheets).Error
	return sheets, err
}

// ReplaceWBPItems swaps the items of a draft pricing sheet
func (r *SOWRepository) ReplaceWBPItems(ctx context.Context, tx *gorm.DB, wbpID uuid.UUID, items []domain.WBPItem) error {
	db := conn(r.db, tx).WithContext(ctx)
	if err := db.Where("wbp_id = ?", wbpID).Delete(&domain.WBPItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].WBPID = wbpID
	}
	return db.Create(&items).Error
}

// FinalizeWBP marks a draft sheet finalized and records the quote made from it
func (r *SOWRepository) FinalizeWBP(ctx context.Context, tx *gorm.DB, companyID, id, quoteID uuid.UUID) error {
	result := Scoped(conn(r.db, tx).WithContext(ctx).Model(&domain.WorkBreakdownPricing{}), companyID).
		Where("id = ? AND status = ?", id, domain.WBPStatusDraft).
		Updates(map[string]interface{}{
			"status":     domain.WBPStatusFinalized,
			"quote_id":   quoteID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
