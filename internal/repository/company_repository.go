package repository

import (
	"context"
	"strings"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyRepository handles tenants and their settings row
type CompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create inserts a company. Run it in the same tx as CreateSettings so a
// company never exists without counters.
func (r *CompanyRepository) Create(ctx context.Context, tx *gorm.DB, company *domain.Company) error {
	company.Domain = strings.ToLower(company.Domain)
	return conn(r.db, tx).WithContext(ctx).Create(company).Error
}

// CreateSettings inserts the settings row for a company
func (r *CompanyRepository) CreateSettings(ctx context.Context, tx *gorm.DB, settings *domain.CompanySettings) error {
	return conn(r.db, tx).WithContext(ctx).Create(settings).Error
}

// GetByID retrieves a company by ID
func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// GetByDomain retrieves a company by its email domain
func (r *CompanyRepository) GetByDomain(ctx context.Context, tx *gorm.DB, domainName string) (*domain.Company, error) {
	var company domain.Company
	err := conn(r.db, tx).WithContext(ctx).
		Where("domain = ?", strings.ToLower(domainName)).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// GetSettings retrieves the settings row for a company
func (r *CompanyRepository) GetSettings(ctx context.Context, companyID uuid.UUID) (*domain.CompanySettings, error) {
	var settings domain.CompanySettings
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings writes the branding and feature columns of the settings
// row. Counter columns are left alone; they belong to NumberSequenceRepository.
func (r *CompanyRepository) UpdateSettings(ctx context.Context, settings *domain.CompanySettings) error {
	result := r.db.WithContext(ctx).
		Model(&domain.CompanySettings{}).
		Where("company_id = ?", settings.CompanyID).
		Select("logo_url", "address", "vat_number", "bank_details", "email", "phone", "vat_rate", "ai_enabled", "updated_at").
		Updates(settings)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListIDs returns the IDs of all companies. Used by background jobs that
// sweep every tenant.
func (r *CompanyRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.Company{}).Order("created_at ASC").Pluck("id", &ids).Error
	return ids, err
}
