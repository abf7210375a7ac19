package repository

import (
	"context"
	"strings"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PricingKnowledgeRepository struct {
	db *gorm.DB
}

func NewPricingKnowledgeRepository(db *gorm.DB) *PricingKnowledgeRepository {
	return &PricingKnowledgeRepository{db: db}
}

// GetByKey finds the entry for a normalised description
func (r *PricingKnowledgeRepository) GetByKey(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, key string) (*domain.PricingKnowledge, error) {
	var entry domain.PricingKnowledge
	err := Scoped(conn(r.db, tx).WithContext(ctx), companyID).
		Where("normalized_key = ?", key).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetByKeys loads the entries for a set of keys in one query
func (r *PricingKnowledgeRepository) GetByKeys(ctx context.Context, companyID uuid.UUID, keys []string) (map[string]domain.PricingKnowledge, error) {
	out := make(map[string]domain.PricingKnowledge, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	var entries []domain.PricingKnowledge
	if err := Scoped(r.db.WithContext(ctx), companyID).
		Where("normalized_key IN ?", keys).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	for _, e := range entries {
		out[e.NormalizedKey] = e
	}
	return out, nil
}

func (r *PricingKnowledgeRepository) Create(ctx context.Context, tx *gorm.DB, entry *domain.PricingKnowledge) error {
	return conn(r.db, tx).WithContext(ctx).Create(entry).Error
}

// Save writes the learned columns of an existing entry
func (r *PricingKnowledgeRepository) Save(ctx context.Context, tx *gorm.DB, entry *domain.PricingKnowledge) error {
	return Scoped(conn(r.db, tx).WithContext(ctx).Model(&domain.PricingKnowledge{}), entry.CompanyID).
		Where("id = ?", entry.ID).
		Select("description", "unit_price", "unit", "frequency", "category", "last_used_at", "updated_at").
		Updates(entry).Error
}

// Search returns entries whose key contains every word of the query, most
// frequently used first
func (r *PricingKnowledgeRepository) Search(ctx context.Context, companyID uuid.UUID, words []string, limit int) ([]domain.PricingKnowledge, error) {
	var entries []domain.PricingKnowledge
	query := Scoped(r.db.WithContext(ctx), companyID)
	for _, w := range words {
		query = query.Where("normalized_key LIKE ? ESCAPE '\\'", "%"+escapeLike(w)+"%")
	}
	err := query.Order("frequency DESC, last_used_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// List returns a page of entries
func (r *PricingKnowledgeRepository) List(ctx context.Context, companyID uuid.UUID, page, pageSize int, search, category string) ([]domain.PricingKnowledge, int64, error) {
	var entries []domain.PricingKnowledge
	var total int64

	query := Scoped(r.db.WithContext(ctx).Model(&domain.PricingKnowledge{}), companyID)
	if search != "" {
		query = query.Where("LOWER(description) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(search))+"%")
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("frequency DESC, description ASC").Offset(offset).Limit(pageSize).Find(&entries).Error
	return entries, total, err
}

func (r *PricingKnowledgeRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := Scoped(r.db.WithContext(ctx), companyID).Delete(&domain.PricingKnowledge{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
