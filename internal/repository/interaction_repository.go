package repository

import (
	"context"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InteractionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

func (r *InteractionRepository) Create(ctx context.Context, tx *gorm.DB, interaction *domain.Interaction) error {
	return conn(r.db, tx).WithContext(ctx).Create(interaction).Error
}

// ListByClient returns a client's interaction history, newest first
func (r *InteractionRepository) ListByClient(ctx context.Context, companyID, clientID uuid.UUID, limit int) ([]domain.Interaction, error) {
	var interactions []domain.Interaction
	err := Scoped(r.db.WithContext(ctx), companyID).
		Where("client_id = ?", clientID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&interactions).Error
	return interactions, err
}
