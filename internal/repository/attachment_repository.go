package repository

import (
	"context"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *AttachmentRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.Attachment, error) {
	var attachment domain.Attachment
	err := Scoped(r.db.WithContext(ctx), companyID).First(&attachment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

// SetTranscript stores the speech-to-text result of a voice note
func (r *AttachmentRepository) SetTranscript(ctx context.Context, companyID, id uuid.UUID, transcript string) error {
	return Scoped(r.db.WithContext(ctx).Model(&domain.Attachment{}), companyID).
		Where("id = ?", id).
		Update("transcript", transcript).Error
}

// ListByProject returns all attachments of a project
func (r *AttachmentRepository) ListByProject(ctx context.Context, companyID, projectID uuid.UUID) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := Scoped(r.db.WithContext(ctx), companyID).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := Scoped(r.db.WithContext(ctx), companyID).Delete(&domain.Attachment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
