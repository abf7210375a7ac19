package repository

import (
	"context"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionLogFilter represents filter options for querying submission logs
type SubmissionLogFilter struct {
	Type       *domain.SubmissionType
	DocumentID *uuid.UUID
	StartTime  *time.Time
	EndTime    *time.Time
}

// SubmissionLogRepository handles submission log data access. The table is
// append-only: there is no update or delete.
type SubmissionLogRepository struct {
	db *gorm.DB
}

// NewSubmissionLogRepository creates a new submission log repository
func NewSubmissionLogRepository(db *gorm.DB) *SubmissionLogRepository {
	return &SubmissionLogRepository{db: db}
}

// Create inserts a new entry
func (r *SubmissionLogRepository) Create(ctx context.Context, tx *gorm.DB, log *domain.SubmissionLog) error {
	return conn(r.db, tx).WithContext(ctx).Create(log).Error
}

// List retrieves entries with pagination and optional filters, newest first
func (r *SubmissionLogRepository) List(ctx context.Context, companyID uuid.UUID, filter *SubmissionLogFilter, page, pageSize int) ([]domain.SubmissionLog, int64, error) {
	var logs []domain.SubmissionLog
	var total int64

	query := Scoped(r.db.WithContext(ctx).Model(&domain.SubmissionLog{}), companyID)
	query = r.applyFilters(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&logs).Error

	return logs, total, err
}

// ListByDocument returns every entry for one document, oldest first
func (r *SubmissionLogRepository) ListByDocument(ctx context.Context, companyID, documentID uuid.UUID) ([]domain.SubmissionLog, error) {
	var logs []domain.SubmissionLog
	err := Scoped(r.db.WithContext(ctx), companyID).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

func (r *SubmissionLogRepository) applyFilters(query *gorm.DB, filter *SubmissionLogFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.DocumentID != nil {
		query = query.Where("document_id = ?", *filter.DocumentID)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", *filter.EndTime)
	}
	return query
}
