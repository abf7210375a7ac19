package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/mapper"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// newSubmissionLog builds a log entry stamped with the acting user
func newSubmissionLog(ctx context.Context, companyID uuid.UUID, t domain.SubmissionType, documentID uuid.UUID, message string, meta map[string]interface{}) *domain.SubmissionLog {
	byID, byName := actor(ctx)
	entry := &domain.SubmissionLog{
		CompanyID:       companyID,
		Type:            t,
		DocumentID:      documentID,
		SubmittedByID:   byID,
		SubmittedByName: byName,
		Message:         message,
		CreatedAt:       time.Now().UTC(),
	}
	if len(meta) > 0 {
		if raw, err := json.Marshal(meta); err == nil {
			entry.Metadata = datatypes.JSON(raw)
		}
	}
	return entry
}

// appendLog writes an entry after the transaction it describes has
// committed. A failed write is logged and swallowed.
func appendLog(ctx context.Context, repo *repository.SubmissionLogRepository, logger *zap.Logger, entry *domain.SubmissionLog) {
	if entry == nil {
		return
	}
	if err := repo.Create(ctx, nil, entry); err != nil {
		logger.Warn("failed to write submission log",
			zap.String("type", string(entry.Type)),
			zap.String("document_id", entry.DocumentID.String()),
			zap.Error(err))
	}
}

// SubmissionLogService reads the append-only submission log
type SubmissionLogService struct {
	repo   *repository.SubmissionLogRepository
	logger *zap.Logger
}

func NewSubmissionLogService(repo *repository.SubmissionLogRepository, logger *zap.Logger) *SubmissionLogService {
	return &SubmissionLogService{repo: repo, logger: logger}
}

// List returns log entries of the caller's company, newest first
func (s *SubmissionLogService) List(ctx context.Context, filter *repository.SubmissionLogFilter, page, pageSize int) (*domain.PaginatedResponse, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	page, pageSize = repository.NormalizePagination(page, pageSize)

	entries, total, err := s.repo.List(ctx, companyID, filter, page, pageSize)
	if err != nil {
		return nil, translate(err, "list submission logs")
	}

	dtos := make([]domain.SubmissionLogDTO, len(entries))
	for i := range entries {
		dtos[i] = mapper.ToSubmissionLogDTO(&entries[i])
	}
	return paginated(dtos, total, page, pageSize), nil
}

// ListByDocument returns the history of one SOW, quote or invoice
func (s *SubmissionLogService) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.SubmissionLogDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByDocument(ctx, companyID, documentID)
	if err != nil {
		return nil, translate(err, "list submission logs")
	}
	dtos := make([]domain.SubmissionLogDTO, len(entries))
	for i := range entries {
		dtos[i] = mapper.ToSubmissionLogDTO(&entries[i])
	}
	return dtos, nil
}

func paginated(data interface{}, total int64, page, pageSize int) *domain.PaginatedResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return &domain.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
