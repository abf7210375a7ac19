package service

import (
	"context"
	"fmt"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/mapper"
	"github.com/Uthmaanravat/UROps-sub001/internal/metrics"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NumberingService hands out sequential quote and invoice numbers per
// company. The two sequences are independent. Allocation is a single atomic
// increment, so concurrent callers never receive the same number.
type NumberingService struct {
	repo    *repository.NumberSequenceRepository
	logs    *repository.SubmissionLogRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewNumberingService creates a new NumberingService
func NewNumberingService(
	repo *repository.NumberSequenceRepository,
	logs *repository.SubmissionLogRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *NumberingService {
	return &NumberingService{
		repo:    repo,
		logs:    logs,
		metrics: m,
		logger:  logger,
	}
}

// AllocateNumber returns the next number of docType for the company
func (s *NumberingService) AllocateNumber(ctx context.Context, companyID uuid.UUID, docType domain.DocumentType) (int, error) {
	return s.AllocateNumberTx(ctx, nil, companyID, docType)
}

// AllocateNumberTx allocates within tx, so the increment only commits
// together with the document that receives the number
func (s *NumberingService) AllocateNumberTx(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, docType domain.DocumentType) (int, error) {
	if companyID == uuid.Nil {
		return 0, ErrUnauthorized
	}
	if !docType.IsValid() {
		return 0, fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, docType)
	}

	n, err := s.repo.Increment(ctx, tx, companyID, docType)
	s.metrics.ObserveAllocation(string(docType), err)
	if err != nil {
		s.logger.Error("number allocation failed",
			zap.String("company_id", companyID.String()),
			zap.String("type", string(docType)),
			zap.Error(err))
		return 0, translate(err, "allocate number")
	}

	s.logger.Debug("number allocated",
		zap.String("company_id", companyID.String()),
		zap.String("number", domain.FormatDocumentNumber(docType, n)))
	return n, nil
}

// SetNumber sets the counter of docType so that the next allocation returns
// n+1. The counter may be lowered.
func (s *NumberingService) SetNumber(ctx context.Context, companyID uuid.UUID, docType domain.DocumentType, n int) error {
	return s.SetNumberTx(ctx, nil, companyID, docType, n)
}

// SetNumberTx is SetNumber inside a caller's transaction
func (s *NumberingService) SetNumberTx(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, docType domain.DocumentType, n int) error {
	if companyID == uuid.Nil {
		return ErrUnauthorized
	}
	if !docType.IsValid() {
		return fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, docType)
	}
	if n < 0 {
		return fmt.Errorf("%w: number must not be negative", ErrInvalidInput)
	}

	if err := s.repo.Set(ctx, tx, companyID, docType, n); err != nil {
		return translate(err, "set number")
	}

	s.logger.Info("number sequence reset",
		zap.String("company_id", companyID.String()),
		zap.String("type", string(docType)),
		zap.Int("value", n))
	return nil
}

// Current returns the caller's counters and the next number of each type
func (s *NumberingService) Current(ctx context.Context) (*domain.NumberingDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	quote, invoice, err := s.repo.Current(ctx, companyID)
	if err != nil {
		return nil, translate(err, "read counters")
	}
	dto := mapper.ToNumberingDTO(quote, invoice)
	return &dto, nil
}

// Reset is the settings-screen entry point for SetNumber. It is recorded in
// the submission log.
func (s *NumberingService) Reset(ctx context.Context, req *domain.SetNumberRequest) (*domain.NumberingDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.SetNumber(ctx, companyID, req.Type, req.Number); err != nil {
		return nil, err
	}

	entry := newSubmissionLog(ctx, companyID, domain.SubmissionTypeNumberReset, companyID,
		fmt.Sprintf("%s sequence set to %d", req.Type, req.Number),
		map[string]interface{}{"type": req.Type, "value": req.Number})
	if err := s.logs.Create(ctx, nil, entry); err != nil {
		s.logger.Warn("failed to record number reset", zap.Error(err))
	}

	return s.Current(ctx)
}
