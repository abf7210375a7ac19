package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Uthmaanravat/UROps-sub001/internal/ai"
	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/metrics"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/Uthmaanravat/UROps-sub001/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScopeService turns site notes and voice notes into candidate SOW lines.
// Parsing never blocks the user: when the model is unavailable the input
// comes back as a single placeholder line to edit by hand.
type ScopeService struct {
	parser         ai.ScopeParser
	transcriber    ai.Transcriber
	pricing        *PricingService
	companyRepo    *repository.CompanyRepository
	projectRepo    *repository.ProjectRepository
	attachmentRepo *repository.AttachmentRepository
	store          storage.Storage
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// NewScopeService creates a new ScopeService
func NewScopeService(
	provider ai.Provider,
	pricing *PricingService,
	companyRepo *repository.CompanyRepository,
	projectRepo *repository.ProjectRepository,
	attachmentRepo *repository.AttachmentRepository,
	store storage.Storage,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ScopeService {
	return &ScopeService{
		parser:         provider,
		transcriber:    provider,
		pricing:        pricing,
		companyRepo:    companyRepo,
		projectRepo:    projectRepo,
		attachmentRepo: attachmentRepo,
		store:          store,
		metrics:        m,
		logger:         logger,
	}
}

// ParseText extracts line items from free text and fills in learned prices
func (s *ScopeService) ParseText(ctx context.Context, text string) (*domain.ParseScopeResultDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}
	return s.parse(ctx, companyID, text), nil
}

func (s *ScopeService) parse(ctx context.Context, companyID uuid.UUID, text string) *domain.ParseScopeResultDTO {
	if !s.aiEnabled(ctx, companyID) {
		return &domain.ParseScopeResultDTO{Items: []domain.ScopeItemDTO{placeholderItem(text)}, Degraded: true}
	}

	parsed, err := s.parser.ParseScopeText(ctx, text)
	if err != nil || len(parsed) == 0 {
		if err != nil && !errors.Is(err, ai.ErrDisabled) {
			s.metrics.IncExternalFailure(metrics.DependencyAI)
			s.logger.Warn("scope parsing failed, returning placeholder", zap.Error(err))
		}
		return &domain.ParseScopeResultDTO{Items: []domain.ScopeItemDTO{placeholderItem(text)}, Degraded: true}
	}

	descriptions := make([]string, len(parsed))
	for i, item := range parsed {
		descriptions[i] = item.Description
	}
	known, err := s.pricing.Lookup(ctx, companyID, descriptions)
	if err != nil {
		s.logger.Warn("pricing lookup failed", zap.Error(err))
	}

	items := make([]domain.ScopeItemDTO, len(parsed))
	for i, p := range parsed {
		item := domain.ScopeItemDTO{
			Description: p.Description,
			Area:        p.Area,
			Quantity:    p.Quantity,
			Unit:        p.Unit,
			Category:    p.Category,
		}
		if entry, ok := known[domain.PricingKey(p.Description)]; ok {
			item.UnitPrice = entry.UnitPrice.InexactFloat64()
			if item.Unit == "" {
				item.Unit = entry.Unit
			}
			if item.Category == "" {
				item.Category = entry.Category
			}
		}
		if item.Category == "" {
			item.Category = ai.KeywordCategory(p.Description)
		}
		items[i] = item
	}
	return &domain.ParseScopeResultDTO{Items: items}
}

// ParseVoiceNote stores a recorded voice note on the project, transcribes
// it and parses the transcript. When transcription fails the attachment is
// still kept and the result is empty and degraded.
func (s *ScopeService) ParseVoiceNote(ctx context.Context, projectID uuid.UUID, filename, contentType string, audio io.Reader) (*domain.ParseScopeResultDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.GetByID(ctx, nil, companyID, projectID); err != nil {
		return nil, translate(err, "project")
	}

	prefix := fmt.Sprintf("%s/projects/%s/voice", companyID, projectID)
	obj, err := s.store.Upload(ctx, prefix, filename, contentType, audio)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		s.metrics.IncExternalFailure(metrics.DependencyStorage)
		return nil, fmt.Errorf("%w: failed to store voice note: %v", ErrExternalService, err)
	}

	attachment := &domain.Attachment{
		CompanyID:   companyID,
		ProjectID:   projectID,
		Filename:    filename,
		ContentType: contentType,
		Size:        obj.Size,
		StoragePath: obj.Path,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, translate(err, "save attachment")
	}

	result := &domain.ParseScopeResultDTO{Items: []domain.ScopeItemDTO{}, AttachmentID: &attachment.ID, Degraded: true}
	if !s.aiEnabled(ctx, companyID) {
		return result, nil
	}

	transcript, err := s.transcribe(ctx, obj.Path, filename)
	if err != nil {
		if !errors.Is(err, ai.ErrDisabled) {
			s.metrics.IncExternalFailure(metrics.DependencyAI)
			s.logger.Warn("voice note transcription failed",
				zap.String("attachment_id", attachment.ID.String()),
				zap.Error(err))
		}
		return result, nil
	}
	if err := s.attachmentRepo.SetTranscript(ctx, companyID, attachment.ID, transcript); err != nil {
		s.logger.Warn("failed to save transcript", zap.Error(err))
	}

	parsed := s.parse(ctx, companyID, transcript)
	parsed.Transcript = transcript
	parsed.AttachmentID = &attachment.ID
	return parsed, nil
}

func (s *ScopeService) transcribe(ctx context.Context, path, filename string) (string, error) {
	rc, err := s.store.Open(ctx, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	text, err := s.transcriber.Transcribe(ctx, filename, rc)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty transcript")
	}
	return text, nil
}

func (s *ScopeService) aiEnabled(ctx context.Context, companyID uuid.UUID) bool {
	settings, err := s.companyRepo.GetSettings(ctx, companyID)
	if err != nil {
		// Missing settings should not hide the parser
		return true
	}
	return settings.AIEnabled
}

func placeholderItem(text string) domain.ScopeItemDTO {
	return domain.ScopeItemDTO{
		Description: text,
		Quantity:    1,
		UnitPrice:   0,
		Placeholder: true,
	}
}
