package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/ai"
	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/mapper"
	"github.com/Uthmaanravat/UROps-sub001/internal/metrics"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSuggestLimit = 10

// PricingService maintains the per-company pricing knowledge base. Prices
// are learned from issued quotes and fed back into new SOWs and parsed scope.
type PricingService struct {
	db          *gorm.DB
	repo        *repository.PricingKnowledgeRepository
	invoiceRepo *repository.InvoiceRepository
	companyRepo *repository.CompanyRepository
	categorizer ai.Categorizer
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewPricingService creates a new PricingService. categorizer may be nil,
// in which case categories come from keywords.
func NewPricingService(
	db *gorm.DB,
	repo *repository.PricingKnowledgeRepository,
	invoiceRepo *repository.InvoiceRepository,
	companyRepo *repository.CompanyRepository,
	categorizer ai.Categorizer,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PricingService {
	return &PricingService{
		db:          db,
		repo:        repo,
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		categorizer: categorizer,
		metrics:     m,
		logger:      logger,
	}
}

// Lookup returns known prices for the given descriptions keyed by
// domain.PricingKey. Descriptions without an entry are absent from the map.
func (s *PricingService) Lookup(ctx context.Context, companyID uuid.UUID, descriptions []string) (map[string]domain.PricingKnowledge, error) {
	keys := make([]string, 0, len(descriptions))
	seen := make(map[string]bool, len(descriptions))
	for _, d := range descriptions {
		k := domain.PricingKey(d)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return s.repo.GetByKeys(ctx, companyID, keys)
}

// LearnFromQuote folds the lines of an issued quote into the knowledge base
// and stamps the quote as learned. Lines without a price are skipped.
func (s *PricingService) LearnFromQuote(ctx context.Context, quote *domain.Invoice) error {
	if quote.Type != domain.DocumentTypeQuote {
		return fmt.Errorf("%w: only quotes are learned from", ErrInvalidInput)
	}

	existing, err := s.Lookup(ctx, quote.CompanyID, itemDescriptions(quote.Items))
	if err != nil {
		return fmt.Errorf("failed to load pricing knowledge: %w", err)
	}

	// Categorise new keys before opening the transaction; the model call
	// can be slow.
	useAI := s.aiEnabled(ctx, quote.CompanyID)
	categories := make(map[string]string)
	for _, item := range quote.Items {
		key := domain.PricingKey(item.Description)
		if key == "" || item.UnitPrice.IsZero() {
			continue
		}
		if _, known := existing[key]; known {
			continue
		}
		if _, done := categories[key]; done {
			continue
		}
		categories[key] = s.categorize(ctx, item.Description, useAI)
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range quote.Items {
			key := domain.PricingKey(item.Description)
			if key == "" || item.UnitPrice.IsZero() {
				continue
			}
			if err := s.learnItem(ctx, tx, quote.CompanyID, key, item, categories[key], now); err != nil {
				return err
			}
		}
		return s.invoiceRepo.MarkLearned(ctx, tx, quote.CompanyID, quote.ID, now)
	})
	if err != nil {
		return fmt.Errorf("failed to learn from quote %s: %w", quote.ID, err)
	}

	s.logger.Debug("learned prices from quote",
		zap.String("quote_id", quote.ID.String()),
		zap.Int("items", len(quote.Items)))
	return nil
}

func (s *PricingService) learnItem(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, key string, item domain.InvoiceItem, category string, now time.Time) error {
	entry, err := s.repo.GetByKey(ctx, tx, companyID, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if category == "" {
			category = ai.KeywordCategory(item.Description)
		}
		return s.repo.Create(ctx, tx, &domain.PricingKnowledge{
			CompanyID:     companyID,
			NormalizedKey: key,
			Description:   item.Description,
			UnitPrice:     item.UnitPrice.Round(2),
			Unit:          item.Unit,
			Frequency:     1,
			Category:      category,
			LastUsedAt:    now,
		})
	}
	if err != nil {
		return err
	}

	entry.UnitPrice = domain.WeightedPrice(entry.UnitPrice, entry.Frequency, item.UnitPrice)
	entry.Frequency++
	entry.Description = item.Description
	if item.Unit != "" {
		entry.Unit = item.Unit
	}
	entry.LastUsedAt = now
	entry.UpdatedAt = now
	return s.repo.Save(ctx, tx, entry)
}

func (s *PricingService) categorize(ctx context.Context, description string, useAI bool) string {
	if !useAI || s.categorizer == nil {
		return ai.KeywordCategory(description)
	}
	category, err := s.categorizer.Categorize(ctx, description)
	if err != nil {
		if !errors.Is(err, ai.ErrDisabled) {
			s.metrics.IncExternalFailure(metrics.DependencyAI)
			s.logger.Warn("categorisation failed, using keywords", zap.Error(err))
		}
		return ai.KeywordCategory(description)
	}
	if category == "" {
		return ai.KeywordCategory(description)
	}
	return category
}

func (s *PricingService) aiEnabled(ctx context.Context, companyID uuid.UUID) bool {
	settings, err := s.companyRepo.GetSettings(ctx, companyID)
	if err != nil {
		return true
	}
	return settings.AIEnabled
}

// LearnPending learns from up to limit issued quotes that have not been
// learned yet, across all companies. It returns how many were learned.
func (s *PricingService) LearnPending(ctx context.Context, limit int) (int, error) {
	quotes, err := s.invoiceRepo.ListUnlearnedQuotes(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list unlearned quotes: %w", err)
	}

	learned := 0
	for i := range quotes {
		if err := ctx.Err(); err != nil {
			return learned, err
		}
		if err := s.LearnFromQuote(ctx, &quotes[i]); err != nil {
			s.logger.Warn("skipping quote", zap.String("quote_id", quotes[i].ID.String()), zap.Error(err))
			continue
		}
		learned++
	}
	return learned, nil
}

// Suggest returns known prices whose description contains every word of query
func (s *PricingService) Suggest(ctx context.Context, query string, limit int) ([]domain.PricingKnowledgeDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	words := domain.PricingWords(query)
	if len(words) == 0 {
		return []domain.PricingKnowledgeDTO{}, nil
	}
	if limit <= 0 || limit > repository.MaxPageSize {
		limit = defaultSuggestLimit
	}
	entries, err := s.repo.Search(ctx, companyID, words, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search pricing knowledge: %w", err)
	}
	dtos := make([]domain.PricingKnowledgeDTO, len(entries))
	for i := range entries {
		dtos[i] = mapper.ToPricingKnowledgeDTO(&entries[i])
	}
	return dtos, nil
}

// List returns a page of the knowledge base
func (s *PricingService) List(ctx context.Context, page, pageSize int, search, category string) (*domain.PaginatedResponse, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	page, pageSize = repository.NormalizePagination(page, pageSize)
	entries, total, err := s.repo.List(ctx, companyID, page, pageSize, search, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricing knowledge: %w", err)
	}
	dtos := make([]domain.PricingKnowledgeDTO, len(entries))
	for i := range entries {
		dtos[i] = mapper.ToPricingKnowledgeDTO(&entries[i])
	}
	return paginated(dtos, total, page, pageSize), nil
}

// Delete forgets a learned price
func (s *PricingService) Delete(ctx context.Context, id uuid.UUID) error {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return err
	}
	return translate(s.repo.Delete(ctx, companyID, id), "pricing entry")
}

func itemDescriptions(items []domain.InvoiceItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Description
	}
	return out
}

// knownPrice returns the learned price for description, or zero
func knownPrice(known map[string]domain.PricingKnowledge, description string) (decimal.Decimal, bool) {
	entry, ok := known[domain.PricingKey(description)]
	if !ok {
		return decimal.Zero, false
	}
	return entry.UnitPrice, true
}
