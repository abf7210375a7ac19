package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/mapper"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SOWService handles scopes of work and their pricing sheets. A submitted
// SOW version is never changed; resubmitting creates the next version.
type SOWService struct {
	db          *gorm.DB
	sowRepo     *repository.SOWRepository
	projectRepo *repository.ProjectRepository
	invoiceRepo *repository.InvoiceRepository
	companyRepo *repository.CompanyRepository
	logRepo     *repository.SubmissionLogRepository
	pricing     *PricingService
	linker      *DocumentLinker
	advancer    *StageAdvancer
	logger      *zap.Logger
}

// NewSOWService creates a new SOWService
func NewSOWService(
	db *gorm.DB,
	sowRepo *repository.SOWRepository,
	projectRepo *repository.ProjectRepository,
	invoiceRepo *repository.InvoiceRepository,
	companyRepo *repository.CompanyRepository,
	logRepo *repository.SubmissionLogRepository,
	pricing *PricingService,
	linker *DocumentLinker,
	advancer *StageAdvancer,
	logger *zap.Logger,
) *SOWService {
	return &SOWService{
		db:          db,
		sowRepo:     sowRepo,
		projectRepo: projectRepo,
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		logRepo:     logRepo,
		pricing:     pricing,
		linker:      linker,
		advancer:    advancer,
		logger:      logger,
	}
}

// CreateDraft stores a new DRAFT version of the project's scope. It has no
// effect on the project's workflow stage.
func (s *SOWService) CreateDraft(ctx context.Context, projectID uuid.UUID, req *domain.CreateSOWDraftRequest) (*domain.SOWDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}

	var sow *domain.ScopeOfWork
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.projectRepo.GetByID(ctx, tx, companyID, projectID); err != nil {
			return translate(err, "project")
		}
		latest, err := s.sowRepo.LatestVersion(ctx, tx, companyID, projectID)
		if err != nil {
			return fmt.Errorf("failed to read SOW version: %w", err)
		}

		sow = &domain.ScopeOfWork{
			CompanyID: companyID,
			ProjectID: projectID,
			Version:   latest + 1,
			Status:    domain.SOWStatusDraft,
			Site:      strings.TrimSpace(req.Site),
			Notes:     req.Notes,
			Items:     sowItems(req.Items),
		}
		return translate(s.sowRepo.Create(ctx, tx, sow), "create SOW draft")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("SOW draft created",
		zap.String("project_id", projectID.String()),
		zap.Int("version", sow.Version))

	dto := mapper.ToSOWDTO(sow)
	return &dto, nil
}

// Submit submits the project's scope. A current DRAFT is finalised in
// place, otherwise a new SUBMITTED version is created. A DRAFT pricing
// sheet is seeded from the items with learned prices, and the project moves
// from SOW to QUOTATION.
func (s *SOWService) Submit(ctx context.Context, projectID uuid.UUID, req *domain.SubmitSOWRequest) (*domain.SubmitSOWResultDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}

	descriptions := make([]string, len(req.Items))
	for i, item := range req.Items {
		descriptions[i] = item.Description
	}
	known, err := s.pricing.Lookup(ctx, companyID, descriptions)
	if err != nil {
		s.logger.Warn("pricing lookup failed, WBP starts unpriced", zap.Error(err))
		known = nil
	}

	byID, byName := actor(ctx)
	now := time.Now().UTC()
	var sow *domain.ScopeOfWork
	var wbp *domain.WorkBreakdownPricing
	var entry *domain.SubmissionLog

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.projectRepo.GetByID(ctx, tx, companyID, projectID); err != nil {
			return translate(err, "project")
		}

		current, err := s.sowRepo.Current(ctx, tx, companyID, projectID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load current SOW: %w", err)
		}

		items := sowItems(req.Items)
		if len(items) == 0 && current != nil && current.Status == domain.SOWStatusDraft {
			items = current.Items
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: a SOW needs at least one item", ErrInvalidInput)
		}
		for i := range items {
			items[i].ID = uuid.Nil
		}

		site := strings.TrimSpace(req.Site)
		if current != nil && current.Status == domain.SOWStatusDraft {
			if site == "" {
				site = current.Site
			}
			sow = current
			sow.Site = site
			sow.Status = domain.SOWStatusSubmitted
			sow.SubmittedAt = &now
			sow.SubmittedByID = byID
			sow.SubmittedByName = byName
			sow.Items = items
			if err := s.sowRepo.Finalize(ctx, tx, sow); err != nil {
				return translate(err, "finalize SOW")
			}
		} else {
			version := 1
			if current != nil {
				version = current.Version + 1
			}
			sow = &domain.ScopeOfWork{
				CompanyID:       companyID,
				ProjectID:       projectID,
				Version:         version,
				Status:          domain.SOWStatusSubmitted,
				Site:            site,
				SubmittedAt:     &now,
				SubmittedByID:   byID,
				SubmittedByName: byName,
				Items:           items,
			}
			if err := s.sowRepo.Create(ctx, tx, sow); err != nil {
				return translate(err, "create SOW version")
			}
		}

		wbp = &domain.WorkBreakdownPricing{
			CompanyID: companyID,
			ProjectID: projectID,
			SOWID:     sow.ID,
			Status:    domain.WBPStatusDraft,
			Items:     wbpItemsFromSOW(sow.Items, known),
		}
		if err := s.sowRepo.CreateWBP(ctx, tx, wbp); err != nil {
			return translate(err, "create WBP")
		}

		entry = newSubmissionLog(ctx, companyID, domain.SubmissionTypeSOW, sow.ID,
			fmt.Sprintf("SOW version %d submitted", sow.Version),
			map[string]interface{}{"projectId": projectID, "wbpId": wbp.ID, "items": len(sow.Items)})

		_, err = s.advancer.Apply(ctx, tx, companyID, projectID, domain.WorkflowEvent{Type: domain.EventSOWSubmitted})
		return err
	})
	if err != nil {
		return nil, err
	}
	appendLog(ctx, s.logRepo, s.logger, entry)

	s.logger.Info("SOW submitted",
		zap.String("project_id", projectID.String()),
		zap.String("sow_id", sow.ID.String()),
		zap.Int("version", sow.Version),
		zap.String("wbp_id", wbp.ID.String()))

	return &domain.SubmitSOWResultDTO{SOWID: sow.ID, WBPID: wbp.ID, Version: sow.Version}, nil
}

// Current returns the highest SOW version of a project
func (s *SOWService) Current(ctx context.Context, projectID uuid.UUID) (*domain.SOWDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	sow, err := s.sowRepo.Current(ctx, nil, companyID, projectID)
	if err != nil {
		return nil, translate(err, "SOW")
	}
	dto := mapper.ToSOWDTO(sow)
	return &dto, nil
}

// Versions returns every SOW version of a project, newest first
func (s *SOWService) Versions(ctx context.Context, projectID uuid.UUID) ([]domain.SOWDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	sows, err := s.sowRepo.ListVersions(ctx, companyID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list SOW versions: %w", err)
	}
	dtos := make([]domain.SOWDTO, len(sows))
	for i := range sows {
		dtos[i] = mapper.ToSOWDTO(&sows[i])
	}
	return dtos, nil
}

// GetWBP returns a pricing sheet
func (s *SOWService) GetWBP(ctx context.Context, id uuid.UUID) (*domain.WBPDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	wbp, err := s.sowRepo.GetWBP(ctx, nil, companyID, id)
	if err != nil {
		return nil, translate(err, "WBP")
	}
	dto := mapper.ToWBPDTO(wbp)
	return &dto, nil
}

// ListWBP returns the pricing sheets of a project, newest first
func (s *SOWService) ListWBP(ctx context.Context, projectID uuid.UUID) ([]domain.WBPDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	sheets, err := s.sowRepo.ListWBPByProject(ctx, companyID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list WBP: %w", err)
	}
	dtos := make([]domain.WBPDTO, len(sheets))
	for i := range sheets {
		dtos[i] = mapper.ToWBPDTO(&sheets[i])
	}
	return dtos, nil
}

// UpdatePricing replaces the lines of a DRAFT pricing sheet
func (s *SOWService) UpdatePricing(ctx context.Context, wbpID uuid.UUID, req *domain.UpdateWBPRequest) (*domain.WBPDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}

	var wbp *domain.WorkBreakdownPricing
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wbp, err = s.sowRepo.GetWBP(ctx, tx, companyID, wbpID)
		if err != nil {
			return translate(err, "WBP")
		}
		if wbp.Status != domain.WBPStatusDraft {
			return fmt.Errorf("%w: WBP is %s", ErrInvalidTransition, wbp.Status)
		}
		items := make([]domain.WBPItem, len(req.Items))
		for i, in := range req.Items {
			items[i] = domain.WBPItem{
				Description:  strings.TrimSpace(in.Description),
				Area:         in.Area,
				Quantity:     decimal.NewFromFloat(in.Quantity),
				Unit:         in.Unit,
				UnitPrice:    decimal.NewFromFloat(in.UnitPrice).Round(2),
				DisplayOrder: i,
			}
		}
		if err := s.sowRepo.ReplaceWBPItems(ctx, tx, wbp.ID, items); err != nil {
			return fmt.Errorf("failed to update WBP items: %w", err)
		}
		wbp.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := mapper.ToWBPDTO(wbp)
	return &dto, nil
}

// FinalizePricing turns a DRAFT pricing sheet into a DRAFT quote linked to
// the project and marks the sheet FINALIZED
func (s *SOWService) FinalizePricing(ctx context.Context, wbpID uuid.UUID, req *domain.FinalizeWBPRequest) (*domain.InvoiceDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.companyRepo.GetSettings(ctx, companyID)
	if err != nil {
		return nil, translate(err, "company settings")
	}

	var quoteID uuid.UUID
	var entry *domain.SubmissionLog
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wbp, err := s.sowRepo.GetWBP(ctx, tx, companyID, wbpID)
		if err != nil {
			return translate(err, "WBP")
		}
		if wbp.Status != domain.WBPStatusDraft {
			return fmt.Errorf("%w: WBP is already %s", ErrInvalidTransition, wbp.Status)
		}
		if len(wbp.Items) == 0 {
			return fmt.Errorf("%w: WBP has no items", ErrInvalidInput)
		}
		project, err := s.projectRepo.GetByID(ctx, tx, companyID, wbp.ProjectID)
		if err != nil {
			return translate(err, "project")
		}
		sow, err := s.sowRepo.GetByID(ctx, tx, companyID, wbp.SOWID)
		if err != nil {
			return translate(err, "SOW")
		}

		quote := &domain.Invoice{
			CompanyID: companyID,
			ClientID:  project.ClientID,
			Type:      domain.DocumentTypeQuote,
			Status:    domain.InvoiceStatusDraft,
			Date:      timeOrNow(req.Date),
			VATRate:   settings.VATRate,
			Site:      sow.Site,
			Reference: strings.TrimSpace(req.Reference),
			Notes:     req.Notes,
			Items:     invoiceItemsFromWBP(wbp.Items),
		}
		quote.Recalculate()
		if err := s.invoiceRepo.Create(ctx, tx, quote); err != nil {
			return translate(err, "create quote")
		}
		quoteID = quote.ID

		if err := s.sowRepo.FinalizeWBP(ctx, tx, companyID, wbp.ID, quote.ID); err != nil {
			return translate(err, "finalize WBP")
		}

		entry = newSubmissionLog(ctx, companyID, domain.SubmissionTypeQuote, quote.ID,
			"quote created from pricing sheet",
			map[string]interface{}{"wbpId": wbp.ID, "projectId": project.ID, "total": quote.Total.StringFixed(2)})

		projectID := project.ID
		return s.linker.link(ctx, tx, quote, &projectID)
	})
	if err != nil {
		return nil, err
	}
	appendLog(ctx, s.logRepo, s.logger, entry)

	quote, err := s.invoiceRepo.GetByID(ctx, nil, companyID, quoteID)
	if err != nil {
		return nil, translate(err, "quote")
	}
	s.logger.Info("pricing finalised into quote",
		zap.String("wbp_id", wbpID.String()),
		zap.String("quote_id", quoteID.String()))
	dto := mapper.ToInvoiceDTO(quote)
	return &dto, nil
}

func sowItems(in []domain.SOWItemInput) []domain.SOWItem {
	items := make([]domain.SOWItem, 0, len(in))
	for _, item := range in {
		desc := strings.TrimSpace(item.Description)
		if desc == "" {
			continue
		}
		qty := decimal.NewFromFloat(item.Quantity)
		if !qty.IsPositive() {
			qty = decimal.NewFromInt(1)
		}
		items = append(items, domain.SOWItem{
			Description:  desc,
			Area:         strings.TrimSpace(item.Area),
			Quantity:     qty,
			Unit:         item.Unit,
			DisplayOrder: len(items),
		})
	}
	return items
}

func wbpItemsFromSOW(items []domain.SOWItem, known map[string]domain.PricingKnowledge) []domain.WBPItem {
	out := make([]domain.WBPItem, len(items))
	for i, item := range items {
		price, _ := knownPrice(known, item.Description)
		out[i] = domain.WBPItem{
			Description:  item.Description,
			Area:         item.Area,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			UnitPrice:    price,
			DisplayOrder: i,
		}
	}
	return out
}

func invoiceItemsFromWBP(items []domain.WBPItem) []domain.InvoiceItem {
	out := make([]domain.InvoiceItem, len(items))
	for i, item := range items {
		out[i] = domain.InvoiceItem{
			Description:  item.Description,
			Area:         item.Area,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			UnitPrice:    item.UnitPrice,
			DisplayOrder: i,
		}
	}
	return out
}
