package service

import (
	"context"
	"strings"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/mapper"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentLinker attaches quotes and invoices to projects and edits their
// free-text details. A manually typed document number re-seeds the matching
// sequence so the next allocation follows on from it.
type DocumentLinker struct {
	db          *gorm.DB
	invoiceRepo *repository.InvoiceRepository
	projectRepo *repository.ProjectRepository
	numbering   *NumberingService
	advancer    *StageAdvancer
	logger      *zap.Logger
}

// NewDocumentLinker creates a new DocumentLinker
func NewDocumentLinker(
	db *gorm.DB,
	invoiceRepo *repository.InvoiceRepository,
	projectRepo *repository.ProjectRepository,
	numbering *NumberingService,
	advancer *StageAdvancer,
	logger *zap.Logger,
) *DocumentLinker {
	return &DocumentLinker{
		db:          db,
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
		numbering:   numbering,
		advancer:    advancer,
		logger:      logger,
	}
}

// LinkInvoiceToProject sets or, with a nil projectID, clears the project of
// a document. Linking a quote moves the project to QUOTED.
func (l *DocumentLinker) LinkInvoiceToProject(ctx context.Context, invoiceID uuid.UUID, projectID *uuid.UUID) (*domain.InvoiceDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := l.invoiceRepo.GetByID(ctx, tx, companyID, invoiceID)
		if err != nil {
			return translate(err, "document")
		}
		return l.link(ctx, tx, inv, projectID)
	})
	if err != nil {
		return nil, err
	}
	return l.load(ctx, companyID, invoiceID)
}

// link does the work of LinkInvoiceToProject inside tx. It is shared with
// the flows that create a quote for a project.
func (l *DocumentLinker) link(ctx context.Context, tx *gorm.DB, inv *domain.Invoice, projectID *uuid.UUID) error {
	if projectID != nil {
		if _, err := l.projectRepo.GetByID(ctx, tx, inv.CompanyID, *projectID); err != nil {
			return translate(err, "project")
		}
	}

	if err := l.invoiceRepo.UpdateFields(ctx, tx, inv.CompanyID, inv.ID, map[string]interface{}{
		"project_id": projectID,
	}); err != nil {
		return translate(err, "link document")
	}
	inv.ProjectID = projectID

	if projectID == nil {
		l.logger.Info("document unlinked from project", zap.String("invoice_id", inv.ID.String()))
		return nil
	}

	l.logger.Info("document linked to project",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("type", string(inv.Type)))

	if inv.Type != domain.DocumentTypeQuote {
		return nil
	}
	_, err := l.advancer.Apply(ctx, tx, inv.CompanyID, *projectID, domain.WorkflowEvent{
		Type:         domain.EventQuoteLinked,
		DocumentType: inv.Type,
	})
	return err
}

// UpdateDocumentDetails edits site, reference, date and the manual number of
// a document. A trailing number in QuoteNumber sets the sequence it routes
// to ("INV-" prefix: invoices, anything else: quotes); when that is the
// document's own type it also becomes the document's number. A reference on
// a linked document renames the project.
func (l *DocumentLinker) UpdateDocumentDetails(ctx context.Context, invoiceID uuid.UUID, req *domain.UpdateDocumentDetailsRequest) (*domain.InvoiceDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := l.invoiceRepo.GetByID(ctx, tx, companyID, invoiceID)
		if err != nil {
			return translate(err, "document")
		}

		fields := map[string]interface{}{}
		if req.Site != nil {
			fields["site"] = strings.TrimSpace(*req.Site)
		}
		if req.Reference != nil {
			fields["reference"] = strings.TrimSpace(*req.Reference)
		}
		if req.Date != nil {
			fields["date"] = req.Date.UTC()
		}
		if req.QuoteNumber != nil {
			text := strings.TrimSpace(*req.QuoteNumber)
			fields["quote_number"] = text

			if docType, n, ok := domain.ParseDocumentNumber(text); ok {
				if err := l.numbering.SetNumberTx(ctx, tx, companyID, docType, n); err != nil {
					return err
				}
				if docType == inv.Type {
					taken, err := l.invoiceRepo.NumberTaken(ctx, tx, companyID, docType, n)
					if err != nil {
						return err
					}
					if taken && (inv.Number == nil || *inv.Number != n) {
						return translate(gorm.ErrDuplicatedKey, domain.FormatDocumentNumber(docType, n)+" is already used")
					}
					fields["number"] = n
				}
			}
		}

		if len(fields) > 0 {
			if err := l.invoiceRepo.UpdateFields(ctx, tx, companyID, invoiceID, fields); err != nil {
				return translate(err, "update document")
			}
		}

		if req.Reference != nil && inv.ProjectID != nil {
			name := strings.TrimSpace(*req.Reference)
			if name != "" {
				if err := l.projectRepo.Rename(ctx, tx, companyID, *inv.ProjectID, name); err != nil {
					return translate(err, "rename project")
				}
				l.logger.Info("project renamed from document reference",
					zap.String("project_id", inv.ProjectID.String()),
					zap.String("name", name))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.load(ctx, companyID, invoiceID)
}

func (l *DocumentLinker) load(ctx context.Context, companyID, invoiceID uuid.UUID) (*domain.InvoiceDTO, error) {
	inv, err := l.invoiceRepo.GetByID(ctx, nil, companyID, invoiceID)
	if err != nil {
		return nil, translate(err, "document")
	}
	dto := mapper.ToInvoiceDTO(inv)
	return &dto, nil
}
