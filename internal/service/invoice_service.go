package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/email"
	"github.com/Uthmaanravat/UROps-sub001/internal/mapper"
	"github.com/Uthmaanravat/UROps-sub001/internal/metrics"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxAllocationAttempts bounds how many sequence numbers Issue draws when
// the numbers it gets are already taken by manually numbered documents
const maxAllocationAttempts = 3

// InvoiceService handles quotes and invoices from draft to payment
type InvoiceService struct {
	db              *gorm.DB
	invoiceRepo     *repository.InvoiceRepository
	clientRepo      *repository.ClientRepository
	projectRepo     *repository.ProjectRepository
	companyRepo     *repository.CompanyRepository
	logRepo         *repository.SubmissionLogRepository
	interactionRepo *repository.InteractionRepository
	numbering       *NumberingService
	linker          *DocumentLinker
	advancer        *StageAdvancer
	sender          email.Sender
	metrics         *metrics.Metrics
	logger          *zap.Logger
}

// InvoiceServiceDeps groups the collaborators of InvoiceService
type InvoiceServiceDeps struct {
	DB              *gorm.DB
	InvoiceRepo     *repository.InvoiceRepository
	ClientRepo      *repository.ClientRepository
	ProjectRepo     *repository.ProjectRepository
	CompanyRepo     *repository.CompanyRepository
	LogRepo         *repository.SubmissionLogRepository
	InteractionRepo *repository.InteractionRepository
	Numbering       *NumberingService
	Linker          *DocumentLinker
	Advancer        *StageAdvancer
	Sender          email.Sender
	Metrics         *metrics.Metrics
	Logger          *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(deps InvoiceServiceDeps) *InvoiceService {
	return &InvoiceService{
		db:              deps.DB,
		invoiceRepo:     deps.InvoiceRepo,
		clientRepo:      deps.ClientRepo,
		projectRepo:     deps.ProjectRepo,
		companyRepo:     deps.CompanyRepo,
		logRepo:         deps.LogRepo,
		interactionRepo: deps.InteractionRepo,
		numbering:       deps.Numbering,
		linker:          deps.Linker,
		advancer:        deps.Advancer,
		sender:          deps.Sender,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
	}
}

// Create creates a DRAFT quote or invoice. Drafts have no number; it is
// allocated on Issue. A quote created for a project counts as linked.
func (s *InvoiceService) Create(ctx context.Context, req *domain.CreateInvoiceRequest) (*domain.InvoiceDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, req.Type)
	}
	if _, err := s.clientRepo.GetByID(ctx, companyID, req.ClientID); err != nil {
		return nil, translate(err, "client")
	}
	vatRate, err := s.vatRate(ctx, companyID, req.VATRate)
	if err != nil {
		return nil, err
	}

	inv := &domain.Invoice{
		CompanyID: companyID,
		ClientID:  req.ClientID,
		Type:      req.Type,
		Status:    domain.InvoiceStatusDraft,
		Date:      timeOrNow(req.Date),
		VATRate:   vatRate,
		Site:      strings.TrimSpace(req.Site),
		Reference: strings.TrimSpace(req.Reference),
		Notes:     req.Notes,
		Items:     invoiceItems(req.Items),
	}
	if req.DueDate != nil {
		due := req.DueDate.UTC()
		inv.DueDate = &due
	}
	inv.Recalculate()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.invoiceRepo.Create(ctx, tx, inv); err != nil {
			return translate(err, "create document")
		}
		if req.ProjectID != nil {
			return s.linker.link(ctx, tx, inv, req.ProjectID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("type", string(inv.Type)))
	return s.load(ctx, companyID, inv.ID)
}

// GetByID returns a document with items and payments
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, companyID, id)
}

// List returns a page of documents
func (s *InvoiceService) List(ctx context.Context, page, pageSize int, filters *repository.InvoiceFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	page, pageSize = repository.NormalizePagination(page, pageSize)
	invoices, total, err := s.invoiceRepo.List(ctx, companyID, page, pageSize, filters, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = mapper.ToInvoiceDTO(&invoices[i])
	}
	return paginated(dtos, total, page, pageSize), nil
}

// UpdateItems replaces the lines of a DRAFT document and recomputes totals
func (s *InvoiceService) UpdateItems(ctx context.Context, id uuid.UUID, req *domain.UpdateInvoiceItemsRequest) (*domain.InvoiceDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.invoiceRepo.GetByID(ctx, tx, companyID, id)
		if err != nil {
			return translate(err, "document")
		}
		if inv.Status != domain.InvoiceStatusDraft {
			return fmt.Errorf("%w: only drafts can be edited", ErrInvalidTransition)
		}
		if req.VATRate != nil {
			inv.VATRate = decimal.NewFromFloat(*req.VATRate)
		}
		inv.Items = invoiceItems(req.Items)
		inv.Recalculate()

		if err := s.invoiceRepo.ReplaceItems(ctx, tx, inv.ID, inv.Items); err != nil {
			return fmt.Errorf("failed to replace items: %w", err)
		}
		return s.invoiceRepo.UpdateFields(ctx, tx, companyID, inv.ID, map[string]interface{}{
			"vat_rate":   inv.VATRate,
			"subtotal":   inv.Subtotal,
			"vat_amount": inv.VATAmount,
			"total":      inv.Total,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, companyID, id)
}

// Issue allocates the document's number and moves it out of DRAFT: quotes
// become SENT, invoices INVOICED. A number set manually beforehand is kept.
// The number and the status change commit together.
func (s *InvoiceService) Issue(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.issue(ctx, companyID, id); err != nil {
		return nil, err
	}
	return s.load(ctx, companyID, id)
}

func (s *InvoiceService) issue(ctx context.Context, companyID, id uuid.UUID) error {
	var issued *domain.Invoice
	var entry *domain.SubmissionLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.invoiceRepo.GetByID(ctx, tx, companyID, id)
		if err != nil {
			return translate(err, "document")
		}
		if inv.Status != domain.InvoiceStatusDraft {
			return fmt.Errorf("%w: document is already %s", ErrInvalidTransition, inv.Status)
		}
		if len(inv.Items) == 0 {
			return fmt.Errorf("%w: document has no items", ErrInvalidInput)
		}

		number, err := s.allocate(ctx, tx, inv)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		to := inv.Type.IssuedStatus()
		if err := s.invoiceRepo.TransitionStatus(ctx, tx, companyID, inv.ID,
			[]domain.InvoiceStatus{domain.InvoiceStatusDraft}, to,
			map[string]interface{}{"number": number, "issued_at": now}); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: document changed while issuing", ErrConflict)
			}
			return translate(err, "issue document")
		}
		inv.Number = &number
		inv.Status = to

		logType := domain.SubmissionTypeInvoice
		if inv.Type == domain.DocumentTypeQuote {
			logType = domain.SubmissionTypeQuote
		}
		entry = newSubmissionLog(ctx, companyID, logType, inv.ID,
			fmt.Sprintf("%s issued", inv.DisplayNumber()),
			map[string]interface{}{"number": number, "total": inv.Total.StringFixed(2)})

		if inv.ProjectID != nil {
			ev := domain.WorkflowEvent{Type: domain.EventInvoiceIssued, DocumentType: inv.Type}
			if inv.Type == domain.DocumentTypeQuote {
				ev.Type = domain.EventQuoteSent
			}
			if _, err := s.advancer.Apply(ctx, tx, companyID, *inv.ProjectID, ev); err != nil {
				return err
			}
		}
		issued = inv
		return nil
	})
	if err != nil {
		return err
	}
	appendLog(ctx, s.logRepo, s.logger, entry)

	s.logger.Info("document issued",
		zap.String("invoice_id", id.String()),
		zap.String("number", issued.DisplayNumber()),
		zap.String("status", string(issued.Status)))
	return nil
}

// allocate returns the number the document is issued under. Sequence
// numbers already carried by another document are skipped.
func (s *InvoiceService) allocate(ctx context.Context, tx *gorm.DB, inv *domain.Invoice) (int, error) {
	if inv.Number != nil {
		return *inv.Number, nil
	}
	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		n, err := s.numbering.AllocateNumberTx(ctx, tx, inv.CompanyID, inv.Type)
		if err != nil {
			return 0, err
		}
		taken, err := s.invoiceRepo.NumberTaken(ctx, tx, inv.CompanyID, inv.Type, n)
		if err != nil {
			return 0, fmt.Errorf("failed to check number: %w", err)
		}
		if !taken {
			return n, nil
		}
		s.metrics.IncAllocationRetry()
		s.logger.Warn("allocated number already in use, drawing the next one",
			zap.String("number", domain.FormatDocumentNumber(inv.Type, n)),
			zap.Int("attempt", attempt))
	}
	return 0, fmt.Errorf("%w: no free %s number after %d attempts", ErrConflict, inv.Type, maxAllocationAttempts)
}

// Send issues a DRAFT document and emails it to the client. The email is
// best effort: when it fails the document stays issued and the failure is
// reported in the result. A delivered email is recorded in the submission
// log and the client's interaction history.
func (s *InvoiceService) Send(ctx context.Context, id uuid.UUID, req *domain.SendInvoiceRequest) (*domain.SendInvoiceResultDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := s.invoiceRepo.GetByID(ctx, nil, companyID, id)
	if err != nil {
		return nil, translate(err, "document")
	}
	if inv.Status == domain.InvoiceStatusDraft {
		if err := s.issue(ctx, companyID, id); err != nil {
			return nil, err
		}
		if inv, err = s.invoiceRepo.GetByID(ctx, nil, companyID, id); err != nil {
			return nil, translate(err, "document")
		}
	}

	result := &domain.SendInvoiceResultDTO{}
	msg, err := s.composeEmail(ctx, inv, req)
	if err == nil {
		err = s.sender.Send(ctx, msg)
		if err != nil && !errors.Is(err, email.ErrNoRecipients) {
			s.metrics.IncExternalFailure(metrics.DependencyEmail)
		}
	}

	if err != nil {
		s.logger.Warn("document email not sent",
			zap.String("invoice_id", id.String()),
			zap.Error(err))
		result.EmailError = err.Error()
	} else {
		result.EmailSent = true
		s.recordEmail(ctx, inv, msg)
	}

	if inv, err = s.invoiceRepo.GetByID(ctx, nil, companyID, id); err != nil {
		return nil, translate(err, "document")
	}
	result.Invoice = mapper.ToInvoiceDTO(inv)
	return result, nil
}

func (s *InvoiceService) composeEmail(ctx context.Context, inv *domain.Invoice, req *domain.SendInvoiceRequest) (email.Message, error) {
	to := ""
	if req != nil {
		to = strings.TrimSpace(req.To)
	}
	if to == "" && inv.Client != nil {
		to = strings.TrimSpace(inv.Client.Email)
	}
	if to == "" {
		return email.Message{}, email.ErrNoRecipients
	}

	data := email.DocumentEmail{
		DocumentKind: "Quote",
		Number:       inv.DisplayNumber(),
		Total:        "R " + inv.Total.StringFixed(2),
		Site:         inv.Site,
	}
	if inv.Type == domain.DocumentTypeInvoice {
		data.DocumentKind = "Invoice"
	}
	if inv.Client != nil {
		data.ClientName = inv.Client.Name
	}
	if inv.DueDate != nil {
		data.DueDate = inv.DueDate.Format("2006-01-02")
	}
	if company, err := s.companyRepo.GetByID(ctx, inv.CompanyID); err == nil {
		data.CompanyName = company.Name
	}
	if settings, err := s.companyRepo.GetSettings(ctx, inv.CompanyID); err == nil && inv.Type == domain.DocumentTypeInvoice {
		data.BankDetails = settings.BankDetails
	}

	subject := ""
	if req != nil {
		data.Message = req.Message
		subject = strings.TrimSpace(req.Subject)
	}
	if subject == "" {
		subject = email.DefaultSubject(data)
	}
	body, err := email.RenderDocumentEmail(data)
	if err != nil {
		return email.Message{}, err
	}
	return email.Message{To: []string{to}, Subject: subject, HTMLBody: body}, nil
}

// recordEmail writes the log entries for a delivered email. They are
// bookkeeping; failing to write them does not fail the send.
func (s *InvoiceService) recordEmail(ctx context.Context, inv *domain.Invoice, msg email.Message) {
	_, byName := actor(ctx)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := newSubmissionLog(ctx, inv.CompanyID, domain.SubmissionTypeEmail, inv.ID,
			fmt.Sprintf("%s emailed to %s", inv.DisplayNumber(), strings.Join(msg.To, ", ")),
			map[string]interface{}{"to": msg.To, "subject": msg.Subject})
		if err := s.logRepo.Create(ctx, tx, entry); err != nil {
			return err
		}
		return s.interactionRepo.Create(ctx, tx, &domain.Interaction{
			CompanyID:  inv.CompanyID,
			ClientID:   inv.ClientID,
			ProjectID:  inv.ProjectID,
			Type:       domain.InteractionTypeEmail,
			Subject:    msg.Subject,
			Body:       fmt.Sprintf("Sent %s to %s", inv.DisplayNumber(), strings.Join(msg.To, ", ")),
			OccurredAt: time.Now().UTC(),
			CreatedBy:  byName,
		})
	})
	if err != nil {
		s.logger.Warn("failed to record sent email", zap.String("invoice_id", inv.ID.String()), zap.Error(err))
	}
}

// ConvertQuoteToInvoice creates a DRAFT invoice from an issued quote and
// marks the quote INVOICED. A quote converts once.
func (s *InvoiceService) ConvertQuoteToInvoice(ctx context.Context, quoteID uuid.UUID) (*domain.InvoiceDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}

	var invoiceID uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.invoiceRepo.GetByID(ctx, tx, companyID, quoteID)
		if err != nil {
			return translate(err, "quote")
		}
		if quote.Type != domain.DocumentTypeQuote {
			return fmt.Errorf("%w: document is not a quote", ErrInvalidInput)
		}
		if quote.Status != domain.InvoiceStatusSent {
			return fmt.Errorf("%w: only a sent quote can be invoiced, quote is %s", ErrInvalidTransition, quote.Status)
		}

		items := make([]domain.InvoiceItem, len(quote.Items))
		for i, item := range quote.Items {
			items[i] = domain.InvoiceItem{
				Description:  item.Description,
				Area:         item.Area,
				Quantity:     item.Quantity,
				Unit:         item.Unit,
				UnitPrice:    item.UnitPrice,
				DisplayOrder: item.DisplayOrder,
			}
		}
		sourceID := quote.ID
		inv := &domain.Invoice{
			CompanyID:     companyID,
			ClientID:      quote.ClientID,
			ProjectID:     quote.ProjectID,
			Type:          domain.DocumentTypeInvoice,
			Status:        domain.InvoiceStatusDraft,
			Date:          time.Now().UTC(),
			VATRate:       quote.VATRate,
			Site:          quote.Site,
			Reference:     quote.Reference,
			Notes:         quote.Notes,
			SourceQuoteID: &sourceID,
			Items:         items,
		}
		inv.Recalculate()
		if err := s.invoiceRepo.Create(ctx, tx, inv); err != nil {
			return translate(err, "create invoice")
		}
		invoiceID = inv.ID

		return s.invoiceRepo.TransitionStatus(ctx, tx, companyID, quote.ID,
			[]domain.InvoiceStatus{domain.InvoiceStatusSent}, domain.InvoiceStatusInvoiced, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote converted to invoice",
		zap.String("quote_id", quoteID.String()),
		zap.String("invoice_id", invoiceID.String()))
	return s.load(ctx, companyID, invoiceID)
}

// RecordPayment records money received against an issued invoice. The
// invoice becomes PAID once payments cover its total, and the project moves
// to PAYMENT, or COMPLETED when every issued invoice on it is paid.
func (s *InvoiceService) RecordPayment(ctx context.Context, invoiceID uuid.UUID, req *domain.RecordPaymentRequest) (*domain.InvoiceDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	amount := decimal.NewFromFloat(req.Amount).Round(2)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
	}
	method := req.Method
	if method == "" {
		method = domain.PaymentMethodEFT
	}

	var entry *domain.SubmissionLog
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.invoiceRepo.GetByID(ctx, tx, companyID, invoiceID)
		if err != nil {
			return translate(err, "invoice")
		}
		if inv.Type != domain.DocumentTypeInvoice {
			return fmt.Errorf("%w: payments are recorded against invoices", ErrInvalidInput)
		}
		if inv.Status != domain.InvoiceStatusInvoiced {
			return fmt.Errorf("%w: invoice is %s", ErrInvalidTransition, inv.Status)
		}

		payment := &domain.Payment{
			CompanyID: companyID,
			InvoiceID: inv.ID,
			Amount:    amount,
			Date:      timeOrNow(req.Date),
			Method:    method,
			Reference: strings.TrimSpace(req.Reference),
		}
		if err := s.invoiceRepo.AddPayment(ctx, tx, payment); err != nil {
			return translate(err, "record payment")
		}

		paid, err := s.invoiceRepo.SumPayments(ctx, tx, inv.ID)
		if err != nil {
			return fmt.Errorf("failed to sum payments: %w", err)
		}
		if paid.GreaterThanOrEqual(inv.Total) {
			if err := s.invoiceRepo.TransitionStatus(ctx, tx, companyID, inv.ID,
				[]domain.InvoiceStatus{domain.InvoiceStatusInvoiced}, domain.InvoiceStatusPaid, nil); err != nil {
				return translate(err, "mark invoice paid")
			}
		}

		entry = newSubmissionLog(ctx, companyID, domain.SubmissionTypePayment, inv.ID,
			fmt.Sprintf("payment of %s recorded on %s", amount.StringFixed(2), inv.DisplayNumber()),
			map[string]interface{}{"paymentId": payment.ID, "amount": amount.StringFixed(2), "paid": paid.StringFixed(2)})

		if inv.ProjectID == nil {
			return nil
		}
		open, err := s.invoiceRepo.CountOpenInvoices(ctx, tx, companyID, *inv.ProjectID)
		if err != nil {
			return fmt.Errorf("failed to count open invoices: %w", err)
		}
		_, err = s.advancer.Apply(ctx, tx, companyID, *inv.ProjectID, domain.WorkflowEvent{
			Type:            domain.EventPaymentReceived,
			DocumentType:    domain.DocumentTypeInvoice,
			PaymentsTotal:   paid,
			InvoiceTotal:    inv.Total,
			AllInvoicesPaid: open == 0,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	appendLog(ctx, s.logRepo, s.logger, entry)

	s.logger.Info("payment recorded",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("amount", amount.StringFixed(2)))
	return s.load(ctx, companyID, invoiceID)
}

// Delete removes a DRAFT document
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return err
	}
	inv, err := s.invoiceRepo.GetByID(ctx, nil, companyID, id)
	if err != nil {
		return translate(err, "document")
	}
	if inv.Status != domain.InvoiceStatusDraft {
		return fmt.Errorf("%w: issued documents cannot be deleted", ErrInvalidTransition)
	}
	if err := s.invoiceRepo.Delete(ctx, companyID, id); err != nil {
		return translate(err, "document")
	}
	s.logger.Info("draft document deleted", zap.String("invoice_id", id.String()))
	return nil
}

// History returns the submission log of a document
func (s *InvoiceService) History(ctx context.Context, id uuid.UUID) ([]domain.SubmissionLogDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.invoiceRepo.GetByID(ctx, nil, companyID, id); err != nil {
		return nil, translate(err, "document")
	}
	entries, err := s.logRepo.ListByDocument(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list document history: %w", err)
	}
	dtos := make([]domain.SubmissionLogDTO, len(entries))
	for i := range entries {
		dtos[i] = mapper.ToSubmissionLogDTO(&entries[i])
	}
	return dtos, nil
}

func (s *InvoiceService) vatRate(ctx context.Context, companyID uuid.UUID, override *float64) (decimal.Decimal, error) {
	if override != nil {
		return decimal.NewFromFloat(*override), nil
	}
	settings, err := s.companyRepo.GetSettings(ctx, companyID)
	if err != nil {
		return decimal.Zero, translate(err, "company settings")
	}
	return settings.VATRate, nil
}

func (s *InvoiceService) load(ctx context.Context, companyID, id uuid.UUID) (*domain.InvoiceDTO, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, nil, companyID, id)
	if err != nil {
		return nil, translate(err, "document")
	}
	dto := mapper.ToInvoiceDTO(inv)
	return &dto, nil
}

func invoiceItems(in []domain.InvoiceItemInput) []domain.InvoiceItem {
	items := make([]domain.InvoiceItem, 0, len(in))
	for _, item := range in {
		desc := strings.TrimSpace(item.Description)
		if desc == "" {
			continue
		}
		items = append(items, domain.InvoiceItem{
			Description:  desc,
			Area:         strings.TrimSpace(item.Area),
			Quantity:     decimal.NewFromFloat(item.Quantity),
			Unit:         item.Unit,
			UnitPrice:    decimal.NewFromFloat(item.UnitPrice).Round(2),
			DisplayOrder: len(items),
		})
	}
	return items
}
