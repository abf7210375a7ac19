package mapper

import (
	"encoding/json"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/shopspring/decimal"
)

const timestampFormat = "2006-01-02T15:04:05Z"
const dateFormat = "2006-01-02"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// ToCompanyDTO converts Company to CompanyDTO
func ToCompanyDTO(company *domain.Company) domain.CompanyDTO {
	return domain.CompanyDTO{
		ID:     company.ID,
		Name:   company.Name,
		Domain: company.Domain,
	}
}

// ToCompanySettingsDTO converts CompanySettings to CompanySettingsDTO
func ToCompanySettingsDTO(s *domain.CompanySettings) domain.CompanySettingsDTO {
	return domain.CompanySettingsDTO{
		CompanyID:         s.CompanyID,
		LastQuoteNumber:   s.LastQuoteNumber,
		LastInvoiceNumber: s.LastInvoiceNumber,
		LogoURL:           s.LogoURL,
		Address:           s.Address,
		VATNumber:         s.VATNumber,
		BankDetails:       s.BankDetails,
		Email:             s.Email,
		Phone:             s.Phone,
		VATRate:           money(s.VATRate),
		AIEnabled:         s.AIEnabled,
	}
}

// ToNumberingDTO describes the counters and the next number of each sequence
func ToNumberingDTO(lastQuote, lastInvoice int) domain.NumberingDTO {
	return domain.NumberingDTO{
		LastQuoteNumber:   lastQuote,
		LastInvoiceNumber: lastInvoice,
		NextQuote:         domain.FormatDocumentNumber(domain.DocumentTypeQuote, lastQuote+1),
		NextInvoice:       domain.FormatDocumentNumber(domain.DocumentTypeInvoice, lastInvoice+1),
	}
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	}
}

// ToClientDTO converts Client to ClientDTO
func ToClientDTO(client *domain.Client) domain.ClientDTO {
	return domain.ClientDTO{
		ID:        client.ID,
		Name:      client.Name,
		Email:     client.Email,
		Phone:     client.Phone,
		Address:   client.Address,
		VATNumber: client.VATNumber,
		Notes:     client.Notes,
		CreatedAt: formatTime(client.CreatedAt),
		UpdatedAt: formatTime(client.UpdatedAt),
	}
}

// ToProjectDTO converts Project to ProjectDTO
func ToProjectDTO(project *domain.Project) domain.ProjectDTO {
	dto := domain.ProjectDTO{
		ID:               project.ID,
		ClientID:         project.ClientID,
		Name:             project.Name,
		Description:      project.Description,
		Status:           project.Status,
		WorkflowStage:    project.WorkflowStage,
		CommercialStatus: project.CommercialStatus,
		PONumber:         project.PONumber,
		CreatedAt:        formatTime(project.CreatedAt),
		UpdatedAt:        formatTime(project.UpdatedAt),
	}
	if project.Client != nil {
		dto.ClientName = project.Client.Name
	}
	return dto
}

// ToSOWDTO converts ScopeOfWork to SOWDTO
func ToSOWDTO(sow *domain.ScopeOfWork) domain.SOWDTO {
	items := make([]domain.SOWItemDTO, len(sow.Items))
	for i, item := range sow.Items {
		items[i] = domain.SOWItemDTO{
			ID:           item.ID,
			Description:  item.Description,
			Area:         item.Area,
			Quantity:     item.Quantity.InexactFloat64(),
			Unit:         item.Unit,
			DisplayOrder: item.DisplayOrder,
		}
	}
	return domain.SOWDTO{
		ID:          sow.ID,
		ProjectID:   sow.ProjectID,
		Version:     sow.Version,
		Status:      sow.Status,
		Site:        sow.Site,
		Notes:       sow.Notes,
		SubmittedAt: formatOptionalTime(sow.SubmittedAt),
		SubmittedBy: sow.SubmittedByName,
		Items:       items,
		CreatedAt:   formatTime(sow.CreatedAt),
	}
}

// ToWBPDTO converts WorkBreakdownPricing to WBPDTO
func ToWBPDTO(wbp *domain.WorkBreakdownPricing) domain.WBPDTO {
	total := decimal.Zero
	items := make([]domain.WBPItemDTO, len(wbp.Items))
	for i, item := range wbp.Items {
		line := item.LineTotal()
		total = total.Add(line)
		items[i] = domain.WBPItemDTO{
			ID:           item.ID,
			Description:  item.Description,
			Area:         item.Area,
			Quantity:     item.Quantity.InexactFloat64(),
			Unit:         item.Unit,
			UnitPrice:    money(item.UnitPrice),
			Total:        money(line),
			DisplayOrder: item.DisplayOrder,
		}
	}
	return domain.WBPDTO{
		ID:        wbp.ID,
		ProjectID: wbp.ProjectID,
		SOWID:     wbp.SOWID,
		Status:    wbp.Status,
		QuoteID:   wbp.QuoteID,
		Items:     items,
		Total:     money(total),
		CreatedAt: formatTime(wbp.CreatedAt),
	}
}

// ToPaymentDTO converts Payment to PaymentDTO
func ToPaymentDTO(p *domain.Payment) domain.PaymentDTO {
	return domain.PaymentDTO{
		ID:        p.ID,
		InvoiceID: p.InvoiceID,
		Amount:    money(p.Amount),
		Date:      p.Date.Format(dateFormat),
		Method:    p.Method,
		Reference: p.Reference,
	}
}

// ToInvoiceDTO converts Invoice to InvoiceDTO. AmountPaid is summed from the
// preloaded payments.
func ToInvoiceDTO(inv *domain.Invoice) domain.InvoiceDTO {
	items := make([]domain.InvoiceItemDTO, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = domain.InvoiceItemDTO{
			ID:           item.ID,
			Description:  item.Description,
			Area:         item.Area,
			Quantity:     item.Quantity.InexactFloat64(),
			Unit:         item.Unit,
			UnitPrice:    money(item.UnitPrice),
			Total:        money(item.Total),
			DisplayOrder: item.DisplayOrder,
		}
	}

	paid := decimal.Zero
	var payments []domain.PaymentDTO
	for i := range inv.Payments {
		paid = paid.Add(inv.Payments[i].Amount)
		payments = append(payments, ToPaymentDTO(&inv.Payments[i]))
	}

	dto := domain.InvoiceDTO{
		ID:            inv.ID,
		Type:          inv.Type,
		Number:        inv.Number,
		QuoteNumber:   inv.QuoteNumber,
		Status:        inv.Status,
		ClientID:      inv.ClientID,
		ProjectID:     inv.ProjectID,
		Date:          inv.Date.Format(dateFormat),
		Subtotal:      money(inv.Subtotal),
		VATRate:       money(inv.VATRate),
		VATAmount:     money(inv.VATAmount),
		Total:         money(inv.Total),
		AmountPaid:    money(paid),
		Site:          inv.Site,
		Reference:     inv.Reference,
		Notes:         inv.Notes,
		SourceQuoteID: inv.SourceQuoteID,
		Items:         items,
		Payments:      payments,
		CreatedAt:     formatTime(inv.CreatedAt),
		UpdatedAt:     formatTime(inv.UpdatedAt),
	}
	if inv.DueDate != nil {
		due := inv.DueDate.Format(dateFormat)
		dto.DueDate = &due
	}
	if inv.Client != nil {
		dto.ClientName = inv.Client.Name
	}
	return dto
}

// ToPricingKnowledgeDTO converts PricingKnowledge to PricingKnowledgeDTO
func ToPricingKnowledgeDTO(k *domain.PricingKnowledge) domain.PricingKnowledgeDTO {
	return domain.PricingKnowledgeDTO{
		ID:          k.ID,
		Description: k.Description,
		UnitPrice:   money(k.UnitPrice),
		Unit:        k.Unit,
		Frequency:   k.Frequency,
		Category:    k.Category,
		LastUsedAt:  formatTime(k.LastUsedAt),
	}
}

// ToSubmissionLogDTO converts SubmissionLog to SubmissionLogDTO
func ToSubmissionLogDTO(log *domain.SubmissionLog) domain.SubmissionLogDTO {
	dto := domain.SubmissionLogDTO{
		ID:          log.ID,
		Type:        log.Type,
		DocumentID:  log.DocumentID,
		SubmittedBy: log.SubmittedByName,
		Message:     log.Message,
		CreatedAt:   formatTime(log.CreatedAt),
	}
	if len(log.Metadata) > 0 {
		var meta interface{}
		if err := json.Unmarshal(log.Metadata, &meta); err == nil {
			dto.Metadata = meta
		}
	}
	return dto
}

// ToInteractionDTO converts Interaction to InteractionDTO
func ToInteractionDTO(i *domain.Interaction) domain.InteractionDTO {
	return domain.InteractionDTO{
		ID:         i.ID,
		ClientID:   i.ClientID,
		ProjectID:  i.ProjectID,
		Type:       i.Type,
		Subject:    i.Subject,
		Body:       i.Body,
		OccurredAt: formatTime(i.OccurredAt),
		CreatedBy:  i.CreatedBy,
	}
}

// ToAttachmentDTO converts Attachment to AttachmentDTO
func ToAttachmentDTO(a *domain.Attachment) domain.AttachmentDTO {
	return domain.AttachmentDTO{
		ID:          a.ID,
		ProjectID:   a.ProjectID,
		Filename:    a.Filename,
		ContentType: a.ContentType,
		Size:        a.Size,
		Transcript:  a.Transcript,
		CreatedAt:   formatTime(a.CreatedAt),
	}
}
