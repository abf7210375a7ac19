package handler

import (
	"net/http"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"go.uber.org/zap"
)

// InvoiceHandler serves quotes and invoices. Both live in one table and
// share these endpoints; the type field tells them apart.
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	linker         *service.DocumentLinker
	logger         *zap.Logger
}

func NewInvoiceHandler(invoiceService *service.InvoiceService, linker *service.DocumentLinker, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		linker:         linker,
		logger:         logger,
	}
}

// List godoc
// @Summary List quotes and invoices
// @Tags Invoices
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param type query string false "Document type" Enums(QUOTE, INVOICE)
// @Param status query string false "Status" Enums(DRAFT, SENT, INVOICED, PAID)
// @Param clientId query string false "Filter by client ID" format(uuid)
// @Param projectId query string false "Filter by project ID" format(uuid)
// @Param search query string false "Search by reference, site or quote number"
// @Param sortBy query string false "Sort field" Enums(number, date, total, status, createdAt, updatedAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.InvoiceDTO}
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	q := r.URL.Query()
	filters := &repository.InvoiceFilters{
		ClientID:  queryUUID(r, "clientId"),
		ProjectID: queryUUID(r, "projectId"),
		Search:    q.Get("search"),
	}
	if t := q.Get("type"); t != "" {
		docType := domain.DocumentType(t)
		filters.Type = &docType
	}
	if s := q.Get("status"); s != "" {
		status := domain.InvoiceStatus(s)
		filters.Status = &status
	}

	result, err := h.invoiceService.List(r.Context(), page, pageSize, filters, sortConfig(r))
	if err != nil {
		handleServiceError(w, h.logger, err, "list documents")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create draft quote or invoice
// @Description Create a DRAFT document. No number is allocated until it is issued. VAT defaults to the company rate.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body domain.CreateInvoiceRequest true "Document data"
// @Success 201 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Client or project not found"
// @Failure 500 {object} domain.APIError "Company settings missing"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices [post]
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInvoiceRequest
	if !decode(w, r, &req) {
		return
	}

	invoice, err := h.invoiceService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create document")
		return
	}

	w.Header().Set("Location", "/api/v1/invoices/"+invoice.ID.String())
	respondJSON(w, http.StatusCreated, invoice)
}

// GetByID godoc
// @Summary Get quote or invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Success 200 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "load document")
		return
	}
	respondJSON(w, http.StatusOK, invoice)
}

// UpdateItems godoc
// @Summary Replace line items
// @Description Replace the line items of a DRAFT document and recompute its totals
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Param request body domain.UpdateInvoiceItemsRequest true "Line items"
// @Success 200 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Document is no longer a draft"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/items [put]
func (h *InvoiceHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}
	var req domain.UpdateInvoiceItemsRequest
	if !decode(w, r, &req) {
		return
	}

	invoice, err := h.invoiceService.UpdateItems(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update items")
		return
	}
	respondJSON(w, http.StatusOK, invoice)
}

// LinkProject godoc
// @Summary Link document to project
// @Description Attach the document to a project, or detach it with a null projectId. Linking a quote moves a project in the SOW stage to QUOTATION.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Param request body domain.LinkProjectRequest true "Target project"
// @Success 200 {object} domain.ActionResult{data=domain.InvoiceDTO}
// @Failure 404 {object} domain.ActionResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/project [put]
func (h *InvoiceHandler) LinkProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}
	var req domain.LinkProjectRequest
	if !decode(w, r, &req) {
		return
	}

	invoice, err := h.linker.LinkInvoiceToProject(r.Context(), id, req.ProjectID)
	respondAction(w, h.logger, http.StatusOK, invoice, err, "link document")
}

// UpdateDetails godoc
// @Summary Update document details
// @Description Update site, reference, quote number and date. A quote number with a numeric suffix moves the matching counter; a reference renames the linked project.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Param request body domain.UpdateDocumentDetailsRequest true "Fields to change"
// @Success 200 {object} domain.ActionResult{data=domain.InvoiceDTO}
// @Failure 404 {object} domain.ActionResult
// @Failure 409 {object} domain.ActionResult "Number already used"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/details [put]
func (h *InvoiceHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}
	var req domain.UpdateDocumentDetailsRequest
	if !decode(w, r, &req) {
		return
	}

	invoice, err := h.linker.UpdateDocumentDetails(r.Context(), id, &req)
	respondAction(w, h.logger, http.StatusOK, invoice, err, "update document details")
}

// Issue godoc
// @Summary Issue document
// @Description Allocate the next number and move the document out of DRAFT: quotes become SENT, invoices INVOICED
// @Tags Invoices
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Success 200 {object} domain.ActionResult{data=domain.InvoiceDTO}
// @Failure 404 {object} domain.ActionResult
// @Failure 409 {object} domain.ActionResult "Already issued"
// @Failure 500 {object} domain.ActionResult "Company settings missing"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/issue [post]
func (h *InvoiceHandler) Issue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Issue(r.Context(), id)
	respondAction(w, h.logger, http.StatusOK, invoice, err, "issue document")
}

// Send godoc
// @Summary Send document to client
// @Description Issue the document if needed and email it to the client. A failed email is reported in the result; the document stays issued.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Param request body domain.SendInvoiceRequest false "Recipient and message overrides"
// @Success 200 {object} domain.ActionResult{data=domain.SendInvoiceResultDTO}
// @Failure 400 {object} domain.ActionResult "No recipient"
// @Failure 404 {object} domain.ActionResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}
	var req domain.SendInvoiceRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	result, err := h.invoiceService.Send(r.Context(), id, &req)
	respondAction(w, h.logger, http.StatusOK, result, err, "send document")
}

// Convert godoc
// @Summary Convert quote to invoice
// @Description Create a draft invoice from an issued quote and mark the quote INVOICED
// @Tags Invoices
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 201 {object} domain.ActionResult{data=domain.InvoiceDTO}
// @Failure 400 {object} domain.ActionResult "Not a quote"
// @Failure 404 {object} domain.ActionResult
// @Failure 409 {object} domain.ActionResult "Quote not sent or already converted"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/convert [post]
func (h *InvoiceHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "quote")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.ConvertQuoteToInvoice(r.Context(), id)
	respondAction(w, h.logger, http.StatusCreated, invoice, err, "convert quote")
}

// RecordPayment godoc
// @Summary Record a payment
// @Description Record a payment against an issued invoice. Full coverage marks it PAID and advances the project.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID" format(uuid)
// @Param request body domain.RecordPaymentRequest true "Payment"
// @Success 200 {object} domain.ActionResult{data=domain.InvoiceDTO}
// @Failure 400 {object} domain.ActionResult
// @Failure 404 {object} domain.ActionResult
// @Failure 409 {object} domain.ActionResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "invoice")
	if !ok {
		return
	}
	var req domain.RecordPaymentRequest
	if !decode(w, r, &req) {
		return
	}

	invoice, err := h.invoiceService.RecordPayment(r.Context(), id, &req)
	respondAction(w, h.logger, http.StatusOK, invoice, err, "record payment")
}

// History godoc
// @Summary Document submission history
// @Tags Invoices
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Success 200 {array} domain.SubmissionLogDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/history [get]
func (h *InvoiceHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}

	history, err := h.invoiceService.History(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "load history")
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// Delete godoc
// @Summary Delete draft
// @Description Only DRAFT documents can be deleted; issued numbers are never released
// @Tags Invoices
// @Param id path string true "Document ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "document")
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
