package handler

import (
	"net/http"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"go.uber.org/zap"
)

// SOWHandler serves scopes of work and the pricing sheets derived from them
type SOWHandler struct {
	sowService *service.SOWService
	logger     *zap.Logger
}

func NewSOWHandler(sowService *service.SOWService, logger *zap.Logger) *SOWHandler {
	return &SOWHandler{
		sowService: sowService,
		logger:     logger,
	}
}

// CreateDraft godoc
// @Summary Save SOW draft
// @Description Store a new draft version of the project's scope. Does not move the project.
// @Tags SOW
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Param request body domain.CreateSOWDraftRequest true "Scope items"
// @Success 201 {object} domain.SOWDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/sow/draft [post]
func (h *SOWHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}
	var req domain.CreateSOWDraftRequest
	if !decode(w, r, &req) {
		return
	}

	sow, err := h.sowService.CreateDraft(r.Context(), projectID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "save SOW draft")
		return
	}
	respondJSON(w, http.StatusCreated, sow)
}

// Submit godoc
// @Summary Submit SOW
// @Description Submit the project's scope. Creates a draft pricing sheet seeded with learned prices and moves the project from SOW to QUOTATION.
// @Tags SOW
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Param request body domain.SubmitSOWRequest true "Scope items"
// @Success 201 {object} domain.ActionResult{data=domain.SubmitSOWResultDTO}
// @Failure 400 {object} domain.ActionResult
// @Failure 404 {object} domain.ActionResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/sow/submit [post]
func (h *SOWHandler) Submit(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}
	var req domain.SubmitSOWRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.sowService.Submit(r.Context(), projectID, &req)
	respondAction(w, h.logger, http.StatusCreated, result, err, "submit SOW")
}

// Current godoc
// @Summary Get current SOW
// @Description Latest version of the project's scope
// @Tags SOW
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {object} domain.SOWDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/sow [get]
func (h *SOWHandler) Current(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	sow, err := h.sowService.Current(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, h.logger, err, "load SOW")
		return
	}
	respondJSON(w, http.StatusOK, sow)
}

// Versions godoc
// @Summary List SOW versions
// @Tags SOW
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {array} domain.SOWDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/sow/versions [get]
func (h *SOWHandler) Versions(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	versions, err := h.sowService.Versions(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list SOW versions")
		return
	}
	respondJSON(w, http.StatusOK, versions)
}

// ListWBP godoc
// @Summary List pricing sheets
// @Tags SOW
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {array} domain.WBPDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/wbp [get]
func (h *SOWHandler) ListWBP(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	sheets, err := h.sowService.ListWBP(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list pricing sheets")
		return
	}
	respondJSON(w, http.StatusOK, sheets)
}

// GetWBP godoc
// @Summary Get pricing sheet
// @Tags SOW
// @Produce json
// @Param id path string true "Pricing sheet ID" format(uuid)
// @Success 200 {object} domain.WBPDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /wbp/{id} [get]
func (h *SOWHandler) GetWBP(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "pricing sheet")
	if !ok {
		return
	}

	sheet, err := h.sowService.GetWBP(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "load pricing sheet")
		return
	}
	respondJSON(w, http.StatusOK, sheet)
}

// UpdatePricing godoc
// @Summary Update pricing sheet
// @Description Replace the priced lines of a draft pricing sheet
// @Tags SOW
// @Accept json
// @Produce json
// @Param id path string true "Pricing sheet ID" format(uuid)
// @Param request body domain.UpdateWBPRequest true "Priced lines"
// @Success 200 {object} domain.WBPDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Sheet already finalized"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /wbp/{id} [put]
func (h *SOWHandler) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "pricing sheet")
	if !ok {
		return
	}
	var req domain.UpdateWBPRequest
	if !decode(w, r, &req) {
		return
	}

	sheet, err := h.sowService.UpdatePricing(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update pricing sheet")
		return
	}
	respondJSON(w, http.StatusOK, sheet)
}

// FinalizePricing godoc
// @Summary Finalize pricing sheet
// @Description Create a draft quote from the pricing sheet and link it to the project
// @Tags SOW
// @Accept json
// @Produce json
// @Param id path string true "Pricing sheet ID" format(uuid)
// @Param request body domain.FinalizeWBPRequest false "Quote details"
// @Success 201 {object} domain.ActionResult{data=domain.InvoiceDTO}
// @Failure 404 {object} domain.ActionResult
// @Failure 409 {object} domain.ActionResult
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /wbp/{id}/finalize [post]
func (h *SOWHandler) FinalizePricing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "pricing sheet")
	if !ok {
		return
	}
	var req domain.FinalizeWBPRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	quote, err := h.sowService.FinalizePricing(r.Context(), id, &req)
	respondAction(w, h.logger, http.StatusCreated, quote, err, "finalize pricing")
}
