package handler

import (
	"net/http"
	"strconv"

	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"go.uber.org/zap"
)

type PricingHandler struct {
	pricingService *service.PricingService
	logger         *zap.Logger
}

func NewPricingHandler(pricingService *service.PricingService, logger *zap.Logger) *PricingHandler {
	return &PricingHandler{
		pricingService: pricingService,
		logger:         logger,
	}
}

// Suggest godoc
// @Summary Suggest prices
// @Description Learned prices whose description contains every word of q, most used first
// @Tags Pricing
// @Produce json
// @Param q query string true "Item description"
// @Param limit query int false "Maximum suggestions" default(10)
// @Success 200 {array} domain.PricingKnowledgeDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pricing/suggest [get]
func (h *PricingHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	suggestions, err := h.pricingService.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		handleServiceError(w, h.logger, err, "suggest prices")
		return
	}
	respondJSON(w, http.StatusOK, suggestions)
}

// List godoc
// @Summary List pricing knowledge
// @Tags Pricing
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by description"
// @Param category query string false "Filter by category"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PricingKnowledgeDTO}
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pricing [get]
func (h *PricingHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	q := r.URL.Query()

	result, err := h.pricingService.List(r.Context(), page, pageSize, q.Get("search"), q.Get("category"))
	if err != nil {
		handleServiceError(w, h.logger, err, "list pricing knowledge")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Delete godoc
// @Summary Forget a learned price
// @Tags Pricing
// @Param id path string true "Pricing entry ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pricing/{id} [delete]
func (h *PricingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "pricing entry")
	if !ok {
		return
	}

	if err := h.pricingService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete pricing entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
