package handler

import (
	"net/http"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"go.uber.org/zap"
)

type CompanyHandler struct {
	companyService   *service.CompanyService
	numberingService *service.NumberingService
	logger           *zap.Logger
}

func NewCompanyHandler(companyService *service.CompanyService, numberingService *service.NumberingService, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		companyService:   companyService,
		numberingService: numberingService,
		logger:           logger,
	}
}

// GetSettings godoc
// @Summary Get company settings
// @Tags Company
// @Produce json
// @Success 200 {object} domain.CompanySettingsDTO
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /company/settings [get]
func (h *CompanyHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.companyService.GetSettings(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "load settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary Update company settings
// @Description Update branding, banking, VAT rate and AI toggle. Document counters are changed through the numbering endpoint. Requires admin.
// @Tags Company
// @Accept json
// @Produce json
// @Param request body domain.UpdateCompanySettingsRequest true "Fields to change"
// @Success 200 {object} domain.CompanySettingsDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /company/settings [put]
func (h *CompanyHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateCompanySettingsRequest
	if !decode(w, r, &req) {
		return
	}

	settings, err := h.companyService.UpdateSettings(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// Users godoc
// @Summary List company users
// @Tags Company
// @Produce json
// @Success 200 {array} domain.UserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /company/users [get]
func (h *CompanyHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.companyService.Users(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// GetNumbering godoc
// @Summary Get document numbering
// @Description Last issued quote and invoice numbers and the names the next documents will get
// @Tags Company
// @Produce json
// @Success 200 {object} domain.NumberingDTO
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /company/numbering [get]
func (h *CompanyHandler) GetNumbering(w http.ResponseWriter, r *http.Request) {
	numbering, err := h.numberingService.Current(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "load numbering")
		return
	}
	respondJSON(w, http.StatusOK, numbering)
}

// SetNumbering godoc
// @Summary Reset a document counter
// @Description Set the last issued number of the quote or invoice sequence. The next document gets number+1. Requires admin.
// @Tags Company
// @Accept json
// @Produce json
// @Param request body domain.SetNumberRequest true "Sequence and value"
// @Success 200 {object} domain.ActionResult{data=domain.NumberingDTO}
// @Failure 400 {object} domain.ActionResult
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /company/numbering [put]
func (h *CompanyHandler) SetNumbering(w http.ResponseWriter, r *http.Request) {
	var req domain.SetNumberRequest
	if !decode(w, r, &req) {
		return
	}

	numbering, err := h.numberingService.Reset(r.Context(), &req)
	respondAction(w, h.logger, http.StatusOK, numbering, err, "reset numbering")
}
