package handler

import (
	"net/http"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"go.uber.org/zap"
)

// AuthHandler serves the identity endpoints. Both work before the caller
// belongs to a company.
type AuthHandler struct {
	companyService *service.CompanyService
	logger         *zap.Logger
}

func NewAuthHandler(companyService *service.CompanyService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		companyService: companyService,
		logger:         logger,
	}
}

// Signup godoc
// @Summary Sign up
// @Description Provision the caller's company from their email domain. The first user of a domain creates the company and becomes its admin; later users join it as members. Repeating the call is harmless.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.SignupRequest false "Optional company name"
// @Success 201 {object} domain.AuthUserDTO "Company created"
// @Success 200 {object} domain.AuthUserDTO "Joined or already a member"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	result, err := h.companyService.Signup(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "sign up")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respondJSON(w, status, result)
}

// Me godoc
// @Summary Get current user
// @Description Get the authenticated user together with their company and its settings
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.AuthUserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.companyService.Me(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "load current user")
		return
	}
	respondJSON(w, http.StatusOK, me)
}
