package handler

import (
	"net/http"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projectService *service.ProjectService
	logger         *zap.Logger
}

func NewProjectHandler(projectService *service.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// List godoc
// @Summary List projects
// @Description Get paginated list of projects with optional filters
// @Tags Projects
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param clientId query string false "Filter by client ID" format(uuid)
// @Param status query string false "Filter by status" Enums(SOW, QUOTED, IN_PROGRESS, COMPLETED, ON_HOLD, CANCELLED)
// @Param workflowStage query string false "Filter by workflow stage" Enums(SOW, QUOTATION, INVOICE, PAYMENT, COMPLETED)
// @Param search query string false "Search by name"
// @Param sortBy query string false "Sort field" Enums(name, status, workflowStage, createdAt, updatedAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ProjectDTO}
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects [get]
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	q := r.URL.Query()
	filters := &repository.ProjectFilters{
		ClientID: queryUUID(r, "clientId"),
		Search:   q.Get("search"),
	}
	if s := q.Get("status"); s != "" {
		status := domain.ProjectStatus(s)
		filters.Status = &status
	}
	if s := q.Get("workflowStage"); s != "" {
		stage := domain.WorkflowStage(s)
		filters.WorkflowStage = &stage
	}

	result, err := h.projectService.List(r.Context(), page, pageSize, filters, sortConfig(r))
	if err != nil {
		handleServiceError(w, h.logger, err, "list projects")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create project
// @Description Create a project for a client. It starts in the SOW stage awaiting a PO unless a commercial status is given.
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body domain.CreateProjectRequest true "Project data"
// @Success 201 {object} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Client not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects [post]
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProjectRequest
	if !decode(w, r, &req) {
		return
	}

	project, err := h.projectService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create project")
		return
	}

	w.Header().Set("Location", "/api/v1/projects/"+project.ID.String())
	respondJSON(w, http.StatusCreated, project)
}

// GetByID godoc
// @Summary Get project by ID
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {object} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "load project")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// Update godoc
// @Summary Update project
// @Description Update the editable project fields. Status accepts only ON_HOLD or CANCELLED; the workflow stage moves with documents, never by hand.
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Param request body domain.UpdateProjectRequest true "Fields to change"
// @Success 200 {object} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}
	var req domain.UpdateProjectRequest
	if !decode(w, r, &req) {
		return
	}

	project, err := h.projectService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update project")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// Delete godoc
// @Summary Delete project
// @Description Refused while quotes or invoices belong to the project
// @Tags Projects
// @Param id path string true "Project ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Attachments godoc
// @Summary List project attachments
// @Description Voice notes and photos uploaded against the project
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {array} domain.AttachmentDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/attachments [get]
func (h *ProjectHandler) Attachments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	attachments, err := h.projectService.Attachments(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list attachments")
		return
	}
	respondJSON(w, http.StatusOK, attachments)
}
