package handler

import (
	"fmt"
	"net/http"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"go.uber.org/zap"
)

// ScopeHandler turns free text and voice notes into candidate line items
type ScopeHandler struct {
	scopeService *service.ScopeService
	maxUploadMB  int64
	logger       *zap.Logger
}

func NewScopeHandler(scopeService *service.ScopeService, maxUploadMB int64, logger *zap.Logger) *ScopeHandler {
	return &ScopeHandler{
		scopeService: scopeService,
		maxUploadMB:  maxUploadMB,
		logger:       logger,
	}
}

// ParseText godoc
// @Summary Parse scope text
// @Description Extract line items from free text with learned prices filled in. When the AI is off or fails, the text comes back as one placeholder item.
// @Tags Scope
// @Accept json
// @Produce json
// @Param request body domain.ParseScopeRequest true "Scope text"
// @Success 200 {object} domain.ParseScopeResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /scope/parse [post]
func (h *ScopeHandler) ParseText(w http.ResponseWriter, r *http.Request) {
	var req domain.ParseScopeRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.scopeService.ParseText(r.Context(), req.Text)
	if err != nil {
		handleServiceError(w, h.logger, err, "parse scope")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ParseVoiceNote godoc
// @Summary Upload and parse a voice note
// @Description Store a voice note on the project, transcribe it and parse the transcript. The recording is kept even when transcription fails.
// @Tags Scope
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Param file formData file true "Audio recording"
// @Success 201 {object} domain.ParseScopeResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 502 {object} domain.APIError "Storage unavailable"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/voice-notes [post]
func (h *ScopeHandler) ParseVoiceNote(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	limit := h.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	result, err := h.scopeService.ParseVoiceNote(r.Context(), projectID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		handleServiceError(w, h.logger, err, "process voice note")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}
