package handler

import (
	"net/http"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"go.uber.org/zap"
)

type SubmissionHandler struct {
	logService *service.SubmissionLogService
	logger     *zap.Logger
}

func NewSubmissionHandler(logService *service.SubmissionLogService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		logService: logService,
		logger:     logger,
	}
}

// List godoc
// @Summary List submission log
// @Description Submissions, issues, payments, emails and counter resets of the company, newest first
// @Tags Submissions
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param type query string false "Entry type" Enums(SOW, QUOTE, INVOICE, PAYMENT, EMAIL, NUMBER_RESET)
// @Param documentId query string false "Filter by document ID" format(uuid)
// @Param startDate query string false "Entries at or after (RFC 3339)"
// @Param endDate query string false "Entries at or before (RFC 3339)"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.SubmissionLogDTO}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /submissions [get]
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	q := r.URL.Query()

	filter := &repository.SubmissionLogFilter{DocumentID: queryUUID(r, "documentId")}
	if t := q.Get("type"); t != "" {
		typ := domain.SubmissionType(t)
		filter.Type = &typ
	}
	if s := q.Get("startDate"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid startDate: must be RFC 3339")
			return
		}
		filter.StartTime = &t
	}
	if s := q.Get("endDate"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid endDate: must be RFC 3339")
			return
		}
		filter.EndTime = &t
	}

	result, err := h.logService.List(r.Context(), filter, page, pageSize)
	if err != nil {
		handleServiceError(w, h.logger, err, "list submissions")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
