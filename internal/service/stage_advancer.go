package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/metrics"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxStageAttempts = 3

// StageAdvancer persists workflow events on projects using the transition
// table in domain.Advance. Events that do not apply are logged and ignored.
type StageAdvancer struct {
	projectRepo *repository.ProjectRepository
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewStageAdvancer creates a new StageAdvancer
func NewStageAdvancer(projectRepo *repository.ProjectRepository, m *metrics.Metrics, logger *zap.Logger) *StageAdvancer {
	return &StageAdvancer{
		projectRepo: projectRepo,
		metrics:     m,
		logger:      logger,
	}
}

// Apply applies ev to the project. tx may be nil. The write is a
// compare-and-swap on the state that was read; when another writer got there
// first the project is re-read and the event re-evaluated.
func (a *StageAdvancer) Apply(ctx context.Context, tx *gorm.DB, companyID, projectID uuid.UUID, ev domain.WorkflowEvent) (domain.Transition, error) {
	for attempt := 1; attempt <= maxStageAttempts; attempt++ {
		project, err := a.projectRepo.GetByID(ctx, tx, companyID, projectID)
		if err != nil {
			return domain.Transition{}, translate(err, "project")
		}

		current := domain.ProjectState{Status: project.Status, Stage: project.WorkflowStage}
		t := domain.Advance(current, ev)
		if !t.Applied {
			a.metrics.ObserveTransition(string(ev.Type), string(current.Stage), string(current.Stage), false)
			a.logger.Info("workflow event ignored",
				zap.String("project_id", projectID.String()),
				zap.String("event", string(ev.Type)),
				zap.String("stage", string(current.Stage)),
				zap.String("status", string(current.Status)),
				zap.String("reason", t.Reason))
			return t, nil
		}

		err = a.projectRepo.UpdateWorkflowState(ctx, tx, companyID, projectID, t.From, t.To)
		if errors.Is(err, repository.ErrStaleProjectState) {
			a.logger.Debug("project state changed concurrently, retrying",
				zap.String("project_id", projectID.String()),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return domain.Transition{}, fmt.Errorf("failed to update project stage: %w", err)
		}

		a.metrics.ObserveTransition(string(ev.Type), string(t.From.Stage), string(t.To.Stage), true)
		a.logger.Info("project advanced",
			zap.String("project_id", projectID.String()),
			zap.String("event", string(ev.Type)),
			zap.String("from_stage", string(t.From.Stage)),
			zap.String("to_stage", string(t.To.Stage)),
			zap.String("from_status", string(t.From.Status)),
			zap.String("to_status", string(t.To.Status)))
		return t, nil
	}
	return domain.Transition{}, fmt.Errorf("%w: project %s kept changing", ErrConflict, projectID)
}
