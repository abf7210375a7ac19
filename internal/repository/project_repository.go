package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStaleProjectState is returned when a workflow update lost a race with
// another writer; the caller should re-read and re-apply the event.
var ErrStaleProjectState = errors.New("project workflow state changed concurrently")

// ProjectFilters holds filter options for listing projects
type ProjectFilters struct {
	ClientID      *uuid.UUID
	Status        *domain.ProjectStatus
	WorkflowStage *domain.WorkflowStage
	Search        string
}

// projectSortFields maps API field names to columns
var projectSortFields = map[string]string{
	"name":          "name",
	"status":        "status",
	"workflowStage": "workflow_stage",
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
}

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// GetByID loads a project of the company, with its client
func (r *ProjectRepository) GetByID(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := Scoped(conn(r.db, tx).WithContext(ctx), companyID).
		Preload("Client").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Update writes the user-editable columns. Workflow columns are excluded
// and only change through UpdateWorkflowState.
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	project.UpdatedAt = time.Now()
	result := Scoped(r.db.WithContext(ctx), project.CompanyID).
		Model(&domain.Project{}).
		Where("id = ?", project.ID).
		Select("name", "description", "status", "commercial_status", "po_number", "updated_at").
		Updates(project)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Rename sets the project's display name
func (r *ProjectRepository) Rename(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID, name string) error {
	result := Scoped(conn(r.db, tx).WithContext(ctx), companyID).
		Model(&domain.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":       name,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateWorkflowState moves a project from one workflow state to another.
// The update only applies if the row still holds from, which makes it a
// compare-and-swap; ErrStaleProjectState signals a lost race.
func (r *ProjectRepository) UpdateWorkflowState(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID, from, to domain.ProjectState) error {
	result := Scoped(conn(r.db, tx).WithContext(ctx), companyID).
		Model(&domain.Project{}).
		Where("id = ? AND status = ? AND workflow_stage = ?", id, from.Status, from.Stage).
		Updates(map[string]interface{}{
			"status":         to.Status,
			"workflow_stage": to.Stage,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleProjectState
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := Scoped(r.db.WithContext(ctx), companyID).Delete(&domain.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns a page of projects matching the filters
func (r *ProjectRepository) List(ctx context.Context, companyID uuid.UUID, page, pageSize int, filters *ProjectFilters, sort SortConfig) ([]domain.Project, int64, error) {
	var projects []domain.Project
	var total int64

	query := Scoped(r.db.WithContext(ctx).Model(&domain.Project{}), companyID)

	if filters != nil {
		if filters.ClientID != nil {
			query = query.Where("client_id = ?", *filters.ClientID)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.WorkflowStage != nil {
			query = query.Where("workflow_stage = ?", *filters.WorkflowStage)
		}
		if filters.Search != "" {
			searchPattern := "%" + escapeLike(strings.ToLower(filters.Search)) + "%"
			query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", searchPattern)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Client").
		Order(BuildOrderClause(sort, projectSortFields, "updated_at")).
		Offset(offset).
		Limit(pageSize).
		Find(&projects).Error

	return projects, total, err
}

// CountDocuments returns the number of quotes and invoices linked to a project
func (r *ProjectRepository) CountDocuments(ctx context.Context, companyID, projectID uuid.UUID) (int64, error) {
	var count int64
	err := Scoped(r.db.WithContext(ctx).Model(&domain.Invoice{}), companyID).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count, err
}
