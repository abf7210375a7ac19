package service

import (
	"context"
	"fmt"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/mapper"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProjectService handles business logic for projects. The workflow stage
// is not editable here; it moves only through StageAdvancer.
type ProjectService struct {
	projectRepo    *repository.ProjectRepository
	clientRepo     *repository.ClientRepository
	attachmentRepo *repository.AttachmentRepository
	logger         *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo *repository.ProjectRepository,
	clientRepo *repository.ClientRepository,
	attachmentRepo *repository.AttachmentRepository,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo:    projectRepo,
		clientRepo:     clientRepo,
		attachmentRepo: attachmentRepo,
		logger:         logger,
	}
}

// Create creates a project at the start of the workflow
func (s *ProjectService) Create(ctx context.Context, req *domain.CreateProjectRequest) (*domain.ProjectDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}

	client, err := s.clientRepo.GetByID(ctx, companyID, req.ClientID)
	if err != nil {
		return nil, translate(err, "client")
	}

	commercial := req.CommercialStatus
	if commercial == "" {
		commercial = domain.CommercialStatusAwaitingPO
	}

	project := &domain.Project{
		CompanyID:        companyID,
		ClientID:         client.ID,
		Client:           client,
		Name:             req.Name,
		Description:      req.Description,
		Status:           domain.ProjectStatusSOW,
		WorkflowStage:    domain.WorkflowStageSOW,
		CommercialStatus: commercial,
		PONumber:         req.PONumber,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, translate(err, "create project")
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("client_id", client.ID.String()))

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// GetByID retrieves a project with its client name
func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, nil, companyID, id)
	if err != nil {
		return nil, translate(err, "project")
	}
	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// Update changes the user-editable fields of a project. Status may only be
// set to ON_HOLD or CANCELLED; the other statuses follow workflow events.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProjectRequest) (*domain.ProjectDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, nil, companyID, id)
	if err != nil {
		return nil, translate(err, "project")
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.CommercialStatus != nil {
		if !req.CommercialStatus.IsValid() {
			return nil, fmt.Errorf("%w: unknown commercial status %q", ErrInvalidInput, *req.CommercialStatus)
		}
		project.CommercialStatus = *req.CommercialStatus
	}
	if req.PONumber != nil {
		project.PONumber = *req.PONumber
	}
	if req.Status != nil {
		switch *req.Status {
		case domain.ProjectStatusOnHold, domain.ProjectStatusCancelled:
			project.Status = *req.Status
		default:
			return nil, fmt.Errorf("%w: status %s is set by the workflow", ErrInvalidTransition, *req.Status)
		}
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, translate(err, "update project")
	}
	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// Delete removes a project that has no quotes or invoices
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return err
	}
	docs, err := s.projectRepo.CountDocuments(ctx, companyID, id)
	if err != nil {
		return fmt.Errorf("failed to count project documents: %w", err)
	}
	if docs > 0 {
		return fmt.Errorf("%w: project has %d quotes or invoices", ErrConflict, docs)
	}
	if err := s.projectRepo.Delete(ctx, companyID, id); err != nil {
		return translate(err, "project")
	}
	s.logger.Info("project deleted", zap.String("project_id", id.String()))
	return nil
}

// List returns a page of projects
func (s *ProjectService) List(ctx context.Context, page, pageSize int, filters *repository.ProjectFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	page, pageSize = repository.NormalizePagination(page, pageSize)

	projects, total, err := s.projectRepo.List(ctx, companyID, page, pageSize, filters, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	dtos := make([]domain.ProjectDTO, len(projects))
	for i := range projects {
		dtos[i] = mapper.ToProjectDTO(&projects[i])
	}
	return paginated(dtos, total, page, pageSize), nil
}

// Attachments lists the files uploaded to a project
func (s *ProjectService) Attachments(ctx context.Context, projectID uuid.UUID) ([]domain.AttachmentDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.GetByID(ctx, nil, companyID, projectID); err != nil {
		return nil, translate(err, "project")
	}
	attachments, err := s.attachmentRepo.ListByProject(ctx, companyID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	dtos := make([]domain.AttachmentDTO, len(attachments))
	for i := range attachments {
		dtos[i] = mapper.ToAttachmentDTO(&attachments[i])
	}
	return dtos, nil
}
