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

// ClientService handles business logic for clients
type ClientService struct {
	clientRepo      *repository.ClientRepository
	interactionRepo *repository.InteractionRepository
	logger          *zap.Logger
}

// NewClientService creates a new client service
func NewClientService(
	clientRepo *repository.ClientRepository,
	interactionRepo *repository.InteractionRepository,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		clientRepo:      clientRepo,
		interactionRepo: interactionRepo,
		logger:          logger,
	}
}

// Create creates a new client in the caller's company
func (s *ClientService) Create(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}

	client := &domain.Client{
		CompanyID: companyID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		VATNumber: req.VATNumber,
		Notes:     req.Notes,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, translate(err, "create client")
	}

	s.logger.Info("client created", zap.String("client_id", client.ID.String()), zap.String("name", client.Name))
	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// GetByID retrieves a client
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, translate(err, "client")
	}
	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// Update replaces a client's details
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateClientRequest) (*domain.ClientDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, translate(err, "client")
	}

	client.Name = req.Name
	client.Email = req.Email
	client.Phone = req.Phone
	client.Address = req.Address
	client.VATNumber = req.VATNumber
	client.Notes = req.Notes

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, translate(err, "update client")
	}
	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// Delete removes a client that no project or document refers to
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return err
	}
	refs, err := s.clientRepo.CountReferences(ctx, companyID, id)
	if err != nil {
		return fmt.Errorf("failed to check client references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: client has %d projects or documents", ErrConflict, refs)
	}
	if err := s.clientRepo.Delete(ctx, companyID, id); err != nil {
		return translate(err, "client")
	}
	s.logger.Info("client deleted", zap.String("client_id", id.String()))
	return nil
}

// List returns a page of clients
func (s *ClientService) List(ctx context.Context, page, pageSize int, search string) (*domain.PaginatedResponse, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	page, pageSize = repository.NormalizePagination(page, pageSize)

	clients, total, err := s.clientRepo.List(ctx, companyID, page, pageSize, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	dtos := make([]domain.ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = mapper.ToClientDTO(&clients[i])
	}
	return paginated(dtos, total, page, pageSize), nil
}

// Interactions returns the client's interaction history, newest first
func (s *ClientService) Interactions(ctx context.Context, clientID uuid.UUID, limit int) ([]domain.InteractionDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.clientRepo.GetByID(ctx, companyID, clientID); err != nil {
		return nil, translate(err, "client")
	}
	if limit <= 0 || limit > repository.MaxPageSize {
		limit = 50
	}
	items, err := s.interactionRepo.ListByClient(ctx, companyID, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	dtos := make([]domain.InteractionDTO, len(items))
	for i := range items {
		dtos[i] = mapper.ToInteractionDTO(&items[i])
	}
	return dtos, nil
}

// RecordInteraction adds a manual entry (call, meeting, note) to a client's history
func (s *ClientService) RecordInteraction(ctx context.Context, req *domain.CreateInteractionRequest) (*domain.InteractionDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.clientRepo.GetByID(ctx, companyID, req.ClientID); err != nil {
		return nil, translate(err, "client")
	}

	_, byName := actor(ctx)
	occurred := timeOrNow(req.OccurredAt)
	interaction := &domain.Interaction{
		CompanyID:  companyID,
		ClientID:   req.ClientID,
		ProjectID:  req.ProjectID,
		Type:       req.Type,
		Subject:    req.Subject,
		Body:       req.Body,
		OccurredAt: occurred,
		CreatedBy:  byName,
	}
	if err := s.interactionRepo.Create(ctx, nil, interaction); err != nil {
		return nil, translate(err, "record interaction")
	}
	dto := mapper.ToInteractionDTO(interaction)
	return &dto, nil
}
