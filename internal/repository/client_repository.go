package repository

import (
	"context"
	"strings"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	err := Scoped(r.db.WithContext(ctx), companyID).Where("id = ?", id).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	result := Scoped(r.db.WithContext(ctx), client.CompanyID).
		Model(&domain.Client{}).
		Where("id = ?", client.ID).
		Select("name", "email", "phone", "address", "vat_number", "notes", "updated_at").
		Updates(client)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := Scoped(r.db.WithContext(ctx), companyID).Delete(&domain.Client{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ClientRepository) List(ctx context.Context, companyID uuid.UUID, page, pageSize int, search string) ([]domain.Client, int64, error) {
	var clients []domain.Client
	var total int64

	query := Scoped(r.db.WithContext(ctx).Model(&domain.Client{}), companyID)

	if search != "" {
		searchPattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\'", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("name ASC").Find(&clients).Error

	return clients, total, err
}

// CountReferences returns how many projects and documents point at a client
func (r *ClientRepository) CountReferences(ctx context.Context, companyID, clientID uuid.UUID) (int64, error) {
	var projects, invoices int64
	if err := Scoped(r.db.WithContext(ctx).Model(&domain.Project{}), companyID).
		Where("client_id = ?", clientID).Count(&projects).Error; err != nil {
		return 0, err
	}
	if err := Scoped(r.db.WithContext(ctx).Model(&domain.Invoice{}), companyID).
		Where("client_id = ?", clientID).Count(&invoices).Error; err != nil {
		return 0, err
	}
	return projects + invoices, nil
}
