package repository

import (
	"context"
	"strings"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, tx *gorm.DB, user *domain.User) error {
	user.Email = strings.ToLower(user.Email)
	return conn(r.db, tx).WithContext(ctx).Create(user).Error
}

// GetByAuthSubject finds the user linked to an auth provider subject
func (r *UserRepository) GetByAuthSubject(ctx context.Context, subject string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("auth_subject = ?", subject).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := Scoped(r.db.WithContext(ctx), companyID).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByCompany returns the members of a company
func (r *UserRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.User, error) {
	var users []domain.User
	err := Scoped(r.db.WithContext(ctx), companyID).Order("created_at ASC").Find(&users).Error
	return users, err
}
