package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Uthmaanravat/UROps-sub001/internal/auth"
	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/mapper"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var defaultVATRate = decimal.NewFromInt(15)

// CompanyService provisions tenants and manages their settings. A company
// is identified by the email domain of its users.
type CompanyService struct {
	db          *gorm.DB
	companyRepo *repository.CompanyRepository
	userRepo    *repository.UserRepository
	logger      *zap.Logger
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(
	db *gorm.DB,
	companyRepo *repository.CompanyRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *CompanyService {
	return &CompanyService{
		db:          db,
		companyRepo: companyRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// Signup attaches the authenticated identity to a company. The first user
// of an email domain creates the company, its settings row and becomes its
// admin; later users of the domain join as members. Signing up again is a
// no-op that returns the existing membership.
func (s *CompanyService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.AuthUserDTO, error) {
	identity, ok := auth.FromContext(ctx)
	if !ok || identity.Subject == "" {
		return nil, ErrUnauthorized
	}

	if _, err := s.userRepo.GetByAuthSubject(ctx, identity.Subject); err == nil {
		return s.Me(ctx)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	emailDomain, err := domainOf(identity.Email)
	if err != nil {
		return nil, err
	}

	var user *domain.User
	created := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := s.companyRepo.GetByDomain(ctx, tx, emailDomain)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			name := ""
			if req != nil {
				name = strings.TrimSpace(req.CompanyName)
			}
			if name == "" {
				name = emailDomain
			}
			company = &domain.Company{Name: name, Domain: emailDomain}
			if err := s.companyRepo.Create(ctx, tx, company); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicateDomain
				}
				return fmt.Errorf("failed to create company: %w", err)
			}
			if err := s.companyRepo.CreateSettings(ctx, tx, &domain.CompanySettings{
				CompanyID: company.ID,
				Email:     identity.Email,
				VATRate:   defaultVATRate,
				AIEnabled: true,
			}); err != nil {
				return fmt.Errorf("failed to create company settings: %w", err)
			}
			created = true
		case err != nil:
			return fmt.Errorf("failed to look up company: %w", err)
		}

		role := domain.UserRoleMember
		if created {
			role = domain.UserRoleAdmin
		}
		user = &domain.User{
			CompanyID:   company.ID,
			AuthSubject: identity.Subject,
			Email:       strings.ToLower(identity.Email),
			Name:        identity.DisplayName,
			Role:        role,
		}
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return translate(err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up",
		zap.String("company_id", user.CompanyID.String()),
		zap.String("user_id", user.ID.String()),
		zap.Bool("company_created", created))

	dto, err := s.membership(ctx, user)
	if err != nil {
		return nil, err
	}
	dto.Created = created
	return dto, nil
}

// Me returns the caller's user, company and settings
func (s *CompanyService) Me(ctx context.Context) (*domain.AuthUserDTO, error) {
	identity, ok := auth.FromContext(ctx)
	if !ok || identity.Subject == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.userRepo.GetByAuthSubject(ctx, identity.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: sign up first", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return s.membership(ctx, user)
}

func (s *CompanyService) membership(ctx context.Context, user *domain.User) (*domain.AuthUserDTO, error) {
	company, err := s.companyRepo.GetByID(ctx, user.CompanyID)
	if err != nil {
		return nil, translate(err, "company")
	}
	dto := &domain.AuthUserDTO{
		User:    mapper.ToUserDTO(user),
		Company: mapper.ToCompanyDTO(company),
	}
	if settings, err := s.companyRepo.GetSettings(ctx, company.ID); err == nil {
		sdto := mapper.ToCompanySettingsDTO(settings)
		dto.Settings = &sdto
	}
	return dto, nil
}

// GetSettings returns the caller's company settings
func (s *CompanyService) GetSettings(ctx context.Context) (*domain.CompanySettingsDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.companyRepo.GetSettings(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: company settings missing", ErrConfiguration)
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	dto := mapper.ToCompanySettingsDTO(settings)
	return &dto, nil
}

// UpdateSettings changes branding, VAT and feature settings. Admins only.
// Counters are changed through NumberingService.
func (s *CompanyService) UpdateSettings(ctx context.Context, req *domain.UpdateCompanySettingsRequest) (*domain.CompanySettingsDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	if identity, _ := auth.FromContext(ctx); !identity.IsAdmin() {
		return nil, ErrForbidden
	}

	settings, err := s.companyRepo.GetSettings(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: company settings missing", ErrConfiguration)
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if req.LogoURL != nil {
		settings.LogoURL = *req.LogoURL
	}
	if req.Address != nil {
		settings.Address = *req.Address
	}
	if req.VATNumber != nil {
		settings.VATNumber = *req.VATNumber
	}
	if req.BankDetails != nil {
		settings.BankDetails = *req.BankDetails
	}
	if req.Email != nil {
		settings.Email = *req.Email
	}
	if req.Phone != nil {
		settings.Phone = *req.Phone
	}
	if req.VATRate != nil {
		settings.VATRate = decimal.NewFromFloat(*req.VATRate)
	}
	if req.AIEnabled != nil {
		settings.AIEnabled = *req.AIEnabled
	}

	if err := s.companyRepo.UpdateSettings(ctx, settings); err != nil {
		return nil, translate(err, "update settings")
	}
	s.logger.Info("company settings updated", zap.String("company_id", companyID.String()))
	dto := mapper.ToCompanySettingsDTO(settings)
	return &dto, nil
}

// Users lists the members of the caller's company
func (s *CompanyService) Users(ctx context.Context) ([]domain.UserDTO, error) {
	companyID, err := requireCompany(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return dtos, nil
}

// domainOf returns the lower-cased domain of an email address
func domainOf(address string) (string, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(address))
	if err != nil {
		return "", fmt.Errorf("%w: identity has no valid email", ErrInvalidInput)
	}
	at := strings.LastIndex(parsed.Address, "@")
	if at < 0 || at == len(parsed.Address)-1 {
		return "", fmt.Errorf("%w: identity has no valid email", ErrInvalidInput)
	}
	return strings.ToLower(parsed.Address[at+1:]), nil
}
