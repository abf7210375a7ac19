package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/auth"
	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// The pool is pinned to one connection, so code under test must run every
// statement of a transaction on the transaction handle.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=on", name, uuid.NewString()[:8])

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(domain.AllModels()...))
	return db
}

// SetupFileTestDB opens a file-backed SQLite database in a temp dir with a
// pool of maxConns connections. Transactions begin IMMEDIATE and wait on
// the busy timeout, so concurrent writers queue instead of failing.
func SetupFileTestDB(t *testing.T, maxConns int) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "urops.db")
	dsn := path + "?_foreign_keys=on&_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(domain.AllModels()...))
	return db
}

// CreateTestCompany creates a company together with its settings row
func CreateTestCompany(t *testing.T, db *gorm.DB, name string) *domain.Company {
	t.Helper()
	company := &domain.Company{
		Name:   name,
		Domain: strings.ToLower(strings.ReplaceAll(name, " ", "")) + "-" + uuid.NewString()[:6] + ".test",
	}
	require.NoError(t, db.Create(company).Error)

	settings := &domain.CompanySettings{CompanyID: company.ID, AIEnabled: true}
	require.NoError(t, db.Create(settings).Error)
	company.Settings = settings
	return company
}

// CreateTestCompanyWithoutSettings simulates a tenant whose settings row is missing
func CreateTestCompanyWithoutSettings(t *testing.T, db *gorm.DB, name string) *domain.Company {
	t.Helper()
	company := &domain.Company{Name: name, Domain: uuid.NewString()[:8] + ".test"}
	require.NoError(t, db.Create(company).Error)
	return company
}

// CreateTestUser creates a user in the company
func CreateTestUser(t *testing.T, db *gorm.DB, companyID uuid.UUID, email string, role domain.UserRole) *domain.User {
	t.Helper()
	user := &domain.User{
		CompanyID:   companyID,
		AuthSubject: uuid.NewString(),
		Email:       email,
		Name:        strings.Split(email, "@")[0],
		Role:        role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestClient creates a client in the company
func CreateTestClient(t *testing.T, db *gorm.DB, companyID uuid.UUID, name string) *domain.Client {
	t.Helper()
	client := &domain.Client{CompanyID: companyID, Name: name, Email: "accounts@example.com"}
	require.NoError(t, db.Create(client).Error)
	return client
}

// CreateTestProject creates a project at the start of the workflow
func CreateTestProject(t *testing.T, db *gorm.DB, companyID, clientID uuid.UUID, name string) *domain.Project {
	t.Helper()
	project := &domain.Project{
		CompanyID:        companyID,
		ClientID:         clientID,
		Name:             name,
		Status:           domain.ProjectStatusSOW,
		WorkflowStage:    domain.WorkflowStageSOW,
		CommercialStatus: domain.CommercialStatusAwaitingPO,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

// ContextWithCompany returns a context authenticated as a member of companyID
func ContextWithCompany(companyID uuid.UUID) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      uuid.New(),
		Subject:     "test-subject",
		DisplayName: "Test User",
		Email:       "test@example.com",
		Role:        domain.UserRoleAdmin,
		CompanyID:   companyID,
	})
}

// ContextWithUser returns a context authenticated as user
func ContextWithUser(user *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      user.ID,
		Subject:     user.AuthSubject,
		DisplayName: user.Name,
		Email:       user.Email,
		Role:        user.Role,
		CompanyID:   user.CompanyID,
	})
}
