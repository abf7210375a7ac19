package service_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/ai"
	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/email"
	"github.com/Uthmaanravat/UROps-sub001/internal/metrics"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"github.com/Uthmaanravat/UROps-sub001/internal/storage"
	"github.com/Uthmaanravat/UROps-sub001/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeAI is a scripted ai.Provider
type fakeAI struct {
	items      []ai.ScopeItem
	parseErr   error
	transcript string
	transErr   error
	category   string
	calls      int
}

func (f *fakeAI) Name() string { return "fake" }

func (f *fakeAI) ParseScopeText(ctx context.Context, text string) ([]ai.ScopeItem, error) {
	f.calls++
	return f.items, f.parseErr
}

func (f *fakeAI) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if _, err := io.ReadAll(audio); err != nil {
		return "", err
	}
	return f.transcript, f.transErr
}

func (f *fakeAI) Categorize(ctx context.Context, description string) (string, error) {
	if f.category == "" {
		return "", ai.ErrDisabled
	}
	return f.category, nil
}

// fakeSender records messages and fails when err is set
type fakeSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var errProviderDown = errors.New("provider unavailable")

type testEnv struct {
	t         *testing.T
	db        *gorm.DB
	ai        *fakeAI
	sender    *fakeSender
	metrics   *metrics.Metrics
	numbering *service.NumberingService
	advancer  *service.StageAdvancer
	linker    *service.DocumentLinker
	sows      *service.SOWService
	invoices  *service.InvoiceService
	pricing   *service.PricingService
	scope     *service.ScopeService
	companies *service.CompanyService
	clients   *service.ClientService
	projects  *service.ProjectService
	logs      *service.SubmissionLogService

	company *domain.Company
	client  *domain.Client
	ctx     context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	m := metrics.New()

	numberRepo := repository.NewNumberSequenceRepository(db)
	logRepo := repository.NewSubmissionLogRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	clientRepo := repository.NewClientRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	sowRepo := repository.NewSOWRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	userRepo := repository.NewUserRepository(db)
	pricingRepo := repository.NewPricingKnowledgeRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	store, err := storage.NewLocalStorage(t.TempDir(), 1<<20)
	require.NoError(t, err)

	env := &testEnv{t: t, db: db, ai: &fakeAI{}, sender: &fakeSender{}, metrics: m}
	env.numbering = service.NewNumberingService(numberRepo, logRepo, m, log)
	env.advancer = service.NewStageAdvancer(projectRepo, m, log)
	env.linker = service.NewDocumentLinker(db, invoiceRepo, projectRepo, env.numbering, env.advancer, log)
	env.pricing = service.NewPricingService(db, pricingRepo, invoiceRepo, companyRepo, env.ai, m, log)
	env.sows = service.NewSOWService(db, sowRepo, projectRepo, invoiceRepo, companyRepo, logRepo, env.pricing, env.linker, env.advancer, log)
	env.invoices = service.NewInvoiceService(service.InvoiceServiceDeps{
		DB:              db,
		InvoiceRepo:     invoiceRepo,
		ClientRepo:      clientRepo,
		ProjectRepo:     projectRepo,
		CompanyRepo:     companyRepo,
		LogRepo:         logRepo,
		InteractionRepo: interactionRepo,
		Numbering:       env.numbering,
		Linker:          env.linker,
		Advancer:        env.advancer,
		Sender:          env.sender,
		Metrics:         m,
		Logger:          log,
	})
	env.scope = service.NewScopeService(env.ai, env.pricing, companyRepo, projectRepo, attachmentRepo, store, m, log)
	env.companies = service.NewCompanyService(db, companyRepo, userRepo, log)
	env.clients = service.NewClientService(clientRepo, interactionRepo, log)
	env.projects = service.NewProjectService(projectRepo, clientRepo, attachmentRepo, log)
	env.logs = service.NewSubmissionLogService(logRepo, log)

	env.company = testutil.CreateTestCompany(t, db, "Acme Maintenance")
	env.client = testutil.CreateTestClient(t, db, env.company.ID, "Harbour Flats")
	env.ctx = testutil.ContextWithCompany(env.company.ID)
	return env
}

func (e *testEnv) project(t *testing.T, name string) *domain.Project {
	t.Helper()
	return testutil.CreateTestProject(t, e.db, e.company.ID, e.client.ID, name)
}

func (e *testEnv) reloadProject(t *testing.T, id uuid.UUID) domain.Project {
	t.Helper()
	var p domain.Project
	require.NoError(t, e.db.First(&p, "id = ?", id).Error)
	return p
}

func (e *testEnv) settings(t *testing.T) domain.CompanySettings {
	t.Helper()
	var s domain.CompanySettings
	require.NoError(t, e.db.First(&s, "company_id = ?", e.company.ID).Error)
	return s
}

func (e *testEnv) logsOfType(t *testing.T, documentID uuid.UUID, typ domain.SubmissionType) []domain.SubmissionLog {
	t.Helper()
	var entries []domain.SubmissionLog
	require.NoError(t, e.db.Where("document_id = ? AND type = ?", documentID, typ).Find(&entries).Error)
	return entries
}

// draft creates a DRAFT document with one line of qty x price
func (e *testEnv) draft(t *testing.T, docType domain.DocumentType, projectID *uuid.UUID, qty, price float64) *domain.InvoiceDTO {
	t.Helper()
	vat := 0.0
	dto, err := e.invoices.Create(e.ctx, &domain.CreateInvoiceRequest{
		Type:      docType,
		ClientID:  e.client.ID,
		ProjectID: projectID,
		VATRate:   &vat,
		Items: []domain.InvoiceItemInput{
			{Description: "Repaint stairwell", Quantity: qty, UnitPrice: price, Unit: "m2"},
		},
	})
	require.NoError(t, err)
	return dto
}
