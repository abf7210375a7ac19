package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/ai"
	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/email"
	"github.com/Uthmaanravat/UROps-sub001/internal/http/handler"
	"github.com/Uthmaanravat/UROps-sub001/internal/metrics"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"github.com/Uthmaanravat/UROps-sub001/internal/storage"
	"github.com/Uthmaanravat/UROps-sub001/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubSender records messages and fails when err is set
type stubSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *stubSender) Send(ctx context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

// stubAI transcribes every recording to the same text and parses nothing
type stubAI struct {
	ai.Disabled
	transcript string
}

func (s stubAI) Name() string { return "stub" }

func (s stubAI) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if s.transcript == "" {
		return "", errors.New("transcription unavailable")
	}
	_, err := io.Copy(io.Discard, audio)
	return s.transcript, err
}

// actionResult mirrors domain.ActionResult with raw data for typed decoding
type actionResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type handlerEnv struct {
	db      *gorm.DB
	sender  *stubSender
	company *domain.Company
	client  *domain.Client
	ctx     context.Context
	mux     chi.Router
}

func newHandlerEnv(t *testing.T) *handlerEnv {
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
	provider := stubAI{transcript: "patch ceiling crack"}
	sender := &stubSender{}

	numbering := service.NewNumberingService(numberRepo, logRepo, m, log)
	advancer := service.NewStageAdvancer(projectRepo, m, log)
	linker := service.NewDocumentLinker(db, invoiceRepo, projectRepo, numbering, advancer, log)
	pricing := service.NewPricingService(db, pricingRepo, invoiceRepo, companyRepo, provider, m, log)
	sows := service.NewSOWService(db, sowRepo, projectRepo, invoiceRepo, companyRepo, logRepo, pricing, linker, advancer, log)
	invoices := service.NewInvoiceService(service.InvoiceServiceDeps{
		DB:              db,
		InvoiceRepo:     invoiceRepo,
		ClientRepo:      clientRepo,
		ProjectRepo:     projectRepo,
		CompanyRepo:     companyRepo,
		LogRepo:         logRepo,
		InteractionRepo: interactionRepo,
		Numbering:       numbering,
		Linker:          linker,
		Advancer:        advancer,
		Sender:          sender,
		Metrics:         m,
		Logger:          log,
	})
	scope := service.NewScopeService(provider, pricing, companyRepo, projectRepo, attachmentRepo, store, m, log)
	companies := service.NewCompanyService(db, companyRepo, userRepo, log)
	clients := service.NewClientService(clientRepo, interactionRepo, log)
	projects := service.NewProjectService(projectRepo, clientRepo, attachmentRepo, log)
	logs := service.NewSubmissionLogService(logRepo, log)

	authH := handler.NewAuthHandler(companies, log)
	companyH := handler.NewCompanyHandler(companies, numbering, log)
	clientH := handler.NewClientHandler(clients, log)
	projectH := handler.NewProjectHandler(projects, log)
	sowH := handler.NewSOWHandler(sows, log)
	invoiceH := handler.NewInvoiceHandler(invoices, linker, log)
	pricingH := handler.NewPricingHandler(pricing, log)
	scopeH := handler.NewScopeHandler(scope, 1, log)
	submissionH := handler.NewSubmissionHandler(logs, log)

	r := chi.NewRouter()
	r.Post("/auth/signup", authH.Signup)
	r.Get("/auth/me", authH.Me)
	r.Get("/company/settings", companyH.GetSettings)
	r.Put("/company/settings", companyH.UpdateSettings)
	r.Get("/company/users", companyH.Users)
	r.Get("/company/numbering", companyH.GetNumbering)
	r.Put("/company/numbering", companyH.SetNumbering)
	r.Get("/clients", clientH.List)
	r.Post("/clients", clientH.Create)
	r.Get("/clients/{id}", clientH.GetByID)
	r.Put("/clients/{id}", clientH.Update)
	r.Delete("/clients/{id}", clientH.Delete)
	r.Get("/clients/{id}/interactions", clientH.Interactions)
	r.Post("/clients/{id}/interactions", clientH.RecordInteraction)
	r.Get("/projects", projectH.List)
	r.Post("/projects", projectH.Create)
	r.Get("/projects/{id}", projectH.GetByID)
	r.Put("/projects/{id}", projectH.Update)
	r.Delete("/projects/{id}", projectH.Delete)
	r.Get("/projects/{id}/attachments", projectH.Attachments)
	r.Post("/projects/{id}/voice-notes", scopeH.ParseVoiceNote)
	r.Get("/projects/{id}/sow", sowH.Current)
	r.Post("/projects/{id}/sow/draft", sowH.CreateDraft)
	r.Post("/projects/{id}/sow/submit", sowH.Submit)
	r.Get("/projects/{id}/sow/versions", sowH.Versions)
	r.Get("/projects/{id}/wbp", sowH.ListWBP)
	r.Get("/wbp/{id}", sowH.GetWBP)
	r.Put("/wbp/{id}", sowH.UpdatePricing)
	r.Post("/wbp/{id}/finalize", sowH.FinalizePricing)
	r.Get("/invoices", invoiceH.List)
	r.Post("/invoices", invoiceH.Create)
	r.Get("/invoices/{id}", invoiceH.GetByID)
	r.Delete("/invoices/{id}", invoiceH.Delete)
	r.Put("/invoices/{id}/items", invoiceH.UpdateItems)
	r.Put("/invoices/{id}/project", invoiceH.LinkProject)
	r.Put("/invoices/{id}/details", invoiceH.UpdateDetails)
	r.Post("/invoices/{id}/issue", invoiceH.Issue)
	r.Post("/invoices/{id}/send", invoiceH.Send)
	r.Post("/invoices/{id}/convert", invoiceH.Convert)
	r.Post("/invoices/{id}/payments", invoiceH.RecordPayment)
	r.Get("/invoices/{id}/history", invoiceH.History)
	r.Get("/pricing", pricingH.List)
	r.Get("/pricing/suggest", pricingH.Suggest)
	r.Delete("/pricing/{id}", pricingH.Delete)
	r.Post("/scope/parse", scopeH.ParseText)
	r.Get("/submissions", submissionH.List)

	company := testutil.CreateTestCompany(t, db, "Acme Maintenance")
	return &handlerEnv{
		db:      db,
		sender:  sender,
		company: company,
		client:  testutil.CreateTestClient(t, db, company.ID, "Harbour Flats"),
		ctx:     testutil.ContextWithCompany(company.ID),
		mux:     r,
	}
}

// do serves one request as the env's default caller
func (e *handlerEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAs(t, e.ctx, method, path, body)
}

func (e *handlerEnv) doAs(t *testing.T, ctx context.Context, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader).WithContext(ctx)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

// decodeAction decodes an ActionResult and, when it carries data, the data into T
func decodeAction[T any](t *testing.T, rr *httptest.ResponseRecorder) (actionResult, T) {
	t.Helper()
	res := decodeJSON[actionResult](t, rr)
	var data T
	if len(res.Data) > 0 && string(res.Data) != "null" {
		require.NoError(t, json.Unmarshal(res.Data, &data))
	}
	return res, data
}
