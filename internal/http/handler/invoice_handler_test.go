package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *handlerEnv) createDocument(t *testing.T, docType domain.DocumentType, projectID *uuid.UUID) domain.InvoiceDTO {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/invoices", domain.CreateInvoiceRequest{
		Type:      docType,
		ClientID:  e.client.ID,
		ProjectID: projectID,
		Items: []domain.InvoiceItemInput{
			{Description: "Repaint stairwell", Quantity: 10, Unit: "m2", UnitPrice: 40},
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeJSON[domain.InvoiceDTO](t, rr)
}

func TestInvoiceHandler_Create(t *testing.T) {
	env := newHandlerEnv(t)

	t.Run("draft with company VAT", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/invoices", domain.CreateInvoiceRequest{
			Type:     domain.DocumentTypeQuote,
			ClientID: env.client.ID,
			Items: []domain.InvoiceItemInput{
				{Description: "Repaint stairwell", Quantity: 10, Unit: "m2", UnitPrice: 40},
			},
		})

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		doc := decodeJSON[domain.InvoiceDTO](t, rr)
		assert.Equal(t, "/api/v1/invoices/"+doc.ID.String(), rr.Header().Get("Location"))
		assert.Equal(t, domain.InvoiceStatusDraft, doc.Status)
		assert.Nil(t, doc.Number)
		assert.Equal(t, 400.0, doc.Subtotal)
		assert.Equal(t, 60.0, doc.VATAmount)
		assert.Equal(t, 460.0, doc.Total)
	})

	t.Run("validation error names the field", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/invoices", map[string]interface{}{
			"type":     "QUOTE",
			"clientId": env.client.ID,
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		apiErr := decodeJSON[domain.APIError](t, rr)
		assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
		assert.Contains(t, apiErr.Errors, "items")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/invoices", "{not json")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown client", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/invoices", domain.CreateInvoiceRequest{
			Type:     domain.DocumentTypeInvoice,
			ClientID: uuid.New(),
			Items:    []domain.InvoiceItemInput{{Description: "Fix tap", Quantity: 1, UnitPrice: 10}},
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestInvoiceHandler_IssueAndSend(t *testing.T) {
	env := newHandlerEnv(t)
	quote := env.createDocument(t, domain.DocumentTypeQuote, nil)

	rr := env.do(t, http.MethodPost, "/invoices/"+quote.ID.String()+"/issue", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res, issued := decodeAction[domain.InvoiceDTO](t, rr)
	assert.True(t, res.Success)
	require.NotNil(t, issued.Number)
	assert.Equal(t, 1, *issued.Number)
	assert.Equal(t, domain.InvoiceStatusSent, issued.Status)

	t.Run("issuing twice is refused", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/invoices/"+quote.ID.String()+"/issue", nil)

		assert.Equal(t, http.StatusConflict, rr.Code)
		res, _ := decodeAction[domain.InvoiceDTO](t, rr)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "already SENT")
	})

	t.Run("send emails the client", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/invoices/"+quote.ID.String()+"/send", nil)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		res, sent := decodeAction[domain.SendInvoiceResultDTO](t, rr)
		assert.True(t, res.Success)
		assert.True(t, sent.EmailSent)
		assert.Equal(t, domain.InvoiceStatusSent, sent.Invoice.Status)
		require.Len(t, env.sender.sent, 1)
		assert.Equal(t, []string{"accounts@example.com"}, env.sender.sent[0].To)
	})

	t.Run("failed email is reported but the send stands", func(t *testing.T) {
		env.sender.err = errors.New("smtp down")
		defer func() { env.sender.err = nil }()

		rr := env.do(t, http.MethodPost, "/invoices/"+quote.ID.String()+"/send", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		res, sent := decodeAction[domain.SendInvoiceResultDTO](t, rr)
		assert.True(t, res.Success)
		assert.False(t, sent.EmailSent)
		assert.Contains(t, sent.EmailError, "smtp down")
	})

	t.Run("history lists issue and email", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/invoices/"+quote.ID.String()+"/history", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		history := decodeJSON[[]domain.SubmissionLogDTO](t, rr)
		types := make([]domain.SubmissionType, len(history))
		for i, h := range history {
			types[i] = h.Type
		}
		assert.ElementsMatch(t, []domain.SubmissionType{domain.SubmissionTypeQuote, domain.SubmissionTypeEmail}, types)
	})
}

func TestInvoiceHandler_IssueWithoutSettings(t *testing.T) {
	env := newHandlerEnv(t)
	quote := env.createDocument(t, domain.DocumentTypeQuote, nil)
	require.NoError(t, env.db.Where("company_id = ?", env.company.ID).Delete(&domain.CompanySettings{}).Error)

	rr := env.do(t, http.MethodPost, "/invoices/"+quote.ID.String()+"/issue", nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	res, _ := decodeAction[domain.InvoiceDTO](t, rr)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "settings")
}

func TestInvoiceHandler_QuoteToPaidInvoice(t *testing.T) {
	env := newHandlerEnv(t)
	project := testutil.CreateTestProject(t, env.db, env.company.ID, env.client.ID, "Block A")
	quote := env.createDocument(t, domain.DocumentTypeQuote, &project.ID)

	rr := env.do(t, http.MethodPost, "/invoices/"+quote.ID.String()+"/convert", nil)
	assert.Equal(t, http.StatusConflict, rr.Code, "a draft quote cannot be converted")

	rr = env.do(t, http.MethodPost, "/invoices/"+quote.ID.String()+"/issue", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/invoices/"+quote.ID.String()+"/convert", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	_, invoice := decodeAction[domain.InvoiceDTO](t, rr)
	assert.Equal(t, domain.DocumentTypeInvoice, invoice.Type)
	require.NotNil(t, invoice.SourceQuoteID)
	assert.Equal(t, quote.ID, *invoice.SourceQuoteID)

	rr = env.do(t, http.MethodPost, "/invoices/"+invoice.ID.String()+"/issue", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/invoices/"+invoice.ID.String()+"/payments", domain.RecordPaymentRequest{Amount: 460, Method: domain.PaymentMethodEFT})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res, paid := decodeAction[domain.InvoiceDTO](t, rr)
	assert.True(t, res.Success)
	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)
	assert.Equal(t, 460.0, paid.AmountPaid)

	rr = env.do(t, http.MethodGet, "/projects/"+project.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	p := decodeJSON[domain.ProjectDTO](t, rr)
	assert.Equal(t, domain.WorkflowStageCompleted, p.WorkflowStage)
	assert.Equal(t, domain.ProjectStatusCompleted, p.Status)

	t.Run("payment amount must be positive", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/invoices/"+invoice.ID.String()+"/payments", map[string]interface{}{"amount": 0})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestInvoiceHandler_LinkAndDetails(t *testing.T) {
	env := newHandlerEnv(t)
	project := testutil.CreateTestProject(t, env.db, env.company.ID, env.client.ID, "Block B")
	quote := env.createDocument(t, domain.DocumentTypeQuote, nil)

	rr := env.do(t, http.MethodPut, "/invoices/"+quote.ID.String()+"/project", domain.LinkProjectRequest{ProjectID: &project.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res, linked := decodeAction[domain.InvoiceDTO](t, rr)
	assert.True(t, res.Success)
	require.NotNil(t, linked.ProjectID)
	assert.Equal(t, project.ID, *linked.ProjectID)

	var stored domain.Project
	require.NoError(t, env.db.First(&stored, "id = ?", project.ID).Error)
	assert.Equal(t, domain.WorkflowStageQuotation, stored.WorkflowStage)

	reference := "Block B east wing"
	number := "Q-0042"
	rr = env.do(t, http.MethodPut, "/invoices/"+quote.ID.String()+"/details", domain.UpdateDocumentDetailsRequest{
		Reference:   &reference,
		QuoteNumber: &number,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	_, detailed := decodeAction[domain.InvoiceDTO](t, rr)
	require.NotNil(t, detailed.Number)
	assert.Equal(t, 42, *detailed.Number)

	require.NoError(t, env.db.First(&stored, "id = ?", project.ID).Error)
	assert.Equal(t, reference, stored.Name)

	rr = env.do(t, http.MethodGet, "/company/numbering", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	numbering := decodeJSON[domain.NumberingDTO](t, rr)
	assert.Equal(t, 42, numbering.LastQuoteNumber)
	assert.Equal(t, "Q-0043", numbering.NextQuote)
}

func TestInvoiceHandler_ListAndDelete(t *testing.T) {
	env := newHandlerEnv(t)
	quote := env.createDocument(t, domain.DocumentTypeQuote, nil)
	invoice := env.createDocument(t, domain.DocumentTypeInvoice, nil)
	rr := env.do(t, http.MethodPost, "/invoices/"+invoice.ID.String()+"/issue", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	t.Run("filter by type", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/invoices?type=QUOTE", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		page := decodeJSON[struct {
			Data  []domain.InvoiceDTO `json:"data"`
			Total int64               `json:"total"`
		}](t, rr)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, quote.ID, page.Data[0].ID)
	})

	t.Run("issued documents cannot be deleted", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, "/invoices/"+invoice.ID.String(), nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("drafts can", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, "/invoices/"+quote.ID.String(), nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = env.do(t, http.MethodGet, "/invoices/"+quote.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/invoices/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		apiErr := decodeJSON[domain.APIError](t, rr)
		assert.Equal(t, "Invalid document ID: must be a valid UUID", apiErr.Detail)
	})
}
