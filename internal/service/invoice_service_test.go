package service_test

import (
	"context"
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceCreate_ComputesTotalsAndStaysUnnumbered(t *testing.T) {
	env := newTestEnv(t)

	dto, err := env.invoices.Create(env.ctx, &domain.CreateInvoiceRequest{
		Type:     domain.DocumentTypeQuote,
		ClientID: env.client.ID,
		Items: []domain.InvoiceItemInput{
			{Description: "Paint walls", Quantity: 10, UnitPrice: 40},
			{Description: "  ", Quantity: 1, UnitPrice: 5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusDraft, dto.Status)
	assert.Nil(t, dto.Number)
	assert.Len(t, dto.Items, 1)
	assert.Equal(t, 15.0, dto.VATRate)
	assert.Equal(t, 400.0, dto.Subtotal)
	assert.Equal(t, 60.0, dto.VATAmount)
	assert.Equal(t, 460.0, dto.Total)
	assert.Equal(t, "Harbour Flats", dto.ClientName)
}

func TestInvoiceIssue_AllocatesFromTheTypesSequence(t *testing.T) {
	env := newTestEnv(t)
	q1 := env.draft(t, domain.DocumentTypeQuote, nil, 1, 10)
	q2 := env.draft(t, domain.DocumentTypeQuote, nil, 1, 10)
	i1 := env.draft(t, domain.DocumentTypeInvoice, nil, 1, 10)

	a, err := env.invoices.Issue(env.ctx, q1.ID)
	require.NoError(t, err)
	b, err := env.invoices.Issue(env.ctx, q2.ID)
	require.NoError(t, err)
	c, err := env.invoices.Issue(env.ctx, i1.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, *a.Number)
	assert.Equal(t, 2, *b.Number)
	assert.Equal(t, 1, *c.Number)
	assert.Equal(t, domain.InvoiceStatusSent, a.Status)
	assert.Equal(t, domain.InvoiceStatusInvoiced, c.Status)

	_, err = env.invoices.Issue(env.ctx, q1.ID)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestInvoiceIssue_KeepsManualNumberAndSkipsTakenNumbers(t *testing.T) {
	env := newTestEnv(t)
	manual := env.draft(t, domain.DocumentTypeQuote, nil, 1, 10)
	next := env.draft(t, domain.DocumentTypeQuote, nil, 1, 10)

	_, err := env.linker.UpdateDocumentDetails(env.ctx, manual.ID, &domain.UpdateDocumentDetailsRequest{QuoteNumber: strPtr("Q-0003")})
	require.NoError(t, err)
	// lowering the counter makes the next draw collide with Q-0003
	require.NoError(t, env.numbering.SetNumber(env.ctx, env.company.ID, domain.DocumentTypeQuote, 2))

	issued, err := env.invoices.Issue(env.ctx, manual.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *issued.Number)

	issued, err = env.invoices.Issue(env.ctx, next.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, *issued.Number)
}

func TestInvoiceIssue_AdvancesProject(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Issue flow")

	quote := env.draft(t, domain.DocumentTypeQuote, &project.ID, 1, 100)
	_, err := env.invoices.Issue(env.ctx, quote.ID)
	require.NoError(t, err)
	p := env.reloadProject(t, project.ID)
	assert.Equal(t, domain.ProjectStatusQuoted, p.Status)

	inv := env.draft(t, domain.DocumentTypeInvoice, &project.ID, 1, 100)
	_, err = env.invoices.Issue(env.ctx, inv.ID)
	require.NoError(t, err)
	p = env.reloadProject(t, project.ID)
	assert.Equal(t, domain.WorkflowStageInvoice, p.WorkflowStage)
	assert.Equal(t, domain.ProjectStatusInProgress, p.Status)
}

func TestInvoiceIssueAndPay_LogFailureKeepsTransitions(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Log outage")
	inv := env.draft(t, domain.DocumentTypeInvoice, &project.ID, 1, 100)
	require.NoError(t, env.db.Migrator().DropTable(&domain.SubmissionLog{}))

	dto, err := env.invoices.Issue(env.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusInvoiced, dto.Status)
	require.NotNil(t, dto.Number)
	assert.Equal(t, domain.WorkflowStageInvoice, env.reloadProject(t, project.ID).WorkflowStage)

	dto, err = env.invoices.RecordPayment(env.ctx, inv.ID, &domain.RecordPaymentRequest{Amount: 115})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, dto.Status)
	assert.Equal(t, domain.WorkflowStageCompleted, env.reloadProject(t, project.ID).WorkflowStage)
}

func TestInvoiceIssue_MissingSettingsRollsBack(t *testing.T) {
	env := newTestEnv(t)
	quote := env.draft(t, domain.DocumentTypeQuote, nil, 1, 10)
	require.NoError(t, env.db.Exec("DELETE FROM company_settings WHERE company_id = ?", env.company.ID).Error)

	_, err := env.invoices.Issue(env.ctx, quote.ID)
	assert.ErrorIs(t, err, service.ErrConfiguration)

	dto, err := env.invoices.GetByID(env.ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusDraft, dto.Status)
}

func TestInvoiceSend_EmailsAndRecords(t *testing.T) {
	env := newTestEnv(t)
	quote := env.draft(t, domain.DocumentTypeQuote, nil, 2, 50)

	result, err := env.invoices.Send(env.ctx, quote.ID, &domain.SendInvoiceRequest{Message: "As discussed"})
	require.NoError(t, err)
	assert.True(t, result.EmailSent)
	assert.Empty(t, result.EmailError)
	assert.Equal(t, domain.InvoiceStatusSent, result.Invoice.Status)

	require.Len(t, env.sender.sent, 1)
	msg := env.sender.sent[0]
	assert.Equal(t, []string{"accounts@example.com"}, msg.To)
	assert.Equal(t, "Quote Q-0001 from Acme Maintenance", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "As discussed")

	assert.Len(t, env.logsOfType(t, quote.ID, domain.SubmissionTypeEmail), 1)
	interactions, err := env.clients.Interactions(env.ctx, env.client.ID, 10)
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.Equal(t, domain.InteractionTypeEmail, interactions[0].Type)
}

func TestInvoiceSend_EmailFailureKeepsTransition(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Email down")
	quote := env.draft(t, domain.DocumentTypeQuote, &project.ID, 1, 100)
	env.sender.err = errProviderDown

	result, err := env.invoices.Send(env.ctx, quote.ID, nil)
	require.NoError(t, err)
	assert.False(t, result.EmailSent)
	assert.Contains(t, result.EmailError, "provider unavailable")
	assert.Equal(t, domain.InvoiceStatusSent, result.Invoice.Status)
	require.NotNil(t, result.Invoice.Number)

	assert.Empty(t, env.logsOfType(t, quote.ID, domain.SubmissionTypeEmail))
	interactions, err := env.clients.Interactions(env.ctx, env.client.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, interactions)
	assert.Equal(t, domain.ProjectStatusQuoted, env.reloadProject(t, project.ID).Status)
}

func TestInvoiceConvertQuote(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Convert")
	quote := env.draft(t, domain.DocumentTypeQuote, &project.ID, 3, 20)

	_, err := env.invoices.ConvertQuoteToInvoice(env.ctx, quote.ID)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	_, err = env.invoices.Issue(env.ctx, quote.ID)
	require.NoError(t, err)

	inv, err := env.invoices.ConvertQuoteToInvoice(env.ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentTypeInvoice, inv.Type)
	assert.Equal(t, domain.InvoiceStatusDraft, inv.Status)
	require.NotNil(t, inv.SourceQuoteID)
	assert.Equal(t, quote.ID, *inv.SourceQuoteID)
	assert.Equal(t, 60.0, inv.Total)
	assert.Equal(t, project.ID, *inv.ProjectID)

	converted, err := env.invoices.GetByID(env.ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusInvoiced, converted.Status)

	_, err = env.invoices.ConvertQuoteToInvoice(env.ctx, quote.ID)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestInvoiceRecordPayment_PartialThenFull(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Payments")
	inv := env.draft(t, domain.DocumentTypeInvoice, &project.ID, 1, 1000)

	_, err := env.invoices.RecordPayment(env.ctx, inv.ID, &domain.RecordPaymentRequest{Amount: 100})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	_, err = env.invoices.Issue(env.ctx, inv.ID)
	require.NoError(t, err)

	dto, err := env.invoices.RecordPayment(env.ctx, inv.ID, &domain.RecordPaymentRequest{Amount: 400})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusInvoiced, dto.Status)
	assert.Equal(t, 400.0, dto.AmountPaid)
	assert.Equal(t, domain.WorkflowStageInvoice, env.reloadProject(t, project.ID).WorkflowStage)

	dto, err = env.invoices.RecordPayment(env.ctx, inv.ID, &domain.RecordPaymentRequest{Amount: 600, Method: domain.PaymentMethodCash})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, dto.Status)
	assert.Len(t, dto.Payments, 2)

	p := env.reloadProject(t, project.ID)
	assert.Equal(t, domain.WorkflowStageCompleted, p.WorkflowStage)
	assert.Equal(t, domain.ProjectStatusCompleted, p.Status)
	assert.Len(t, env.logsOfType(t, inv.ID, domain.SubmissionTypePayment), 2)

	_, err = env.invoices.RecordPayment(env.ctx, inv.ID, &domain.RecordPaymentRequest{Amount: 1})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestInvoiceRecordPayment_OtherOpenInvoiceHoldsCompletion(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Two invoices")
	first := env.draft(t, domain.DocumentTypeInvoice, &project.ID, 1, 100)
	second := env.draft(t, domain.DocumentTypeInvoice, &project.ID, 1, 200)
	env.draft(t, domain.DocumentTypeInvoice, &project.ID, 1, 999) // draft, not counted

	_, err := env.invoices.Issue(env.ctx, first.ID)
	require.NoError(t, err)
	_, err = env.invoices.Issue(env.ctx, second.ID)
	require.NoError(t, err)

	_, err = env.invoices.RecordPayment(env.ctx, first.ID, &domain.RecordPaymentRequest{Amount: 100})
	require.NoError(t, err)
	p := env.reloadProject(t, project.ID)
	assert.Equal(t, domain.WorkflowStagePayment, p.WorkflowStage)
	assert.Equal(t, domain.ProjectStatusInProgress, p.Status)

	_, err = env.invoices.RecordPayment(env.ctx, second.ID, &domain.RecordPaymentRequest{Amount: 200})
	require.NoError(t, err)
	p = env.reloadProject(t, project.ID)
	assert.Equal(t, domain.WorkflowStageCompleted, p.WorkflowStage)
	assert.Equal(t, domain.ProjectStatusCompleted, p.Status)
}

func TestInvoiceRecordPayment_QuoteRejected(t *testing.T) {
	env := newTestEnv(t)
	quote := env.draft(t, domain.DocumentTypeQuote, nil, 1, 100)
	_, err := env.invoices.RecordPayment(env.ctx, quote.ID, &domain.RecordPaymentRequest{Amount: 100})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestInvoiceDelete_OnlyDrafts(t *testing.T) {
	env := newTestEnv(t)
	keep := env.draft(t, domain.DocumentTypeQuote, nil, 1, 100)
	drop := env.draft(t, domain.DocumentTypeQuote, nil, 1, 100)
	_, err := env.invoices.Issue(env.ctx, keep.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.invoices.Delete(env.ctx, keep.ID), service.ErrInvalidTransition)
	require.NoError(t, env.invoices.Delete(env.ctx, drop.ID))
	_, err = env.invoices.GetByID(env.ctx, drop.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestInvoice_RequiresCompany(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.invoices.Create(context.Background(), &domain.CreateInvoiceRequest{
		Type:     domain.DocumentTypeQuote,
		ClientID: env.client.ID,
		Items:    []domain.InvoiceItemInput{{Description: "x", Quantity: 1}},
	})
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	var count int64
	require.NoError(t, env.db.Model(&domain.Invoice{}).Count(&count).Error)
	assert.Zero(t, count)
}
