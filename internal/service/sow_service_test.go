package service_test

import (
	"context"
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"github.com/Uthmaanravat/UROps-sub001/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sowRequest(descriptions ...string) *domain.SubmitSOWRequest {
	req := &domain.SubmitSOWRequest{Site: "Block C"}
	for _, d := range descriptions {
		req.Items = append(req.Items, domain.SOWItemInput{Description: d, Quantity: 2, Unit: "ea"})
	}
	return req
}

func TestSOWSubmit_FirstSubmissionIsVersionOne(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Harbour Flats repaint")

	result, err := env.sows.Submit(env.ctx, project.ID, sowRequest("Paint walls", "Fix gutters"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Version)

	sow, err := env.sows.Current(env.ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SOWStatusSubmitted, sow.Status)
	assert.Len(t, sow.Items, 2)
	assert.NotNil(t, sow.SubmittedAt)
	assert.Equal(t, "Test User", sow.SubmittedBy)

	wbp, err := env.sows.GetWBP(env.ctx, result.WBPID)
	require.NoError(t, err)
	assert.Equal(t, domain.WBPStatusDraft, wbp.Status)
	assert.Equal(t, result.SOWID, wbp.SOWID)
	assert.Len(t, wbp.Items, 2)

	p := env.reloadProject(t, project.ID)
	assert.Equal(t, domain.WorkflowStageQuotation, p.WorkflowStage)
	assert.Equal(t, domain.ProjectStatusSOW, p.Status)
	assert.Len(t, env.logsOfType(t, result.SOWID, domain.SubmissionTypeSOW), 1)
}

func TestSOWSubmit_ResubmissionCreatesNextVersion(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Versions")

	first, err := env.sows.Submit(env.ctx, project.ID, sowRequest("Paint walls"))
	require.NoError(t, err)
	second, err := env.sows.Submit(env.ctx, project.ID, sowRequest("Paint walls", "Replace door"))
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)
	assert.NotEqual(t, first.WBPID, second.WBPID)

	versions, err := env.sows.Versions(env.ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, 1, versions[1].Version)
	// the first version is untouched
	assert.Len(t, versions[1].Items, 1)
	assert.Equal(t, domain.SOWStatusSubmitted, versions[1].Status)

	// the second submission is past SOW, so the stage stays put
	assert.Equal(t, domain.WorkflowStageQuotation, env.reloadProject(t, project.ID).WorkflowStage)
}

func TestSOWSubmit_FinalizesCurrentDraftInPlace(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Draft first")

	draft, err := env.sows.CreateDraft(env.ctx, project.ID, &domain.CreateSOWDraftRequest{
		Site:  "Unit 4",
		Items: []domain.SOWItemInput{{Description: "Seal shower", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, draft.Version)
	assert.Equal(t, domain.SOWStatusDraft, draft.Status)
	assert.Equal(t, domain.WorkflowStageSOW, env.reloadProject(t, project.ID).WorkflowStage)

	result, err := env.sows.Submit(env.ctx, project.ID, &domain.SubmitSOWRequest{
		Items: []domain.SOWItemInput{{Description: "Seal shower", Quantity: 1}, {Description: "Regrout tiles", Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, draft.ID, result.SOWID)
	assert.Equal(t, 1, result.Version)

	sow, err := env.sows.Current(env.ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SOWStatusSubmitted, sow.Status)
	assert.Equal(t, "Unit 4", sow.Site)
	assert.Len(t, sow.Items, 2)
}

func TestSOWSubmit_LogFailureKeepsSubmission(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Log outage")
	require.NoError(t, env.db.Migrator().DropTable(&domain.SubmissionLog{}))

	result, err := env.sows.Submit(env.ctx, project.ID, sowRequest("Paint walls"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Version)
	assert.Equal(t, domain.WorkflowStageQuotation, env.reloadProject(t, project.ID).WorkflowStage)

	_, err = env.sows.UpdatePricing(env.ctx, result.WBPID, &domain.UpdateWBPRequest{
		Items: []domain.WBPItemInput{{Description: "Paint walls", Quantity: 1, UnitPrice: 50}},
	})
	require.NoError(t, err)
	quote, err := env.sows.FinalizePricing(env.ctx, result.WBPID, &domain.FinalizeWBPRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentTypeQuote, quote.Type)
	assert.Equal(t, domain.ProjectStatusQuoted, env.reloadProject(t, project.ID).Status)
}

func TestSOWCreateDraft_VersionFollowsCurrent(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Drafts")

	_, err := env.sows.Submit(env.ctx, project.ID, sowRequest("Paint walls"))
	require.NoError(t, err)
	draft, err := env.sows.CreateDraft(env.ctx, project.ID, &domain.CreateSOWDraftRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, draft.Version)
}

func TestSOWSubmit_SeedsPricesFromKnowledge(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Priced")
	require.NoError(t, env.db.Create(&domain.PricingKnowledge{
		CompanyID:     env.company.ID,
		NormalizedKey: domain.PricingKey("Paint walls"),
		Description:   "Paint walls",
		UnitPrice:     decimal.RequireFromString("85.50"),
		Frequency:     3,
	}).Error)

	result, err := env.sows.Submit(env.ctx, project.ID, sowRequest("paint walls.", "Unknown job"))
	require.NoError(t, err)

	wbp, err := env.sows.GetWBP(env.ctx, result.WBPID)
	require.NoError(t, err)
	assert.Equal(t, 85.5, wbp.Items[0].UnitPrice)
	assert.Equal(t, 0.0, wbp.Items[1].UnitPrice)
}

func TestSOWSubmit_Errors(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Errors")

	_, err := env.sows.Submit(context.Background(), project.ID, sowRequest("Paint"))
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = env.sows.Submit(env.ctx, project.ID, &domain.SubmitSOWRequest{})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	other := testutil.CreateTestCompany(t, env.db, "Other Co")
	_, err = env.sows.Submit(testutil.ContextWithCompany(other.ID), project.ID, sowRequest("Paint"))
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSOWFinalizePricing_CreatesLinkedQuote(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Pricing")

	result, err := env.sows.Submit(env.ctx, project.ID, sowRequest("Paint walls"))
	require.NoError(t, err)

	_, err = env.sows.UpdatePricing(env.ctx, result.WBPID, &domain.UpdateWBPRequest{
		Items: []domain.WBPItemInput{{Description: "Paint walls", Quantity: 10, Unit: "m2", UnitPrice: 40}},
	})
	require.NoError(t, err)

	quote, err := env.sows.FinalizePricing(env.ctx, result.WBPID, &domain.FinalizeWBPRequest{Reference: "PO-7"})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentTypeQuote, quote.Type)
	assert.Equal(t, domain.InvoiceStatusDraft, quote.Status)
	require.NotNil(t, quote.ProjectID)
	assert.Equal(t, project.ID, *quote.ProjectID)
	assert.Equal(t, "Block C", quote.Site)
	assert.Equal(t, 400.0, quote.Subtotal)
	assert.Equal(t, 460.0, quote.Total)

	wbp, err := env.sows.GetWBP(env.ctx, result.WBPID)
	require.NoError(t, err)
	assert.Equal(t, domain.WBPStatusFinalized, wbp.Status)
	require.NotNil(t, wbp.QuoteID)
	assert.Equal(t, quote.ID, *wbp.QuoteID)

	p := env.reloadProject(t, project.ID)
	assert.Equal(t, domain.ProjectStatusQuoted, p.Status)
	assert.Equal(t, domain.WorkflowStageQuotation, p.WorkflowStage)

	_, err = env.sows.UpdatePricing(env.ctx, result.WBPID, &domain.UpdateWBPRequest{
		Items: []domain.WBPItemInput{{Description: "x", Quantity: 1}},
	})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}
