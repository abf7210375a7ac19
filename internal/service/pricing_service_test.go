package service_test

import (
	"context"
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"github.com/Uthmaanravat/UROps-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// issuedQuote creates and issues a quote with one line
func (e *testEnv) issuedQuote(t *testing.T, price float64) *domain.InvoiceDTO {
	t.Helper()
	q := e.draft(t, domain.DocumentTypeQuote, nil, 1, price)
	issued, err := e.invoices.Issue(e.ctx, q.ID)
	require.NoError(t, err)
	return issued
}

func TestPricingLearnPending_BuildsWeightedAverage(t *testing.T) {
	env := newTestEnv(t)
	env.issuedQuote(t, 100)
	env.issuedQuote(t, 200)
	env.draft(t, domain.DocumentTypeQuote, nil, 1, 999)

	learned, err := env.pricing.LearnPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, learned)

	entries, err := env.pricing.Suggest(env.ctx, "stairwell", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Repaint stairwell", entries[0].Description)
	assert.Equal(t, 150.0, entries[0].UnitPrice)
	assert.Equal(t, 2, entries[0].Frequency)
	assert.Equal(t, "m2", entries[0].Unit)
	assert.Equal(t, "painting", entries[0].Category)

	// already learned quotes are not counted twice
	learned, err = env.pricing.LearnPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, learned)

	env.issuedQuote(t, 50)
	learned, err = env.pricing.LearnPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, learned)

	entries, err = env.pricing.Suggest(env.ctx, "REPAINT", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 116.67, entries[0].UnitPrice)
	assert.Equal(t, 3, entries[0].Frequency)
}

func TestPricingLearn_UsesModelCategoryWhenEnabled(t *testing.T) {
	env := newTestEnv(t)
	env.ai.category = "carpentry"
	env.issuedQuote(t, 80)

	_, err := env.pricing.LearnPending(context.Background(), 10)
	require.NoError(t, err)

	entries, err := env.pricing.Suggest(env.ctx, "stairwell", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "carpentry", entries[0].Category)
}

func TestPricingLearn_KeywordsWhenAIDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.ai.category = "carpentry"
	off := false
	_, err := env.companies.UpdateSettings(env.ctx, &domain.UpdateCompanySettingsRequest{AIEnabled: &off})
	require.NoError(t, err)
	env.issuedQuote(t, 80)

	_, err = env.pricing.LearnPending(context.Background(), 10)
	require.NoError(t, err)

	entries, err := env.pricing.Suggest(env.ctx, "stairwell", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "painting", entries[0].Category)
}

func TestPricingLearnFromQuote_RejectsInvoices(t *testing.T) {
	env := newTestEnv(t)
	err := env.pricing.LearnFromQuote(env.ctx, &domain.Invoice{Type: domain.DocumentTypeInvoice})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestPricing_IsolatedPerCompany(t *testing.T) {
	env := newTestEnv(t)
	env.issuedQuote(t, 100)
	_, err := env.pricing.LearnPending(context.Background(), 10)
	require.NoError(t, err)

	other := testutil.CreateTestCompany(t, env.db, "Rival Repairs")
	entries, err := env.pricing.Suggest(testutil.ContextWithCompany(other.ID), "stairwell", 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPricingListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	env.issuedQuote(t, 100)
	_, err := env.pricing.LearnPending(context.Background(), 10)
	require.NoError(t, err)

	page, err := env.pricing.List(env.ctx, 1, 20, "", "painting")
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	entries := page.Data.([]domain.PricingKnowledgeDTO)
	require.Len(t, entries, 1)

	require.NoError(t, env.pricing.Delete(env.ctx, entries[0].ID))
	assert.ErrorIs(t, env.pricing.Delete(env.ctx, entries[0].ID), service.ErrNotFound)

	empty, err := env.pricing.Suggest(env.ctx, "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
