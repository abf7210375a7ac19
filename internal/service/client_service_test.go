package service_test

import (
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"github.com/Uthmaanravat/UROps-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCRUD(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.clients.Create(env.ctx, &domain.CreateClientRequest{Name: "Seaview Body Corporate", Email: "trustees@seaview.test"})
	require.NoError(t, err)

	updated, err := env.clients.Update(env.ctx, created.ID, &domain.UpdateClientRequest{Name: "Seaview BC", Phone: "021 555 0100"})
	require.NoError(t, err)
	assert.Equal(t, "Seaview BC", updated.Name)
	assert.Empty(t, updated.Email)

	page, err := env.clients.List(env.ctx, 1, 20, "seaview")
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	require.NoError(t, env.clients.Delete(env.ctx, created.ID))
	_, err = env.clients.GetByID(env.ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestClientDelete_RefusesWhenReferenced(t *testing.T) {
	env := newTestEnv(t)
	env.project(t, "Keeps the client")

	err := env.clients.Delete(env.ctx, env.client.ID)
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestClient_OtherCompanyCannotSee(t *testing.T) {
	env := newTestEnv(t)
	other := testutil.CreateTestCompany(t, env.db, "Other Co")
	ctx := testutil.ContextWithCompany(other.ID)

	_, err := env.clients.GetByID(ctx, env.client.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, env.clients.Delete(ctx, env.client.ID), service.ErrNotFound)
}

func TestRecordInteraction(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.clients.RecordInteraction(env.ctx, &domain.CreateInteractionRequest{
		ClientID: env.client.ID,
		Type:     domain.InteractionTypeCall,
		Subject:  "Discussed access to the roof",
	})
	require.NoError(t, err)

	history, err := env.clients.Interactions(env.ctx, env.client.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.InteractionTypeCall, history[0].Type)
	assert.Equal(t, "Test User", history[0].CreatedBy)
}
