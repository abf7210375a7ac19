package service_test

import (
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/repository"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"github.com/Uthmaanravat/UROps-sub001/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectCreate_StartsAtSOW(t *testing.T) {
	env := newTestEnv(t)

	dto, err := env.projects.Create(env.ctx, &domain.CreateProjectRequest{ClientID: env.client.ID, Name: "Block C refurb"})
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStageSOW, dto.WorkflowStage)
	assert.Equal(t, domain.ProjectStatusSOW, dto.Status)
	assert.Equal(t, domain.CommercialStatusAwaitingPO, dto.CommercialStatus)
	assert.Equal(t, "Harbour Flats", dto.ClientName)

	_, err = env.projects.Create(env.ctx, &domain.CreateProjectRequest{ClientID: uuid.New(), Name: "Orphan"})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestProjectUpdate_StatusRestrictedToUserStatuses(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Editable")

	completed := domain.ProjectStatusCompleted
	_, err := env.projects.Update(env.ctx, project.ID, &domain.UpdateProjectRequest{Status: &completed})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	name := "Editable (phase 2)"
	po := "PO-7781"
	received := domain.CommercialStatusPOReceived
	cancelled := domain.ProjectStatusCancelled
	dto, err := env.projects.Update(env.ctx, project.ID, &domain.UpdateProjectRequest{
		Name:             &name,
		PONumber:         &po,
		CommercialStatus: &received,
		Status:           &cancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, name, dto.Name)
	assert.Equal(t, po, dto.PONumber)
	assert.Equal(t, domain.ProjectStatusCancelled, dto.Status)
	assert.Equal(t, domain.WorkflowStageSOW, env.reloadProject(t, project.ID).WorkflowStage)
}

func TestProjectDelete_RefusesWithDocuments(t *testing.T) {
	env := newTestEnv(t)
	busy := env.project(t, "Busy")
	idle := env.project(t, "Idle")
	env.draft(t, domain.DocumentTypeQuote, &busy.ID, 1, 10)

	assert.ErrorIs(t, env.projects.Delete(env.ctx, busy.ID), service.ErrConflict)
	require.NoError(t, env.projects.Delete(env.ctx, idle.ID))
	_, err := env.projects.GetByID(env.ctx, idle.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestProjectList_FiltersAndTenancy(t *testing.T) {
	env := newTestEnv(t)
	env.project(t, "Gate motor")
	quoted := env.project(t, "Roof leak")
	_, err := env.advancer.Apply(env.ctx, nil, env.company.ID, quoted.ID,
		domain.WorkflowEvent{Type: domain.EventQuoteLinked, DocumentType: domain.DocumentTypeQuote})
	require.NoError(t, err)

	other := testutil.CreateTestCompany(t, env.db, "Other Co")
	otherClient := testutil.CreateTestClient(t, env.db, other.ID, "Theirs")
	testutil.CreateTestProject(t, env.db, other.ID, otherClient.ID, "Roof leak elsewhere")

	page, err := env.projects.List(env.ctx, 1, 20, nil, repository.DefaultSortConfig())
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	stage := domain.WorkflowStageQuotation
	page, err = env.projects.List(env.ctx, 1, 20, &repository.ProjectFilters{WorkflowStage: &stage}, repository.DefaultSortConfig())
	require.NoError(t, err)
	projects := page.Data.([]domain.ProjectDTO)
	require.Len(t, projects, 1)
	assert.Equal(t, "Roof leak", projects[0].Name)

	page, err = env.projects.List(env.ctx, 1, 20, &repository.ProjectFilters{Search: "GATE"}, repository.DefaultSortConfig())
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}
