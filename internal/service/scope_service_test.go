package service_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/ai"
	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseText_EnrichesWithKnownPrices(t *testing.T) {
	env := newTestEnv(t)
	env.issuedQuote(t, 120)
	_, err := env.pricing.LearnPending(context.Background(), 10)
	require.NoError(t, err)

	env.ai.items = []ai.ScopeItem{
		{Description: "repaint stairwell!", Quantity: 30},
		{Description: "Replace leaking tap", Quantity: 2, Unit: "ea"},
	}
	result, err := env.scope.ParseText(env.ctx, "stairwell needs paint, tap leaks in unit 4")
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	require.Len(t, result.Items, 2)

	assert.Equal(t, 120.0, result.Items[0].UnitPrice)
	assert.Equal(t, "m2", result.Items[0].Unit)
	assert.Equal(t, "painting", result.Items[0].Category)

	assert.Zero(t, result.Items[1].UnitPrice)
	assert.Equal(t, "ea", result.Items[1].Unit)
	assert.Equal(t, "plumbing", result.Items[1].Category)
}

func TestParseText_FallsBackToPlaceholder(t *testing.T) {
	tests := []struct {
		name  string
		setup func(env *testEnv)
	}{
		{"provider error", func(env *testEnv) { env.ai.parseErr = errProviderDown }},
		{"nothing parsed", func(env *testEnv) {}},
		{"ai disabled", func(env *testEnv) {
			env.ai.items = []ai.ScopeItem{{Description: "ignored", Quantity: 1}}
			require.NoError(env.t, env.db.Model(&domain.CompanySettings{}).
				Where("company_id = ?", env.company.ID).Update("ai_enabled", false).Error)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(env)

			result, err := env.scope.ParseText(env.ctx, "  fix the gate  ")
			require.NoError(t, err)
			assert.True(t, result.Degraded)
			require.Len(t, result.Items, 1)
			assert.Equal(t, "fix the gate", result.Items[0].Description)
			assert.Equal(t, 1.0, result.Items[0].Quantity)
			assert.True(t, result.Items[0].Placeholder)
		})
	}
}

func TestParseText_DisabledSkipsModel(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Model(&domain.CompanySettings{}).
		Where("company_id = ?", env.company.ID).Update("ai_enabled", false).Error)

	_, err := env.scope.ParseText(env.ctx, "paint")
	require.NoError(t, err)
	assert.Zero(t, env.ai.calls)
}

func TestParseText_RejectsEmpty(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.scope.ParseText(env.ctx, "   ")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestParseVoiceNote_TranscribesAndParses(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Voice")
	env.ai.transcript = "paint the boundary wall"
	env.ai.items = []ai.ScopeItem{{Description: "Paint boundary wall", Quantity: 40, Unit: "m2"}}

	result, err := env.scope.ParseVoiceNote(env.ctx, project.ID, "note.m4a", "audio/mp4", strings.NewReader("fake audio"))
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, "paint the boundary wall", result.Transcript)
	require.Len(t, result.Items, 1)
	require.NotNil(t, result.AttachmentID)

	attachments, err := env.projects.Attachments(env.ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "note.m4a", attachments[0].Filename)
	assert.Equal(t, int64(len("fake audio")), attachments[0].Size)
	assert.Equal(t, "paint the boundary wall", attachments[0].Transcript)
}

func TestParseVoiceNote_TranscriptionFailureKeepsAttachment(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Voice down")
	env.ai.transErr = errProviderDown

	result, err := env.scope.ParseVoiceNote(env.ctx, project.ID, "note.ogg", "audio/ogg", strings.NewReader("audio"))
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Items)
	require.NotNil(t, result.AttachmentID)

	attachments, err := env.projects.Attachments(env.ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Empty(t, attachments[0].Transcript)
	assert.Contains(t, env.scrapeMetrics(t), `urops_external_failures_total{dependency="ai"} 1`)
}

func TestParseVoiceNote_Errors(t *testing.T) {
	env := newTestEnv(t)
	project := env.project(t, "Too big")

	_, err := env.scope.ParseVoiceNote(env.ctx, uuid.New(), "note.m4a", "audio/mp4", strings.NewReader("x"))
	assert.ErrorIs(t, err, service.ErrNotFound)

	big := bytes.Repeat([]byte{1}, 1<<20+1)
	_, err = env.scope.ParseVoiceNote(env.ctx, project.ID, "note.m4a", "audio/mp4", bytes.NewReader(big))
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	attachments, err := env.projects.Attachments(env.ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, attachments)
}
