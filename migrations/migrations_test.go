package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		body, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		text := string(body)
		assert.True(t, strings.HasPrefix(text, "-- +goose Up"), "%s must start with a goose Up annotation", name)
		assert.Contains(t, text, "-- +goose Down", name)
	}
}

func TestInitCreatesUniqueDocumentNumbers(t *testing.T) {
	body, err := fs.ReadFile(FS, "00001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "idx_invoice_company_type_number ON invoices(company_id, type, number)")
	assert.Contains(t, string(body), "idx_sow_project_version ON scopes_of_work(project_id, version)")
}
