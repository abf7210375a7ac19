package mapper_test

import (
	"testing"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/Uthmaanravat/UROps-sub001/internal/mapper"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestToNumberingDTO(t *testing.T) {
	dto := mapper.ToNumberingDTO(42, 16)

	assert.Equal(t, 42, dto.LastQuoteNumber)
	assert.Equal(t, "Q-0043", dto.NextQuote)
	assert.Equal(t, "INV-0017", dto.NextInvoice)
}

func TestToProjectDTO_IncludesClientName(t *testing.T) {
	project := &domain.Project{
		BaseModel:     domain.BaseModel{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Name:          "Roof repair",
		Status:        domain.ProjectStatusQuoted,
		WorkflowStage: domain.WorkflowStageQuotation,
		Client:        &domain.Client{Name: "Acme Properties"},
	}

	dto := mapper.ToProjectDTO(project)

	assert.Equal(t, "Roof repair", dto.Name)
	assert.Equal(t, "Acme Properties", dto.ClientName)
	assert.Equal(t, domain.WorkflowStageQuotation, dto.WorkflowStage)
}

func TestToWBPDTO_Totals(t *testing.T) {
	wbp := &domain.WorkBreakdownPricing{
		Items: []domain.WBPItem{
			{Description: "Paint walls", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("120.50")},
			{Description: "Replace tiles", Quantity: decimal.RequireFromString("2.5"), UnitPrice: decimal.NewFromInt(80)},
		},
	}

	dto := mapper.ToWBPDTO(wbp)

	require.Len(t, dto.Items, 2)
	assert.Equal(t, 361.5, dto.Items[0].Total)
	assert.Equal(t, 200.0, dto.Items[1].Total)
	assert.Equal(t, 561.5, dto.Total)
}

func TestToInvoiceDTO_AmountPaid(t *testing.T) {
	number := 17
	due := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	inv := &domain.Invoice{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Type:      domain.DocumentTypeInvoice,
		Number:    &number,
		Status:    domain.InvoiceStatusInvoiced,
		Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   &due,
		Total:     decimal.NewFromInt(1150),
		Payments: []domain.Payment{
			{Amount: decimal.NewFromInt(500), Date: time.Now()},
			{Amount: decimal.RequireFromString("150.25"), Date: time.Now()},
		},
	}

	dto := mapper.ToInvoiceDTO(inv)

	assert.Equal(t, 650.25, dto.AmountPaid)
	assert.Equal(t, "2024-03-01", dto.Date)
	require.NotNil(t, dto.DueDate)
	assert.Equal(t, "2024-03-31", *dto.DueDate)
	assert.Len(t, dto.Payments, 2)
}

func TestToSubmissionLogDTO_DecodesMetadata(t *testing.T) {
	log := &domain.SubmissionLog{
		ID:       uuid.New(),
		Type:     domain.SubmissionTypeSOW,
		Metadata: datatypes.JSON(`{"version":2}`),
	}

	dto := mapper.ToSubmissionLogDTO(log)

	meta, ok := dto.Metadata.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), meta["version"])
}
