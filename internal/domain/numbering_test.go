package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType DocumentType
		wantN    int
		wantOK   bool
	}{
		{"quote prefix", "Q-0042", DocumentTypeQuote, 42, true},
		{"invoice with year", "INV-2024-017", DocumentTypeInvoice, 17, true},
		{"lowercase invoice prefix", "inv-9", DocumentTypeInvoice, 9, true},
		{"bare number is a quote", "118", DocumentTypeQuote, 118, true},
		{"legacy text", "Job 2023/55 ", DocumentTypeQuote, 55, true},
		{"no digits", "Q-DRAFT", "", 0, false},
		{"digits not trailing", "INV-12A", "", 0, false},
		{"empty", "", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docType, n, ok := ParseDocumentNumber(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantType, docType)
			assert.Equal(t, tt.wantN, n)
		})
	}
}

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "Q-0007", FormatDocumentNumber(DocumentTypeQuote, 7))
	assert.Equal(t, "INV-0123", FormatDocumentNumber(DocumentTypeInvoice, 123))
	assert.Equal(t, "INV-12345", FormatDocumentNumber(DocumentTypeInvoice, 12345))
}

func TestDocumentType_CounterColumn(t *testing.T) {
	assert.Equal(t, "last_quote_number", DocumentTypeQuote.CounterColumn())
	assert.Equal(t, "last_invoice_number", DocumentTypeInvoice.CounterColumn())
	assert.True(t, DocumentTypeQuote.IsValid())
	assert.False(t, DocumentType("RECEIPT").IsValid())
}
