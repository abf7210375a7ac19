package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestInvoiceRecalculate(t *testing.T) {
	inv := &Invoice{
		VATRate: dec("15"),
		Items: []InvoiceItem{
			{Quantity: dec("2"), UnitPrice: dec("150.00")},
			{Quantity: dec("1.5"), UnitPrice: dec("33.33")},
		},
	}
	inv.Recalculate()

	assert.True(t, inv.Items[0].Total.Equal(dec("300")))
	assert.True(t, inv.Items[1].Total.Equal(dec("50")), inv.Items[1].Total.String())
	assert.True(t, inv.Subtotal.Equal(dec("350")))
	assert.True(t, inv.VATAmount.Equal(dec("52.5")))
	assert.True(t, inv.Total.Equal(dec("402.5")))
}

func TestInvoiceDisplayNumber(t *testing.T) {
	n := 7
	assert.Equal(t, "DRAFT", (&Invoice{Type: DocumentTypeQuote}).DisplayNumber())
	assert.Equal(t, "Q-0007", (&Invoice{Type: DocumentTypeQuote, Number: &n}).DisplayNumber())
	assert.Equal(t, "INV-0007", (&Invoice{Type: DocumentTypeInvoice, Number: &n}).DisplayNumber())
	assert.Equal(t, "INV-2024-017", (&Invoice{Type: DocumentTypeInvoice, Number: &n, QuoteNumber: "INV-2024-017"}).DisplayNumber())
}

func TestIssuedStatus(t *testing.T) {
	assert.Equal(t, InvoiceStatusSent, DocumentTypeQuote.IssuedStatus())
	assert.Equal(t, InvoiceStatusInvoiced, DocumentTypeInvoice.IssuedStatus())
}
