package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Recalculate derives line totals, subtotal, VAT and total from the items
// and VATRate. Amounts are rounded to cents per line and on the VAT.
func (inv *Invoice) Recalculate() {
	subtotal := decimal.Zero
	for i := range inv.Items {
		inv.Items[i].Total = inv.Items[i].Quantity.Mul(inv.Items[i].UnitPrice).Round(2)
		subtotal = subtotal.Add(inv.Items[i].Total)
	}
	inv.Subtotal = subtotal
	inv.VATAmount = subtotal.Mul(inv.VATRate).Div(hundred).Round(2)
	inv.Total = inv.Subtotal.Add(inv.VATAmount)
}

// DisplayNumber renders the document number, or "DRAFT" before issue.
// A manually entered quote number wins over the sequence.
func (inv *Invoice) DisplayNumber() string {
	if inv.QuoteNumber != "" {
		return inv.QuoteNumber
	}
	if inv.Number == nil {
		return "DRAFT"
	}
	return FormatDocumentNumber(inv.Type, *inv.Number)
}

// IssuedStatus is the status a document takes when it is issued
func (t DocumentType) IssuedStatus() InvoiceStatus {
	if t == DocumentTypeInvoice {
		return InvoiceStatusInvoiced
	}
	return InvoiceStatusSent
}
