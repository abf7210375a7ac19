package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DocumentType discriminates quotes from invoices. Each type has its own
// number sequence per company.
type DocumentType string

const (
	DocumentTypeQuote   DocumentType = "QUOTE"
	DocumentTypeInvoice DocumentType = "INVOICE"
)

const (
	quotePrefix   = "Q-"
	invoicePrefix = "INV-"
)

// IsValid reports whether t is a known document type
func (t DocumentType) IsValid() bool {
	return t == DocumentTypeQuote || t == DocumentTypeInvoice
}

// Prefix returns the display prefix for numbers of this type
func (t DocumentType) Prefix() string {
	if t == DocumentTypeInvoice {
		return invoicePrefix
	}
	return quotePrefix
}

// CounterColumn is the company_settings column holding the last number
// issued for this type
func (t DocumentType) CounterColumn() string {
	if t == DocumentTypeInvoice {
		return "last_invoice_number"
	}
	return "last_quote_number"
}

// FormatDocumentNumber renders a number for display, e.g. Q-0007 or INV-0123
func FormatDocumentNumber(t DocumentType, n int) string {
	return fmt.Sprintf("%s%04d", t.Prefix(), n)
}

var trailingDigits = regexp.MustCompile(`(\d+)\s*$`)

// ParseDocumentNumber extracts the trailing numeric suffix of a manually
// entered document number and routes it to a sequence: an "INV-" prefix
// selects the invoice sequence, anything else the quote sequence.
// ok is false when the text has no trailing digits.
//
//	"Q-0042"       -> QUOTE, 42
//	"INV-2024-017" -> INVOICE, 17
func ParseDocumentNumber(text string) (docType DocumentType, n int, ok bool) {
	text = strings.TrimSpace(text)
	m := trailingDigits.FindStringSubmatch(text)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", 0, false
	}
	if strings.HasPrefix(strings.ToUpper(text), invoicePrefix) {
		return DocumentTypeInvoice, n, true
	}
	return DocumentTypeQuote, n, true
}
