package domain

import "github.com/shopspring/decimal"

// WorkflowStage is the position of a project in the document lifecycle
type WorkflowStage string

const (
	WorkflowStageSOW       WorkflowStage = "SOW"
	WorkflowStageQuotation WorkflowStage = "QUOTATION"
	WorkflowStageInvoice   WorkflowStage = "INVOICE"
	WorkflowStagePayment   WorkflowStage = "PAYMENT"
	WorkflowStageCompleted WorkflowStage = "COMPLETED"
)

var stageRank = map[WorkflowStage]int{
	WorkflowStageSOW:       0,
	WorkflowStageQuotation: 1,
	WorkflowStageInvoice:   2,
	WorkflowStagePayment:   3,
	WorkflowStageCompleted: 4,
}

// Rank returns the position of the stage in the canonical sequence, or -1
// for an unknown stage. An empty stage ranks as SOW.
func (s WorkflowStage) Rank() int {
	if s == "" {
		return 0
	}
	if r, ok := stageRank[s]; ok {
		return r
	}
	return -1
}

// IsValid reports whether s is a known stage
func (s WorkflowStage) IsValid() bool {
	_, ok := stageRank[s]
	return ok
}

// maxStage returns whichever of a and b is further along
func maxStage(a, b WorkflowStage) WorkflowStage {
	if b.Rank() > a.Rank() {
		return b
	}
	if a == "" {
		return WorkflowStageSOW
	}
	return a
}

// WorkflowEventType names something that happened to a project's documents
type WorkflowEventType string

const (
	EventSOWSubmitted    WorkflowEventType = "SOW_SUBMITTED"
	EventQuoteLinked     WorkflowEventType = "QUOTE_LINKED"
	EventQuoteSent       WorkflowEventType = "QUOTE_SENT"
	EventInvoiceIssued   WorkflowEventType = "INVOICE_ISSUED"
	EventPaymentReceived WorkflowEventType = "PAYMENT_RECEIVED"
)

// WorkflowEvent is the input to the stage advancer. Only the fields relevant
// to the event type are read.
type WorkflowEvent struct {
	Type WorkflowEventType
	// DocumentType of the quote or invoice that triggered the event
	DocumentType DocumentType
	// PaymentsTotal and InvoiceTotal are compared for PaymentReceived
	PaymentsTotal decimal.Decimal
	InvoiceTotal  decimal.Decimal
	// AllInvoicesPaid is true when every INVOICE-type document on the
	// project is PAID after this payment
	AllInvoicesPaid bool
}

// ProjectState is the part of a project the stage advancer owns
type ProjectState struct {
	Status ProjectStatus
	Stage  WorkflowStage
}

// Transition is the outcome of applying an event to a project state
type Transition struct {
	Event   WorkflowEventType
	From    ProjectState
	To      ProjectState
	Applied bool
	// Reason explains why an event was ignored
	Reason string
}

// Advance applies ev to current and returns the resulting transition. It is
// the single source of truth for how workflow events move a project.
// Stages never move backwards; events whose precondition fails leave the
// state unchanged and carry a Reason.
func Advance(current ProjectState, ev WorkflowEvent) Transition {
	t := Transition{Event: ev.Type, From: current, To: current}
	next := current

	switch ev.Type {
	case EventSOWSubmitted:
		if current.Stage.Rank() != 0 {
			t.Reason = "project is already past the SOW stage"
			return t
		}
		next.Stage = WorkflowStageQuotation
		next.Status = ProjectStatusSOW

	case EventQuoteLinked, EventQuoteSent:
		if ev.DocumentType != DocumentTypeQuote {
			t.Reason = "document is not a quote"
			return t
		}
		// A quote marks the project QUOTED until invoicing starts, whatever
		// status the user set before.
		if current.Stage.Rank() <= WorkflowStageQuotation.Rank() {
			next.Status = ProjectStatusQuoted
		}
		next.Stage = maxStage(current.Stage, WorkflowStageQuotation)

	case EventInvoiceIssued:
		if ev.DocumentType != DocumentTypeInvoice {
			t.Reason = "document is not an invoice"
			return t
		}
		next.Stage = maxStage(current.Stage, WorkflowStageInvoice)
		if current.Status == ProjectStatusSOW || current.Status == ProjectStatusQuoted || current.Status == "" {
			next.Status = ProjectStatusInProgress
		}

	case EventPaymentReceived:
		if ev.DocumentType != "" && ev.DocumentType != DocumentTypeInvoice {
			t.Reason = "payments are only recorded against invoices"
			return t
		}
		if ev.PaymentsTotal.LessThan(ev.InvoiceTotal) {
			t.Reason = "payments do not cover the invoice total"
			return t
		}
		next.Stage = maxStage(current.Stage, WorkflowStagePayment)
		if ev.AllInvoicesPaid {
			next.Stage = WorkflowStageCompleted
			next.Status = ProjectStatusCompleted
		}

	default:
		t.Reason = "unknown workflow event"
		return t
	}

	if next == current {
		t.Reason = "project already reflects this event"
		return t
	}
	t.To = next
	t.Applied = true
	return t
}
