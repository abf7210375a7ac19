package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses. Timestamps are ISO 8601 strings, money is float64.

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Pagination response wrapper
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

type CompanyDTO struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Domain string    `json:"domain"`
}

type CompanySettingsDTO struct {
	CompanyID         uuid.UUID `json:"companyId"`
	LastQuoteNumber   int       `json:"lastQuoteNumber"`
	LastInvoiceNumber int       `json:"lastInvoiceNumber"`
	LogoURL           string    `json:"logoUrl,omitempty"`
	Address           string    `json:"address,omitempty"`
	VATNumber         string    `json:"vatNumber,omitempty"`
	BankDetails       string    `json:"bankDetails,omitempty"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	VATRate           float64   `json:"vatRate"`
	AIEnabled         bool      `json:"aiEnabled"`
}

// NumberingDTO shows the last issued number of each sequence and what the
// next document of each type will be called
type NumberingDTO struct {
	LastQuoteNumber   int    `json:"lastQuoteNumber"`
	LastInvoiceNumber int    `json:"lastInvoiceNumber"`
	NextQuote         string `json:"nextQuote"`
	NextInvoice       string `json:"nextInvoice"`
}

type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	CompanyID uuid.UUID `json:"companyId"`
}

// AuthUserDTO represents the current authenticated user with its company
type AuthUserDTO struct {
	User     UserDTO             `json:"user"`
	Company  CompanyDTO          `json:"company"`
	Settings *CompanySettingsDTO `json:"settings,omitempty"`
	Created  bool                `json:"created"`
}

type ClientDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	VATNumber string    `json:"vatNumber,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type ProjectDTO struct {
	ID               uuid.UUID        `json:"id"`
	ClientID         uuid.UUID        `json:"clientId"`
	ClientName       string           `json:"clientName,omitempty"`
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	Status           ProjectStatus    `json:"status"`
	WorkflowStage    WorkflowStage    `json:"workflowStage"`
	CommercialStatus CommercialStatus `json:"commercialStatus"`
	PONumber         string           `json:"poNumber,omitempty"`
	CreatedAt        string           `json:"createdAt"`
	UpdatedAt        string           `json:"updatedAt"`
}

type SOWItemDTO struct {
	ID           uuid.UUID `json:"id"`
	Description  string    `json:"description"`
	Area         string    `json:"area,omitempty"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit,omitempty"`
	DisplayOrder int       `json:"displayOrder"`
}

type SOWDTO struct {
	ID          uuid.UUID    `json:"id"`
	ProjectID   uuid.UUID    `json:"projectId"`
	Version     int          `json:"version"`
	Status      SOWStatus    `json:"status"`
	Site        string       `json:"site,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	SubmittedAt *string      `json:"submittedAt,omitempty"`
	SubmittedBy string       `json:"submittedBy,omitempty"`
	Items       []SOWItemDTO `json:"items"`
	CreatedAt   string       `json:"createdAt"`
}

// SubmitSOWResultDTO identifies the records created by a SOW submission
type SubmitSOWResultDTO struct {
	SOWID   uuid.UUID `json:"sowId"`
	WBPID   uuid.UUID `json:"wbpId"`
	Version int       `json:"version"`
}

type WBPItemDTO struct {
	ID           uuid.UUID `json:"id"`
	Description  string    `json:"description"`
	Area         string    `json:"area,omitempty"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit,omitempty"`
	UnitPrice    float64   `json:"unitPrice"`
	Total        float64   `json:"total"`
	DisplayOrder int       `json:"displayOrder"`
}

type WBPDTO struct {
	ID        uuid.UUID    `json:"id"`
	ProjectID uuid.UUID    `json:"projectId"`
	SOWID     uuid.UUID    `json:"sowId"`
	Status    WBPStatus    `json:"status"`
	QuoteID   *uuid.UUID   `json:"quoteId,omitempty"`
	Items     []WBPItemDTO `json:"items"`
	Total     float64      `json:"total"`
	CreatedAt string       `json:"createdAt"`
}

type InvoiceItemDTO struct {
	ID           uuid.UUID `json:"id"`
	Description  string    `json:"description"`
	Area         string    `json:"area,omitempty"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit,omitempty"`
	UnitPrice    float64   `json:"unitPrice"`
	Total        float64   `json:"total"`
	DisplayOrder int       `json:"displayOrder"`
}

type PaymentDTO struct {
	ID        uuid.UUID     `json:"id"`
	InvoiceID uuid.UUID     `json:"invoiceId"`
	Amount    float64       `json:"amount"`
	Date      string        `json:"date"`
	Method    PaymentMethod `json:"method"`
	Reference string        `json:"reference,omitempty"`
}

type InvoiceDTO struct {
	ID            uuid.UUID        `json:"id"`
	Type          DocumentType     `json:"type"`
	Number        *int             `json:"number,omitempty"`
	QuoteNumber   string           `json:"quoteNumber,omitempty"`
	Status        InvoiceStatus    `json:"status"`
	ClientID      uuid.UUID        `json:"clientId"`
	ClientName    string           `json:"clientName,omitempty"`
	ProjectID     *uuid.UUID       `json:"projectId,omitempty"`
	Date          string           `json:"date"`
	DueDate       *string          `json:"dueDate,omitempty"`
	Subtotal      float64          `json:"subtotal"`
	VATRate       float64          `json:"vatRate"`
	VATAmount     float64          `json:"vatAmount"`
	Total         float64          `json:"total"`
	AmountPaid    float64          `json:"amountPaid"`
	Site          string           `json:"site,omitempty"`
	Reference     string           `json:"reference,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	SourceQuoteID *uuid.UUID       `json:"sourceQuoteId,omitempty"`
	Items         []InvoiceItemDTO `json:"items"`
	Payments      []PaymentDTO     `json:"payments,omitempty"`
	CreatedAt     string           `json:"createdAt"`
	UpdatedAt     string           `json:"updatedAt"`
}

// SendInvoiceResultDTO reports the document state after sending and
// whether the email went out. A failed email does not undo the send.
type SendInvoiceResultDTO struct {
	Invoice    InvoiceDTO `json:"invoice"`
	EmailSent  bool       `json:"emailSent"`
	EmailError string     `json:"emailError,omitempty"`
}

type PricingKnowledgeDTO struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	UnitPrice   float64   `json:"unitPrice"`
	Unit        string    `json:"unit,omitempty"`
	Frequency   int       `json:"frequency"`
	Category    string    `json:"category,omitempty"`
	LastUsedAt  string    `json:"lastUsedAt"`
}

// ScopeItemDTO is a candidate line item extracted from free text
type ScopeItemDTO struct {
	Description string  `json:"description"`
	Area        string  `json:"area,omitempty"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit,omitempty"`
	UnitPrice   float64 `json:"unitPrice"`
	Category    string  `json:"category,omitempty"`
	// Placeholder is set when the item is the unparsed input text
	Placeholder bool `json:"placeholder,omitempty"`
}

// ParseScopeResultDTO is the outcome of parsing scope text or a voice note
type ParseScopeResultDTO struct {
	Items        []ScopeItemDTO `json:"items"`
	Transcript   string         `json:"transcript,omitempty"`
	AttachmentID *uuid.UUID     `json:"attachmentId,omitempty"`
	Degraded     bool           `json:"degraded"`
}

type SubmissionLogDTO struct {
	ID          uuid.UUID      `json:"id"`
	Type        SubmissionType `json:"type"`
	DocumentID  uuid.UUID      `json:"documentId"`
	SubmittedBy string         `json:"submittedBy,omitempty"`
	Message     string         `json:"message,omitempty"`
	Metadata    interface{}    `json:"metadata,omitempty"`
	CreatedAt   string         `json:"createdAt"`
}

type InteractionDTO struct {
	ID         uuid.UUID       `json:"id"`
	ClientID   uuid.UUID       `json:"clientId"`
	ProjectID  *uuid.UUID      `json:"projectId,omitempty"`
	Type       InteractionType `json:"type"`
	Subject    string          `json:"subject"`
	Body       string          `json:"body,omitempty"`
	OccurredAt string          `json:"occurredAt"`
	CreatedBy  string          `json:"createdBy,omitempty"`
}

type AttachmentDTO struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"projectId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Transcript  string    `json:"transcript,omitempty"`
	CreatedAt   string    `json:"createdAt"`
}

// Request DTOs

type SignupRequest struct {
	CompanyName string `json:"companyName,omitempty" validate:"max=200"`
}

type UpdateCompanySettingsRequest struct {
	LogoURL     *string  `json:"logoUrl,omitempty" validate:"omitempty,max=500"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,max=500"`
	VATNumber   *string  `json:"vatNumber,omitempty" validate:"omitempty,max=50"`
	BankDetails *string  `json:"bankDetails,omitempty"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	VATRate     *float64 `json:"vatRate,omitempty" validate:"omitempty,gte=0,lte=100"`
	AIEnabled   *bool    `json:"aiEnabled,omitempty"`
}

type SetNumberRequest struct {
	Type   DocumentType `json:"type" validate:"required,oneof=QUOTE INVOICE"`
	Number int          `json:"number" validate:"gte=0"`
}

type CreateClientRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty" validate:"max=50"`
	Address   string `json:"address,omitempty" validate:"max=500"`
	VATNumber string `json:"vatNumber,omitempty" validate:"max=50"`
	Notes     string `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty" validate:"max=50"`
	Address   string `json:"address,omitempty" validate:"max=500"`
	VATNumber string `json:"vatNumber,omitempty" validate:"max=50"`
	Notes     string `json:"notes,omitempty"`
}

type CreateProjectRequest struct {
	ClientID         uuid.UUID        `json:"clientId" validate:"required"`
	Name             string           `json:"name" validate:"required,max=200"`
	Description      string           `json:"description,omitempty"`
	CommercialStatus CommercialStatus `json:"commercialStatus,omitempty" validate:"omitempty,oneof=AWAITING_PO PO_RECEIVED EMERGENCY_WORK"`
	PONumber         string           `json:"poNumber,omitempty" validate:"max=100"`
}

// UpdateProjectRequest carries the user-editable project fields. The
// workflow stage is deliberately absent; Status accepts only ON_HOLD and
// CANCELLED, other statuses are set by workflow events.
type UpdateProjectRequest struct {
	Name             *string           `json:"name,omitempty" validate:"omitempty,max=200"`
	Description      *string           `json:"description,omitempty"`
	CommercialStatus *CommercialStatus `json:"commercialStatus,omitempty" validate:"omitempty,oneof=AWAITING_PO PO_RECEIVED EMERGENCY_WORK"`
	PONumber         *string           `json:"poNumber,omitempty" validate:"omitempty,max=100"`
	Status           *ProjectStatus    `json:"status,omitempty" validate:"omitempty,oneof=ON_HOLD CANCELLED"`
}

type SOWItemInput struct {
	Description string  `json:"description" validate:"required"`
	Area        string  `json:"area,omitempty" validate:"max=200"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	Unit        string  `json:"unit,omitempty" validate:"max=20"`
}

type CreateSOWDraftRequest struct {
	Items []SOWItemInput `json:"items" validate:"dive"`
	Site  string         `json:"site,omitempty" validate:"max=500"`
	Notes string         `json:"notes,omitempty"`
}

type SubmitSOWRequest struct {
	Items []SOWItemInput `json:"items" validate:"required,min=1,dive"`
	Site  string         `json:"site,omitempty" validate:"max=500"`
}

type ParseScopeRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

type WBPItemInput struct {
	Description string  `json:"description" validate:"required"`
	Area        string  `json:"area,omitempty" validate:"max=200"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	Unit        string  `json:"unit,omitempty" validate:"max=20"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
}

type UpdateWBPRequest struct {
	Items []WBPItemInput `json:"items" validate:"required,min=1,dive"`
}

type FinalizeWBPRequest struct {
	Reference string     `json:"reference,omitempty" validate:"max=200"`
	Notes     string     `json:"notes,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
}

type InvoiceItemInput struct {
	Description string  `json:"description" validate:"required"`
	Area        string  `json:"area,omitempty" validate:"max=200"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	Unit        string  `json:"unit,omitempty" validate:"max=20"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
}

type CreateInvoiceRequest struct {
	Type      DocumentType       `json:"type" validate:"required,oneof=QUOTE INVOICE"`
	ClientID  uuid.UUID          `json:"clientId" validate:"required"`
	ProjectID *uuid.UUID         `json:"projectId,omitempty"`
	Date      *time.Time         `json:"date,omitempty"`
	DueDate   *time.Time         `json:"dueDate,omitempty"`
	Site      string             `json:"site,omitempty" validate:"max=500"`
	Reference string             `json:"reference,omitempty" validate:"max=200"`
	Notes     string             `json:"notes,omitempty"`
	VATRate   *float64           `json:"vatRate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Items     []InvoiceItemInput `json:"items" validate:"required,min=1,dive"`
}

type UpdateInvoiceItemsRequest struct {
	Items   []InvoiceItemInput `json:"items" validate:"required,min=1,dive"`
	VATRate *float64           `json:"vatRate,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// UpdateDocumentDetailsRequest holds the free-text fields of a document.
// Nil fields are left unchanged.
type UpdateDocumentDetailsRequest struct {
	Site        *string    `json:"site,omitempty" validate:"omitempty,max=500"`
	Reference   *string    `json:"reference,omitempty" validate:"omitempty,max=200"`
	QuoteNumber *string    `json:"quoteNumber,omitempty" validate:"omitempty,max=50"`
	Date        *time.Time `json:"date,omitempty"`
}

type LinkProjectRequest struct {
	ProjectID *uuid.UUID `json:"projectId"`
}

type SendInvoiceRequest struct {
	To      string `json:"to,omitempty" validate:"omitempty,email"`
	Subject string `json:"subject,omitempty" validate:"max=300"`
	Message string `json:"message,omitempty"`
}

type RecordPaymentRequest struct {
	Amount    float64       `json:"amount" validate:"gt=0"`
	Date      *time.Time    `json:"date,omitempty"`
	Method    PaymentMethod `json:"method,omitempty" validate:"omitempty,oneof=EFT CASH CARD OTHER"`
	Reference string        `json:"reference,omitempty" validate:"max=200"`
}

type CreateInteractionRequest struct {
	ClientID   uuid.UUID       `json:"clientId" validate:"required"`
	ProjectID  *uuid.UUID      `json:"projectId,omitempty"`
	Type       InteractionType `json:"type" validate:"required,oneof=EMAIL CALL MEETING NOTE"`
	Subject    string          `json:"subject" validate:"required,max=300"`
	Body       string          `json:"body,omitempty"`
	OccurredAt *time.Time      `json:"occurredAt,omitempty"`
}
