package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BaseModel carries the primary key and timestamps shared by every table.
// IDs are generated in Go so the same models work against Postgres and SQLite.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a UUID when the caller did not set one
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Company is the tenant root. One company exists per email domain.
type Company struct {
	BaseModel
	Name     string           `gorm:"type:varchar(200);not null"`
	Domain   string           `gorm:"type:varchar(255);not null;uniqueIndex"`
	Settings *CompanySettings `gorm:"foreignKey:CompanyID"`
}

// CompanySettings holds per-tenant numbering counters and branding.
// Exactly one row exists per company; it is created together with the company.
type CompanySettings struct {
	BaseModel
	CompanyID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	LastQuoteNumber   int             `gorm:"not null;default:0"`
	LastInvoiceNumber int             `gorm:"not null;default:0"`
	LogoURL           string          `gorm:"type:varchar(500)"`
	Address           string          `gorm:"type:varchar(500)"`
	VATNumber         string          `gorm:"type:varchar(50);column:vat_number"`
	BankDetails       string          `gorm:"type:text"`
	Email             string          `gorm:"type:varchar(255)"`
	Phone             string          `gorm:"type:varchar(50)"`
	VATRate           decimal.Decimal `gorm:"type:numeric(5,2);not null;default:15;column:vat_rate"`
	AIEnabled         bool            `gorm:"not null;default:true;column:ai_enabled"`
}

// UserRole is the role of a user within its company
type UserRole string

const (
	UserRoleAdmin  UserRole = "ADMIN"
	UserRoleMember UserRole = "MEMBER"
)

// User links an identity from the auth provider to a company
type User struct {
	BaseModel
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthSubject string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Email       string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name        string    `gorm:"type:varchar(200)"`
	Role        UserRole  `gorm:"type:varchar(20);not null;default:'MEMBER'"`
}

// Client is a customer of the maintenance company
type Client struct {
	BaseModel
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null;index"`
	Email     string    `gorm:"type:varchar(255)"`
	Phone     string    `gorm:"type:varchar(50)"`
	Address   string    `gorm:"type:varchar(500)"`
	VATNumber string    `gorm:"type:varchar(50);column:vat_number"`
	Notes     string    `gorm:"type:text"`
}

// ProjectStatus is the user-facing project status
type ProjectStatus string

const (
	ProjectStatusSOW        ProjectStatus = "SOW"
	ProjectStatusQuoted     ProjectStatus = "QUOTED"
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS"
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"
	ProjectStatusOnHold     ProjectStatus = "ON_HOLD"
	ProjectStatusCancelled  ProjectStatus = "CANCELLED"
)

// IsValid reports whether s is a known project status
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusSOW, ProjectStatusQuoted, ProjectStatusInProgress,
		ProjectStatusCompleted, ProjectStatusOnHold, ProjectStatusCancelled:
		return true
	}
	return false
}

// CommercialStatus tracks purchase-order state for a project
type CommercialStatus string

const (
	CommercialStatusAwaitingPO    CommercialStatus = "AWAITING_PO"
	CommercialStatusPOReceived    CommercialStatus = "PO_RECEIVED"
	CommercialStatusEmergencyWork CommercialStatus = "EMERGENCY_WORK"
)

// IsValid reports whether s is a known commercial status
func (s CommercialStatus) IsValid() bool {
	switch s {
	case CommercialStatusAwaitingPO, CommercialStatusPOReceived, CommercialStatusEmergencyWork:
		return true
	}
	return false
}

// Project is a unit of work for a client. WorkflowStage is owned by the
// stage advancer and never written from user input.
type Project struct {
	BaseModel
	CompanyID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	ClientID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	Client           *Client          `gorm:"foreignKey:ClientID"`
	Name             string           `gorm:"type:varchar(200);not null"`
	Description      string           `gorm:"type:text"`
	Status           ProjectStatus    `gorm:"type:varchar(30);not null;default:'SOW';index"`
	WorkflowStage    WorkflowStage    `gorm:"type:varchar(30);not null;default:'SOW';column:workflow_stage"`
	CommercialStatus CommercialStatus `gorm:"type:varchar(30);not null;default:'AWAITING_PO';column:commercial_status"`
	PONumber         string           `gorm:"type:varchar(100);column:po_number"`
}

// SOWStatus is the status of a scope-of-work version
type SOWStatus string

const (
	SOWStatusDraft     SOWStatus = "DRAFT"
	SOWStatusSubmitted SOWStatus = "SUBMITTED"
)

// ScopeOfWork is one version of a project's scope. The highest version is
// the current one; older versions are kept untouched as history.
type ScopeOfWork struct {
	BaseModel
	CompanyID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProjectID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_sow_project_version"`
	Version         int        `gorm:"not null;uniqueIndex:idx_sow_project_version"`
	Status          SOWStatus  `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Site            string     `gorm:"type:varchar(500)"`
	Notes           string     `gorm:"type:text"`
	SubmittedAt     *time.Time `gorm:"column:submitted_at"`
	SubmittedByID   *uuid.UUID `gorm:"type:uuid;column:submitted_by_id"`
	SubmittedByName string     `gorm:"type:varchar(200);column:submitted_by_name"`
	Items           []SOWItem  `gorm:"foreignKey:SOWID;constraint:OnDelete:CASCADE"`
}

// TableName pins the table name, gorm would otherwise pluralise oddly
func (ScopeOfWork) TableName() string {
	return "scopes_of_work"
}

// SOWItem is a line of a scope of work
type SOWItem struct {
	BaseModel
	SOWID        uuid.UUID       `gorm:"type:uuid;not null;index;column:sow_id"`
	Description  string          `gorm:"type:text;not null"`
	Area         string          `gorm:"type:varchar(200)"`
	Quantity     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Unit         string          `gorm:"type:varchar(20)"`
	DisplayOrder int             `gorm:"not null;default:0;column:display_order"`
}

// TableName for SOWItem
func (SOWItem) TableName() string {
	return "sow_items"
}

// WBPStatus is the status of a work breakdown & pricing sheet
type WBPStatus string

const (
	WBPStatusDraft     WBPStatus = "DRAFT"
	WBPStatusFinalized WBPStatus = "FINALIZED"
)

// WorkBreakdownPricing prices a submitted scope of work. Finalizing it
// produces a quote.
type WorkBreakdownPricing struct {
	BaseModel
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SOWID     uuid.UUID  `gorm:"type:uuid;not null;index;column:sow_id"`
	Status    WBPStatus  `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	QuoteID   *uuid.UUID `gorm:"type:uuid;column:quote_id"`
	Items     []WBPItem  `gorm:"foreignKey:WBPID;constraint:OnDelete:CASCADE"`
}

// TableName for WorkBreakdownPricing
func (WorkBreakdownPricing) TableName() string {
	return "work_breakdown_pricing"
}

// WBPItem is a priced line of a WBP sheet
type WBPItem struct {
	BaseModel
	WBPID        uuid.UUID       `gorm:"type:uuid;not null;index;column:wbp_id"`
	Description  string          `gorm:"type:text;not null"`
	Area         string          `gorm:"type:varchar(200)"`
	Quantity     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Unit         string          `gorm:"type:varchar(20)"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0;column:unit_price"`
	DisplayOrder int             `gorm:"not null;default:0;column:display_order"`
}

// TableName for WBPItem
func (WBPItem) TableName() string {
	return "wbp_items"
}

// LineTotal is quantity times unit price
func (i WBPItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// InvoiceStatus is the status of a quote or invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft    InvoiceStatus = "DRAFT"
	InvoiceStatusSent     InvoiceStatus = "SENT"
	InvoiceStatusInvoiced InvoiceStatus = "INVOICED"
	InvoiceStatusPaid     InvoiceStatus = "PAID"
)

// Invoice is the common record for quotes and invoices, tagged by Type.
// Number stays NULL while the document is a draft and is unique per
// company and type once assigned.
type Invoice struct {
	BaseModel
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoice_company_type_number"`
	ClientID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Client        *Client         `gorm:"foreignKey:ClientID"`
	ProjectID     *uuid.UUID      `gorm:"type:uuid;index"`
	Type          DocumentType    `gorm:"type:varchar(10);not null;uniqueIndex:idx_invoice_company_type_number"`
	Number        *int            `gorm:"uniqueIndex:idx_invoice_company_type_number"`
	QuoteNumber   string          `gorm:"type:varchar(50);column:quote_number"`
	Status        InvoiceStatus   `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Date          time.Time       `gorm:"not null"`
	DueDate       *time.Time      `gorm:"column:due_date"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	VATRate       decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0;column:vat_rate"`
	VATAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0;column:vat_amount"`
	Total         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Site          string          `gorm:"type:varchar(500)"`
	Reference     string          `gorm:"type:varchar(200)"`
	Notes         string          `gorm:"type:text"`
	SourceQuoteID *uuid.UUID      `gorm:"type:uuid;column:source_quote_id"`
	IssuedAt      *time.Time      `gorm:"column:issued_at"`
	LearnedAt     *time.Time      `gorm:"column:learned_at;index"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Payments      []Payment       `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// InvoiceItem is a line on a quote or invoice
type InvoiceItem struct {
	BaseModel
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description  string          `gorm:"type:text;not null"`
	Area         string          `gorm:"type:varchar(200)"`
	Quantity     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Unit         string          `gorm:"type:varchar(20)"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0;column:unit_price"`
	Total        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	DisplayOrder int             `gorm:"not null;default:0;column:display_order"`
}

// PaymentMethod is how a payment was made
type PaymentMethod string

const (
	PaymentMethodEFT   PaymentMethod = "EFT"
	PaymentMethodCash  PaymentMethod = "CASH"
	PaymentMethodCard  PaymentMethod = "CARD"
	PaymentMethodOther PaymentMethod = "OTHER"
)

// Payment is money received against an invoice
type Payment struct {
	BaseModel
	CompanyID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Date      time.Time       `gorm:"not null"`
	Method    PaymentMethod   `gorm:"type:varchar(20);not null;default:'EFT'"`
	Reference string          `gorm:"type:varchar(200)"`
}

// PricingKnowledge is a learned unit price for a normalised item description
type PricingKnowledge struct {
	BaseModel
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pricing_company_key"`
	NormalizedKey string          `gorm:"type:varchar(300);not null;uniqueIndex:idx_pricing_company_key;column:normalized_key"`
	Description   string          `gorm:"type:text;not null"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0;column:unit_price"`
	Unit          string          `gorm:"type:varchar(20)"`
	Frequency     int             `gorm:"not null;default:0"`
	Category      string          `gorm:"type:varchar(100)"`
	LastUsedAt    time.Time       `gorm:"not null;column:last_used_at"`
}

// TableName for PricingKnowledge
func (PricingKnowledge) TableName() string {
	return "pricing_knowledge"
}

// SubmissionType classifies a submission log entry
type SubmissionType string

const (
	SubmissionTypeSOW         SubmissionType = "SOW"
	SubmissionTypeQuote       SubmissionType = "QUOTE"
	SubmissionTypeInvoice     SubmissionType = "INVOICE"
	SubmissionTypePayment     SubmissionType = "PAYMENT"
	SubmissionTypeEmail       SubmissionType = "EMAIL"
	SubmissionTypeNumberReset SubmissionType = "NUMBER_RESET"
)

// ErrImmutableRecord is returned by hooks on append-only tables
var ErrImmutableRecord = errors.New("record is append-only")

// SubmissionLog is an append-only audit entry of a workflow submission
type SubmissionLog struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type            SubmissionType `gorm:"type:varchar(30);not null;index"`
	DocumentID      uuid.UUID      `gorm:"type:uuid;not null;index;column:document_id"`
	SubmittedByID   *uuid.UUID     `gorm:"type:uuid;column:submitted_by_id"`
	SubmittedByName string         `gorm:"type:varchar(200);column:submitted_by_name"`
	Message         string         `gorm:"type:text"`
	Metadata        datatypes.JSON
	CreatedAt       time.Time      `gorm:"not null;index"`
}

// BeforeCreate assigns the ID
func (s *SubmissionLog) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate rejects updates
func (s *SubmissionLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableRecord
}

// BeforeDelete rejects deletes
func (s *SubmissionLog) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableRecord
}

// InteractionType is the channel of a client interaction
type InteractionType string

const (
	InteractionTypeEmail   InteractionType = "EMAIL"
	InteractionTypeCall    InteractionType = "CALL"
	InteractionTypeMeeting InteractionType = "MEETING"
	InteractionTypeNote    InteractionType = "NOTE"
)

// Interaction is an entry in a client's interaction history
type Interaction struct {
	BaseModel
	CompanyID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProjectID  *uuid.UUID      `gorm:"type:uuid;index"`
	Type       InteractionType `gorm:"type:varchar(20);not null"`
	Subject    string          `gorm:"type:varchar(300);not null"`
	Body       string          `gorm:"type:text"`
	OccurredAt time.Time       `gorm:"not null;index;column:occurred_at"`
	CreatedBy  string          `gorm:"type:varchar(200);column:created_by"`
}

// Attachment is an uploaded file (voice note, photo) on a project
type Attachment struct {
	BaseModel
	CompanyID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	SOWID       *uuid.UUID `gorm:"type:uuid;column:sow_id"`
	Filename    string     `gorm:"type:varchar(255);not null"`
	ContentType string     `gorm:"type:varchar(100);not null;column:content_type"`
	Size        int64      `gorm:"not null"`
	StoragePath string     `gorm:"type:varchar(500);not null;column:storage_path"`
	Transcript  string     `gorm:"type:text"`
}

// AllModels lists every model in migration order. Used by tests and the
// sqlite development mode.
func AllModels() []interface{} {
	return []interface{}{
		&Company{},
		&CompanySettings{},
		&User{},
		&Client{},
		&Project{},
		&ScopeOfWork{},
		&SOWItem{},
		&WorkBreakdownPricing{},
		&WBPItem{},
		&Invoice{},
		&InvoiceItem{},
		&Payment{},
		&PricingKnowledge{},
		&SubmissionLog{},
		&Interaction{},
		&Attachment{},
	}
}
