package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Uthmaanravat/UROps-sub001/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceFilters holds filter options for listing quotes and invoices
type InvoiceFilters struct {
	Type      *domain.DocumentType
	Status    *domain.InvoiceStatus
	ClientID  *uuid.UUID
	ProjectID *uuid.UUID
	Search    string
}

var invoiceSortFields = map[string]string{
	"number":    "number",
	"date":      "date",
	"total":     "total",
	"status":    "status",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// InvoiceRepository handles quotes and invoices with their items and payments
type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts a document together with its items
func (r *InvoiceRepository) Create(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice) error {
	return conn(r.db, tx).WithContext(ctx).Create(invoice).Error
}

// GetByID loads a document of the company with items, payments and client
func (r *InvoiceRepository) GetByID(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := Scoped(conn(r.db, tx).WithContext(ctx), companyID).
		Preload("Items", orderedItems).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		Preload("Client").
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List returns a page of documents matching the filters
func (r *InvoiceRepository) List(ctx context.Context, companyID uuid.UUID, page, pageSize int, filters *InvoiceFilters, sort SortConfig) ([]domain.Invoice, int64, error) {
	var invoices []domain.Invoice
	var total int64

	query := Scoped(r.db.WithContext(ctx).Model(&domain.Invoice{}), companyID)

	if filters != nil {
		if filters.Type != nil {
			query = query.Where("type = ?", *filters.Type)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.ClientID != nil {
			query = query.Where("client_id = ?", *filters.ClientID)
		}
		if filters.ProjectID != nil {
			query = query.Where("project_id = ?", *filters.ProjectID)
		}
		if filters.Search != "" {
			searchPattern := "%" + escapeLike(strings.ToLower(filters.Search)) + "%"
			query = query.Where("LOWER(quote_number) LIKE ? ESCAPE '\\' OR LOWER(reference) LIKE ? ESCAPE '\\' OR LOWER(site) LIKE ? ESCAPE '\\'",
				searchPattern, searchPattern, searchPattern)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Client").
		Order(BuildOrderClause(sort, invoiceSortFields, "updated_at")).
		Offset(offset).
		Limit(pageSize).
		Find(&invoices).Error

	return invoices, total, err
}

// UpdateFields applies a partial update to a document's own columns
func (r *InvoiceRepository) UpdateFields(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := Scoped(conn(r.db, tx).WithContext(ctx).Model(&domain.Invoice{}), companyID).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TransitionStatus moves a document to status to, but only if its current
// status is one of from
func (r *InvoiceRepository) TransitionStatus(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID, from []domain.InvoiceStatus, to domain.InvoiceStatus, extra map[string]interface{}) error {
	fields := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		fields[k] = v
	}
	result := Scoped(conn(r.db, tx).WithContext(ctx).Model(&domain.Invoice{}), companyID).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceItems swaps a document's items
func (r *InvoiceRepository) ReplaceItems(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID, items []domain.InvoiceItem) error {
	db := conn(r.db, tx).WithContext(ctx)
	if err := db.Where("invoice_id = ?", invoiceID).Delete(&domain.InvoiceItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].InvoiceID = invoiceID
	}
	return db.Create(&items).Error
}

// Delete removes a draft document. Issued documents keep their number and
// cannot be deleted.
func (r *InvoiceRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := Scoped(r.db.WithContext(ctx), companyID).
		Where("status = ?", domain.InvoiceStatusDraft).
		Delete(&domain.Invoice{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddPayment inserts a payment
func (r *InvoiceRepository) AddPayment(ctx context.Context, tx *gorm.DB, payment *domain.Payment) error {
	return conn(r.db, tx).WithContext(ctx).Create(payment).Error
}

// SumPayments totals the payments recorded against a document
func (r *InvoiceRepository) SumPayments(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var payments []domain.Payment
	if err := conn(r.db, tx).WithContext(ctx).
		Select("amount").
		Where("invoice_id = ?", invoiceID).
		Find(&payments).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum, nil
}

// CountOpenInvoices counts issued INVOICE-type documents on a project that
// are not yet PAID. Drafts are not counted.
func (r *InvoiceRepository) CountOpenInvoices(ctx context.Context, tx *gorm.DB, companyID, projectID uuid.UUID) (int64, error) {
	var count int64
	err := Scoped(conn(r.db, tx).WithContext(ctx).Model(&domain.Invoice{}), companyID).
		Where("project_id = ? AND type = ? AND status NOT IN ?", projectID, domain.DocumentTypeInvoice,
			[]domain.InvoiceStatus{domain.InvoiceStatusDraft, domain.InvoiceStatusPaid}).
		Count(&count).Error
	return count, err
}

// ListUnlearnedQuotes returns issued quotes of any company whose prices have
// not been fed to the pricing knowledge base yet
func (r *InvoiceRepository) ListUnlearnedQuotes(ctx context.Context, limit int) ([]domain.Invoice, error) {
	var quotes []domain.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("type = ? AND status <> ? AND learned_at IS NULL", domain.DocumentTypeQuote, domain.InvoiceStatusDraft).
		Order("issued_at ASC").
		Limit(limit).
		Find(&quotes).Error
	return quotes, err
}

// MarkLearned stamps learned_at on a quote
func (r *InvoiceRepository) MarkLearned(ctx context.Context, tx *gorm.DB, companyID, id uuid.UUID, at time.Time) error {
	return Scoped(conn(r.db, tx).WithContext(ctx).Model(&domain.Invoice{}), companyID).
		Where("id = ?", id).
		Update("learned_at", at).Error
}

// NumberTaken reports whether a document of docType already carries number n
func (r *InvoiceRepository) NumberTaken(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, docType domain.DocumentType, n int) (bool, error) {
	var count int64
	err := Scoped(conn(r.db, tx).WithContext(ctx).Model(&domain.Invoice{}), companyID).
		Where("type = ? AND number = ?", docType, n).
		Count(&count).Error
	return count > 0, err
}
