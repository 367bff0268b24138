package repository

import (
	"context"
	"time"

	"go-invoice-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceFilter narrows FindAll; zero values match everything
type InvoiceFilter struct {
	Type   model.InvoiceType
	Status model.InvoiceStatus
	From   *time.Time
	To     *time.Time
}

type InvoiceRepository interface {
	CreateWithItems(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindAll(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	ReplaceItems(ctx context.Context, invoice *model.Invoice) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
	CountByNumberPrefix(ctx context.Context, prefix string) (int64, error)
	NumberExists(ctx context.Context, number string) (bool, error)
}

type invoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("serial_no ASC")
}

// CreateWithItems stores the header and its items in one transaction
func (r *invoiceRepo) CreateWithItems(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(invoice).Error; err != nil {
			return err
		}
		return createItems(tx, invoice)
	})
}

func createItems(tx *gorm.DB, invoice *model.Invoice) error {
	if len(invoice.Items) == 0 {
		return nil
	}
	for i := range invoice.Items {
		invoice.Items[i].InvoiceID = invoice.ID
	}
	return tx.Create(&invoice.Items).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.WithContext(ctx).Preload("Items", orderedItems).First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *invoiceRepo) FindAll(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error) {
	var invoices []model.Invoice

	query := r.db.WithContext(ctx).Preload("Items", orderedItems)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date < ?", *filter.To)
	}

	err := query.Order("date DESC, created_at DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Invoice{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceItems drops every existing item, saves the header and recreates the
// items from invoice.Items, all in one transaction.
func (r *invoiceRepo) ReplaceItems(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&model.InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Omit("Items").Save(invoice).Error; err != nil {
			return err
		}
		return createItems(tx, invoice)
	})
}

// Delete soft-deletes the invoice and removes its items
func (r *invoiceRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Invoice{}).Where("id = ?", id).Updates(map[string]interface{}{
			"deleted_at": gorm.Expr("NOW()"),
			"deleted_by": deletedBy,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("invoice_id = ?", id).Delete(&model.InvoiceItem{}).Error
	})
}

// CountByNumberPrefix counts invoices, deleted ones included, whose number
// starts with prefix. Deleted numbers stay reserved by the unique index.
func (r *invoiceRepo) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&model.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

func (r *invoiceRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&model.Invoice{}).
		Where("invoice_number = ?", number).
		Count(&count).Error
	return count > 0, err
}
