package invoices

import (
	"context"

	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles invoice persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateWithLineItems(ctx context.Context, invoice *models.Invoice, items []models.LineItem) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error)
	FindOwned(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error)
	Delete(ctx context.Context, invoiceID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateWithLineItems persists the invoice and its line items atomically.
func (r *repository) CreateWithLineItems(ctx context.Context, invoice *models.Invoice, items []models.LineItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = invoice.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		invoice.LineItems = items
		return nil
	})
}

// ListByUser returns the user's invoices newest first with their vehicle
// summary loaded.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Vehicle").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindOwned loads one invoice scoped to its owner, with vehicle and line
// items. Absent and unowned rows are indistinguishable.
func (r *repository) FindOwned(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Vehicle").
		Preload("LineItems").
		Where("id = ? AND user_id = ?", invoiceID, userID).
		First(&invoice).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// Delete removes the invoice row. Line items and messages go with it via
// the FK cascades.
func (r *repository) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", invoiceID).
		Delete(&models.Invoice{}).Error
}
