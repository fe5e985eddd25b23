package models

import (
	"time"

	"github.com/autoaudit/autoaudit-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LineItem is one extracted charge (part or labor) within an invoice. Line
// items are created together with their invoice and never mutated afterwards.
type LineItem struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID   uuid.UUID              `gorm:"column:invoice_id;type:uuid;not null;index"`
	Description string                 `gorm:"column:description;type:text;not null"`
	Quantity    int                    `gorm:"column:quantity;not null;default:1"`
	UnitPrice   decimal.Decimal        `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice  decimal.Decimal        `gorm:"column:total_price;type:numeric(12,2);not null"`
	Category    enums.LineItemCategory `gorm:"column:category;type:text;not null"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (l *LineItem) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
