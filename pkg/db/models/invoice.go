package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is one persisted vehicle-service bill with its extracted fields.
type Invoice struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	VehicleID     uuid.UUID       `gorm:"column:vehicle_id;type:uuid;not null;index"`
	FileURL       string          `gorm:"column:file_url;type:text;not null"`
	ServiceDate   time.Time       `gorm:"column:service_date;not null"`
	ServiceCenter string          `gorm:"column:service_center;type:text;not null"`
	TotalCost     decimal.Decimal `gorm:"column:total_cost;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Vehicle   *Vehicle   `gorm:"foreignKey:VehicleID"`
	LineItems []LineItem `gorm:"foreignKey:InvoiceID"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
