package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle is one registered car owned by a user. The registration number is
// globally unique.
type Vehicle struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID             uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Make               string    `gorm:"column:make;type:text;not null"`
	Model              string    `gorm:"column:model;type:text;not null"`
	RegistrationNumber string    `gorm:"column:registration_number;type:text;not null;uniqueIndex"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
