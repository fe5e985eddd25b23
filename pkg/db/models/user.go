package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical internal identity entity. Rows are created
// lazily on first authenticated access; the external auth provider remains
// the source of truth for credentials. Email is not unique: the provider may
// omit the claim, and one mailbox can back more than one subject.
type User struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ExternalAuthID string    `gorm:"column:external_auth_id;type:text;not null;uniqueIndex"`
	Email          string    `gorm:"column:email;type:text;not null;index"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
