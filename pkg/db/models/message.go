package models

import (
	"time"

	dbtypes "github.com/autoaudit/autoaudit-backend/pkg/db/types"
	"github.com/autoaudit/autoaudit-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is one turn in the per-invoice chat log. The log is append-only
// and ordered by creation time; rows disappear only via the invoice cascade.
type Message struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID          uuid.UUID           `gorm:"column:invoice_id;type:uuid;not null;index"`
	Role               enums.MessageRole   `gorm:"column:role;type:text;not null"`
	Content            string              `gorm:"column:content;type:text;not null"`
	SuggestedQuestions dbtypes.StringArray `gorm:"column:suggested_questions;type:jsonb;not null"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
