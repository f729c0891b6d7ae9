package paymentevent

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentEvent is one physical provider notification. Rows are append-only:
// they are never updated or deleted after insert.
type PaymentEvent struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DonationID  uuid.UUID       `gorm:"column:donation_id;type:uuid;not null;index"`
	EventID     string          `gorm:"column:event_id;not null;uniqueIndex:uq_payment_events_event_id"`
	Source      string          `gorm:"column:source;not null;index;check:chk_payment_events_source_valid,source IN ('webhook','recon')"`
	StatusID    int16           `gorm:"column:status_id;not null"`
	PayloadRaw  json.RawMessage `gorm:"column:payload_raw;type:jsonb"`
	SignatureOK bool            `gorm:"column:signature_ok;not null"`
	ReceivedAt  time.Time       `gorm:"column:received_at;not null"`
}

func (PaymentEvent) TableName() string {
	return "payment_events"
}

func (e *PaymentEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
