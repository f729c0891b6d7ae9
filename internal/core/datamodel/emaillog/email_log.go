package emaillog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmailLog struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DonationID      uuid.UUID  `gorm:"column:donation_id;type:uuid;not null;index"`
	ToEmail         string     `gorm:"column:to_email;not null"`
	Type            string     `gorm:"column:type;not null;index;check:chk_email_logs_type_valid,type IN ('receipt','resend')"`
	StatusID        int16      `gorm:"column:status_id;not null"`
	ProviderMsgID   *string    `gorm:"column:provider_msg_id;uniqueIndex:uq_email_logs_provider_msg_id"`
	Attempt         int        `gorm:"column:attempt;not null;default:0;check:chk_email_logs_attempt_positive,attempt >= 0"`
	LastError       *string    `gorm:"column:last_error"`
	SentAt          *time.Time `gorm:"column:sent_at"`
	ProviderEventAt *time.Time `gorm:"column:provider_event_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (EmailLog) TableName() string {
	return "email_logs"
}

func (e *EmailLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
