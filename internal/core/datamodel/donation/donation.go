package donation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Donation struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AmountGTQ      decimal.Decimal `gorm:"column:amount_gtq;type:numeric(10,2);not null;check:chk_donations_amount_positive,amount_gtq > 0"`
	StatusID       int16           `gorm:"column:status_id;not null;default:1"`
	DonorEmail     string          `gorm:"column:donor_email;not null;index"`
	DonorName      *string         `gorm:"column:donor_name"`
	DonorNIT       *string         `gorm:"column:donor_nit"`
	UserID         *uuid.UUID      `gorm:"column:user_id;type:uuid"`
	OrganizationID *uuid.UUID      `gorm:"column:organization_id;type:uuid;index"`
	PayuOrderID    *string         `gorm:"column:payu_order_id"`
	ReferenceCode  string          `gorm:"column:reference_code;not null;uniqueIndex:uq_donations_reference_code;check:chk_donations_reference_code_format,length(reference_code) >= 3"`
	CorrelationID  string          `gorm:"column:correlation_id;not null;uniqueIndex:uq_donations_correlation_id"`
	PaidAt         *time.Time      `gorm:"column:paid_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Donation) TableName() string {
	return "donations"
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
