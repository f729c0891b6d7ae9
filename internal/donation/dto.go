package donation

import (
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/common/validation"
)

// CreateDonationDTO is the donation-intent submission payload. ReferenceCode
// and CorrelationID are the client-retry idempotency keys; CorrelationID may
// be omitted and is generated server-side.
type CreateDonationDTO struct {
	AmountGTQ     decimal.Decimal `json:"amount_gtq"`
	DonorEmail    string          `json:"donor_email"`
	DonorName     *string         `json:"donor_name,omitempty"`
	DonorNIT      *string         `json:"donor_nit,omitempty"`
	ReferenceCode string          `json:"reference_code"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

func (dto CreateDonationDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("amount_gtq", dto.AmountGTQ).
		Positive(internal.ErrCodeInvalidAmount).
		MinDecimal(decimal.NewFromInt(1), internal.ErrCodeAmountTooLow).
		MaxDecimal(decimal.NewFromInt(10000), internal.ErrCodeAmountTooHigh)
	v.Field("donor_email", dto.DonorEmail).
		Required().
		Email()
	v.Field("reference_code", dto.ReferenceCode).
		Required().
		ReferenceCode()
	if dto.CorrelationID != "" {
		v.Field("correlation_id", dto.CorrelationID).MaxLength(255)
	}
	return v.Validate()
}

// StatsDTO aggregates donation totals for the dashboard.
type StatsDTO struct {
	TotalAmountApproved decimal.Decimal `json:"total_amount_approved"`
	TotalAmountPending  decimal.Decimal `json:"total_amount_pending"`
	CountApproved       int64           `json:"count_approved"`
	CountPending        int64           `json:"count_pending"`
	CountDeclined       int64           `json:"count_declined"`
	CountExpired        int64           `json:"count_expired"`
	SuccessRate         float64         `json:"success_rate"`
}

type ListResponse struct {
	Donations []*Donation `json:"donations"`
	Limit     int         `json:"limit"`
	Offset    int         `json:"offset"`
}
