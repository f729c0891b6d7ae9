package donation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/donation-management/internal"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	"github.com/frahmantamala/donation-management/internal/core/status"
)

// Donation is the central financial record. Rows are never hard-deleted and
// the status is terminal once approved, declined or expired.
type Donation struct {
	ID             uuid.UUID             `json:"id"`
	AmountGTQ      decimal.Decimal       `json:"amount_gtq"`
	Status         status.DonationStatus `json:"-"`
	StatusCode     string                `json:"status"`
	DonorEmail     string                `json:"donor_email"`
	DonorName      *string               `json:"donor_name,omitempty"`
	DonorNIT       *string               `json:"donor_nit,omitempty"`
	UserID         *uuid.UUID            `json:"user_id,omitempty"`
	OrganizationID *uuid.UUID            `json:"organization_id,omitempty"`
	PayuOrderID    *string               `json:"payu_order_id,omitempty"`
	ReferenceCode  string                `json:"reference_code"`
	CorrelationID  string                `json:"correlation_id"`
	PaidAt         *time.Time            `json:"paid_at,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func (d *Donation) IsResolved() bool {
	return d.Status.IsTerminal()
}

func (d *Donation) CanBeResolved() bool {
	return d.Status == status.DonationPending
}

// Approve moves a pending donation to approved and stamps paid_at exactly
// once. Transitions out of a terminal state are rejected.
func (d *Donation) Approve(at time.Time) error {
	if !d.CanBeResolved() {
		return internal.ErrInvalidTransition
	}
	d.Status = status.DonationApproved
	d.StatusCode = d.Status.String()
	if d.PaidAt == nil {
		d.PaidAt = &at
	}
	d.UpdatedAt = at
	return nil
}

func (d *Donation) Decline(at time.Time) error {
	if !d.CanBeResolved() {
		return internal.ErrInvalidTransition
	}
	d.Status = status.DonationDeclined
	d.StatusCode = d.Status.String()
	d.UpdatedAt = at
	return nil
}

func (d *Donation) Expire(at time.Time) error {
	if !d.CanBeResolved() {
		return internal.ErrInvalidTransition
	}
	d.Status = status.DonationExpired
	d.StatusCode = d.Status.String()
	d.UpdatedAt = at
	return nil
}

func NewDonation(dto CreateDonationDTO, userID *uuid.UUID, organizationID *uuid.UUID) *Donation {
	now := time.Now()

	correlationID := dto.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	return &Donation{
		ID:             uuid.New(),
		AmountGTQ:      dto.AmountGTQ,
		Status:         status.DonationPending,
		StatusCode:     status.DonationPending.String(),
		DonorEmail:     dto.DonorEmail,
		DonorName:      dto.DonorName,
		DonorNIT:       dto.DonorNIT,
		UserID:         userID,
		OrganizationID: organizationID,
		ReferenceCode:  dto.ReferenceCode,
		CorrelationID:  correlationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func ToDataModel(d *Donation) *donationDatamodel.Donation {
	return &donationDatamodel.Donation{
		ID:             d.ID,
		AmountGTQ:      d.AmountGTQ,
		StatusID:       int16(d.Status),
		DonorEmail:     d.DonorEmail,
		DonorName:      d.DonorName,
		DonorNIT:       d.DonorNIT,
		UserID:         d.UserID,
		OrganizationID: d.OrganizationID,
		PayuOrderID:    d.PayuOrderID,
		ReferenceCode:  d.ReferenceCode,
		CorrelationID:  d.CorrelationID,
		PaidAt:         d.PaidAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func FromDataModel(d *donationDatamodel.Donation) *Donation {
	st := status.DonationStatus(d.StatusID)
	return &Donation{
		ID:             d.ID,
		AmountGTQ:      d.AmountGTQ,
		Status:         st,
		StatusCode:     st.String(),
		DonorEmail:     d.DonorEmail,
		DonorName:      d.DonorName,
		DonorNIT:       d.DonorNIT,
		UserID:         d.UserID,
		OrganizationID: d.OrganizationID,
		PayuOrderID:    d.PayuOrderID,
		ReferenceCode:  d.ReferenceCode,
		CorrelationID:  d.CorrelationID,
		PaidAt:         d.PaidAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func FromDataModelSlice(donations []*donationDatamodel.Donation) []*Donation {
	result := make([]*Donation, len(donations))
	for i, d := range donations {
		result[i] = FromDataModel(d)
	}
	return result
}
