package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeDonationApproved = "donation.approved"
	EventTypeDonationDeclined = "donation.declined"
	EventTypeDonationExpired  = "donation.expired"
)

// DonationResolvedEvent is published when a payment event (or the expiry
// sweeper) moves a donation into a terminal status.
type DonationResolvedEvent struct {
	BaseEvent
	DonationID    uuid.UUID `json:"donation_id"`
	ReferenceCode string    `json:"reference_code"`
	DonorEmail    string    `json:"donor_email"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
}

func newDonationResolvedEvent(eventType string, donationID uuid.UUID, referenceCode, donorEmail, amount, status string) *DonationResolvedEvent {
	return &DonationResolvedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"donation_id":    donationID.String(),
				"reference_code": referenceCode,
				"donor_email":    donorEmail,
				"amount":         amount,
				"status":         status,
			},
		},
		DonationID:    donationID,
		ReferenceCode: referenceCode,
		DonorEmail:    donorEmail,
		Amount:        amount,
		Status:        status,
	}
}

func NewDonationApprovedEvent(donationID uuid.UUID, referenceCode, donorEmail, amount string) *DonationResolvedEvent {
	return newDonationResolvedEvent(EventTypeDonationApproved, donationID, referenceCode, donorEmail, amount, "approved")
}

func NewDonationDeclinedEvent(donationID uuid.UUID, referenceCode, donorEmail, amount string) *DonationResolvedEvent {
	return newDonationResolvedEvent(EventTypeDonationDeclined, donationID, referenceCode, donorEmail, amount, "declined")
}

func NewDonationExpiredEvent(donationID uuid.UUID, referenceCode, donorEmail, amount string) *DonationResolvedEvent {
	return newDonationResolvedEvent(EventTypeDonationExpired, donationID, referenceCode, donorEmail, amount, "expired")
}
