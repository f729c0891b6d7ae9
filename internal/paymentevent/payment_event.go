package paymentevent

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/common/validation"
	paymenteventDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/paymentevent"
	"github.com/frahmantamala/donation-management/internal/core/status"
	"github.com/frahmantamala/donation-management/internal/donation"
)

const (
	SourceWebhook = "webhook"
	SourceRecon   = "recon"
)

var validSources = []string{SourceWebhook, SourceRecon}

// Repository defines data access for payment events. Rows are append-only;
// there is no update or delete.
type Repository interface {
	Record(ev *paymenteventDatamodel.PaymentEvent) error
	GetByEventID(eventID string) (*paymenteventDatamodel.PaymentEvent, error)
	ListByDonation(donationID uuid.UUID) ([]*paymenteventDatamodel.PaymentEvent, error)
	// Atomic runs fn against transactional views of the event and donation
	// repositories; everything fn writes commits or rolls back together.
	Atomic(fn func(events Repository, donations donation.Repository) error) error
}

// IngestEventDTO is one provider notification, delivered by webhook push or
// the reconciliation job.
type IngestEventDTO struct {
	EventID           string          `json:"event_id"`
	DonationReference string          `json:"donation_reference"`
	Source            string          `json:"source"`
	Status            string          `json:"status"`
	Payload           json.RawMessage `json:"payload,omitempty"`
	SignatureOK       bool            `json:"signature_ok"`
}

func (dto IngestEventDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("event_id", dto.EventID).Required().MaxLength(255)
	v.Field("donation_reference", dto.DonationReference).Required().ReferenceCode()
	v.Field("source", dto.Source).Required().OneOf(validSources, internal.ErrCodeInvalidEventSource)
	v.Field("status", dto.Status).Required().OneOf([]string{"approved", "declined", "pending", "error"}, internal.ErrCodeValidationFailed)
	return v.Validate()
}

// EventStatus resolves the catalog entry for the notification. Unverifiable
// signatures are always recorded as event.error regardless of the claimed
// outcome.
func (dto IngestEventDTO) EventStatus() status.EventStatus {
	if !dto.SignatureOK {
		return status.EventError
	}
	switch dto.Status {
	case "approved":
		return status.EventApproved
	case "declined":
		return status.EventDeclined
	case "error":
		return status.EventError
	}
	return status.EventPending
}

// IngestResult reports what recording a notification did.
type IngestResult struct {
	Event            *paymenteventDatamodel.PaymentEvent `json:"-"`
	EventID          string                              `json:"event_id"`
	AlreadyProcessed bool                                `json:"already_processed"`
	Transitioned     bool                                `json:"transitioned"`
	DonationStatus   string                              `json:"donation_status"`
}
