package emaillog

import (
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/common/validation"
	emaillogDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/emaillog"
	"github.com/frahmantamala/donation-management/internal/core/status"
)

const (
	TypeReceipt = "receipt"
	TypeResend  = "resend"
)

var validTypes = []string{TypeReceipt, TypeResend}

// Repository defines data access for email logs. Rows are created when a
// notification is queued and updated by mailer reports; never deleted.
type Repository interface {
	Create(e *emaillogDatamodel.EmailLog) error
	GetByID(id uuid.UUID) (*emaillogDatamodel.EmailLog, error)
	ListByDonation(donationID uuid.UUID) ([]*emaillogDatamodel.EmailLog, error)
	// MarkAttempt records one delivery attempt outcome; attempt increments
	// on every call.
	MarkAttempt(id uuid.UUID, st status.EmailStatus, providerMsgID *string, sentAt *time.Time, lastError *string) error
	// MarkProviderEvent records an asynchronous provider status report
	// (delivered, bounced) without touching the attempt counter.
	MarkProviderEvent(id uuid.UUID, st status.EmailStatus, eventAt time.Time) error
}

type QueueEmailDTO struct {
	DonationID uuid.UUID `json:"donation_id"`
	ToEmail    string    `json:"to_email"`
	Type       string    `json:"type"`
}

func (dto QueueEmailDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("to_email", dto.ToEmail).Required().Email()
	v.Field("type", dto.Type).Required().OneOf(validTypes, internal.ErrCodeInvalidEmailType)
	return v.Validate()
}
