package emaillog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/donation-management/internal"
	emaillogDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/emaillog"
	coreEvents "github.com/frahmantamala/donation-management/internal/core/events"
	"github.com/frahmantamala/donation-management/internal/core/status"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// SubscribeToDonationEvents queues a receipt email whenever a donation is
// approved. Declines and expiries do not notify the donor.
func (s *Service) SubscribeToDonationEvents(bus *coreEvents.EventBus) {
	bus.Subscribe(coreEvents.EventTypeDonationApproved, func(_ context.Context, e coreEvents.Event) error {
		resolved, ok := e.(*coreEvents.DonationResolvedEvent)
		if !ok {
			return nil
		}
		_, err := s.QueueReceipt(resolved.DonationID, resolved.DonorEmail)
		return err
	})
}

// QueueReceipt creates a queued receipt row for the donation. Sending is the
// mailer worker's job; this only records intent.
func (s *Service) QueueReceipt(donationID uuid.UUID, toEmail string) (*emaillogDatamodel.EmailLog, error) {
	return s.queue(QueueEmailDTO{
		DonationID: donationID,
		ToEmail:    toEmail,
		Type:       TypeReceipt,
	})
}

// QueueResend queues another copy of the receipt on donor request. The
// previous log rows stay untouched.
func (s *Service) QueueResend(donationID uuid.UUID, toEmail string) (*emaillogDatamodel.EmailLog, error) {
	return s.queue(QueueEmailDTO{
		DonationID: donationID,
		ToEmail:    toEmail,
		Type:       TypeResend,
	})
}

func (s *Service) queue(dto QueueEmailDTO) (*emaillogDatamodel.EmailLog, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("email queue validation failed",
			"donation_id", dto.DonationID,
			"type", dto.Type,
			"error", err.Message)
		return nil, err
	}

	entry := &emaillogDatamodel.EmailLog{
		DonationID: dto.DonationID,
		ToEmail:    dto.ToEmail,
		Type:       dto.Type,
		StatusID:   int16(status.EmailQueued),
		Attempt:    0,
	}

	if err := s.repo.Create(entry); err != nil {
		s.logger.Error("failed to queue email",
			"donation_id", dto.DonationID,
			"type", dto.Type,
			"error", err)
		return nil, err
	}

	s.logger.Info("email queued",
		"email_log_id", entry.ID,
		"donation_id", dto.DonationID,
		"type", dto.Type)

	return entry, nil
}

// MarkSent records a successful hand-off to the provider. The provider
// message id becomes the dedupe key for later provider reports.
func (s *Service) MarkSent(id uuid.UUID, providerMsgID string, sentAt time.Time) error {
	if providerMsgID == "" {
		return internal.NewValidationError("provider_msg_id is required", internal.ErrCodeValidationFailed)
	}
	if err := s.repo.MarkAttempt(id, status.EmailSent, &providerMsgID, &sentAt, nil); err != nil {
		s.logger.Error("failed to mark email sent", "email_log_id", id, "error", err)
		return err
	}
	return nil
}

// MarkFailed records a failed delivery attempt with the provider error.
func (s *Service) MarkFailed(id uuid.UUID, lastError string) error {
	if err := s.repo.MarkAttempt(id, status.EmailFailed, nil, nil, &lastError); err != nil {
		s.logger.Error("failed to mark email failed", "email_log_id", id, "error", err)
		return err
	}
	return nil
}

// MarkDelivered records a provider delivery report.
func (s *Service) MarkDelivered(id uuid.UUID, eventAt time.Time) error {
	return s.markProviderEvent(id, status.EmailDelivered, eventAt)
}

// MarkBounced records a provider bounce report.
func (s *Service) MarkBounced(id uuid.UUID, eventAt time.Time) error {
	return s.markProviderEvent(id, status.EmailBounced, eventAt)
}

func (s *Service) markProviderEvent(id uuid.UUID, st status.EmailStatus, eventAt time.Time) error {
	if err := s.repo.MarkProviderEvent(id, st, eventAt); err != nil {
		s.logger.Error("failed to record provider event",
			"email_log_id", id,
			"status", st.String(),
			"error", err)
		return err
	}
	s.logger.Info("provider event recorded", "email_log_id", id, "status", st.String())
	return nil
}

// History returns every notification row for a donation, oldest first.
func (s *Service) History(donationID uuid.UUID) ([]*emaillogDatamodel.EmailLog, error) {
	return s.repo.ListByDonation(donationID)
}
