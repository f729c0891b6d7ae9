package paymentevent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/donation-management/internal"
	paymenteventDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/paymentevent"
	"github.com/frahmantamala/donation-management/internal/core/events"
	"github.com/frahmantamala/donation-management/internal/core/status"
	"github.com/frahmantamala/donation-management/internal/donation"
)

type Service struct {
	repo      Repository
	donations donation.Repository
	eventBus  *events.EventBus
	logger    *slog.Logger
}

func NewService(repo Repository, donations donation.Repository, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		donations: donations,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// Ingest records one provider notification and, when it carries a resolving
// signal, advances the owning donation — both writes in one transaction.
//
// Replays are idempotent: a duplicate event_id is answered as "already
// processed", never as an error, and causes no second transition. A
// notification for a donation already in a terminal status is appended to
// the log but applies no transition.
func (s *Service) Ingest(ctx context.Context, dto IngestEventDTO) (*IngestResult, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("payment event validation failed", "error", err, "event_id", dto.EventID)
		return nil, err
	}

	d, err := s.donations.GetByReferenceCode(dto.DonationReference)
	if err != nil {
		s.logger.Error("payment event references unknown donation",
			"event_id", dto.EventID,
			"donation_reference", dto.DonationReference)
		return nil, err
	}

	evStatus := dto.EventStatus()
	ev := &paymenteventDatamodel.PaymentEvent{
		ID:          uuid.New(),
		DonationID:  d.ID,
		EventID:     dto.EventID,
		Source:      dto.Source,
		StatusID:    int16(evStatus),
		PayloadRaw:  dto.Payload,
		SignatureOK: dto.SignatureOK,
		ReceivedAt:  time.Now(),
	}

	result := &IngestResult{
		Event:          ev,
		EventID:        dto.EventID,
		DonationStatus: d.Status.String(),
	}

	newStatus, resolving := status.DonationStatusFromEvent(evStatus)

	err = s.repo.Atomic(func(eventRepo Repository, donationRepo donation.Repository) error {
		if err := eventRepo.Record(ev); err != nil {
			return err
		}

		if !resolving {
			return nil
		}

		var paidAt *time.Time
		if newStatus == status.DonationApproved {
			now := time.Now()
			paidAt = &now
		}

		changed, err := donationRepo.UpdateStatusIfPending(d.ID, newStatus, paidAt)
		if err != nil {
			return err
		}
		if !changed {
			// donation already terminal: late or competing notification,
			// keep the event row, skip the transition
			s.logger.Warn("payment event arrived for resolved donation",
				"event_id", dto.EventID,
				"donation_id", d.ID,
				"donation_status", d.Status.String())
			return nil
		}

		result.Transitioned = true
		result.DonationStatus = newStatus.String()
		return nil
	})

	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeDuplicateEventID {
			// idempotent replay: the first delivery already did the work
			s.logger.Info("duplicate payment event ignored", "event_id", dto.EventID)
			result.AlreadyProcessed = true
			result.Transitioned = false
			return result, nil
		}
		s.logger.Error("failed to record payment event", "error", err, "event_id", dto.EventID)
		return nil, err
	}

	if result.Transitioned {
		s.publishResolution(ctx, d, newStatus)
	}

	s.logger.Info("payment event recorded",
		"event_id", dto.EventID,
		"donation_id", d.ID,
		"source", dto.Source,
		"event_status", evStatus.String(),
		"transitioned", result.Transitioned)

	return result, nil
}

func (s *Service) GetByEventID(eventID string) (*paymenteventDatamodel.PaymentEvent, error) {
	return s.repo.GetByEventID(eventID)
}

func (s *Service) ListByDonation(donationID uuid.UUID) ([]*paymenteventDatamodel.PaymentEvent, error) {
	return s.repo.ListByDonation(donationID)
}

func (s *Service) publishResolution(ctx context.Context, d *donation.Donation, newStatus status.DonationStatus) {
	amount := d.AmountGTQ.StringFixed(2)
	switch newStatus {
	case status.DonationApproved:
		s.eventBus.Publish(ctx, events.NewDonationApprovedEvent(d.ID, d.ReferenceCode, d.DonorEmail, amount))
	case status.DonationDeclined:
		s.eventBus.Publish(ctx, events.NewDonationDeclinedEvent(d.ID, d.ReferenceCode, d.DonorEmail, amount))
	}
}
