package donation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/events"
	"github.com/frahmantamala/donation-management/internal/core/scope"
	"github.com/frahmantamala/donation-management/internal/core/status"
)

// Repository defines the data access methods for donations.
type Repository interface {
	Create(d *Donation) error
	GetByID(id uuid.UUID) (*Donation, error)
	GetByReferenceCode(code string) (*Donation, error)
	List(sc scope.Scope, limit, offset int) ([]*Donation, error)
	// UpdateStatusIfPending applies a status transition only when the row is
	// still pending; it reports whether a row was changed. The pending guard
	// in the WHERE clause is what serializes concurrent transitions.
	UpdateStatusIfPending(id uuid.UUID, st status.DonationStatus, paidAt *time.Time) (bool, error)
	ListStalePending(before time.Time, limit int) ([]*Donation, error)
	Stats(sc scope.Scope) (*StatsDTO, error)
}

type Service struct {
	repo     Repository
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateDonation validates and persists a donation intent in pending status.
// Duplicate reference_code or correlation_id surfaces as a conflict the
// caller reports as "duplicate submission, reuse original"; the uniqueness
// constraint plus transaction isolation is the entire duplicate guard, so
// under concurrent identical-key submissions at most one create commits.
func (s *Service) CreateDonation(dto CreateDonationDTO, userID, organizationID *uuid.UUID) (*Donation, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("donation validation failed", "error", err, "reference_code", dto.ReferenceCode)
		return nil, err
	}

	d := NewDonation(dto, userID, organizationID)

	if err := s.repo.Create(d); err != nil {
		if internal.IsUniquenessViolation(err) {
			s.logger.Warn("duplicate donation submission",
				"reference_code", d.ReferenceCode,
				"correlation_id", d.CorrelationID)
			return nil, err
		}
		s.logger.Error("failed to create donation", "error", err, "reference_code", d.ReferenceCode)
		return nil, err
	}

	s.logger.Info("donation created",
		"donation_id", d.ID,
		"reference_code", d.ReferenceCode,
		"amount_gtq", d.AmountGTQ.StringFixed(2))

	return d, nil
}

// GetDonation fetches one donation if the caller's scope can see it.
func (s *Service) GetDonation(id uuid.UUID, sc scope.Scope) (*Donation, error) {
	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !visibleInScope(d, sc) {
		s.logger.Warn("donation access denied by scope", "donation_id", id)
		return nil, internal.ErrDonationNotFound
	}

	return d, nil
}

func (s *Service) ListDonations(sc scope.Scope, limit, offset int) ([]*Donation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(sc, limit, offset)
}

func (s *Service) Stats(sc scope.Scope) (*StatsDTO, error) {
	return s.repo.Stats(sc)
}

// ExpireStale moves pending donations older than the window into expired.
// The per-row pending guard makes the sweep safe to run concurrently with
// webhook processing: whichever transition lands first wins, the other is a
// no-op.
func (s *Service) ExpireStale(ctx context.Context, window time.Duration, batchSize int) (int, error) {
	cutoff := time.Now().Add(-window)

	stale, err := s.repo.ListStalePending(cutoff, batchSize)
	if err != nil {
		s.logger.Error("failed to list stale pending donations", "error", err)
		return 0, err
	}

	expired := 0
	for _, d := range stale {
		changed, err := s.repo.UpdateStatusIfPending(d.ID, status.DonationExpired, nil)
		if err != nil {
			s.logger.Error("failed to expire donation", "error", err, "donation_id", d.ID)
			continue
		}
		if !changed {
			// resolved by a payment event between the list and the update
			continue
		}

		expired++
		s.eventBus.Publish(ctx, events.NewDonationExpiredEvent(
			d.ID, d.ReferenceCode, d.DonorEmail, d.AmountGTQ.StringFixed(2)))
	}

	if expired > 0 {
		s.logger.Info("expired stale donations", "count", expired, "cutoff", cutoff)
	}

	return expired, nil
}

// ExpireDonation expires one pending donation on operator request, using the
// same pending guard as the sweep.
func (s *Service) ExpireDonation(ctx context.Context, id uuid.UUID) (*Donation, error) {
	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	changed, err := s.repo.UpdateStatusIfPending(id, status.DonationExpired, nil)
	if err != nil {
		s.logger.Error("failed to expire donation", "error", err, "donation_id", id)
		return nil, err
	}
	if !changed {
		return nil, internal.ErrInvalidTransition
	}

	s.eventBus.Publish(ctx, events.NewDonationExpiredEvent(
		d.ID, d.ReferenceCode, d.DonorEmail, d.AmountGTQ.StringFixed(2)))
	s.logger.Info("donation expired by operator", "donation_id", id)

	return s.repo.GetByID(id)
}

func visibleInScope(d *Donation, sc scope.Scope) bool {
	switch sc.Kind {
	case scope.KindAll:
		return true
	case scope.KindOrganization:
		return d.OrganizationID != nil && *d.OrganizationID == sc.OrganizationID
	case scope.KindOwn:
		return d.UserID != nil && *d.UserID == sc.UserID
	}
	return false
}
