package postgres

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/donation-management/internal/core/database"
	paymenteventDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/paymentevent"
	"github.com/frahmantamala/donation-management/internal/donation"
	donationPostgres "github.com/frahmantamala/donation-management/internal/donation/postgres"
	paymenteventpkg "github.com/frahmantamala/donation-management/internal/paymentevent"
)

type PaymentEventRepository struct {
	db *gorm.DB
}

func NewPaymentEventRepository(db *gorm.DB) paymenteventpkg.Repository {
	return &PaymentEventRepository{
		db: db,
	}
}

func (r *PaymentEventRepository) Record(ev *paymenteventDatamodel.PaymentEvent) error {
	if err := r.db.Create(ev).Error; err != nil {
		return database.TranslateError(err)
	}
	return nil
}

func (r *PaymentEventRepository) GetByEventID(eventID string) (*paymenteventDatamodel.PaymentEvent, error) {
	var ev paymenteventDatamodel.PaymentEvent
	err := r.db.Where("event_id = ?", eventID).First(&ev).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &ev, nil
}

func (r *PaymentEventRepository) ListByDonation(donationID uuid.UUID) ([]*paymenteventDatamodel.PaymentEvent, error) {
	var evs []*paymenteventDatamodel.PaymentEvent
	err := r.db.Where("donation_id = ?", donationID).Order("received_at ASC").Find(&evs).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return evs, nil
}

// Atomic wraps fn in one database transaction so the event insert and the
// donation status update commit or roll back together.
func (r *PaymentEventRepository) Atomic(fn func(events paymenteventpkg.Repository, donations donation.Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewPaymentEventRepository(tx), donationPostgres.NewDonationRepository(tx))
	})
}
