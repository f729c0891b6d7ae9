package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/database"
	emaillogDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/emaillog"
	"github.com/frahmantamala/donation-management/internal/core/status"
	emaillogpkg "github.com/frahmantamala/donation-management/internal/emaillog"
)

type EmailLogRepository struct {
	db *gorm.DB
}

func NewEmailLogRepository(db *gorm.DB) emaillogpkg.Repository {
	return &EmailLogRepository{
		db: db,
	}
}

func (r *EmailLogRepository) Create(e *emaillogDatamodel.EmailLog) error {
	if err := r.db.Create(e).Error; err != nil {
		return database.TranslateError(err)
	}
	return nil
}

func (r *EmailLogRepository) GetByID(id uuid.UUID) (*emaillogDatamodel.EmailLog, error) {
	var e emaillogDatamodel.EmailLog
	err := r.db.Where("id = ?", id).First(&e).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.NewNotFoundError("email log not found", internal.ErrCodeEmailLogNotFound)
		}
		return nil, database.TranslateError(err)
	}
	return &e, nil
}

func (r *EmailLogRepository) ListByDonation(donationID uuid.UUID) ([]*emaillogDatamodel.EmailLog, error) {
	var logs []*emaillogDatamodel.EmailLog
	err := r.db.
		Where("donation_id = ?", donationID).
		Order("created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return logs, nil
}

func (r *EmailLogRepository) MarkAttempt(id uuid.UUID, st status.EmailStatus, providerMsgID *string, sentAt *time.Time, lastError *string) error {
	updates := map[string]interface{}{
		"status_id":  int16(st),
		"attempt":    gorm.Expr("attempt + 1"),
		"updated_at": time.Now(),
	}
	if providerMsgID != nil {
		updates["provider_msg_id"] = *providerMsgID
	}
	if sentAt != nil {
		updates["sent_at"] = *sentAt
	}
	if lastError != nil {
		updates["last_error"] = *lastError
	}

	res := r.db.Model(&emaillogDatamodel.EmailLog{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return database.TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.NewNotFoundError("email log not found", internal.ErrCodeEmailLogNotFound)
	}
	return nil
}

func (r *EmailLogRepository) MarkProviderEvent(id uuid.UUID, st status.EmailStatus, eventAt time.Time) error {
	res := r.db.Model(&emaillogDatamodel.EmailLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status_id":         int16(st),
			"provider_event_at": eventAt,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return database.TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.NewNotFoundError("email log not found", internal.ErrCodeEmailLogNotFound)
	}
	return nil
}
