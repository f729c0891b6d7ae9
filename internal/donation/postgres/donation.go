package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/database"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	"github.com/frahmantamala/donation-management/internal/core/scope"
	"github.com/frahmantamala/donation-management/internal/core/status"
	donationpkg "github.com/frahmantamala/donation-management/internal/donation"
)

type DonationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) donationpkg.Repository {
	return &DonationRepository{
		db: db,
	}
}

func (r *DonationRepository) Create(d *donationpkg.Donation) error {
	if err := r.db.Create(donationpkg.ToDataModel(d)).Error; err != nil {
		return database.TranslateError(err)
	}
	return nil
}

func (r *DonationRepository) GetByID(id uuid.UUID) (*donationpkg.Donation, error) {
	var dm donationDatamodel.Donation
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrDonationNotFound
		}
		return nil, database.TranslateError(err)
	}
	return donationpkg.FromDataModel(&dm), nil
}

func (r *DonationRepository) GetByReferenceCode(code string) (*donationpkg.Donation, error) {
	var dm donationDatamodel.Donation
	err := r.db.Where("reference_code = ?", code).First(&dm).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrDonationNotFound
		}
		return nil, database.TranslateError(err)
	}
	return donationpkg.FromDataModel(&dm), nil
}

func (r *DonationRepository) List(sc scope.Scope, limit, offset int) ([]*donationpkg.Donation, error) {
	var dms []*donationDatamodel.Donation
	err := applyScope(r.db, sc).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return donationpkg.FromDataModelSlice(dms), nil
}

func (r *DonationRepository) UpdateStatusIfPending(id uuid.UUID, st status.DonationStatus, paidAt *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status_id":  int16(st),
		"updated_at": time.Now(),
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}

	res := r.db.Model(&donationDatamodel.Donation{}).
		Where("id = ? AND status_id = ?", id, int16(status.DonationPending)).
		Updates(updates)
	if res.Error != nil {
		return false, database.TranslateError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *DonationRepository) ListStalePending(before time.Time, limit int) ([]*donationpkg.Donation, error) {
	var dms []*donationDatamodel.Donation
	err := r.db.
		Where("status_id = ? AND created_at < ?", int16(status.DonationPending), before).
		Order("created_at ASC").
		Limit(limit).
		Find(&dms).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return donationpkg.FromDataModelSlice(dms), nil
}

func (r *DonationRepository) Stats(sc scope.Scope) (*donationpkg.StatsDTO, error) {
	type row struct {
		StatusID int16
		Count    int64
		Total    decimal.Decimal
	}

	var rows []row
	err := applyScope(r.db.Model(&donationDatamodel.Donation{}), sc).
		Select("status_id, COUNT(*) AS count, COALESCE(SUM(amount_gtq), 0) AS total").
		Group("status_id").
		Scan(&rows).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}

	stats := &donationpkg.StatsDTO{
		TotalAmountApproved: decimal.Zero,
		TotalAmountPending:  decimal.Zero,
	}
	for _, rw := range rows {
		switch status.DonationStatus(rw.StatusID) {
		case status.DonationApproved:
			stats.CountApproved = rw.Count
			stats.TotalAmountApproved = rw.Total
		case status.DonationPending:
			stats.CountPending = rw.Count
			stats.TotalAmountPending = rw.Total
		case status.DonationDeclined:
			stats.CountDeclined = rw.Count
		case status.DonationExpired:
			stats.CountExpired = rw.Count
		}
	}

	resolved := stats.CountApproved + stats.CountDeclined + stats.CountExpired
	if resolved > 0 {
		stats.SuccessRate = float64(stats.CountApproved) / float64(resolved) * 100
	}

	return stats, nil
}

func applyScope(q *gorm.DB, sc scope.Scope) *gorm.DB {
	switch sc.Kind {
	case scope.KindOrganization:
		return q.Where("organization_id = ?", sc.OrganizationID)
	case scope.KindOwn:
		return q.Where("user_id = ?", sc.UserID)
	}
	return q
}
