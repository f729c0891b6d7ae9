package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/database"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	organizationpkg "github.com/frahmantamala/donation-management/internal/organization"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) organizationpkg.Repository {
	return &OrganizationRepository{
		db: db,
	}
}

func (r *OrganizationRepository) Create(o *organizationpkg.Organization) error {
	dm := organizationpkg.ToDataModel(o)
	if err := r.db.Create(dm).Error; err != nil {
		return database.TranslateError(err)
	}
	o.ID = dm.ID
	o.CreatedAt = dm.CreatedAt
	o.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *OrganizationRepository) GetByID(id uuid.UUID) (*organizationpkg.Organization, error) {
	var dm userDatamodel.Organization
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.NewNotFoundError("organization not found", internal.ErrCodeOrganizationNotFound)
		}
		return nil, database.TranslateError(err)
	}
	return organizationpkg.FromDataModel(&dm), nil
}

func (r *OrganizationRepository) List() ([]*organizationpkg.Organization, error) {
	var dms []*userDatamodel.Organization
	err := r.db.Order("name ASC").Find(&dms).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}

	orgs := make([]*organizationpkg.Organization, 0, len(dms))
	for _, dm := range dms {
		orgs = append(orgs, organizationpkg.FromDataModel(dm))
	}
	return orgs, nil
}

func (r *OrganizationRepository) SetActive(id uuid.UUID, active bool) error {
	res := r.db.Model(&userDatamodel.Organization{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return database.TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.NewNotFoundError("organization not found", internal.ErrCodeOrganizationNotFound)
	}
	return nil
}
