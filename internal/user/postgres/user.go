package postgres

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/database"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	userpkg "github.com/frahmantamala/donation-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) userpkg.Repository {
	return &UserRepository{
		db: db,
	}
}

// Create inserts the user and its role grants in one transaction. Role names
// must already exist in the role catalog.
func (r *UserRepository) Create(u *userpkg.User, roles []string) error {
	dm := userpkg.ToDataModel(u)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dm).Error; err != nil {
			return err
		}

		for _, roleName := range roles {
			var role userDatamodel.Role
			if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
				return err
			}
			grant := userDatamodel.UserRole{UserID: dm.ID, RoleID: role.ID}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return database.TranslateError(err)
	}

	u.ID = dm.ID
	u.CreatedAt = dm.CreatedAt
	u.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *UserRepository) GetByID(userID uuid.UUID) (*userpkg.User, error) {
	var dm userDatamodel.User
	err := r.db.Where("id = ?", userID).First(&dm).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
		}
		return nil, database.TranslateError(err)
	}
	return userpkg.FromDataModel(&dm), nil
}

func (r *UserRepository) GetRoles(userID uuid.UUID) ([]string, error) {
	var roles []string
	err := r.db.Model(&userDatamodel.Role{}).
		Select("roles.name").
		Joins("JOIN user_roles ur ON ur.role_id = roles.id").
		Where("ur.user_id = ?", userID).
		Scan(&roles).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return roles, nil
}
