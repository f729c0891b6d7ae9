package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email          string     `gorm:"column:email;not null;uniqueIndex:uq_users_email"`
	PasswordHash   string     `gorm:"column:password_hash;not null"`
	FullName       *string    `gorm:"column:full_name"`
	EmailVerified  bool       `gorm:"column:email_verified;not null;default:false"`
	IsActive       bool       `gorm:"column:is_active;not null;default:true"`
	OrganizationID *uuid.UUID `gorm:"column:organization_id;type:uuid"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Role struct {
	ID   int16  `gorm:"primaryKey"`
	Name string `gorm:"column:name;not null;uniqueIndex:uq_roles_name"`
}

func (Role) TableName() string {
	return "roles"
}

// UserRole joins users to roles; rows cascade away with either side.
type UserRole struct {
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	RoleID int16     `gorm:"column:role_id;primaryKey"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

type Organization struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:uq_organizations_name"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
