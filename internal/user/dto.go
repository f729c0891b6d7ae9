package user

import (
	"github.com/google/uuid"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/common/validation"
)

type RegisterDTO struct {
	Email          string     `json:"email"`
	Password       string     `json:"password"`
	FullName       *string    `json:"full_name,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
}

func (dto RegisterDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", dto.Email).Required().Email()
	v.Field("password", dto.Password).Required().Custom(func(value interface{}) *internal.AppError {
		if s, ok := value.(string); ok && s != "" && len(s) < 8 {
			return internal.NewValidationFieldError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	return v.Validate()
}
