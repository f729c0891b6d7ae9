package user

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/auth"
)

type Repository interface {
	Create(u *User, roles []string) error
	GetByID(userID uuid.UUID) (*User, error)
	GetRoles(userID uuid.UUID) ([]string, error)
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// Register creates a new account. Self-registered users get the DONOR role;
// organization and admin roles are granted through seeding or admin tooling.
func (s *Service) Register(dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	// emails are stored lowercase so the unique constraint is case-insensitive
	u := &User{
		Email:          strings.ToLower(strings.TrimSpace(dto.Email)),
		FullName:       dto.FullName,
		PasswordHash:   hash,
		IsActive:       true,
		OrganizationID: dto.OrganizationID,
		Roles:          []string{auth.RoleDonor},
	}

	if err := s.repo.Create(u, u.Roles); err != nil {
		s.logger.Warn("user registration failed", "email", dto.Email, "error", err)
		return nil, err
	}

	s.logger.Info("user registered", "user_id", u.ID, "email", u.Email)
	return u, nil
}

func (s *Service) GetByID(userID uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	roles, err := s.repo.GetRoles(userID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles

	return u, nil
}
