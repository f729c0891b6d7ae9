package organization

import (
	"log/slog"

	"github.com/google/uuid"
)

type Repository interface {
	Create(o *Organization) error
	GetByID(id uuid.UUID) (*Organization, error)
	List() ([]*Organization, error)
	SetActive(id uuid.UUID, active bool) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) Create(dto CreateOrganizationDTO) (*Organization, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	o := &Organization{
		Name:     dto.Name,
		IsActive: true,
	}
	if err := s.repo.Create(o); err != nil {
		s.logger.Warn("organization create failed", "name", dto.Name, "error", err)
		return nil, err
	}

	s.logger.Info("organization created", "organization_id", o.ID, "name", o.Name)
	return o, nil
}

func (s *Service) GetByID(id uuid.UUID) (*Organization, error) {
	return s.repo.GetByID(id)
}

func (s *Service) List() ([]*Organization, error) {
	return s.repo.List()
}

// Deactivate disables an organization without touching its donations;
// historical records keep their organization_id.
func (s *Service) Deactivate(id uuid.UUID) error {
	if err := s.repo.SetActive(id, false); err != nil {
		return err
	}
	s.logger.Info("organization deactivated", "organization_id", id)
	return nil
}
