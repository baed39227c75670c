package users

import (
	"context"
)

// Service handles profile business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetProfile returns an account's profile.
func (s *Service) GetProfile(ctx context.Context, accountID int64) (*Profile, error) {
	return s.repo.GetProfile(ctx, accountID)
}

// UpdateProfile writes the editable fields and returns the fresh profile so
// callers can rewrite the session snapshot in one step.
func (s *Service) UpdateProfile(ctx context.Context, accountID int64, name, phone string) (*Profile, error) {
	if err := s.repo.UpdateProfile(ctx, accountID, name, phone); err != nil {
		return nil, err
	}
	return s.repo.GetProfile(ctx, accountID)
}

// ListDrivers returns active driver accounts.
func (s *Service) ListDrivers(ctx context.Context) ([]Profile, error) {
	return s.repo.ListDrivers(ctx)
}
