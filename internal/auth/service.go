package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/greenbasket/greenbasket/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return account, nil
}

// Register creates a customer account. The role is always user; staff and
// driver accounts are provisioned out of band.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	account := &Account{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         shared.RoleUser,
		IsActive:     true,
	}
	id, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		if errors.Is(err, shared.ErrEmailTaken) {
			return nil, shared.ErrEmailTaken
		}
		return nil, err
	}
	account.ID = id
	return account, nil
}

// ChangePassword replaces an account's password hash.
func (s *Service) ChangePassword(ctx context.Context, accountID int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, accountID, string(hash))
}

// NewSessionToken mints the opaque bearer credential stored in the session.
// Its presence is what marks a session authenticated; nothing inspects its
// contents.
func (s *Service) NewSessionToken() string {
	return uuid.NewString()
}

// RegisterSession persists login session metadata for auditing.
func (s *Service) RegisterSession(ctx context.Context, id string, accountID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, accountID, expiresAt, ip, ua)
}

// RemoveSession deletes a session audit record.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// FindByEmail exposes account lookup for the password-reset flow.
func (s *Service) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.repo.FindByEmail(ctx, email)
}
