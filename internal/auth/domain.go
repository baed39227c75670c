package auth

import (
	"time"

	"github.com/greenbasket/greenbasket/internal/shared"
)

// Account represents a storefront account of any role.
type Account struct {
	ID           int64
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Role         shared.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot returns the denormalized record written into the session at login
// and on profile refresh.
func (a *Account) Snapshot() shared.UserSnapshot {
	return shared.UserSnapshot{
		ID:    a.ID,
		Email: a.Email,
		Name:  a.Name,
		Role:  a.Role,
	}
}
