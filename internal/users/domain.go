package users

import (
	"time"

	"github.com/greenbasket/greenbasket/internal/shared"
)

// Profile is the account view a signed-in person can read and edit.
type Profile struct {
	ID        int64
	Email     string
	Name      string
	Phone     string
	Role      shared.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot builds the session snapshot for this profile.
func (p *Profile) Snapshot() shared.UserSnapshot {
	return shared.UserSnapshot{
		ID:    p.ID,
		Email: p.Email,
		Name:  p.Name,
		Role:  p.Role,
	}
}
