package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/greenbasket/internal/shared"
)

type stubRepo struct {
	profiles map[int64]*Profile
}

func (s *stubRepo) GetProfile(ctx context.Context, accountID int64) (*Profile, error) {
	p, ok := s.profiles[accountID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *stubRepo) UpdateProfile(ctx context.Context, accountID int64, name, phone string) error {
	p, ok := s.profiles[accountID]
	if !ok {
		return shared.ErrNotFound
	}
	p.Name = name
	p.Phone = phone
	return nil
}

func (s *stubRepo) ListDrivers(ctx context.Context) ([]Profile, error) {
	var out []Profile
	for _, p := range s.profiles {
		if p.Role == shared.RoleDriver {
			out = append(out, *p)
		}
	}
	return out, nil
}

func TestUpdateProfileReturnsFreshProfile(t *testing.T) {
	repo := &stubRepo{profiles: map[int64]*Profile{
		1: {ID: 1, Email: "a@b.c", Name: "Old", Role: shared.RoleUser},
	}}
	svc := NewService(repo)

	profile, err := svc.UpdateProfile(context.Background(), 1, "New Name", "5551234")
	require.NoError(t, err)
	assert.Equal(t, "New Name", profile.Name)
	assert.Equal(t, "5551234", profile.Phone)

	snap := profile.Snapshot()
	assert.Equal(t, int64(1), snap.ID)
	assert.Equal(t, shared.RoleUser, snap.Role)
}

func TestUpdateProfileUnknownAccount(t *testing.T) {
	svc := NewService(&stubRepo{profiles: map[int64]*Profile{}})
	_, err := svc.UpdateProfile(context.Background(), 9, "X", "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
