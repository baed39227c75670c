package auth_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/greenbasket/internal/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResetTokenRoundTrip(t *testing.T) {
	tokens := auth.NewResetTokens("secret", 30*time.Minute)

	signed, err := tokens.Issue(42, "a@b.c")
	require.NoError(t, err)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.AccountID)
	assert.Equal(t, "a@b.c", claims.Email)
}

func TestResetTokenExpired(t *testing.T) {
	tokens := auth.NewResetTokens("secret", -time.Minute)

	signed, err := tokens.Issue(42, "a@b.c")
	require.NoError(t, err)

	_, err = tokens.Verify(signed)
	assert.ErrorIs(t, err, auth.ErrResetTokenInvalid)
}

func TestResetTokenWrongSecret(t *testing.T) {
	signed, err := auth.NewResetTokens("secret-one", time.Hour).Issue(1, "a@b.c")
	require.NoError(t, err)

	_, err = auth.NewResetTokens("secret-two", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, auth.ErrResetTokenInvalid)
}

func TestResetTokenGarbage(t *testing.T) {
	tokens := auth.NewResetTokens("secret", time.Hour)
	_, err := tokens.Verify("not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrResetTokenInvalid)
}
