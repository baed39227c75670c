package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrResetTokenInvalid covers expired, malformed, and forged reset tokens.
var ErrResetTokenInvalid = errors.New("reset token invalid")

// ResetClaims are carried by a password-reset token.
type ResetClaims struct {
	AccountID int64  `json:"aid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// ResetTokens issues and verifies signed password-reset tokens. The token is
// the only proof of ownership in the reset flow, so verification rejects
// anything but HS256 with our secret.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
}

// NewResetTokens constructs a ResetTokens helper.
func NewResetTokens(secret string, ttl time.Duration) *ResetTokens {
	return &ResetTokens{secret: []byte(secret), ttl: ttl}
}

// Issue mints a reset token for the account.
func (rt *ResetTokens) Issue(accountID int64, email string) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "greenbasket",
			Subject:   fmt.Sprintf("%d", accountID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(rt.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(rt.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign reset token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a reset token.
func (rt *ResetTokens) Verify(token string) (*ResetClaims, error) {
	var claims ResetClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrResetTokenInvalid
		}
		return rt.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer("greenbasket"))
	if err != nil || !parsed.Valid {
		return nil, ErrResetTokenInvalid
	}
	if claims.AccountID == 0 || claims.Email == "" {
		return nil, ErrResetTokenInvalid
	}
	return &claims, nil
}
