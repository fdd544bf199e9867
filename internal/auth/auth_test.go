package auth

import (
	"testing"
	"time"

	"guild-tracker/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	svc, err := NewService(&config.Config{
		JWTSecret:          "test-secret",
		JWTExpiry:          time.Hour,
		SuperadminPassword: "droken-pass",
		AdminPassword:      "admin-pass",
	}, zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Authenticate("Droken", "droken-pass")
	require.NoError(t, err)
	assert.Equal(t, RoleSuperadmin, user.Role)

	user, err = svc.Authenticate("Admin", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, user.Role)

	_, err = svc.Authenticate("Droken", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Authenticate("Nobody", "droken-pass")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Authenticate("Admin", "admin-pass")
	require.NoError(t, err)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "Admin", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	svc := newTestService(t)

	other, err := NewService(&config.Config{
		JWTSecret:          "other-secret",
		JWTExpiry:          time.Hour,
		SuperadminPassword: "x",
		AdminPassword:      "y",
	}, zerolog.Nop())
	require.NoError(t, err)

	user, err := other.Authenticate("Admin", "y")
	require.NoError(t, err)
	token, err := other.IssueToken(user)
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc, err := NewService(&config.Config{
		JWTSecret:          "test-secret",
		JWTExpiry:          -time.Minute,
		SuperadminPassword: "x",
		AdminPassword:      "y",
	}, zerolog.Nop())
	require.NoError(t, err)

	user, err := svc.Authenticate("Admin", "y")
	require.NoError(t, err)
	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
