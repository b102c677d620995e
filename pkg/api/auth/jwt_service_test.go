package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Secret:               "test-secret-at-least-32-bytes-long!",
		TokenTTL:             time.Minute,
		OperatorUsername:     "admin",
		OperatorPasswordHash: "hashed",
	})
	require.NoError(t, err)
	return svc
}

func TestIssueAndValidateToken(t *testing.T) {
	svc := newTestService(t)

	token, expiresAt, err := svc.IssueToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 2*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.True(t, claims.IsAdmin())
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc := newTestService(t)

	token, _, err := svc.IssueToken()
	require.NoError(t, err)

	_, err = svc.Validate(token + "tampered")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc, err := NewService(Config{
		Secret:               "test-secret-at-least-32-bytes-long!",
		TokenTTL:             -time.Minute,
		OperatorUsername:     "admin",
		OperatorPasswordHash: "hashed",
	})
	require.NoError(t, err)

	token, _, err := svc.IssueToken()
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCheckCredentials(t *testing.T) {
	svc := newTestService(t)

	err := svc.CheckCredentials("admin", func(hash string) error {
		assert.Equal(t, "hashed", hash)
		return nil
	})
	assert.NoError(t, err)

	err = svc.CheckCredentials("someone-else", func(hash string) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewServiceRejectsEmptySecret(t *testing.T) {
	_, err := NewService(Config{})
	assert.Error(t, err)
}
