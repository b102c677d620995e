package credentials

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{"expired in past", time.Now().Add(-time.Hour), true},
		{"expires within 60s", time.Now().Add(30 * time.Second), true},
		{"not expired", time.Now().Add(2 * time.Hour), false},
		{"zero time is expired", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expected, s.IsExpired())
		})
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	store, err := NewStore()
	require.NoError(t, err)
	return store
}

func TestCurrentWithoutSessionReturnsNotLoggedIn(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Current()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSaveAndReloadSession(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	store, err := NewStore()
	require.NoError(t, err)

	session := &Session{
		ServerURL: "http://localhost:8080",
		Username:  "admin",
		Token:     "token-123",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(session))

	reloaded, err := NewStore()
	require.NoError(t, err)

	current, err := reloaded.Current()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", current.ServerURL)
	assert.Equal(t, "admin", current.Username)
	assert.Equal(t, "token-123", current.Token)
}

func TestClearKeepsServerURL(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Session{
		ServerURL: "http://localhost:8080",
		Token:     "token-123",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, store.Clear())

	current, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", current.ServerURL)
	assert.Empty(t, current.Token)
	assert.True(t, current.ExpiresAt.IsZero())
}
