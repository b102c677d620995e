package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/login", r.URL.Path)
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "admin", req.Username)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(LoginResponse{Token: "abc123", ExpiresAt: "Mon, 02 Jan 2006 15:04:05 GMT"})
	}))
	defer server.Close()

	client := New(server.URL)
	resp, err := client.Login("admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc123", resp.Token)
}

func TestLoginInvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Login("admin", "wrong")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsUnauthorized())
}

func TestStatusSendsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mytoken", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(Status{IsLeader: true, CurrentEpoch: 5})
	}))
	defer server.Close()

	client := New(server.URL).WithToken("mytoken")
	status, err := client.Status()
	require.NoError(t, err)
	assert.True(t, status.IsLeader)
	assert.Equal(t, int64(5), status.CurrentEpoch)
}

func TestStepDownConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not currently the lease holder"})
	}))
	defer server.Close()

	client := New(server.URL)
	err := client.StepDown()
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsConflict())
}
