package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/marmos91/tso-lease/internal/clock"
	"github.com/marmos91/tso-lease/pkg/api/auth"
	"github.com/marmos91/tso-lease/pkg/coordination/memory"
	"github.com/marmos91/tso-lease/pkg/election"
)

func newTestRouter(t *testing.T) (http.Handler, *auth.Service) {
	t.Helper()

	gw := memory.New()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	controller := election.NewController(gw, clk, &election.NoopStateManager{}, &election.RecordingPanicker{}, nil, election.Config{
		HostAndPort: "10.0.0.1:9090",
		LeasePeriod: 4 * time.Second,
	})
	require.NoError(t, controller.Setup(context.Background()))

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)

	jwtService, err := auth.NewService(auth.Config{
		Secret:               "router-test-secret-at-least-32-bytes!",
		TokenTTL:             time.Minute,
		OperatorUsername:     "admin",
		OperatorPasswordHash: string(hash),
	})
	require.NoError(t, err)

	return NewRouter(controller, jwtService), jwtService
}

func TestHealthzUnauthenticated(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStepDownRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/step-down", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginThenStepDown(t *testing.T) {
	router, _ := newTestRouter(t)

	body, err := json.Marshal(map[string]string{"username": "admin", "password": "correct-password"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)

	req := httptest.NewRequest(http.MethodPost, "/admin/step-down", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// This replica never ran its scheduler loop, so it never acquired
	// the lease; step-down on a non-leader is rejected with Conflict.
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router, _ := newTestRouter(t)

	body, err := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
