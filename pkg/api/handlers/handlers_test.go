package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/tso-lease/internal/clock"
	"github.com/marmos91/tso-lease/pkg/coordination/memory"
	"github.com/marmos91/tso-lease/pkg/election"
)

func newTestController(t *testing.T) *election.Controller {
	t.Helper()
	gw := memory.New()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	cfg := election.Config{
		HostAndPort: "10.0.0.1:9090",
		LeasePeriod: 4 * time.Second,
	}
	c := election.NewController(gw, clk, &election.NoopStateManager{}, &election.RecordingPanicker{}, nil, cfg)
	require.NoError(t, c.Setup(context.Background()))
	return c
}

func TestHealthLiveAlwaysOK(t *testing.T) {
	h := NewHealth(newTestController(t))
	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReadyBeforeSetupCycle(t *testing.T) {
	h := NewHealth(newTestController(t))
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusReflectsView(t *testing.T) {
	controller := newTestController(t)
	h := NewStatus(controller)

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "is_leader")
}

func TestStepDownRejectsNonLeader(t *testing.T) {
	controller := newTestController(t)
	h := NewStepDown(controller)

	rec := httptest.NewRecorder()
	h.Post(rec, httptest.NewRequest(http.MethodPost, "/admin/step-down", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}
