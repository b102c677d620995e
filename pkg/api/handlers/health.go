// Package handlers implements the HTTP handlers served by the control
// API: liveness/readiness probes, election status, and the
// admin-only step-down action.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/marmos91/tso-lease/pkg/election"
)

// Health exposes /healthz and /readyz.
type Health struct {
	controller *election.Controller
}

// NewHealth builds a Health handler bound to controller.
func NewHealth(controller *election.Controller) *Health {
	return &Health{controller: controller}
}

// Live always reports 200 once the process is serving HTTP; it does
// not reflect lease state. A process that can answer this request has
// a working event loop, nothing more.
func (h *Health) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Ready reports 200 only once the controller has completed its
// initial setup cycle. It does not require holding the lease: a
// healthy standby is "ready" even though it isn't serving traffic.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.controller.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
