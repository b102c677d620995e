package handlers

import (
	"net/http"

	"github.com/marmos91/tso-lease/pkg/election"
)

// statusResponse mirrors the replica's current view of the lease,
// exactly what tso-leasectl status renders for an operator.
type statusResponse struct {
	IsLeader     bool   `json:"is_leader"`
	InLeaseHold  bool   `json:"in_lease_period"`
	CurrentEpoch int64  `json:"current_epoch"`
	LeaseHolder  string `json:"lease_holder"`
}

// Status exposes /status.
type Status struct {
	controller *election.Controller
}

// NewStatus builds a Status handler bound to controller.
func NewStatus(controller *election.Controller) *Status {
	return &Status{controller: controller}
}

func (s *Status) Get(w http.ResponseWriter, r *http.Request) {
	view := s.controller.View()
	writeJSON(w, http.StatusOK, statusResponse{
		IsLeader:     view.IsLeader(),
		InLeaseHold:  view.InLeasePeriod(),
		CurrentEpoch: view.CurrentEpoch(),
		LeaseHolder:  view.LeaseHolder(),
	})
}
