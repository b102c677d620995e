package handlers

import (
	"net/http"

	"github.com/marmos91/tso-lease/pkg/election"
)

// StepDown exposes the admin-only /admin/step-down action: a
// voluntary demotion requested by an operator and applied at the
// controller's next scheduler cycle, as opposed
// to the involuntary demotion the controller performs on its own
// when it loses the lease.
type StepDown struct {
	controller *election.Controller
}

// NewStepDown builds a StepDown handler bound to controller.
func NewStepDown(controller *election.Controller) *StepDown {
	return &StepDown{controller: controller}
}

func (s *StepDown) Post(w http.ResponseWriter, r *http.Request) {
	if !s.controller.View().IsLeader() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "not currently the lease holder"})
		return
	}

	s.controller.RequestStepDown()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "step-down requested"})
}
