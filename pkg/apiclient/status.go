package apiclient

// Status mirrors the replica's current lease view, as returned by
// GET /status.
type Status struct {
	IsLeader     bool   `json:"is_leader"`
	InLeaseHold  bool   `json:"in_lease_period"`
	CurrentEpoch int64  `json:"current_epoch"`
	LeaseHolder  string `json:"lease_holder"`
}

// Status fetches the replica's current lease view.
func (c *Client) Status() (*Status, error) {
	var resp Status
	if err := c.get("/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StepDown requests that the replica voluntarily release the lease.
// Fails with a conflict APIError if the replica isn't currently the
// lease holder.
func (c *Client) StepDown() error {
	return c.post("/admin/step-down", nil, nil)
}
