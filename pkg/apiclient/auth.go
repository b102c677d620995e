package apiclient

import "time"

// LoginRequest is the body of POST /admin/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response from POST /admin/login.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// ParsedExpiresAt parses ExpiresAt using the HTTP date format the
// server stamps it with.
func (r *LoginResponse) ParsedExpiresAt() (time.Time, error) {
	return time.Parse(time.RFC1123, r.ExpiresAt)
}

// Login exchanges the shared operator credential for a bearer token.
func (c *Client) Login(username, password string) (*LoginResponse, error) {
	req := LoginRequest{Username: username, Password: password}
	var resp LoginResponse
	if err := c.post("/admin/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
