package handlers

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/marmos91/tso-lease/pkg/api/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Login exposes /admin/login: exchanges the shared operator
// credential for a short-lived bearer token. There is no refresh
// flow; once the token expires the operator logs in again.
type Login struct {
	svc *auth.Service
}

// NewLogin builds a Login handler bound to svc.
func NewLogin(svc *auth.Service) *Login {
	return &Login{svc: svc}
}

func (l *Login) Post(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	err := l.svc.CheckCredentials(req.Username, func(hash string) error {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password))
	})
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, expiresAt, err := l.svc.IssueToken()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(http.TimeFormat),
	})
}
