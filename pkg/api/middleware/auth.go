// Package middleware provides chi-compatible HTTP middleware for the
// control API, currently limited to operator JWT authentication.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/marmos91/tso-lease/pkg/api/auth"
)

type contextKey string

const claimsContextKey contextKey = "operatorClaims"

// JWTAuth requires a valid bearer token issued by svc, attaching the
// resulting claims to the request context.
func JWTAuth(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			claims, err := svc.Validate(tokenString)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose claims (attached by JWTAuth)
// don't carry the admin role. Must be chained after JWTAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.IsAdmin() {
			writeForbidden(w, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext retrieves the OperatorClaims attached by JWTAuth.
func ClaimsFromContext(ctx context.Context) (*auth.OperatorClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.OperatorClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimPrefix(header, prefix), true
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, message)
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusForbidden, message)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
