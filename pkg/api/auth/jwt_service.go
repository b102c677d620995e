package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidCredentials is returned by Authenticate when the
	// supplied username/password does not match the configured
	// operator credential.
	ErrInvalidCredentials = errors.New("auth: invalid operator credentials")

	// ErrInvalidToken is returned by Validate for any token that
	// fails signature verification, is expired, or is malformed.
	ErrInvalidToken = errors.New("auth: invalid or expired token")
)

// Config configures the JWT issuer.
type Config struct {
	// Secret signs and verifies tokens. Must be non-empty.
	Secret string

	// TokenTTL is how long an issued token remains valid.
	TokenTTL time.Duration

	// OperatorUsername and OperatorPasswordHash are the single shared
	// operator credential this API recognizes. OperatorPasswordHash
	// is a bcrypt hash, never the plaintext password.
	OperatorUsername     string
	OperatorPasswordHash string

	// Issuer is stamped into issued tokens' iss claim.
	Issuer string
}

// Service issues and validates OperatorClaims tokens against a single
// shared operator credential. There is no user database and no
// refresh-token flow: a token simply expires and the operator logs in
// again via tso-leasectl.
type Service struct {
	cfg Config
}

// NewService builds a Service from cfg. cfg.Secret must be non-empty.
func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: jwt secret must not be empty")
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "tso-lease"
	}
	return &Service{cfg: cfg}, nil
}

// CheckCredentials verifies username/password against the configured
// operator credential. Password comparison is delegated to the
// caller-supplied compare function so this package stays independent
// of a specific hashing library choice.
func (s *Service) CheckCredentials(username string, comparePassword func(hash string) error) error {
	if username != s.cfg.OperatorUsername {
		return ErrInvalidCredentials
	}
	if err := comparePassword(s.cfg.OperatorPasswordHash); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueToken signs a new admin-role token for the configured operator.
func (s *Service) IssueToken() (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.cfg.TokenTTL)

	claims := &OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   s.cfg.OperatorUsername,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: s.cfg.OperatorUsername,
		Role:     "admin",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies tokenString, returning its claims.
func (s *Service) Validate(tokenString string) (*OperatorClaims, error) {
	claims := &OperatorClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
