// Package lounge implements the shared chat room: pseudonymous identity,
// presence, the append-only message log, and the broadcast rules that decide
// who sees which update.
package lounge

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when a session token is missing, forged,
// expired, or signed with the wrong method.
var ErrInvalidToken = errors.New("invalid token")

// TokenClaims binds a connection to a stable user id across reconnects.
type TokenClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens with a short
// validity window. Tokens are reissued on every successful verification so
// an active client keeps a sliding session.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager for the given secret and token
// lifetime.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// VerifyOrIssue renews the identity carried by token, or mints a brand new
// anonymous identity when the token is absent or fails verification. It
// never fails outward and has no side effect on the presence registry.
func (m *TokenManager) VerifyOrIssue(token string) (string, error) {
	id, err := m.Verify(token)
	if err != nil {
		id = uuid.NewString()
	}
	return m.sign(id)
}

// Verify checks token against the secret and returns the user id it
// carries. All authenticated operations use this strict path; failure maps
// to a terminal per-request error, not a connection teardown.
func (m *TokenManager) Verify(token string) (string, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil || !parsed.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

func (m *TokenManager) sign(id string) (string, error) {
	issued := m.now().UTC()
	claims := TokenClaims{
		ID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}
