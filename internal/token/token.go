// Package token issues and verifies signed session tokens.
//
// Tokens are stateless HS256 JWTs carrying the user id as subject plus
// issued-at/expires-at claims. Verification recomputes the signature
// (the HMAC check inside the jwt library is constant-time) and checks
// expiry; there is no server-side revocation.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkorzhov/tasksync/internal/errs"
)

// DefaultTTL is the session lifetime used when none is configured.
const DefaultTTL = 24 * time.Hour

// Manager signs and verifies session tokens with a fixed process-wide key.
type Manager struct {
	key []byte
	ttl time.Duration
}

// NewManager constructs a Manager. A non-positive ttl falls back to DefaultTTL.
func NewManager(key []byte, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{key: key, ttl: ttl}
}

// Issue creates a signed token for userID valid for the configured TTL.
func (m *Manager) Issue(userID int64) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates raw and returns the subject user id.
// It fails with errs.ErrTokenExpired for a valid-but-expired token and
// errs.ErrTokenMalformed for everything else.
func (m *Manager) Verify(raw string) (int64, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, errs.ErrTokenExpired
		}
		return 0, errs.ErrTokenMalformed
	}
	if !parsed.Valid {
		return 0, errs.ErrTokenMalformed
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.ErrTokenMalformed
	}
	return id, nil
}
