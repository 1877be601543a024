package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const SessionCookie = "session"

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrSessionRevoked = errors.New("session revoked")
)

// RevocationList remembers logged-out session ids until they expire.
type RevocationList interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type claims struct {
	jwt.RegisteredClaims
}

// SessionManager issues and validates signed session tokens. The token is
// the session marker: subject is the username, jti identifies the session.
type SessionManager struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationList
	now     func() time.Time
}

func NewSessionManager(secret []byte, ttl time.Duration, revoked RevocationList) *SessionManager {
	return &SessionManager{secret: secret, ttl: ttl, revoked: revoked, now: time.Now}
}

func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Issue returns a signed token marking username as authenticated.
func (m *SessionManager) Issue(username string) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and revocation and returns the username.
func (m *SessionManager) Verify(ctx context.Context, token string) (string, error) {
	c, err := m.parse(token)
	if err != nil {
		return "", err
	}
	revoked, err := m.revoked.IsRevoked(ctx, c.ID)
	if err != nil {
		return "", fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return "", ErrSessionRevoked
	}
	return c.Subject, nil
}

// Revoke puts a still-valid token on the revocation list for the rest of its
// lifetime. Invalid or expired tokens need no revocation.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	c, err := m.parse(token)
	if err != nil {
		return nil
	}
	return m.revoked.Revoke(ctx, c.ID, c.ExpiresAt.Sub(m.now()))
}

func (m *SessionManager) parse(token string) (*claims, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid || c.Subject == "" || c.ID == "" {
		return nil, ErrInvalidSession
	}
	return c, nil
}
