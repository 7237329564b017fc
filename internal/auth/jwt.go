package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeSession = "session"
	TypeReset   = "reset"
)

// ErrInvalidToken covers bad signatures, tampering, expiry and wrong purpose
// alike so callers cannot tell the causes apart.
var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID    string `json:"sub"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

// ExpiresAtTime is the absolute expiry, used to size revocation entries.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type Manager struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewManager(secret string, sessionTTL time.Duration, resetTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// WithClock returns a copy of m that reads time from now. Used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

// ResetTTL is how long reset tokens from IssueResetToken stay valid.
func (m *Manager) ResetTTL() time.Duration {
	return m.resetTTL
}

func (m *Manager) IssueSessionToken(userID, role string) (string, error) {
	return m.issue(userID, role, TypeSession, m.sessionTTL)
}

func (m *Manager) IssueResetToken(userID string) (string, error) {
	return m.issue(userID, "", TypeReset, m.resetTTL)
}

func (m *Manager) issue(userID, role, typ string, ttl time.Duration) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		UserID:    userID,
		Role:      role,
		TokenType: typ,
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || claims.JTI == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) verify(tokenStr, typ string) (*Claims, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != typ {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) VerifySessionToken(tokenStr string) (*Claims, error) {
	return m.verify(tokenStr, TypeSession)
}

func (m *Manager) VerifyResetToken(tokenStr string) (*Claims, error) {
	return m.verify(tokenStr, TypeReset)
}
