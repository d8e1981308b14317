package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session has expired")
)

// SessionClaims is the server-side session payload carried in the
// session cookie: user id, display name, and role. Nothing else.
type SessionClaims struct {
	UserID   uint   `json:"user_id"`
	UserName string `json:"user_name"`
	UserRole string `json:"user_role"`
	jwt.RegisteredClaims
}

// AuthContext is the authenticated identity passed explicitly into
// handlers and policy calls instead of being read from ambient state.
type AuthContext struct {
	UserID   uint
	UserName string
	Role     models.Role
}

// SessionManager issues and validates the signed session tokens stored
// in the session cookie.
type SessionManager struct {
	secretKey []byte
	ttl       time.Duration
}

func NewSessionManager(secretKey string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secretKey: []byte(secretKey),
		ttl:       ttl,
	}
}

// TTL returns the session lifetime, used for the cookie max-age.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a session token for a freshly authenticated user.
func (m *SessionManager) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID:   user.ID,
		UserName: user.Name,
		UserRole: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "helpdesk",
			Subject:   user.Email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Validate parses a session token and returns its claims.
func (m *SessionManager) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Context converts validated claims into the explicit AuthContext
// handlers work with.
func (c *SessionClaims) Context() AuthContext {
	return AuthContext{
		UserID:   c.UserID,
		UserName: c.UserName,
		Role:     models.Role(c.UserRole),
	}
}
