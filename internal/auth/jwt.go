// Package auth issues and verifies session tokens and API keys.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/weighttrack/internal/models"
)

// CookieName is the session cookie set on login.
const CookieName = "weight-tracker-session"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("not authenticated")
)

// SessionManager signs and validates session tokens carried in a cookie.
type SessionManager struct {
	secretKey []byte
	maxAge    time.Duration
	now       func() time.Time
}

// Claims represents the custom JWT claims for a user session.
type Claims struct {
	Username string      `json:"username"`
	Nickname string      `json:"nickname"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// NewSessionManager creates a manager signing with secretKey.
// Sessions expire after maxAge.
func NewSessionManager(secretKey string, maxAge time.Duration) *SessionManager {
	return &SessionManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
		now:       time.Now,
	}
}

// RandomSecret returns a fresh 256-bit secret, hex encoded.
// Sessions signed with it do not survive a restart.
func RandomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Generate creates a signed token for user.
func (m *SessionManager) Generate(user models.PublicUser) (string, error) {
	now := m.now()
	claims := &Claims{
		Username: user.Username,
		Nickname: user.Nickname,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate parses and validates a token, returning the claims if valid.
func (m *SessionManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// FromRequest validates the session cookie of r.
func (m *SessionManager) FromRequest(r *http.Request) (*Claims, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrMissingToken
	}
	return m.Validate(c.Value)
}

// Cookie wraps token in an HTTP-only session cookie.
func (m *SessionManager) Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie returns a cookie that deletes the session.
func (m *SessionManager) ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
