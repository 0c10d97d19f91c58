package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/weighttrack/internal/models"
)

var alice = models.PublicUser{Username: "alice", Nickname: "Alice", Role: models.RoleUser}

func TestSessionManager_RoundTrip(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)

	token, err := m.Generate(alice)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Alice", claims.Nickname)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestSessionManager_Rejects(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)
	token, err := m.Generate(alice)
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		_, err := NewSessionManager("other-secret", time.Hour).Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewSessionManager("test-secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "admin"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Validate(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSessionManager_FromRequest(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)
	token, err := m.Generate(alice)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	_, err = m.FromRequest(r)
	assert.ErrorIs(t, err, ErrMissingToken)

	r.AddCookie(m.Cookie(token, false))
	claims, err := m.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestCookies(t *testing.T) {
	m := NewSessionManager("s", 7*24*time.Hour)

	c := m.Cookie("tok", true)
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, 604800, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	assert.Negative(t, m.ClearCookie(false).MaxAge)
}

func TestValidAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		value      string
		want       bool
	}{
		{"bearer", "k3y", "Authorization", "Bearer k3y", true},
		{"x-api-key", "k3y", "X-API-Key", "k3y", true},
		{"wrong key", "k3y", "X-API-Key", "nope", false},
		{"basic auth is not a key", "k3y", "Authorization", "Basic k3y", false},
		{"no header", "k3y", "", "", false},
		{"disabled", "", "X-API-Key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}
			assert.Equal(t, tt.want, ValidAPIKey(tt.configured, r))
		})
	}
}

func TestRandomSecret(t *testing.T) {
	a, err := RandomSecret()
	require.NoError(t, err)
	b, err := RandomSecret()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
