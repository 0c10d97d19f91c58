package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmynk/weighttrack/internal/auth"
	"github.com/mmynk/weighttrack/internal/models"
	"github.com/mmynk/weighttrack/internal/service"
)

// ErrUnauthenticated is wrapped by every Resolve error that means the request
// carries no usable credential. Other Resolve errors are server failures.
var ErrUnauthenticated = errors.New("not authenticated")

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// userKey is the context key for storing the authenticated user.
const userKey contextKey = "user"

// UserLookup resolves a username to its current account.
// *service.UserService implements it.
type UserLookup interface {
	GetUser(ctx context.Context, username string) (*models.PublicUser, error)
}

// Authenticator resolves the caller of a request from its session cookie or API key.
type Authenticator struct {
	Sessions *auth.SessionManager
	Users    UserLookup

	// APIKey authenticates requests as APIKeyUser. Empty disables it.
	APIKey     string
	APIKeyUser string
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u models.PublicUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// GetUser extracts the authenticated user from the context.
func GetUser(ctx context.Context) (models.PublicUser, bool) {
	u, ok := ctx.Value(userKey).(models.PublicUser)
	return u, ok
}

// Resolve returns the account making r. The account is looked up on every
// request so role changes and deletions apply to existing sessions.
// A missing or invalid credential, or an account that no longer exists,
// yields an error wrapping ErrUnauthenticated.
func (a *Authenticator) Resolve(r *http.Request) (*models.PublicUser, error) {
	username := ""
	if auth.ValidAPIKey(a.APIKey, r) {
		username = a.APIKeyUser
	} else {
		claims, err := a.Sessions.FromRequest(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		username = claims.Username
	}

	u, err := a.Users.GetUser(r.Context(), username)
	if errors.Is(err, service.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", username, err)
	}
	return u, nil
}

// RequireAuth rejects requests without a valid session or API key with 401.
// A failed account lookup is a 500.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.Resolve(r)
		if errors.Is(err, ErrUnauthenticated) {
			slog.Debug("Request not authenticated", "path", r.URL.Path, "error", err)
			unauthorized(w)
			return
		}
		if err != nil {
			slog.Error("Failed to resolve caller", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), *u)))
	})
}

// RequireAdmin is RequireAuth plus a 403 for non-admin accounts.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := GetUser(r.Context())
		if u.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "Not authenticated")
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
