package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyFromRequest returns the key sent as "Authorization: Bearer <key>" or
// in the X-API-Key header, or "".
func APIKeyFromRequest(r *http.Request) string {
	if key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && key != "" {
		return key
	}
	return r.Header.Get("X-API-Key")
}

// ValidAPIKey reports whether r carries the configured key.
// An empty configured key disables API key authentication.
func ValidAPIKey(configured string, r *http.Request) bool {
	if configured == "" {
		return false
	}
	presented := APIKeyFromRequest(r)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}
