package main

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

const adminKeyHeader = "X-Admin-Key"

// adminGuard protects endpoints that change settings or material prices.
type adminGuard struct {
	keyHash [32]byte
	enabled bool
	open    bool
}

// newAdminGuard returns a guard for key. Without a key, writes are allowed
// only in development.
func newAdminGuard(key string, dev bool) *adminGuard {
	if key == "" {
		return &adminGuard{open: dev}
	}
	return &adminGuard{keyHash: sha256.Sum256([]byte(key)), enabled: true}
}

func (g *adminGuard) authorized(r *http.Request) bool {
	if !g.enabled {
		return g.open
	}

	provided := r.Header.Get(adminKeyHeader)
	if provided == "" {
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			provided = token
		}
	}
	if provided == "" {
		return false
	}

	// Digests are compared so both sides always have the same length.
	sum := sha256.Sum256([]byte(provided))
	return subtle.ConstantTimeCompare(sum[:], g.keyHash[:]) == 1
}

func (g *adminGuard) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.authorized(r) {
			writeError(w, http.StatusUnauthorized, "admin key required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
