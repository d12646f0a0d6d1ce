package server

import (
	"net/http"
	"strings"
)

// requireAdminAPI enforces a single shared-secret bearer token, matching
// this repo's existing admin-API middleware pattern.
func requireAdminAPI(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) || strings.TrimPrefix(auth, prefix) != apiKey {
				writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
