// Package security applies response headers appropriate for a JSON API.
package security

import "net/http"

// Headers sets conservative security headers on every response. The policy
// assumes an API consumed by scripts, not a browser-rendered site, so there
// is no CSP beyond denying embedding.
func Headers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
