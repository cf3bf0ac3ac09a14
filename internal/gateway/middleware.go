package gateway

import (
	"net/http"
	"strings"
)

// BearerAuth requires Authorization: Bearer <token> on every request when
// token is non-empty; an empty token disables the check entirely. Rejected
// requests get a bare 401 with no body, so the response leaks nothing about
// which part of the credential was wrong.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(supplied) != token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
