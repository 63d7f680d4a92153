package web

import (
	"net/http"

	"github.com/JonMunkholm/priceingest/internal/core"
)

// withCaller records the client IP and User-Agent for audit logging.
// RemoteAddr has already been resolved by TrustedRealIP.
func withCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithCaller(r.Context(), core.Caller{
			IP:        clientIP(r.RemoteAddr),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
