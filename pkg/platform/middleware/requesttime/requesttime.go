// Package requesttime pins a single "now" per HTTP request so domain
// timestamps, revocation times, and verification log entries within one
// request agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"certverify/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
