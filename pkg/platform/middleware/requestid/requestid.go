// Package requestid assigns each request an identifier for log correlation.
// An inbound X-Request-ID is trusted and propagated; otherwise a fresh UUID
// is generated. The identifier is echoed on the response.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"certverify/pkg/requestcontext"
)

const Header = "X-Request-ID"

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
