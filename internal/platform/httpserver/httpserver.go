package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project. All domain
// operations are short-lived request/response workflows, so the write timeout
// also bounds slow store calls that escape their own deadlines.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
