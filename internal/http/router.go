// Package http assembles the public HTTP surface from the per-domain
// handlers.
package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certverify/pkg/platform/httputil"
	"certverify/pkg/platform/middleware/metadata"
	"certverify/pkg/platform/middleware/requestid"
	"certverify/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by each domain handler to mount its routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of one dependency. Nil checkers are
// skipped so optional infrastructure can be wired conditionally.
type HealthChecker func(ctx context.Context) error

// NewRouter builds the service router: shared middleware, domain routes,
// health, and metrics.
func NewRouter(registry *prometheus.Registry, healthChecks map[string]HealthChecker, handlers ...Registrar) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	for _, h := range handlers {
		h.Register(r)
	}

	r.Get("/healthz", healthHandler(healthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := make(map[string]string, len(checks)+1)
		body["status"] = "ok"

		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			} else {
				body[name] = "ok"
			}
		}

		httputil.WriteJSON(w, status, body)
	}
}
