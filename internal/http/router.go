// Package httpapi composes the feature handlers into the public router.
// Transport concerns only; business logic stays in the feature services.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"proof-gateway/internal/platform/middleware"
	"proof-gateway/pkg/platform/httputil"
)

// FeatureHandler registers a feature's routes on a shared router.
type FeatureHandler interface {
	Register(r chi.Router)
}

// HealthCheck reports readiness of one backing dependency.
type HealthCheck func(ctx context.Context) error

// Options configures router composition.
type Options struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	Health         map[string]HealthCheck
	Features       []FeatureHandler
}

// NewRouter wires middleware, operational endpoints, and the /api/v1 feature
// routes.
func NewRouter(opts Options) http.Handler {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Get("/health", handleHealth(opts.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Get("/", handleAPIInfo)
		for _, f := range opts.Features {
			f.Register(api)
		}
	})

	return r
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				deps[name] = err.Error()
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		body := map[string]any{
			"status":    status,
			"service":   "proof-gateway",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}
		httputil.WriteJSON(w, code, body)
	}
}

func handleAPIInfo(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"name":        "Proof Gateway API",
		"version":     "1.0.0",
		"description": "Privacy-preserving credential verification using zero-knowledge proofs",
		"endpoints": map[string]string{
			"credentials": "/api/v1/credentials",
			"verify":      "/api/v1/verify",
		},
	})
}
