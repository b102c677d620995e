package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/tso-lease/internal/logger"
	"github.com/marmos91/tso-lease/pkg/api/auth"
	"github.com/marmos91/tso-lease/pkg/api/handlers"
	apimiddleware "github.com/marmos91/tso-lease/pkg/api/middleware"
	"github.com/marmos91/tso-lease/pkg/election"
)

// NewRouter builds the control API's chi router.
//
// Routes:
//   - GET  /healthz          - liveness probe, unauthenticated
//   - GET  /readyz           - readiness probe, unauthenticated
//   - GET  /status           - current lease view, unauthenticated (read-only, non-sensitive)
//   - GET  /metrics          - Prometheus scrape endpoint, unauthenticated
//   - POST /admin/login      - exchange operator credential for a token
//   - POST /admin/step-down  - voluntary demotion, admin token required
func NewRouter(controller *election.Controller, jwtService *auth.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(10 * time.Second))

	healthHandler := handlers.NewHealth(controller)
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	statusHandler := handlers.NewStatus(controller)
	r.Get("/status", statusHandler.Get)

	r.Get("/metrics", handlers.Metrics().ServeHTTP)

	loginHandler := handlers.NewLogin(jwtService)
	r.Post("/admin/login", loginHandler.Post)

	stepDownHandler := handlers.NewStepDown(controller)
	r.Group(func(r chi.Router) {
		r.Use(apimiddleware.JWTAuth(jwtService))
		r.Use(apimiddleware.RequireAdmin)
		r.Post("/admin/step-down", stepDownHandler.Post)
	})

	return r
}

func isHealthPath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimiddleware.GetReqID(r.Context())

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("api request completed", logArgs...)
		} else {
			logger.Info("api request completed", logArgs...)
		}
	})
}
