package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ignite/emailtype/internal/pkg/logger"
)

// RouteOptions carries the router settings taken from config.
type RouteOptions struct {
	AllowedOrigins []string
	// DefaultOrg is used for suppression routes when the request names none.
	DefaultOrg string
}

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, hc *HealthChecker, opts RouteOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", OrgHeader},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// Health checks (no org required)
	if hc != nil {
		r.Get("/health", hc.HandleHealth)
		r.Get("/health/live", hc.HandleLiveness)
		r.Get("/health/ready", hc.HandleReadiness)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/addresses", func(r chi.Router) {
			r.Post("/parse", h.HandleParse)
			r.Post("/decode", h.HandleDecode)
			r.Post("/compare", h.HandleCompare)
			r.Post("/sort", h.HandleSort)
			r.Get("/domains/{domain}", h.HandleDomainDirectory)
		})

		r.Get("/engine/stats", h.HandleEngineStats)

		r.Route("/suppressions", func(r chi.Router) {
			r.Use(requireOrg(opts.DefaultOrg))
			r.Get("/", h.HandleListSuppressions)
			r.Post("/", h.HandleSuppress)
			r.Get("/stats", h.HandleSuppressionStats)
			r.Get("/check/{email}", h.HandleCheck)
			r.Post("/scrub", h.HandleScrub)
			r.Post("/export", h.HandleExport)
			r.Delete("/{email}", h.HandleRemove)
		})
	})

	return r
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
