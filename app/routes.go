package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"staff-api/internal/auth"
	"staff-api/internal/employee"
	"staff-api/internal/maintenance"
	"staff-api/internal/observability"
	"staff-api/internal/response"
	"staff-api/internal/throttle"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type routerDeps struct {
	config      Config
	logger      *observability.Logger
	database    pinger
	authService *auth.Service
	employees   *employee.Service
	cleanup     *maintenance.CleanupHandler
}

func newRouter(deps routerDeps) http.Handler {
	logger := deps.logger
	authHandler := auth.NewHandler(deps.authService, logger)
	employeeHandler := employee.NewHandler(deps.employees, logger)
	requireAdmin := auth.Middleware(deps.authService, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if deps.config.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(func(next http.Handler) http.Handler { return observability.RecoverMiddleware(logger, next) })
	r.Use(func(next http.Handler) http.Handler { return observability.RequestLoggingMiddleware(logger, next) })
	r.Use(chimw.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(chimw.SetHeader("X-Frame-Options", "DENY"))
	r.Use(chimw.SetHeader("Referrer-Policy", "no-referrer"))
	r.Use(throttle.PerIP(float64(deps.config.APIRatePerMinute)/60, deps.config.APIRateBurst, ""))

	loginRate, loginBurst := throttle.PerWindow(deps.config.LoginRateLimitMax, deps.config.LoginRateLimitWindow)
	loginLimit := throttle.PerIP(loginRate, loginBurst, "too many login attempts, please try again later")

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	prefix := deps.config.APIPrefix
	if prefix == "" {
		prefix = "/"
	}
	r.Route(prefix, func(r chi.Router) {
		r.Get("/health", healthHandler(deps.database))
		r.Get("/internal/maintenance/cleanup", deps.cleanup.Handle)
		r.Post("/internal/maintenance/cleanup", deps.cleanup.Handle)

		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/login", authHandler.Login)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/profile", authHandler.Profile)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/employees", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Use(auth.RequireRole(logger, auth.RoleAdmin, auth.RoleSuperAdmin))
			employeeHandler.Routes(r)
		})
	})

	return r
}

type healthStatus struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func healthHandler(database pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		now := time.Now().UTC().Format(time.RFC3339)
		if err := database.PingContext(ctx); err != nil {
			response.JSON(w, http.StatusServiceUnavailable, response.Envelope{
				Success: false,
				Message: "database unavailable",
				Data:    healthStatus{Status: "degraded", Time: now},
			})
			return
		}
		response.OK(w, "", healthStatus{Status: "ok", Time: now})
	}
}
