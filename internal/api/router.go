package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/studentily-be/internal/api/handlers"
	"github.com/isdelr/studentily-be/internal/auth"
	"github.com/isdelr/studentily-be/internal/metrics"
	"github.com/isdelr/studentily-be/internal/models"
	"github.com/isdelr/studentily-be/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// RouterDeps bundles everything the HTTP layer needs.
type RouterDeps struct {
	UserService     services.UserServiceProvider
	ResourceService services.ResourceServiceProvider
	Tokens          *auth.TokenService
	Store           handlers.Pinger
	HostStats       handlers.HostStatsProvider
	Metrics         *metrics.Collector
	Gatherer        prometheus.Gatherer
	AllowedOrigins  []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(log.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(deps.UserService, deps.Tokens)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.HostStats)

	// Public routes
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Post("/create-account", userHandler.CreateAccount)
	r.Post("/login", userHandler.Login)

	// Authenticated routes
	var recorder auth.FailureRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}
	r.Group(func(r chi.Router) {
		r.Use(auth.JWTMiddleware(deps.Tokens, recorder))

		r.Get("/get-user", userHandler.GetUser)
		r.Delete("/delete-account", userHandler.DeleteAccount)

		for _, spec := range models.Kinds() {
			h := handlers.NewResourceHandler(deps.ResourceService, spec)

			r.Post("/create-"+spec.Route, h.Create)
			r.Patch("/edit-"+spec.Route+"/{id}", h.Edit)
			r.Get("/get-all-"+spec.RoutePlural, h.GetAll)
			r.Delete("/delete-"+spec.Route+"/{id}", h.Delete)
			r.Patch("/update-pinned-"+spec.Route+"/{id}", h.UpdatePinned)

			if spec.HasCompleted {
				r.Patch("/"+spec.RoutePlural+"/{id}/mark-completed", h.MarkCompleted)
				r.Patch("/"+spec.RoutePlural+"/{id}/mark-uncompleted", h.MarkUncompleted)
			}
		}
	})

	return r
}
