package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/portal-gateway/app"
	"github.com/upb/portal-gateway/handlers"
	"github.com/upb/portal-gateway/services"
	"github.com/upb/portal-gateway/utils"
	"go.uber.org/zap"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	sessions := deps.SessionMiddleware

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)
	r.Use(middleware.Timeout(requestTimeout(deps)))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Every request gets its own session oracle and profile store
	r.Use(sessions.Attach)

	// Health check endpoints
	var db handlers.DatabaseChecker
	if deps.DB != nil {
		db = deps.DB
	}
	health := handlers.NewHealthHandler(db, deps.Config.SupabaseConfigured() && deps.Config.Supabase.JWTSecret != "", deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// Auth actions
	auth := handlers.NewAuthHandler(deps.SupabaseClient, deps.Profiles, deps.Guard.Table(), deps.Config.Guard, deps.Logger)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", auth.HandleLogin)
		r.Post("/register", auth.HandleRegister)
		r.Post("/logout", auth.HandleLogout)
	})

	// API v1 routes answer 401/403 instead of redirecting
	users := handlers.NewUserHandler(deps.Logger)
	facilities := handlers.NewFacilitiesHandler(deps.Facilities, deps.Logger)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(sessions.RequireSession)

		r.Route("/users", func(r chi.Router) {
			r.With(sessions.RequireAdmin).Get("/", users.HandleListUsers)
			r.Get("/me", users.HandleGetMe)
			r.Put("/me", users.HandleUpdateMe)
			r.With(sessions.RequireAdmin).Put("/{id}/admin", users.HandleSetAdmin)
		})

		r.Get("/facilities", facilities.HandleList)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			_ = utils.WriteServiceError(w, r, services.ErrRouteNotFound)
		})
	})

	// Page routes, each behind the navigation guard
	pages := handlers.NewPageHandler(deps.Logger)
	guard := deps.Guard
	catchAll := false
	for _, route := range guard.Table().Routes() {
		page := guard.Middleware(route, sessions.Env)(http.HandlerFunc(pages.HandlePage))
		if route.IsCatchAll() {
			if !catchAll {
				r.NotFound(page.ServeHTTP)
				catchAll = true
			}
			continue
		}
		r.Method(http.MethodGet, route.Path, page)
	}

	if !catchAll {
		deps.Logger.Warn("route table has no catch-all page", zap.Int("routes", len(guard.Table().Routes())))
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			_ = utils.WriteServiceError(w, r, services.ErrRouteNotFound)
		})
	}

	return r
}

func requestTimeout(deps *app.Dependencies) time.Duration {
	if deps.Config.Server.RequestTimeout > 0 {
		return deps.Config.Server.RequestTimeout
	}
	return 60 * time.Second
}
