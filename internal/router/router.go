// Package router sets up all HTTP routes and middleware chains for the
// quizbank API. Routes are split into a public group (health, login) and
// the authenticated, CSRF-protected /api group.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"quizbank/internal/handlers"
	"quizbank/internal/middleware"
)

// Deps are the handlers and stores the router wires together.
type Deps struct {
	Sessions     middleware.SessionLoader
	Auth         *handlers.Auth
	Categories   *handlers.Categories
	Health       http.HandlerFunc
	LoginLimiter *middleware.RateLimiter

	// SecureCookies marks CSRF cookies HTTPS-only.
	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})

	// Health check: no auth, no CSRF.
	r.Get("/health", d.Health)

	// Login has no session yet, so no CSRF token either; it is rate limited
	// per client instead.
	r.With(d.LoginLimiter.Middleware).Post("/login", d.Auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(d.SecureCookies))

		r.Post("/logout", d.Auth.Logout)

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/me", d.Auth.Me)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/options", d.Categories.Options)
				r.Post("/", d.Categories.Create)
				r.Put("/{id}", d.Categories.Update)
				r.Get("/{id}/can-delete", d.Categories.CanDelete)
				r.Delete("/{id}", d.Categories.Delete)
				r.Post("/{id}/prune", d.Categories.Prune)
				r.Post("/{id}/move", d.Categories.Move)
			})
		})
	})

	return r
}
