package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/todo-api/internal/api"
	apiMiddleware "github.com/phrazzld/todo-api/internal/api/middleware"
)

// APIPrefix is the path prefix of every versioned endpoint.
const APIPrefix = "/api/v1"

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	authHandler := api.NewAuthHandler(app.userService, app.logger)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	categoryHandler := api.NewCategoryHandler(app.categoryService, app.logger)
	todoHandler := api.NewTodoHandler(app.todoService, app.logger)
	notificationHandler := api.NewNotificationHandler(app.notificationService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.guard, app.logger)

	var healthHandler *api.HealthHandler
	if app.db != nil {
		healthHandler = api.NewHealthHandler(app.db, app.logger)
	} else {
		healthHandler = api.NewHealthHandler(nil, app.logger)
	}

	// Credential endpoints are throttled per client IP.
	throttle := func(h http.HandlerFunc) http.Handler { return h }
	if perMinute := app.config.Server.AuthRateLimitPerMinute; perMinute > 0 {
		limiter := apiMiddleware.NewRateLimiter(perMinute, app.config.Server.AuthRateLimitBurst)
		throttle = func(h http.HandlerFunc) http.Handler { return limiter.Limit(h) }
	}

	r.Get("/health", healthHandler.Health)

	r.Route(APIPrefix, func(r chi.Router) {
		// Authentication endpoints (public)
		r.Method(http.MethodPost, "/auth/register", throttle(authHandler.Register))
		r.Method(http.MethodPost, "/auth/login", throttle(authHandler.Login))
		r.Post("/auth/refresh", authHandler.Refresh)
		r.Post("/auth/password-reset", authHandler.ResetPassword)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/users/me", userHandler.Me)
			r.Put("/users/me", userHandler.UpdateMe)
			r.Post("/users/me/password", userHandler.ChangePassword)

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", categoryHandler.Create)
				r.Get("/", categoryHandler.List)
				r.Get("/with-counts", categoryHandler.ListWithCounts)
				r.Get("/{id}", categoryHandler.Get)
				r.Put("/{id}", categoryHandler.Update)
				r.Delete("/{id}", categoryHandler.Delete)
				r.Get("/{id}/todos", categoryHandler.ListTodos)
			})

			r.Route("/todos", func(r chi.Router) {
				r.Post("/", todoHandler.Create)
				r.Get("/", todoHandler.List)
				r.Get("/stats", todoHandler.Stats)
				r.Get("/{id}", todoHandler.Get)
				r.Put("/{id}", todoHandler.Update)
				r.Patch("/{id}/status", todoHandler.UpdateStatus)
				r.Delete("/{id}", todoHandler.Delete)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Delete("/", notificationHandler.Clear)
				r.Get("/summary", notificationHandler.Summary)
				r.Get("/deadlines", notificationHandler.Deadlines)
				r.Post("/check", notificationHandler.Check)
				r.Post("/read-all", notificationHandler.MarkAllRead)
				r.Get("/{id}", notificationHandler.Get)
				r.Post("/{id}/read", notificationHandler.MarkRead)
				r.Delete("/{id}", notificationHandler.Delete)
			})
		})
	})

	return r
}
