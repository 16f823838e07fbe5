package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taskhive/taskhive-api/internal/api"
	apiMiddleware "github.com/taskhive/taskhive-api/internal/api/middleware"
	"github.com/taskhive/taskhive-api/internal/domain"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userService)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.analyticsService, app.logger)
	teamHandler := api.NewTeamHandler(app.teamService, app.logger)
	wsHandler := api.NewWSHandler(app.registry, app.logger)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	managerOrAdmin := apiMiddleware.RequireRoles(domain.RoleManager, domain.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(app.rateLimiter.Limit)

			// Task endpoints. Creating and listing tasks is reserved for
			// managers and admins.
			r.With(managerOrAdmin).Post("/tasks", taskHandler.CreateTask)
			r.With(managerOrAdmin).Get("/tasks", taskHandler.ListTasks)
			r.Get("/tasks/assigned", taskHandler.AssignedTasks)
			r.Get("/tasks/analytics/user", taskHandler.UserAnalytics)
			r.Get("/tasks/analytics/team/{id}", taskHandler.TeamAnalytics)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Put("/tasks/{id}", taskHandler.UpdateTask)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)
			r.Post("/tasks/{id}/assign", taskHandler.AssignTask)

			// Team endpoints
			r.Post("/teams", teamHandler.CreateTeam)
			r.Get("/teams/{id}", teamHandler.GetTeam)
			r.Delete("/teams/{id}", teamHandler.DeleteTeam)
			r.Post("/teams/{id}/members", teamHandler.AddMember)
			r.Delete("/teams/{id}/members/{userId}", teamHandler.RemoveMember)

			// User endpoints
			r.Get("/users/profile", userHandler.GetProfile)
			r.Put("/users/profile", userHandler.UpdateProfile)
			r.Put("/users/password", userHandler.ChangePassword)
			r.Get("/users", userHandler.ListUsers)
			r.Delete("/users/{id}", userHandler.DeleteUser)
		})
	})

	// Real-time notification endpoint. Registration happens in-band via
	// the first websocket message.
	r.Get("/ws", wsHandler.Serve)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
