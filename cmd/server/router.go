package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/taskwatch/internal/api"
	apiMiddleware "github.com/phrazzld/taskwatch/internal/api/middleware"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	taskHandler := api.NewTaskHandler(
		app.tracker.Coordinator,
		app.tracker.State,
		app.feed,
		app.logger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/task", taskHandler.GetTask)
		r.Get("/notifications", taskHandler.ListNotifications)

		r.Group(func(r chi.Router) {
			if app.jwtService != nil {
				r.Use(apiMiddleware.NewAuthMiddleware(app.jwtService).Authenticate)
			}
			r.Post("/task", taskHandler.StartTask)
			r.Post("/task/stop", taskHandler.StopTask)
			r.Delete("/task", taskHandler.ResetTask)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
