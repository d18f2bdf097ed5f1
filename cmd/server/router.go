package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/marketplace-api/internal/api"
	apiMiddleware "github.com/phrazzld/marketplace-api/internal/api/middleware"
	"github.com/phrazzld/marketplace-api/internal/api/shared"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", apiMiddleware.TraceHeader},
		ExposedHeaders:   []string{apiMiddleware.TraceHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.NewMetrics(app.registry).Handler)

	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.logger)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	productHandler := api.NewProductHandler(app.productService, app.logger)
	serviceHandler := api.NewServiceHandler(app.offeringService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)
		r.Get("/auth/check-email", authHandler.CheckEmail)
		r.Get("/auth/check-username", authHandler.CheckUsername)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.ListUsers)
				r.Get("/me", userHandler.GetMe)
				r.Put("/me", userHandler.UpdateMe)
				r.Post("/recalculate-counters", userHandler.RecalculateCounters)
				r.Get("/{id}", userHandler.GetUser)
				r.Post("/{id}/follow", userHandler.Follow)
				r.Delete("/{id}/unfollow", userHandler.Unfollow)
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", productHandler.CreateProduct)
				r.Get("/", productHandler.ListProducts)
				r.Get("/user/{userId}", productHandler.ListUserProducts)
				r.Get("/{productId}", productHandler.GetProduct)
				r.Put("/{productId}", productHandler.ReplaceProduct)
				r.Patch("/{productId}", productHandler.PatchProduct)
				r.Delete("/{productId}", productHandler.DeleteProduct)
			})

			r.Route("/services", func(r chi.Router) {
				r.Post("/", serviceHandler.CreateService)
				r.Get("/", serviceHandler.ListServices)
				r.Get("/user/{userId}", serviceHandler.ListUserServices)
				r.Get("/{serviceId}", serviceHandler.GetService)
				r.Put("/{serviceId}", serviceHandler.ReplaceService)
				r.Patch("/{serviceId}", serviceHandler.PatchService)
				r.Delete("/{serviceId}", serviceHandler.DeleteService)
			})
		})
	})

	r.Get("/health", app.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// handleHealth reports 200 when the database answers a ping, 503 otherwise.
func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.db.Ping(ctx); err != nil {
		app.logger.Error("health check failed", slog.String("error", err.Error()))
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "down"})
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Database: "up"})
}
