package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/config"
	"github.com/acs-energy/crm-api/internal/database"
	"github.com/acs-energy/crm-api/internal/http/handler"
	"github.com/acs-energy/crm-api/internal/http/middleware"

	_ "github.com/acs-energy/crm-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	db              *gorm.DB
	authMiddleware  *auth.Middleware
	rateLimiter     *middleware.RateLimiter
	authHandler     *handler.AuthHandler
	leadHandler     *handler.LeadHandler
	activityHandler *handler.ActivityHandler
	followupHandler *handler.FollowupHandler
	userHandler     *handler.UserHandler
	reportHandler   *handler.ReportHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	leadHandler *handler.LeadHandler,
	activityHandler *handler.ActivityHandler,
	followupHandler *handler.FollowupHandler,
	userHandler *handler.UserHandler,
	reportHandler *handler.ReportHandler,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		authHandler:     authHandler,
		leadHandler:     leadHandler,
		activityHandler: activityHandler,
		followupHandler: followupHandler,
		userHandler:     userHandler,
		reportHandler:   reportHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		status := http.StatusOK
		overall := "healthy"
		if !allHealthy {
			status = http.StatusServiceUnavailable
			overall = "unhealthy"
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": overall,
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/auth/login", rt.authHandler.Login)
		r.Post("/auth/seed-admin", rt.authHandler.SeedAdmin)
		r.Post("/leads/public", rt.leadHandler.PublicCreate)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			r.Route("/leads", func(r chi.Router) {
				r.Get("/", rt.leadHandler.List)
				r.Get("/export/csv", rt.leadHandler.ExportCSV)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", rt.leadHandler.Get)
					r.Put("/", rt.leadHandler.Update)
					r.Delete("/", rt.leadHandler.Delete)

					r.Get("/activities", rt.activityHandler.List)
					r.Post("/activities", rt.activityHandler.Create)
					r.Post("/attachments", rt.activityHandler.UploadAttachment)

					r.Get("/followups", rt.followupHandler.List)
					r.Post("/followups", rt.followupHandler.Create)
					r.Patch("/followups/{fid}", rt.followupHandler.Update)
				})
			})

			r.Get("/attachments/*", rt.activityHandler.DownloadAttachment)

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", rt.userHandler.Me)
				r.Get("/performance", rt.userHandler.Performance)

				// Admin-only user management
				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireAdmin)
					r.Get("/", rt.userHandler.List)
					r.Post("/", rt.userHandler.Create)
					r.Put("/{id}", rt.userHandler.Update)
					r.Delete("/{id}", rt.userHandler.Delete)
				})
			})

			r.Get("/reports/summary", rt.reportHandler.Summary)
		})
	})

	return r
}
