package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acs-energy/crm-api/docs"
	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/config"
	"github.com/acs-energy/crm-api/internal/database"
	"github.com/acs-energy/crm-api/internal/http/handler"
	"github.com/acs-energy/crm-api/internal/http/middleware"
	"github.com/acs-energy/crm-api/internal/http/router"
	"github.com/acs-energy/crm-api/internal/jobs"
	"github.com/acs-energy/crm-api/internal/logger"
	"github.com/acs-energy/crm-api/internal/repository"
	"github.com/acs-energy/crm-api/internal/service"
	"github.com/acs-energy/crm-api/internal/storage"
	"go.uber.org/zap"
)

// @title ACS Energy CRM API
// @version 1.0
// @description Sales CRM API for EV charger installation leads: intake, pipeline, follow-ups, and reporting
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@acs-energy.in

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch cfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "crm-staging.acs-energy.in"
	case "production":
		docs.SwaggerInfo.Host = "crm-api.acs-energy.in"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.App.Port)
	}

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize storage for activity attachments
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	followupRepo := repository.NewFollowupRepository(db)

	// Initialize services
	tokenIssuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	assignmentService := service.NewAssignmentService(leadRepo, userRepo, log)
	incentiveService := service.NewIncentiveService(leadRepo, userRepo, log)
	leadService := service.NewLeadService(leadRepo, activityRepo, followupRepo, assignmentService, incentiveService, cfg.Intake.DefaultPhoneRegion, log)
	activityService := service.NewActivityService(activityRepo, leadService, log)
	followupService := service.NewFollowupService(followupRepo, leadRepo, leadService, log)
	reminderService := service.NewReminderService(followupRepo, leadRepo, activityRepo, log)
	reportService := service.NewReportService(leadRepo, log)
	userService := service.NewUserService(userRepo, leadRepo, incentiveService, log)
	authService := service.NewAuthService(userRepo, tokenIssuer, log)

	// Seed initial admin from environment if configured.
	// Refused once an active admin exists, so this is safe on every boot.
	if cfg.Auth.SeedAdminEmail != "" && cfg.Auth.SeedAdminPassword != "" {
		name := cfg.Auth.SeedAdminName
		if name == "" {
			name = "Administrator"
		}
		if _, err := authService.SeedAdmin(ctx, name, cfg.Auth.SeedAdminEmail, cfg.Auth.SeedAdminPassword); err != nil {
			if errors.Is(err, service.ErrAdminExists) {
				log.Debug("Admin already seeded, skipping")
			} else {
				log.Warn("Failed to seed admin user", zap.Error(err))
			}
		} else {
			log.Info("Seeded initial admin user", zap.String("email", cfg.Auth.SeedAdminEmail))
		}
	}

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(tokenIssuer, userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, log)
	leadHandler := handler.NewLeadHandler(leadService, log)
	activityHandler := handler.NewActivityHandler(activityService, fileStorage, &cfg.Storage, log)
	followupHandler := handler.NewFollowupHandler(followupService, log)
	userHandler := handler.NewUserHandler(userService, log)
	reportHandler := handler.NewReportHandler(reportService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		leadHandler,
		activityHandler,
		followupHandler,
		userHandler,
		reportHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		if err := jobs.RegisterReminderJob(scheduler, reminderService, log, cfg.Jobs.ReminderCron); err != nil {
			log.Error("Failed to register reminder job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with follow-up reminder job",
				zap.String("cron_expr", cfg.Jobs.ReminderCron),
			)
		}
	} else {
		log.Info("Background jobs disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
