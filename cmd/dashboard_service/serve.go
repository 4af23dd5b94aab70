package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridloal/product-dashboard/internal/dashboard/api"
	"github.com/ridloal/product-dashboard/internal/dashboard/service"
	"github.com/ridloal/product-dashboard/internal/notification"
	"github.com/ridloal/product-dashboard/internal/platform/config"
	"github.com/ridloal/product-dashboard/internal/platform/logger"
	"github.com/ridloal/product-dashboard/internal/platform/metrics"
	"github.com/ridloal/product-dashboard/internal/platform/middleware"
	"github.com/ridloal/product-dashboard/internal/product/repository"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 10 * time.Second

// bindFlags lets command-line flags override the environment.
func bindFlags(fs *pflag.FlagSet, cfg *config.DashboardConfig) {
	fs.StringVarP(&cfg.Server.Port, "addr", "a", cfg.Server.Port, "listen address")
	fs.DurationVar(&cfg.StoreLatency, "latency", cfg.StoreLatency, "simulated store latency")
	fs.DurationVar(&cfg.NotificationTimeout, "notification-timeout", cfg.NotificationTimeout, "auto-dismiss delay, 0 keeps notifications")
	fs.StringVarP(&cfg.Permissions, "permissions", "p", cfg.Permissions, "granted capabilities, e.g. CREATE,READ")
	fs.StringVar(&cfg.PermissionsURL, "permissions-url", cfg.PermissionsURL, "remote permissions endpoint")
	fs.StringVarP(&cfg.SeedFile, "seed-file", "s", cfg.SeedFile, "YAML seed file")
	fs.StringVar(&cfg.SeedDB.DSN, "seed-dsn", cfg.SeedDB.DSN, "Postgres DSN to read seed products from")
	fs.StringVar(&cfg.AuditSchedule, "audit-schedule", cfg.AuditSchedule, "cron schedule of the consistency audit, empty disables it")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
}

func newServeCmd() *cobra.Command {
	cfg := config.LoadDashboardConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	bindFlags(cmd.Flags(), &cfg)
	return cmd
}

func serve(ctx context.Context, cfg config.DashboardConfig) error {
	logger.SetLevel(cfg.LogLevel)
	logger.Info("Starting Dashboard Service...")

	seed, closeSeed, err := seedSource(ctx, cfg)
	if err != nil {
		logger.Error("Failed to set up seed source", err, nil)
		return err
	}
	defer closeSeed()

	perms, err := permissionSource(cfg)
	if err != nil {
		logger.Error("Failed to set up permission source", err, nil)
		return err
	}

	// Setup Dependencies
	metrics.Init()
	notifier := notification.NewChannel(cfg.NotificationTimeout)
	defer notifier.Stop()
	store := repository.NewMemoryProductRepository(
		repository.WithLatency(cfg.StoreLatency),
		repository.WithSeed(seed),
	)
	dashboardService := service.NewDashboardService(store, perms, notifier)
	dashboardHandler := api.NewDashboardHandler(dashboardService)

	if err := dashboardService.Mount(ctx); err != nil {
		// Dashboard tetap jalan, error sudah tampil sebagai notifikasi
		logger.Error("Initial mount failed", err, nil)
	}

	if cfg.AuditSchedule != "" {
		auditScheduler, err := service.StartAuditScheduler(dashboardService, cfg.AuditSchedule)
		if err != nil {
			logger.Error("Failed to start audit scheduler", err, nil)
			return err
		}
		defer auditScheduler.Stop()
	}

	// Setup Gin Router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	router.RedirectTrailingSlash = false
	if err := api.LoadTemplates(router); err != nil {
		logger.Error("Failed to load templates", err, nil)
		return err
	}
	dashboardHandler.RegisterPages(router)
	dashboardHandler.RegisterRoutes(router.Group("/api/v1"))
	api.RegisterOps(router)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Dashboard Service running on port " + cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case err := <-errCh:
		logger.Error("Failed to run Dashboard Service server", err, nil)
		return err
	case s := <-sigc:
		logger.Info("Shutdown signal received: " + s.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Dashboard Service shutdown failed", err, nil)
		return err
	}
	logger.Info("Dashboard Service stopped")
	return nil
}
