package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/webqx/telehealth/internal/config"
	"github.com/webqx/telehealth/internal/domain/analytics"
	"github.com/webqx/telehealth/internal/domain/audit"
	"github.com/webqx/telehealth/internal/domain/entitlement"
	"github.com/webqx/telehealth/internal/domain/policy"
	"github.com/webqx/telehealth/internal/domain/session"
	"github.com/webqx/telehealth/internal/domain/tier"
	"github.com/webqx/telehealth/internal/platform/auth"
	"github.com/webqx/telehealth/internal/platform/db"
	"github.com/webqx/telehealth/internal/platform/middleware"
	"github.com/webqx/telehealth/internal/platform/video"
	"github.com/webqx/telehealth/internal/platform/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "telehealth-server",
		Short: "Telehealth session tier and signaling API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the telehealth API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// subscriptionClaimMiddleware copies the token's subscription tier onto the
// context key entitlement.ClaimSource reads from.
func subscriptionClaimMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if t := auth.SubscriptionTierFromContext(ctx); t != "" {
				c.SetRequest(c.Request().WithContext(entitlement.WithClaimTier(ctx, t)))
			}
			return next(c)
		}
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() && cfg.AuthSigningKey == "" {
		logger.Warn().Msg("running with development auth; all requests are admin")
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}
	e.Use(subscriptionClaimMiddleware())

	// API group
	api := e.Group("/telehealth")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Platform collaborators
	hub := ws.NewHub(logger)
	wsHandler := ws.NewHandler(hub)
	wsHandler.RegisterRoutes(api)

	entitlements := entitlement.NewService(entitlement.ClaimSource{}, logger)

	auditRepo := audit.NewRepoPG(pool)
	auditSvc := audit.NewService(auditRepo, logger)
	auditHandler := audit.NewHandler(auditSvc)
	auditHandler.RegisterRoutes(api)

	policyRepo := policy.NewRepoPG(pool)
	policySvc := policy.NewService(pool, policyRepo, entitlements, auditSvc, logger)
	policyHandler := policy.NewHandler(policySvc)
	policyHandler.RegisterRoutes(api)

	analyticsRepo := analytics.NewRepoPG(pool)
	analyticsSvc := analytics.NewService(analyticsRepo, logger)
	analyticsHandler := analytics.NewHandler(analyticsSvc)
	analyticsHandler.RegisterRoutes(api)

	var zoomClient video.PlatformClient
	if cfg.ZoomConfigured() {
		zoomClient = video.NewZoomClient(cfg.ZoomAPIKey, cfg.ZoomAPISecret, cfg.ZoomBaseURL, logger)
		logger.Info().Msg("managed video platform configured")
	} else {
		logger.Warn().Msg("no managed video platform credentials; zoom tier unavailable")
	}

	var prober *tier.Prober
	if cfg.BandwidthProbeURL != "" {
		prober = tier.NewProber(cfg.BandwidthProbeURL, cfg.BandwidthProbeTimeout, logger)
	}

	sessionRepo := session.NewRepoPG(pool)
	sessionSvc := session.NewService(session.Deps{
		Pool:         pool,
		Repo:         sessionRepo,
		Policies:     policySvc,
		Entitlements: entitlements,
		Recorder:     auditSvc,
		Analytics:    analyticsSvc,
		Prober:       prober,
		Zoom:         zoomClient,
		Jitsi:        video.NewJitsiBuilder(cfg.JitsiServerURL),
		ICE: video.ICEConfig{
			STUNServers: cfg.STUNServers,
			TURNServer:  cfg.TURNServer,
			TURNUser:    cfg.TURNUser,
			TURNSecret:  cfg.TURNSecret,
		},
		Hub:    hub,
		Logger: logger,
	})
	sessionHandler := session.NewHandler(sessionSvc)
	sessionHandler.RegisterRoutes(api)

	// Background sweep of sessions whose slot passed with nobody joining.
	sweepCtx, sweepCancel := context.WithCancel(ctx)
	defer sweepCancel()
	sessionSvc.StartSweeper(sweepCtx, cfg.SessionSweepInterval)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
