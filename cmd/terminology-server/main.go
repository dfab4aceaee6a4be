package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rr015/namaste-icd11-service/internal/config"
	"github.com/rr015/namaste-icd11-service/internal/domain/audit"
	"github.com/rr015/namaste-icd11-service/internal/domain/consent"
	"github.com/rr015/namaste-icd11-service/internal/domain/terminology"
	"github.com/rr015/namaste-icd11-service/internal/platform/auth"
	"github.com/rr015/namaste-icd11-service/internal/platform/cache"
	"github.com/rr015/namaste-icd11-service/internal/platform/ingest"
	"github.com/rr015/namaste-icd11-service/internal/platform/middleware"
	"github.com/rr015/namaste-icd11-service/internal/platform/who"
)

// devJWTSecret signs demo tokens when no JWT_SECRET is configured in
// development.
const devJWTSecret = "dev-only-terminology-secret"

func main() {
	rootCmd := &cobra.Command{
		Use:   "terminology-server",
		Short: "NAMASTE / ICD-11 terminology resolution API server",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the terminology API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
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

	// Datasets
	store := terminology.NewStore()

	// External terminology authority
	var external terminology.ExternalTerminology
	if cfg.WHOConfigured() {
		external = who.NewClient(who.Config{
			ClientID:     cfg.WHOClientID,
			ClientSecret: cfg.WHOClientSecret,
			TokenURL:     cfg.WHOTokenURL,
			BaseURL:      cfg.WHOAPIBaseURL,
			Release:      cfg.WHORelease,
		})
		logger.Info().Msg("WHO ICD-API client configured")
	} else {
		logger.Info().Msg("WHO ICD-API credentials not configured, serving demo datasets")
	}

	version, err := terminology.SeedDemoData(store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed demo datasets")
	}
	logger.Info().Str("version", version.Version).Msg("datasets loaded")

	// Search cache
	var searchCache terminology.SearchCache
	if cfg.RedisURL != "" {
		rc, err := cache.New(cfg.RedisURL, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, search cache disabled")
		} else {
			defer rc.Close()
			searchCache = rc
			logger.Info().Msg("redis search cache enabled")
		}
	}

	svc := terminology.NewService(store, external, searchCache)
	auditStore := audit.NewStore()
	consentStore := consent.NewStore()

	// Auth
	secret := cfg.JWTSecret
	if secret == "" {
		secret = devJWTSecret
	}
	issuer := auth.NewTokenIssuer([]byte(secret), time.Duration(cfg.TokenTTLMinute)*time.Minute)
	users := auth.NewDemoUserStore()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Public endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"version": store.CurrentVersion().Version,
			"counts":  store.Counts(),
		})
	})
	auth.NewHandler(users, issuer).RegisterRoutes(e)

	// Authenticated groups
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rateLimitCfg), auth.JWTMiddleware(issuer))
	fhirGroup := e.Group("/fhir", middleware.RateLimit(rateLimitCfg), auth.JWTMiddleware(issuer))

	terminology.NewHandler(svc, auditStore, consentStore, ingest.ParseSourceCSV).RegisterRoutes(apiV1, fhirGroup)
	audit.NewHandler(auditStore).RegisterRoutes(apiV1)
	consent.NewHandler(consentStore, auditStore).RegisterRoutes(apiV1)

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
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
