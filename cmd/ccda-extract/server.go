package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/ccdaextract/internal/config"
	"github.com/ehr/ccdaextract/internal/extraction"
	"github.com/ehr/ccdaextract/internal/platform/auth"
	"github.com/ehr/ccdaextract/internal/platform/ccda"
	"github.com/ehr/ccdaextract/internal/platform/db"
	"github.com/ehr/ccdaextract/internal/platform/middleware"
	"github.com/ehr/ccdaextract/internal/platform/openapi"
	"github.com/ehr/ccdaextract/internal/platform/telemetry"
)

const version = "0.1.0"

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	var pool *pgxpool.Pool
	runs := extraction.NewRunRepoMemory()
	if cfg.HasDatabase() {
		pool, err = db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		runs = extraction.NewRunRepoPG(pool)
		logger.Info().Msg("connected to database")
	} else {
		logger.Warn().Msg("DATABASE_URL not set; extraction runs are kept in memory")
	}

	e := newServer(cfg, logger, runs)
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("auth_mode", cfg.ResolvedAuthMode()).Msg("starting server")
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

// newServer builds the echo instance with middleware and routes. It does not
// touch the network.
func newServer(cfg *config.Config, logger zerolog.Logger, runs extraction.RunRepository) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := telemetry.NewMetrics()

	e.Use(middleware.Recovery(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	if cfg.ResolvedAuthMode() == "development" {
		e.Use(auth.DevAuthMiddleware())
	} else {
		var signingKey []byte
		if cfg.AuthSigningKey != "" {
			signingKey = []byte(cfg.AuthSigningKey)
		}
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: signingKey,
			Skipper:    auth.AuthSkipper,
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	e.GET("/metrics", metrics.Handler())

	rateLimit := middleware.RateLimitConfig{RequestsPerSecond: cfg.RateLimitRPS, BurstSize: cfg.RateLimitBurst}
	if rateLimit.RequestsPerSecond <= 0 || rateLimit.BurstSize <= 0 {
		rateLimit = middleware.DefaultRateLimitConfig()
	}

	apiV1 := e.Group("/api/v1",
		middleware.RateLimit(rateLimit),
		middleware.BodyLimit(cfg.MaxDocumentSize),
		middleware.RequestTimeout(cfg.RequestTimeout),
	)

	var opts []ccda.Option
	if cfg.ConcurrentExtraction {
		opts = append(opts, ccda.WithConcurrentExtraction())
	}
	engine := ccda.NewEngine(opts...)

	openapi.NewGenerator(version, "/api/v1").RegisterRoutes(apiV1)
	ccda.NewHandler(engine).RegisterRoutes(apiV1)
	extraction.NewHandler(extraction.NewService(runs, engine, logger).WithObserver(metrics)).RegisterRoutes(apiV1)

	return e
}
