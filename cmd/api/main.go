// Package main provides the entrypoint for the AirChat API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airchat/airchat/internal/airquality"
	"github.com/airchat/airchat/internal/airquality/openaq"
	"github.com/airchat/airchat/internal/api"
	"github.com/airchat/airchat/internal/api/handler"
	"github.com/airchat/airchat/internal/api/middleware"
	"github.com/airchat/airchat/internal/assist"
	"github.com/airchat/airchat/internal/database"
	"github.com/airchat/airchat/internal/geocode/nominatim"
	"github.com/airchat/airchat/internal/history"
	"github.com/airchat/airchat/internal/provider/resilience"
	"github.com/airchat/airchat/internal/telemetry"
	"github.com/airchat/airchat/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airchat-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirChat API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryConfig := telemetry.ConfigFromEnv(serviceName)
	telemetryConfig.ServiceVersion = Version

	tp, err := telemetry.Init(ctx, telemetryConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryConfig.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryConfig.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database. Persistence is optional: without it the service
	// keeps hourly history in memory and NowCast windows reset on restart.
	var (
		readings airquality.History
		dbPinger handler.Pinger
	)
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, keeping history in memory")
		readings = history.NewInMemoryRepository()
	} else {
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		readings = history.NewPostgresRepository(pool)
		dbPinger = pool
	}

	// Resilient provider clients, registered for /v1/ops/status reporting.
	registry := resilience.NewRegistry()

	openaqHTTP := resilience.NewClient(resilience.ClientConfig{Name: openaq.ProviderName})
	registry.Register(openaqHTTP)

	provider := openaq.NewClient(openaq.ClientConfig{
		APIKey:     os.Getenv("OPENAQ_API_KEY"),
		HTTPClient: openaqHTTP,
	})

	providerMetrics, err := middleware.NewProviderMetrics(openaq.ProviderName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}

	airQualityService := airquality.NewService(airquality.ServiceConfig{
		Provider: provider,
		History:  readings,
		Metrics:  providerMetrics,
		Logger:   log,
	})
	log.Info().Msg("air quality service initialized")

	nominatimHTTP := resilience.NewClient(resilience.ClientConfig{Name: "nominatim"})
	registry.Register(nominatimHTTP)
	geocoder := nominatim.NewClient(nominatim.ClientConfig{HTTPClient: nominatimHTTP})

	assistConfig := assist.ServiceConfig{
		AirQuality: airQualityService,
		Geocoder:   geocoder,
		Logger:     log,
	}

	if apiKey := os.Getenv("OPENWEATHERMAP_API_KEY"); apiKey != "" {
		weatherHTTP := resilience.NewClient(resilience.ClientConfig{Name: openweathermap.ProviderName})
		registry.Register(weatherHTTP)
		assistConfig.Weather = openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:     apiKey,
			HTTPClient: weatherHTTP,
		})
		log.Info().Msg("weather context enabled")
	} else {
		log.Warn().Msg("OPENWEATHERMAP_API_KEY not set - answers omit weather context")
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		narrator, err := assist.NewOpenAINarrator(apiKey, os.Getenv("OPENAI_MODEL"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize narrator")
		}
		assistConfig.Narrator = narrator
		log.Info().Msg("LLM narration enabled")
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set - answers use the report template")
	}

	assistService := assist.NewService(assistConfig)
	log.Info().Msg("assist service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		ServiceName:       serviceName,
		Metrics:           metrics,
		AirQualityService: airQualityService,
		AssistService:     assistService,
		Registry:          registry,
		DB:                dbPinger,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
