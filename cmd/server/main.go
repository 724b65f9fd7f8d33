package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/weather-assistant/internal/api"
	"github.com/bobby-s-dev/weather-assistant/internal/config"
	"github.com/bobby-s-dev/weather-assistant/internal/services"
	"github.com/bobby-s-dev/weather-assistant/pkg/client"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	zap.ReplaceGlobals(logger)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger = newLogger(cfg.Server.LogLevel, logger)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	logger.Info("Starting Weather Assistant Service")

	if !cfg.WeatherKeyConfigured() {
		logger.Warn("OpenWeatherMap API key not configured, weather lookups are disabled")
	}
	if !cfg.LLMKeyConfigured() {
		logger.Warn("Google API key not configured, LLM questions are disabled")
	}

	shutdownTracing := setupTracing(cfg, logger)

	weatherClient := client.NewOpenWeatherClient(
		cfg.WeatherAPI.BaseURL,
		client.ClientConfig{Timeout: cfg.WeatherAPI.Timeout},
		logger,
	)
	llmClient := client.NewGeminiClient(
		cfg.LLM.BaseURL,
		cfg.LLM.Model,
		client.ClientConfig{Timeout: cfg.LLM.Timeout},
		logger,
	)
	assistant := services.NewAssistant(cfg, weatherClient, llmClient, logger)

	app := newApp(cfg, assistant, logger)

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Tracer shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

// newApp builds the Fiber app with routes and the JSON error handler.
func newApp(cfg *config.Config, assistant *services.Assistant, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "weather-assistant",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: errorHandler,
	})

	handler := api.NewHandler(assistant, cfg, logger)
	api.SetupRoutes(app, handler, logger)
	return app
}

func newLogger(level string, fallback *zap.Logger) *zap.Logger {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		fallback.Warn("Invalid log level, keeping info", zap.String("level", level), zap.Error(err))
		return fallback
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = atomicLevel
	logger, err := zapCfg.Build()
	if err != nil {
		fallback.Warn("Failed to build logger", zap.Error(err))
		return fallback
	}
	return logger
}

// setupTracing exports client spans to Zipkin when ZIPKIN_URL is set. Without
// it the global no-op tracer stays in place.
func setupTracing(cfg *config.Config, logger *zap.Logger) func(context.Context) error {
	if cfg.Tracing.ZipkinURL == "" {
		return func(context.Context) error { return nil }
	}

	exporter, err := zipkin.New(cfg.Tracing.ZipkinURL)
	if err != nil {
		logger.Error("Failed to create Zipkin exporter, tracing disabled", zap.Error(err))
		return func(context.Context) error { return nil }
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.Tracing.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info("Tracing enabled", zap.String("zipkin_url", cfg.Tracing.ZipkinURL))
	return tp.Shutdown
}

func errorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
