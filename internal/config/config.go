package config

import (
	"os"
	"strconv"
	"time"

	"github.com/bobby-s-dev/weather-assistant/internal/models"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	OpenWeatherKeyPlaceholder = "YOUR_OPENWEATHER_API_KEY_PLACEHOLDER"
	GoogleKeyPlaceholder      = "YOUR_GOOGLE_API_KEY_PLACEHOLDER"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	WeatherAPI struct {
		OpenWeatherAPIKey string
		BaseURL           string
		IconBaseURL       string
		Timeout           time.Duration
		Units             string
	}

	LLM struct {
		GoogleAPIKey string
		BaseURL      string
		Model        string
		Timeout      time.Duration
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Tracing struct {
		ZipkinURL   string
		ServiceName string
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "75s"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	// Missing keys fall back to placeholders, the same way a secrets store
	// lookup with a default does.
	cfg.WeatherAPI.OpenWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", OpenWeatherKeyPlaceholder)
	cfg.WeatherAPI.BaseURL = getEnv("OPENWEATHER_BASE_URL", "http://api.openweathermap.org/data/2.5")
	cfg.WeatherAPI.IconBaseURL = getEnv("OPENWEATHER_ICON_BASE_URL", "http://openweathermap.org/img/wn")
	cfg.WeatherAPI.Timeout = parseDuration(getEnv("OPENWEATHER_TIMEOUT", "10s"))
	cfg.WeatherAPI.Units = getEnv("OPENWEATHER_UNITS", "metric")
	if !models.Units(cfg.WeatherAPI.Units).Valid() {
		zap.L().Warn("Unsupported units, using metric", zap.String("value", cfg.WeatherAPI.Units))
		cfg.WeatherAPI.Units = string(models.UnitsMetric)
	}

	cfg.LLM.GoogleAPIKey = getEnv("GOOGLE_API_KEY", GoogleKeyPlaceholder)
	cfg.LLM.BaseURL = getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	cfg.LLM.Model = getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest")
	cfg.LLM.Timeout = parseDuration(getEnv("GEMINI_TIMEOUT", "60s"))

	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "5"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	cfg.Tracing.ZipkinURL = getEnv("ZIPKIN_URL", "")
	cfg.Tracing.ServiceName = getEnv("SERVICE_NAME", "weather-assistant")

	return cfg, nil
}

// WeatherKeyConfigured reports whether a real OpenWeatherMap key was supplied.
func (c *Config) WeatherKeyConfigured() bool {
	return keyConfigured(c.WeatherAPI.OpenWeatherAPIKey, OpenWeatherKeyPlaceholder)
}

// LLMKeyConfigured reports whether a real Google API key was supplied.
func (c *Config) LLMKeyConfigured() bool {
	return keyConfigured(c.LLM.GoogleAPIKey, GoogleKeyPlaceholder)
}

func keyConfigured(key, placeholder string) bool {
	return key != "" && key != placeholder
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}
