package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-assistant/internal/config"
	"github.com/bobby-s-dev/weather-assistant/internal/models"
	"github.com/bobby-s-dev/weather-assistant/pkg/client"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	ErrWeatherNotConfigured = errors.New("openweather api key is not configured")
	ErrLLMNotConfigured     = errors.New("google api key is not configured")
	ErrUpstreamUnavailable  = errors.New("upstream service temporarily unavailable")
	ErrEmptyCity            = errors.New("city name is empty")
	ErrEmptyPrompt          = errors.New("prompt is empty")
)

type WeatherFetcher interface {
	Fetch(ctx context.Context, query models.WeatherQuery, apiKey string) (client.RawPayload, error)
}

type Answerer interface {
	Ask(ctx context.Context, query models.LLMQuery, apiKey string) (models.LLMAnswer, error)
}

// Assistant is the host side of both features: it owns the keys, refuses to
// call a provider whose key is a placeholder, and runs each user action as a
// single synchronous client call.
type Assistant struct {
	cfg            *config.Config
	weather        WeatherFetcher
	parser         *client.SnapshotParser
	llm            Answerer
	weatherBreaker *gobreaker.CircuitBreaker
	llmBreaker     *gobreaker.CircuitBreaker
	logger         *zap.Logger

	mu           sync.RWMutex
	lastCallTime time.Time
	lastCallID   string
	stats        map[string]*callStats
}

type callIDKey struct{}

// WithCallID tags ctx with the id used to correlate a call's log lines,
// typically the HTTP request id.
func WithCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callIDKey{}, id)
}

// callIDFrom returns the id set by WithCallID, or a fresh uuid.
func callIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(callIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

type callStats struct {
	Success  int            `json:"success"`
	Failures map[string]int `json:"failures"`
}

func NewAssistant(cfg *config.Config, weather WeatherFetcher, llm Answerer, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		cfg:            cfg,
		weather:        weather,
		parser:         client.NewSnapshotParser(cfg.WeatherAPI.IconBaseURL),
		llm:            llm,
		weatherBreaker: newBreaker("openweather", cfg, logger),
		llmBreaker:     newBreaker("gemini", cfg, logger),
		logger:         logger,
		stats: map[string]*callStats{
			"weather": {Failures: map[string]int{}},
			"llm":     {Failures: map[string]int{}},
		},
	}
}

// newBreaker returns nil when the threshold is not positive, which disables it.
func newBreaker(name string, cfg *config.Config, logger *zap.Logger) *gobreaker.CircuitBreaker {
	threshold := cfg.CircuitBreaker.Threshold
	if threshold <= 0 {
		return nil
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

func (a *Assistant) WeatherConfigured() bool { return a.cfg.WeatherKeyConfigured() }

func (a *Assistant) LLMConfigured() bool { return a.cfg.LLMKeyConfigured() }

// CurrentWeather fetches and parses the weather for query. Provider failures
// come back as *client.APIError; parsing never fails.
func (a *Assistant) CurrentWeather(ctx context.Context, query models.WeatherQuery) (models.WeatherSnapshot, error) {
	query = models.NewWeatherQuery(query.City, query.Units)
	if query.City == "" {
		return models.WeatherSnapshot{}, ErrEmptyCity
	}
	if !a.WeatherConfigured() {
		return models.WeatherSnapshot{}, ErrWeatherNotConfigured
	}

	callID := callIDFrom(ctx)
	start := time.Now()
	a.logger.Info("Fetching current weather",
		zap.String("call_id", callID),
		zap.String("city", query.City),
		zap.String("units", string(query.Units)))

	result, err := a.guard(a.weatherBreaker, weatherTrips, func() (any, error) {
		return a.weather.Fetch(ctx, query, a.cfg.WeatherAPI.OpenWeatherAPIKey)
	})
	if err != nil {
		a.recordFailure("weather", callID, err)
		a.logger.Error("Failed to get current weather",
			zap.String("call_id", callID),
			zap.String("city", query.City),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return models.WeatherSnapshot{}, err
	}

	raw, _ := result.(client.RawPayload)
	snapshot := a.parser.Parse(raw, query.City)
	a.recordSuccess("weather", callID)
	a.logger.Info("Current weather fetched",
		zap.String("call_id", callID),
		zap.String("resolved_city", snapshot.ResolvedCity),
		zap.Duration("duration", time.Since(start)))

	return snapshot, nil
}

// Ask forwards the prompt to the language model.
func (a *Assistant) Ask(ctx context.Context, query models.LLMQuery) (models.LLMAnswer, error) {
	if strings.TrimSpace(query.Prompt) == "" {
		return models.LLMAnswer{}, ErrEmptyPrompt
	}
	if !a.LLMConfigured() {
		return models.LLMAnswer{}, ErrLLMNotConfigured
	}

	callID := callIDFrom(ctx)
	start := time.Now()
	a.logger.Info("Asking language model",
		zap.String("call_id", callID),
		zap.Int("prompt_chars", len(query.Prompt)))

	result, err := a.guard(a.llmBreaker, func(error) bool { return true }, func() (any, error) {
		return a.llm.Ask(ctx, query, a.cfg.LLM.GoogleAPIKey)
	})
	if err != nil {
		a.recordFailure("llm", callID, err)
		a.logger.Error("Language model call failed",
			zap.String("call_id", callID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return models.LLMAnswer{}, err
	}

	answer, _ := result.(models.LLMAnswer)
	a.recordSuccess("llm", callID)
	a.logger.Info("Language model answered",
		zap.String("call_id", callID),
		zap.Int("answer_chars", len(answer.Text)),
		zap.Duration("duration", time.Since(start)))

	return answer, nil
}

// outcome carries a call result through the breaker when the error must not
// count against the upstream.
type outcome struct {
	value any
	err   error
}

// guard runs call through cb. Errors for which trips returns true count as
// breaker failures; the rest pass through without affecting its state.
func (a *Assistant) guard(cb *gobreaker.CircuitBreaker, trips func(error) bool, call func() (any, error)) (any, error) {
	if cb == nil {
		return call()
	}

	res, err := cb.Execute(func() (interface{}, error) {
		value, err := call()
		if err != nil && trips(err) {
			return nil, err
		}
		return outcome{value: value, err: err}, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if err != nil {
		return nil, err
	}

	out := res.(outcome)
	if out.err != nil {
		return nil, out.err
	}
	return out.value, nil
}

// weatherTrips reports whether err says the weather provider itself is
// unavailable, as opposed to a bad key or an unknown city.
func weatherTrips(err error) bool {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Kind {
	case client.KindTimeout, client.KindConnectionFailed:
		return true
	case client.KindHTTP:
		return apiErr.StatusCode >= http.StatusInternalServerError || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

func (a *Assistant) recordSuccess(feature, callID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastCallTime = time.Now()
	a.lastCallID = callID
	a.stats[feature].Success++
}

func (a *Assistant) recordFailure(feature, callID string, err error) {
	kind := client.KindOf(err).String()
	if errors.Is(err, ErrUpstreamUnavailable) {
		kind = "circuit_open"
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastCallTime = time.Now()
	a.lastCallID = callID
	a.stats[feature].Failures[kind]++
}

func (a *Assistant) GetLastCallTime() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastCallTime
}

func (a *Assistant) GetStats() map[string]interface{} {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snapshot := make(map[string]callStats, len(a.stats))
	for feature, s := range a.stats {
		failures := make(map[string]int, len(s.Failures))
		for kind, n := range s.Failures {
			failures[kind] = n
		}
		snapshot[feature] = callStats{Success: s.Success, Failures: failures}
	}

	stats := map[string]interface{}{
		"last_call_time":     a.lastCallTime,
		"last_call_id":       a.lastCallID,
		"calls":              snapshot,
		"weather_configured": a.cfg.WeatherKeyConfigured(),
		"llm_configured":     a.cfg.LLMKeyConfigured(),
	}
	if a.weatherBreaker != nil {
		stats["weather_breaker"] = a.weatherBreaker.State().String()
	}
	if a.llmBreaker != nil {
		stats["llm_breaker"] = a.llmBreaker.State().String()
	}
	return stats
}
