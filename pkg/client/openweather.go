package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-assistant/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultOpenWeatherURL = "http://api.openweathermap.org/data/2.5"
	// DefaultWeatherTimeout bounds UI latency for a weather lookup.
	DefaultWeatherTimeout = 10 * time.Second
)

// RawPayload is the provider's decoded JSON document, unmodified.
type RawPayload map[string]any

type OpenWeatherClient struct {
	*BaseClient
	baseURL string
}

func NewOpenWeatherClient(baseURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultWeatherTimeout
	}
	return &OpenWeatherClient{
		BaseClient: NewBaseClient("openweather", config, logger),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Fetch issues a single current-weather request for query.City. The city is
// passed through as given; callers trim it. On failure the error is an
// *APIError.
func (c *OpenWeatherClient) Fetch(ctx context.Context, query models.WeatherQuery, apiKey string) (RawPayload, error) {
	values := url.Values{}
	values.Set("q", query.City)
	values.Set("appid", apiKey)
	values.Set("units", string(query.Units.OrDefault()))

	u := fmt.Sprintf("%s/weather?%s", c.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, unknown(fmt.Errorf("creating request failed: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, apiErr := c.do(req)
	if apiErr != nil {
		return nil, apiErr
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, unauthorized()
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFound(query.City)
	case !isSuccess(resp.StatusCode):
		return nil, httpError(resp.StatusCode, errorDetail(resp))
	}

	payload, err := decodeObject(resp.Body)
	if err != nil {
		c.logger.Warn("Undecodable weather payload",
			zap.String("city", query.City),
			zap.Error(err))
		return nil, malformed(err)
	}
	return payload, nil
}

// errorDetail prefers the provider's "message" field, then the raw body, then
// the status reason.
func errorDetail(resp *response) string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(resp.Body, &body) == nil && body.Message != "" {
		return body.Message
	}
	if text := strings.TrimSpace(string(resp.Body)); text != "" {
		return text
	}
	if resp.Status != "" {
		return resp.Status
	}
	return http.StatusText(resp.StatusCode)
}

func decodeObject(body []byte) (RawPayload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty response body")
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", doc)
	}
	return RawPayload(obj), nil
}
