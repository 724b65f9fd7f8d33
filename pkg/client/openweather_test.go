package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-assistant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const londonPayload = `{"name":"London","sys":{"country":"GB"},"main":{"temp":15.2,"feels_like":14.0,"humidity":70},` +
	`"weather":[{"description":"cloudy","icon":"04d"}],"wind":{"speed":3.1}}`

func newWeatherServer(t *testing.T, handler http.HandlerFunc) *OpenWeatherClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenWeatherClient(srv.URL, ClientConfig{Timeout: time.Second}, zap.NewNop())
}

type stubHTTPClient struct {
	err   error
	calls int
}

func (s *stubHTTPClient) Do(*http.Request) (*http.Response, error) {
	s.calls++
	return nil, s.err
}

func TestOpenWeatherFetchSendsQueryParameters(t *testing.T) {
	var got *http.Request
	c := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(londonPayload))
	})

	payload, err := c.Fetch(context.Background(), models.WeatherQuery{City: "New York", Units: models.UnitsImperial}, "secret")
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/weather", got.URL.Path)
	assert.Equal(t, "New York", got.URL.Query().Get("q"))
	assert.Equal(t, "secret", got.URL.Query().Get("appid"))
	assert.Equal(t, "imperial", got.URL.Query().Get("units"))

	assert.Equal(t, "London", payload["name"])
	assert.Equal(t, map[string]any{"country": "GB"}, payload["sys"])
}

func TestOpenWeatherFetchDefaultsToMetric(t *testing.T) {
	var units string
	c := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		units = r.URL.Query().Get("units")
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Fetch(context.Background(), models.WeatherQuery{City: "Paris"}, "k")
	require.NoError(t, err)
	assert.Equal(t, "metric", units)
}

func TestOpenWeatherFetchClassifiesStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
		check  func(t *testing.T, apiErr *APIError)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"cod":401,"message":"Invalid API key"}`,
			kind:   KindUnauthorized,
		},
		{
			name:   "not found carries the city",
			status: http.StatusNotFound,
			body:   `{"cod":"404","message":"city not found"}`,
			kind:   KindNotFound,
			check: func(t *testing.T, apiErr *APIError) {
				assert.Equal(t, "Atlantis", apiErr.Subject)
			},
		},
		{
			name:   "server error uses provider message",
			status: http.StatusInternalServerError,
			body:   `{"cod":500,"message":"internal failure"}`,
			kind:   KindHTTP,
			check: func(t *testing.T, apiErr *APIError) {
				assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
				assert.Equal(t, "internal failure", apiErr.Detail)
			},
		},
		{
			name:   "rate limited with plain body",
			status: http.StatusTooManyRequests,
			body:   "slow down",
			kind:   KindHTTP,
			check: func(t *testing.T, apiErr *APIError) {
				assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
				assert.Equal(t, "slow down", apiErr.Detail)
			},
		},
		{
			name:   "empty body falls back to reason",
			status: http.StatusBadGateway,
			kind:   KindHTTP,
			check: func(t *testing.T, apiErr *APIError) {
				assert.Equal(t, "502 Bad Gateway", apiErr.Detail)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			payload, err := c.Fetch(context.Background(), models.WeatherQuery{City: "Atlantis"}, "k")
			require.Error(t, err)
			assert.Nil(t, payload)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.kind, apiErr.Kind)
			if tt.check != nil {
				tt.check(t, apiErr)
			}
		})
	}
}

func TestOpenWeatherFetchNotFoundScenario(t *testing.T) {
	c := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Fetch(context.Background(), models.WeatherQuery{City: "Atlantis"}, "k")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, `not found: "Atlantis"`, err.Error())
}

func TestOpenWeatherFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := NewOpenWeatherClient(srv.URL, ClientConfig{Timeout: 50 * time.Millisecond}, zap.NewNop())

	_, err := c.Fetch(context.Background(), models.WeatherQuery{City: "Slowtown"}, "k")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOpenWeatherFetchConnectionFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := NewOpenWeatherClient(addr, ClientConfig{Timeout: time.Second}, zap.NewNop())

	_, err := c.Fetch(context.Background(), models.WeatherQuery{City: "London"}, "k")
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestOpenWeatherFetchUnknownTransportError(t *testing.T) {
	stub := &stubHTTPClient{err: errors.New("tls: handshake failure")}
	c := NewOpenWeatherClient("http://example.invalid", ClientConfig{HTTPClient: stub}, zap.NewNop())

	_, err := c.Fetch(context.Background(), models.WeatherQuery{City: "London"}, "k")

	assert.ErrorIs(t, err, ErrUnknown)
	assert.Equal(t, 1, stub.calls, "exactly one outbound call")
}

func TestOpenWeatherFetchMalformedBody(t *testing.T) {
	for name, body := range map[string]string{
		"not json":  "<html>oops</html>",
		"array":     `[1,2,3]`,
		"empty":     "",
		"json null": "null",
		"truncated": `{"name":"Lon`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			payload, err := c.Fetch(context.Background(), models.WeatherQuery{City: "London"}, "k")
			assert.Nil(t, payload)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}
