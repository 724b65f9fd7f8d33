package client

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const tracerName = "github.com/bobby-s-dev/weather-assistant/pkg/client"

// maxBodySize bounds how much of a provider response is read into memory.
const maxBodySize = 4 << 20

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type BaseClient struct {
	name   string
	client HTTPClient
	logger *zap.Logger
}

type ClientConfig struct {
	Timeout time.Duration
	// HTTPClient overrides the default *http.Client built from Timeout.
	HTTPClient HTTPClient
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BaseClient{
		name:   name,
		client: httpClient,
		logger: logger,
	}
}

// response is a fully read provider reply.
type response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// do performs exactly one request. A non-nil error means no usable response
// was received and is already classified.
func (c *BaseClient) do(req *http.Request) (*response, *APIError) {
	ctx, span := otel.Tracer(tracerName).Start(req.Context(), c.name+" "+req.Method)
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", c.name),
		attribute.String("http.method", req.Method),
		attribute.String("http.host", req.URL.Host),
	)

	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		apiErr := classifyTransportError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, apiErr.Kind.String())
		c.logger.Warn("HTTP request failed",
			zap.String("client", c.name),
			zap.String("kind", apiErr.Kind.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, apiErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		apiErr := classifyTransportError(fmt.Errorf("reading response body: %w", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, apiErr.Kind.String())
		return nil, apiErr
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}

	c.logger.Debug("Request completed",
		zap.String("client", c.name),
		zap.Int("status", resp.StatusCode),
		zap.Int("body_size", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	return &response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
