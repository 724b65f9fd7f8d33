package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorMatchesSentinelsByKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", notFound("Atlantis"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, KindNotFound, KindOf(err))

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Atlantis", apiErr.Subject)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "unauthorized", KindUnauthorized.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "connection_failed", KindConnectionFailed.String())
	assert.Equal(t, "http_error", KindHTTP.String())
	assert.Equal(t, "malformed_response", KindMalformedResponse.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", &url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded}, KindTimeout},
		{"dns", &url.Error{Op: "Get", URL: "http://x", Err: &net.DNSError{Err: "no such host", Name: "x"}}, KindConnectionFailed},
		{"dial refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, KindConnectionFailed},
		{"unreachable", fmt.Errorf("write: %w", syscall.ENETUNREACH), KindConnectionFailed},
		{"canceled", context.Canceled, KindUnknown},
		{"other", errors.New("stream reset"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, classifyTransportError(tt.err).Kind)
		})
	}
}

func TestAPIErrorMessages(t *testing.T) {
	assert.Equal(t, "http 503: maintenance", httpError(503, "maintenance").Error())
	assert.Equal(t, "unauthorized: invalid api key", unauthorized().Error())
	assert.Equal(t, "malformed response: bad", malformed(errors.New("bad")).Error())
}
