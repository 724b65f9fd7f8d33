package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindNotFound
	KindTimeout
	KindConnectionFailed
	KindHTTP
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	case KindConnectionFailed:
		return "connection_failed"
	case KindHTTP:
		return "http_error"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// APIError is the classified failure of a single provider call. It never
// carries retry state.
type APIError struct {
	Kind ErrorKind
	// Subject is the thing that was not found (the city name) for KindNotFound.
	Subject string
	// StatusCode is set for KindHTTP.
	StatusCode int
	Detail     string
	Err        error
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrUnauthorized      = &APIError{Kind: KindUnauthorized}
	ErrNotFound          = &APIError{Kind: KindNotFound}
	ErrTimeout           = &APIError{Kind: KindTimeout}
	ErrConnectionFailed  = &APIError{Kind: KindConnectionFailed}
	ErrHTTP              = &APIError{Kind: KindHTTP}
	ErrMalformedResponse = &APIError{Kind: KindMalformedResponse}
	ErrUnknown           = &APIError{Kind: KindUnknown}
)

func (e *APIError) Error() string {
	switch e.Kind {
	case KindUnauthorized:
		return "unauthorized: invalid api key"
	case KindNotFound:
		return fmt.Sprintf("not found: %q", e.Subject)
	case KindTimeout:
		return "request timed out"
	case KindConnectionFailed:
		if e.Err != nil {
			return fmt.Sprintf("connection failed: %v", e.Err)
		}
		return "connection failed"
	case KindHTTP:
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Detail)
	case KindMalformedResponse:
		return fmt.Sprintf("malformed response: %s", e.Detail)
	default:
		return fmt.Sprintf("unknown error: %s", e.Detail)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first APIError in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

func unauthorized() *APIError { return &APIError{Kind: KindUnauthorized} }

func notFound(subject string) *APIError {
	return &APIError{Kind: KindNotFound, Subject: subject}
}

func httpError(status int, detail string) *APIError {
	return &APIError{Kind: KindHTTP, StatusCode: status, Detail: detail}
}

func malformed(err error) *APIError {
	return &APIError{Kind: KindMalformedResponse, Detail: err.Error(), Err: err}
}

func unknown(err error) *APIError {
	return &APIError{Kind: KindUnknown, Detail: err.Error(), Err: err}
}

// classifyTransportError maps an error returned by HTTPClient.Do, where no
// response was received, onto the taxonomy.
func classifyTransportError(err error) *APIError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: KindTimeout, Detail: err.Error(), Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: KindTimeout, Detail: err.Error(), Err: err}
	}
	if isConnectError(err) {
		return &APIError{Kind: KindConnectionFailed, Detail: err.Error(), Err: err}
	}
	return unknown(err)
}

func isConnectError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}
