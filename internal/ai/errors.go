package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a transport failure.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport" // request could not be sent or read
	KindStatus    ErrorKind = "status"    // upstream answered with a non-2xx status
	KindDecode    ErrorKind = "decode"    // body was not the expected JSON
	KindEmpty     ErrorKind = "empty"     // well-formed body without content
	KindTimeout   ErrorKind = "timeout"
	KindCanceled  ErrorKind = "canceled"
	KindUnknown   ErrorKind = "unknown"
)

// APIError is returned by every transport in this package.
type APIError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Body       string
	Cause      error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Body)
	case e.Cause != nil:
		return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Cause)
	default:
		return fmt.Sprintf("%s %s error", e.Provider, e.Kind)
	}
}

func (e *APIError) Unwrap() error { return e.Cause }

// KindOf reports the failure kind of err. Context and network timeouts are
// recognised even when they were not wrapped in an APIError.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

func transportError(provider string, err error) *APIError {
	kind := KindOf(err)
	if kind == KindUnknown {
		kind = KindTransport
	}
	return &APIError{Provider: provider, Kind: kind, Cause: err}
}

func statusError(provider string, status int, body []byte) *APIError {
	return &APIError{Provider: provider, Kind: KindStatus, StatusCode: status, Body: string(body)}
}

func decodeError(provider string, err error) *APIError {
	return &APIError{Provider: provider, Kind: KindDecode, Cause: err}
}

func emptyError(provider, what string) *APIError {
	return &APIError{Provider: provider, Kind: KindEmpty, Cause: errors.New(what)}
}
