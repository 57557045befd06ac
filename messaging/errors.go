// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// API error codes returned in the {code, message} error envelope.
const (
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeForbidden          = "forbidden"
	ErrCodeNotFound           = "not_found"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeInvalidRequest     = "invalid_request"
	ErrCodeValidation         = "validation_error"
	ErrCodeConflict           = "conflict_error"
	ErrCodeAccountExpired     = "account_expired"
	ErrCodeInternalServer     = "internal_server_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeGatewayTimeout     = "gateway_timeout"
)

var knownErrorCodes = map[string]struct{}{
	ErrCodeUnauthorized:       {},
	ErrCodeForbidden:          {},
	ErrCodeNotFound:           {},
	ErrCodeRateLimited:        {},
	ErrCodeInvalidRequest:     {},
	ErrCodeValidation:         {},
	ErrCodeConflict:           {},
	ErrCodeAccountExpired:     {},
	ErrCodeInternalServer:     {},
	ErrCodeServiceUnavailable: {},
	ErrCodeGatewayTimeout:     {},
}

// APIResponseError is a non-2xx response carrying a recognized error
// code. Callers reach it with errors.As:
//
//	var apiErr *APIResponseError
//	if errors.As(err, &apiErr) && apiErr.Code == ErrCodeRateLimited {
//	    retryAfter := apiErr.Headers.Get("Retry-After")
//	}
type APIResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	Status  int         `json:"-"`
	Headers http.Header `json:"-"`
	// Body is the raw response body.
	Body []byte `json:"-"`
}

func (e *APIResponseError) Error() string {
	return fmt.Sprintf("imlink: %s (%d): %s", e.Code, e.Status, e.Message)
}

// UnknownHTTPResponseError is a non-2xx response whose body is not an
// error envelope with a recognized code.
type UnknownHTTPResponseError struct {
	Status  int
	Headers http.Header
	Body    []byte
}

func (e *UnknownHTTPResponseError) Error() string {
	const maxShown = 256
	body := e.Body
	if len(body) > maxShown {
		body = body[:maxShown]
	}
	return fmt.Sprintf("imlink: unexpected %d response: %s", e.Status, body)
}

// RequestTimeoutError reports a request that did not complete within
// its timeout. The request is abandoned; a late response is discarded.
type RequestTimeoutError struct {
	Method  string
	Path    string
	Timeout time.Duration
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("imlink: %s %s timed out after %s", e.Method, e.Path, e.Timeout)
}

// IsAPIError checks whether err is an *APIResponseError with the given
// code.
func IsAPIError(err error, code string) bool {
	var apiErr *APIResponseError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

var (
	// ErrUnsupportedMessageType is returned for a message type the
	// client cannot build or validate.
	ErrUnsupportedMessageType = errors.New("messaging: unsupported message type")

	// ErrUnsupportedMomentType is the moment counterpart.
	ErrUnsupportedMomentType = errors.New("messaging: unsupported moment type")

	// ErrMediaSourceRequired is returned when a media helper gets
	// neither or both of a ready payload and a file.
	ErrMediaSourceRequired = errors.New("messaging: exactly one of a payload or a file is required")

	// ErrRealtimeUnavailable is returned by operations that need the
	// pub/sub connection on a client built without one.
	ErrRealtimeUnavailable = errors.New("messaging: client has no pub/sub connection")
)

// MediaTooLargeError reports a file over the size ceiling for its kind.
type MediaTooLargeError struct {
	Kind  string
	Size  int64
	Limit int64
}

func (e *MediaTooLargeError) Error() string {
	return fmt.Sprintf("messaging: %s is %d bytes, limit is %d", e.Kind, e.Size, e.Limit)
}
