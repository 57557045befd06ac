// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/imlink/messaging"
)

// ErrorCategory classifies command errors so that the exit path and
// scripts can tell bad input from a server refusal or a transient
// failure without parsing message text.
type ErrorCategory string

const (
	// CategoryValidation indicates the caller provided invalid input.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a referenced resource does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden indicates the token is missing, invalid, or
	// lacks permission.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryConflict indicates the operation conflicts with existing
	// state.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient indicates a temporary failure: timeout, rate
	// limit, unavailable server. Retrying may help.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal indicates an unexpected error.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by CLI commands. It wraps
// an inner error, preserving the chain for errors.Is and errors.As.
type ToolError struct {
	Category ErrorCategory
	Err      error

	// Hint is appended to the message after a blank line.
	Hint string
}

func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets the hint and returns the receiver.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Forbidden creates a forbidden error.
func Forbidden(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// APIError wraps an error returned by the messaging client, choosing
// the category from the platform error code:
//
//	return cli.APIError(err, "listing accounts")
func APIError(err error, action string) *ToolError {
	wrapped := &ToolError{Category: Categorize(err), Err: fmt.Errorf("%s: %w", action, err)}
	switch {
	case messaging.IsAPIError(err, messaging.ErrCodeUnauthorized):
		wrapped.Hint = "Run 'imlink login' to store a valid token."
	case messaging.IsAPIError(err, messaging.ErrCodeAccountExpired):
		wrapped.Hint = "Run 'imlink authorize <provider>' to reconnect the account."
	case messaging.IsAPIError(err, messaging.ErrCodeRateLimited):
		var apiErr *messaging.APIResponseError
		if errors.As(err, &apiErr) {
			if retryAfter := apiErr.Headers.Get("Retry-After"); retryAfter != "" {
				wrapped.Hint = "Retry after " + retryAfter + " seconds."
			}
		}
	}
	return wrapped
}

// Categorize returns the category of err. Errors that are neither a
// [ToolError] nor a recognized client error are internal.
func Categorize(err error) ErrorCategory {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Category
	}
	var timeoutErr *messaging.RequestTimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransient
	}
	var unknownErr *messaging.UnknownHTTPResponseError
	if errors.As(err, &unknownErr) && unknownErr.Status >= 500 {
		return CategoryTransient
	}
	var apiErr *messaging.APIResponseError
	if !errors.As(err, &apiErr) {
		return CategoryInternal
	}
	switch apiErr.Code {
	case messaging.ErrCodeUnauthorized, messaging.ErrCodeForbidden, messaging.ErrCodeAccountExpired:
		return CategoryForbidden
	case messaging.ErrCodeNotFound:
		return CategoryNotFound
	case messaging.ErrCodeConflict:
		return CategoryConflict
	case messaging.ErrCodeInvalidRequest, messaging.ErrCodeValidation:
		return CategoryValidation
	case messaging.ErrCodeRateLimited, messaging.ErrCodeInternalServer,
		messaging.ErrCodeServiceUnavailable, messaging.ErrCodeGatewayTimeout:
		return CategoryTransient
	default:
		return CategoryInternal
	}
}
