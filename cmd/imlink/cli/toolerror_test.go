// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/imlink/messaging"
)

func TestToolError_Hint(t *testing.T) {
	err := Validation("missing account").WithHint("Run 'imlink accounts list'.")
	want := "missing account\n\nRun 'imlink accounts list'."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := fmt.Errorf("send failed: %w", err)
	var toolErr *ToolError
	if !errors.As(wrapped, &toolErr) || toolErr.Category != CategoryValidation {
		t.Errorf("errors.As lost the category: %v", wrapped)
	}
}

func TestCategorize(t *testing.T) {
	apiError := func(code string) error {
		return &messaging.APIResponseError{Code: code, Status: http.StatusBadRequest}
	}
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"tool error", NotFound("no such thing"), CategoryNotFound},
		{"unauthorized", apiError(messaging.ErrCodeUnauthorized), CategoryForbidden},
		{"account expired", apiError(messaging.ErrCodeAccountExpired), CategoryForbidden},
		{"not found", apiError(messaging.ErrCodeNotFound), CategoryNotFound},
		{"conflict", apiError(messaging.ErrCodeConflict), CategoryConflict},
		{"validation", apiError(messaging.ErrCodeValidation), CategoryValidation},
		{"rate limited", apiError(messaging.ErrCodeRateLimited), CategoryTransient},
		{"unavailable", apiError(messaging.ErrCodeServiceUnavailable), CategoryTransient},
		{"timeout", &messaging.RequestTimeoutError{Method: "GET", Path: "/v1/accounts", Timeout: time.Second}, CategoryTransient},
		{"unknown 502", &messaging.UnknownHTTPResponseError{Status: http.StatusBadGateway}, CategoryTransient},
		{"unknown 418", &messaging.UnknownHTTPResponseError{Status: http.StatusTeapot}, CategoryInternal},
		{"wrapped", fmt.Errorf("listing: %w", apiError(messaging.ErrCodeNotFound)), CategoryNotFound},
		{"plain", errors.New("disk full"), CategoryInternal},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Categorize(test.err); got != test.want {
				t.Errorf("Categorize = %q, want %q", got, test.want)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	unauthorized := &messaging.APIResponseError{Code: messaging.ErrCodeUnauthorized, Status: http.StatusUnauthorized, Message: "bad token"}
	err := APIError(unauthorized, "listing accounts")
	if err.Category != CategoryForbidden {
		t.Errorf("category = %q", err.Category)
	}
	if !strings.HasPrefix(err.Error(), "listing accounts: ") || !strings.Contains(err.Error(), "imlink login") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, unauthorized) {
		t.Error("APIError does not wrap the client error")
	}

	limited := &messaging.APIResponseError{
		Code:    messaging.ErrCodeRateLimited,
		Status:  http.StatusTooManyRequests,
		Headers: http.Header{"Retry-After": []string{"30"}},
	}
	if hint := APIError(limited, "sending").Hint; hint != "Retry after 30 seconds." {
		t.Errorf("rate limit hint = %q", hint)
	}
}
