// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bureau-foundation/imlink/lib/netutil"
	"github.com/bureau-foundation/imlink/lib/version"
)

// APIPrefix is prepended to every request path.
const APIPrefix = "/v1"

// requestSpec describes one API call. path is relative to APIPrefix and
// already escaped; route is the templated form used as a metrics
// label.
type requestSpec struct {
	method string
	path   string
	route  string
	query  url.Values
	body   any
}

type requestOptions struct {
	auth    string
	timeout time.Duration
}

// RequestOption adjusts a single call.
type RequestOption func(*requestOptions)

// WithAuth sends token instead of the client's default token.
func WithAuth(token string) RequestOption {
	return func(options *requestOptions) { options.auth = token }
}

// WithTimeout overrides the client timeout for one call. A value of
// zero or less disables the timeout.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(options *requestOptions) { options.timeout = timeout }
}

type roundTripResult struct {
	status int
	header http.Header
	body   []byte
	err    error
}

// request performs an API call and returns the response body. On 2xx
// an empty body is returned as "{}". On other statuses the error is an
// *APIResponseError or *UnknownHTTPResponseError. If the timeout
// expires first the error is a *RequestTimeoutError and the in-flight
// call is cancelled; its result is discarded.
func (c *Client) request(ctx context.Context, spec requestSpec, options ...RequestOption) ([]byte, error) {
	settings := requestOptions{timeout: c.timeout}
	for _, option := range options {
		option(&settings)
	}
	route := spec.route
	if route == "" {
		route = spec.path
	}

	requestURL := c.baseURL + APIPrefix + spec.path
	if len(spec.query) > 0 {
		requestURL += "?" + spec.query.Encode()
	}
	body, err := encodeBody(spec.body)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to encode request body: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("messaging: waiting for rate limiter: %w", err)
		}
	}

	logger := c.logger.With("method", spec.method, "path", spec.path)
	logger.Info("request start")
	started := c.clock.Now()

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so the goroutine never blocks once the caller has
	// stopped listening.
	results := make(chan roundTripResult, 1)
	go func() {
		results <- c.roundTrip(callCtx, spec.method, requestURL, body, settings.auth)
	}()

	var expired <-chan time.Time
	if settings.timeout > 0 {
		timer := c.clock.NewTimer(settings.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var result roundTripResult
	select {
	case result = <-results:
	case <-expired:
		cancel()
		c.metrics.observeRequest(spec.method, route, outcomeTimeout, c.clock.Now().Sub(started))
		logger.Warn("request failed", "error", "timeout", "timeout", settings.timeout)
		return nil, &RequestTimeoutError{Method: spec.method, Path: spec.path, Timeout: settings.timeout}
	case <-ctx.Done():
		c.metrics.observeRequest(spec.method, route, outcomeCancelled, c.clock.Now().Sub(started))
		return nil, fmt.Errorf("messaging: %s %s: %w", spec.method, spec.path, ctx.Err())
	}
	elapsed := c.clock.Now().Sub(started)

	if result.err != nil {
		c.metrics.observeRequest(spec.method, route, outcomeError, elapsed)
		logger.Warn("request failed", "error", result.err)
		return nil, fmt.Errorf("messaging: request to %s %s failed: %w", spec.method, spec.path, result.err)
	}

	if result.status >= 200 && result.status < 300 {
		c.metrics.observeRequest(spec.method, route, outcomeSuccess, elapsed)
		logger.Info("request success", "status", result.status, "duration", elapsed)
		if len(bytes.TrimSpace(result.body)) == 0 {
			return []byte("{}"), nil
		}
		return result.body, nil
	}

	c.metrics.observeRequest(spec.method, route, "status_"+strconv.Itoa(result.status), elapsed)
	responseErr := classifyResponse(result)
	if apiErr, ok := responseErr.(*APIResponseError); ok {
		logger.Warn("request failed", "status", result.status, "code", apiErr.Code, "message", apiErr.Message)
	} else {
		logger.Warn("request failed", "status", result.status)
	}
	// Error bodies can carry account data; keep them out of default
	// log output.
	logger.Debug("request failed body", "body", string(result.body))
	return nil, responseErr
}

func (c *Client) roundTrip(ctx context.Context, method, requestURL string, body []byte, auth string) roundTripResult {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return roundTripResult{err: err}
	}

	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Imlink-Version", c.apiVersion)
	request.Header.Set("User-Agent", version.UserAgent())
	if auth != "" {
		request.Header.Set("Authorization", "Bearer "+auth)
	} else if c.token != nil {
		request.Header.Set("Authorization", "Bearer "+c.token.String())
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return roundTripResult{err: err}
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return roundTripResult{err: fmt.Errorf("reading response body: %w", err)}
	}
	return roundTripResult{status: response.StatusCode, header: response.Header, body: responseBody}
}

// encodeBody returns nil for bodies that encode to nothing: nil, null,
// or an empty object.
func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	switch string(encoded) {
	case "null", "{}":
		return nil, nil
	}
	return encoded, nil
}

func classifyResponse(result roundTripResult) error {
	var envelope APIResponseError
	if err := json.Unmarshal(result.body, &envelope); err == nil {
		if _, known := knownErrorCodes[envelope.Code]; known {
			envelope.Status = result.status
			envelope.Headers = result.header
			envelope.Body = result.body
			return &envelope
		}
	}
	return &UnknownHTTPResponseError{Status: result.status, Headers: result.header, Body: result.body}
}

// query collects query parameters, skipping unset values.
type query url.Values

func (q query) str(key, value string) query {
	if value != "" {
		url.Values(q).Set(key, value)
	}
	return q
}

func (q query) num(key string, value int) query {
	if value != 0 {
		url.Values(q).Set(key, strconv.Itoa(value))
	}
	return q
}

func (q query) values() url.Values {
	if len(q) == 0 {
		return nil
	}
	return url.Values(q)
}

// decode unmarshals a response body, naming op in the error.
func decode[T any](body []byte, op string) (*T, error) {
	var value T
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse %s response: %w", op, err)
	}
	return &value, nil
}

