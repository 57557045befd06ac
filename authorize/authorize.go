// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package authorize

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ResponseType is the discriminator of handshake results.
const ResponseType = "authorization_response"

// Result is the payload the consent page reports.
type Result struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	State string `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

// Message is a result together with the origin that sent it.
type Message struct {
	Origin string
	Data   Result
}

// Source delivers messages from the consent page. Listen returns a
// function that removes the listener; calling it more than once is
// harmless.
type Source interface {
	Listen(listener func(Message)) (remove func())
}

// Window is an open consent window.
type Window interface {
	Closed() bool
	Close() error
}

// Opener opens the consent URL.
type Opener interface {
	Open(ctx context.Context, consentURL string) (Window, error)
}

// ErrPopupBlocked reports that the consent window could not be opened.
var ErrPopupBlocked = errors.New("authorize: consent window could not be opened")

// ErrInvalidState reports a result whose state token does not match.
var ErrInvalidState = errors.New("authorize: invalid authorize state")

// ProviderError is an error reported by the provider through the
// consent page.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return "authorize: provider error: " + e.Message
}

// stateBytes yields 32 characters of unpadded base64url.
const stateBytes = 24

// NewState returns a random state token of 32 URL-safe characters.
func NewState() (string, error) {
	buffer := make([]byte, stateBytes)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("authorize: generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// ConsentURL builds {baseURL}/v1/authorize with the provider, token and
// state query parameters, plus redirect_uri when redirect is set.
func ConsentURL(baseURL, provider, token, state, redirect string) (string, error) {
	if _, err := Origin(baseURL); err != nil {
		return "", err
	}
	if provider == "" {
		return "", fmt.Errorf("authorize: provider is required")
	}
	query := url.Values{}
	query.Set("provider", provider)
	query.Set("token", token)
	query.Set("state", state)
	if redirect != "" {
		query.Set("redirect_uri", redirect)
	}
	return strings.TrimRight(baseURL, "/") + "/v1/authorize?" + query.Encode(), nil
}

// Origin returns scheme://host[:port] of rawURL, lowercased, with a
// default port dropped the way browsers serialize origins.
func Origin(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("authorize: parsing %q: %w", rawURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("authorize: %q is not an absolute URL", rawURL)
	}
	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Hostname())
	port := parsed.Port()
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host, nil
}
