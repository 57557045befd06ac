// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bureau-foundation/imlink/lib/clock"
	"github.com/bureau-foundation/imlink/lib/secret"
	"github.com/bureau-foundation/imlink/pubsub"
	"github.com/bureau-foundation/imlink/upload"
)

// Defaults applied by [NewClient].
const (
	DefaultBaseURL    = "https://api.imlink.dev"
	DefaultAPIVersion = "2024-06-01"
	DefaultTimeout    = 60 * time.Second
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the API base URL. Default: DefaultBaseURL.
	BaseURL string

	// Token is the default bearer token. Per-call [WithAuth] overrides
	// it. The string is copied into protected memory.
	Token string

	// Timeout bounds every request. Zero selects DefaultTimeout; use
	// [WithTimeout] to change it per call.
	Timeout time.Duration

	// LogLevel is the minimum level of the logger the client builds
	// when Logger is nil.
	LogLevel slog.Level
	Logger   *slog.Logger

	// APIVersion is sent as the Imlink-Version header. Default:
	// DefaultAPIVersion.
	APIVersion string

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client

	// PubSub is the real-time client. When nil, [Dial] connects one
	// from PubSubOptions; [NewClient] leaves real-time features off.
	PubSub        pubsub.Client
	PubSubOptions *pubsub.WebSocketOptions

	// Uploader stores media bytes. Default: a presigned uploader using
	// this client's upload grants.
	Uploader upload.Uploader

	// UploadTimeout bounds each object PUT of the default uploader.
	UploadTimeout time.Duration

	// Clock drives request timeouts. Default: the real clock.
	Clock clock.Clock

	// RateLimit caps outbound requests per second; zero disables the
	// limiter. RateBurst defaults to 1.
	RateLimit float64
	RateBurst int

	// Metrics, when set, records request and event counters.
	Metrics *Metrics
}

// Client talks to the platform API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiVersion string
	token      *secret.Buffer
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	clock      clock.Clock
	limiter    *rate.Limiter
	metrics    *Metrics
	uploader   upload.Uploader

	realtime   *pubsub.Adapter
	ownsPubSub bool
	dispatcher *Dispatcher
	listenOnce sync.Once
}

// NewClient creates a client. It does not contact the server or dial
// the pub/sub relay.
func NewClient(config ClientConfig) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	// Request URLs are built by concatenation; only the structure is
	// checked here.
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("messaging: invalid BaseURL %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("messaging: BaseURL %q must be absolute", baseURL)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.LogLevel}))
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	apiVersion := config.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: apiVersion,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger,
		clock:      clk,
		metrics:    config.Metrics,
		uploader:   config.Uploader,
		dispatcher: NewDispatcher(),
	}

	if config.Token != "" {
		client.token, err = secret.NewFromString(config.Token)
		if err != nil {
			return nil, fmt.Errorf("messaging: protecting token: %w", err)
		}
	}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	if client.uploader == nil {
		client.uploader = upload.NewPresigned(client.CreateUpload, upload.PresignedOptions{
			HTTPClient: httpClient,
			Timeout:    config.UploadTimeout,
			Logger:     logger,
		})
	}
	if config.PubSub != nil {
		client.realtime = pubsub.NewAdapter(config.PubSub, logger)
	}
	return client, nil
}

// Dial creates a client and, unless config.PubSub is already set,
// connects a websocket pub/sub client from config.PubSubOptions. The
// returned client owns that connection; Close releases it.
func Dial(ctx context.Context, config ClientConfig) (*Client, error) {
	if config.PubSub != nil || config.PubSubOptions == nil {
		return NewClient(config)
	}

	options := *config.PubSubOptions
	if options.Clock == nil {
		options.Clock = config.Clock
	}
	if options.Logger == nil {
		options.Logger = config.Logger
	}
	realtime, err := pubsub.DialWebSocket(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("messaging: connecting pub/sub: %w", err)
	}
	config.PubSub = realtime

	client, err := NewClient(config)
	if err != nil {
		realtime.Close()
		return nil, err
	}
	client.ownsPubSub = true
	return client, nil
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Realtime returns the pub/sub adapter, or nil when the client was
// built without one.
func (c *Client) Realtime() *pubsub.Adapter {
	return c.realtime
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Close releases the token memory and, for clients created by [Dial],
// the pub/sub connection. Idempotent.
func (c *Client) Close() error {
	var firstErr error
	if c.token != nil {
		firstErr = c.token.Close()
	}
	if c.ownsPubSub && c.realtime != nil {
		if err := c.realtime.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
