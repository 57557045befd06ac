// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/bureau-foundation/imlink/lib/config"
	"github.com/bureau-foundation/imlink/lib/secret"
	"github.com/bureau-foundation/imlink/messaging"
	"github.com/bureau-foundation/imlink/pubsub"
)

// Globals are the root flags shared by every command.
type Globals struct {
	ConfigFile string `flag:"config" desc:"config file (YAML or JSONC); default $IMLINK_CONFIG"`
	EnvFile    string `flag:"env-file" desc:"file of KEY=VALUE pairs loaded before config expansion (default: ./.env if present)"`
	LogLevel   string `flag:"log-level" desc:"override log.level: debug, info, warn, error"`
	BaseURL    string `flag:"base-url" desc:"override api.base_url"`

	// PubSub, when set, replaces the websocket client built from the
	// pubsub config section.
	PubSub pubsub.Client

	// HTTPClient, when set, is used for API requests.
	HTTPClient *http.Client
}

// Environment is the loaded configuration and the logger built from it.
type Environment struct {
	Config *config.Config
	Logger *slog.Logger
}

// Load reads the env file and config file named by the flags (or
// IMLINK_CONFIG), applies flag overrides, validates, and builds the
// logger. Without a config file the defaults are used.
func (g *Globals) Load() (*Environment, error) {
	if g.EnvFile != "" {
		if err := config.LoadEnvFile(g.EnvFile, false); err != nil {
			return nil, Validation("%w", err)
		}
	} else if err := config.LoadEnvFile(".env", true); err != nil {
		return nil, Validation("%w", err)
	}

	path := g.ConfigFile
	if path == "" {
		path = os.Getenv("IMLINK_CONFIG")
	}
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, Validation("%w", err)
		}
		cfg = loaded
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.BaseURL != "" {
		cfg.API.BaseURL = g.BaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, Validation("invalid configuration: %w", err)
	}

	logger, err := NewCommandLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return &Environment{Config: cfg, Logger: logger}, nil
}

// ClientConfig maps the configuration onto a messaging.ClientConfig.
// Durations were checked by Validate.
func (e *Environment) ClientConfig(token string) messaging.ClientConfig {
	cfg := e.Config
	timeout, _ := config.ParseDuration(cfg.API.Timeout)
	uploadTimeout, _ := config.ParseDuration(cfg.Upload.Timeout)
	return messaging.ClientConfig{
		BaseURL:       cfg.API.BaseURL,
		Token:         token,
		Timeout:       timeout,
		Logger:        e.Logger,
		APIVersion:    cfg.API.Version,
		RateLimit:     cfg.API.RateLimit,
		RateBurst:     cfg.API.RateBurst,
		UploadTimeout: uploadTimeout,
	}
}

// ConnectOptions selects what [Globals.Connect] sets up.
type ConnectOptions struct {
	// Realtime connects the pub/sub client.
	Realtime bool

	// Metrics records client metrics when set.
	Metrics *messaging.Metrics
}

// Connection is an authenticated client together with its
// configuration.
type Connection struct {
	*messaging.Client
	Config *config.Config
	Logger *slog.Logger

	secretKey *secret.Buffer
}

// Close closes the client, then releases the pub/sub secret key.
func (c *Connection) Close() error {
	err := c.Client.Close()
	if c.secretKey != nil {
		c.secretKey.Close()
	}
	return err
}

// Connect loads the environment and builds a client authenticated with
// IMLINK_TOKEN or the saved session.
func (g *Globals) Connect(ctx context.Context, options ConnectOptions) (*Connection, error) {
	env, err := g.Load()
	if err != nil {
		return nil, err
	}
	cfg := env.Config

	token := os.Getenv("IMLINK_TOKEN")
	if token == "" {
		session, err := LoadSession(cfg.Session.Path, cfg.Session.IdentityFile)
		if errors.Is(err, ErrNoSession) {
			return nil, Forbidden("not logged in: %w", err).
				WithHint("Run 'imlink login --token-file <file>' or set IMLINK_TOKEN.")
		}
		if err != nil {
			return nil, err
		}
		if session.BaseURL != "" && session.BaseURL != cfg.API.BaseURL {
			env.Logger.Warn("saved session was created for a different API",
				"session_base_url", session.BaseURL, "base_url", cfg.API.BaseURL)
		}
		token = session.Token
	}

	clientConfig := env.ClientConfig(token)
	clientConfig.HTTPClient = g.HTTPClient
	clientConfig.Metrics = options.Metrics

	connection := &Connection{Config: cfg, Logger: env.Logger}
	if options.Realtime {
		switch {
		case g.PubSub != nil:
			clientConfig.PubSub = g.PubSub
		case cfg.PubSub.URL == "":
			return nil, Validation("pubsub.url is not configured")
		default:
			pubsubOptions := &pubsub.WebSocketOptions{
				URL:          cfg.PubSub.URL,
				SubscribeKey: cfg.PubSub.SubscribeKey,
				PublishKey:   cfg.PubSub.PublishKey,
				InstanceID:   cfg.PubSub.InstanceID,
			}
			if cfg.PubSub.SecretKeyFile != "" {
				key, err := secret.ReadFromPath(cfg.PubSub.SecretKeyFile)
				if err != nil {
					return nil, Validation("reading pubsub secret key: %w", err)
				}
				pubsubOptions.SecretKey = key
				connection.secretKey = key
			}
			clientConfig.PubSubOptions = pubsubOptions
		}
	}

	client, err := messaging.Dial(ctx, clientConfig)
	if err != nil {
		if connection.secretKey != nil {
			connection.secretKey.Close()
		}
		return nil, Transient("connecting: %w", err)
	}
	connection.Client = client
	return connection, nil
}

// RequireArgs checks the positional argument count.
func RequireArgs(args []string, usage string, names ...string) error {
	if len(args) < len(names) {
		return Validation("%s is required\n\nUsage: %s", names[len(args)], usage)
	}
	if len(args) > len(names) {
		return Validation("unexpected argument: %s\n\nUsage: %s", args[len(names)], usage)
	}
	return nil
}
