// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the imlink CLI configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	API       APIConfig       `yaml:"api"`
	Log       LogConfig       `yaml:"log"`
	PubSub    PubSubConfig    `yaml:"pubsub"`
	Authorize AuthorizeConfig `yaml:"authorize"`
	Upload    UploadConfig    `yaml:"upload"`
	Session   SessionConfig   `yaml:"session"`

	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the sections an environment block may replace. Only
// non-empty fields take effect.
type Overrides struct {
	API       *APIConfig       `yaml:"api,omitempty"`
	Log       *LogConfig       `yaml:"log,omitempty"`
	PubSub    *PubSubConfig    `yaml:"pubsub,omitempty"`
	Authorize *AuthorizeConfig `yaml:"authorize,omitempty"`
	Upload    *UploadConfig    `yaml:"upload,omitempty"`
	Session   *SessionConfig   `yaml:"session,omitempty"`
}

// APIConfig configures the REST client.
type APIConfig struct {
	// BaseURL is the platform origin, without the /v1 prefix.
	BaseURL string `yaml:"base_url"`

	// Version is sent as the Imlink-Version header.
	Version string `yaml:"version"`

	// Timeout bounds each request, as a Go duration. Default: 60s.
	Timeout string `yaml:"timeout"`

	// RateLimit is the sustained requests per second; zero disables
	// client-side limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// LogConfig configures CLI logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text, json, or auto (text on a terminal).
	Format string `yaml:"format"`
}

// PubSubConfig configures the websocket pub/sub client.
type PubSubConfig struct {
	URL          string `yaml:"url"`
	SubscribeKey string `yaml:"subscribe_key"`
	PublishKey   string `yaml:"publish_key"`

	// SecretKeyFile holds the pub/sub secret key; "-" reads stdin.
	SecretKeyFile string `yaml:"secret_key_file"`

	// InstanceID identifies this client to the relay. Default: random.
	InstanceID string `yaml:"instance_id"`
}

// AuthorizeConfig configures the authorization handshake.
type AuthorizeConfig struct {
	// ListenAddress is where the loopback receiver binds.
	ListenAddress string `yaml:"listen_address"`

	PollInterval string `yaml:"poll_interval"`
	GraceDelay   string `yaml:"grace_delay"`

	// Timeout bounds the whole handshake. Empty means no bound.
	Timeout string `yaml:"timeout"`
}

// UploadConfig configures media uploads.
type UploadConfig struct {
	// Timeout bounds a single object PUT.
	Timeout string `yaml:"timeout"`
}

// SessionConfig locates the saved login.
type SessionConfig struct {
	// Path is the session file written by `imlink login`.
	Path string `yaml:"path"`

	// IdentityFile is the age identity used to open a sealed session.
	IdentityFile string `yaml:"identity_file"`
}

// Default returns the configuration every file is layered over.
func Default() *Config {
	homeDirectory, _ := os.UserHomeDir()
	return &Config{
		Environment: Development,
		API: APIConfig{
			BaseURL: "https://api.imlink.dev",
			Version: "2024-06-01",
			Timeout: "60s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Authorize: AuthorizeConfig{
			ListenAddress: "127.0.0.1:0",
			PollInterval:  "500ms",
			GraceDelay:    "500ms",
		},
		Upload: UploadConfig{
			Timeout: "5m",
		},
		Session: SessionConfig{
			Path: filepath.Join(homeDirectory, ".config", "imlink", "session.json"),
		},
	}
}

// Load loads configuration from the file named by IMLINK_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv("IMLINK_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("IMLINK_CONFIG environment variable not set; " +
			"set it to the path of your imlink.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path, applies the matching
// environment block, and expands variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process
// environment. Variables already set are left alone. A missing file is
// not an error when optional is true.
func LoadEnvFile(path string, optional bool) error {
	if err := godotenv.Load(path); err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a YAML subset, so the stripped document goes through
		// the same decoder and the same struct tags.
		data = jsonc.ToJSON(data)
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if o := overrides.API; o != nil {
		override(&c.API.BaseURL, o.BaseURL)
		override(&c.API.Version, o.Version)
		override(&c.API.Timeout, o.Timeout)
		if o.RateLimit != 0 {
			c.API.RateLimit = o.RateLimit
		}
		if o.RateBurst != 0 {
			c.API.RateBurst = o.RateBurst
		}
	}
	if o := overrides.Log; o != nil {
		override(&c.Log.Level, o.Level)
		override(&c.Log.Format, o.Format)
	}
	if o := overrides.PubSub; o != nil {
		override(&c.PubSub.URL, o.URL)
		override(&c.PubSub.SubscribeKey, o.SubscribeKey)
		override(&c.PubSub.PublishKey, o.PublishKey)
		override(&c.PubSub.SecretKeyFile, o.SecretKeyFile)
		override(&c.PubSub.InstanceID, o.InstanceID)
	}
	if o := overrides.Authorize; o != nil {
		override(&c.Authorize.ListenAddress, o.ListenAddress)
		override(&c.Authorize.PollInterval, o.PollInterval)
		override(&c.Authorize.GraceDelay, o.GraceDelay)
		override(&c.Authorize.Timeout, o.Timeout)
	}
	if o := overrides.Upload; o != nil {
		override(&c.Upload.Timeout, o.Timeout)
	}
	if o := overrides.Session; o != nil {
		override(&c.Session.Path, o.Path)
		override(&c.Session.IdentityFile, o.IdentityFile)
	}
}

func override(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func (c *Config) expandVariables() {
	for _, field := range []*string{
		&c.API.BaseURL,
		&c.API.Version,
		&c.PubSub.URL,
		&c.PubSub.SubscribeKey,
		&c.PubSub.PublishKey,
		&c.PubSub.SecretKeyFile,
		&c.PubSub.InstanceID,
		&c.Authorize.ListenAddress,
		&c.Session.Path,
		&c.Session.IdentityFile,
	} {
		*field = expandVars(*field)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. An unset or empty
// variable without a default expands to "".
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors, reporting all of them.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case Development, Staging, Production:
	default:
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.API.BaseURL == "" {
		errs = append(errs, fmt.Errorf("api.base_url is required"))
	} else if parsed, err := url.Parse(c.API.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("api.rate_limit must not be negative"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of auto, text, json; got %q", c.Log.Format))
	}

	for name, value := range map[string]string{
		"api.timeout":             c.API.Timeout,
		"authorize.poll_interval": c.Authorize.PollInterval,
		"authorize.grace_delay":   c.Authorize.GraceDelay,
		"authorize.timeout":       c.Authorize.Timeout,
		"upload.timeout":          c.Upload.Timeout,
	} {
		if _, err := ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if c.PubSub.URL != "" && c.PubSub.SubscribeKey == "" {
		errs = append(errs, fmt.Errorf("pubsub.subscribe_key is required when pubsub.url is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ParseDuration parses a duration field. Empty means zero.
func ParseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if duration < 0 {
		return 0, fmt.Errorf("duration %q is negative", value)
	}
	return duration, nil
}
