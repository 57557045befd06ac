// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package authorize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/imlink/lib/clock"
)

// Default timings of the closed-window check.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultGraceDelay   = 500 * time.Millisecond
)

// Handshake runs authorization handshakes. The zero value is not
// usable: Opener and Source are required.
type Handshake struct {
	Opener Opener
	Source Source

	// Clock drives the closed-window poll and grace delay. Default:
	// the real clock.
	Clock  clock.Clock
	Logger *slog.Logger

	PollInterval time.Duration
	GraceDelay   time.Duration
}

// Request describes one handshake.
type Request struct {
	// BaseURL is the API base URL. The consent URL is built on it and
	// results are accepted only from its origin.
	BaseURL string

	Provider string

	// Token is the API token passed to the consent page.
	Token string

	// RedirectURL is forwarded as redirect_uri when set.
	RedirectURL string

	// Callback, when set, is invoked with the account id, or with
	// ok=false when the user closed the window. It is not invoked on
	// errors.
	Callback func(accountID string, ok bool)
}

// Outcome is the result of a handshake that did not fail.
type Outcome struct {
	AccountID string
	Cancelled bool
}

// Run performs the handshake. It returns Outcome{Cancelled: true} with
// a nil error when the window closes without a result.
func (h *Handshake) Run(ctx context.Context, request Request) (Outcome, error) {
	if h.Opener == nil || h.Source == nil {
		return Outcome{}, fmt.Errorf("authorize: handshake needs an Opener and a Source")
	}
	wantOrigin, err := Origin(request.BaseURL)
	if err != nil {
		return Outcome{}, err
	}
	state, err := NewState()
	if err != nil {
		return Outcome{}, err
	}
	consentURL, err := ConsentURL(request.BaseURL, request.Provider, request.Token, state, request.RedirectURL)
	if err != nil {
		return Outcome{}, err
	}

	clk := h.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := h.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("provider", request.Provider)
	pollInterval := h.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	graceDelay := h.GraceDelay
	if graceDelay <= 0 {
		graceDelay = DefaultGraceDelay
	}

	// Listen before opening so a page that answers instantly is not
	// missed. Only the first accepted result matters.
	results := make(chan Result, 1)
	remove := h.Source.Listen(func(message Message) {
		if message.Origin != wantOrigin {
			logger.Debug("ignoring message from foreign origin", "origin", message.Origin)
			return
		}
		if message.Data.Type != ResponseType {
			logger.Debug("ignoring message of another type", "type", message.Data.Type)
			return
		}
		select {
		case results <- message.Data:
		default:
		}
	})
	defer remove()

	window, err := h.Opener.Open(ctx, consentURL)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrPopupBlocked, err)
	}
	logger.Info("consent window opened")

	ticker := clk.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case result := <-results:
			window.Close()
			return h.resolve(logger, request, state, result)

		case <-ticker.C:
			if !window.Closed() {
				continue
			}
			logger.Debug("consent window closed, waiting for a late result", "grace_delay", graceDelay)
			grace := clk.NewTimer(graceDelay)
			select {
			case result := <-results:
				grace.Stop()
				return h.resolve(logger, request, state, result)
			case <-grace.C:
				logger.Info("authorization cancelled by user")
				if request.Callback != nil {
					request.Callback("", false)
				}
				return Outcome{Cancelled: true}, nil
			case <-ctx.Done():
				grace.Stop()
				return Outcome{}, ctx.Err()
			}

		case <-ctx.Done():
			window.Close()
			return Outcome{}, ctx.Err()
		}
	}
}

func (h *Handshake) resolve(logger *slog.Logger, request Request, state string, result Result) (Outcome, error) {
	if result.Error != "" {
		logger.Warn("provider reported an error", "error", result.Error)
		return Outcome{}, &ProviderError{Message: result.Error}
	}
	if result.State != state {
		logger.Warn("authorization result has a mismatched state")
		return Outcome{}, ErrInvalidState
	}
	if result.ID == "" {
		return Outcome{}, fmt.Errorf("authorize: result carries no account id")
	}
	logger.Info("account authorized", "account_id", result.ID)
	if request.Callback != nil {
		request.Callback(result.ID, true)
	}
	return Outcome{AccountID: result.ID}, nil
}
