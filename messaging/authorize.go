// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/imlink/authorize"
)

// AuthorizeParams configures [Client.Authorize].
type AuthorizeParams struct {
	// Provider names the IM platform to connect (e.g. "wechat").
	Provider string

	// Opener and Source carry the consent window and its result
	// messages; a [authorize.Receiver] with an [authorize.BrowserOpener]
	// is the usual pair.
	Opener authorize.Opener
	Source authorize.Source

	// RedirectURL is forwarded to the consent page when set.
	RedirectURL string

	// Token overrides the client's default token for the consent URL.
	Token string

	// Subscribe subscribes the new account's channel on success.
	Subscribe bool

	// Handshake tunes the poll interval and grace delay. Its Opener
	// and Source are ignored.
	Handshake authorize.Handshake

	Callback func(accountID string, ok bool)
}

// Authorize runs the consent handshake against the client's base URL.
// It returns the new account id, or "" with a nil error when the user
// closed the window.
func (c *Client) Authorize(ctx context.Context, params AuthorizeParams) (string, error) {
	token := params.Token
	if token == "" && c.token != nil {
		token = c.token.String()
	}
	if token == "" {
		return "", fmt.Errorf("messaging: authorize needs a token")
	}

	handshake := params.Handshake
	handshake.Opener = params.Opener
	handshake.Source = params.Source
	if handshake.Clock == nil {
		handshake.Clock = c.clock
	}
	if handshake.Logger == nil {
		handshake.Logger = c.logger
	}

	outcome, err := handshake.Run(ctx, authorize.Request{
		BaseURL:     c.baseURL,
		Provider:    params.Provider,
		Token:       token,
		RedirectURL: params.RedirectURL,
		Callback:    params.Callback,
	})
	if err != nil {
		return "", fmt.Errorf("messaging: authorize %s failed: %w", params.Provider, err)
	}
	if outcome.Cancelled {
		return "", nil
	}
	if params.Subscribe {
		if err := c.SubscribeAccounts(outcome.AccountID); err != nil {
			c.logger.Warn("subscribing authorized account failed", "account_id", outcome.AccountID, "error", err)
		}
	}
	return outcome.AccountID, nil
}
