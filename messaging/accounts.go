// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListAccountsParams filters the account list. Subscribe subscribes
// the channel of every returned account.
type ListAccountsParams struct {
	Offset    int
	Limit     int
	Provider  string
	Status    AccountStatus
	Subscribe bool
}

// RetrieveAccountParams controls RetrieveAccount.
type RetrieveAccountParams struct {
	Subscribe bool
}

// UpdateAccountParams holds the fields to change. Nil fields are left
// as they are.
type UpdateAccountParams struct {
	Name      *string `json:"name,omitempty"`
	CustomID  *string `json:"custom_id,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
	Signature *string `json:"signature,omitempty"`
}

func requireID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("messaging: %s id is required", kind)
	}
	return nil
}

func accountPath(accountID string) string {
	return "/accounts/" + url.PathEscape(accountID)
}

// ListAccounts lists the accounts visible to the token.
func (c *Client) ListAccounts(ctx context.Context, params ListAccountsParams, options ...RequestOption) (*OffsetPage[Account], error) {
	q := OffsetParams{Offset: params.Offset, Limit: params.Limit}.query().
		str("provider", params.Provider).
		str("status", string(params.Status))
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   "/accounts",
		query:  q.values(),
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: list accounts failed: %w", err)
	}
	page, err := decode[OffsetPage[Account]](body, "list accounts")
	if err != nil {
		return nil, err
	}
	if params.Subscribe {
		c.subscribeFetched(page.Items...)
	}
	return page, nil
}

// RetrieveAccount fetches one account.
func (c *Client) RetrieveAccount(ctx context.Context, accountID string, params RetrieveAccountParams, options ...RequestOption) (*Account, error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   accountPath(accountID),
		route:  "/accounts/{account}",
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: retrieve account %s failed: %w", accountID, err)
	}
	account, err := decode[Account](body, "retrieve account")
	if err != nil {
		return nil, err
	}
	if params.Subscribe {
		c.subscribeFetched(*account)
	}
	return account, nil
}

// UpdateAccount changes the account's profile fields.
func (c *Client) UpdateAccount(ctx context.Context, accountID string, params UpdateAccountParams, options ...RequestOption) (*Account, error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodPatch,
		path:   accountPath(accountID),
		route:  "/accounts/{account}",
		body:   params,
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: update account %s failed: %w", accountID, err)
	}
	return decode[Account](body, "update account")
}

// DeleteAccount disconnects the account from the platform.
func (c *Client) DeleteAccount(ctx context.Context, accountID string, options ...RequestOption) error {
	if err := requireID("account", accountID); err != nil {
		return err
	}
	_, err := c.request(ctx, requestSpec{
		method: http.MethodDelete,
		path:   accountPath(accountID),
		route:  "/accounts/{account}",
	}, options...)
	if err != nil {
		return fmt.Errorf("messaging: delete account %s failed: %w", accountID, err)
	}
	c.logger.Info("deleted account", "account_id", accountID)
	return nil
}
