// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListContactsParams filters the contact list.
type ListContactsParams struct {
	Offset  int
	Limit   int
	Keyword string
}

// AddContactParams is a friend request.
type AddContactParams struct {
	UserID   string `json:"user_id"`
	Greeting string `json:"greeting,omitempty"`
	Remark   string `json:"remark,omitempty"`
}

// UpdateContactParams holds the fields to change.
type UpdateContactParams struct {
	Remark *string `json:"remark,omitempty"`
}

func contactPath(accountID, contactID string) string {
	return accountPath(accountID) + "/contacts/" + url.PathEscape(contactID)
}

// ListContacts lists the account's contacts.
func (c *Client) ListContacts(ctx context.Context, accountID string, params ListContactsParams, options ...RequestOption) (*OffsetPage[Contact], error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	q := OffsetParams{Offset: params.Offset, Limit: params.Limit}.query().str("keyword", params.Keyword)
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   accountPath(accountID) + "/contacts",
		route:  "/accounts/{account}/contacts",
		query:  q.values(),
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: list contacts of %s failed: %w", accountID, err)
	}
	return decode[OffsetPage[Contact]](body, "list contacts")
}

// RetrieveContact fetches one contact.
func (c *Client) RetrieveContact(ctx context.Context, accountID, contactID string, options ...RequestOption) (*Contact, error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	if err := requireID("contact", contactID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   contactPath(accountID, contactID),
		route:  "/accounts/{account}/contacts/{contact}",
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: retrieve contact %s failed: %w", contactID, err)
	}
	return decode[Contact](body, "retrieve contact")
}

// AddContact sends a friend request and returns the pending contact.
func (c *Client) AddContact(ctx context.Context, accountID string, params AddContactParams, options ...RequestOption) (*Contact, error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	if err := requireID("user", params.UserID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodPost,
		path:   accountPath(accountID) + "/contacts",
		route:  "/accounts/{account}/contacts",
		body:   params,
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: add contact %s failed: %w", params.UserID, err)
	}
	return decode[Contact](body, "add contact")
}

// UpdateContact changes a contact's remark.
func (c *Client) UpdateContact(ctx context.Context, accountID, contactID string, params UpdateContactParams, options ...RequestOption) (*Contact, error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	if err := requireID("contact", contactID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodPatch,
		path:   contactPath(accountID, contactID),
		route:  "/accounts/{account}/contacts/{contact}",
		body:   params,
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: update contact %s failed: %w", contactID, err)
	}
	return decode[Contact](body, "update contact")
}

// DeleteContact removes a contact.
func (c *Client) DeleteContact(ctx context.Context, accountID, contactID string, options ...RequestOption) error {
	if err := requireID("account", accountID); err != nil {
		return err
	}
	if err := requireID("contact", contactID); err != nil {
		return err
	}
	_, err := c.request(ctx, requestSpec{
		method: http.MethodDelete,
		path:   contactPath(accountID, contactID),
		route:  "/accounts/{account}/contacts/{contact}",
	}, options...)
	if err != nil {
		return fmt.Errorf("messaging: delete contact %s failed: %w", contactID, err)
	}
	return nil
}
