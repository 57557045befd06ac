// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListConversationsParams filters the conversation list.
type ListConversationsParams struct {
	Offset int
	Limit  int
	Type   ConversationType
}

// UpdateConversationParams holds the fields to change. MarkRead clears
// the unread count.
type UpdateConversationParams struct {
	Pinned   *bool `json:"pinned,omitempty"`
	MarkRead bool  `json:"mark_read,omitempty"`
}

func conversationPath(accountID, conversationID string) string {
	return accountPath(accountID) + "/conversations/" + url.PathEscape(conversationID)
}

func requireConversation(accountID, conversationID string) error {
	if err := requireID("account", accountID); err != nil {
		return err
	}
	return requireID("conversation", conversationID)
}

// ListConversations lists the account's conversations, most recent
// first.
func (c *Client) ListConversations(ctx context.Context, accountID string, params ListConversationsParams, options ...RequestOption) (*OffsetPage[Conversation], error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	q := OffsetParams{Offset: params.Offset, Limit: params.Limit}.query().str("type", string(params.Type))
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   accountPath(accountID) + "/conversations",
		route:  "/accounts/{account}/conversations",
		query:  q.values(),
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: list conversations of %s failed: %w", accountID, err)
	}
	return decode[OffsetPage[Conversation]](body, "list conversations")
}

// RetrieveConversation fetches one conversation.
func (c *Client) RetrieveConversation(ctx context.Context, accountID, conversationID string, options ...RequestOption) (*Conversation, error) {
	if err := requireConversation(accountID, conversationID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   conversationPath(accountID, conversationID),
		route:  "/accounts/{account}/conversations/{conversation}",
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: retrieve conversation %s failed: %w", conversationID, err)
	}
	return decode[Conversation](body, "retrieve conversation")
}

// UpdateConversation pins, unpins or marks a conversation read.
func (c *Client) UpdateConversation(ctx context.Context, accountID, conversationID string, params UpdateConversationParams, options ...RequestOption) (*Conversation, error) {
	if err := requireConversation(accountID, conversationID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodPatch,
		path:   conversationPath(accountID, conversationID),
		route:  "/accounts/{account}/conversations/{conversation}",
		body:   params,
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: update conversation %s failed: %w", conversationID, err)
	}
	return decode[Conversation](body, "update conversation")
}

// DeleteConversation removes a conversation from the account's list.
func (c *Client) DeleteConversation(ctx context.Context, accountID, conversationID string, options ...RequestOption) error {
	if err := requireConversation(accountID, conversationID); err != nil {
		return err
	}
	_, err := c.request(ctx, requestSpec{
		method: http.MethodDelete,
		path:   conversationPath(accountID, conversationID),
		route:  "/accounts/{account}/conversations/{conversation}",
	}, options...)
	if err != nil {
		return fmt.Errorf("messaging: delete conversation %s failed: %w", conversationID, err)
	}
	return nil
}
