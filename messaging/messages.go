// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func messagePath(accountID, messageID string) string {
	return accountPath(accountID) + "/messages/" + url.PathEscape(messageID)
}

// ListMessages reads a conversation's history around a cursor. The
// page's HasPrevious flag is passed through from the server as-is.
func (c *Client) ListMessages(ctx context.Context, accountID, conversationID string, params CursorParams, options ...RequestOption) (*CursorPage[Message], error) {
	if err := requireConversation(accountID, conversationID); err != nil {
		return nil, err
	}
	switch params.Direction {
	case "", Before, After:
	default:
		return nil, fmt.Errorf("messaging: invalid direction %q", params.Direction)
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   conversationPath(accountID, conversationID) + "/messages",
		route:  "/accounts/{account}/conversations/{conversation}/messages",
		query:  params.query().values(),
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: list messages of %s failed: %w", conversationID, err)
	}
	return decode[CursorPage[Message]](body, "list messages")
}

// RetrieveMessage fetches one message.
func (c *Client) RetrieveMessage(ctx context.Context, accountID, messageID string, options ...RequestOption) (*Message, error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	if err := requireID("message", messageID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   messagePath(accountID, messageID),
		route:  "/accounts/{account}/messages/{message}",
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: retrieve message %s failed: %w", messageID, err)
	}
	return decode[Message](body, "retrieve message")
}

// SendMessage validates message and posts it. The returned message
// carries the server-assigned id, seq and status.
func (c *Client) SendMessage(ctx context.Context, accountID string, message Message, options ...RequestOption) (*Message, error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	if err := message.Validate(); err != nil {
		return nil, err
	}
	if message.To == "" && message.ConversationID == "" {
		return nil, fmt.Errorf("messaging: message needs a recipient or a conversation")
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodPost,
		path:   accountPath(accountID) + "/messages",
		route:  "/accounts/{account}/messages",
		body:   message,
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: send %s message failed: %w", message.Type, err)
	}
	sent, err := decode[Message](body, "send message")
	if err != nil {
		return nil, err
	}
	c.logger.Info("sent message",
		"account_id", accountID,
		"message_id", sent.ID,
		"client_id", message.ClientID,
		"type", message.Type,
	)
	return sent, nil
}

// RecallMessage withdraws a sent message.
func (c *Client) RecallMessage(ctx context.Context, accountID, messageID string, options ...RequestOption) error {
	if err := requireID("account", accountID); err != nil {
		return err
	}
	if err := requireID("message", messageID); err != nil {
		return err
	}
	_, err := c.request(ctx, requestSpec{
		method: http.MethodPost,
		path:   messagePath(accountID, messageID) + "/recall",
		route:  "/accounts/{account}/messages/{message}/recall",
	}, options...)
	if err != nil {
		return fmt.Errorf("messaging: recall message %s failed: %w", messageID, err)
	}
	return nil
}
