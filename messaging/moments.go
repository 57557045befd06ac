// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListMomentsParams pages through the account's feed. AuthorID limits
// the feed to one user's posts.
type ListMomentsParams struct {
	CursorParams
	AuthorID string
}

// CommentMomentParams is a new comment.
type CommentMomentParams struct {
	Content string `json:"content"`
	ReplyTo string `json:"reply_to,omitempty"`
}

func momentPath(accountID, momentID string) string {
	return accountPath(accountID) + "/moments/" + url.PathEscape(momentID)
}

func requireMoment(accountID, momentID string) error {
	if err := requireID("account", accountID); err != nil {
		return err
	}
	return requireID("moment", momentID)
}

// ListMoments reads the account's feed.
func (c *Client) ListMoments(ctx context.Context, accountID string, params ListMomentsParams, options ...RequestOption) (*CursorPage[Moment], error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   accountPath(accountID) + "/moments",
		route:  "/accounts/{account}/moments",
		query:  params.query().str("author_id", params.AuthorID).values(),
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: list moments of %s failed: %w", accountID, err)
	}
	return decode[CursorPage[Moment]](body, "list moments")
}

// RetrieveMoment fetches one moment with its likes and comments.
func (c *Client) RetrieveMoment(ctx context.Context, accountID, momentID string, options ...RequestOption) (*Moment, error) {
	if err := requireMoment(accountID, momentID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   momentPath(accountID, momentID),
		route:  "/accounts/{account}/moments/{moment}",
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: retrieve moment %s failed: %w", momentID, err)
	}
	return decode[Moment](body, "retrieve moment")
}

// CreateMoment validates moment and posts it to the account's feed.
func (c *Client) CreateMoment(ctx context.Context, accountID string, moment Moment, options ...RequestOption) (*Moment, error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	if err := moment.Validate(); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodPost,
		path:   accountPath(accountID) + "/moments",
		route:  "/accounts/{account}/moments",
		body:   moment,
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: create %s moment failed: %w", moment.Type, err)
	}
	created, err := decode[Moment](body, "create moment")
	if err != nil {
		return nil, err
	}
	c.logger.Info("created moment", "account_id", accountID, "moment_id", created.ID, "type", moment.Type)
	return created, nil
}

// DeleteMoment removes one of the account's moments.
func (c *Client) DeleteMoment(ctx context.Context, accountID, momentID string, options ...RequestOption) error {
	if err := requireMoment(accountID, momentID); err != nil {
		return err
	}
	_, err := c.request(ctx, requestSpec{
		method: http.MethodDelete,
		path:   momentPath(accountID, momentID),
		route:  "/accounts/{account}/moments/{moment}",
	}, options...)
	if err != nil {
		return fmt.Errorf("messaging: delete moment %s failed: %w", momentID, err)
	}
	return nil
}

// LikeMoment likes a moment as the account.
func (c *Client) LikeMoment(ctx context.Context, accountID, momentID string, options ...RequestOption) error {
	if err := requireMoment(accountID, momentID); err != nil {
		return err
	}
	_, err := c.request(ctx, requestSpec{
		method: http.MethodPost,
		path:   momentPath(accountID, momentID) + "/likes",
		route:  "/accounts/{account}/moments/{moment}/likes",
	}, options...)
	if err != nil {
		return fmt.Errorf("messaging: like moment %s failed: %w", momentID, err)
	}
	return nil
}

// CommentMoment comments on a moment.
func (c *Client) CommentMoment(ctx context.Context, accountID, momentID string, params CommentMomentParams, options ...RequestOption) (*MomentComment, error) {
	if err := requireMoment(accountID, momentID); err != nil {
		return nil, err
	}
	if params.Content == "" {
		return nil, fmt.Errorf("messaging: comment content is required")
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodPost,
		path:   momentPath(accountID, momentID) + "/comments",
		route:  "/accounts/{account}/moments/{moment}/comments",
		body:   params,
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: comment on moment %s failed: %w", momentID, err)
	}
	return decode[MomentComment](body, "comment moment")
}
