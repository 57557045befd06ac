// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListGroupsParams filters the group list.
type ListGroupsParams struct {
	Offset  int
	Limit   int
	Keyword string
}

// CreateGroupParams describes a new group. MemberIDs are the initial
// members besides the account itself.
type CreateGroupParams struct {
	Name      string   `json:"name,omitempty"`
	MemberIDs []string `json:"member_ids"`
}

// UpdateGroupParams holds the fields to change.
type UpdateGroupParams struct {
	Name         *string `json:"name,omitempty"`
	Announcement *string `json:"announcement,omitempty"`
}

func groupPath(accountID, groupID string) string {
	return accountPath(accountID) + "/groups/" + url.PathEscape(groupID)
}

func requireGroup(accountID, groupID string) error {
	if err := requireID("account", accountID); err != nil {
		return err
	}
	return requireID("group", groupID)
}

// ListGroups lists the groups the account belongs to.
func (c *Client) ListGroups(ctx context.Context, accountID string, params ListGroupsParams, options ...RequestOption) (*OffsetPage[Group], error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	q := OffsetParams{Offset: params.Offset, Limit: params.Limit}.query().str("keyword", params.Keyword)
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   accountPath(accountID) + "/groups",
		route:  "/accounts/{account}/groups",
		query:  q.values(),
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: list groups of %s failed: %w", accountID, err)
	}
	return decode[OffsetPage[Group]](body, "list groups")
}

// RetrieveGroup fetches one group.
func (c *Client) RetrieveGroup(ctx context.Context, accountID, groupID string, options ...RequestOption) (*Group, error) {
	if err := requireGroup(accountID, groupID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   groupPath(accountID, groupID),
		route:  "/accounts/{account}/groups/{group}",
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: retrieve group %s failed: %w", groupID, err)
	}
	return decode[Group](body, "retrieve group")
}

// CreateGroup creates a group chat.
func (c *Client) CreateGroup(ctx context.Context, accountID string, params CreateGroupParams, options ...RequestOption) (*Group, error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	if len(params.MemberIDs) == 0 {
		return nil, fmt.Errorf("messaging: a group needs at least one other member")
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodPost,
		path:   accountPath(accountID) + "/groups",
		route:  "/accounts/{account}/groups",
		body:   params,
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: create group failed: %w", err)
	}
	group, err := decode[Group](body, "create group")
	if err != nil {
		return nil, err
	}
	c.logger.Info("created group", "account_id", accountID, "group_id", group.ID, "members", len(params.MemberIDs))
	return group, nil
}

// UpdateGroup changes a group's name or announcement.
func (c *Client) UpdateGroup(ctx context.Context, accountID, groupID string, params UpdateGroupParams, options ...RequestOption) (*Group, error) {
	if err := requireGroup(accountID, groupID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodPatch,
		path:   groupPath(accountID, groupID),
		route:  "/accounts/{account}/groups/{group}",
		body:   params,
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: update group %s failed: %w", groupID, err)
	}
	return decode[Group](body, "update group")
}

// QuitGroup leaves a group.
func (c *Client) QuitGroup(ctx context.Context, accountID, groupID string, options ...RequestOption) error {
	if err := requireGroup(accountID, groupID); err != nil {
		return err
	}
	_, err := c.request(ctx, requestSpec{
		method: http.MethodDelete,
		path:   groupPath(accountID, groupID),
		route:  "/accounts/{account}/groups/{group}",
	}, options...)
	if err != nil {
		return fmt.Errorf("messaging: quit group %s failed: %w", groupID, err)
	}
	return nil
}

// ListGroupMembers lists the members of a group.
func (c *Client) ListGroupMembers(ctx context.Context, accountID, groupID string, params OffsetParams, options ...RequestOption) (*OffsetPage[GroupMember], error) {
	if err := requireGroup(accountID, groupID); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodGet,
		path:   groupPath(accountID, groupID) + "/members",
		route:  "/accounts/{account}/groups/{group}/members",
		query:  params.query().values(),
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: list members of %s failed: %w", groupID, err)
	}
	return decode[OffsetPage[GroupMember]](body, "list group members")
}

// AddGroupMembers invites users into a group.
func (c *Client) AddGroupMembers(ctx context.Context, accountID, groupID string, userIDs []string, options ...RequestOption) error {
	if err := requireGroup(accountID, groupID); err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return fmt.Errorf("messaging: no users to add")
	}
	_, err := c.request(ctx, requestSpec{
		method: http.MethodPost,
		path:   groupPath(accountID, groupID) + "/members",
		route:  "/accounts/{account}/groups/{group}/members",
		body:   map[string][]string{"user_ids": userIDs},
	}, options...)
	if err != nil {
		return fmt.Errorf("messaging: add members to %s failed: %w", groupID, err)
	}
	return nil
}

// RemoveGroupMember removes a user from a group.
func (c *Client) RemoveGroupMember(ctx context.Context, accountID, groupID, userID string, options ...RequestOption) error {
	if err := requireGroup(accountID, groupID); err != nil {
		return err
	}
	if err := requireID("user", userID); err != nil {
		return err
	}
	_, err := c.request(ctx, requestSpec{
		method: http.MethodDelete,
		path:   groupPath(accountID, groupID) + "/members/" + url.PathEscape(userID),
		route:  "/accounts/{account}/groups/{group}/members/{user}",
	}, options...)
	if err != nil {
		return fmt.Errorf("messaging: remove %s from %s failed: %w", userID, groupID, err)
	}
	return nil
}
