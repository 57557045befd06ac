// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "time"

// AccountStatus is an account's presence state.
type AccountStatus string

const (
	AccountOnline  AccountStatus = "online"
	AccountOffline AccountStatus = "offline"
	AccountExpired AccountStatus = "expired"
)

// Account is a connected IM identity.
type Account struct {
	ID        string        `json:"id"`
	Provider  string        `json:"provider"`
	OpenID    string        `json:"open_id,omitempty"`
	CustomID  string        `json:"custom_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Avatar    string        `json:"avatar,omitempty"`
	Signature string        `json:"signature,omitempty"`
	Status    AccountStatus `json:"status,omitempty"`
	CreatedAt time.Time     `json:"created_at,omitzero"`
}

// Contact is a user in an account's address book.
type Contact struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Name      string `json:"name,omitempty"`
	Remark    string `json:"remark,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Region    string `json:"region,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Group is a group chat the account belongs to.
type Group struct {
	ID           string `json:"id"`
	AccountID    string `json:"account_id"`
	Name         string `json:"name,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	Announcement string `json:"announcement,omitempty"`
	OwnerID      string `json:"owner_id,omitempty"`
	MemberCount  int    `json:"member_count,omitempty"`
}

// MemberRole is a group member's role.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// GroupMember is one member of a group.
type GroupMember struct {
	ID      string     `json:"id"`
	GroupID string     `json:"group_id"`
	Name    string     `json:"name,omitempty"`
	Alias   string     `json:"alias,omitempty"`
	Avatar  string     `json:"avatar,omitempty"`
	Role    MemberRole `json:"role,omitempty"`
}

// ConversationType distinguishes one-to-one from group conversations.
type ConversationType string

const (
	ConversationUser  ConversationType = "user"
	ConversationGroup ConversationType = "group"
)

// Conversation is a channel between an account and a user or group.
type Conversation struct {
	ID          string           `json:"id"`
	AccountID   string           `json:"account_id"`
	Type        ConversationType `json:"type"`
	TargetID    string           `json:"target_id"`
	Name        string           `json:"name,omitempty"`
	LastMessage *Message         `json:"last_message,omitempty"`
	UnreadCount int              `json:"unread_count"`
	Pinned      bool             `json:"pinned"`
	UpdatedAt   time.Time        `json:"updated_at,omitzero"`
}

// OffsetPage is a page of an offset-paginated list.
type OffsetPage[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Direction selects which side of a cursor to read.
type Direction string

const (
	Before Direction = "before"
	After  Direction = "after"
)

// CursorParams are the parameters of cursor-paginated lists. Zero
// values are not sent.
type CursorParams struct {
	Cursor    string
	Direction Direction
	Limit     int
}

func (p CursorParams) query() query {
	return query{}.str("cursor", p.Cursor).str("direction", string(p.Direction)).num("limit", p.Limit)
}

// CursorPage is a page of a cursor-paginated list. HasPrevious and
// HasNext are reported by the server as-is.
type CursorPage[T any] struct {
	Items       []T    `json:"items"`
	Cursor      string `json:"cursor,omitempty"`
	HasPrevious bool   `json:"has_previous"`
	HasNext     bool   `json:"has_next"`
}

// OffsetParams are the parameters of offset-paginated lists.
type OffsetParams struct {
	Offset int
	Limit  int
}

func (p OffsetParams) query() query {
	return query{}.num("offset", p.Offset).num("limit", p.Limit)
}
