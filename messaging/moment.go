// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MomentType discriminates the media of a [Moment].
type MomentType string

const (
	MomentText  MomentType = "text"
	MomentImage MomentType = "image"
	MomentVideo MomentType = "video"
	MomentLink  MomentType = "link"
)

// MaxMomentImages is the most images one moment can carry.
const MaxMomentImages = 9

// Moment is a social-feed post. Text is the caption and may accompany
// any type; the media field named by Type is the only one set.
type Moment struct {
	ID        string          `json:"id,omitempty"`
	ClientID  string          `json:"client_id,omitempty"`
	AccountID string          `json:"account_id,omitempty"`
	AuthorID  string          `json:"author_id,omitempty"`
	Type      MomentType      `json:"type"`
	Text      string          `json:"text,omitempty"`
	Images    []ImagePayload  `json:"images,omitempty"`
	Video     *VideoPayload   `json:"video,omitempty"`
	Link      *LinkPayload    `json:"link,omitempty"`
	Likes     []MomentLike    `json:"likes,omitempty"`
	Comments  []MomentComment `json:"comments,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitzero"`
}

// MomentLike is one like on a moment.
type MomentLike struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// MomentComment is one comment on a moment. ReplyTo is the id of the
// user being answered, if any.
type MomentComment struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Content   string    `json:"content"`
	ReplyTo   string    `json:"reply_to,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Validate checks that the media matches Type.
func (m *Moment) Validate() error {
	hasImages, hasVideo, hasLink := len(m.Images) > 0, m.Video != nil, m.Link != nil
	switch m.Type {
	case MomentText:
		if m.Text == "" {
			return fmt.Errorf("messaging: text moment has no text")
		}
		if hasImages || hasVideo || hasLink {
			return fmt.Errorf("messaging: text moment carries media")
		}
	case MomentImage:
		if !hasImages {
			return fmt.Errorf("messaging: image moment has no images")
		}
		if len(m.Images) > MaxMomentImages {
			return fmt.Errorf("messaging: image moment has %d images, limit is %d", len(m.Images), MaxMomentImages)
		}
		if hasVideo || hasLink {
			return fmt.Errorf("messaging: image moment carries other media")
		}
	case MomentVideo:
		if !hasVideo {
			return fmt.Errorf("messaging: video moment has no video")
		}
		if hasImages || hasLink {
			return fmt.Errorf("messaging: video moment carries other media")
		}
	case MomentLink:
		if !hasLink {
			return fmt.Errorf("messaging: link moment has no link")
		}
		if hasImages || hasVideo {
			return fmt.Errorf("messaging: link moment carries other media")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMomentType, m.Type)
	}
	return nil
}

func newMoment(momentType MomentType, text string) Moment {
	return Moment{ClientID: uuid.NewString(), Type: momentType, Text: text}
}

// NewTextMoment builds a text-only moment.
func NewTextMoment(text string) Moment {
	return newMoment(MomentText, text)
}

// NewImageMoment builds an image moment with an optional caption.
func NewImageMoment(text string, images ...ImagePayload) Moment {
	moment := newMoment(MomentImage, text)
	moment.Images = append([]ImagePayload(nil), images...)
	return moment
}

// NewVideoMoment builds a video moment with an optional caption.
func NewVideoMoment(text string, video VideoPayload) Moment {
	moment := newMoment(MomentVideo, text)
	moment.Video = &video
	return moment
}

// NewLinkMoment builds a link moment with an optional caption.
func NewLinkMoment(text string, link LinkPayload) Moment {
	moment := newMoment(MomentLink, text)
	moment.Link = &link
	return moment
}

// NewMoment builds a moment of momentType. payload is nil for text,
// an ImagePayload or []ImagePayload for image, a VideoPayload for
// video and a LinkPayload for link.
func NewMoment(momentType MomentType, text string, payload any) (Moment, error) {
	switch momentType {
	case MomentText:
		if payload == nil {
			return NewTextMoment(text), nil
		}
	case MomentImage:
		switch images := payload.(type) {
		case ImagePayload:
			return NewImageMoment(text, images), nil
		case []ImagePayload:
			return NewImageMoment(text, images...), nil
		}
	case MomentVideo:
		if video, ok := payload.(VideoPayload); ok {
			return NewVideoMoment(text, video), nil
		}
	case MomentLink:
		if link, ok := payload.(LinkPayload); ok {
			return NewLinkMoment(text, link), nil
		}
	default:
		return Moment{}, fmt.Errorf("%w: %q", ErrUnsupportedMomentType, momentType)
	}
	return Moment{}, fmt.Errorf("messaging: %T is not a %s moment payload", payload, momentType)
}
