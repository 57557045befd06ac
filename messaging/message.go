// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType discriminates the payload of a [Message].
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageAudio MessageType = "audio"
	MessageVideo MessageType = "video"
	MessageFile  MessageType = "file"
	MessageLink  MessageType = "link"
)

// Flow is the direction of a message relative to the account.
type Flow string

const (
	FlowIn  Flow = "in"
	FlowOut Flow = "out"
)

// MessageStatus is the delivery state of a message.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
	StatusRecalled  MessageStatus = "recalled"
)

// TextPayload is the body of a text message.
type TextPayload struct {
	Content string `json:"content"`
}

// ImagePayload references a stored image.
type ImagePayload struct {
	URL          string `json:"url"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Size         int64  `json:"size,omitempty"`
	Hash         string `json:"hash,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// AudioPayload references a stored voice clip. Duration is in
// milliseconds.
type AudioPayload struct {
	URL      string `json:"url"`
	Duration int    `json:"duration,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Hash     string `json:"hash,omitempty"`
}

// VideoPayload references a stored video. Duration is in milliseconds.
type VideoPayload struct {
	URL      string `json:"url"`
	Duration int    `json:"duration,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Hash     string `json:"hash,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`
}

// FilePayload references a stored file attachment.
type FilePayload struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
	Hash string `json:"hash,omitempty"`
}

// LinkPayload is a shared link card.
type LinkPayload struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// Message is a unit of communication. Exactly the payload field named
// by Type is set.
type Message struct {
	// ID is assigned by the server; ClientID by the sender before the
	// message is sent.
	ID             string `json:"id,omitempty"`
	ClientID       string `json:"client_id,omitempty"`
	AccountID      string `json:"account_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	// Seq orders messages within a conversation.
	Seq    int64         `json:"seq,omitempty"`
	Type   MessageType   `json:"type"`
	Flow   Flow          `json:"flow,omitempty"`
	From   string        `json:"from,omitempty"`
	To     string        `json:"to,omitempty"`
	Status MessageStatus `json:"status,omitempty"`

	Text  *TextPayload  `json:"text,omitempty"`
	Image *ImagePayload `json:"image,omitempty"`
	Audio *AudioPayload `json:"audio,omitempty"`
	Video *VideoPayload `json:"video,omitempty"`
	File  *FilePayload  `json:"file,omitempty"`
	Link  *LinkPayload  `json:"link,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Validate checks that the payload matches Type.
func (m *Message) Validate() error {
	var present bool
	switch m.Type {
	case MessageText:
		present = m.Text != nil
	case MessageImage:
		present = m.Image != nil
	case MessageAudio:
		present = m.Audio != nil
	case MessageVideo:
		present = m.Video != nil
	case MessageFile:
		present = m.File != nil
	case MessageLink:
		present = m.Link != nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMessageType, m.Type)
	}
	if !present {
		return fmt.Errorf("messaging: %s message has no %s payload", m.Type, m.Type)
	}
	if count := m.payloadCount(); count != 1 {
		return fmt.Errorf("messaging: %s message carries %d payloads", m.Type, count)
	}
	return nil
}

func (m *Message) payloadCount() int {
	count := 0
	for _, set := range []bool{m.Text != nil, m.Image != nil, m.Audio != nil, m.Video != nil, m.File != nil, m.Link != nil} {
		if set {
			count++
		}
	}
	return count
}

func newOutgoing(messageType MessageType, to string) Message {
	return Message{
		ClientID: uuid.NewString(),
		Type:     messageType,
		Flow:     FlowOut,
		To:       to,
		Status:   StatusPending,
	}
}

// NewTextMessage builds a pending outbound text message to a user or
// group id.
func NewTextMessage(to, content string) Message {
	message := newOutgoing(MessageText, to)
	message.Text = &TextPayload{Content: content}
	return message
}

// NewImageMessage builds a pending outbound image message.
func NewImageMessage(to string, image ImagePayload) Message {
	message := newOutgoing(MessageImage, to)
	message.Image = &image
	return message
}

// NewAudioMessage builds a pending outbound audio message.
func NewAudioMessage(to string, audio AudioPayload) Message {
	message := newOutgoing(MessageAudio, to)
	message.Audio = &audio
	return message
}

// NewVideoMessage builds a pending outbound video message.
func NewVideoMessage(to string, video VideoPayload) Message {
	message := newOutgoing(MessageVideo, to)
	message.Video = &video
	return message
}

// NewFileMessage builds a pending outbound file message.
func NewFileMessage(to string, file FilePayload) Message {
	message := newOutgoing(MessageFile, to)
	message.File = &file
	return message
}

// NewLinkMessage builds a pending outbound link message.
func NewLinkMessage(to string, link LinkPayload) Message {
	message := newOutgoing(MessageLink, to)
	message.Link = &link
	return message
}

// NewMessage builds a message of messageType from a payload of the
// matching type: a string or TextPayload for text, ImagePayload for
// image, and so on. A mismatched payload is an error.
func NewMessage(messageType MessageType, to string, payload any) (Message, error) {
	switch messageType {
	case MessageText:
		switch text := payload.(type) {
		case string:
			return NewTextMessage(to, text), nil
		case TextPayload:
			return NewTextMessage(to, text.Content), nil
		}
	case MessageImage:
		if image, ok := payload.(ImagePayload); ok {
			return NewImageMessage(to, image), nil
		}
	case MessageAudio:
		if audio, ok := payload.(AudioPayload); ok {
			return NewAudioMessage(to, audio), nil
		}
	case MessageVideo:
		if video, ok := payload.(VideoPayload); ok {
			return NewVideoMessage(to, video), nil
		}
	case MessageFile:
		if file, ok := payload.(FilePayload); ok {
			return NewFileMessage(to, file), nil
		}
	case MessageLink:
		if link, ok := payload.(LinkPayload); ok {
			return NewLinkMessage(to, link), nil
		}
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnsupportedMessageType, messageType)
	}
	return Message{}, fmt.Errorf("messaging: %T is not a %s payload", payload, messageType)
}
