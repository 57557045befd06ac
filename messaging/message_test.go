// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewTextMessage(t *testing.T) {
	message := NewTextMessage("U2", "hello")

	if message.Type != MessageText {
		t.Errorf("Type = %q", message.Type)
	}
	if message.Text == nil || message.Text.Content != "hello" {
		t.Errorf("Text = %+v", message.Text)
	}
	if message.To != "U2" || message.Flow != FlowOut || message.Status != StatusPending {
		t.Errorf("To %q, Flow %q, Status %q", message.To, message.Flow, message.Status)
	}
	if _, err := uuid.Parse(message.ClientID); err != nil {
		t.Errorf("ClientID %q is not a UUID: %v", message.ClientID, err)
	}
	if message.Image != nil || message.Audio != nil || message.Video != nil || message.File != nil || message.Link != nil {
		t.Errorf("text message carries other payloads: %+v", message)
	}
	if err := message.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if other := NewTextMessage("U2", "hello"); other.ClientID == message.ClientID {
		t.Error("two messages share a ClientID")
	}
}

func TestTextMessageWireForm(t *testing.T) {
	encoded, err := json.Marshal(NewTextMessage("U2", "hello"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var wire map[string]any
	if err := json.Unmarshal(encoded, &wire); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, absent := range []string{"image", "audio", "video", "file", "link", "id", "created_at"} {
		if _, ok := wire[absent]; ok {
			t.Errorf("wire form has %q: %s", absent, encoded)
		}
	}
	if text, ok := wire["text"].(map[string]any); !ok || text["content"] != "hello" {
		t.Errorf("wire text = %v", wire["text"])
	}
}

func TestBuildersProduceValidMessages(t *testing.T) {
	messages := map[MessageType]Message{
		MessageText:  NewTextMessage("u", "t"),
		MessageImage: NewImageMessage("u", ImagePayload{URL: "https://cdn/i.png"}),
		MessageAudio: NewAudioMessage("u", AudioPayload{URL: "https://cdn/a.amr", Duration: 3000}),
		MessageVideo: NewVideoMessage("u", VideoPayload{URL: "https://cdn/v.mp4"}),
		MessageFile:  NewFileMessage("u", FilePayload{URL: "https://cdn/f.pdf", Name: "f.pdf"}),
		MessageLink:  NewLinkMessage("u", LinkPayload{URL: "https://example.com"}),
	}
	for messageType, message := range messages {
		if message.Type != messageType {
			t.Errorf("%s builder set Type %q", messageType, message.Type)
		}
		if err := message.Validate(); err != nil {
			t.Errorf("%s: Validate: %v", messageType, err)
		}
		if count := message.payloadCount(); count != 1 {
			t.Errorf("%s: %d payloads", messageType, count)
		}
	}
}

func TestMessageValidate(t *testing.T) {
	mismatched := NewTextMessage("u", "t")
	mismatched.Type = MessageImage
	if err := mismatched.Validate(); err == nil {
		t.Error("image message with a text payload validated")
	}

	extra := NewTextMessage("u", "t")
	extra.Image = &ImagePayload{URL: "x"}
	if err := extra.Validate(); err == nil {
		t.Error("text message with an image validated")
	}

	unknown := Message{Type: "hologram"}
	if err := unknown.Validate(); !errors.Is(err, ErrUnsupportedMessageType) {
		t.Errorf("error = %v, want ErrUnsupportedMessageType", err)
	}
}

func TestNewMessage(t *testing.T) {
	message, err := NewMessage(MessageText, "u", "hi")
	if err != nil || message.Text == nil || message.Text.Content != "hi" {
		t.Errorf("NewMessage(text) = %+v, %v", message, err)
	}
	message, err = NewMessage(MessageVideo, "u", VideoPayload{URL: "v"})
	if err != nil || message.Video == nil {
		t.Errorf("NewMessage(video) = %+v, %v", message, err)
	}
	if _, err := NewMessage(MessageImage, "u", "not an image"); err == nil {
		t.Error("mismatched payload accepted")
	}
	if _, err := NewMessage("sticker", "u", nil); !errors.Is(err, ErrUnsupportedMessageType) {
		t.Errorf("error = %v, want ErrUnsupportedMessageType", err)
	}
}

func TestMomentBuildersAndValidate(t *testing.T) {
	valid := []Moment{
		NewTextMoment("hello"),
		NewImageMoment("", ImagePayload{URL: "a"}, ImagePayload{URL: "b"}),
		NewVideoMoment("clip", VideoPayload{URL: "v"}),
		NewLinkMoment("", LinkPayload{URL: "https://example.com"}),
	}
	for _, moment := range valid {
		if err := moment.Validate(); err != nil {
			t.Errorf("%s moment: %v", moment.Type, err)
		}
		if moment.ClientID == "" {
			t.Errorf("%s moment has no ClientID", moment.Type)
		}
	}

	invalid := map[string]Moment{
		"empty text":       NewTextMoment(""),
		"text with media":  {Type: MomentText, Text: "t", Video: &VideoPayload{URL: "v"}},
		"image without":    NewImageMoment("caption"),
		"image with video": {Type: MomentImage, Images: []ImagePayload{{URL: "a"}}, Video: &VideoPayload{URL: "v"}},
		"too many images":  NewImageMoment("", make([]ImagePayload, MaxMomentImages+1)...),
		"video without":    {Type: MomentVideo},
		"link with images": {Type: MomentLink, Link: &LinkPayload{URL: "l"}, Images: []ImagePayload{{URL: "a"}}},
	}
	for name, moment := range invalid {
		if err := moment.Validate(); err == nil {
			t.Errorf("%s: validated", name)
		}
	}

	if err := (&Moment{Type: "story"}).Validate(); !errors.Is(err, ErrUnsupportedMomentType) {
		t.Errorf("error = %v, want ErrUnsupportedMomentType", err)
	}
	if _, err := NewMoment("story", "", nil); !errors.Is(err, ErrUnsupportedMomentType) {
		t.Errorf("NewMoment error = %v, want ErrUnsupportedMomentType", err)
	}
	if moment, err := NewMoment(MomentImage, "", []ImagePayload{{URL: "a"}}); err != nil || len(moment.Images) != 1 {
		t.Errorf("NewMoment(image) = %+v, %v", moment, err)
	}
}
