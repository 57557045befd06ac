// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "context"

// WaitForEvent blocks until dispatcher delivers an event accepted by
// match (nil accepts any), or ctx is done. Matching happens on the
// dispatching goroutine, so no event is missed between registration
// and return.
func WaitForEvent(ctx context.Context, dispatcher *Dispatcher, match func(Event) bool) (Event, error) {
	found := make(chan Event, 1)
	unsubscribe := dispatcher.OnAny(func(event Event) {
		if match != nil && !match(event) {
			return
		}
		select {
		case found <- event:
		default:
		}
	})
	defer unsubscribe()

	select {
	case event := <-found:
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WaitForEvent waits for a real-time event accepted by match.
func (c *Client) WaitForEvent(ctx context.Context, match func(Event) bool) (Event, error) {
	if c.realtime == nil {
		return nil, ErrRealtimeUnavailable
	}
	c.startListening()
	return WaitForEvent(ctx, c.dispatcher, match)
}

// WaitForMessage waits for a new message in conversationID of
// accountID.
func (c *Client) WaitForMessage(ctx context.Context, accountID, conversationID string) (*Message, error) {
	event, err := c.WaitForEvent(ctx, func(event Event) bool {
		newMessage, ok := event.(NewMessageEvent)
		return ok && newMessage.AccountID == accountID && newMessage.Message.ConversationID == conversationID
	})
	if err != nil {
		return nil, err
	}
	message := event.(NewMessageEvent).Message
	return &message, nil
}
