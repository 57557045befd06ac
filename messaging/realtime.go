// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/imlink/pubsub"
)

// Dispatcher returns the client's event dispatcher.
func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// On registers handler for real-time events of eventType and returns a
// function that removes it. The first registration attaches the
// client's listener to the pub/sub connection.
func (c *Client) On(eventType EventType, handler Handler) (unsubscribe func()) {
	c.startListening()
	return c.dispatcher.On(eventType, handler)
}

// OnAny registers handler for every real-time event.
func (c *Client) OnAny(handler Handler) (unsubscribe func()) {
	c.startListening()
	return c.dispatcher.OnAny(handler)
}

func (c *Client) startListening() {
	c.listenOnce.Do(func() {
		if c.realtime == nil {
			c.logger.Debug("no pub/sub connection, events will not arrive")
			return
		}
		c.realtime.AddListener(c.handleDelivery)
	})
}

func (c *Client) handleDelivery(delivery pubsub.Delivery) {
	event, err := DecodeEvent(delivery.Payload)
	if err != nil {
		c.logger.Warn("dropping undecodable event", "channel", delivery.Channel, "error", err)
		return
	}
	c.metrics.countEvent(event.EventType())
	c.dispatcher.Dispatch(event)
}

// SubscribeAccounts subscribes the channels of accountIDs. Channels
// already subscribed are not requested again.
func (c *Client) SubscribeAccounts(accountIDs ...string) error {
	if c.realtime == nil {
		return ErrRealtimeUnavailable
	}
	channels := make([]string, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		if accountID != "" {
			channels = append(channels, pubsub.AccountChannel(accountID))
		}
	}
	err := c.realtime.Subscribe(channels...)
	c.metrics.setSubscriptions(len(c.realtime.Subscribed()))
	return err
}

// subscribeFetched subscribes accounts returned by a list or retrieve
// call. Failures are logged; the fetch itself has succeeded.
func (c *Client) subscribeFetched(accounts ...Account) {
	ids := make([]string, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.ID)
	}
	if err := c.SubscribeAccounts(ids...); err != nil {
		c.logger.Warn("subscribing fetched accounts failed", "accounts", ids, "error", err)
	}
}

// SendTyping publishes a typing indicator on the account's channel.
// Typing signals travel over pub/sub only; messages go through
// [Client.SendMessage].
func (c *Client) SendTyping(ctx context.Context, accountID, conversationID string, typing bool) error {
	if c.realtime == nil {
		return ErrRealtimeUnavailable
	}
	if accountID == "" || conversationID == "" {
		return fmt.Errorf("messaging: account and conversation ids are required")
	}
	payload, err := EncodeEvent(TypingEvent{
		AccountID:      accountID,
		ConversationID: conversationID,
		Typing:         typing,
	})
	if err != nil {
		return err
	}
	if err := c.realtime.Publish(ctx, pubsub.AccountChannel(accountID), json.RawMessage(payload)); err != nil {
		return fmt.Errorf("messaging: send typing failed: %w", err)
	}
	return nil
}
