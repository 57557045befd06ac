// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pubsub

import (
	"context"
	"slices"
	"strconv"
	"sync"
)

// Hub is an in-process relay. Clients created with [Hub.Client] see
// each other's publishes on the channels they subscribe to. Delivery
// is synchronous: Publish returns after every listener has run.
type Hub struct {
	mu           sync.Mutex
	clients      []*HubClient
	published    []Delivery
	publishError   error
	subscribeError error
	sequence       int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Client returns a new client attached to the hub.
func (h *Hub) Client() *HubClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sequence++
	client := &HubClient{
		hub:      h,
		id:       "hub-client-" + strconv.Itoa(h.sequence),
		channels: make(map[string]struct{}),
	}
	h.clients = append(h.clients, client)
	return client
}

// Deliver pushes payload to every client subscribed to channel, as if
// the platform had published it.
func (h *Hub) Deliver(channel string, payload []byte) {
	h.fanOut(Delivery{Channel: channel, Payload: payload, Publisher: "platform"})
}

// Published returns every publish accepted by the hub, in order.
func (h *Hub) Published() []Delivery {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Delivery(nil), h.published...)
}

// FailPublishes makes every later publish return err. Pass nil to
// restore normal behavior.
func (h *Hub) FailPublishes(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publishError = err
}

// FailSubscribes makes every later subscribe return err. Pass nil to
// restore normal behavior.
func (h *Hub) FailSubscribes(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribeError = err
}

func (h *Hub) fanOut(delivery Delivery) {
	h.mu.Lock()
	var targets []func(Delivery)
	for _, client := range h.clients {
		targets = append(targets, client.listenersFor(delivery.Channel)...)
	}
	h.mu.Unlock()

	for _, listener := range targets {
		listener(delivery)
	}
}

// HubClient is a [Client] attached to a [Hub].
type HubClient struct {
	hub *Hub
	id  string

	mu             sync.Mutex
	channels       map[string]struct{}
	listeners      []func(Delivery)
	subscribeCalls [][]string
	closed         bool
}

// Publish delivers payload to subscribers of channel, including this
// client if it is subscribed.
func (c *HubClient) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	c.hub.mu.Lock()
	if err := c.hub.publishError; err != nil {
		c.hub.mu.Unlock()
		return err
	}
	delivery := Delivery{Channel: channel, Payload: append([]byte(nil), payload...), Publisher: c.id}
	c.hub.published = append(c.hub.published, delivery)
	c.hub.mu.Unlock()

	c.hub.fanOut(delivery)
	return nil
}

// Subscribe adds channels. Repeats are no-ops.
func (c *HubClient) Subscribe(channels ...string) error {
	c.hub.mu.Lock()
	subscribeError := c.hub.subscribeError
	c.hub.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.subscribeCalls = append(c.subscribeCalls, append([]string(nil), channels...))
	if subscribeError != nil {
		return subscribeError
	}
	for _, channel := range channels {
		c.channels[channel] = struct{}{}
	}
	return nil
}

// AddListener registers listener.
func (c *HubClient) AddListener(listener func(Delivery)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// ListenerCount reports how many listeners are registered.
func (c *HubClient) ListenerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// SubscribeCalls returns the arguments of every Subscribe call.
func (c *HubClient) SubscribeCalls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]string(nil), c.subscribeCalls...)
}

// Close detaches the client. Later operations return ErrClosed.
func (c *HubClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.listeners = nil
	return nil
}

func (c *HubClient) listenersFor(channel string) []func(Delivery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if _, ok := c.channels[channel]; !ok {
		return nil
	}
	return slices.Clone(c.listeners)
}
