// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
)

// Adapter wraps a Client with a deduplicated subscription set and
// panic-safe listener fan-out.
type Adapter struct {
	client Client
	logger *slog.Logger

	mu         sync.Mutex
	subscribed map[string]struct{}
	listeners  []func(Delivery)
	installed  bool
}

// NewAdapter wraps client. A nil logger discards log output.
func NewAdapter(client Client, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		client:     client,
		logger:     logger,
		subscribed: make(map[string]struct{}),
	}
}

// Publish JSON-encodes message and publishes it to channel, returning
// once the client acknowledges.
func (a *Adapter) Publish(ctx context.Context, channel string, message any) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("pubsub: encoding message for %s: %w", channel, err)
	}
	if err := a.client.Publish(ctx, channel, payload); err != nil {
		return fmt.Errorf("pubsub: publish to %s failed: %w", channel, err)
	}
	return nil
}

// Subscribe adds channels to the subscription set and forwards only
// the ones not already in it. When the client rejects the request the
// added channels leave the set again, so a later call retries them.
func (a *Adapter) Subscribe(channels ...string) error {
	a.mu.Lock()
	var added []string
	for _, channel := range channels {
		if channel == "" {
			continue
		}
		if _, ok := a.subscribed[channel]; ok {
			continue
		}
		a.subscribed[channel] = struct{}{}
		added = append(added, channel)
	}
	a.mu.Unlock()

	if len(added) == 0 {
		return nil
	}
	if err := a.client.Subscribe(added...); err != nil {
		a.mu.Lock()
		for _, channel := range added {
			delete(a.subscribed, channel)
		}
		a.mu.Unlock()
		a.logger.Warn("subscribe failed", "channels", added, "error", err)
		return fmt.Errorf("pubsub: subscribe %v failed: %w", added, err)
	}
	a.logger.Debug("subscribed", "channels", added)
	return nil
}

// Subscribed returns the subscription set, sorted.
func (a *Adapter) Subscribed() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	channels := make([]string, 0, len(a.subscribed))
	for channel := range a.subscribed {
		channels = append(channels, channel)
	}
	sort.Strings(channels)
	return channels
}

// IsSubscribed reports whether channel is in the set.
func (a *Adapter) IsSubscribed(channel string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.subscribed[channel]
	return ok
}

// AddListener registers listener for every delivery. The first call
// installs the adapter's single listener on the client.
func (a *Adapter) AddListener(listener func(Delivery)) {
	a.mu.Lock()
	a.listeners = append(a.listeners, listener)
	install := !a.installed
	a.installed = true
	a.mu.Unlock()

	if install {
		a.client.AddListener(a.deliver)
	}
}

func (a *Adapter) deliver(delivery Delivery) {
	a.mu.Lock()
	listeners := slices.Clone(a.listeners)
	a.mu.Unlock()

	for _, listener := range listeners {
		a.invoke(listener, delivery)
	}
}

func (a *Adapter) invoke(listener func(Delivery), delivery Delivery) {
	defer func() {
		if recovered := recover(); recovered != nil {
			a.logger.Warn("pub/sub listener panicked",
				"channel", delivery.Channel,
				"panic", recovered,
			)
		}
	}()
	listener(delivery)
}

// Close closes the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}
