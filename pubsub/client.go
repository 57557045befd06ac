// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pubsub

import (
	"context"
	"errors"
	"fmt"
)

// Delivery is one inbound message on a channel.
type Delivery struct {
	Channel   string
	Payload   []byte
	Publisher string
}

// Client is a real-time messaging client.
type Client interface {
	// Publish sends payload to channel and returns once the transport
	// has acknowledged it.
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe starts delivery for channels. Subscribing to a channel
	// that is already subscribed must be harmless.
	Subscribe(channels ...string) error

	// AddListener registers a callback for every delivery. Listeners
	// are called from the client's delivery goroutine.
	AddListener(listener func(Delivery))

	Close() error
}

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("pubsub: client closed")

// ErrDisconnected is returned for publishes that were in flight when
// the connection dropped.
var ErrDisconnected = errors.New("pubsub: connection lost")

// PublishError is a publish rejected by the relay.
type PublishError struct {
	Channel string
	Message string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("pubsub: publish to %s rejected: %s", e.Channel, e.Message)
}

// AccountChannel returns the channel carrying events for accountID.
func AccountChannel(accountID string) string {
	return "account-" + accountID
}
