// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pubsub is imlink's real-time channel layer.
//
// The platform pushes events for each account on a channel named
// account-{id}. A [Client] is anything that can publish to, subscribe
// to, and deliver messages from such channels: [WebSocketClient] talks
// to the platform relay, and [Hub] is an in-process stand-in for tests
// and offline tooling.
//
// [Adapter] sits between the SDK and a Client. It owns the set of
// subscribed channels, so asking for a channel twice never reaches the
// Client twice, and it fans inbound deliveries out to any number of
// listeners through a single listener registered on the Client. A
// listener that panics is logged and skipped; the others still run.
package pubsub
