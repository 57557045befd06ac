// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that request
// timeouts, handshake polling, grace delays and reconnect backoff can be
// driven deterministically in tests.
//
// Components hold a Clock field that defaults to Real(). Tests substitute
// Fake(), register the component's timers by starting it, call
// WaitForTimers to synchronize with the goroutine that created them, and
// then Advance to fire them:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go handshake.Run(ctx, request)
//	fake.WaitForTimers(1)
//	fake.Advance(500 * time.Millisecond)
package clock
