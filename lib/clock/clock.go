// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the subset of the time package that imlink components use.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once d has elapsed. A
	// non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// NewTimer returns a one-shot timer that can be stopped before it
	// fires. Used where the losing side of a race must release its
	// timer.
	NewTimer(d time.Duration) *Timer

	// NewTicker returns a ticker firing every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a stoppable one-shot timer. C has capacity 1.
type Timer struct {
	C <-chan time.Time

	stop func() bool
}

// Stop prevents the timer from firing. It reports whether the call
// stopped a pending timer.
func (t *Timer) Stop() bool { return t.stop() }

// Ticker delivers periodic ticks on C. Ticks are dropped when the
// consumer falls behind, as with time.Ticker.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off. C is not closed.
func (t *Ticker) Stop() { t.stop() }
