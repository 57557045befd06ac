// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only when Advance is called.
// It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*pendingTimer
	changed *sync.Cond
}

type pendingTimer struct {
	deadline time.Time
	channel  chan time.Time
	// period is non-zero for tickers, which are rescheduled after
	// each firing instead of being removed.
	period  time.Duration
	stopped bool
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{now: initial}
	fake.changed = sync.NewCond(&fake.mu)
	return fake
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After registers a one-shot timer and returns its channel.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	return c.NewTimer(d).C
}

// NewTimer registers a one-shot timer. A non-positive d fires
// immediately without registering.
func (c *FakeClock) NewTimer(d time.Duration) *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.now
		return &Timer{C: channel, stop: func() bool { return false }}
	}

	timer := &pendingTimer{deadline: c.now.Add(d), channel: channel}
	c.register(timer)
	return &Timer{C: channel, stop: func() bool { return c.cancel(timer) }}
}

// NewTicker registers a periodic timer.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	timer := &pendingTimer{deadline: c.now.Add(d), channel: channel, period: d}
	c.register(timer)
	return &Ticker{C: channel, stop: func() { c.cancel(timer) }}
}

// register must be called with c.mu held.
func (c *FakeClock) register(timer *pendingTimer) {
	c.pending = append(c.pending, timer)
	c.changed.Broadcast()
}

func (c *FakeClock) cancel(timer *pendingTimer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for index, candidate := range c.pending {
		if candidate == timer {
			c.pending = append(c.pending[:index], c.pending[index+1:]...)
			timer.stopped = true
			c.changed.Broadcast()
			return true
		}
	}
	return false
}

// Advance moves time forward by d, firing every timer whose deadline
// is reached, in deadline order. A ticker spanning several periods
// fires once per period; sends that would block are dropped.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now

	for {
		var due []*pendingTimer
		var remaining []*pendingTimer
		for _, timer := range c.pending {
			if timer.deadline.After(target) {
				remaining = append(remaining, timer)
			} else {
				due = append(due, timer)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.SliceStable(due, func(i, j int) bool {
			return due[i].deadline.Before(due[j].deadline)
		})
		for _, timer := range due {
			select {
			case timer.channel <- timer.deadline:
			default:
			}
			if timer.period > 0 {
				timer.deadline = timer.deadline.Add(timer.period)
				remaining = append(remaining, timer)
			}
		}
		c.pending = remaining
	}
	c.changed.Broadcast()
	c.mu.Unlock()
}

// WaitForTimers blocks until at least n timers are pending. Call it
// before Advance to make sure the goroutine under test has reached the
// point where it waits on the clock.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) < n {
		c.changed.Wait()
	}
}

// PendingCount reports the number of registered, unfired timers and
// tickers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
