// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package authorize

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/imlink/lib/clock"
	"github.com/bureau-foundation/imlink/lib/testutil"
)

const testBaseURL = "https://api.example.com"

type fakeSource struct {
	mu        sync.Mutex
	listeners map[int]func(Message)
	next      int
}

func newFakeSource() *fakeSource {
	return &fakeSource{listeners: make(map[int]func(Message))}
}

func (s *fakeSource) Listen(listener func(Message)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.listeners[id] = listener
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *fakeSource) emit(message Message) {
	s.mu.Lock()
	var listeners []func(Message)
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	s.mu.Unlock()
	for _, listener := range listeners {
		listener(message)
	}
}

func (s *fakeSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

type fakeWindow struct {
	closed      atomic.Bool
	closeCalled atomic.Bool
}

func (w *fakeWindow) Closed() bool { return w.closed.Load() }
func (w *fakeWindow) Close() error {
	w.closeCalled.Store(true)
	return nil
}

type fakeOpener struct {
	window *fakeWindow
	err    error
	urls   chan string
}

func (o *fakeOpener) Open(ctx context.Context, consentURL string) (Window, error) {
	o.urls <- consentURL
	if o.err != nil {
		return nil, o.err
	}
	return o.window, nil
}

type harness struct {
	source  *fakeSource
	window  *fakeWindow
	opener  *fakeOpener
	clock   *clock.FakeClock
	done    chan runResult
	request Request
}

type runResult struct {
	outcome Outcome
	err     error
}

func startHandshake(t *testing.T, ctx context.Context, openErr error, callback func(string, bool)) *harness {
	t.Helper()
	h := &harness{
		source: newFakeSource(),
		window: &fakeWindow{},
		clock:  clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		done:   make(chan runResult, 1),
	}
	h.opener = &fakeOpener{window: h.window, err: openErr, urls: make(chan string, 1)}
	h.request = Request{BaseURL: testBaseURL, Provider: "wechat", Token: "tok_1", Callback: callback}

	handshake := &Handshake{Opener: h.opener, Source: h.source, Clock: h.clock}
	go func() {
		outcome, err := handshake.Run(ctx, h.request)
		h.done <- runResult{outcome, err}
	}()
	return h
}

// state waits for the consent URL and returns its state parameter.
func (h *harness) state(t *testing.T) string {
	t.Helper()
	consentURL := testutil.RequireReceive(t, h.opener.urls, 5*time.Second, "consent window opened")
	parsed, err := url.Parse(consentURL)
	if err != nil {
		t.Fatalf("parsing consent URL: %v", err)
	}
	return parsed.Query().Get("state")
}

func (h *harness) result(t *testing.T) runResult {
	t.Helper()
	return testutil.RequireReceive(t, h.done, 5*time.Second, "handshake result")
}

func TestHandshakeValidResult(t *testing.T) {
	var callbackID string
	var callbackOK bool
	h := startHandshake(t, context.Background(), nil, func(id string, ok bool) {
		callbackID, callbackOK = id, ok
	})

	state := h.state(t)
	h.source.emit(Message{Origin: testBaseURL, Data: Result{Type: ResponseType, ID: "acct-42", State: state}})

	result := h.result(t)
	if result.err != nil {
		t.Fatalf("Run: %v", result.err)
	}
	if result.outcome.AccountID != "acct-42" || result.outcome.Cancelled {
		t.Errorf("outcome = %+v", result.outcome)
	}
	if callbackID != "acct-42" || !callbackOK {
		t.Errorf("callback got (%q, %v)", callbackID, callbackOK)
	}
	if h.source.count() != 0 {
		t.Errorf("%d listeners left registered", h.source.count())
	}
	if !h.window.closeCalled.Load() {
		t.Error("window was not closed after the result")
	}
}

func TestHandshakeRejectsMismatchedState(t *testing.T) {
	called := false
	h := startHandshake(t, context.Background(), nil, func(string, bool) { called = true })
	h.state(t)

	// Well formed, has an id, no error: still rejected.
	h.source.emit(Message{Origin: testBaseURL, Data: Result{Type: ResponseType, ID: "acct-42", State: "forged-state-value"}})

	result := h.result(t)
	if !errors.Is(result.err, ErrInvalidState) {
		t.Fatalf("Run error = %v, want ErrInvalidState", result.err)
	}
	if called {
		t.Error("callback invoked for a rejected result")
	}
	if h.source.count() != 0 {
		t.Errorf("%d listeners left registered", h.source.count())
	}
}

func TestHandshakeProviderError(t *testing.T) {
	h := startHandshake(t, context.Background(), nil, nil)
	state := h.state(t)
	h.source.emit(Message{Origin: testBaseURL, Data: Result{Type: ResponseType, State: state, Error: "user denied access"}})

	result := h.result(t)
	var providerError *ProviderError
	if !errors.As(result.err, &providerError) {
		t.Fatalf("Run error = %v, want *ProviderError", result.err)
	}
	if providerError.Message != "user denied access" {
		t.Errorf("Message = %q", providerError.Message)
	}
}

func TestHandshakeClosedWindowIsCancellation(t *testing.T) {
	var callbackOK = true
	var callbackCalls int
	h := startHandshake(t, context.Background(), nil, func(id string, ok bool) {
		callbackCalls++
		callbackOK = ok
	})
	state := h.state(t)

	// Messages from another origin or of another type are ignored.
	h.source.emit(Message{Origin: "https://evil.example.com", Data: Result{Type: ResponseType, ID: "x", State: state}})
	h.source.emit(Message{Origin: testBaseURL, Data: Result{Type: "something_else", ID: "x", State: state}})

	h.clock.WaitForTimers(1)
	h.clock.Advance(DefaultPollInterval)
	testutil.RequireNoReceive(t, h.done, 20*time.Millisecond, "resolved while the window was open")

	h.window.closed.Store(true)
	h.clock.Advance(DefaultPollInterval)
	// Ticker plus the grace timer.
	h.clock.WaitForTimers(2)
	testutil.RequireNoReceive(t, h.done, 20*time.Millisecond, "resolved before the grace delay")
	h.clock.Advance(DefaultGraceDelay)

	result := h.result(t)
	if result.err != nil {
		t.Fatalf("Run: %v", result.err)
	}
	if !result.outcome.Cancelled || result.outcome.AccountID != "" {
		t.Errorf("outcome = %+v, want cancelled", result.outcome)
	}
	if callbackCalls != 1 || callbackOK {
		t.Errorf("callback calls = %d ok = %v, want one call with ok=false", callbackCalls, callbackOK)
	}
	if h.source.count() != 0 {
		t.Errorf("%d listeners left registered", h.source.count())
	}
}

func TestHandshakeResultDuringGraceWins(t *testing.T) {
	h := startHandshake(t, context.Background(), nil, nil)
	state := h.state(t)

	h.window.closed.Store(true)
	h.clock.WaitForTimers(1)
	h.clock.Advance(DefaultPollInterval)
	h.clock.WaitForTimers(2)

	h.source.emit(Message{Origin: testBaseURL, Data: Result{Type: ResponseType, ID: "acct-late", State: state}})

	result := h.result(t)
	if result.err != nil || result.outcome.AccountID != "acct-late" {
		t.Errorf("Run = %+v, %v; want acct-late", result.outcome, result.err)
	}
}

func TestHandshakePopupBlocked(t *testing.T) {
	h := startHandshake(t, context.Background(), errors.New("no display"), nil)
	h.state(t)

	result := h.result(t)
	if !errors.Is(result.err, ErrPopupBlocked) {
		t.Fatalf("Run error = %v, want ErrPopupBlocked", result.err)
	}
	if h.source.count() != 0 {
		t.Errorf("%d listeners left registered", h.source.count())
	}
}

func TestHandshakeContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := startHandshake(t, ctx, nil, nil)
	h.state(t)
	cancel()

	result := h.result(t)
	if !errors.Is(result.err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", result.err)
	}
	if !h.window.closeCalled.Load() {
		t.Error("window not closed on cancellation")
	}
}

func TestHandshakeRequiresCollaborators(t *testing.T) {
	if _, err := (&Handshake{}).Run(context.Background(), Request{BaseURL: testBaseURL, Provider: "p"}); err == nil {
		t.Error("Run without Opener/Source succeeded")
	}
}
