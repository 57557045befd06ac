// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package authorize

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"os/exec"
	"testing"
	"time"

	"github.com/bureau-foundation/imlink/lib/testutil"
)

func newTestReceiver(t *testing.T) *Receiver {
	t.Helper()
	receiver, err := NewReceiver("", nil)
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	t.Cleanup(func() { receiver.Close() })
	return receiver
}

func TestReceiverPostCallback(t *testing.T) {
	receiver := newTestReceiver(t)
	messages := make(chan Message, 1)
	remove := receiver.Listen(func(message Message) { messages <- message })
	defer remove()

	request, _ := http.NewRequest(http.MethodPost, receiver.RedirectURL(),
		bytes.NewReader([]byte(`{"type":"authorization_response","id":"acct-1","state":"s1"}`)))
	request.Header.Set("Origin", "https://api.example.com")
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", response.StatusCode)
	}

	message := testutil.RequireReceive(t, messages, 5*time.Second, "posted result")
	if message.Origin != "https://api.example.com" || message.Data.ID != "acct-1" || message.Data.State != "s1" {
		t.Errorf("message = %+v", message)
	}
}

func TestReceiverGetCallbackUsesReferer(t *testing.T) {
	receiver := newTestReceiver(t)
	messages := make(chan Message, 1)
	receiver.Listen(func(message Message) { messages <- message })

	request, _ := http.NewRequest(http.MethodGet, receiver.RedirectURL()+"?id=acct-2&state=s2", nil)
	request.Header.Set("Referer", "https://api.example.com/v1/authorize?provider=wechat")
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	response.Body.Close()

	message := testutil.RequireReceive(t, messages, 5*time.Second, "redirected result")
	if message.Origin != "https://api.example.com" {
		t.Errorf("origin = %q", message.Origin)
	}
	if message.Data.Type != ResponseType || message.Data.ID != "acct-2" {
		t.Errorf("data = %+v", message.Data)
	}
}

func TestReceiverRemovedListenerIsSilent(t *testing.T) {
	receiver := newTestReceiver(t)
	messages := make(chan Message, 1)
	remove := receiver.Listen(func(message Message) { messages <- message })
	remove()
	remove()

	response, err := http.Get(receiver.RedirectURL() + "?id=x")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	response.Body.Close()
	testutil.RequireNoReceive(t, messages, 20*time.Millisecond, "message after remove")
}

func TestReceiverWindowClosed(t *testing.T) {
	receiver := newTestReceiver(t)
	window := receiver.Window()
	if window.Closed() {
		t.Fatal("window closed before the browser reported")
	}
	response, err := http.Post("http://"+receiver.listener.Addr().String()+"/closed", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST /closed: %v", err)
	}
	response.Body.Close()
	if !window.Closed() {
		t.Error("window not closed after POST /closed")
	}
}

// TestHandshakeThroughReceiver plays the browser: it follows the consent
// URL's redirect_uri with the state it was given.
func TestHandshakeThroughReceiver(t *testing.T) {
	receiver := newTestReceiver(t)

	browser := func(consentURL string) *exec.Cmd {
		go func() {
			parsed, _ := url.Parse(consentURL)
			query := parsed.Query()
			callback := query.Get("redirect_uri") + "?id=acct-77&state=" + url.QueryEscape(query.Get("state"))
			request, _ := http.NewRequest(http.MethodGet, callback, nil)
			request.Header.Set("Referer", "https://api.example.com/v1/authorize")
			if response, err := http.DefaultClient.Do(request); err == nil {
				response.Body.Close()
			}
		}()
		return exec.Command("true")
	}

	handshake := &Handshake{
		Opener:       BrowserOpener{Receiver: receiver, Command: browser},
		Source:       receiver,
		PollInterval: 10 * time.Millisecond,
		GraceDelay:   10 * time.Millisecond,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	outcome, err := handshake.Run(ctx, Request{
		BaseURL:     "https://api.example.com",
		Provider:    "wechat",
		Token:       "tok",
		RedirectURL: receiver.RedirectURL(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.AccountID != "acct-77" {
		t.Errorf("outcome = %+v", outcome)
	}
}
