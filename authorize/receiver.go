// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package authorize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/imlink/lib/netutil"
)

// Receiver is a loopback HTTP endpoint that collects handshake results
// from the browser.
//
//	POST /callback  JSON Result; origin from the Origin header
//	GET  /callback  query parameters id, state, error; origin from
//	                Origin or Referer
//	POST /closed    the browser side is gone
type Receiver struct {
	listener net.Listener
	server   *http.Server
	logger   *slog.Logger

	mu        sync.Mutex
	listeners map[uint64]func(Message)
	nextID    uint64

	windowClosed atomic.Bool
	served       chan struct{}
}

// NewReceiver listens on address (default 127.0.0.1:0) and starts
// serving. Close stops it.
func NewReceiver(address string, logger *slog.Logger) (*Receiver, error) {
	if address == "" {
		address = "127.0.0.1:0"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("authorize: listening on %s: %w", address, err)
	}

	receiver := &Receiver{
		listener:  listener,
		logger:    logger,
		listeners: make(map[uint64]func(Message)),
		served:    make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /callback", receiver.handlePostCallback)
	mux.HandleFunc("GET /callback", receiver.handleGetCallback)
	mux.HandleFunc("POST /closed", receiver.handleClosed)
	receiver.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer close(receiver.served)
		if err := receiver.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("authorization receiver stopped", "error", err)
		}
	}()
	return receiver, nil
}

// RedirectURL is the callback URL to pass as redirect_uri.
func (r *Receiver) RedirectURL() string {
	return "http://" + r.listener.Addr().String() + "/callback"
}

// Listen implements [Source].
func (r *Receiver) Listen(listener func(Message)) (remove func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = listener
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Window returns the window handle for the browser talking to this
// receiver. Closed turns true once the browser posts to /closed.
func (r *Receiver) Window() Window {
	return receiverWindow{receiver: r}
}

// Close shuts the server down.
func (r *Receiver) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := r.server.Shutdown(ctx)
	<-r.served
	return err
}

func (r *Receiver) deliver(message Message) {
	r.mu.Lock()
	listeners := make([]func(Message), 0, len(r.listeners))
	for _, listener := range r.listeners {
		listeners = append(listeners, listener)
	}
	r.mu.Unlock()

	for _, listener := range listeners {
		listener(message)
	}
}

func (r *Receiver) handlePostCallback(writer http.ResponseWriter, request *http.Request) {
	body, err := netutil.ReadResponse(request.Body)
	if err != nil {
		http.Error(writer, "reading body", http.StatusBadRequest)
		return
	}
	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		http.Error(writer, "body must be a JSON authorization result", http.StatusBadRequest)
		return
	}
	r.deliver(Message{Origin: request.Header.Get("Origin"), Data: result})
	writer.WriteHeader(http.StatusNoContent)
}

func (r *Receiver) handleGetCallback(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	result := Result{
		Type:  query.Get("type"),
		ID:    query.Get("id"),
		State: query.Get("state"),
		Error: query.Get("error"),
	}
	if result.Type == "" {
		result.Type = ResponseType
	}

	origin := request.Header.Get("Origin")
	if origin == "" || origin == "null" {
		if referer := request.Header.Get("Referer"); referer != "" {
			if parsed, err := Origin(referer); err == nil {
				origin = parsed
			}
		}
	}
	r.deliver(Message{Origin: origin, Data: result})

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.Header().Set("Cache-Control", "no-store")
	fmt.Fprint(writer, callbackPage)
}

func (r *Receiver) handleClosed(writer http.ResponseWriter, request *http.Request) {
	r.windowClosed.Store(true)
	writer.WriteHeader(http.StatusNoContent)
}

// callbackPage tells the receiver the browser side is finished, then
// tries to close the tab.
const callbackPage = `<!doctype html>
<html><head><title>imlink</title></head>
<body>
<p>Authorization received. You can close this window.</p>
<script>
fetch("/closed", {method: "POST"}).finally(function () { window.close(); });
</script>
</body></html>
`

type receiverWindow struct {
	receiver *Receiver
}

func (w receiverWindow) Closed() bool {
	return w.receiver.windowClosed.Load()
}

// Close marks the window closed. The browser tab itself is outside the
// process's control.
func (w receiverWindow) Close() error {
	w.receiver.windowClosed.Store(true)
	return nil
}
