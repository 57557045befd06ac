// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"

	"github.com/bureau-foundation/imlink/lib/clock"
	"github.com/bureau-foundation/imlink/lib/codec"
	"github.com/bureau-foundation/imlink/lib/netutil"
	"github.com/bureau-foundation/imlink/lib/secret"
)

// WebSocketOptions configures [DialWebSocket].
type WebSocketOptions struct {
	// URL is the relay endpoint (ws:// or wss://).
	URL string

	SubscribeKey string
	PublishKey   string

	// SecretKey, when set, is sent as a bearer token on every dial.
	// The buffer is borrowed; the caller closes it after the client.
	SecretKey *secret.Buffer

	// InstanceID identifies this client to the relay. Default: a
	// random UUID.
	InstanceID string

	Dialer *websocket.Dialer
	Clock  clock.Clock
	Logger *slog.Logger

	// MinBackoff and MaxBackoff bound the reconnect delay, which
	// doubles after every failed attempt. Defaults: 500ms and 30s.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// WebSocketClient is a [Client] speaking the relay's CBOR frame
// protocol over a websocket. After a dropped connection it reconnects
// in the background and resubscribes every channel it has been asked
// for.
type WebSocketClient struct {
	options  WebSocketOptions
	endpoint string
	dialer   *websocket.Dialer
	clock    clock.Clock
	logger   *slog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	conn      *websocket.Conn
	channels  map[string]struct{}
	listeners []func(Delivery)
	pending   map[string]chan frame

	closed    chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// DialWebSocket connects to the relay. The initial dial is not retried;
// later disconnects are.
func DialWebSocket(ctx context.Context, options WebSocketOptions) (*WebSocketClient, error) {
	if options.URL == "" {
		return nil, fmt.Errorf("pubsub: relay URL is required")
	}
	if options.SubscribeKey == "" {
		return nil, fmt.Errorf("pubsub: subscribe key is required")
	}
	if options.InstanceID == "" {
		options.InstanceID = uuid.NewString()
	}
	if options.MinBackoff <= 0 {
		options.MinBackoff = 500 * time.Millisecond
	}
	if options.MaxBackoff < options.MinBackoff {
		options.MaxBackoff = 30 * time.Second
	}

	endpoint, err := relayEndpoint(options)
	if err != nil {
		return nil, err
	}

	client := &WebSocketClient{
		options:  options,
		endpoint: endpoint,
		dialer:   options.Dialer,
		clock:    options.Clock,
		logger:   options.Logger,
		channels: make(map[string]struct{}),
		pending:  make(map[string]chan frame),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	if client.dialer == nil {
		client.dialer = websocket.DefaultDialer
	}
	if client.clock == nil {
		client.clock = clock.Real()
	}
	if client.logger == nil {
		client.logger = slog.New(slog.DiscardHandler)
	}
	client.logger = client.logger.With("instance_id", options.InstanceID)

	conn, err := client.dial(ctx)
	if err != nil {
		return nil, err
	}
	client.conn = conn
	go client.run(conn)
	return client, nil
}

func relayEndpoint(options WebSocketOptions) (string, error) {
	parsed, err := url.Parse(options.URL)
	if err != nil {
		return "", fmt.Errorf("pubsub: parsing relay URL: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("pubsub: relay URL must use ws or wss, got %q", parsed.Scheme)
	}
	query := parsed.Query()
	query.Set("subscribe_key", options.SubscribeKey)
	if options.PublishKey != "" {
		query.Set("publish_key", options.PublishKey)
	}
	query.Set("uuid", options.InstanceID)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// InstanceID returns the id this client presents to the relay.
func (c *WebSocketClient) InstanceID() string {
	return c.options.InstanceID
}

func (c *WebSocketClient) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.options.SecretKey != nil {
		header.Set("Authorization", "Bearer "+c.options.SecretKey.String())
	}
	conn, response, err := c.dialer.DialContext(ctx, c.endpoint, header)
	if err != nil {
		if response != nil {
			return nil, fmt.Errorf("pubsub: dialing relay failed (HTTP %d): %w", response.StatusCode, err)
		}
		return nil, fmt.Errorf("pubsub: dialing relay failed: %w", err)
	}
	return conn, nil
}

func (c *WebSocketClient) run(conn *websocket.Conn) {
	defer close(c.done)
	for {
		err := c.readLoop(conn)
		c.dropConnection(conn)
		if c.isClosed() {
			return
		}
		if netutil.IsExpectedCloseError(err) || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.Info("pub/sub connection closed by relay", "error", err)
		} else {
			c.logger.Warn("pub/sub connection lost", "error", err)
		}

		conn = c.reconnect()
		if conn == nil {
			return
		}
	}
}

// reconnect dials until it succeeds or the client is closed, which
// yields nil.
func (c *WebSocketClient) reconnect() *websocket.Conn {
	backoff := c.options.MinBackoff
	for attempt := 1; ; attempt++ {
		select {
		case <-c.closed:
			return nil
		case <-c.clock.After(backoff):
		}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			select {
			case <-c.closed:
				cancel()
			case <-ctx.Done():
			}
		}()
		conn, err := c.dial(ctx)
		cancel()

		if err == nil {
			if err = c.attach(conn); err == nil {
				c.logger.Info("pub/sub reconnected", "attempt", attempt)
				return conn
			}
			conn.Close()
			if c.isClosed() {
				return nil
			}
		}

		c.logger.Warn("pub/sub reconnect failed",
			"attempt", attempt,
			"error", err,
			"retry_in", backoff,
		)
		backoff *= 2
		if backoff > c.options.MaxBackoff {
			backoff = c.options.MaxBackoff
		}
	}
}

// attach installs conn as the live connection and resubscribes the
// full channel set on it.
func (c *WebSocketClient) attach(conn *websocket.Conn) error {
	c.mu.Lock()
	if c.isClosed() {
		c.mu.Unlock()
		return ErrClosed
	}
	c.conn = conn
	channels := sortedKeys(c.channels)
	c.mu.Unlock()

	if len(channels) == 0 {
		return nil
	}
	return c.write(conn, frame{Op: opSubscribe, ID: uuid.NewString(), Channels: channels})
}

func (c *WebSocketClient) dropConnection(conn *websocket.Conn) {
	conn.Close()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn = nil
	}
	for id, reply := range c.pending {
		close(reply)
		delete(c.pending, id)
	}
}

func (c *WebSocketClient) readLoop(conn *websocket.Conn) error {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if messageType != websocket.BinaryMessage {
			c.logger.Debug("ignoring non-binary relay message", "type", messageType)
			continue
		}

		var received frame
		if err := codec.Unmarshal(data, &received); err != nil {
			diagnostic, _ := codec.Diagnose(data)
			c.logger.Warn("undecodable relay frame", "error", err)
			c.logger.Debug("undecodable relay frame contents", "cbor", diagnostic)
			continue
		}

		switch received.Op {
		case opMessage:
			c.dispatch(Delivery{
				Channel:   received.Channel,
				Payload:   received.Payload,
				Publisher: received.Publisher,
			})
		case opAck, opError:
			if !c.resolve(received) && received.Op == opError {
				c.logger.Warn("relay reported error", "error", received.Error)
			}
		default:
			c.logger.Debug("ignoring relay frame", "op", received.Op)
		}
	}
}

func (c *WebSocketClient) resolve(reply frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	waiter, ok := c.pending[reply.ID]
	if !ok {
		return false
	}
	delete(c.pending, reply.ID)
	waiter <- reply
	return true
}

func (c *WebSocketClient) dispatch(delivery Delivery) {
	c.mu.Lock()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()
	for _, listener := range listeners {
		listener(delivery)
	}
}

func (c *WebSocketClient) write(conn *websocket.Conn, outbound frame) error {
	data, err := codec.Marshal(outbound)
	if err != nil {
		return fmt.Errorf("pubsub: encoding %s frame: %w", outbound.Op, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("pubsub: writing %s frame: %w", outbound.Op, err)
	}
	return nil
}

// Publish sends payload to channel and waits for the relay's ack.
func (c *WebSocketClient) Publish(ctx context.Context, channel string, payload []byte) error {
	id := uuid.NewString()
	reply := make(chan frame, 1)

	c.mu.Lock()
	if c.isClosed() {
		c.mu.Unlock()
		return ErrClosed
	}
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ErrDisconnected
	}
	c.pending[id] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(conn, frame{Op: opPublish, ID: id, Channel: channel, Payload: payload}); err != nil {
		return err
	}

	select {
	case response, ok := <-reply:
		if !ok {
			return ErrDisconnected
		}
		if response.Op == opError {
			return &PublishError{Channel: channel, Message: response.Error}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return ErrClosed
	}
}

// Subscribe adds channels. New channels are sent to the relay now if
// connected, and on every reconnect.
func (c *WebSocketClient) Subscribe(channels ...string) error {
	c.mu.Lock()
	if c.isClosed() {
		c.mu.Unlock()
		return ErrClosed
	}
	var fresh []string
	for _, channel := range channels {
		if _, ok := c.channels[channel]; ok {
			continue
		}
		c.channels[channel] = struct{}{}
		fresh = append(fresh, channel)
	}
	conn := c.conn
	c.mu.Unlock()

	if len(fresh) == 0 || conn == nil {
		return nil
	}
	return c.write(conn, frame{Op: opSubscribe, ID: uuid.NewString(), Channels: fresh})
}

// AddListener registers listener. Listeners run on the read goroutine.
func (c *WebSocketClient) AddListener(listener func(Delivery)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// Close stops the reconnect loop and closes the connection. In-flight
// publishes return ErrClosed.
func (c *WebSocketClient) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
	})
	<-c.done
	return nil
}

func (c *WebSocketClient) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
