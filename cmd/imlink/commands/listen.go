// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
	"github.com/bureau-foundation/imlink/lib/eventlog"
	"github.com/bureau-foundation/imlink/messaging"
	"github.com/bureau-foundation/imlink/pubsub"
)

type listenParams struct {
	Accounts       []string `flag:"account,a" desc:"account to subscribe; repeatable (default: every account)"`
	Types          []string `flag:"type,t" desc:"only print events of this type; repeatable"`
	Count          int      `flag:"count,n" desc:"exit after printing this many events (0: run until interrupted)"`
	Record         string   `flag:"record" desc:"also record every raw delivery to this file"`
	Compression    string   `flag:"compression" desc:"recording compression: zstd, lz4, none" default:"zstd"`
	MetricsAddress string   `flag:"metrics-address" desc:"serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)"`
}

// listenPageSize is the page size used to enumerate accounts when no
// --account is given.
const listenPageSize = 100

func listenCommand(globals *cli.Globals) *cli.Command {
	var params listenParams

	return &cli.Command{
		Name:    "listen",
		Summary: "Stream real-time events as JSON lines",
		Description: `Subscribe to account channels and print every event as one JSON line
on stdout, in the same envelope the platform publishes. Runs until
interrupted or until --count events have been printed.

With --record, raw deliveries are also appended to a compressed
recording that "imlink replay" reads back.`,
		Usage: "imlink listen [--account ID]... [--record FILE [--compression zstd|lz4|none]] [flags]",
		Examples: []cli.Example{
			{
				Description: "Print new messages for one account",
				Command:     "imlink listen --account acct_1 --type new_message",
			},
			{
				Description: "Record everything and expose metrics",
				Command:     "imlink listen --record events.zst --metrics-address 127.0.0.1:9464",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink listen [flags]"); err != nil {
				return err
			}
			var compression eventlog.Compression
			if params.Record != "" {
				parsed, err := eventlog.ParseCompression(params.Compression)
				if err != nil {
					return cli.Validation("--compression: %w", err)
				}
				compression = parsed
			}
			for _, eventType := range params.Types {
				if !knownEventType(messaging.EventType(eventType)) {
					return cli.Validation("unknown event type %q", eventType)
				}
			}

			var metrics *messaging.Metrics
			if params.MetricsAddress != "" {
				registry := prometheus.NewRegistry()
				var err error
				metrics, err = messaging.NewMetrics(registry)
				if err != nil {
					return cli.Internal("%w", err)
				}
				stop, err := serveMetrics(params.MetricsAddress, registry)
				if err != nil {
					return err
				}
				defer stop()
			}

			connection, err := globals.Connect(ctx, cli.ConnectOptions{Realtime: true, Metrics: metrics})
			if err != nil {
				return err
			}
			defer connection.Close()
			logger := connection.Logger.With("command", "listen")

			if params.Record != "" {
				recorder, err := newRecorder(params.Record, compression, logger)
				if err != nil {
					return err
				}
				defer recorder.Close()
				connection.Realtime().AddListener(recorder.record)
			}

			events := make(chan messaging.Event, 256)
			connection.OnAny(func(event messaging.Event) {
				if len(params.Types) > 0 && !slices.Contains(params.Types, string(event.EventType())) {
					return
				}
				select {
				case events <- event:
				default:
					logger.Warn("output is behind, dropping event", "type", event.EventType(), "account_id", event.Account())
				}
			})

			subscribed, err := subscribeForListen(ctx, connection, params.Accounts)
			if err != nil {
				return err
			}
			if subscribed == 0 {
				logger.Warn("no accounts to listen to")
			}
			logger.Info("listening", "accounts", subscribed)

			printed := 0
			for {
				select {
				case <-ctx.Done():
					return nil
				case event := <-events:
					line, err := messaging.EncodeEvent(event)
					if err != nil {
						logger.Warn("encoding event failed", "type", event.EventType(), "error", err)
						continue
					}
					if _, err := fmt.Fprintf(cli.Stdout, "%s\n", line); err != nil {
						return err
					}
					printed++
					if params.Count > 0 && printed >= params.Count {
						return nil
					}
				}
			}
		},
	}
}

// subscribeForListen subscribes accountIDs, or every account when none
// are named, and returns how many were subscribed.
func subscribeForListen(ctx context.Context, connection *cli.Connection, accountIDs []string) (int, error) {
	if len(accountIDs) > 0 {
		if err := connection.SubscribeAccounts(accountIDs...); err != nil {
			return 0, cli.Transient("subscribing: %w", err)
		}
		return len(accountIDs), nil
	}

	total := 0
	for offset := 0; ; {
		page, err := connection.ListAccounts(ctx, messaging.ListAccountsParams{
			Offset:    offset,
			Limit:     listenPageSize,
			Subscribe: true,
		})
		if err != nil {
			return total, cli.APIError(err, "listing accounts")
		}
		total += len(page.Items)
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.Total {
			return total, nil
		}
	}
}

func knownEventType(eventType messaging.EventType) bool {
	switch eventType {
	case messaging.EventNewMessage, messaging.EventMessageUpdated, messaging.EventConversationUpdated,
		messaging.EventAccountStatusUpdated, messaging.EventContactUpdated, messaging.EventGroupUpdated,
		messaging.EventMomentCreated, messaging.EventTyping:
		return true
	}
	return false
}

// recorder appends raw deliveries to an event log. Deliveries arrive on
// the pub/sub goroutine; the mutex serializes them with Close.
type recorder struct {
	file   *os.File
	logger *slog.Logger

	mu     sync.Mutex
	writer *eventlog.Writer
	closed bool
}

func newRecorder(path string, compression eventlog.Compression, logger *slog.Logger) (*recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, cli.Validation("creating recording: %w", err)
	}
	writer, err := eventlog.NewWriter(file, compression)
	if err != nil {
		file.Close()
		return nil, cli.Internal("%w", err)
	}
	logger.Info("recording deliveries", "path", path, "compression", compression)
	return &recorder{file: file, writer: writer, logger: logger}, nil
}

func (r *recorder) record(delivery pubsub.Delivery) {
	payload := json.RawMessage(delivery.Payload)
	if !json.Valid(payload) {
		// Keep undecodable payloads inspectable as a JSON string.
		quoted, _ := json.Marshal(string(delivery.Payload))
		payload = quoted
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	err := r.writer.Write(eventlog.Record{
		Time:      time.Now().UTC(),
		Channel:   delivery.Channel,
		Publisher: delivery.Publisher,
		Payload:   payload,
	})
	if err == nil {
		err = r.writer.Flush()
	}
	if err != nil {
		r.logger.Warn("recording delivery failed", "channel", delivery.Channel, "error", err)
	}
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return errors.Join(r.writer.Close(), r.file.Close())
}

// serveMetrics serves registry on address until the returned function
// is called.
func serveMetrics(address string, registry *prometheus.Registry) (func(), error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, cli.Validation("--metrics-address: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go server.Serve(listener)
	return func() {
		shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownContext)
	}, nil
}
