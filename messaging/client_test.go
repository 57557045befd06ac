// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"log/slog"
	"testing"

	"github.com/bureau-foundation/imlink/lib/testutil"
	"github.com/bureau-foundation/imlink/pubsub"
)

const testToken = "tok_default"

type testEnv struct {
	server   *testutil.APIServer
	client   *Client
	hub      *pubsub.Hub
	realtime *pubsub.HubClient
}

// newTestClient builds a client against a recording API server and an
// in-memory pub/sub hub. configure runs before NewClient.
func newTestClient(t *testing.T, configure ...func(*ClientConfig)) *testEnv {
	t.Helper()
	env := &testEnv{server: testutil.NewAPIServer(t), hub: pubsub.NewHub()}
	env.realtime = env.hub.Client()

	config := ClientConfig{
		BaseURL: env.server.URL,
		Token:   testToken,
		Logger:  slog.New(slog.DiscardHandler),
		PubSub:  env.realtime,
	}
	for _, apply := range configure {
		apply(&config)
	}
	client, err := NewClient(config)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	env.client = client
	return env
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		client, err := NewClient(ClientConfig{Logger: slog.New(slog.DiscardHandler)})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		defer client.Close()
		if client.BaseURL() != DefaultBaseURL {
			t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), DefaultBaseURL)
		}
		if client.timeout != DefaultTimeout || client.apiVersion != DefaultAPIVersion {
			t.Errorf("timeout %s, version %q", client.timeout, client.apiVersion)
		}
		if client.Realtime() != nil {
			t.Error("client without PubSub has a realtime adapter")
		}
	})

	t.Run("trailing slash", func(t *testing.T) {
		client, err := NewClient(ClientConfig{BaseURL: "http://localhost:8080/"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client.BaseURL() != "http://localhost:8080" {
			t.Errorf("BaseURL() = %q", client.BaseURL())
		}
	})

	t.Run("relative URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{BaseURL: "api.example.com"}); err == nil {
			t.Fatal("expected error for relative URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{BaseURL: "://invalid"}); err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		client, err := NewClient(ClientConfig{Token: "secret"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if err := client.Close(); err != nil {
			t.Fatalf("first Close: %v", err)
		}
		if err := client.Close(); err != nil {
			t.Fatalf("second Close: %v", err)
		}
	})
}
