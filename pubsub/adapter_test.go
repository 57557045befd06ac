// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pubsub

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func TestAdapterSubscribeIsSetUnion(t *testing.T) {
	hub := NewHub()
	client := hub.Client()
	adapter := NewAdapter(client, nil)

	if err := adapter.Subscribe("account-a", "account-b"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := adapter.Subscribe("account-b", "account-c"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := adapter.Subscribe("account-a"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	wantCalls := [][]string{{"account-a", "account-b"}, {"account-c"}}
	if calls := client.SubscribeCalls(); !reflect.DeepEqual(calls, wantCalls) {
		t.Errorf("client saw %v, want %v", calls, wantCalls)
	}
	wantSet := []string{"account-a", "account-b", "account-c"}
	if got := adapter.Subscribed(); !reflect.DeepEqual(got, wantSet) {
		t.Errorf("Subscribed() = %v, want %v", got, wantSet)
	}
	if !adapter.IsSubscribed("account-c") || adapter.IsSubscribed("account-d") {
		t.Error("IsSubscribed disagrees with Subscribed()")
	}
}

func TestAdapterSubscribeFailureAllowsRetry(t *testing.T) {
	hub := NewHub()
	client := hub.Client()
	adapter := NewAdapter(client, nil)

	refused := errors.New("subscribe key revoked")
	hub.FailSubscribes(refused)
	if err := adapter.Subscribe("account-a"); !errors.Is(err, refused) {
		t.Fatalf("Subscribe error = %v, want wrapped %v", err, refused)
	}
	if adapter.IsSubscribed("account-a") {
		t.Error("refused channel kept in the subscription set")
	}

	hub.FailSubscribes(nil)
	if err := adapter.Subscribe("account-a"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	wantCalls := [][]string{{"account-a"}, {"account-a"}}
	if calls := client.SubscribeCalls(); !reflect.DeepEqual(calls, wantCalls) {
		t.Errorf("client saw %v, want %v", calls, wantCalls)
	}

	var received int
	adapter.AddListener(func(Delivery) { received++ })
	hub.Deliver("account-a", []byte("{}"))
	if received != 1 {
		t.Errorf("received %d deliveries after retry, want 1", received)
	}
}

func TestAdapterListenerAddedDuringDeliveryWaitsForNext(t *testing.T) {
	hub := NewHub()
	adapter := NewAdapter(hub.Client(), nil)
	adapter.Subscribe("account-a")

	var first, late int
	adapter.AddListener(func(Delivery) {
		first++
		if first == 1 {
			adapter.AddListener(func(Delivery) { late++ })
		}
	})

	hub.Deliver("account-a", []byte("1"))
	if first != 1 || late != 0 {
		t.Fatalf("after first delivery: first=%d late=%d, want 1 0", first, late)
	}
	hub.Deliver("account-a", []byte("2"))
	if first != 2 || late != 1 {
		t.Errorf("after second delivery: first=%d late=%d, want 2 1", first, late)
	}
}

func TestAdapterInstallsOneClientListener(t *testing.T) {
	hub := NewHub()
	client := hub.Client()
	adapter := NewAdapter(client, nil)

	var received []string
	for index := 0; index < 3; index++ {
		name := string(rune('a' + index))
		adapter.AddListener(func(delivery Delivery) {
			received = append(received, name+":"+string(delivery.Payload))
		})
	}
	if count := client.ListenerCount(); count != 1 {
		t.Fatalf("client has %d listeners, want 1", count)
	}

	adapter.Subscribe(AccountChannel("x"))
	hub.Deliver("account-x", []byte("hello"))

	want := []string{"a:hello", "b:hello", "c:hello"}
	if !reflect.DeepEqual(received, want) {
		t.Errorf("received %v, want %v", received, want)
	}
}

func TestAdapterRecoversListenerPanics(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	hub := NewHub()
	adapter := NewAdapter(hub.Client(), logger)
	adapter.Subscribe("account-1")

	var survivors int
	adapter.AddListener(func(Delivery) { panic("listener exploded") })
	adapter.AddListener(func(Delivery) { survivors++ })

	hub.Deliver("account-1", []byte(`{}`))
	hub.Deliver("account-1", []byte(`{}`))

	if survivors != 2 {
		t.Errorf("second listener ran %d times, want 2", survivors)
	}
	if !strings.Contains(logs.String(), "listener exploded") {
		t.Errorf("panic was not logged: %s", logs.String())
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("panic not logged at WARN: %s", logs.String())
	}
}

func TestAdapterPublish(t *testing.T) {
	hub := NewHub()
	adapter := NewAdapter(hub.Client(), nil)

	message := map[string]string{"type": "typing", "account_id": "a1"}
	if err := adapter.Publish(context.Background(), "account-a1", message); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	published := hub.Published()
	if len(published) != 1 {
		t.Fatalf("hub saw %d publishes, want 1", len(published))
	}
	if published[0].Channel != "account-a1" {
		t.Errorf("channel = %s", published[0].Channel)
	}
	if string(published[0].Payload) != `{"account_id":"a1","type":"typing"}` {
		t.Errorf("payload = %s", published[0].Payload)
	}
}

func TestAdapterPublishWrapsClientError(t *testing.T) {
	hub := NewHub()
	adapter := NewAdapter(hub.Client(), nil)
	denied := errors.New("publish key revoked")
	hub.FailPublishes(denied)

	err := adapter.Publish(context.Background(), "account-a1", map[string]string{})
	if !errors.Is(err, denied) {
		t.Fatalf("Publish error = %v, want wrapped %v", err, denied)
	}
	if !strings.Contains(err.Error(), "publish key revoked") {
		t.Errorf("error %q hides the underlying message", err)
	}
}

func TestAdapterPublishRejectsUnencodable(t *testing.T) {
	adapter := NewAdapter(NewHub().Client(), nil)
	if err := adapter.Publish(context.Background(), "account-a", make(chan int)); err == nil {
		t.Error("Publish of a channel value succeeded")
	}
}

func TestHubOnlyDeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	subscribed := hub.Client()
	bystander := hub.Client()

	subscribed.Subscribe("account-1")
	var got, stray int
	subscribed.AddListener(func(Delivery) { got++ })
	bystander.AddListener(func(Delivery) { stray++ })

	if err := bystander.Publish(context.Background(), "account-1", []byte("x")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got != 1 || stray != 0 {
		t.Errorf("subscriber got %d, bystander got %d", got, stray)
	}

	subscribed.Close()
	if err := subscribed.Publish(context.Background(), "account-1", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v, want ErrClosed", err)
	}
}
