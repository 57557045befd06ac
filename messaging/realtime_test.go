// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/bureau-foundation/imlink/lib/testutil"
)

func threeAccounts() OffsetPage[Account] {
	return OffsetPage[Account]{
		Items: []Account{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}},
		Total: 3,
	}
}

func TestListAccountsSubscribesOnce(t *testing.T) {
	env := newTestClient(t)
	env.server.Reply("GET /v1/accounts", testutil.Response{Body: threeAccounts()})
	ctx := context.Background()

	page, err := env.client.ListAccounts(ctx, ListAccountsParams{Subscribe: true})
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("got %d accounts", len(page.Items))
	}
	want := [][]string{{"account-a1", "account-a2", "account-a3"}}
	if calls := env.realtime.SubscribeCalls(); !reflect.DeepEqual(calls, want) {
		t.Fatalf("subscribe calls after first list = %v, want %v", calls, want)
	}

	if _, err := env.client.ListAccounts(ctx, ListAccountsParams{Subscribe: true}); err != nil {
		t.Fatalf("second ListAccounts: %v", err)
	}
	if calls := env.realtime.SubscribeCalls(); !reflect.DeepEqual(calls, want) {
		t.Errorf("second identical list requested more subscriptions: %v", calls)
	}
}

func TestListAccountsWithoutSubscribe(t *testing.T) {
	env := newTestClient(t)
	env.server.Reply("GET /v1/accounts", testutil.Response{Body: threeAccounts()})

	if _, err := env.client.ListAccounts(context.Background(), ListAccountsParams{}); err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if calls := env.realtime.SubscribeCalls(); len(calls) != 0 {
		t.Errorf("subscribed without being asked: %v", calls)
	}
}

func TestRetrieveAccountSubscribe(t *testing.T) {
	env := newTestClient(t)
	env.server.Reply("GET /v1/accounts", testutil.Response{Body: threeAccounts()})
	env.server.Reply("GET /v1/accounts/a4", testutil.Response{Body: Account{ID: "a4"}})
	env.server.Reply("GET /v1/accounts/a2", testutil.Response{Body: Account{ID: "a2"}})
	ctx := context.Background()

	env.client.ListAccounts(ctx, ListAccountsParams{Subscribe: true})
	env.client.RetrieveAccount(ctx, "a2", RetrieveAccountParams{Subscribe: true})
	env.client.RetrieveAccount(ctx, "a4", RetrieveAccountParams{Subscribe: true})

	want := [][]string{{"account-a1", "account-a2", "account-a3"}, {"account-a4"}}
	if calls := env.realtime.SubscribeCalls(); !reflect.DeepEqual(calls, want) {
		t.Errorf("subscribe calls = %v, want %v", calls, want)
	}
	if subscribed := env.client.Realtime().Subscribed(); len(subscribed) != 4 {
		t.Errorf("subscription set = %v", subscribed)
	}
}

func TestSubscribeWithoutRealtimeStillReturnsAccounts(t *testing.T) {
	env := newTestClient(t, func(config *ClientConfig) { config.PubSub = nil })
	env.server.Reply("GET /v1/accounts", testutil.Response{Body: threeAccounts()})

	page, err := env.client.ListAccounts(context.Background(), ListAccountsParams{Subscribe: true})
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(page.Items) != 3 {
		t.Errorf("got %d accounts", len(page.Items))
	}
	if err := env.client.SubscribeAccounts("a1"); !errors.Is(err, ErrRealtimeUnavailable) {
		t.Errorf("SubscribeAccounts error = %v, want ErrRealtimeUnavailable", err)
	}
}

func TestClientOnReceivesDeliveries(t *testing.T) {
	env := newTestClient(t)
	if err := env.client.SubscribeAccounts("a1"); err != nil {
		t.Fatalf("SubscribeAccounts: %v", err)
	}

	var received []string
	env.client.On(EventNewMessage, func(event Event) {
		received = append(received, event.(NewMessageEvent).Message.ID)
	})
	var statuses int
	env.client.On(EventAccountStatusUpdated, func(Event) { statuses++ })

	if count := env.realtime.ListenerCount(); count != 1 {
		t.Fatalf("pub/sub listeners = %d, want exactly 1", count)
	}

	env.hub.Deliver("account-a1", []byte(`{"type":"new_message","account_id":"a1","data":{"id":"m1","type":"text","text":{"content":"hi"}}}`))
	env.hub.Deliver("account-a1", []byte(`garbage`))
	env.hub.Deliver("account-a1", []byte(`{"type":"new_message","account_id":"a1","data":{"id":"m2","type":"text","text":{"content":"again"}}}`))
	// Not subscribed: never delivered.
	env.hub.Deliver("account-zz", []byte(`{"type":"new_message","account_id":"zz","data":{"id":"m3","type":"text","text":{"content":"x"}}}`))

	if !reflect.DeepEqual(received, []string{"m1", "m2"}) {
		t.Errorf("received %v, want [m1 m2]", received)
	}
	if statuses != 0 {
		t.Errorf("status handler ran %d times", statuses)
	}
}

func TestHandlerPanicDoesNotBreakDelivery(t *testing.T) {
	env := newTestClient(t)
	env.client.SubscribeAccounts("a1")

	calls := 0
	env.client.On(EventTyping, func(Event) {
		calls++
		panic("handler bug")
	})

	payload := []byte(`{"type":"typing","account_id":"a1","data":{"conversation_id":"c1","typing":true}}`)
	env.hub.Deliver("account-a1", payload)
	env.hub.Deliver("account-a1", payload)
	if calls != 2 {
		t.Errorf("handler ran %d times, want 2", calls)
	}
}

func TestSendTypingPublishes(t *testing.T) {
	env := newTestClient(t)
	if err := env.client.SendTyping(context.Background(), "a1", "c9", true); err != nil {
		t.Fatalf("SendTyping: %v", err)
	}
	published := env.hub.Published()
	if len(published) != 1 || published[0].Channel != "account-a1" {
		t.Fatalf("published = %+v", published)
	}
	event, err := DecodeEvent(published[0].Payload)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	want := TypingEvent{AccountID: "a1", ConversationID: "c9", Typing: true}
	if !reflect.DeepEqual(event, want) {
		t.Errorf("published event = %#v, want %#v", event, want)
	}
	if len(env.server.Requests()) != 0 {
		t.Error("typing signal went over HTTP")
	}
}

func TestSendTypingPublishFailure(t *testing.T) {
	env := newTestClient(t)
	env.hub.FailPublishes(errors.New("relay unavailable"))
	err := env.client.SendTyping(context.Background(), "a1", "c9", false)
	if err == nil {
		t.Fatal("SendTyping succeeded with a failing relay")
	}

	bare := newTestClient(t, func(config *ClientConfig) { config.PubSub = nil })
	if err := bare.client.SendTyping(context.Background(), "a1", "c9", true); !errors.Is(err, ErrRealtimeUnavailable) {
		t.Errorf("error = %v, want ErrRealtimeUnavailable", err)
	}
}

func TestWaitForMessage(t *testing.T) {
	env := newTestClient(t)
	env.client.SubscribeAccounts("a1")

	results := make(chan *Message, 1)
	go func() {
		message, err := env.client.WaitForMessage(context.Background(), "a1", "c1")
		if err != nil {
			t.Errorf("WaitForMessage: %v", err)
		}
		results <- message
	}()

	// Deliver until the waiter has registered and seen the match.
	deadline := time.Now().Add(5 * time.Second)
	for {
		env.hub.Deliver("account-a1", []byte(`{"type":"new_message","account_id":"a1","data":{"id":"other","conversation_id":"c2","type":"text","text":{"content":"no"}}}`))
		env.hub.Deliver("account-a1", []byte(`{"type":"new_message","account_id":"a1","data":{"id":"m1","conversation_id":"c1","type":"text","text":{"content":"yes"}}}`))
		select {
		case message := <-results:
			if message == nil || message.ID != "m1" {
				t.Fatalf("WaitForMessage = %+v", message)
			}
			return
		case <-time.After(10 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("WaitForMessage never returned")
		}
	}
}

func TestWaitForEventContext(t *testing.T) {
	env := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := env.client.WaitForEvent(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if count := len(env.client.Dispatcher().catchAll); count != 0 {
		t.Errorf("waiter left %d catch-all handlers", count)
	}
}
