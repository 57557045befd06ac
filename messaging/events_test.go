// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"reflect"
	"testing"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Event
	}{
		{
			name:    "new message",
			payload: `{"type":"new_message","account_id":"a1","data":{"id":"m1","type":"text","flow":"in","text":{"content":"hi"}}}`,
			want: NewMessageEvent{AccountID: "a1", Message: Message{
				ID: "m1", Type: MessageText, Flow: FlowIn, Text: &TextPayload{Content: "hi"},
			}},
		},
		{
			name:    "account status",
			payload: `{"type":"account_status_updated","account_id":"a1","data":{"status":"expired","reason":"token revoked"}}`,
			want:    AccountStatusUpdatedEvent{AccountID: "a1", Status: AccountExpired, Reason: "token revoked"},
		},
		{
			name:    "conversation updated",
			payload: `{"type":"conversation_updated","account_id":"a1","data":{"id":"c1","account_id":"a1","type":"group","target_id":"g1","unread_count":4,"pinned":true}}`,
			want: ConversationUpdatedEvent{AccountID: "a1", Conversation: Conversation{
				ID: "c1", AccountID: "a1", Type: ConversationGroup, TargetID: "g1", UnreadCount: 4, Pinned: true,
			}},
		},
		{
			name:    "typing",
			payload: `{"type":"typing","account_id":"a1","data":{"conversation_id":"c1","user_id":"u2","typing":true}}`,
			want:    TypingEvent{AccountID: "a1", ConversationID: "c1", UserID: "u2", Typing: true},
		},
		{
			name:    "unknown type",
			payload: `{"type":"sticker_pack_added","account_id":"a1","data":{"pack":7}}`,
			want:    UnknownEvent{Type: "sticker_pack_added", AccountID: "a1", Data: []byte(`{"pack":7}`)},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			event, err := DecodeEvent([]byte(test.payload))
			if err != nil {
				t.Fatalf("DecodeEvent: %v", err)
			}
			if !reflect.DeepEqual(event, test.want) {
				t.Errorf("DecodeEvent = %#v, want %#v", event, test.want)
			}
		})
	}
}

func TestDecodeEventErrors(t *testing.T) {
	for _, payload := range []string{
		`not json`,
		`{"account_id":"a1"}`,
		`{"type":"new_message","account_id":"a1"}`,
		`{"type":"new_message","data":"a string"}`,
	} {
		if event, err := DecodeEvent([]byte(payload)); err == nil {
			t.Errorf("DecodeEvent(%s) = %#v, want error", payload, event)
		}
	}
}

func TestEncodeEventRoundTrip(t *testing.T) {
	original := MomentCreatedEvent{AccountID: "a1", Moment: Moment{ID: "mo1", Type: MomentText, Text: "hello"}}
	encoded, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	decoded, err := DecodeEvent(encoded)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if !reflect.DeepEqual(decoded, original) {
		t.Errorf("round trip = %#v, want %#v", decoded, original)
	}
}

func TestDispatcherRoutesByType(t *testing.T) {
	dispatcher := NewDispatcher()
	var messages, statuses int
	dispatcher.On(EventNewMessage, func(Event) { messages++ })
	dispatcher.On(EventAccountStatusUpdated, func(Event) { statuses++ })

	dispatcher.Dispatch(AccountStatusUpdatedEvent{AccountID: "a1", Status: AccountOnline})
	if messages != 0 {
		t.Errorf("new_message handler ran %d times for account_status_updated", messages)
	}
	if statuses != 1 {
		t.Errorf("account_status_updated handler ran %d times, want 1", statuses)
	}

	// Nothing registered for typing: dropped without error.
	dispatcher.Dispatch(TypingEvent{AccountID: "a1"})
}

func TestDispatcherUnsubscribeKeepsOthers(t *testing.T) {
	dispatcher := NewDispatcher()
	var order []string
	unsubscribeA := dispatcher.On(EventNewMessage, func(Event) { order = append(order, "A") })
	dispatcher.On(EventNewMessage, func(Event) { order = append(order, "B") })
	dispatcher.On(EventNewMessage, func(Event) { order = append(order, "C") })

	dispatcher.Dispatch(NewMessageEvent{AccountID: "a1"})
	if !reflect.DeepEqual(order, []string{"A", "B", "C"}) {
		t.Fatalf("first dispatch order = %v", order)
	}

	unsubscribeA()
	unsubscribeA()
	order = nil
	dispatcher.Dispatch(NewMessageEvent{AccountID: "a1"})
	if !reflect.DeepEqual(order, []string{"B", "C"}) {
		t.Errorf("after unsubscribing A = %v, want [B C]", order)
	}
	if count := dispatcher.HandlerCount(EventNewMessage); count != 2 {
		t.Errorf("HandlerCount = %d, want 2", count)
	}
}

func TestDispatcherSameFunctionTwice(t *testing.T) {
	dispatcher := NewDispatcher()
	calls := 0
	handler := func(Event) { calls++ }
	first := dispatcher.On(EventTyping, handler)
	dispatcher.On(EventTyping, handler)

	first()
	dispatcher.Dispatch(TypingEvent{})
	if calls != 1 {
		t.Errorf("calls = %d, want 1: unsubscribe removed more than its own registration", calls)
	}
}

func TestDispatcherUnsubscribeDuringDispatch(t *testing.T) {
	dispatcher := NewDispatcher()
	var calls []string
	var unsubscribeB func()
	dispatcher.On(EventTyping, func(Event) {
		calls = append(calls, "A")
		unsubscribeB()
	})
	unsubscribeB = dispatcher.On(EventTyping, func(Event) { calls = append(calls, "B") })

	dispatcher.Dispatch(TypingEvent{})
	dispatcher.Dispatch(TypingEvent{})
	if !reflect.DeepEqual(calls, []string{"A", "B", "A"}) {
		t.Errorf("calls = %v", calls)
	}
}

func TestOnEventAndOnAny(t *testing.T) {
	dispatcher := NewDispatcher()
	var typed []string
	var all []EventType
	OnEvent(dispatcher, func(event NewMessageEvent) { typed = append(typed, event.Message.ID) })
	unsubscribeAll := dispatcher.OnAny(func(event Event) { all = append(all, event.EventType()) })

	dispatcher.Dispatch(NewMessageEvent{Message: Message{ID: "m1"}})
	dispatcher.Dispatch(GroupUpdatedEvent{})
	unsubscribeAll()
	dispatcher.Dispatch(NewMessageEvent{Message: Message{ID: "m2"}})

	if !reflect.DeepEqual(typed, []string{"m1", "m2"}) {
		t.Errorf("typed handler saw %v", typed)
	}
	if !reflect.DeepEqual(all, []EventType{EventNewMessage, EventGroupUpdated}) {
		t.Errorf("catch-all handler saw %v", all)
	}
}
