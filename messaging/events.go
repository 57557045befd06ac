// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"fmt"
	"sync"
)

// EventType is the discriminator of real-time events.
type EventType string

const (
	EventNewMessage           EventType = "new_message"
	EventMessageUpdated       EventType = "message_updated"
	EventConversationUpdated  EventType = "conversation_updated"
	EventAccountStatusUpdated EventType = "account_status_updated"
	EventContactUpdated       EventType = "contact_updated"
	EventGroupUpdated         EventType = "group_updated"
	EventMomentCreated        EventType = "moment_created"
	EventTyping               EventType = "typing"
)

// Event is a real-time event. The concrete types in this package are
// the only implementations; [UnknownEvent] carries tags this client
// does not recognize.
type Event interface {
	EventType() EventType
	// Account returns the id of the account the event belongs to.
	Account() string
	data() any
}

// NewMessageEvent delivers a message received or sent by the account.
type NewMessageEvent struct {
	AccountID string
	Message   Message
}

// MessageUpdatedEvent reports a status change of an existing message
// (delivered, read, recalled).
type MessageUpdatedEvent struct {
	AccountID string
	Message   Message
}

// ConversationUpdatedEvent carries the new state of a conversation.
type ConversationUpdatedEvent struct {
	AccountID    string
	Conversation Conversation
}

// AccountStatusUpdatedEvent reports a presence change of the account.
type AccountStatusUpdatedEvent struct {
	AccountID string
	Status    AccountStatus
	Reason    string
}

// ContactUpdatedEvent carries the new state of a contact.
type ContactUpdatedEvent struct {
	AccountID string
	Contact   Contact
}

// GroupUpdatedEvent carries the new state of a group.
type GroupUpdatedEvent struct {
	AccountID string
	Group     Group
}

// MomentCreatedEvent delivers a new feed post.
type MomentCreatedEvent struct {
	AccountID string
	Moment    Moment
}

// TypingEvent is an ephemeral typing indicator.
type TypingEvent struct {
	AccountID      string
	ConversationID string
	UserID         string
	Typing         bool
}

// UnknownEvent holds an event whose type is not recognized.
type UnknownEvent struct {
	Type      EventType
	AccountID string
	Data      json.RawMessage
}

type accountStatusData struct {
	Status AccountStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

type typingData struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id,omitempty"`
	Typing         bool   `json:"typing"`
}

func (e NewMessageEvent) EventType() EventType { return EventNewMessage }
func (e NewMessageEvent) Account() string      { return e.AccountID }
func (e NewMessageEvent) data() any            { return e.Message }

func (e MessageUpdatedEvent) EventType() EventType { return EventMessageUpdated }
func (e MessageUpdatedEvent) Account() string      { return e.AccountID }
func (e MessageUpdatedEvent) data() any            { return e.Message }

func (e ConversationUpdatedEvent) EventType() EventType { return EventConversationUpdated }
func (e ConversationUpdatedEvent) Account() string      { return e.AccountID }
func (e ConversationUpdatedEvent) data() any            { return e.Conversation }

func (e AccountStatusUpdatedEvent) EventType() EventType { return EventAccountStatusUpdated }
func (e AccountStatusUpdatedEvent) Account() string      { return e.AccountID }
func (e AccountStatusUpdatedEvent) data() any {
	return accountStatusData{Status: e.Status, Reason: e.Reason}
}

func (e ContactUpdatedEvent) EventType() EventType { return EventContactUpdated }
func (e ContactUpdatedEvent) Account() string      { return e.AccountID }
func (e ContactUpdatedEvent) data() any            { return e.Contact }

func (e GroupUpdatedEvent) EventType() EventType { return EventGroupUpdated }
func (e GroupUpdatedEvent) Account() string      { return e.AccountID }
func (e GroupUpdatedEvent) data() any            { return e.Group }

func (e MomentCreatedEvent) EventType() EventType { return EventMomentCreated }
func (e MomentCreatedEvent) Account() string      { return e.AccountID }
func (e MomentCreatedEvent) data() any            { return e.Moment }

func (e TypingEvent) EventType() EventType { return EventTyping }
func (e TypingEvent) Account() string      { return e.AccountID }
func (e TypingEvent) data() any {
	return typingData{ConversationID: e.ConversationID, UserID: e.UserID, Typing: e.Typing}
}

func (e UnknownEvent) EventType() EventType { return e.Type }
func (e UnknownEvent) Account() string      { return e.AccountID }
func (e UnknownEvent) data() any            { return e.Data }

// envelope is the wire form of every event.
type envelope struct {
	Type      EventType       `json:"type"`
	AccountID string          `json:"account_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// DecodeEvent parses a wire envelope. Unrecognized types decode to
// [UnknownEvent] rather than failing.
func DecodeEvent(payload []byte) (Event, error) {
	var wire envelope
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("messaging: decoding event envelope: %w", err)
	}
	if wire.Type == "" {
		return nil, fmt.Errorf("messaging: event envelope has no type")
	}
	account := wire.AccountID

	var event Event
	var err error
	switch wire.Type {
	case EventNewMessage:
		var message Message
		message, err = decodeData[Message](wire)
		event = NewMessageEvent{AccountID: account, Message: message}
	case EventMessageUpdated:
		var message Message
		message, err = decodeData[Message](wire)
		event = MessageUpdatedEvent{AccountID: account, Message: message}
	case EventConversationUpdated:
		var conversation Conversation
		conversation, err = decodeData[Conversation](wire)
		event = ConversationUpdatedEvent{AccountID: account, Conversation: conversation}
	case EventAccountStatusUpdated:
		var status accountStatusData
		status, err = decodeData[accountStatusData](wire)
		event = AccountStatusUpdatedEvent{AccountID: account, Status: status.Status, Reason: status.Reason}
	case EventContactUpdated:
		var contact Contact
		contact, err = decodeData[Contact](wire)
		event = ContactUpdatedEvent{AccountID: account, Contact: contact}
	case EventGroupUpdated:
		var group Group
		group, err = decodeData[Group](wire)
		event = GroupUpdatedEvent{AccountID: account, Group: group}
	case EventMomentCreated:
		var moment Moment
		moment, err = decodeData[Moment](wire)
		event = MomentCreatedEvent{AccountID: account, Moment: moment}
	case EventTyping:
		var typing typingData
		typing, err = decodeData[typingData](wire)
		event = TypingEvent{AccountID: account, ConversationID: typing.ConversationID, UserID: typing.UserID, Typing: typing.Typing}
	default:
		event = UnknownEvent{Type: wire.Type, AccountID: account, Data: wire.Data}
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func decodeData[T any](wire envelope) (T, error) {
	var value T
	if len(wire.Data) == 0 {
		return value, fmt.Errorf("messaging: %s event has no data", wire.Type)
	}
	if err := json.Unmarshal(wire.Data, &value); err != nil {
		return value, fmt.Errorf("messaging: decoding %s event: %w", wire.Type, err)
	}
	return value, nil
}

// EncodeEvent produces the wire envelope of event.
func EncodeEvent(event Event) ([]byte, error) {
	data, err := json.Marshal(event.data())
	if err != nil {
		return nil, fmt.Errorf("messaging: encoding %s event: %w", event.EventType(), err)
	}
	return json.Marshal(envelope{Type: event.EventType(), AccountID: event.Account(), Data: data})
}

// Handler receives dispatched events.
type Handler func(Event)

type registration struct {
	id      uint64
	handler Handler
}

// Dispatcher routes events to handlers registered by type. It is safe
// for concurrent use; handlers run synchronously on the dispatching
// goroutine.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[EventType][]registration
	catchAll []registration
	nextID   uint64
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[EventType][]registration)}
}

// On registers handler for eventType. Handlers of one type run in
// registration order. The returned function removes exactly this
// registration; calling it again does nothing.
func (d *Dispatcher) On(eventType EventType, handler Handler) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.handlers[eventType] = append(d.handlers[eventType], registration{id: id, handler: handler})
	return func() { d.remove(eventType, id) }
}

// OnAny registers handler for every event. Catch-all handlers run
// after the type's own handlers.
func (d *Dispatcher) OnAny(handler Handler) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.catchAll = append(d.catchAll, registration{id: id, handler: handler})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.catchAll = without(d.catchAll, id)
	}
}

func (d *Dispatcher) remove(eventType EventType, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	remaining := without(d.handlers[eventType], id)
	if len(remaining) == 0 {
		delete(d.handlers, eventType)
		return
	}
	d.handlers[eventType] = remaining
}

// without returns registrations minus id, in a new slice so snapshots
// taken by Dispatch stay intact.
func without(registrations []registration, id uint64) []registration {
	remaining := make([]registration, 0, len(registrations))
	for _, entry := range registrations {
		if entry.id != id {
			remaining = append(remaining, entry)
		}
	}
	return remaining
}

// Dispatch invokes the handlers registered for the event's type, then
// the catch-all handlers. Events with no handlers are dropped.
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.Lock()
	typed := d.handlers[event.EventType()]
	catchAll := d.catchAll
	d.mu.Unlock()

	for _, entry := range typed {
		entry.handler(event)
	}
	for _, entry := range catchAll {
		entry.handler(event)
	}
}

// HandlerCount reports how many handlers are registered for eventType.
func (d *Dispatcher) HandlerCount(eventType EventType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[eventType])
}

// OnEvent registers a handler typed to one concrete event, such as
// OnEvent(dispatcher, func(event NewMessageEvent) { ... }). E must not
// be UnknownEvent.
func OnEvent[E Event](d *Dispatcher, handler func(E)) (unsubscribe func()) {
	var zero E
	return d.On(zero.EventType(), func(event Event) {
		if typed, ok := event.(E); ok {
			handler(typed)
		}
	})
}
