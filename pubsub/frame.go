// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pubsub

// Frame ops exchanged with the relay.
const (
	opSubscribe = "subscribe"
	opPublish   = "publish"
	opAck       = "ack"
	opError     = "error"
	opMessage   = "message"
)

// frame is the CBOR unit of the relay protocol. Client frames are
// subscribe and publish; the relay answers publishes with ack or error
// carrying the same id, and pushes message frames for subscribed
// channels.
type frame struct {
	Op        string   `cbor:"op"`
	ID        string   `cbor:"id,omitempty"`
	Channels  []string `cbor:"channels,omitempty"`
	Channel   string   `cbor:"channel,omitempty"`
	Payload   []byte   `cbor:"payload,omitempty"`
	Publisher string   `cbor:"publisher,omitempty"`
	Error     string   `cbor:"error,omitempty"`
}
