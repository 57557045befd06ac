// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration used on the pub/sub wire.
//
// imlink speaks JSON to the REST API and inside event payloads, and CBOR
// for the frames the websocket pub/sub client exchanges with the relay.
// Frame types carry `cbor` struct tags; payloads stay opaque byte
// strings so the JSON event envelope passes through untouched.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same frame always encodes to the same bytes. Unknown fields are
// ignored on decode, which lets the relay add frame fields without
// breaking older clients.
package codec
