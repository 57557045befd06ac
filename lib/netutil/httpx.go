// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small HTTP and connection helpers shared by the
// REST transport, the upload plugin and the pub/sub websocket client.
//
// Response reads are bounded by MaxResponseSize so that a misbehaving
// API server or storage endpoint cannot exhaust memory. Media downloads
// and other streaming bodies must not go through these helpers.
package netutil

import (
	"io"
)

// MaxResponseSize bounds JSON API response reads: 64 MB. List endpoints
// with large page sizes stay well below it.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads an API response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody reads an error response body for diagnostics. Read errors
// are ignored; a truncated body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
