// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventlog records pub/sub deliveries as compressed JSON lines.
//
// `imlink listen --record FILE` writes one [Record] per delivery through
// a [Writer]. The stream is a zstd frame, an lz4 frame, or plain text;
// [NewReader] detects which from the leading magic bytes, so replay
// tooling never needs to be told the compression.
package eventlog
