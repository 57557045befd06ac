// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the imlink build version.
//
// [Version], [GitCommit], [GitDirty] and [BuildTime] are injected with
// -ldflags -X and default to "0.1.0-dev" / "unknown" otherwise. The SDK
// sends [UserAgent] on every request; the CLI prints [Info] or [Full]
// for `imlink version`.
package version
