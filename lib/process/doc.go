// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for imlink binaries.
// Fatal is the one place a binary writes to stderr and exits without
// going through the command's logger, which may not exist yet when
// configuration loading fails.
package process
