// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps bearer tokens and pub/sub secret keys out of the
// Go heap.
//
// A [Buffer] is an anonymous mmap region locked into RAM (mlock) and
// excluded from core dumps (MADV_DONTDUMP). Close zeros, unlocks and
// unmaps it; any read after Close panics. [Buffer.String] makes a heap
// copy and is meant only for the moment a header or JSON field is
// written.
package secret
