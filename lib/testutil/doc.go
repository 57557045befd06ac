// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for imlink packages.
//
// [RequireReceive], [RequireClosed], and [RequireNoReceive] encapsulate
// the timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. These are
// the only place in the test suite where real wall-clock timeouts are
// used; everything else runs on lib/clock's fake.
//
// [APIServer] is an httptest server that records every request and
// answers from a per-route table, which is how the REST wrappers, the
// uploader and the authorization receiver are exercised without a
// platform to talk to.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. [WriteFile] drops a fixture into a test's temporary
// directory.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
