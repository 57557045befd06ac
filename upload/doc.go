// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package upload moves media bytes to object storage for imlink's
// media messages and moments.
//
// [Uploader] is the plugin contract the SDK calls with a [File] and
// gets an [Object] back: the public URL, size, content type and a
// BLAKE3 content hash that the SDK substitutes into the outgoing
// message payload.
//
// [Presigned] is the standard implementation. It hashes the file,
// asks the platform for an upload grant (a presigned URL scoped to
// that hash), and PUTs the bytes to it. The platform deduplicates by
// hash: a grant that reports the object already exists skips the PUT.
// [Memory] keeps objects in process for tests.
package upload
