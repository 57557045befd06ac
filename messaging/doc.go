// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is the Go client for the imlink IM platform API.
//
// [Client] holds the base URL, HTTP transport, default bearer token and
// logger. The token lives in mmap-backed secret.Buffer memory; callers
// must call Client.Close to release it. Every call takes a
// context.Context and optional [RequestOption] values ([WithAuth],
// [WithTimeout]). Requests race a clock-driven timeout: when it fires
// first the call fails with [*RequestTimeoutError] and the in-flight
// request is cancelled. Nothing is retried.
//
// Resource methods cover accounts, contacts, groups and members,
// conversations, messages and moments under /v1. Non-2xx responses with
// a recognized error code become [*APIResponseError]; anything else
// becomes [*UnknownHTTPResponseError]. [IsAPIError] tests for a code.
// Request URLs are built by string concatenation with escaped path
// segments.
//
// Messages and moments are discriminated by their Type field. The
// builders ([NewTextMessage], [NewImageMoment], ...) assign a fresh
// client id and mark messages outbound and pending; Validate checks
// that exactly the matching payload is set. The media helpers
// ([Client.SendImageMessage] and friends) take a ready payload or a
// [MediaFile], enforce size ceilings, and upload through the
// configured upload.Uploader.
//
// Real-time delivery runs over a pubsub.Client, one channel per
// account ("account-{id}"). Listing or retrieving accounts with
// Subscribe set adds their channels to the adapter's subscription set;
// repeats are not re-requested. Inbound payloads are decoded by
// [DecodeEvent] and routed by the [Dispatcher] to handlers registered
// with [Client.On]. Typing indicators are published over pub/sub
// ([Client.SendTyping]); messages always go through HTTP.
//
// [Client.Authorize] runs the consent handshake from package authorize
// against the client's base URL.
package messaging
