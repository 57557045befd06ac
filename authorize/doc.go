// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package authorize runs the account authorization handshake.
//
// A caller connects an IM account by sending its user to the
// platform's consent page for a provider. The page reports back with a
// [Result] carrying the new account id, or a provider error, plus the
// state token the handshake put in the consent URL. [Handshake.Run]
// opens the consent window, then waits for whichever comes first:
//
//   - a result from the [Source], accepted only from the API origin and
//     only with type "authorization_response";
//   - the window closing, detected by polling every PollInterval and
//     confirmed after GraceDelay so that a result posted just before
//     the page closed itself still wins.
//
// A closed window without a result is a cancellation, not an error. A
// result whose state differs from the one sent is always rejected with
// [ErrInvalidState].
//
// For command-line use, [Receiver] is a loopback HTTP server that
// stands in for the browser's message channel: the consent page
// redirects (or posts) to it, and it tells the handshake when the
// browser side has gone away. [BrowserOpener] launches the system
// browser on the consent URL.
package authorize
