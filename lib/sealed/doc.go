// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts the CLI's saved session file with age.
//
// `imlink login --seal-to age1...` writes the session (base URL, bearer
// token, pub/sub keys) as an ASCII-armored age file addressed to one or
// more x25519 recipients. The CLI recognizes a sealed file with
// [IsSealed] and opens it with the identity named by IMLINK_AGE_IDENTITY.
//
// Private keys and decrypted plaintext come back as [secret.Buffer]
// values, so the token never sits in the Go heap longer than the moment
// it is copied into a request header.
package sealed
