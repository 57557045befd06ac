// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/zeebo/blake3"
)

// File is media to upload. Size is required and must match the number
// of bytes Body yields.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Object describes stored media.
type Object struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
	Hash        string `json:"hash"`
}

// Uploader stores a file on behalf of an account.
type Uploader interface {
	Upload(ctx context.Context, accountID string, file File) (*Object, error)
}

// GrantRequest asks the platform where to put a file.
type GrantRequest struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Hash        string `json:"hash"`
}

// Grant is the platform's answer to a GrantRequest.
type Grant struct {
	// UploadURL receives the bytes. Empty when Exists is true.
	UploadURL string `json:"upload_url,omitempty"`

	// Method is the HTTP method for UploadURL. Default: PUT.
	Method string `json:"method,omitempty"`

	// Headers must be sent with the upload request verbatim.
	Headers map[string]string `json:"headers,omitempty"`

	// URL is where the object is served from once stored.
	URL string `json:"url"`

	// Exists reports that an object with this hash is already stored.
	Exists bool `json:"exists,omitempty"`

	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// GrantFunc obtains a grant for accountID. messaging.Client.CreateUpload
// has this signature.
type GrantFunc func(ctx context.Context, accountID string, request GrantRequest) (*Grant, error)

// HashPrefix tags content hashes with their algorithm.
const HashPrefix = "blake3:"

// Hash returns the content hash of data in the form "blake3:<hex>".
func Hash(data []byte) string {
	digest := blake3.Sum256(data)
	return HashPrefix + hex.EncodeToString(digest[:])
}

// readFile reads exactly file.Size bytes from file.Body.
func readFile(file File) ([]byte, error) {
	if file.Body == nil {
		return nil, fmt.Errorf("upload: %s has no body", displayName(file))
	}
	if file.Size <= 0 {
		return nil, fmt.Errorf("upload: %s has no size", displayName(file))
	}
	data, err := io.ReadAll(io.LimitReader(file.Body, file.Size+1))
	if err != nil {
		return nil, fmt.Errorf("upload: reading %s: %w", displayName(file), err)
	}
	switch {
	case int64(len(data)) > file.Size:
		return nil, fmt.Errorf("upload: %s is larger than its declared %d bytes", displayName(file), file.Size)
	case int64(len(data)) < file.Size:
		return nil, fmt.Errorf("upload: %s has %d bytes, declared %d", displayName(file), len(data), file.Size)
	}
	return data, nil
}

func displayName(file File) string {
	if file.Name != "" {
		return fmt.Sprintf("%q", file.Name)
	}
	return "file"
}
