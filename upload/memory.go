// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"context"
	"strings"
	"sync"
)

// Memory is an [Uploader] that keeps objects in process, keyed by
// content hash.
type Memory struct {
	baseURL string

	mu      sync.Mutex
	objects map[string][]byte
	uploads int
}

// NewMemory returns an uploader whose object URLs start with baseURL.
func NewMemory(baseURL string) *Memory {
	return &Memory{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

// Upload stores file and returns its object.
func (m *Memory) Upload(ctx context.Context, accountID string, file File) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readFile(file)
	if err != nil {
		return nil, err
	}
	hash := Hash(data)

	m.mu.Lock()
	m.objects[hash] = data
	m.uploads++
	m.mu.Unlock()

	return &Object{
		URL:         m.baseURL + "/" + strings.TrimPrefix(hash, HashPrefix),
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        file.Size,
		Hash:        hash,
	}, nil
}

// Object returns the bytes stored under hash.
func (m *Memory) Object(hash string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[hash]
	return data, ok
}

// Uploads reports how many Upload calls succeeded.
func (m *Memory) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}
