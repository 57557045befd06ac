// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// storage is a fake object store accepting presigned PUTs.
type storage struct {
	server *httptest.Server

	mu      sync.Mutex
	puts    int
	body    []byte
	headers http.Header
	status  int
}

func newStorage(t *testing.T) *storage {
	t.Helper()
	store := &storage{status: http.StatusOK}
	store.server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)
		store.mu.Lock()
		defer store.mu.Unlock()
		store.puts++
		store.body = body
		store.headers = request.Header.Clone()
		writer.WriteHeader(store.status)
		if store.status >= 300 {
			writer.Write([]byte("signature expired"))
		}
	}))
	t.Cleanup(store.server.Close)
	return store
}

func TestPresignedUpload(t *testing.T) {
	store := newStorage(t)
	content := []byte("\x89PNG\r\n\x1a\nfake image bytes")

	var granted GrantRequest
	grant := func(ctx context.Context, accountID string, request GrantRequest) (*Grant, error) {
		if accountID != "acct-1" {
			t.Errorf("grant accountID = %q", accountID)
		}
		granted = request
		return &Grant{
			UploadURL: store.server.URL + "/bucket/object",
			Headers:   map[string]string{"X-Upload-Signature": "sig"},
			URL:       "https://cdn.example.com/object",
		}, nil
	}

	uploader := NewPresigned(grant, PresignedOptions{})
	object, err := uploader.Upload(context.Background(), "acct-1", File{
		Name: "photo.png",
		Size: int64(len(content)),
		Body: bytes.NewReader(content),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if granted.Hash != Hash(content) || !strings.HasPrefix(granted.Hash, HashPrefix) {
		t.Errorf("grant hash = %q", granted.Hash)
	}
	if granted.ContentType != "image/png" {
		t.Errorf("detected content type = %q, want image/png", granted.ContentType)
	}
	if object.URL != "https://cdn.example.com/object" || object.Size != int64(len(content)) || object.Hash != granted.Hash {
		t.Errorf("object = %+v", object)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if !bytes.Equal(store.body, content) {
		t.Errorf("stored body = %q", store.body)
	}
	if store.headers.Get("X-Upload-Signature") != "sig" {
		t.Errorf("grant headers not forwarded: %v", store.headers)
	}
}

func TestPresignedSkipsExistingObjects(t *testing.T) {
	store := newStorage(t)
	grant := func(context.Context, string, GrantRequest) (*Grant, error) {
		return &Grant{URL: "https://cdn.example.com/existing", Exists: true}, nil
	}
	object, err := NewPresigned(grant, PresignedOptions{}).Upload(context.Background(), "acct-1", File{
		ContentType: "audio/ogg",
		Size:        3,
		Body:        strings.NewReader("ogg"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if object.URL != "https://cdn.example.com/existing" {
		t.Errorf("object URL = %s", object.URL)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.puts != 0 {
		t.Errorf("storage saw %d PUTs, want 0", store.puts)
	}
}

func TestPresignedErrors(t *testing.T) {
	t.Run("storage rejects", func(t *testing.T) {
		store := newStorage(t)
		store.mu.Lock()
		store.status = http.StatusForbidden
		store.mu.Unlock()
		grant := func(context.Context, string, GrantRequest) (*Grant, error) {
			return &Grant{UploadURL: store.server.URL, URL: "https://cdn.example.com/x"}, nil
		}
		_, err := NewPresigned(grant, PresignedOptions{}).Upload(context.Background(), "a", File{
			ContentType: "text/plain", Size: 1, Body: strings.NewReader("x"),
		})
		if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "signature expired") {
			t.Errorf("error = %v, want 403 with body", err)
		}
	})

	t.Run("grant fails", func(t *testing.T) {
		denied := errors.New("quota exceeded")
		grant := func(context.Context, string, GrantRequest) (*Grant, error) { return nil, denied }
		_, err := NewPresigned(grant, PresignedOptions{}).Upload(context.Background(), "a", File{
			ContentType: "text/plain", Size: 1, Body: strings.NewReader("x"),
		})
		if !errors.Is(err, denied) {
			t.Errorf("error = %v, want wrapped grant error", err)
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		grant := func(context.Context, string, GrantRequest) (*Grant, error) {
			t.Fatal("grant requested for a file with the wrong size")
			return nil, nil
		}
		uploader := NewPresigned(grant, PresignedOptions{})
		for _, file := range []File{
			{Size: 2, Body: strings.NewReader("abc")},
			{Size: 5, Body: strings.NewReader("abc")},
			{Size: 0, Body: strings.NewReader("abc")},
			{Size: 3},
		} {
			if _, err := uploader.Upload(context.Background(), "a", file); err == nil {
				t.Errorf("Upload(%+v) succeeded", file)
			}
		}
	})
}

func TestMemoryUploader(t *testing.T) {
	memory := NewMemory("https://objects.test/")
	object, err := memory.Upload(context.Background(), "acct", File{
		Name: "clip.mp4", ContentType: "video/mp4", Size: 4, Body: strings.NewReader("mp4!"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(object.URL, "https://objects.test/") || strings.Contains(object.URL, HashPrefix) {
		t.Errorf("URL = %s", object.URL)
	}
	stored, ok := memory.Object(object.Hash)
	if !ok || string(stored) != "mp4!" {
		t.Errorf("stored = %q, %v", stored, ok)
	}
	if memory.Uploads() != 1 {
		t.Errorf("Uploads() = %d", memory.Uploads())
	}
}

func TestHashIsStable(t *testing.T) {
	if Hash([]byte("a")) != Hash([]byte("a")) {
		t.Error("Hash is not deterministic")
	}
	if Hash([]byte("a")) == Hash([]byte("b")) {
		t.Error("Hash collides on different input")
	}
	if len(strings.TrimPrefix(Hash(nil), HashPrefix)) != 64 {
		t.Errorf("Hash(nil) = %s, want 64 hex chars", Hash(nil))
	}
}
