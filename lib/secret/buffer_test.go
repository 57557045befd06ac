// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFromBytesZerosSource(t *testing.T) {
	source := []byte("tok_live_abc123")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if buffer.String() != "tok_live_abc123" {
		t.Errorf("String() = %q", buffer.String())
	}
	if buffer.Len() != len("tok_live_abc123") {
		t.Errorf("Len() = %d", buffer.Len())
	}
	for index, value := range source {
		if value != 0 {
			t.Fatalf("source[%d] = %d, want zeroed", index, value)
		}
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := NewFromBytes(nil); err == nil {
		t.Error("NewFromBytes(nil) succeeded")
	}
	if _, err := New(0); err == nil {
		t.Error("New(0) succeeded")
	}
}

func TestCloseIsIdempotentAndReadsPanic(t *testing.T) {
	buffer, err := NewFromString("secret-key")
	if err != nil {
		t.Fatalf("NewFromString: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("String() after Close did not panic")
		}
	}()
	_ = buffer.String()
}

func TestReadFromPath(t *testing.T) {
	directory := t.TempDir()

	t.Run("trims whitespace", func(t *testing.T) {
		path := filepath.Join(directory, "token")
		if err := os.WriteFile(path, []byte("  tok_123\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		buffer, err := ReadFromPath(path)
		if err != nil {
			t.Fatalf("ReadFromPath: %v", err)
		}
		defer buffer.Close()
		if buffer.String() != "tok_123" {
			t.Errorf("got %q", buffer.String())
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(directory, "empty")
		if err := os.WriteFile(path, []byte("\n \n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadFromPath(path); err == nil {
			t.Error("expected error for whitespace-only file")
		}
	})

	t.Run("first line of reader", func(t *testing.T) {
		buffer, err := readLine(strings.NewReader("tok_stdin\nignored\n"))
		if err != nil {
			t.Fatalf("readLine: %v", err)
		}
		defer buffer.Close()
		if buffer.String() != "tok_stdin" {
			t.Errorf("got %q", buffer.String())
		}
	})
}
