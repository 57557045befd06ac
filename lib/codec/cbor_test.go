// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

type sampleFrame struct {
	Op       string   `cbor:"op"`
	ID       string   `cbor:"id,omitempty"`
	Channels []string `cbor:"channels,omitempty"`
	Payload  []byte   `cbor:"payload,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleFrame{
		Op:       "subscribe",
		ID:       "f-1",
		Channels: []string{"account-a", "account-b"},
		Payload:  []byte(`{"type":"typing"}`),
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleFrame
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Op != original.Op || decoded.ID != original.ID {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
	if len(decoded.Channels) != 2 || decoded.Channels[1] != "account-b" {
		t.Errorf("Channels = %v", decoded.Channels)
	}
	if !bytes.Equal(decoded.Payload, original.Payload) {
		t.Errorf("Payload = %q", decoded.Payload)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	first, err := Marshal(map[string]any{"op": "publish", "id": "x", "channel": "account-1"})
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(map[string]any{"channel": "account-1", "id": "x", "op": "publish"})
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[string]any{"op": "ack", "id": "7", "server_time": 1700000000})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleFrame
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Op != "ack" || decoded.ID != "7" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestUntypedMapsUseStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"nested": map[string]any{"k": "v"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	outer, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if _, ok := outer["nested"].(map[string]any); !ok {
		t.Errorf("nested type = %T, want map[string]any", outer["nested"])
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(sampleFrame{Op: "message"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"message"`) {
		t.Errorf("Diagnose = %s, want it to mention the op", notation)
	}
}
