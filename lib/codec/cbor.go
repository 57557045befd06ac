// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Frames never use non-string keys; decode untyped maps the way
		// encoding/json would so diagnostics can print them.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// A relay that is misbehaving should not be able to make the
		// client allocate unbounded arrays.
		MaxArrayElements: 65536,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Diagnose returns the RFC 8949 diagnostic notation for data. The
// websocket client logs it at DEBUG for frames it cannot interpret.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
