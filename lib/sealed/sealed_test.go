// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"strings"
	"testing"
)

func TestGenerateKeypair(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer keypair.Close()

	if !strings.HasPrefix(keypair.PrivateKey.String(), "AGE-SECRET-KEY-1") {
		t.Errorf("private key has wrong prefix")
	}
	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Errorf("PublicKey = %q, want prefix age1", keypair.PublicKey)
	}
	if err := ParsePublicKey(keypair.PublicKey); err != nil {
		t.Errorf("ParsePublicKey: %v", err)
	}
}

func TestSealOpenRoundtrip(t *testing.T) {
	first, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer first.Close()
	second, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer second.Close()

	session := []byte(`{"base_url":"https://api.example.com","token":"tok_123"}`)
	ciphertext, err := Seal(session, []string{first.PublicKey, second.PublicKey})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !IsSealed(ciphertext) {
		t.Fatalf("IsSealed(ciphertext) = false")
	}
	if strings.Contains(string(ciphertext), "tok_123") {
		t.Fatal("ciphertext contains the plaintext token")
	}

	for name, keypair := range map[string]*Keypair{"first": first, "second": second} {
		t.Run(name, func(t *testing.T) {
			plaintext, err := Open(ciphertext, keypair.PrivateKey)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer plaintext.Close()
			if plaintext.String() != string(session) {
				t.Errorf("plaintext = %q", plaintext.String())
			}
		})
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	owner, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer owner.Close()
	stranger, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer stranger.Close()

	ciphertext, err := Seal([]byte("session"), []string{owner.PublicKey})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open(ciphertext, stranger.PrivateKey); err == nil {
		t.Error("Open with a non-recipient key succeeded")
	}
}

func TestSealValidation(t *testing.T) {
	if _, err := Seal([]byte("x"), nil); err == nil {
		t.Error("Seal with no recipients succeeded")
	}
	if _, err := Seal([]byte("x"), []string{"not-a-key"}); err == nil {
		t.Error("Seal with an invalid recipient succeeded")
	}
	if IsSealed([]byte(`{"token":"plain"}`)) {
		t.Error("IsSealed(plain JSON) = true")
	}
}
