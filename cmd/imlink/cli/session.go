// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/imlink/lib/sealed"
	"github.com/bureau-foundation/imlink/lib/secret"
)

// Session is the saved login written by "imlink login" and read by
// every command that talks to the API.
type Session struct {
	// BaseURL is the API the token was issued for.
	BaseURL string `json:"base_url"`

	// Token is the API token. Never log it.
	Token string `json:"token"`

	SavedAt time.Time `json:"saved_at"`
}

// ErrNoSession reports that no session file exists.
var ErrNoSession = errors.New("no saved session")

// SaveSession writes session to path with mode 0600, creating the
// directory with mode 0700. With recipients the file is sealed to
// those age public keys and needs an identity file to read back.
func SaveSession(path string, session *Session, recipients []string) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')
	defer secret.Zero(data)

	contents := data
	if len(recipients) > 0 {
		contents, err = sealed.Seal(data, recipients)
		if err != nil {
			return fmt.Errorf("sealing session: %w", err)
		}
	}

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("creating session directory %s: %w", directory, err)
	}
	if err := writeFileAtomic(path, contents); err != nil {
		return fmt.Errorf("writing session file %s: %w", path, err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file next to path, syncs
// it, and renames it into place, so readers never see a partial
// session. The file is created with mode 0600.
func writeFileAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return err
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return err
	}

	if directory, err := os.Open(filepath.Dir(path)); err == nil {
		directory.Sync()
		directory.Close()
	}
	return nil
}

// LoadSession reads the session at path. A sealed file is opened with
// the age identity in identityFile.
func LoadSession(path, identityFile string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoSession, path)
		}
		return nil, fmt.Errorf("reading session file %s: %w", path, err)
	}

	if sealed.IsSealed(data) {
		if identityFile == "" {
			return nil, Validation("session file %s is sealed; set session.identity_file in the config", path)
		}
		identity, err := secret.ReadFromPath(identityFile)
		if err != nil {
			return nil, fmt.Errorf("reading identity file %s: %w", identityFile, err)
		}
		defer identity.Close()

		plaintext, err := sealed.Open(data, identity)
		if err != nil {
			return nil, fmt.Errorf("opening sealed session %s: %w", path, err)
		}
		defer plaintext.Close()
		data = plaintext.Bytes()
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	if session.Token == "" {
		return nil, fmt.Errorf("session file %s has no token", path)
	}
	return &session, nil
}

// RemoveSession deletes the session file. A missing file is not an
// error.
func RemoveSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file %s: %w", path, err)
	}
	return nil
}
