// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package authorize

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserOpener opens the consent URL in the system browser and hands
// back the receiver's window.
type BrowserOpener struct {
	Receiver *Receiver

	// Command builds the launcher command. Default: xdg-open, open, or
	// rundll32 depending on the platform.
	Command func(consentURL string) *exec.Cmd
}

// Open implements [Opener].
func (o BrowserOpener) Open(ctx context.Context, consentURL string) (Window, error) {
	if o.Receiver == nil {
		return nil, fmt.Errorf("authorize: BrowserOpener needs a Receiver")
	}
	build := o.Command
	if build == nil {
		build = browserCommand
	}
	command := build(consentURL)
	if command == nil {
		return nil, fmt.Errorf("authorize: no browser launcher for %s", runtime.GOOS)
	}
	if err := command.Start(); err != nil {
		return nil, fmt.Errorf("launching %s: %w", command.Path, err)
	}
	// The launcher exits as soon as it hands the URL off; reap it.
	go command.Wait()
	return o.Receiver.Window(), nil
}

func browserCommand(consentURL string) *exec.Cmd {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", consentURL)
	case "darwin":
		return exec.Command("open", consentURL)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", consentURL)
	default:
		return nil
	}
}
