// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// Fatal ends the process for an error returned from main's run
// function. An error carrying its own exit code (a command that
// already printed its output) exits with that code silently; anything
// else is written to stderr as "error: err" and exits 1.
func Fatal(err error) {
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		os.Exit(coder.ExitCode())
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
