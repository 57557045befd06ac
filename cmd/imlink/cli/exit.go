// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals an exit code without printing an extra error
// message. The command is expected to have written its own output.
// "imlink authorize" returns one when the user closes the consent
// window.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this interface on
// returned errors to distinguish a handled exit from an error to print.
func (e *ExitError) ExitCode() int {
	return e.Code
}
