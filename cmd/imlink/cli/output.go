// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"
	"os"
	"reflect"
	"text/tabwriter"
)

// Stdout and Stderr are where commands write. Tests replace them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// JSONOutput is an embeddable struct that adds --json output support to
// a command's parameter struct.
//
//	type listParams struct {
//	    cli.JSONOutput
//	    Limit int `flag:"limit" desc:"page size"`
//	}
//
//	// In Run:
//	if done, err := params.EmitJSON(page); done {
//	    return err
//	}
//	// ... text formatting ...
type JSONOutput struct {
	OutputJSON bool `flag:"json" desc:"output as JSON"`
}

// EmitJSON writes result as indented JSON to Stdout if --json is set.
// Returns (true, nil) on success, (true, err) on write failure, or
// (false, nil) when --json is not set and the caller should proceed
// with text formatting. A nil slice is written as [].
func (j *JSONOutput) EmitJSON(result any) (bool, error) {
	if !j.OutputJSON {
		return false, nil
	}
	return true, WriteJSON(normalizeNilSlice(result))
}

// WriteJSON marshals value as indented JSON to Stdout.
func WriteJSON(value any) error {
	encoder := json.NewEncoder(Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// NewTable returns a tabwriter on Stdout for aligned text output. The
// caller flushes it.
func NewTable() *tabwriter.Writer {
	return tabwriter.NewWriter(Stdout, 2, 0, 3, ' ', 0)
}

func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}

// Pagination is an embeddable set of offset-paging flags.
type Pagination struct {
	Offset int `flag:"offset" desc:"number of items to skip"`
	Limit  int `flag:"limit" desc:"maximum number of items to return (server default when 0)"`
}
