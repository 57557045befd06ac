// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// captureOutput redirects Stdout and Stderr for the rest of the test.
func captureOutput(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = new(bytes.Buffer), new(bytes.Buffer)
	previousOut, previousErr := Stdout, Stderr
	Stdout, Stderr = stdout, stderr
	t.Cleanup(func() { Stdout, Stderr = previousOut, previousErr })
	return stdout, stderr
}

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "imlink",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(_ context.Context, args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "accounts",
				Run: func(_ context.Context, args []string) error {
					called = "accounts"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"accounts"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "accounts" {
		t.Errorf("dispatched to %q, want %q", called, "accounts")
	}
}

func TestCommand_Execute_NestedSubcommandsWithFlags(t *testing.T) {
	type listParams struct {
		Limit int    `flag:"limit"`
		Kind  string `flag:"kind,k"`
	}
	var params listParams
	var receivedArgs []string

	root := &Command{
		Name: "imlink",
		Subcommands: []*Command{
			{
				Name: "accounts",
				Subcommands: []*Command{
					{
						Name:   "list",
						Params: func() any { return &params },
						Run: func(_ context.Context, args []string) error {
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	err := root.Execute(context.Background(), []string{"accounts", "list", "acct_1", "--limit", "5", "-k", "group"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "acct_1" {
		t.Errorf("args = %v, want [acct_1]", receivedArgs)
	}
	if params.Limit != 5 || params.Kind != "group" {
		t.Errorf("params = %+v", params)
	}
}

func TestCommand_Execute_RootFlagsBeforeSubcommand(t *testing.T) {
	var globals Globals
	var sawConfig string

	root := &Command{
		Name:   "imlink",
		Params: func() any { return &globals },
		Subcommands: []*Command{
			{
				Name: "config",
				Run: func(_ context.Context, args []string) error {
					sawConfig = globals.ConfigFile
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"--config", "/etc/imlink.yaml", "config"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if sawConfig != "/etc/imlink.yaml" {
		t.Errorf("ConfigFile = %q", sawConfig)
	}
}

func TestCommand_Execute_UnknownCommandSuggests(t *testing.T) {
	root := &Command{
		Name: "imlink",
		Subcommands: []*Command{
			{Name: "messages", Run: func(context.Context, []string) error { return nil }},
			{Name: "moments", Run: func(context.Context, []string) error { return nil }},
		},
	}

	err := root.Execute(context.Background(), []string{"mesages"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), `did you mean "messages"`) {
		t.Errorf("error = %q", err)
	}
	if Categorize(err) != CategoryValidation {
		t.Errorf("category = %q", Categorize(err))
	}
}

func TestCommand_Execute_UnknownFlagSuggests(t *testing.T) {
	type params struct {
		JSONOutput
		Subscribe bool `flag:"subscribe,s"`
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"long typo", []string{"--subscrbe"}, "did you mean --subscribe?"},
		{"typo after valid shorthand", []string{"-s", "--jsno"}, "did you mean --json?"},
		{"typo with value", []string{"--jsn=true"}, "did you mean --json?"},
		{"unknown shorthand", []string{"-x"}, "unknown shorthand flag"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var p params
			command := &Command{
				Name:   "authorize",
				Params: func() any { return &p },
				Run:    func(context.Context, []string) error { return nil },
			}

			err := command.Execute(context.Background(), test.args)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("error = %v, want it to contain %q", err, test.want)
			}
			if Categorize(err) != CategoryValidation {
				t.Errorf("category = %s, want validation", Categorize(err))
			}
		})
	}
}

func TestCommand_Execute_SubcommandRequired(t *testing.T) {
	_, stderr := captureOutput(t)
	root := &Command{
		Name:        "imlink",
		Subcommands: []*Command{{Name: "version", Summary: "Print version information"}},
	}

	err := root.Execute(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(stderr.String(), "Print version information") {
		t.Errorf("help not printed:\n%s", stderr)
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	_, stderr := captureOutput(t)
	type params struct {
		Limit int `flag:"limit" desc:"maximum number of items"`
	}
	var p params
	command := &Command{
		Name:        "list",
		Description: "List accounts.",
		Params:      func() any { return &p },
		Examples:    []Example{{Description: "First page", Command: "imlink accounts list --limit 10"}},
		Run: func(context.Context, []string) error {
			t.Error("Run called for --help")
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("Execute(--help) = %v", err)
	}
	help := stderr.String()
	for _, want := range []string{"List accounts.", "--limit", "maximum number of items", "# First page"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}

func TestCommand_Execute_HelpAfterPositional(t *testing.T) {
	captureOutput(t)
	command := &Command{
		Name:   "show",
		Params: func() any { return &struct{}{} },
		Run:    func(context.Context, []string) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"acct_1", "--help"})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 0 {
		t.Errorf("error = %v, want exit code 0", err)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"listen", "listen", 0},
		{"lsiten", "listen", 2},
		{"group", "groups", 1},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}
