// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the imlink CLI command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
	"github.com/bureau-foundation/imlink/lib/version"
)

// Root builds and returns the complete imlink command tree.
func Root() *cli.Command {
	return newRoot(&cli.Globals{})
}

func newRoot(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name: "imlink",
		Description: `imlink: command-line client for the IM platform API.

Connect IM accounts, browse contacts, groups and conversations, send
messages and moments, and stream real-time events.`,
		Usage:  "imlink [--config FILE] [--env-file FILE] <command> [flags]",
		Params: func() any { return globals },
		Subcommands: []*cli.Command{
			loginCommand(globals),
			logoutCommand(globals),
			authorizeCommand(globals),
			accountsCommand(globals),
			contactsCommand(globals),
			groupsCommand(globals),
			conversationsCommand(globals),
			messagesCommand(globals),
			momentsCommand(globals),
			listenCommand(globals),
			replayCommand(globals),
			configCommand(globals),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string) error {
					fmt.Fprintf(cli.Stdout, "imlink %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Save an API token (prompts when stdin is a terminal)",
				Command:     "imlink login --token-file ~/.imlink-token",
			},
			{
				Description: "Connect a WeChat account through the browser",
				Command:     "imlink authorize wechat --subscribe",
			},
			{
				Description: "Send a text message",
				Command:     "imlink messages send acct_1 wxid_friend --text 'hello'",
			},
			{
				Description: "Stream events for every account and record them",
				Command:     "imlink listen --record events.jsonl.zst --compression zstd",
			},
		},
	}
}

// connect is the common prologue of API commands.
func connect(ctx context.Context, globals *cli.Globals) (*cli.Connection, error) {
	return globals.Connect(ctx, cli.ConnectOptions{})
}
