// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
	"github.com/bureau-foundation/imlink/messaging"
)

func conversationsCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "conversations",
		Summary: "List and manage conversations",
		Subcommands: []*cli.Command{
			conversationsListCommand(globals),
			conversationsReadCommand(globals),
			conversationsDeleteCommand(globals),
		},
	}
}

type conversationsListParams struct {
	cli.JSONOutput
	cli.Pagination
	Type string `flag:"type" desc:"only conversations of this type: user or group"`
}

func conversationsListCommand(globals *cli.Globals) *cli.Command {
	var params conversationsListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List conversations, most recent first",
		Usage:   "imlink conversations list <account> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink conversations list <account> [flags]", "account"); err != nil {
				return err
			}
			conversationType := messaging.ConversationType(params.Type)
			switch conversationType {
			case "", messaging.ConversationUser, messaging.ConversationGroup:
			default:
				return cli.Validation("--type must be user or group, got %q", params.Type)
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			page, err := connection.ListConversations(ctx, args[0], messaging.ListConversationsParams{
				Offset: params.Offset,
				Limit:  params.Limit,
				Type:   conversationType,
			})
			if err != nil {
				return cli.APIError(err, "listing conversations")
			}
			if done, err := params.EmitJSON(page); done {
				return err
			}

			table := cli.NewTable()
			fmt.Fprintf(table, "ID\tTYPE\tNAME\tUNREAD\tLAST MESSAGE\n")
			for _, conversation := range page.Items {
				last := ""
				if conversation.LastMessage != nil {
					last = summarize(conversation.LastMessage)
				}
				fmt.Fprintf(table, "%s\t%s\t%s\t%d\t%s\n", conversation.ID, conversation.Type, conversation.Name, conversation.UnreadCount, last)
			}
			if err := table.Flush(); err != nil {
				return err
			}
			printPageFooter(len(page.Items), page.Offset, page.Total)
			return nil
		},
	}
}

func conversationsReadCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "read",
		Summary: "Mark a conversation as read",
		Usage:   "imlink conversations read <account> <conversation>",
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink conversations read <account> <conversation>", "account", "conversation"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			if _, err := connection.UpdateConversation(ctx, args[0], args[1], messaging.UpdateConversationParams{MarkRead: true}); err != nil {
				return cli.APIError(err, "marking conversation read")
			}
			return nil
		},
	}
}

func conversationsDeleteCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a conversation",
		Usage:   "imlink conversations delete <account> <conversation>",
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink conversations delete <account> <conversation>", "account", "conversation"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			if err := connection.DeleteConversation(ctx, args[0], args[1]); err != nil {
				return cli.APIError(err, "deleting conversation")
			}
			cli.Printf("Deleted %s\n", args[1])
			return nil
		},
	}
}
