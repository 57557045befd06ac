// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
	"github.com/bureau-foundation/imlink/messaging"
)

func contactsCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "contacts",
		Summary: "List and manage an account's contacts",
		Subcommands: []*cli.Command{
			contactsListCommand(globals),
			contactsAddCommand(globals),
			contactsRemarkCommand(globals),
			contactsRemoveCommand(globals),
		},
	}
}

type contactsListParams struct {
	cli.JSONOutput
	cli.Pagination
	Keyword string `flag:"keyword,k" desc:"only contacts whose name or remark contains this"`
}

func contactsListCommand(globals *cli.Globals) *cli.Command {
	var params contactsListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List contacts",
		Usage:   "imlink contacts list <account> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink contacts list <account> [flags]", "account"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			page, err := connection.ListContacts(ctx, args[0], messaging.ListContactsParams{
				Offset:  params.Offset,
				Limit:   params.Limit,
				Keyword: params.Keyword,
			})
			if err != nil {
				return cli.APIError(err, "listing contacts")
			}
			if done, err := params.EmitJSON(page); done {
				return err
			}

			table := cli.NewTable()
			fmt.Fprintf(table, "ID\tNAME\tREMARK\tREGION\n")
			for _, contact := range page.Items {
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\n", contact.ID, contact.Name, contact.Remark, contact.Region)
			}
			if err := table.Flush(); err != nil {
				return err
			}
			printPageFooter(len(page.Items), page.Offset, page.Total)
			return nil
		},
	}
}

type contactsAddParams struct {
	cli.JSONOutput
	Greeting string `flag:"greeting" desc:"message shown with the friend request"`
	Remark   string `flag:"remark" desc:"remark to set once accepted"`
}

func contactsAddCommand(globals *cli.Globals) *cli.Command {
	var params contactsAddParams

	return &cli.Command{
		Name:    "add",
		Summary: "Send a friend request",
		Usage:   "imlink contacts add <account> <user> [--greeting TEXT] [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink contacts add <account> <user> [flags]", "account", "user"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			contact, err := connection.AddContact(ctx, args[0], messaging.AddContactParams{
				UserID:   args[1],
				Greeting: params.Greeting,
				Remark:   params.Remark,
			})
			if err != nil {
				return cli.APIError(err, "adding contact")
			}
			if done, err := params.EmitJSON(contact); done {
				return err
			}
			cli.Printf("Friend request sent to %s\n", args[1])
			return nil
		},
	}
}

func contactsRemarkCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "remark",
		Summary: "Set a contact's remark",
		Usage:   "imlink contacts remark <account> <contact> <remark>",
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink contacts remark <account> <contact> <remark>", "account", "contact", "remark"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			remark := args[2]
			if _, err := connection.UpdateContact(ctx, args[0], args[1], messaging.UpdateContactParams{Remark: &remark}); err != nil {
				return cli.APIError(err, "updating contact")
			}
			cli.Printf("Updated %s\n", args[1])
			return nil
		},
	}
}

func contactsRemoveCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "remove",
		Summary: "Delete a contact",
		Usage:   "imlink contacts remove <account> <contact>",
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink contacts remove <account> <contact>", "account", "contact"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			if err := connection.DeleteContact(ctx, args[0], args[1]); err != nil {
				return cli.APIError(err, "deleting contact")
			}
			cli.Printf("Removed %s\n", args[1])
			return nil
		},
	}
}
