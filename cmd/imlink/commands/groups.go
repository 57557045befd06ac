// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
	"github.com/bureau-foundation/imlink/messaging"
)

func groupsCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "groups",
		Summary: "List and manage group chats",
		Subcommands: []*cli.Command{
			groupsListCommand(globals),
			groupsMembersCommand(globals),
			groupsCreateCommand(globals),
			groupsQuitCommand(globals),
		},
	}
}

type groupsListParams struct {
	cli.JSONOutput
	cli.Pagination
	Keyword string `flag:"keyword,k" desc:"only groups whose name contains this"`
}

func groupsListCommand(globals *cli.Globals) *cli.Command {
	var params groupsListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List groups",
		Usage:   "imlink groups list <account> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink groups list <account> [flags]", "account"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			page, err := connection.ListGroups(ctx, args[0], messaging.ListGroupsParams{
				Offset:  params.Offset,
				Limit:   params.Limit,
				Keyword: params.Keyword,
			})
			if err != nil {
				return cli.APIError(err, "listing groups")
			}
			if done, err := params.EmitJSON(page); done {
				return err
			}

			table := cli.NewTable()
			fmt.Fprintf(table, "ID\tNAME\tMEMBERS\tOWNER\n")
			for _, group := range page.Items {
				fmt.Fprintf(table, "%s\t%s\t%d\t%s\n", group.ID, group.Name, group.MemberCount, group.OwnerID)
			}
			if err := table.Flush(); err != nil {
				return err
			}
			printPageFooter(len(page.Items), page.Offset, page.Total)
			return nil
		},
	}
}

type groupsMembersParams struct {
	cli.JSONOutput
	cli.Pagination
}

func groupsMembersCommand(globals *cli.Globals) *cli.Command {
	var params groupsMembersParams

	return &cli.Command{
		Name:    "members",
		Summary: "List a group's members",
		Usage:   "imlink groups members <account> <group> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink groups members <account> <group> [flags]", "account", "group"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			page, err := connection.ListGroupMembers(ctx, args[0], args[1], messaging.OffsetParams{
				Offset: params.Offset,
				Limit:  params.Limit,
			})
			if err != nil {
				return cli.APIError(err, "listing group members")
			}
			if done, err := params.EmitJSON(page); done {
				return err
			}

			table := cli.NewTable()
			fmt.Fprintf(table, "ID\tNAME\tALIAS\tROLE\n")
			for _, member := range page.Items {
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\n", member.ID, member.Name, member.Alias, member.Role)
			}
			if err := table.Flush(); err != nil {
				return err
			}
			printPageFooter(len(page.Items), page.Offset, page.Total)
			return nil
		},
	}
}

type groupsCreateParams struct {
	cli.JSONOutput
	Name    string   `flag:"name" desc:"group name"`
	Members []string `flag:"member,m" desc:"user id of an initial member; repeatable"`
}

func groupsCreateCommand(globals *cli.Globals) *cli.Command {
	var params groupsCreateParams

	return &cli.Command{
		Name:    "create",
		Summary: "Create a group",
		Usage:   "imlink groups create <account> --member U1 --member U2 [--name NAME]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink groups create <account> [flags]", "account"); err != nil {
				return err
			}
			if len(params.Members) == 0 {
				return cli.Validation("at least one --member is required")
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			group, err := connection.CreateGroup(ctx, args[0], messaging.CreateGroupParams{
				Name:      params.Name,
				MemberIDs: params.Members,
			})
			if err != nil {
				return cli.APIError(err, "creating group")
			}
			if done, err := params.EmitJSON(group); done {
				return err
			}
			fmt.Fprintln(cli.Stdout, group.ID)
			return nil
		},
	}
}

func groupsQuitCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "quit",
		Summary: "Leave a group",
		Usage:   "imlink groups quit <account> <group>",
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink groups quit <account> <group>", "account", "group"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			if err := connection.QuitGroup(ctx, args[0], args[1]); err != nil {
				return cli.APIError(err, "leaving group")
			}
			cli.Printf("Left %s\n", args[1])
			return nil
		},
	}
}
