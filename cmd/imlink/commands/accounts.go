// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
	"github.com/bureau-foundation/imlink/messaging"
)

func accountsCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "accounts",
		Summary: "List and manage connected IM accounts",
		Subcommands: []*cli.Command{
			accountsListCommand(globals),
			accountsShowCommand(globals),
			accountsUpdateCommand(globals),
			accountsDeleteCommand(globals),
		},
	}
}

type accountsListParams struct {
	cli.JSONOutput
	cli.Pagination
	Provider string `flag:"provider" desc:"only accounts of this provider"`
	Status   string `flag:"status" desc:"only accounts with this status: online, offline, expired"`
}

func accountsListCommand(globals *cli.Globals) *cli.Command {
	var params accountsListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List accounts",
		Usage:   "imlink accounts list [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink accounts list [flags]"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			page, err := connection.ListAccounts(ctx, messaging.ListAccountsParams{
				Offset:   params.Offset,
				Limit:    params.Limit,
				Provider: params.Provider,
				Status:   messaging.AccountStatus(params.Status),
			})
			if err != nil {
				return cli.APIError(err, "listing accounts")
			}
			if done, err := params.EmitJSON(page); done {
				return err
			}

			table := cli.NewTable()
			fmt.Fprintf(table, "ID\tPROVIDER\tNAME\tSTATUS\n")
			for _, account := range page.Items {
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\n", account.ID, account.Provider, account.Name, account.Status)
			}
			if err := table.Flush(); err != nil {
				return err
			}
			printPageFooter(len(page.Items), page.Offset, page.Total)
			return nil
		},
	}
}

type accountShowParams struct {
	cli.JSONOutput
}

func accountsShowCommand(globals *cli.Globals) *cli.Command {
	var params accountShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show one account",
		Usage:   "imlink accounts show <account> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink accounts show <account> [flags]", "account"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			account, err := connection.RetrieveAccount(ctx, args[0], messaging.RetrieveAccountParams{})
			if err != nil {
				return cli.APIError(err, "retrieving account")
			}
			if done, err := params.EmitJSON(account); done {
				return err
			}
			printAccount(account)
			return nil
		},
	}
}

type accountUpdateParams struct {
	cli.JSONOutput
	Name      string `flag:"name" desc:"new display name"`
	CustomID  string `flag:"custom-id" desc:"new custom id"`
	Avatar    string `flag:"avatar" desc:"new avatar URL"`
	Signature string `flag:"signature" desc:"new signature"`
}

func accountsUpdateCommand(globals *cli.Globals) *cli.Command {
	var params accountUpdateParams

	return &cli.Command{
		Name:    "update",
		Summary: "Change an account's profile",
		Usage:   "imlink accounts update <account> [--name N] [--signature S] [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink accounts update <account> [flags]", "account"); err != nil {
				return err
			}
			update := messaging.UpdateAccountParams{
				Name:      optional(params.Name),
				CustomID:  optional(params.CustomID),
				Avatar:    optional(params.Avatar),
				Signature: optional(params.Signature),
			}
			if update == (messaging.UpdateAccountParams{}) {
				return cli.Validation("nothing to update: pass at least one of --name, --custom-id, --avatar, --signature")
			}

			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			account, err := connection.UpdateAccount(ctx, args[0], update)
			if err != nil {
				return cli.APIError(err, "updating account")
			}
			if done, err := params.EmitJSON(account); done {
				return err
			}
			printAccount(account)
			return nil
		},
	}
}

func accountsDeleteCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "delete",
		Summary: "Disconnect an account",
		Usage:   "imlink accounts delete <account>",
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink accounts delete <account>", "account"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			if err := connection.DeleteAccount(ctx, args[0]); err != nil {
				return cli.APIError(err, "deleting account")
			}
			cli.Printf("Deleted account %s\n", args[0])
			return nil
		},
	}
}

func printAccount(account *messaging.Account) {
	table := cli.NewTable()
	fmt.Fprintf(table, "id:\t%s\n", account.ID)
	fmt.Fprintf(table, "provider:\t%s\n", account.Provider)
	fmt.Fprintf(table, "name:\t%s\n", account.Name)
	fmt.Fprintf(table, "status:\t%s\n", account.Status)
	if account.CustomID != "" {
		fmt.Fprintf(table, "custom id:\t%s\n", account.CustomID)
	}
	if account.Signature != "" {
		fmt.Fprintf(table, "signature:\t%s\n", account.Signature)
	}
	table.Flush()
}

// printPageFooter reports the position within an offset-paginated list
// on stderr.
func printPageFooter(count, offset, total int) {
	if total > offset+count {
		cli.Printf("showing %d-%d of %d (use --offset %d for more)\n", offset+1, offset+count, total, offset+count)
	}
}

// optional maps an unset flag to a nil field of an update.
func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
