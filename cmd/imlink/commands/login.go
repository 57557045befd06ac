// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
	"github.com/bureau-foundation/imlink/lib/sealed"
	"github.com/bureau-foundation/imlink/lib/secret"
	"github.com/bureau-foundation/imlink/messaging"
)

type loginParams struct {
	TokenFile string   `flag:"token-file" desc:"file containing the API token, or - to read one line from stdin (default: prompt)"`
	SealTo    []string `flag:"seal-to" desc:"age public key (age1...) to seal the session file to; repeatable"`
	NoVerify  bool     `flag:"no-verify" desc:"save the token without checking it against the API"`
}

func loginCommand(globals *cli.Globals) *cli.Command {
	var params loginParams

	return &cli.Command{
		Name:    "login",
		Summary: "Save an API token for later commands",
		Description: `Save an API token to the session file (session.path in the config,
default ~/.config/imlink/session.json) so later commands authenticate
without flags. The file is written with mode 0600.

With --seal-to the file is encrypted to one or more age recipients
and session.identity_file must name the matching identity to read it.

The token is checked by listing one account unless --no-verify is set.
IMLINK_TOKEN, when set, takes precedence over the saved session.`,
		Usage: "imlink login [--token-file FILE] [--seal-to age1...] [flags]",
		Examples: []cli.Example{
			{
				Description: "Log in interactively (prompts for the token)",
				Command:     "imlink login",
			},
			{
				Description: "Log in from a secret manager and seal the session",
				Command:     "vault read -field=token secret/imlink | imlink login --token-file - --seal-to age1ql3z7hjy54pw3hyww5ayyfg7zqgvc7w3j2elw8zmrj2kg5sfn9aqmcac8p",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink login [flags]"); err != nil {
				return err
			}
			for _, recipient := range params.SealTo {
				if err := sealed.ParsePublicKey(recipient); err != nil {
					return cli.Validation("--seal-to %q: %w", recipient, err)
				}
			}

			env, err := globals.Load()
			if err != nil {
				return err
			}

			token, err := readToken(params.TokenFile)
			if err != nil {
				return err
			}
			defer token.Close()

			if !params.NoVerify {
				clientConfig := env.ClientConfig(token.String())
				clientConfig.HTTPClient = globals.HTTPClient
				client, err := messaging.NewClient(clientConfig)
				if err != nil {
					return cli.Internal("creating client: %w", err)
				}
				defer client.Close()

				verifyContext, cancel := context.WithTimeout(ctx, 30*time.Second)
				defer cancel()
				page, err := client.ListAccounts(verifyContext, messaging.ListAccountsParams{Limit: 1})
				if err != nil {
					return cli.APIError(err, "verifying token")
				}
				env.Logger.Debug("token verified", "accounts", page.Total)
			}

			path := env.Config.Session.Path
			session := &cli.Session{
				BaseURL: env.Config.API.BaseURL,
				Token:   token.String(),
				SavedAt: time.Now().UTC(),
			}
			if err := cli.SaveSession(path, session, params.SealTo); err != nil {
				return cli.Internal("%w", err)
			}
			if len(params.SealTo) > 0 {
				cli.Printf("Session sealed to %d recipient(s) and saved to %s\n", len(params.SealTo), path)
			} else {
				cli.Printf("Session saved to %s\n", path)
			}
			return nil
		},
	}
}

func logoutCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "logout",
		Summary: "Remove the saved session",
		Run: func(_ context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink logout"); err != nil {
				return err
			}
			env, err := globals.Load()
			if err != nil {
				return err
			}
			if err := cli.RemoveSession(env.Config.Session.Path); err != nil {
				return cli.Internal("%w", err)
			}
			cli.Printf("Removed %s\n", env.Config.Session.Path)
			return nil
		},
	}
}

// readToken reads the token from tokenFile, or prompts on the terminal
// with echo disabled when tokenFile is empty.
func readToken(tokenFile string) (*secret.Buffer, error) {
	if tokenFile != "" {
		token, err := secret.ReadFromPath(tokenFile)
		if err != nil {
			return nil, cli.Validation("reading token: %w", err)
		}
		return token, nil
	}

	stdinFileDescriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFileDescriptor) {
		return nil, cli.Validation("no terminal available for an interactive token prompt (use --token-file)")
	}
	cli.Printf("API token: ")
	tokenBytes, err := term.ReadPassword(stdinFileDescriptor)
	cli.Printf("\n")
	if err != nil {
		return nil, cli.Internal("reading token: %w", err)
	}
	token, err := secret.NewFromBytes(tokenBytes)
	if err != nil {
		secret.Zero(tokenBytes)
		return nil, cli.Validation("token is empty")
	}
	return token, nil
}
