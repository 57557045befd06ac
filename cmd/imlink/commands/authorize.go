// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/bureau-foundation/imlink/authorize"
	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
	"github.com/bureau-foundation/imlink/lib/config"
	"github.com/bureau-foundation/imlink/messaging"
)

type authorizeParams struct {
	cli.JSONOutput
	Subscribe bool `flag:"subscribe" desc:"subscribe the new account's real-time channel (needs pubsub config)"`
}

// browserCommand launches the consent page. Tests replace it.
var browserCommand func(consentURL string) *exec.Cmd

func authorizeCommand(globals *cli.Globals) *cli.Command {
	var params authorizeParams

	return &cli.Command{
		Name:    "authorize",
		Summary: "Connect an IM account through the provider's consent page",
		Description: `Open the provider's consent page in the system browser and wait for the
result on a loopback receiver (authorize.listen_address). Prints the new
account id.

Closing the browser page without granting access exits with status 1
and prints nothing on stdout. authorize.timeout bounds the wait.`,
		Usage: "imlink authorize <provider> [flags]",
		Examples: []cli.Example{
			{
				Description: "Connect a WeChat account",
				Command:     "imlink authorize wechat",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink authorize <provider> [flags]", "provider"); err != nil {
				return err
			}
			provider := args[0]

			connection, err := globals.Connect(ctx, cli.ConnectOptions{Realtime: params.Subscribe})
			if err != nil {
				return err
			}
			defer connection.Close()
			cfg := connection.Config.Authorize

			pollInterval, _ := config.ParseDuration(cfg.PollInterval)
			graceDelay, _ := config.ParseDuration(cfg.GraceDelay)
			if timeout, _ := config.ParseDuration(cfg.Timeout); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			receiver, err := authorize.NewReceiver(cfg.ListenAddress, connection.Logger)
			if err != nil {
				return cli.Internal("%w", err)
			}
			defer receiver.Close()

			accountID, err := connection.Authorize(ctx, messaging.AuthorizeParams{
				Provider:    provider,
				Opener:      authorize.BrowserOpener{Receiver: receiver, Command: browserCommand},
				Source:      receiver,
				RedirectURL: receiver.RedirectURL(),
				Subscribe:   params.Subscribe,
				Handshake: authorize.Handshake{
					PollInterval: pollInterval,
					GraceDelay:   graceDelay,
				},
			})
			switch {
			case errors.Is(err, authorize.ErrPopupBlocked):
				return cli.Internal("%w", err).WithHint("Open a browser manually or check that xdg-open works.")
			case errors.Is(err, authorize.ErrInvalidState):
				return cli.Forbidden("%w", err)
			case errors.Is(err, context.DeadlineExceeded):
				return cli.Transient("authorization timed out: %w", err)
			case err != nil:
				var providerErr *authorize.ProviderError
				if errors.As(err, &providerErr) {
					return cli.Forbidden("%w", err)
				}
				return cli.Internal("%w", err)
			}

			if accountID == "" {
				cli.Printf("Authorization cancelled.\n")
				return &cli.ExitError{Code: 1}
			}
			if done, err := params.EmitJSON(map[string]string{"account_id": accountID}); done {
				return err
			}
			fmt.Fprintln(cli.Stdout, accountID)
			return nil
		},
	}
}
