// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
)

func configCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Show the effective configuration",
		Description: `Load the config file (--config or $IMLINK_CONFIG), apply the block of
the selected environment, expand ${VAR} references and flag overrides,
validate, and print the result as YAML. Exits non-zero if the
configuration is invalid.`,
		Usage: "imlink config",
		Run: func(_ context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink config"); err != nil {
				return err
			}
			env, err := globals.Load()
			if err != nil {
				return err
			}
			effective := *env.Config
			// Environment blocks are already applied.
			effective.Development, effective.Staging, effective.Production = nil, nil, nil

			encoder := yaml.NewEncoder(cli.Stdout)
			encoder.SetIndent(2)
			if err := encoder.Encode(&effective); err != nil {
				return cli.Internal("encoding config: %w", err)
			}
			return encoder.Close()
		},
	}
}
