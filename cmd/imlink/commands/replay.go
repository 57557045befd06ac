// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
	"github.com/bureau-foundation/imlink/lib/eventlog"
	"github.com/bureau-foundation/imlink/messaging"
)

type replayParams struct {
	Channel string `flag:"channel" desc:"only records from this channel"`
	Events  bool   `flag:"events" desc:"print decoded events (as 'imlink listen' does) instead of raw records"`
}

func replayCommand(globals *cli.Globals) *cli.Command {
	var params replayParams

	return &cli.Command{
		Name:    "replay",
		Summary: "Print a recording made by 'imlink listen --record'",
		Description: `Read a recording and print one JSON line per record. The compression
(zstd, lz4 or none) is detected from the file. "-" reads stdin.`,
		Usage:  "imlink replay <file> [--channel C] [--events]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink replay <file> [flags]", "file"); err != nil {
				return err
			}
			env, err := globals.Load()
			if err != nil {
				return err
			}
			logger := env.Logger.With("command", "replay")

			var source io.Reader = os.Stdin
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return cli.Validation("%w", err)
				}
				defer file.Close()
				source = file
			}
			reader, err := eventlog.NewReader(source)
			if err != nil {
				return cli.Validation("%w", err)
			}
			defer reader.Close()

			encoder := json.NewEncoder(cli.Stdout)
			for {
				if err := ctx.Err(); err != nil {
					return nil
				}
				record, err := reader.Next()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return cli.Validation("%w", err)
				}
				if params.Channel != "" && record.Channel != params.Channel {
					continue
				}

				if !params.Events {
					if err := encoder.Encode(record); err != nil {
						return err
					}
					continue
				}
				event, err := messaging.DecodeEvent(record.Payload)
				if err != nil {
					logger.Warn("skipping undecodable record", "channel", record.Channel, "time", record.Time, "error", err)
					continue
				}
				line, err := messaging.EncodeEvent(event)
				if err != nil {
					return cli.Internal("%w", err)
				}
				if _, err := fmt.Fprintf(cli.Stdout, "%s\n", line); err != nil {
					return err
				}
			}
		},
	}
}
