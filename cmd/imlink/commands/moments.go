// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
	"github.com/bureau-foundation/imlink/messaging"
)

func momentsCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "moments",
		Summary: "Read and post moments",
		Subcommands: []*cli.Command{
			momentsListCommand(globals),
			momentsPostCommand(globals),
			momentsLikeCommand(globals),
			momentsCommentCommand(globals),
			momentsDeleteCommand(globals),
		},
	}
}

type momentsListParams struct {
	cli.JSONOutput
	Author    string `flag:"author" desc:"only moments by this user"`
	Cursor    string `flag:"cursor" desc:"moment id to page from"`
	Direction string `flag:"direction" desc:"before or after the cursor" default:"before"`
	Limit     int    `flag:"limit" desc:"maximum number of moments (server default when 0)"`
}

func momentsListCommand(globals *cli.Globals) *cli.Command {
	var params momentsListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List moments visible to an account",
		Usage:   "imlink moments list <account> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink moments list <account> [flags]", "account"); err != nil {
				return err
			}
			direction := messaging.Direction(params.Direction)
			if direction != messaging.Before && direction != messaging.After {
				return cli.Validation("--direction must be before or after, got %q", params.Direction)
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			page, err := connection.ListMoments(ctx, args[0], messaging.ListMomentsParams{
				CursorParams: messaging.CursorParams{Cursor: params.Cursor, Direction: direction, Limit: params.Limit},
				AuthorID:     params.Author,
			})
			if err != nil {
				return cli.APIError(err, "listing moments")
			}
			if done, err := params.EmitJSON(page); done {
				return err
			}

			table := cli.NewTable()
			fmt.Fprintf(table, "ID\tAUTHOR\tTYPE\tLIKES\tCOMMENTS\tTEXT\n")
			for _, moment := range page.Items {
				fmt.Fprintf(table, "%s\t%s\t%s\t%d\t%d\t%s\n", moment.ID, moment.AuthorID, moment.Type, len(moment.Likes), len(moment.Comments), moment.Text)
			}
			if err := table.Flush(); err != nil {
				return err
			}
			if page.HasNext || page.HasPrevious {
				cli.Printf("cursor: %s\n", page.Cursor)
			}
			return nil
		},
	}
}

type momentsPostParams struct {
	cli.JSONOutput
	Text   string   `flag:"text" desc:"moment text"`
	Images []string `flag:"image" desc:"image file to attach; repeatable, at most 9"`
	Video  string   `flag:"video" desc:"video file to attach"`
	Link   string   `flag:"link" desc:"URL to share"`
	Title  string   `flag:"title" desc:"link title (with --link)"`
}

func momentsPostCommand(globals *cli.Globals) *cli.Command {
	var params momentsPostParams

	return &cli.Command{
		Name:    "post",
		Summary: "Publish a moment",
		Description: `Publish a moment. With no attachment it is a text moment; --image
(repeatable), --video and --link select the other types and are
mutually exclusive.`,
		Usage: "imlink moments post <account> --text T [--image F]... [--video F | --link URL] [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink moments post <account> [flags]", "account"); err != nil {
				return err
			}
			attachments := 0
			if len(params.Images) > 0 {
				attachments++
			}
			if params.Video != "" {
				attachments++
			}
			if params.Link != "" {
				attachments++
			}
			if attachments > 1 {
				return cli.Validation("--image, --video and --link are mutually exclusive")
			}
			if attachments == 0 && params.Text == "" {
				return cli.Validation("--text is required for a text moment")
			}
			if len(params.Images) > messaging.MaxMomentImages {
				return cli.Validation("at most %d images, got %d", messaging.MaxMomentImages, len(params.Images))
			}

			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			accountID := args[0]
			var created *messaging.Moment
			switch {
			case len(params.Images) > 0:
				files := make([]messaging.MediaFile, 0, len(params.Images))
				for _, path := range params.Images {
					file, closeFile, err := openMedia(path)
					if err != nil {
						return err
					}
					defer closeFile()
					files = append(files, *file)
				}
				created, err = connection.CreateImageMoment(ctx, accountID, params.Text, nil, files)
			case params.Video != "":
				file, closeFile, openErr := openMedia(params.Video)
				if openErr != nil {
					return openErr
				}
				defer closeFile()
				created, err = connection.CreateVideoMoment(ctx, accountID, params.Text, nil, file)
			case params.Link != "":
				created, err = connection.CreateMoment(ctx, accountID, messaging.NewLinkMoment(params.Text, messaging.LinkPayload{
					URL:   params.Link,
					Title: params.Title,
				}))
			default:
				created, err = connection.CreateMoment(ctx, accountID, messaging.NewTextMoment(params.Text))
			}
			if err != nil {
				return cli.APIError(err, "posting moment")
			}
			if done, err := params.EmitJSON(created); done {
				return err
			}
			fmt.Fprintln(cli.Stdout, created.ID)
			return nil
		},
	}
}

func momentsLikeCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "like",
		Summary: "Like a moment",
		Usage:   "imlink moments like <account> <moment>",
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink moments like <account> <moment>", "account", "moment"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			if err := connection.LikeMoment(ctx, args[0], args[1]); err != nil {
				return cli.APIError(err, "liking moment")
			}
			return nil
		},
	}
}

type momentsCommentParams struct {
	cli.JSONOutput
	ReplyTo string `flag:"reply-to" desc:"user id being answered"`
}

func momentsCommentCommand(globals *cli.Globals) *cli.Command {
	var params momentsCommentParams

	return &cli.Command{
		Name:    "comment",
		Summary: "Comment on a moment",
		Usage:   "imlink moments comment <account> <moment> <text> [--reply-to USER]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink moments comment <account> <moment> <text> [flags]", "account", "moment", "text"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			comment, err := connection.CommentMoment(ctx, args[0], args[1], messaging.CommentMomentParams{
				Content: args[2],
				ReplyTo: params.ReplyTo,
			})
			if err != nil {
				return cli.APIError(err, "commenting on moment")
			}
			if done, err := params.EmitJSON(comment); done {
				return err
			}
			if comment.ID != "" {
				fmt.Fprintln(cli.Stdout, comment.ID)
			}
			return nil
		},
	}
}

func momentsDeleteCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete one of the account's moments",
		Usage:   "imlink moments delete <account> <moment>",
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink moments delete <account> <moment>", "account", "moment"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			if err := connection.DeleteMoment(ctx, args[0], args[1]); err != nil {
				return cli.APIError(err, "deleting moment")
			}
			cli.Printf("Deleted %s\n", args[1])
			return nil
		},
	}
}
