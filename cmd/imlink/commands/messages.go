// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/imlink/cmd/imlink/cli"
	"github.com/bureau-foundation/imlink/messaging"
)

func messagesCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "messages",
		Summary: "Read and send messages",
		Subcommands: []*cli.Command{
			messagesListCommand(globals),
			messagesSendCommand(globals),
			messagesRecallCommand(globals),
			messagesTypingCommand(globals),
		},
	}
}

type messagesListParams struct {
	cli.JSONOutput
	Cursor    string `flag:"cursor" desc:"message id to page from"`
	Direction string `flag:"direction" desc:"before or after the cursor" default:"before"`
	Limit     int    `flag:"limit" desc:"maximum number of messages (server default when 0)"`
}

func messagesListCommand(globals *cli.Globals) *cli.Command {
	var params messagesListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List a conversation's messages",
		Usage:   "imlink messages list <account> <conversation> [--cursor ID --direction before|after] [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink messages list <account> <conversation> [flags]", "account", "conversation"); err != nil {
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

			page, err := connection.ListMessages(ctx, args[0], args[1], messaging.CursorParams{
				Cursor:    params.Cursor,
				Direction: direction,
				Limit:     params.Limit,
			})
			if err != nil {
				return cli.APIError(err, "listing messages")
			}
			if done, err := params.EmitJSON(page); done {
				return err
			}

			table := cli.NewTable()
			for _, message := range page.Items {
				fmt.Fprintf(table, "%d\t%s\t%s\t%s\n", message.Seq, message.CreatedAt.Local().Format("2006-01-02 15:04"), message.From, summarize(&message))
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

type messagesSendParams struct {
	cli.JSONOutput
	Text        string `flag:"text" desc:"send a text message"`
	Image       string `flag:"image" desc:"send an image file"`
	Audio       string `flag:"audio" desc:"send an audio file"`
	Video       string `flag:"video" desc:"send a video file"`
	File        string `flag:"file" desc:"send a file attachment"`
	Link        string `flag:"link" desc:"send a link card for this URL"`
	Title       string `flag:"title" desc:"link card title (with --link)"`
	Description string `flag:"description" desc:"link card description (with --link)"`
}

func messagesSendCommand(globals *cli.Globals) *cli.Command {
	var params messagesSendParams

	return &cli.Command{
		Name:    "send",
		Summary: "Send a message",
		Description: `Send one message to a user or group. Exactly one of --text, --image,
--audio, --video, --file, --link selects its type. Media files are
uploaded first; the message carries the stored URL.`,
		Usage: "imlink messages send <account> <to> (--text T | --image F | --audio F | --video F | --file F | --link URL) [flags]",
		Examples: []cli.Example{
			{Command: "imlink messages send acct_1 wxid_friend --text 'on my way'"},
			{Command: "imlink messages send acct_1 12345@chatroom --image ./whiteboard.jpg"},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink messages send <account> <to> [flags]", "account", "to"); err != nil {
				return err
			}
			accountID, to := args[0], args[1]

			chosen := 0
			for _, value := range []string{params.Text, params.Image, params.Audio, params.Video, params.File, params.Link} {
				if value != "" {
					chosen++
				}
			}
			if chosen != 1 {
				return cli.Validation("pass exactly one of --text, --image, --audio, --video, --file, --link")
			}

			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			var sent *messaging.Message
			switch {
			case params.Text != "":
				sent, err = connection.SendMessage(ctx, accountID, messaging.NewTextMessage(to, params.Text))
			case params.Link != "":
				sent, err = connection.SendMessage(ctx, accountID, messaging.NewLinkMessage(to, messaging.LinkPayload{
					URL:         params.Link,
					Title:       params.Title,
					Description: params.Description,
				}))
			default:
				sent, err = sendMedia(ctx, connection, accountID, to, &params)
			}
			if err != nil {
				return cli.APIError(err, "sending message")
			}
			if done, err := params.EmitJSON(sent); done {
				return err
			}
			fmt.Fprintln(cli.Stdout, sent.ID)
			return nil
		},
	}
}

func sendMedia(ctx context.Context, connection *cli.Connection, accountID, to string, params *messagesSendParams) (*messaging.Message, error) {
	path := params.Image + params.Audio + params.Video + params.File
	file, closeFile, err := openMedia(path)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	switch {
	case params.Image != "":
		return connection.SendImageMessage(ctx, accountID, to, nil, file)
	case params.Audio != "":
		return connection.SendAudioMessage(ctx, accountID, to, nil, file)
	case params.Video != "":
		return connection.SendVideoMessage(ctx, accountID, to, nil, file)
	default:
		return connection.SendFileMessage(ctx, accountID, to, nil, file)
	}
}

// openMedia opens path as an upload source. The content type comes
// from the file extension.
func openMedia(path string) (*messaging.MediaFile, func(), error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, cli.Validation("%w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, cli.Internal("%w", err)
	}
	if !info.Mode().IsRegular() {
		file.Close()
		return nil, nil, cli.Validation("%s is not a regular file", path)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	media := &messaging.MediaFile{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Body:        file,
	}
	return media, func() { file.Close() }, nil
}

func messagesRecallCommand(globals *cli.Globals) *cli.Command {
	return &cli.Command{
		Name:    "recall",
		Summary: "Recall a sent message",
		Usage:   "imlink messages recall <account> <message>",
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink messages recall <account> <message>", "account", "message"); err != nil {
				return err
			}
			connection, err := connect(ctx, globals)
			if err != nil {
				return err
			}
			defer connection.Close()

			if err := connection.RecallMessage(ctx, args[0], args[1]); err != nil {
				return cli.APIError(err, "recalling message")
			}
			cli.Printf("Recalled %s\n", args[1])
			return nil
		},
	}
}

type messagesTypingParams struct {
	Stop bool `flag:"stop" desc:"clear the typing indicator instead of setting it"`
}

func messagesTypingCommand(globals *cli.Globals) *cli.Command {
	var params messagesTypingParams

	return &cli.Command{
		Name:    "typing",
		Summary: "Publish a typing indicator over the real-time channel",
		Usage:   "imlink messages typing <account> <conversation> [--stop]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if err := cli.RequireArgs(args, "imlink messages typing <account> <conversation> [--stop]", "account", "conversation"); err != nil {
				return err
			}
			connection, err := globals.Connect(ctx, cli.ConnectOptions{Realtime: true})
			if err != nil {
				return err
			}
			defer connection.Close()

			if err := connection.SendTyping(ctx, args[0], args[1], !params.Stop); err != nil {
				return cli.Transient("publishing typing indicator: %w", err)
			}
			return nil
		},
	}
}

// summarize renders a message as one line.
func summarize(message *messaging.Message) string {
	switch {
	case message.Status == messaging.StatusRecalled:
		return "(recalled)"
	case message.Text != nil:
		return message.Text.Content
	case message.Image != nil:
		return "[image] " + message.Image.URL
	case message.Audio != nil:
		return fmt.Sprintf("[audio %s] %s", time.Duration(message.Audio.Duration)*time.Millisecond, message.Audio.URL)
	case message.Video != nil:
		return "[video] " + message.Video.URL
	case message.File != nil:
		return "[file] " + message.File.Name
	case message.Link != nil:
		return "[link] " + message.Link.URL
	default:
		return "[" + string(message.Type) + "]"
	}
}
