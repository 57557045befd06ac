// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"io"

	"github.com/bureau-foundation/imlink/upload"
)

// MediaFile is raw media to upload before sending.
type MediaFile = upload.File

// Size ceilings enforced before any bytes are read.
const (
	MaxImageSize int64 = 20 << 20
	MaxAudioSize int64 = 20 << 20
	MaxVideoSize int64 = 100 << 20
	MaxFileSize  int64 = 100 << 20
)

// checkSource enforces that exactly one of a ready payload and a file
// was supplied.
func checkSource(hasPayload bool, file *MediaFile) error {
	if hasPayload == (file != nil) {
		return ErrMediaSourceRequired
	}
	return nil
}

func (c *Client) uploadMedia(ctx context.Context, accountID, kind string, limit int64, file *MediaFile) (*upload.Object, error) {
	if file.Size > limit {
		return nil, &MediaTooLargeError{Kind: kind, Size: file.Size, Limit: limit}
	}
	capped := *file
	if capped.Body != nil {
		capped.Body = &cappedReader{reader: io.LimitReader(file.Body, limit+1), kind: kind, limit: limit}
	}
	object, err := c.Upload(ctx, accountID, capped)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("uploaded media", "account_id", accountID, "kind", kind, "hash", object.Hash)
	return object, nil
}

// cappedReader fails with a MediaTooLargeError once more than limit
// bytes have been read, whatever size the caller declared.
type cappedReader struct {
	reader io.Reader
	kind   string
	limit  int64
	read   int64
}

func (r *cappedReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read += int64(n)
	if r.read > r.limit {
		return 0, &MediaTooLargeError{Kind: r.kind, Size: r.read, Limit: r.limit}
	}
	return n, err
}

// SendImageMessage sends an image to a user or group. Pass either a
// ready payload or a file to upload; the uploaded object's URL, size
// and hash fill the payload.
func (c *Client) SendImageMessage(ctx context.Context, accountID, to string, image *ImagePayload, file *MediaFile, options ...RequestOption) (*Message, error) {
	if err := checkSource(image != nil, file); err != nil {
		return nil, err
	}
	if file != nil {
		object, err := c.uploadMedia(ctx, accountID, "image", MaxImageSize, file)
		if err != nil {
			return nil, err
		}
		image = &ImagePayload{URL: object.URL, Size: object.Size, Hash: object.Hash}
	}
	return c.SendMessage(ctx, accountID, NewImageMessage(to, *image), options...)
}

// SendAudioMessage sends a voice clip. See [Client.SendImageMessage].
func (c *Client) SendAudioMessage(ctx context.Context, accountID, to string, audio *AudioPayload, file *MediaFile, options ...RequestOption) (*Message, error) {
	if err := checkSource(audio != nil, file); err != nil {
		return nil, err
	}
	if file != nil {
		object, err := c.uploadMedia(ctx, accountID, "audio", MaxAudioSize, file)
		if err != nil {
			return nil, err
		}
		audio = &AudioPayload{URL: object.URL, Size: object.Size, Hash: object.Hash}
	}
	return c.SendMessage(ctx, accountID, NewAudioMessage(to, *audio), options...)
}

// SendVideoMessage sends a video. See [Client.SendImageMessage].
func (c *Client) SendVideoMessage(ctx context.Context, accountID, to string, video *VideoPayload, file *MediaFile, options ...RequestOption) (*Message, error) {
	if err := checkSource(video != nil, file); err != nil {
		return nil, err
	}
	if file != nil {
		object, err := c.uploadMedia(ctx, accountID, "video", MaxVideoSize, file)
		if err != nil {
			return nil, err
		}
		video = &VideoPayload{URL: object.URL, Size: object.Size, Hash: object.Hash}
	}
	return c.SendMessage(ctx, accountID, NewVideoMessage(to, *video), options...)
}

// SendFileMessage sends a file attachment. The file's name becomes the
// attachment name. See [Client.SendImageMessage].
func (c *Client) SendFileMessage(ctx context.Context, accountID, to string, attachment *FilePayload, file *MediaFile, options ...RequestOption) (*Message, error) {
	if err := checkSource(attachment != nil, file); err != nil {
		return nil, err
	}
	if file != nil {
		object, err := c.uploadMedia(ctx, accountID, "file", MaxFileSize, file)
		if err != nil {
			return nil, err
		}
		attachment = &FilePayload{URL: object.URL, Name: file.Name, Size: object.Size, Hash: object.Hash}
	}
	return c.SendMessage(ctx, accountID, NewFileMessage(to, *attachment), options...)
}

// CreateImageMoment posts an image moment from ready payloads or from
// files, each uploaded in turn. Exactly one of the two must be
// non-empty.
func (c *Client) CreateImageMoment(ctx context.Context, accountID, text string, images []ImagePayload, files []MediaFile, options ...RequestOption) (*Moment, error) {
	if (len(images) > 0) == (len(files) > 0) {
		return nil, ErrMediaSourceRequired
	}
	if len(files) > MaxMomentImages {
		return nil, fmt.Errorf("messaging: %d images, limit is %d", len(files), MaxMomentImages)
	}
	for index := range files {
		object, err := c.uploadMedia(ctx, accountID, "image", MaxImageSize, &files[index])
		if err != nil {
			return nil, err
		}
		images = append(images, ImagePayload{URL: object.URL, Size: object.Size, Hash: object.Hash})
	}
	return c.CreateMoment(ctx, accountID, NewImageMoment(text, images...), options...)
}

// CreateVideoMoment posts a video moment. See [Client.SendImageMessage].
func (c *Client) CreateVideoMoment(ctx context.Context, accountID, text string, video *VideoPayload, file *MediaFile, options ...RequestOption) (*Moment, error) {
	if err := checkSource(video != nil, file); err != nil {
		return nil, err
	}
	if file != nil {
		object, err := c.uploadMedia(ctx, accountID, "video", MaxVideoSize, file)
		if err != nil {
			return nil, err
		}
		video = &VideoPayload{URL: object.URL, Size: object.Size, Hash: object.Hash}
	}
	return c.CreateMoment(ctx, accountID, NewVideoMoment(text, *video), options...)
}
