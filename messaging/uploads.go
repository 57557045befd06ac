// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bureau-foundation/imlink/upload"
)

// CreateUpload asks the platform where to store an object. It has the
// signature of [upload.GrantFunc] and backs the default uploader.
func (c *Client) CreateUpload(ctx context.Context, accountID string, request upload.GrantRequest) (*upload.Grant, error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	if request.Size <= 0 || request.Hash == "" {
		return nil, fmt.Errorf("messaging: upload grant needs a size and a hash")
	}
	body, err := c.request(ctx, requestSpec{
		method: http.MethodPost,
		path:   accountPath(accountID) + "/uploads",
		route:  "/accounts/{account}/uploads",
		body:   request,
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: create upload failed: %w", err)
	}
	return decode[upload.Grant](body, "create upload")
}

// Upload stores file through the client's uploader.
func (c *Client) Upload(ctx context.Context, accountID string, file upload.File) (*upload.Object, error) {
	if err := requireID("account", accountID); err != nil {
		return nil, err
	}
	return c.uploader.Upload(ctx, accountID, file)
}
