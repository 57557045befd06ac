// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bureau-foundation/imlink/lib/netutil"
)

// PresignedOptions configures [NewPresigned].
type PresignedOptions struct {
	// HTTPClient performs the object PUT. Default: http.DefaultClient.
	HTTPClient *http.Client

	// Timeout bounds each PUT. Zero means only ctx bounds it.
	Timeout time.Duration

	Logger *slog.Logger
}

// Presigned uploads through platform-issued presigned URLs.
type Presigned struct {
	grant      GrantFunc
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewPresigned returns an uploader that obtains grants from grant.
func NewPresigned(grant GrantFunc, options PresignedOptions) *Presigned {
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Presigned{
		grant:      grant,
		httpClient: httpClient,
		timeout:    options.Timeout,
		logger:     logger,
	}
}

// Upload hashes file, obtains a grant, and stores the bytes unless the
// platform already has them.
func (p *Presigned) Upload(ctx context.Context, accountID string, file File) (*Object, error) {
	data, err := readFile(file)
	if err != nil {
		return nil, err
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	hash := Hash(data)

	grant, err := p.grant(ctx, accountID, GrantRequest{
		Name:        file.Name,
		ContentType: contentType,
		Size:        file.Size,
		Hash:        hash,
	})
	if err != nil {
		return nil, fmt.Errorf("upload: grant for %s failed: %w", displayName(file), err)
	}
	if grant.URL == "" {
		return nil, fmt.Errorf("upload: grant for %s has no object URL", displayName(file))
	}

	object := &Object{
		URL:         grant.URL,
		Name:        file.Name,
		ContentType: contentType,
		Size:        file.Size,
		Hash:        hash,
	}
	if grant.Exists {
		p.logger.Info("upload skipped, object exists", "account_id", accountID, "hash", hash)
		return object, nil
	}
	if grant.UploadURL == "" {
		return nil, fmt.Errorf("upload: grant for %s has no upload URL", displayName(file))
	}

	if err := p.put(ctx, grant, contentType, data); err != nil {
		return nil, fmt.Errorf("upload: storing %s failed: %w", displayName(file), err)
	}
	p.logger.Info("uploaded object",
		"account_id", accountID,
		"hash", hash,
		"size", file.Size,
		"content_type", contentType,
	)
	return object, nil
}

func (p *Presigned) put(ctx context.Context, grant *Grant, contentType string, data []byte) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	method := grant.Method
	if method == "" {
		method = http.MethodPut
	}
	request, err := http.NewRequestWithContext(ctx, method, grant.UploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Content-Length", strconv.Itoa(len(data)))
	for key, value := range grant.Headers {
		request.Header.Set(key, value)
	}

	response, err := p.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("storage returned HTTP %d: %s", response.StatusCode, netutil.ErrorBody(response.Body))
	}
	return nil
}
