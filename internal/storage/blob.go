package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobUploader writes raw bytes to remote blob storage and returns a
// publicly resolvable URL for them.
type BlobUploader interface {
	Upload(ctx context.Context, blobName, contentType string, data []byte) (string, error)
}

// ContainerClient uploads blobs through a pre-authorized (SAS)
// write-capable container URL: PUT <container>/<blob>?<sas-query>.
type ContainerClient struct {
	containerURL string
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewContainerClient(containerURL string, timeout time.Duration, logger *slog.Logger) *ContainerClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContainerClient{
		containerURL: containerURL,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// Upload PUTs the blob and returns its URL with the authorization query
// stripped, so the stored path never leaks the write token. Reading that
// URL requires the container's public-read access level.
func (c *ContainerClient) Upload(ctx context.Context, blobName, contentType string, data []byte) (string, error) {
	reqID := uuid.New().String()
	start := time.Now()

	base, err := url.Parse(c.containerURL)
	if err != nil {
		return "", fmt.Errorf("parse container url: %w", err)
	}
	blobURL := *base
	blobURL.Path = strings.TrimRight(base.Path, "/") + "/" + blobName

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, blobURL.String(), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	req.Header.Set("Content-Type", contentType)

	c.logger.Info("storage.upload.request",
		"req_id", reqID,
		"blob", blobName,
		"content_type", contentType,
		"bytes", len(data),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("storage.upload.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("storage.upload.body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		c.logger.Error("storage.upload.rejected",
			"req_id", reqID,
			"status", resp.StatusCode,
			"body", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("blob upload status %d", resp.StatusCode)
	}

	public := blobURL
	public.RawQuery = ""
	c.logger.Info("storage.upload.ok",
		"req_id", reqID,
		"url", public.String(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return public.String(), nil
}
