// Package storage decides where an uploaded document's original bytes
// live: remote blob storage when configured, an embedded data URL
// otherwise. Remote failures are downgraded, never surfaced. Storage is
// best-effort; extraction is the critical path.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"referral-intake-service/internal/content"
	"referral-intake-service/internal/entity"
)

// Resolver picks the file path persisted on a referral record.
type Resolver struct {
	uploader BlobUploader // nil when no remote storage is configured
	logger   *slog.Logger
	now      func() time.Time
}

func NewResolver(uploader BlobUploader, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{uploader: uploader, logger: logger, now: time.Now}
}

// Resolve returns the storage location for the original file bytes and
// a kind tag saying whether they are durably stored remotely or only
// embedded inline. It never returns an error: any remote failure is
// logged and falls back to the data URL.
func (r *Resolver) Resolve(ctx context.Context, filename, mimeType string, data []byte) (string, entity.StorageKind) {
	if r.uploader == nil {
		return content.DataURL(mimeType, data), entity.StorageLocal
	}

	blobName := fmt.Sprintf("%d-%s", r.now().UnixMilli(), SanitizeBlobName(filename))
	url, err := r.uploader.Upload(ctx, blobName, mimeType, data)
	if err != nil {
		r.logger.Warn("storage.resolve.fallback_local",
			"filename", filename,
			"blob", blobName,
			"error", err,
		)
		return content.DataURL(mimeType, data), entity.StorageLocal
	}
	return url, entity.StorageRemote
}

// SanitizeBlobName replaces every rune outside [A-Za-z0-9.-] with '_'
// so the original filename can be embedded in a blob name safely.
func SanitizeBlobName(filename string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, filename)
}
