package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"referral-intake-service/constants"
	"referral-intake-service/internal/entity"
	"referral-intake-service/internal/pipeline"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

var extToMIME = map[string]string{
	"pdf":  constants.MIMETypePDF,
	"jpg":  constants.MIMETypeJPEG,
	"jpeg": constants.MIMETypeJPEG,
	"png":  constants.MIMETypePNG,
	"webp": constants.MIMETypeWebP,
	"docx": constants.MIMETypeDocx,
}

// Ingestor runs one upload through the intake pipeline. Satisfied by
// *pipeline.Ingestion.
type Ingestor interface {
	Run(ctx context.Context, up pipeline.Upload) (*entity.Referral, error)
}

// DropFolder watches a directory and ingests every document that lands
// in it. Handled files move into processed/ or failed/ next to the
// drop folder so a crash never re-ingests or loses work silently.
type DropFolder struct {
	root   string
	ing    Ingestor
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]string // content hash -> referral id, process lifetime
}

func NewDropFolder(root string, ing Ingestor, logger *slog.Logger) *DropFolder {
	if logger == nil {
		logger = slog.Default()
	}
	return &DropFolder{
		root:   root,
		ing:    ing,
		logger: logger,
		seen:   make(map[string]string),
	}
}

// Run watches the drop folder until ctx is cancelled. Files already in
// the folder at startup are ingested first.
func (d *DropFolder) Run(ctx context.Context) error {
	for _, sub := range []string{processedDir, failedDir} {
		if err := os.MkdirAll(filepath.Join(d.root, sub), 0o755); err != nil {
			return fmt.Errorf("prepare %s dir: %w", sub, err)
		}
	}

	evCh, errCh, err := StartWatcher(ctx, WatchConfig{
		Root:        d.root,
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}, d.logger)
	if err != nil {
		return err
	}

	d.logger.Info("dropfolder.watching", "root", d.root)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-evCh:
			if !ok {
				return nil
			}
			d.handle(ctx, path)
		case werr, ok := <-errCh:
			if ok && werr != nil {
				d.logger.Error("dropfolder.watch_error", "error", werr)
			}
		}
	}
}

// handle ingests one file and moves it to the outcome folder. Errors
// never stop the watch loop.
func (d *DropFolder) handle(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Renamed or still being written; the next event retries it.
		d.logger.Warn("dropfolder.unreadable", "path", path, "error", err)
		return
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	d.mu.Lock()
	if prev, dup := d.seen[hash]; dup {
		d.mu.Unlock()
		d.logger.Info("dropfolder.duplicate", "path", path, "referral_id", prev)
		d.move(path, processedDir)
		return
	}
	d.mu.Unlock()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	mimeType, ok := extToMIME[ext]
	if !ok {
		d.logger.Warn("dropfolder.unsupported", "path", path, "ext", ext)
		d.move(path, failedDir)
		return
	}

	rec, err := d.ing.Run(ctx, pipeline.Upload{
		Filename:    filepath.Base(path),
		ContentType: mimeType,
		Data:        data,
	})
	if err != nil {
		d.logger.Error("dropfolder.ingest_failed", "path", path, "error", err)
		d.move(path, failedDir)
		return
	}

	d.mu.Lock()
	d.seen[hash] = rec.ID
	d.mu.Unlock()
	d.logger.Info("dropfolder.ingested", "path", path, "referral_id", rec.ID, "status", rec.Status)
	d.move(path, processedDir)
}

func (d *DropFolder) move(path, outcome string) {
	dst := filepath.Join(d.root, outcome, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		d.logger.Warn("dropfolder.move_failed", "path", path, "dst", dst, "error", err)
	}
}
