package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"referral-intake-service/constants"
	"referral-intake-service/internal/entity"
	"referral-intake-service/internal/pipeline"
)

var _ Ingestor = (*mockIngestor)(nil)

type mockIngestor struct {
	RunFunc func(ctx context.Context, up pipeline.Upload) (*entity.Referral, error)
	calls   int
}

func (m *mockIngestor) Run(ctx context.Context, up pipeline.Upload) (*entity.Referral, error) {
	m.calls++
	return m.RunFunc(ctx, up)
}

func newDropFolder(t *testing.T, ing Ingestor) (*DropFolder, string) {
	t.Helper()
	root := t.TempDir()
	for _, sub := range []string{processedDir, failedDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", sub, err)
		}
	}
	return NewDropFolder(root, ing, nil), root
}

func dropFile(t *testing.T, root, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestHandleIngestsAndMovesToProcessed(t *testing.T) {
	t.Parallel()

	ing := &mockIngestor{RunFunc: func(_ context.Context, up pipeline.Upload) (*entity.Referral, error) {
		if up.ContentType != constants.MIMETypeJPEG {
			t.Fatalf("content type = %q", up.ContentType)
		}
		if up.Filename != "fax-001.jpg" {
			t.Fatalf("filename = %q", up.Filename)
		}
		return &entity.Referral{ID: "REF-1", Status: constants.StatusPending}, nil
	}}
	d, root := newDropFolder(t, ing)

	path := dropFile(t, root, "fax-001.jpg", []byte{0xFF, 0xD8})
	d.handle(context.Background(), path)

	if _, err := os.Stat(filepath.Join(root, processedDir, "fax-001.jpg")); err != nil {
		t.Fatalf("file not moved to processed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("original file still in drop folder")
	}
}

func TestHandleMovesFailureToFailed(t *testing.T) {
	t.Parallel()

	ing := &mockIngestor{RunFunc: func(context.Context, pipeline.Upload) (*entity.Referral, error) {
		return nil, errors.New("service down")
	}}
	d, root := newDropFolder(t, ing)

	path := dropFile(t, root, "fax-002.pdf", []byte("%PDF-1.4"))
	d.handle(context.Background(), path)

	if _, err := os.Stat(filepath.Join(root, failedDir, "fax-002.pdf")); err != nil {
		t.Fatalf("file not moved to failed: %v", err)
	}
}

func TestHandleSkipsUnsupportedExtension(t *testing.T) {
	t.Parallel()

	ing := &mockIngestor{RunFunc: func(context.Context, pipeline.Upload) (*entity.Referral, error) {
		t.Fatal("pipeline must not run for unsupported files")
		return nil, nil
	}}
	d, root := newDropFolder(t, ing)

	path := dropFile(t, root, "notes.txt", []byte("hello"))
	d.handle(context.Background(), path)

	if ing.calls != 0 {
		t.Fatalf("pipeline called %d times", ing.calls)
	}
	if _, err := os.Stat(filepath.Join(root, failedDir, "notes.txt")); err != nil {
		t.Fatalf("file not moved to failed: %v", err)
	}
}

func TestHandleDeduplicatesByContent(t *testing.T) {
	t.Parallel()

	ing := &mockIngestor{RunFunc: func(context.Context, pipeline.Upload) (*entity.Referral, error) {
		return &entity.Referral{ID: "REF-1", Status: constants.StatusPending}, nil
	}}
	d, root := newDropFolder(t, ing)

	first := dropFile(t, root, "fax-a.jpg", []byte{1, 2, 3})
	d.handle(context.Background(), first)
	second := dropFile(t, root, "fax-b.jpg", []byte{1, 2, 3})
	d.handle(context.Background(), second)

	if ing.calls != 1 {
		t.Fatalf("pipeline called %d times, want 1 (identical content)", ing.calls)
	}
	// the duplicate is still cleared out of the drop folder
	if _, err := os.Stat(filepath.Join(root, processedDir, "fax-b.jpg")); err != nil {
		t.Fatalf("duplicate not moved to processed: %v", err)
	}
}

func TestAllowedExtensionFilter(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"/drop/a.pdf":     true,
		"/drop/a.JPG":     true,
		"/drop/a.docx":    true,
		"/drop/a.webp":    true,
		"/drop/a.txt":     false,
		"/drop/a":         false,
		"/drop/a.pdf.bak": false,
	}
	for path, want := range cases {
		if got := allowed(path, defaultExts); got != want {
			t.Errorf("allowed(%q) = %v, want %v", path, got, want)
		}
	}
}
