package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"referral-intake-service/internal/entity"
)

var _ BlobUploader = (*mockUploader)(nil)

type mockUploader struct {
	UploadFunc func(ctx context.Context, blobName, contentType string, data []byte) (string, error)
	calls      int
}

func (m *mockUploader) Upload(ctx context.Context, blobName, contentType string, data []byte) (string, error) {
	m.calls++
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, blobName, contentType, data)
	}
	return "", errors.New("UploadFunc not implemented in mock")
}

func TestResolveWithoutRemoteConfig(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, nil)
	path, kind := r.Resolve(context.Background(), "fax.jpg", "image/jpeg", []byte{1, 2, 3})

	if kind != entity.StorageLocal {
		t.Fatalf("kind = %q, want local", kind)
	}
	if !strings.HasPrefix(path, "data:image/jpeg;base64,") {
		t.Fatalf("expected data URL, got %q", path)
	}
	if strings.HasPrefix(path, "http") {
		t.Fatalf("unconfigured storage must never yield a network URL: %q", path)
	}
}

func TestResolveRemoteSuccess(t *testing.T) {
	t.Parallel()

	up := &mockUploader{UploadFunc: func(_ context.Context, blobName, contentType string, _ []byte) (string, error) {
		if contentType != "application/pdf" {
			t.Fatalf("content type = %q", contentType)
		}
		if !strings.HasSuffix(blobName, "-referral_scan.pdf") {
			t.Fatalf("blob name not sanitized/timestamped: %q", blobName)
		}
		return "https://blobs.example.net/referrals/" + blobName, nil
	}}

	r := NewResolver(up, nil)
	path, kind := r.Resolve(context.Background(), "referral scan.pdf", "application/pdf", []byte("%PDF"))

	if kind != entity.StorageRemote {
		t.Fatalf("kind = %q, want remote", kind)
	}
	if !strings.HasPrefix(path, "https://blobs.example.net/") {
		t.Fatalf("expected remote URL, got %q", path)
	}
}

func TestResolveFallsBackOnUploadFailure(t *testing.T) {
	t.Parallel()

	up := &mockUploader{UploadFunc: func(context.Context, string, string, []byte) (string, error) {
		return "", errors.New("503 quota exceeded")
	}}

	r := NewResolver(up, nil)
	path, kind := r.Resolve(context.Background(), "fax.png", "image/png", []byte{9})

	if up.calls != 1 {
		t.Fatalf("upload attempts = %d, want 1", up.calls)
	}
	if kind != entity.StorageLocal {
		t.Fatalf("kind = %q, want local after failure", kind)
	}
	if !strings.HasPrefix(path, "data:image/png;base64,") {
		t.Fatalf("expected data URL fallback, got %q", path)
	}
}

func TestSanitizeBlobName(t *testing.T) {
	t.Parallel()

	got := SanitizeBlobName("Dr. Smith's referral #42 (final).pdf")
	want := "Dr._Smith_s_referral__42__final_.pdf"
	if got != want {
		t.Fatalf("SanitizeBlobName = %q, want %q", got, want)
	}
}

func TestContainerClientUpload(t *testing.T) {
	t.Parallel()

	var gotBlobType, gotContentType, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPut {
			t.Fatalf("method = %s", req.Method)
		}
		gotBlobType = req.Header.Get("x-ms-blob-type")
		gotContentType = req.Header.Get("Content-Type")
		gotQuery = req.URL.RawQuery
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewContainerClient(srv.URL+"/intake?sv=2024&sig=secret", 5*time.Second, nil)
	url, err := c.Upload(context.Background(), "123-fax.jpg", "image/jpeg", []byte{0xFF})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if gotBlobType != "BlockBlob" {
		t.Fatalf("x-ms-blob-type = %q", gotBlobType)
	}
	if gotContentType != "image/jpeg" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if !strings.Contains(gotQuery, "sig=secret") {
		t.Fatalf("SAS query not sent: %q", gotQuery)
	}
	if strings.Contains(url, "sig=") {
		t.Fatalf("returned URL must not leak the write token: %q", url)
	}
	if !strings.HasSuffix(url, "/intake/123-fax.jpg") {
		t.Fatalf("unexpected blob URL: %q", url)
	}
}

func TestContainerClientUploadRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "authorization failed", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewContainerClient(srv.URL+"/intake?sig=x", 5*time.Second, nil)
	if _, err := c.Upload(context.Background(), "b", "image/png", nil); err == nil {
		t.Fatal("expected error on 403")
	}
}
