// Package content converts an accepted upload into the payloads the
// extraction call and the storage fallback need.
package content

import (
	"bytes"
	"encoding/base64"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"referral-intake-service/internal/format"
)

// Payload is what the extraction service will be fed for one upload.
// Exactly one of Base64Data / Text is populated: the Word branch
// produces text only, the image/PDF branch produces binary only.
type Payload struct {
	MimeType   string
	Base64Data string // raw base64, no data-URL prefix
	Text       string
}

type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract produces the extraction payload for the given category.
// The input bytes are read once; no other side effects.
func (e *Extractor) Extract(category format.Category, mimeType string, data []byte) (Payload, error) {
	if category == format.CategoryWord {
		text, err := ExtractDocxText(data)
		if err != nil {
			return Payload{}, err
		}
		e.logger.Info("content.extract.docx", "text_bytes", len(text))
		return Payload{MimeType: mimeType, Text: text}, nil
	}

	if category == format.CategoryPDF {
		// Page count is diagnostic only; a probe failure never aborts
		// the pipeline because the model reads the raw bytes anyway.
		if n, err := api.PageCount(bytes.NewReader(data), nil); err != nil {
			e.logger.Warn("content.extract.pdf_probe_failed", "error", err)
		} else {
			e.logger.Info("content.extract.pdf", "pages", n, "bytes", len(data))
		}
	}

	return Payload{MimeType: mimeType, Base64Data: EncodeBase64(data)}, nil
}

// EncodeBase64 returns the standard base64 encoding of data, without any
// data-URL prefix, for transmission to the extraction service.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DataURL returns a self-contained data-URL rendition of data, usable as
// a display source with no external fetch. Decoding it yields the same
// bytes as decoding EncodeBase64's output.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
