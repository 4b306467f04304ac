// Package format decides which conversion strategy an upload takes.
package format

import (
	"fmt"

	"referral-intake-service/constants"
	"referral-intake-service/internal/common"
)

// Category is the conversion strategy for an accepted upload.
type Category string

const (
	CategoryImage Category = "image"
	CategoryPDF   Category = "pdf"
	CategoryWord  Category = "word"
)

// Classify maps a declared media type onto a conversion category.
// The accepted set is checked first; anything outside it fails with
// common.ErrUnsupportedFormat before any conversion work happens.
// Within the accepted set, Word and PDF are matched exactly and every
// remaining type is treated as an image. That catch-all is deliberate:
// new raster types only need to be added to the accepted set.
func Classify(mimeType string) (Category, error) {
	mt := constants.NormalizeMIMEType(mimeType)
	if !constants.IsAcceptedMIMEType(mt) {
		return "", fmt.Errorf("%w: %q (accepted: JPEG, PNG, WebP, PDF, DOCX)", common.ErrUnsupportedFormat, mimeType)
	}
	switch mt {
	case constants.MIMETypeDocx:
		return CategoryWord, nil
	case constants.MIMETypePDF:
		return CategoryPDF, nil
	default:
		return CategoryImage, nil
	}
}
